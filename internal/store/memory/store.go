// Package memory is the in-process storage behind the development API.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gosuda/taskboard/internal/auth"
	"github.com/gosuda/taskboard/internal/domain"
)

// Seed credentials of the development account.
const (
	SeedUsername = "admin"
	SeedEmail    = "admin@example.com"
	SeedPassword = "admin57123@" //nolint:gosec // G101: published development credential
)

// SeedStates are created in order by Seed.
var SeedStates = []domain.StateInput{ //nolint:gochecknoglobals // seed fixture
	{Name: "Pendiente", Description: "Tareas por comenzar"},
	{Name: "En Progreso", Description: "Tareas en curso"},
	{Name: "Completada", Description: "Tareas terminadas"},
}

// Store keeps accounts, states and tasks under one lock so the
// state-in-use check and task writes observe the same snapshot.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	accounts  map[int]*auth.Account
	states    map[int]domain.State
	tasks     map[int]domain.Task
	nextUser  int
	nextState int
	nextTask  int

	users     *UserRepo
	stateRepo *StateRepo
	taskRepo  *TaskRepo
}

// New returns an empty store.
func New() *Store {
	s := &Store{
		now:       time.Now,
		accounts:  make(map[int]*auth.Account),
		states:    make(map[int]domain.State),
		tasks:     make(map[int]domain.Task),
		nextUser:  1,
		nextState: 1,
		nextTask:  1,
	}
	s.users = &UserRepo{s: s}
	s.stateRepo = &StateRepo{s: s}
	s.taskRepo = &TaskRepo{s: s}
	return s
}

// Seed creates the development account and the default states.
func (s *Store) Seed(ctx context.Context) error {
	hash, err := auth.HashPassword(SeedPassword)
	if err != nil {
		return fmt.Errorf("memory.Store.Seed: %w", err)
	}
	now := s.now()
	err = s.users.Create(ctx, &auth.Account{
		Username:     SeedUsername,
		Email:        SeedEmail,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("memory.Store.Seed: %w", err)
	}
	for _, in := range SeedStates {
		if _, err := s.stateRepo.Create(ctx, in); err != nil {
			return fmt.Errorf("memory.Store.Seed: %w", err)
		}
	}
	return nil
}

func (s *Store) Users() *UserRepo                { return s.users }
func (s *Store) States() domain.StateRepository { return s.stateRepo }
func (s *Store) Tasks() domain.TaskRepository   { return s.taskRepo }

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	s *Store
}

func (r *UserRepo) Create(_ context.Context, a *auth.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return fmt.Errorf("memory.UserRepo.Create: %w", domain.ErrConflict)
		}
	}
	a.ID = r.s.nextUser
	r.s.nextUser++
	cp := *a
	r.s.accounts[a.ID] = &cp
	return nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*auth.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.accounts {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("memory.UserRepo.GetByEmail: %w", domain.ErrNotFound)
}

func (r *UserRepo) GetByID(_ context.Context, id int) (*auth.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("memory.UserRepo.GetByID: %w", domain.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

// ---------------------------------------------------------------------------
// States
// ---------------------------------------------------------------------------

// StateRepo implements domain.StateRepository. Names are unique,
// case-insensitively.
type StateRepo struct {
	s *Store
}

func (r *StateRepo) List(_ context.Context) ([]domain.State, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.State, 0, len(r.s.states))
	for _, st := range r.s.states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *StateRepo) GetByID(_ context.Context, id int) (*domain.State, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.states[id]
	if !ok {
		return nil, fmt.Errorf("memory.StateRepo.GetByID: %w", domain.ErrNotFound)
	}
	return &st, nil
}

func (r *StateRepo) Create(_ context.Context, in domain.StateInput) (*domain.State, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.nameTaken(in.Name, 0) {
		return nil, fmt.Errorf("memory.StateRepo.Create: %w", domain.ErrConflict)
	}
	now := domain.NewTimestamp(r.s.now().UTC())
	st := domain.State{
		ID:          r.s.nextState,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.nextState++
	r.s.states[st.ID] = st
	return &st, nil
}

func (r *StateRepo) Update(_ context.Context, id int, in domain.StateInput) (*domain.State, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st, ok := r.s.states[id]
	if !ok {
		return nil, fmt.Errorf("memory.StateRepo.Update: %w", domain.ErrNotFound)
	}
	if r.s.nameTaken(in.Name, id) {
		return nil, fmt.Errorf("memory.StateRepo.Update: %w", domain.ErrConflict)
	}
	st.Name = in.Name
	st.Description = in.Description
	st.UpdatedAt = domain.NewTimestamp(r.s.now().UTC())
	r.s.states[id] = st
	return &st, nil
}

func (r *StateRepo) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.states[id]; !ok {
		return fmt.Errorf("memory.StateRepo.Delete: %w", domain.ErrNotFound)
	}
	for _, t := range r.s.tasks {
		if t.StateID == id {
			return fmt.Errorf("memory.StateRepo.Delete: %w", domain.ErrConflict)
		}
	}
	delete(r.s.states, id)
	return nil
}

// nameTaken must be called with mu held.
func (s *Store) nameTaken(name string, except int) bool {
	for id, st := range s.states {
		if id != except && strings.EqualFold(st.Name, name) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

// TaskRepo implements domain.TaskRepository. Reads embed a copy of the
// referenced state.
type TaskRepo struct {
	s *Store
}

func (r *TaskRepo) List(_ context.Context, q domain.TaskQuery) (domain.PagedResult[domain.Task], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]domain.Task, 0, len(r.s.tasks))
	for _, t := range r.s.tasks {
		if matches(t, q.Filter) {
			matched = append(matched, r.s.withState(t))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt.Time) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt.Time)
		}
		return matched[i].ID > matched[j].ID
	})

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = len(matched)
	}
	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := min(start+size, len(matched))
	return domain.NewPagedResult(matched[start:end], len(matched), page, size), nil
}

func matches(t domain.Task, f domain.TaskFilter) bool {
	if f.StateID != nil && t.StateID != *f.StateID {
		return false
	}
	if f.Title != nil && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(*f.Title)) {
		return false
	}
	if f.DueDate != nil {
		if t.DueDate == nil || t.DueDate.UTC().Format(domain.DateLayout) != *f.DueDate {
			return false
		}
	}
	return true
}

func (r *TaskRepo) GetByID(_ context.Context, id int) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("memory.TaskRepo.GetByID: %w", domain.ErrNotFound)
	}
	t = r.s.withState(t)
	return &t, nil
}

func (r *TaskRepo) Create(_ context.Context, in domain.TaskInput) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.states[in.StateID]; !ok {
		return nil, fmt.Errorf("memory.TaskRepo.Create: state %d: %w", in.StateID, domain.ErrValidation)
	}
	now := domain.NewTimestamp(r.s.now().UTC())
	t := domain.Task{
		ID:          r.s.nextTask,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     copyTimestamp(in.DueDate),
		StateID:     in.StateID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.nextTask++
	r.s.tasks[t.ID] = t
	t = r.s.withState(t)
	return &t, nil
}

func (r *TaskRepo) Update(_ context.Context, id int, in domain.TaskInput) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("memory.TaskRepo.Update: %w", domain.ErrNotFound)
	}
	if _, ok := r.s.states[in.StateID]; !ok {
		return nil, fmt.Errorf("memory.TaskRepo.Update: state %d: %w", in.StateID, domain.ErrValidation)
	}
	t.Title = in.Title
	t.Description = in.Description
	t.DueDate = copyTimestamp(in.DueDate)
	t.StateID = in.StateID
	t.UpdatedAt = domain.NewTimestamp(r.s.now().UTC())
	r.s.tasks[id] = t
	t = r.s.withState(t)
	return &t, nil
}

func (r *TaskRepo) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return fmt.Errorf("memory.TaskRepo.Delete: %w", domain.ErrNotFound)
	}
	delete(r.s.tasks, id)
	return nil
}

// withState must be called with mu held.
func (s *Store) withState(t domain.Task) domain.Task {
	if st, ok := s.states[t.StateID]; ok {
		t.State = &st
	}
	return t
}

func copyTimestamp(ts *domain.Timestamp) *domain.Timestamp {
	if ts == nil || ts.IsZero() {
		return nil
	}
	cp := *ts
	return &cp
}
