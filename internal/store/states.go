package store

import (
	"context"
	"slices"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/messages"
)

// StateAPI is the part of the API client used by the state store.
type StateAPI interface {
	ListStates(ctx context.Context) ([]domain.State, error)
	GetState(ctx context.Context, id int) (*domain.State, error)
	CreateState(ctx context.Context, in domain.StateInput) (*domain.State, error)
	UpdateState(ctx context.Context, id int, in domain.StateInput) (*domain.State, error)
	DeleteState(ctx context.Context, id int) error
}

// StateState is the workflow-state catalogue snapshot.
type StateState struct {
	States    []domain.State
	Current   *domain.State
	IsLoading bool
	Error     string
}

func (s StateState) clone() StateState {
	s.States = slices.Clone(s.States)
	if s.Current != nil {
		c := *s.Current
		s.Current = &c
	}
	return s
}

func (s StateState) listed(states []domain.State) StateState {
	s.States = slices.Clone(states)
	if s.States == nil {
		s.States = []domain.State{}
	}
	return s
}

func (s StateState) created(st domain.State) StateState {
	s.States = append(slices.Clone(s.States), st)
	return s
}

func (s StateState) updated(st domain.State) StateState {
	s.States = slices.Clone(s.States)
	if i := slices.IndexFunc(s.States, func(x domain.State) bool { return x.ID == st.ID }); i >= 0 {
		s.States[i] = st
	}
	if s.Current != nil && s.Current.ID == st.ID {
		s.Current = &st
	}
	return s
}

func (s StateState) deleted(id int) StateState {
	s.States = slices.DeleteFunc(slices.Clone(s.States), func(x domain.State) bool { return x.ID == id })
	if s.Current != nil && s.Current.ID == id {
		s.Current = nil
	}
	return s
}

// ByID returns the state with id, if loaded.
func (s StateState) ByID(id int) (domain.State, bool) {
	i := slices.IndexFunc(s.States, func(x domain.State) bool { return x.ID == id })
	if i < 0 {
		return domain.State{}, false
	}
	return s.States[i], true
}

// States is the workflow-state store. It performs no referential check on
// delete; callers guard deletion of states that still have tasks.
type States struct {
	api   StateAPI
	texts messages.Texts
	c     *container[StateState]

	// Guarded by c.mu.
	inflight  int
	lists     *sequencer[struct{}]
	current   *sequencer[struct{}]
	mutations *sequencer[int]
}

func NewStates(api StateAPI, texts messages.Texts) *States {
	return &States{
		api:       api,
		texts:     texts,
		c:         newContainer(StateState{States: []domain.State{}}),
		lists:     newSequencer[struct{}](),
		current:   newSequencer[struct{}](),
		mutations: newSequencer[int](),
	}
}

func (s *States) State() StateState { return s.c.snapshot() }

func (s *States) Subscribe(fn func(StateState)) func() { return s.c.subscribe(fn) }

func (s *States) begin(issue func()) {
	s.c.update(func(st StateState) StateState {
		s.inflight++
		if issue != nil {
			issue()
		}
		st.IsLoading = true
		st.Error = ""
		return st
	})
}

func (s *States) finish(fresh func() bool, apply func(StateState) StateState) {
	s.c.update(func(st StateState) StateState {
		s.inflight--
		if fresh == nil || fresh() {
			st = apply(st)
		}
		st.IsLoading = s.inflight > 0
		return st
	})
}

func setStateError(msg string) func(StateState) StateState {
	return func(st StateState) StateState {
		st.Error = msg
		return st
	}
}

// Seed applies an already fetched listing. Any List still in flight is
// superseded.
func (s *States) Seed(states []domain.State) {
	s.c.update(func(st StateState) StateState {
		s.lists.issue(struct{}{})
		return st.listed(states)
	})
}

func (s *States) List(ctx context.Context) ([]domain.State, error) {
	var ticket uint64
	s.begin(func() { ticket = s.lists.issue(struct{}{}) })
	fresh := func() bool { return s.lists.current(struct{}{}, ticket) }

	states, err := s.api.ListStates(ctx)
	if err != nil {
		opErr := failure(ctx, s.texts, "States.List", messages.LoadStatesFailed, err)
		s.finish(fresh, setStateError(opErr.Message))
		return nil, opErr
	}
	s.finish(fresh, func(st StateState) StateState { return st.listed(states) })
	return states, nil
}

func (s *States) GetByID(ctx context.Context, id int) (*domain.State, error) {
	var ticket uint64
	s.begin(func() { ticket = s.current.issue(struct{}{}) })
	fresh := func() bool { return s.current.current(struct{}{}, ticket) }

	state, err := s.api.GetState(ctx, id)
	if err != nil {
		opErr := failure(ctx, s.texts, "States.GetByID", messages.LoadStateFailed, err)
		s.finish(fresh, setStateError(opErr.Message))
		return nil, opErr
	}
	s.finish(fresh, func(st StateState) StateState {
		cp := *state
		st.Current = &cp
		return st
	})
	return state, nil
}

// Create appends the new state.
func (s *States) Create(ctx context.Context, in domain.StateInput) (*domain.State, error) {
	s.begin(nil)

	state, err := s.api.CreateState(ctx, in)
	if err != nil {
		opErr := failure(ctx, s.texts, "States.Create", messages.CreateStateFailed, err)
		s.finish(nil, setStateError(opErr.Message))
		return nil, opErr
	}
	s.finish(nil, func(st StateState) StateState { return st.created(*state) })
	return state, nil
}

func (s *States) Update(ctx context.Context, id int, in domain.StateInput) (*domain.State, error) {
	var ticket uint64
	s.begin(func() { ticket = s.mutations.issue(id) })
	fresh := func() bool {
		ok := s.mutations.current(id, ticket)
		s.mutations.forget(id, ticket)
		return ok
	}

	state, err := s.api.UpdateState(ctx, id, in)
	if err != nil {
		opErr := failure(ctx, s.texts, "States.Update", messages.UpdateStateFailed, err)
		s.finish(fresh, setStateError(opErr.Message))
		return nil, opErr
	}
	s.finish(fresh, func(st StateState) StateState { return st.updated(*state) })
	return state, nil
}

func (s *States) Delete(ctx context.Context, id int) error {
	var ticket uint64
	s.begin(func() { ticket = s.mutations.issue(id) })
	fresh := func() bool {
		ok := s.mutations.current(id, ticket)
		s.mutations.forget(id, ticket)
		return ok
	}

	if err := s.api.DeleteState(ctx, id); err != nil {
		opErr := failure(ctx, s.texts, "States.Delete", messages.DeleteStateFailed, err)
		s.finish(fresh, setStateError(opErr.Message))
		return opErr
	}
	s.finish(fresh, func(st StateState) StateState { return st.deleted(id) })
	return nil
}

func (s *States) ClearCurrentState() {
	s.c.update(func(st StateState) StateState {
		st.Current = nil
		return st
	})
}

func (s *States) ClearError() {
	s.c.update(func(st StateState) StateState {
		st.Error = ""
		return st
	})
}
