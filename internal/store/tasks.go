package store

import (
	"context"
	"slices"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/messages"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// TaskAPI is the part of the API client used by the task store.
type TaskAPI interface {
	ListTasks(ctx context.Context, q domain.TaskQuery) (*domain.PagedResult[domain.Task], error)
	GetTask(ctx context.Context, id int) (*domain.Task, error)
	CreateTask(ctx context.Context, in domain.TaskInput) (*domain.Task, error)
	UpdateTask(ctx context.Context, id int, in domain.TaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int) error
}

// TaskState is the task listing snapshot.
type TaskState struct {
	Tasks           []domain.Task
	Current         *domain.Task
	TotalCount      int
	CurrentPage     int
	PageSize        int
	TotalPages      int
	HasNextPage     bool
	HasPreviousPage bool
	IsLoading       bool
	Error           string
	Filters         domain.TaskFilter
}

// InitialTaskState is the state of a fresh task store.
func InitialTaskState() TaskState {
	return TaskState{Tasks: []domain.Task{}, CurrentPage: DefaultPage, PageSize: DefaultPageSize}
}

func (s TaskState) clone() TaskState {
	s.Tasks = slices.Clone(s.Tasks)
	if s.Current != nil {
		t := *s.Current
		s.Current = &t
	}
	s.Filters = domain.TaskFilter{}.Merge(s.Filters)
	return s
}

// Query is the listing request for the current filters and pagination.
func (s TaskState) Query() domain.TaskQuery {
	return domain.TaskQuery{Filter: s.Filters, Page: s.CurrentPage, PageSize: s.PageSize}
}

func (s TaskState) listed(page *domain.PagedResult[domain.Task]) TaskState {
	s.Tasks = slices.Clone(page.Items)
	if s.Tasks == nil {
		s.Tasks = []domain.Task{}
	}
	s.TotalCount = page.TotalCount
	s.CurrentPage = page.Page
	s.PageSize = page.PageSize
	s.TotalPages = page.TotalPages
	s.HasNextPage = page.HasNextPage
	s.HasPreviousPage = page.HasPreviousPage
	return s
}

func (s TaskState) created(t domain.Task) TaskState {
	s.Tasks = append([]domain.Task{t}, s.Tasks...)
	s.TotalCount++
	return s
}

func (s TaskState) updated(t domain.Task) TaskState {
	s.Tasks = slices.Clone(s.Tasks)
	if i := slices.IndexFunc(s.Tasks, func(x domain.Task) bool { return x.ID == t.ID }); i >= 0 {
		s.Tasks[i] = t
	}
	if s.Current != nil && s.Current.ID == t.ID {
		s.Current = &t
	}
	return s
}

func (s TaskState) deleted(id int) TaskState {
	s.Tasks = slices.DeleteFunc(slices.Clone(s.Tasks), func(x domain.Task) bool { return x.ID == id })
	s.TotalCount--
	if s.Current != nil && s.Current.ID == id {
		s.Current = nil
	}
	return s
}

// Tasks is the task store.
type Tasks struct {
	api   TaskAPI
	texts messages.Texts
	c     *container[TaskState]

	// Guarded by c.mu.
	inflight  int
	lists     *sequencer[struct{}]
	current   *sequencer[struct{}]
	mutations *sequencer[int]
}

func NewTasks(api TaskAPI, texts messages.Texts) *Tasks {
	return &Tasks{
		api:       api,
		texts:     texts,
		c:         newContainer(InitialTaskState()),
		lists:     newSequencer[struct{}](),
		current:   newSequencer[struct{}](),
		mutations: newSequencer[int](),
	}
}

func (t *Tasks) State() TaskState { return t.c.snapshot() }

func (t *Tasks) Subscribe(fn func(TaskState)) func() { return t.c.subscribe(fn) }

// begin marks an operation in flight and runs issue under the lock.
func (t *Tasks) begin(issue func()) {
	t.c.update(func(s TaskState) TaskState {
		t.inflight++
		if issue != nil {
			issue()
		}
		s.IsLoading = true
		s.Error = ""
		return s
	})
}

// finish ends an operation. apply runs only when fresh reports true.
func (t *Tasks) finish(fresh func() bool, apply func(TaskState) TaskState) {
	t.c.update(func(s TaskState) TaskState {
		t.inflight--
		if fresh == nil || fresh() {
			s = apply(s)
		}
		s.IsLoading = t.inflight > 0
		return s
	})
}

func setError(msg string) func(TaskState) TaskState {
	return func(s TaskState) TaskState {
		s.Error = msg
		return s
	}
}

// List replaces the listing and pagination with one page. A response is
// dropped when a newer List was issued after it.
func (t *Tasks) List(ctx context.Context, q domain.TaskQuery) (*domain.PagedResult[domain.Task], error) {
	var ticket uint64
	t.begin(func() { ticket = t.lists.issue(struct{}{}) })
	fresh := func() bool { return t.lists.current(struct{}{}, ticket) }

	page, err := t.api.ListTasks(ctx, q)
	if err != nil {
		opErr := failure(ctx, t.texts, "Tasks.List", messages.LoadTasksFailed, err)
		t.finish(fresh, setError(opErr.Message))
		return nil, opErr
	}
	t.finish(fresh, func(s TaskState) TaskState { return s.listed(page) })
	return page, nil
}

// Fetch lists with the current filters and pagination.
func (t *Tasks) Fetch(ctx context.Context) (*domain.PagedResult[domain.Task], error) {
	return t.List(ctx, t.State().Query())
}

// GetByID loads one task into Current.
func (t *Tasks) GetByID(ctx context.Context, id int) (*domain.Task, error) {
	var ticket uint64
	t.begin(func() { ticket = t.current.issue(struct{}{}) })
	fresh := func() bool { return t.current.current(struct{}{}, ticket) }

	task, err := t.api.GetTask(ctx, id)
	if err != nil {
		opErr := failure(ctx, t.texts, "Tasks.GetByID", messages.LoadTaskFailed, err)
		t.finish(fresh, setError(opErr.Message))
		return nil, opErr
	}
	t.finish(fresh, func(s TaskState) TaskState {
		cp := *task
		s.Current = &cp
		return s
	})
	return task, nil
}

// Create puts the new task at the front of the listing.
func (t *Tasks) Create(ctx context.Context, in domain.TaskInput) (*domain.Task, error) {
	t.begin(nil)

	task, err := t.api.CreateTask(ctx, in)
	if err != nil {
		opErr := failure(ctx, t.texts, "Tasks.Create", messages.CreateTaskFailed, err)
		t.finish(nil, setError(opErr.Message))
		return nil, opErr
	}
	t.finish(nil, func(s TaskState) TaskState { return s.created(*task) })
	return task, nil
}

// Update replaces the task in place. Only the latest mutation issued for an
// id changes state; earlier completions still return their result.
func (t *Tasks) Update(ctx context.Context, id int, in domain.TaskInput) (*domain.Task, error) {
	var ticket uint64
	t.begin(func() { ticket = t.mutations.issue(id) })
	fresh := func() bool {
		ok := t.mutations.current(id, ticket)
		t.mutations.forget(id, ticket)
		return ok
	}

	task, err := t.api.UpdateTask(ctx, id, in)
	if err != nil {
		opErr := failure(ctx, t.texts, "Tasks.Update", messages.UpdateTaskFailed, err)
		t.finish(fresh, setError(opErr.Message))
		return nil, opErr
	}
	t.finish(fresh, func(s TaskState) TaskState { return s.updated(*task) })
	return task, nil
}

// Delete removes the task from the listing and decrements the total.
func (t *Tasks) Delete(ctx context.Context, id int) error {
	var ticket uint64
	t.begin(func() { ticket = t.mutations.issue(id) })
	fresh := func() bool {
		ok := t.mutations.current(id, ticket)
		t.mutations.forget(id, ticket)
		return ok
	}

	if err := t.api.DeleteTask(ctx, id); err != nil {
		opErr := failure(ctx, t.texts, "Tasks.Delete", messages.DeleteTaskFailed, err)
		t.finish(fresh, setError(opErr.Message))
		return opErr
	}
	t.finish(fresh, func(s TaskState) TaskState { return s.deleted(id) })
	return nil
}

// SetFilters merges patch into the filters and returns to the first page.
func (t *Tasks) SetFilters(patch domain.TaskFilter) {
	t.c.update(func(s TaskState) TaskState {
		s.Filters = s.Filters.Merge(patch)
		s.CurrentPage = DefaultPage
		return s
	})
}

func (t *Tasks) ClearFilters() {
	t.c.update(func(s TaskState) TaskState {
		s.Filters = domain.TaskFilter{}
		s.CurrentPage = DefaultPage
		return s
	})
}

func (t *Tasks) SetCurrentPage(page int) {
	if page < 1 {
		page = DefaultPage
	}
	t.c.update(func(s TaskState) TaskState {
		s.CurrentPage = page
		return s
	})
}

func (t *Tasks) SetPageSize(size int) {
	if size < 1 {
		size = DefaultPageSize
	}
	t.c.update(func(s TaskState) TaskState {
		s.PageSize = size
		return s
	})
}

func (t *Tasks) ClearCurrentTask() {
	t.c.update(func(s TaskState) TaskState {
		s.Current = nil
		return s
	})
}

func (t *Tasks) ClearError() {
	t.c.update(func(s TaskState) TaskState {
		s.Error = ""
		return s
	})
}
