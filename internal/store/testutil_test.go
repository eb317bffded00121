package store_test

import (
	"context"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/messages"
)

var catalog = messages.MustNew(messages.LanguageEs) //nolint:gochecknoglobals // shared fixture

func text(id string) string {
	return catalog.Text(context.Background(), id, nil)
}

// ---------------------------------------------------------------------------
// Mock AuthAPI
// ---------------------------------------------------------------------------

type mockAuthAPI struct {
	loginFunc      func(ctx context.Context, in domain.LoginInput) (*domain.AuthResponse, error)
	registerFunc   func(ctx context.Context, in domain.RegisterInput) (*domain.AuthResponse, error)
	listStatesFunc func(ctx context.Context) ([]domain.State, error)
}

func (m *mockAuthAPI) Login(ctx context.Context, in domain.LoginInput) (*domain.AuthResponse, error) {
	return m.loginFunc(ctx, in)
}

func (m *mockAuthAPI) Register(ctx context.Context, in domain.RegisterInput) (*domain.AuthResponse, error) {
	return m.registerFunc(ctx, in)
}

func (m *mockAuthAPI) ListStates(ctx context.Context) ([]domain.State, error) {
	return m.listStatesFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock TaskAPI
// ---------------------------------------------------------------------------

type mockTaskAPI struct {
	listFunc   func(ctx context.Context, q domain.TaskQuery) (*domain.PagedResult[domain.Task], error)
	getFunc    func(ctx context.Context, id int) (*domain.Task, error)
	createFunc func(ctx context.Context, in domain.TaskInput) (*domain.Task, error)
	updateFunc func(ctx context.Context, id int, in domain.TaskInput) (*domain.Task, error)
	deleteFunc func(ctx context.Context, id int) error
}

func (m *mockTaskAPI) ListTasks(ctx context.Context, q domain.TaskQuery) (*domain.PagedResult[domain.Task], error) {
	return m.listFunc(ctx, q)
}

func (m *mockTaskAPI) GetTask(ctx context.Context, id int) (*domain.Task, error) {
	return m.getFunc(ctx, id)
}

func (m *mockTaskAPI) CreateTask(ctx context.Context, in domain.TaskInput) (*domain.Task, error) {
	return m.createFunc(ctx, in)
}

func (m *mockTaskAPI) UpdateTask(ctx context.Context, id int, in domain.TaskInput) (*domain.Task, error) {
	return m.updateFunc(ctx, id, in)
}

func (m *mockTaskAPI) DeleteTask(ctx context.Context, id int) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock StateAPI
// ---------------------------------------------------------------------------

type mockStateAPI struct {
	listFunc   func(ctx context.Context) ([]domain.State, error)
	getFunc    func(ctx context.Context, id int) (*domain.State, error)
	createFunc func(ctx context.Context, in domain.StateInput) (*domain.State, error)
	updateFunc func(ctx context.Context, id int, in domain.StateInput) (*domain.State, error)
	deleteFunc func(ctx context.Context, id int) error
}

func (m *mockStateAPI) ListStates(ctx context.Context) ([]domain.State, error) {
	return m.listFunc(ctx)
}

func (m *mockStateAPI) GetState(ctx context.Context, id int) (*domain.State, error) {
	return m.getFunc(ctx, id)
}

func (m *mockStateAPI) CreateState(ctx context.Context, in domain.StateInput) (*domain.State, error) {
	return m.createFunc(ctx, in)
}

func (m *mockStateAPI) UpdateState(ctx context.Context, id int, in domain.StateInput) (*domain.State, error) {
	return m.updateFunc(ctx, id, in)
}

func (m *mockStateAPI) DeleteState(ctx context.Context, id int) error {
	return m.deleteFunc(ctx, id)
}
