package v1_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/taskboard/internal/api/v1"
	"github.com/gosuda/taskboard/internal/domain"
)

// decodeError reads an error response body.
func decodeError(t *testing.T, resp *httptest.ResponseRecorder) v1.ErrorBody {
	t.Helper()

	var body v1.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	states domain.StateRepository
	tasks  domain.TaskRepository
}

func (m *mockDataStore) States() domain.StateRepository { return m.states }
func (m *mockDataStore) Tasks() domain.TaskRepository   { return m.tasks }

// ---------------------------------------------------------------------------
// Mock StateRepository
// ---------------------------------------------------------------------------

type mockStateRepo struct {
	listFunc    func(ctx context.Context) ([]domain.State, error)
	getByIDFunc func(ctx context.Context, id int) (*domain.State, error)
	createFunc  func(ctx context.Context, in domain.StateInput) (*domain.State, error)
	updateFunc  func(ctx context.Context, id int, in domain.StateInput) (*domain.State, error)
	deleteFunc  func(ctx context.Context, id int) error
}

func (m *mockStateRepo) List(ctx context.Context) ([]domain.State, error) {
	return m.listFunc(ctx)
}

func (m *mockStateRepo) GetByID(ctx context.Context, id int) (*domain.State, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockStateRepo) Create(ctx context.Context, in domain.StateInput) (*domain.State, error) {
	return m.createFunc(ctx, in)
}

func (m *mockStateRepo) Update(ctx context.Context, id int, in domain.StateInput) (*domain.State, error) {
	return m.updateFunc(ctx, id, in)
}

func (m *mockStateRepo) Delete(ctx context.Context, id int) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock TaskRepository
// ---------------------------------------------------------------------------

type mockTaskRepo struct {
	listFunc    func(ctx context.Context, q domain.TaskQuery) (domain.PagedResult[domain.Task], error)
	getByIDFunc func(ctx context.Context, id int) (*domain.Task, error)
	createFunc  func(ctx context.Context, in domain.TaskInput) (*domain.Task, error)
	updateFunc  func(ctx context.Context, id int, in domain.TaskInput) (*domain.Task, error)
	deleteFunc  func(ctx context.Context, id int) error
}

func (m *mockTaskRepo) List(ctx context.Context, q domain.TaskQuery) (domain.PagedResult[domain.Task], error) {
	return m.listFunc(ctx, q)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id int) (*domain.Task, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTaskRepo) Create(ctx context.Context, in domain.TaskInput) (*domain.Task, error) {
	return m.createFunc(ctx, in)
}

func (m *mockTaskRepo) Update(ctx context.Context, id int, in domain.TaskInput) (*domain.Task, error) {
	return m.updateFunc(ctx, id, in)
}

func (m *mockTaskRepo) Delete(ctx context.Context, id int) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc func(ctx context.Context, username, email, password string) (*domain.AuthResponse, error)
	loginFunc    func(ctx context.Context, email, password string) (*domain.AuthResponse, error)
}

func (m *mockAuthService) Register(ctx context.Context, username, email, password string) (*domain.AuthResponse, error) {
	return m.registerFunc(ctx, username, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	return m.loginFunc(ctx, email, password)
}

// knownState answers GetByID for the given ids only.
func knownState(ids ...int) *mockStateRepo {
	return &mockStateRepo{
		getByIDFunc: func(_ context.Context, id int) (*domain.State, error) {
			for _, known := range ids {
				if id == known {
					return &domain.State{ID: id, Name: "Pendiente"}, nil
				}
			}
			return nil, domain.ErrNotFound
		},
	}
}
