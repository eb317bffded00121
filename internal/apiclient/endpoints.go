package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gosuda/taskboard/internal/domain"
)

const (
	pathLogin    = "/api/Auth/login"
	pathRegister = "/api/Auth/register"
	pathStates   = "/api/States"
	pathTasks    = "/api/Tasks"
)

func itemPath(base string, id int) string {
	return base + "/" + strconv.Itoa(id)
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func (c *Client) Login(ctx context.Context, in domain.LoginInput) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.Do(ctx, http.MethodPost, pathLogin, in, nil, &out); err != nil {
		return nil, fmt.Errorf("apiclient.Client.Login: %w", err)
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in domain.RegisterInput) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.Do(ctx, http.MethodPost, pathRegister, in, nil, &out); err != nil {
		return nil, fmt.Errorf("apiclient.Client.Register: %w", err)
	}
	return &out, nil
}

// ---------------------------------------------------------------------------
// States
// ---------------------------------------------------------------------------

func (c *Client) ListStates(ctx context.Context) ([]domain.State, error) {
	var out []domain.State
	if err := c.Do(ctx, http.MethodGet, pathStates, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("apiclient.Client.ListStates: %w", err)
	}
	if out == nil {
		out = []domain.State{}
	}
	return out, nil
}

func (c *Client) GetState(ctx context.Context, id int) (*domain.State, error) {
	var out domain.State
	if err := c.Do(ctx, http.MethodGet, itemPath(pathStates, id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("apiclient.Client.GetState: %w", err)
	}
	return &out, nil
}

func (c *Client) CreateState(ctx context.Context, in domain.StateInput) (*domain.State, error) {
	var out domain.State
	if err := c.Do(ctx, http.MethodPost, pathStates, in, nil, &out); err != nil {
		return nil, fmt.Errorf("apiclient.Client.CreateState: %w", err)
	}
	return &out, nil
}

func (c *Client) UpdateState(ctx context.Context, id int, in domain.StateInput) (*domain.State, error) {
	var out domain.State
	if err := c.Do(ctx, http.MethodPut, itemPath(pathStates, id), in, nil, &out); err != nil {
		return nil, fmt.Errorf("apiclient.Client.UpdateState: %w", err)
	}
	return &out, nil
}

func (c *Client) DeleteState(ctx context.Context, id int) error {
	if err := c.Do(ctx, http.MethodDelete, itemPath(pathStates, id), nil, nil, nil); err != nil {
		return fmt.Errorf("apiclient.Client.DeleteState: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

func (c *Client) ListTasks(ctx context.Context, q domain.TaskQuery) (*domain.PagedResult[domain.Task], error) {
	var out domain.PagedResult[domain.Task]
	if err := c.Do(ctx, http.MethodGet, pathTasks, nil, q.Values(), &out); err != nil {
		return nil, fmt.Errorf("apiclient.Client.ListTasks: %w", err)
	}
	if out.Items == nil {
		out.Items = []domain.Task{}
	}
	return &out, nil
}

func (c *Client) GetTask(ctx context.Context, id int) (*domain.Task, error) {
	var out domain.Task
	if err := c.Do(ctx, http.MethodGet, itemPath(pathTasks, id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("apiclient.Client.GetTask: %w", err)
	}
	return &out, nil
}

func (c *Client) CreateTask(ctx context.Context, in domain.TaskInput) (*domain.Task, error) {
	var out domain.Task
	if err := c.Do(ctx, http.MethodPost, pathTasks, in, nil, &out); err != nil {
		return nil, fmt.Errorf("apiclient.Client.CreateTask: %w", err)
	}
	return &out, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int, in domain.TaskInput) (*domain.Task, error) {
	var out domain.Task
	if err := c.Do(ctx, http.MethodPut, itemPath(pathTasks, id), in, nil, &out); err != nil {
		return nil, fmt.Errorf("apiclient.Client.UpdateTask: %w", err)
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int) error {
	if err := c.Do(ctx, http.MethodDelete, itemPath(pathTasks, id), nil, nil, nil); err != nil {
		return fmt.Errorf("apiclient.Client.DeleteTask: %w", err)
	}
	return nil
}

// CountTasks returns the total number of tasks matching f.
func (c *Client) CountTasks(ctx context.Context, f domain.TaskFilter) (int, error) {
	page, err := c.ListTasks(ctx, domain.TaskQuery{Filter: f, Page: 1, PageSize: 1})
	if err != nil {
		return 0, fmt.Errorf("apiclient.Client.CountTasks: %w", err)
	}
	return page.TotalCount, nil
}
