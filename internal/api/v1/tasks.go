package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskboard/internal/domain"
)

const (
	maxTaskTitle       = 200
	maxTaskDescription = 1000
)

type TaskBody struct {
	Title       string  `json:"title,omitempty" maxLength:"200" doc:"Task title"`
	Description string  `json:"description,omitempty" maxLength:"1000" doc:"Task description"`
	StateID     int     `json:"stateId,omitempty" minimum:"1" doc:"State ID"`
	DueDate     *string `json:"dueDate,omitempty" nullable:"true" doc:"Due date (RFC 3339 or YYYY-MM-DD)"`

	dueDate *domain.Timestamp
}

func (b *TaskBody) errs() []error {
	var errs []error
	switch {
	case strings.TrimSpace(b.Title) == "":
		errs = append(errs, fieldError("body.title", "El título es requerido"))
	case utf8.RuneCountInString(b.Title) > maxTaskTitle:
		errs = append(errs, fieldError("body.title", "El título no puede exceder 200 caracteres"))
	}
	if utf8.RuneCountInString(b.Description) > maxTaskDescription {
		errs = append(errs, fieldError("body.description", "La descripción no puede exceder 1000 caracteres"))
	}
	if b.StateID <= 0 {
		errs = append(errs, fieldError("body.stateId", "El estado es requerido"))
	}
	b.dueDate = nil
	if b.DueDate != nil && strings.TrimSpace(*b.DueDate) != "" {
		ts, err := domain.ParseTimestamp(strings.TrimSpace(*b.DueDate))
		if err != nil {
			errs = append(errs, fieldError("body.dueDate", "La fecha de vencimiento no es válida"))
		} else {
			b.dueDate = &ts
		}
	}
	return errs
}

func (b *TaskBody) input() domain.TaskInput {
	return domain.TaskInput{
		Title:       strings.TrimSpace(b.Title),
		Description: strings.TrimSpace(b.Description),
		StateID:     b.StateID,
		DueDate:     b.dueDate,
	}
}

type ListTasksInput struct {
	Page     int    `query:"page" default:"1" minimum:"1" doc:"Page number"`
	PageSize int    `query:"pageSize" default:"10" minimum:"1" maximum:"100" doc:"Page size"`
	StateID  int    `query:"stateId" doc:"Filter by state"`
	DueDate  string `query:"dueDate" doc:"Filter by due day (YYYY-MM-DD)"`
	Title    string `query:"title" doc:"Filter by title substring"`
}

func (i *ListTasksInput) Resolve(huma.Context) []error {
	if i.DueDate == "" {
		return nil
	}
	if _, err := domain.ParseTimestamp(i.DueDate); err != nil {
		return []error{fieldError("query.dueDate", "La fecha de vencimiento no es válida")}
	}
	return nil
}

func (i *ListTasksInput) query() domain.TaskQuery {
	f := domain.TaskFilter{}.Merge(domain.TaskFilter{Title: &i.Title, StateID: &i.StateID, DueDate: &i.DueDate})
	return domain.TaskQuery{Filter: f, Page: i.Page, PageSize: i.PageSize}
}

type ListTasksOutput struct {
	Body domain.PagedResult[domain.Task]
}

type TaskIDInput struct {
	ID int `path:"id" minimum:"1" doc:"Task ID"`
}

type TaskOutput struct {
	Body *domain.Task
}

type CreateTaskInput struct {
	Body TaskBody
}

func (i *CreateTaskInput) Resolve(huma.Context) []error { return i.Body.errs() }

type UpdateTaskInput struct {
	ID   int `path:"id" minimum:"1" doc:"Task ID"`
	Body TaskBody
}

func (i *UpdateTaskInput) Resolve(huma.Context) []error { return i.Body.errs() }

func RegisterTaskRoutes(api huma.API, store DataStore) {
	UseErrorBody()

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/api/Tasks",
		Summary:     "List tasks, newest first",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
		page, err := store.Tasks().List(ctx, input.query())
		if err != nil {
			return nil, huma.Error500InternalServerError(msgServer, err)
		}
		return &ListTasksOutput{Body: page}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/api/Tasks/{id}",
		Summary:     "Get a task by ID",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *TaskIDInput) (*TaskOutput, error) {
		t, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			return nil, taskError(err)
		}
		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/api/Tasks",
		Summary:       "Create a task",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTaskInput) (*TaskOutput, error) {
		if err := checkState(ctx, store, input.Body.StateID); err != nil {
			return nil, err
		}
		t, err := store.Tasks().Create(ctx, input.Body.input())
		if err != nil {
			return nil, taskError(err)
		}
		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/api/Tasks/{id}",
		Summary:     "Update a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*TaskOutput, error) {
		if err := checkState(ctx, store, input.Body.StateID); err != nil {
			return nil, err
		}
		t, err := store.Tasks().Update(ctx, input.ID, input.Body.input())
		if err != nil {
			return nil, taskError(err)
		}
		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/api/Tasks/{id}",
		Summary:     "Delete a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *TaskIDInput) (*struct{}, error) {
		if err := store.Tasks().Delete(ctx, input.ID); err != nil {
			return nil, taskError(err)
		}
		return nil, nil
	})
}

// checkState rejects task bodies that reference an unknown state.
func checkState(ctx context.Context, store DataStore, id int) error {
	if _, err := store.States().GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return validationError(map[string][]string{"StateId": {"El estado especificado no existe"}})
		}
		return huma.Error500InternalServerError(msgServer, err)
	}
	return nil
}

func taskError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return huma.Error404NotFound("Tarea no encontrada")
	}
	return huma.Error500InternalServerError(msgServer, err)
}
