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
	maxStateName        = 50
	maxStateDescription = 200
)

type StateBody struct {
	Name        string `json:"name,omitempty" maxLength:"50" doc:"State name"`
	Description string `json:"description,omitempty" maxLength:"200" doc:"State description"`
}

func (b *StateBody) errs() []error {
	var errs []error
	switch {
	case strings.TrimSpace(b.Name) == "":
		errs = append(errs, fieldError("body.name", "El nombre es requerido"))
	case utf8.RuneCountInString(b.Name) > maxStateName:
		errs = append(errs, fieldError("body.name", "El nombre no puede exceder 50 caracteres"))
	}
	if utf8.RuneCountInString(b.Description) > maxStateDescription {
		errs = append(errs, fieldError("body.description", "La descripción no puede exceder 200 caracteres"))
	}
	return errs
}

func (b *StateBody) input() domain.StateInput {
	return domain.StateInput{Name: strings.TrimSpace(b.Name), Description: strings.TrimSpace(b.Description)}
}

type ListStatesOutput struct {
	Body []domain.State
}

type StateIDInput struct {
	ID int `path:"id" minimum:"1" doc:"State ID"`
}

type StateOutput struct {
	Body *domain.State
}

type CreateStateInput struct {
	Body StateBody
}

func (i *CreateStateInput) Resolve(huma.Context) []error { return i.Body.errs() }

type UpdateStateInput struct {
	ID   int `path:"id" minimum:"1" doc:"State ID"`
	Body StateBody
}

func (i *UpdateStateInput) Resolve(huma.Context) []error { return i.Body.errs() }

func RegisterStateRoutes(api huma.API, store DataStore) {
	UseErrorBody()

	huma.Register(api, huma.Operation{
		OperationID: "list-states",
		Method:      http.MethodGet,
		Path:        "/api/States",
		Summary:     "List states",
		Tags:        []string{"States"},
	}, func(ctx context.Context, _ *struct{}) (*ListStatesOutput, error) {
		states, err := store.States().List(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError(msgServer, err)
		}
		return &ListStatesOutput{Body: states}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/api/States/{id}",
		Summary:     "Get a state by ID",
		Tags:        []string{"States"},
	}, func(ctx context.Context, input *StateIDInput) (*StateOutput, error) {
		s, err := store.States().GetByID(ctx, input.ID)
		if err != nil {
			return nil, stateError(err)
		}
		return &StateOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-state",
		Method:        http.MethodPost,
		Path:          "/api/States",
		Summary:       "Create a state",
		Tags:          []string{"States"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateStateInput) (*StateOutput, error) {
		s, err := store.States().Create(ctx, input.Body.input())
		if err != nil {
			return nil, stateError(err)
		}
		return &StateOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-state",
		Method:      http.MethodPut,
		Path:        "/api/States/{id}",
		Summary:     "Update a state",
		Tags:        []string{"States"},
	}, func(ctx context.Context, input *UpdateStateInput) (*StateOutput, error) {
		s, err := store.States().Update(ctx, input.ID, input.Body.input())
		if err != nil {
			return nil, stateError(err)
		}
		return &StateOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-state",
		Method:      http.MethodDelete,
		Path:        "/api/States/{id}",
		Summary:     "Delete a state",
		Tags:        []string{"States"},
	}, func(ctx context.Context, input *StateIDInput) (*struct{}, error) {
		if err := store.States().Delete(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, badRequest("No se puede eliminar un estado con tareas asociadas")
			}
			return nil, stateError(err)
		}
		return nil, nil
	})
}

func stateError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("Estado no encontrado")
	case errors.Is(err, domain.ErrConflict):
		return badRequest("Ya existe un estado con ese nombre")
	default:
		return huma.Error500InternalServerError(msgServer, err)
	}
}
