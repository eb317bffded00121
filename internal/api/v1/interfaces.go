package v1

import (
	"context"

	"github.com/gosuda/taskboard/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *memory.Store satisfies this interface.
type DataStore interface {
	States() domain.StateRepository
	Tasks() domain.TaskRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*domain.AuthResponse, error)
}
