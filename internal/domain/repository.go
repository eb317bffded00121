package domain

import "context"

// StateRepository stores workflow states. Lookups return ErrNotFound for
// unknown ids; Delete returns ErrConflict while tasks still reference the
// state.
type StateRepository interface {
	List(ctx context.Context) ([]State, error)
	GetByID(ctx context.Context, id int) (*State, error)
	Create(ctx context.Context, in StateInput) (*State, error)
	Update(ctx context.Context, id int, in StateInput) (*State, error)
	Delete(ctx context.Context, id int) error
}

// TaskRepository stores tasks. List orders newest first.
type TaskRepository interface {
	List(ctx context.Context, q TaskQuery) (PagedResult[Task], error)
	GetByID(ctx context.Context, id int) (*Task, error)
	Create(ctx context.Context, in TaskInput) (*Task, error)
	Update(ctx context.Context, id int, in TaskInput) (*Task, error)
	Delete(ctx context.Context, id int) error
}
