package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/iyhunko/shopping-list/internal/model"
)

var (
	// ErrNotFound is returned when no row matches the given ID.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidType is returned when a resource has an unexpected concrete type.
	ErrInvalidType = errors.New("invalid resource type")
	// ErrNoFields is returned when an update carries no fields.
	ErrNoFields = errors.New("no fields to update")
)

// Repository defines the interface for a generic repository that can manage resources.
type Repository interface {
	Create(ctx context.Context, resource Resource) (result Resource, err error)
	List(ctx context.Context, query Query) (result []Resource, err error)
	FindByID(ctx context.Context, id uuid.UUID) (result Resource, err error)
	Update(ctx context.Context, id uuid.UUID, fields model.Fields) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// EventStore persists outbox events.
type EventStore interface {
	Create(ctx context.Context, event *model.Event) error
	ListPending(ctx context.Context, limit int) ([]*model.Event, error)
	UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error
}

// Transactor runs product and event writes in a single transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(products Repository, events EventStore) error) error
}

// Resource represents a generic resource that can be managed by the repository.
type Resource interface {
	InitMeta()
}

// UniqueConstraintError represents a database unique constraint violation error.
type UniqueConstraintError struct {
	Detail string
}

func (u *UniqueConstraintError) Error() string {
	return "resource must be unique: " + u.Detail
}
