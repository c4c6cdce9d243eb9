package event

import (
	"context"

	domain "eventbook/internal/domain/event"
)

// Store persists Event state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	Save(ctx context.Context, value domain.Event) error
	Update(ctx context.Context, value domain.Event) error
	Delete(ctx context.Context, id string) error
}
