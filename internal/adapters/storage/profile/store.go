package profile

import (
	"context"

	domain "eventbook/internal/domain/profile"
)

// Store persists Profile state.
type Store interface {
	GetByAccountID(ctx context.Context, accountID string) (domain.Profile, error)
	Save(ctx context.Context, value domain.Profile) error
}
