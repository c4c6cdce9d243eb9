package account

import (
	"context"
	"time"

	domain "eventbook/internal/domain/account"
	profileDomain "eventbook/internal/domain/profile"
)

// Store persists Account state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByUsername(ctx context.Context, username string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	RecordFailedLogin(ctx context.Context, id string, now time.Time) (int, error)
	ResetFailedLogins(ctx context.Context, id string) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	CreateWithProfile(ctx context.Context, value domain.Account, p profileDomain.Profile) error
	Count(ctx context.Context) (int, error)
}
