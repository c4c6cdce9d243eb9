package orchestrators

import (
	"context"
	"errors"
	"time"

	"eventbook/internal/domain/account"
	"eventbook/internal/domain/profile"
)

// ProfileStoreForUpdate defines the store interface needed by UpdateProfile.
type ProfileStoreForUpdate interface {
	GetByAccountID(ctx context.Context, accountID string) (profile.Profile, error)
	Save(ctx context.Context, p profile.Profile) error
}

// UpdateProfileInput carries the profile form for the acting account.
type UpdateProfileInput struct {
	Principal account.Principal
	Bio       string
	Location  string
}

// UpdateProfileDeps holds dependencies for UpdateProfile.
type UpdateProfileDeps struct {
	ProfileStore ProfileStoreForUpdate
	Now          func() time.Time
}

// ErrAuthenticationRequired is returned when an anonymous principal reaches a
// command that needs an account.
var ErrAuthenticationRequired = errors.New("authentication required")

// ExecuteUpdateProfile replaces the principal's own bio and location.
// PRE: Principal is authenticated
// POST: the principal's profile holds the trimmed input, or validation.Errors is returned
// INVARIANT: no other account's profile is touched
func ExecuteUpdateProfile(ctx context.Context, input UpdateProfileInput, deps UpdateProfileDeps) (profile.Profile, error) {
	if input.Principal.IsAnonymous() {
		return profile.Profile{}, ErrAuthenticationRequired
	}
	now := clock(deps.Now)

	p, err := deps.ProfileStore.GetByAccountID(ctx, input.Principal.ID)
	if errors.Is(err, profile.ErrNotFound) {
		p = profile.New(input.Principal.ID, now)
	} else if err != nil {
		return profile.Profile{}, err
	}

	p.Update(input.Bio, input.Location, now)
	if err := p.Validate(); err != nil {
		return profile.Profile{}, err
	}
	if err := deps.ProfileStore.Save(ctx, p); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}
