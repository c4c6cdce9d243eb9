package projections

import (
	"context"
	"errors"

	"eventbook/internal/domain/account"
	domainProfile "eventbook/internal/domain/profile"
)

// GetProfileResult pairs an account's identity with its profile.
type GetProfileResult struct {
	Principal account.Principal
	Profile   domainProfile.Profile
}

// GetProfileDeps holds dependencies for GetProfile.
type GetProfileDeps struct {
	ProfileStore ProfileStore
}

// QueryGetProfile returns the principal's profile, or an empty one if it was never created.
func QueryGetProfile(ctx context.Context, principal account.Principal, deps GetProfileDeps) (GetProfileResult, error) {
	p, err := deps.ProfileStore.GetByAccountID(ctx, principal.ID)
	if errors.Is(err, domainProfile.ErrNotFound) {
		p = domainProfile.Profile{AccountID: principal.ID}
	} else if err != nil {
		return GetProfileResult{}, err
	}
	return GetProfileResult{Principal: principal, Profile: p}, nil
}
