package profile

import (
	"errors"
	"strings"
	"time"

	"eventbook/internal/domain/validation"
)

// MaxLocationLength bounds the free-text location.
const MaxLocationLength = 100

// MaxBioLength bounds the markdown bio.
const MaxBioLength = 5000

// ErrNotFound is returned when an account has no profile row.
var ErrNotFound = errors.New("profile not found")

// Profile is the one-to-one extension of an Account.
type Profile struct {
	AccountID string
	Bio       string
	Location  string
	UpdatedAt time.Time
}

// New returns the empty profile created alongside an account.
func New(accountID string, now time.Time) Profile {
	return Profile{AccountID: accountID, UpdatedAt: now}
}

// Validate checks the editable fields.
// PRE: Profile struct is populated
// POST: Returns nil if valid, validation.Errors otherwise
func (p *Profile) Validate() error {
	errs := validation.Errors{}
	if p.AccountID == "" {
		errs.Add("", "profile has no owner")
	}
	if len([]rune(p.Location)) > MaxLocationLength {
		errs.Add("location", "Ensure this value has at most 100 characters.")
	}
	if len([]rune(p.Bio)) > MaxBioLength {
		errs.Add("bio", "Ensure this value has at most 5000 characters.")
	}
	return errs.Err()
}

// Update replaces the editable fields, trimming surrounding whitespace.
// POST: Bio, Location and UpdatedAt are set
func (p *Profile) Update(bio, location string, now time.Time) {
	p.Bio = strings.TrimSpace(bio)
	p.Location = strings.TrimSpace(location)
	p.UpdatedAt = now
}
