package account

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"eventbook/internal/domain/validation"
)

// Field limits.
const (
	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MinPasswordLength = 8
)

// Lockout policy.
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

// PasswordCost is the bcrypt cost used by SetPassword.
var PasswordCost = bcrypt.DefaultCost

// Domain errors
var (
	ErrNotFound      = errors.New("account not found")
	ErrUsernameTaken = errors.New("a user with that username already exists")
	ErrEmailTaken    = errors.New("a user with that email already exists")
	ErrWrongPassword = errors.New("incorrect password")
	ErrEmptyPassword = errors.New("password cannot be empty")
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// Account holds state for the Account concept.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsStaff      bool
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// Principal is the authenticated identity passed to every operation that
// acts on behalf of a user.
type Principal struct {
	ID       string
	Username string
	Email    string
	IsStaff  bool
}

// IsAnonymous reports whether p carries no identity.
func (p Principal) IsAnonymous() bool {
	return p.ID == ""
}

// Principal returns the identity of the account.
// INVARIANT: Account fields are not mutated
func (a *Account) Principal() Principal {
	return Principal{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		IsStaff:  a.IsStaff,
	}
}

// Validate checks username and email.
// PRE: Account struct is populated
// POST: Returns nil if valid, validation.Errors otherwise
func (a *Account) Validate() error {
	errs := validation.Errors{}
	if msg := checkUsername(a.Username); msg != "" {
		errs.Add("username", msg)
	}
	if msg := checkEmail(a.Email); msg != "" {
		errs.Add("email", msg)
	}
	return errs.Err()
}

// ValidatePassword applies the password policy to a new password and its confirmation.
// POST: Returns nil if acceptable, validation.Errors keyed by password1/password2 otherwise
func ValidatePassword(password, confirm, username string) error {
	errs := validation.Errors{}
	if password == "" {
		errs.Add("password1", "This field is required.")
	} else {
		if len([]rune(password)) < MinPasswordLength {
			errs.Add("password1", "This password is too short. It must contain at least 8 characters.")
		}
		if isAllDigits(password) {
			errs.Add("password1", "This password is entirely numeric.")
		}
		if username != "" && strings.EqualFold(password, username) {
			errs.Add("password1", "The password is too similar to the username.")
		}
	}
	if confirm == "" {
		errs.Add("password2", "This field is required.")
	} else if password != confirm {
		errs.Add("password2", "The two password fields didn't match.")
	}
	return errs.Err()
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext has passed ValidatePassword
// POST: PasswordHash is set to bcrypt hash
func (a *Account) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), PasswordCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: Account fields are not mutated
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the account is currently locked out.
// INVARIANT: Account fields are not mutated
func (a *Account) IsLocked(now time.Time) bool {
	if a.LockedUntil.IsZero() {
		return false
	}
	return now.Before(a.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the account after 5 failures.
// PRE: Account exists
// POST: FailedLogins incremented; LockedUntil set if >= 5 failures
func (a *Account) RecordFailedLogin(now time.Time) {
	a.FailedLogins++
	if a.FailedLogins >= MaxFailedLogins {
		a.LockedUntil = now.Add(LockoutDuration)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
// PRE: Account exists
// POST: FailedLogins is 0, LockedUntil is zero
func (a *Account) ResetFailedLogins() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}

func checkUsername(username string) string {
	switch {
	case strings.TrimSpace(username) == "":
		return "This field is required."
	case len([]rune(username)) > MaxUsernameLength:
		return "Ensure this value has at most 150 characters."
	case !usernamePattern.MatchString(username):
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	return ""
}

func checkEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return "This field is required."
	}
	if len(email) > MaxEmailLength {
		return "Ensure this value has at most 254 characters."
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return "Enter a valid email address."
	}
	return ""
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
