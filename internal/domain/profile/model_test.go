package profile_test

import (
	"strings"
	"testing"
	"time"

	"eventbook/internal/domain/profile"
)

// TestProfileValidation tests validation of Profile.
func TestProfileValidation(t *testing.T) {
	tests := []struct {
		name    string
		profile profile.Profile
		wantErr bool
	}{
		{name: "empty profile", profile: profile.Profile{AccountID: "a1"}, wantErr: false},
		{name: "filled profile", profile: profile.Profile{AccountID: "a1", Bio: "Hi **there**", Location: "Wellington"}, wantErr: false},
		{name: "location at limit", profile: profile.Profile{AccountID: "a1", Location: strings.Repeat("x", 100)}, wantErr: false},
		{name: "location too long", profile: profile.Profile{AccountID: "a1", Location: strings.Repeat("x", 101)}, wantErr: true},
		{name: "bio too long", profile: profile.Profile{AccountID: "a1", Bio: strings.Repeat("x", 5001)}, wantErr: true},
		{name: "no owner", profile: profile.Profile{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestProfileUpdate tests that Update trims and stamps.
func TestProfileUpdate(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	p := profile.New("a1", now.Add(-time.Hour))
	p.Update("  bio  ", " Auckland ", now)

	if p.Bio != "bio" || p.Location != "Auckland" {
		t.Errorf("Update() = %+v", p)
	}
	if !p.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", p.UpdatedAt, now)
	}
}
