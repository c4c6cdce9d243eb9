package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"eventbook/internal/domain/account"
	"eventbook/internal/domain/booking"
	"eventbook/internal/domain/event"
	"eventbook/internal/domain/outbox"
	"eventbook/internal/domain/profile"
)

var testTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func testNow() time.Time { return testTime }

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

var (
	owner = account.Principal{ID: "owner-1", Username: "owner", Email: "owner@example.com"}
	guest = account.Principal{ID: "guest-1", Username: "guest", Email: "guest@example.com"}
	staff = account.Principal{ID: "staff-1", Username: "staff", Email: "staff@example.com", IsStaff: true}
)

// mockAccountStore keeps accounts and profiles in memory.
type mockAccountStore struct {
	accounts map[string]account.Account
	profiles map[string]profile.Profile
	saveErr  error
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{
		accounts: make(map[string]account.Account),
		profiles: make(map[string]profile.Profile),
	}
}

// GetByID implements AccountStoreForChangePassword.
func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

// GetByUsername implements AccountStoreForRegister and AccountStoreForLogin.
// PRE: username is non-empty
// POST: returns the account or account.ErrNotFound
func (m *mockAccountStore) GetByUsername(_ context.Context, username string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

// GetByEmail implements AccountStoreForRegister.
// PRE: email is non-empty
// POST: returns the account or account.ErrNotFound, ignoring case
func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

// RecordFailedLogin implements AccountStoreForLogin.
func (m *mockAccountStore) RecordFailedLogin(_ context.Context, id string, now time.Time) (int, error) {
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	a, ok := m.accounts[id]
	if !ok {
		return 0, account.ErrNotFound
	}
	a.RecordFailedLogin(now)
	m.accounts[id] = a
	return a.FailedLogins, nil
}

// ResetFailedLogins implements AccountStoreForLogin.
func (m *mockAccountStore) ResetFailedLogins(_ context.Context, id string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	a, ok := m.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	a.ResetFailedLogins()
	m.accounts[id] = a
	return nil
}

// SetPasswordHash implements AccountStoreForChangePassword.
func (m *mockAccountStore) SetPasswordHash(_ context.Context, id, hash string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	a, ok := m.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	a.PasswordHash = hash
	m.accounts[id] = a
	return nil
}

// CreateWithProfile implements AccountStoreForRegister and AccountStoreForSeed.
func (m *mockAccountStore) CreateWithProfile(_ context.Context, a account.Account, p profile.Profile) error {
	m.accounts[a.ID] = a
	m.profiles[p.AccountID] = p
	return nil
}

// Count implements AccountStoreForSeed.
func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

// mockProfileStore implements ProfileStoreForUpdate.
type mockProfileStore struct {
	profiles map[string]profile.Profile
}

func (m *mockProfileStore) GetByAccountID(_ context.Context, accountID string) (profile.Profile, error) {
	p, ok := m.profiles[accountID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, nil
}

func (m *mockProfileStore) Save(_ context.Context, p profile.Profile) error {
	m.profiles[p.AccountID] = p
	return nil
}

// mockEventStore implements EventStoreForOrchestrator.
// When bookings is set, Update enforces the capacity guard against it.
type mockEventStore struct {
	events   map[string]event.Event
	bookings *mockBookingStore
}

func newMockEventStore(events ...event.Event) *mockEventStore {
	m := &mockEventStore{events: make(map[string]event.Event)}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return m
}

func (m *mockEventStore) GetByID(_ context.Context, id string) (event.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return event.Event{}, fmt.Errorf("event %q: %w", id, event.ErrNotFound)
	}
	return e, nil
}

func (m *mockEventStore) Save(_ context.Context, e event.Event) error {
	m.events[e.ID] = e
	return nil
}

func (m *mockEventStore) Update(ctx context.Context, e event.Event) error {
	if _, ok := m.events[e.ID]; !ok {
		return fmt.Errorf("event %q: %w", e.ID, event.ErrNotFound)
	}
	if m.bookings != nil {
		if n, _ := m.bookings.CountForEvent(ctx, e.ID); e.Capacity < n {
			return fmt.Errorf("event %q: %w", e.ID, event.ErrCapacityBelowBooked)
		}
	}
	m.events[e.ID] = e
	return nil
}

func (m *mockEventStore) Delete(_ context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return event.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

// mockBookingStore implements BookingStoreForBook and BookingCounter.
// createErr, when set, is returned by Create instead of storing.
type mockBookingStore struct {
	bookings  []booking.Booking
	createErr error
}

func (m *mockBookingStore) CountForEvent(_ context.Context, eventID string) (int, error) {
	n := 0
	for _, b := range m.bookings {
		if b.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (m *mockBookingStore) Exists(_ context.Context, accountID, eventID string) (bool, error) {
	for _, b := range m.bookings {
		if b.AccountID == accountID && b.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBookingStore) Create(_ context.Context, b booking.Booking) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.bookings = append(m.bookings, b)
	return nil
}

func (m *mockBookingStore) seed(accountID string, eventIDs ...string) {
	for _, id := range eventIDs {
		m.bookings = append(m.bookings, booking.Booking{ID: "seed-" + accountID + "-" + id, AccountID: accountID, EventID: id, BookedAt: testTime})
	}
}

// recordingNotifier remembers every confirmation it receives.
// It fails every call when fail is set, or only the first failTimes calls.
type recordingNotifier struct {
	mu        sync.Mutex
	name      string
	got       []booking.Confirmation
	fail      bool
	failTimes int
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) NotifyBookingConfirmed(_ context.Context, c booking.Confirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, c)
	if r.fail {
		return errors.New("notifier down")
	}
	if r.failTimes > 0 {
		r.failTimes--
		return errors.New("notifier down")
	}
	return nil
}

// mockOutboxStore keeps outbox entries in memory.
type mockOutboxStore struct {
	mu      sync.Mutex
	entries map[string]outbox.Entry
	order   []string
	saveErr error
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: make(map[string]outbox.Entry)}
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, outbox.ErrNotFound
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.entries[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

// ListDue mirrors the SQL store: undelivered, due at now, earliest schedule first.
func (m *mockOutboxStore) ListDue(_ context.Context, now time.Time, limit int) ([]outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []outbox.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.Status != outbox.StatusPending && e.Status != outbox.StatusRetrying {
			continue
		}
		if !e.NextAttemptAt.IsZero() && e.NextAttemptAt.After(now) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return dueAt(out[i]).Before(dueAt(out[j]))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func dueAt(e outbox.Entry) time.Time {
	if e.NextAttemptAt.IsZero() {
		return e.CreatedAt
	}
	return e.NextAttemptAt
}

func (m *mockOutboxStore) PurgeDone(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.entries {
		if e.Status == outbox.StatusDone && e.CreatedAt.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func sampleEvent(id, createdBy string, capacity int) event.Event {
	return event.Event{
		ID:          id,
		Name:        "Workshop " + id,
		Description: "Hands-on session",
		Location:    "Room 4",
		Date:        testTime.Add(7 * 24 * time.Hour),
		Capacity:    capacity,
		CreatedBy:   createdBy,
		CreatedAt:   testTime,
		UpdatedAt:   testTime,
	}
}
