package booking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingStore "eventbook/internal/adapters/storage/booking"
	"eventbook/internal/adapters/storage/storagetest"
	domain "eventbook/internal/domain/booking"
	eventDomain "eventbook/internal/domain/event"
)

var when = time.Date(2026, 10, 1, 19, 30, 0, 0, time.UTC)

func newBooking(id, accountID, eventID string) domain.Booking {
	return domain.Booking{ID: id, AccountID: accountID, EventID: eventID, BookedAt: when}
}

// TestSQLiteStore_CreateAndCount verifies a booking is stored and counted.
func TestSQLiteStore_CreateAndCount(t *testing.T) {
	db := storagetest.OpenDB(t)
	storagetest.InsertAccount(t, db, "owner", "owner", false)
	storagetest.InsertAccount(t, db, "u1", "guest", false)
	storagetest.InsertEvent(t, db, "e1", "owner", 2, when)
	store := bookingStore.NewSQLiteStore(db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newBooking("b1", "u1", "e1")))

	n, err := store.CountForEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := store.Exists(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "owner", "e1")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestSQLiteStore_DuplicateBooking verifies the one-booking-per-account rule.
func TestSQLiteStore_DuplicateBooking(t *testing.T) {
	db := storagetest.OpenDB(t)
	storagetest.InsertAccount(t, db, "owner", "owner", false)
	storagetest.InsertAccount(t, db, "u1", "guest", false)
	storagetest.InsertEvent(t, db, "e1", "owner", 5, when)
	store := bookingStore.NewSQLiteStore(db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newBooking("b1", "u1", "e1")))
	err := store.Create(ctx, newBooking("b2", "u1", "e1"))
	assert.ErrorIs(t, err, domain.ErrAlreadyBooked)

	n, err := store.CountForEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// TestSQLiteStore_FullEvent verifies capacity is enforced at insert time.
func TestSQLiteStore_FullEvent(t *testing.T) {
	db := storagetest.OpenDB(t)
	storagetest.InsertAccount(t, db, "owner", "owner", false)
	storagetest.InsertAccount(t, db, "u1", "first", false)
	storagetest.InsertAccount(t, db, "u2", "second", false)
	storagetest.InsertEvent(t, db, "e1", "owner", 1, when)
	store := bookingStore.NewSQLiteStore(db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newBooking("b1", "u1", "e1")))
	assert.ErrorIs(t, store.Create(ctx, newBooking("b2", "u2", "e1")), domain.ErrEventFull)
}

// TestSQLiteStore_UnknownEvent verifies booking a missing event reports not found.
func TestSQLiteStore_UnknownEvent(t *testing.T) {
	db := storagetest.OpenDB(t)
	storagetest.InsertAccount(t, db, "u1", "guest", false)
	store := bookingStore.NewSQLiteStore(db)

	err := store.Create(context.Background(), newBooking("b1", "u1", "missing"))
	assert.ErrorIs(t, err, eventDomain.ErrNotFound)
}

// TestSQLiteStore_ConcurrentBookingsRespectCapacity races many accounts
// for a small event and checks no overbooking happens.
func TestSQLiteStore_ConcurrentBookingsRespectCapacity(t *testing.T) {
	db := storagetest.OpenDB(t)
	storagetest.InsertAccount(t, db, "owner", "owner", false)
	const capacity, bookers = 3, 12
	for i := 0; i < bookers; i++ {
		storagetest.InsertAccount(t, db, fmt.Sprintf("u%d", i), fmt.Sprintf("user%d", i), false)
	}
	storagetest.InsertEvent(t, db, "e1", "owner", capacity, when)
	store := bookingStore.NewSQLiteStore(db)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		booked  int
		full    int
		unknown []error
	)
	for i := 0; i < bookers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Create(ctx, newBooking(fmt.Sprintf("b%d", i), fmt.Sprintf("u%d", i), "e1"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked++
			case errors.Is(err, domain.ErrEventFull):
				full++
			default:
				unknown = append(unknown, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, unknown)
	assert.Equal(t, capacity, booked)
	assert.Equal(t, bookers-capacity, full)

	n, err := store.CountForEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, capacity, n)
}

// TestSQLiteStore_ListForAccount verifies the joined listing and its order.
func TestSQLiteStore_ListForAccount(t *testing.T) {
	db := storagetest.OpenDB(t)
	storagetest.InsertAccount(t, db, "owner", "owner", false)
	storagetest.InsertAccount(t, db, "u1", "guest", false)
	storagetest.InsertEvent(t, db, "later", "owner", 5, when.Add(72*time.Hour))
	storagetest.InsertEvent(t, db, "sooner", "owner", 5, when)
	storagetest.InsertEvent(t, db, "other", "owner", 5, when)
	store := bookingStore.NewSQLiteStore(db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newBooking("b1", "u1", "later")))
	require.NoError(t, store.Create(ctx, newBooking("b2", "u1", "sooner")))
	require.NoError(t, store.Create(ctx, newBooking("b3", "owner", "other")))

	rows, err := store.ListForAccount(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "sooner", rows[0].Event.ID)
	assert.Equal(t, "b2", rows[0].Booking.ID)
	assert.Equal(t, "later", rows[1].Event.ID)
	assert.True(t, rows[0].Booking.BookedAt.Equal(when))
	assert.Equal(t, 5, rows[1].Event.Capacity)

	ids, err := store.EventIDsForAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"later": true, "sooner": true}, ids)

	counts, err := store.CountsByEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"later": 1, "sooner": 1, "other": 1}, counts)
}

// TestSQLiteStore_AccountDeleteCascades verifies bookings go with their account.
func TestSQLiteStore_AccountDeleteCascades(t *testing.T) {
	db := storagetest.OpenDB(t)
	storagetest.InsertAccount(t, db, "owner", "owner", false)
	storagetest.InsertAccount(t, db, "u1", "guest", false)
	storagetest.InsertEvent(t, db, "e1", "owner", 5, when)
	store := bookingStore.NewSQLiteStore(db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newBooking("b1", "u1", "e1")))
	_, err := db.Exec("DELETE FROM account WHERE id = 'u1'")
	require.NoError(t, err)

	n, err := store.CountForEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
