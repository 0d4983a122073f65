package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staynest/internal/domain/booking"
	"staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
)

func newPending(t *testing.T) *booking.Booking {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	b, err := booking.New(booking.CreateParams{
		ID:        "bk-1",
		ListingID: "ls-1",
		GuestID:   "guest-1",
		Range:     dr,
		Total:     money.Must(45000, "ETB"),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	return b
}

func TestNewStartsPendingAndRecordsEvent(t *testing.T) {
	b := newPending(t)
	assert.Equal(t, booking.StatePending, b.State)
	assert.True(t, b.IsActive())
	assert.False(t, b.IsTerminal())

	evs := b.PendingEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "booking.requested", evs[0].EventName())
}

func TestNewValidation(t *testing.T) {
	dr, err := daterange.New(
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	_, err = booking.New(booking.CreateParams{ID: "bk", ListingID: "ls", Range: dr, Total: money.Must(100, "ETB")})
	assert.ErrorIs(t, err, booking.ErrGuestRequired)

	_, err = booking.New(booking.CreateParams{ID: "bk", GuestID: "g", Range: dr, Total: money.Must(100, "ETB")})
	assert.ErrorIs(t, err, booking.ErrListingRequired)

	_, err = booking.New(booking.CreateParams{ID: "bk", ListingID: "ls", GuestID: "g", Range: dr})
	assert.ErrorIs(t, err, booking.ErrTotalRequired)
}

func TestConfirmOnlyFromPending(t *testing.T) {
	b := newPending(t)
	require.NoError(t, b.Confirm(time.Now()))
	assert.Equal(t, booking.StateConfirmed, b.State)
	assert.True(t, b.IsTerminal())
	assert.True(t, b.IsActive())

	assert.ErrorIs(t, b.Confirm(time.Now()), booking.ErrInvalidState)
	assert.ErrorIs(t, b.Cancel("late", time.Now()), booking.ErrInvalidState)
}

func TestCancelFreesCalendar(t *testing.T) {
	b := newPending(t)
	require.NoError(t, b.Cancel("payment failed", time.Now()))
	assert.Equal(t, booking.StateCanceled, b.State)
	assert.False(t, b.IsActive())

	assert.ErrorIs(t, b.Confirm(time.Now()), booking.ErrInvalidState)
}
