package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainpayment "staynest/internal/domain/payment"
	"staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
	domainuser "staynest/internal/domain/user"
	"staynest/internal/infra/storage/memory"
)

func newBooking(t *testing.T, id string) *domainbooking.Booking {
	t.Helper()
	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	dr, err := daterange.New(checkIn, checkIn.AddDate(0, 0, 3))
	require.NoError(t, err)
	bk, err := domainbooking.New(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		ListingID: "lst-1",
		GuestID:   "guest-1",
		Range:     dr,
		Total:     money.Must(45000, "ETB"),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	bk.ClearEvents()
	return bk
}

func newPayment(t *testing.T, id, bookingID, txRef string) *domainpayment.Payment {
	t.Helper()
	p, err := domainpayment.New(domainpayment.CreateParams{
		ID:        domainpayment.PaymentID(id),
		BookingID: domainbooking.BookingID(bookingID),
		TxRef:     txRef,
		Amount:    money.Must(45000, "ETB"),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	p.ClearEvents()
	return p
}

func commitBooking(t *testing.T, factory memory.Factory, bk *domainbooking.Booking) {
	t.Helper()
	ctx := context.Background()
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Save(ctx, bk))
	require.NoError(t, unit.Commit(ctx))
}

func TestCommitPersistsAndBumpsVersion(t *testing.T) {
	factory := memory.NewFactory(memory.NewStore())
	ctx := context.Background()

	commitBooking(t, factory, newBooking(t, "bk-1"))

	ro, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Rollback(ctx)

	stored, err := ro.Bookings().ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, domainbooking.StatePending, stored.State)
}

func TestRollbackDiscardsStagedWrites(t *testing.T) {
	factory := memory.NewFactory(memory.NewStore())
	ctx := context.Background()

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Save(ctx, newBooking(t, "bk-1")))
	require.NoError(t, unit.Rollback(ctx))

	ro, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Rollback(ctx)
	_, err = ro.Bookings().ByID(ctx, "bk-1")
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}

func TestStaleWriteRejected(t *testing.T) {
	factory := memory.NewFactory(memory.NewStore())
	ctx := context.Background()
	commitBooking(t, factory, newBooking(t, "bk-1"))

	// Snapshot taken outside any write unit, as the verify path does.
	ro, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	stale, err := ro.Bookings().ByID(ctx, "bk-1")
	require.NoError(t, err)
	require.NoError(t, ro.Rollback(ctx))

	// Another writer moves the aggregate forward.
	w1, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	current, err := w1.Bookings().ByID(ctx, "bk-1")
	require.NoError(t, err)
	require.NoError(t, current.Confirm(time.Now()))
	current.ClearEvents()
	require.NoError(t, w1.Bookings().Save(ctx, current))
	require.NoError(t, w1.Commit(ctx))

	// The stale snapshot loses the version check at commit.
	w2, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, w2.Bookings().Save(ctx, stale))
	assert.ErrorIs(t, w2.Commit(ctx), uow.ErrConcurrentUpdate)
	require.NoError(t, w2.Rollback(ctx))
}

func TestPaymentUniquePerBookingAndTxRef(t *testing.T) {
	factory := memory.NewFactory(memory.NewStore())
	ctx := context.Background()
	commitBooking(t, factory, newBooking(t, "bk-1"))
	commitBooking(t, factory, newBooking(t, "bk-2"))

	w1, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, w1.Payments().Save(ctx, newPayment(t, "pay-1", "bk-1", "booking_bk-1_aaaa1111")))
	require.NoError(t, w1.Commit(ctx))

	w2, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	defer w2.Rollback(ctx)
	err = w2.Payments().Save(ctx, newPayment(t, "pay-2", "bk-1", "booking_bk-1_bbbb2222"))
	assert.ErrorIs(t, err, domainpayment.ErrAlreadyExists)

	err = w2.Payments().Save(ctx, newPayment(t, "pay-3", "bk-2", "booking_bk-1_aaaa1111"))
	assert.ErrorIs(t, err, domainpayment.ErrAlreadyExists)
}

func TestEmailUniqueness(t *testing.T) {
	factory := memory.NewFactory(memory.NewStore())
	ctx := context.Background()

	first, err := domainuser.New(domainuser.CreateParams{
		ID:           "u-1",
		Email:        "guest@example.com",
		FirstName:    "Abebe",
		LastName:     "Kebede",
		PasswordHash: "x",
		Role:         domainuser.RoleGuest,
	})
	require.NoError(t, err)

	w1, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, w1.Users().Save(ctx, first))
	require.NoError(t, w1.Commit(ctx))

	dup, err := domainuser.New(domainuser.CreateParams{
		ID:           "u-2",
		Email:        "Guest@Example.com",
		FirstName:    "Sara",
		LastName:     "Tesfaye",
		PasswordHash: "y",
		Role:         domainuser.RoleGuest,
	})
	require.NoError(t, err)

	w2, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	defer w2.Rollback(ctx)
	assert.ErrorIs(t, w2.Users().Save(ctx, dup), domainuser.ErrEmailAlreadyUsed)
}

func TestReadOnlyUnitRejectsWrites(t *testing.T) {
	factory := memory.NewFactory(memory.NewStore())
	ctx := context.Background()

	ro, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Rollback(ctx)
	assert.ErrorIs(t, ro.Bookings().Save(ctx, newBooking(t, "bk-1")), memory.ErrReadOnly)
}

func TestReadOnlyUnitDoesNotBlockOnOpenWriter(t *testing.T) {
	factory := memory.NewFactory(memory.NewStore())
	ctx := context.Background()
	commitBooking(t, factory, newBooking(t, "bk-1"))

	writer, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	defer writer.Rollback(ctx)

	done := make(chan error, 1)
	go func() {
		ro, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			done <- err
			return
		}
		defer ro.Rollback(ctx)
		_, err = ro.Bookings().ByID(ctx, "bk-1")
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("read-only unit blocked behind an open write unit")
	}
}
