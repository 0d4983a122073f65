package payment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staynest/internal/domain/payment"
	"staynest/internal/domain/shared/money"
)

func newPending(t *testing.T) *payment.Payment {
	t.Helper()
	p, err := payment.New(payment.CreateParams{
		ID:          "pay-1",
		BookingID:   "bk-1",
		TxRef:       "booking_bk-1_deadbeef",
		CheckoutURL: "https://checkout.chapa.co/tx/abc",
		Amount:      money.Must(45000, "ETB"),
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
	return p
}

func TestNewValidation(t *testing.T) {
	_, err := payment.New(payment.CreateParams{TxRef: "tx", Amount: money.Must(1, "ETB")})
	assert.ErrorIs(t, err, payment.ErrBookingMissing)

	_, err = payment.New(payment.CreateParams{BookingID: "bk", Amount: money.Must(1, "ETB")})
	assert.ErrorIs(t, err, payment.ErrTxRefMissing)

	_, err = payment.New(payment.CreateParams{BookingID: "bk", TxRef: "tx"})
	assert.ErrorIs(t, err, payment.ErrAmountRequired)
}

func TestNewStartsPending(t *testing.T) {
	p := newPending(t)
	assert.Equal(t, payment.StatePending, p.State)
	assert.False(t, p.IsTerminal())

	evs := p.PendingEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "payment.initiated", evs[0].EventName())
}

func TestCompleteFreezesState(t *testing.T) {
	p := newPending(t)
	require.NoError(t, p.Complete("chapa-ref-1", time.Now()))
	assert.Equal(t, payment.StateCompleted, p.State)
	assert.Equal(t, "chapa-ref-1", p.ProviderRef)
	assert.True(t, p.IsTerminal())

	// Terminal payments reject every further provider update.
	assert.ErrorIs(t, p.Complete("chapa-ref-2", time.Now()), payment.ErrTerminal)
	assert.ErrorIs(t, p.Fail("", time.Now()), payment.ErrTerminal)
	assert.Equal(t, "chapa-ref-1", p.ProviderRef)
}

func TestFailFreezesState(t *testing.T) {
	p := newPending(t)
	require.NoError(t, p.Fail("chapa-ref-9", time.Now()))
	assert.Equal(t, payment.StateFailed, p.State)
	assert.True(t, p.IsTerminal())

	assert.ErrorIs(t, p.Complete("x", time.Now()), payment.ErrTerminal)
}

func TestCompleteKeepsExistingProviderRefWhenBlank(t *testing.T) {
	p := newPending(t)
	p.ProviderRef = "from-initiate"
	require.NoError(t, p.Complete("  ", time.Now()))
	assert.Equal(t, "from-initiate", p.ProviderRef)
}
