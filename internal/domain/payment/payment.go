package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"staynest/internal/domain/booking"
	"staynest/internal/domain/shared/events"
	"staynest/internal/domain/shared/money"
)

var (
	ErrInvalidState   = errors.New("payment: invalid state transition")
	ErrTerminal       = errors.New("payment: already in a terminal state")
	ErrBookingMissing = errors.New("payment: booking id required")
	ErrTxRefMissing   = errors.New("payment: transaction reference required")
	ErrAmountRequired = errors.New("payment: amount must be positive")
	ErrNotFound       = errors.New("payment: not found")
	ErrAlreadyExists  = errors.New("payment: booking already has a payment")
)

type PaymentID string

type State string

const (
	StatePending   State = "PENDING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

// Payment tracks a single external checkout attempt for a booking. A booking
// owns at most one payment; TxRef is the provider-facing key and must be
// unique process-wide. COMPLETED and FAILED are frozen: provider updates for
// a terminal payment are never reapplied.
type Payment struct {
	ID          PaymentID
	BookingID   booking.BookingID
	TxRef       string
	CheckoutURL string
	Amount      money.Money
	State       State
	ProviderRef string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByBooking(ctx context.Context, id booking.BookingID) (*Payment, error)
	ByTxRef(ctx context.Context, txRef string) (*Payment, error)
	Save(ctx context.Context, payment *Payment) error
}

type CreateParams struct {
	ID          PaymentID
	BookingID   booking.BookingID
	TxRef       string
	CheckoutURL string
	Amount      money.Money
	ProviderRef string
	CreatedAt   time.Time
}

func New(params CreateParams) (*Payment, error) {
	if params.BookingID == "" {
		return nil, ErrBookingMissing
	}
	if strings.TrimSpace(params.TxRef) == "" {
		return nil, ErrTxRefMissing
	}
	if params.Amount.Amount <= 0 || params.Amount.Currency == "" {
		return nil, ErrAmountRequired
	}
	now := params.CreatedAt.UTC()
	p := &Payment{
		ID:          params.ID,
		BookingID:   params.BookingID,
		TxRef:       strings.TrimSpace(params.TxRef),
		CheckoutURL: strings.TrimSpace(params.CheckoutURL),
		Amount:      params.Amount,
		State:       StatePending,
		ProviderRef: strings.TrimSpace(params.ProviderRef),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.Record(PaymentInitiated{PaymentID: p.ID, BookingID: p.BookingID, TxRef: p.TxRef, Amount: p.Amount, At: now})
	return p, nil
}

// IsTerminal reports whether no further provider-driven transition applies.
func (p *Payment) IsTerminal() bool {
	return p.State == StateCompleted || p.State == StateFailed
}

func (p *Payment) Complete(providerRef string, now time.Time) error {
	if p.IsTerminal() {
		return ErrTerminal
	}
	if providerRef = strings.TrimSpace(providerRef); providerRef != "" {
		p.ProviderRef = providerRef
	}
	p.State = StateCompleted
	p.UpdatedAt = now.UTC()
	p.Record(PaymentCompleted{PaymentID: p.ID, BookingID: p.BookingID, TxRef: p.TxRef, Amount: p.Amount, ProviderRef: p.ProviderRef, At: p.UpdatedAt})
	return nil
}

func (p *Payment) Fail(providerRef string, now time.Time) error {
	if p.IsTerminal() {
		return ErrTerminal
	}
	if providerRef = strings.TrimSpace(providerRef); providerRef != "" {
		p.ProviderRef = providerRef
	}
	p.State = StateFailed
	p.UpdatedAt = now.UTC()
	p.Record(PaymentFailed{PaymentID: p.ID, BookingID: p.BookingID, TxRef: p.TxRef, At: p.UpdatedAt})
	return nil
}
