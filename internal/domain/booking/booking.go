package booking

import (
	"context"
	"errors"
	"time"

	"staynest/internal/domain/listings"
	"staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/events"
	"staynest/internal/domain/shared/money"
	"staynest/internal/domain/user"
)

var (
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrGuestRequired   = errors.New("booking: guest id required")
	ErrListingRequired = errors.New("booking: listing id required")
	ErrTotalRequired   = errors.New("booking: total must be positive")
	ErrNotFound        = errors.New("booking: not found")
)

type BookingID string

type State string

const (
	StatePending   State = "PENDING"
	StateConfirmed State = "CONFIRMED"
	StateCanceled  State = "CANCELED"
)

// Booking holds a guest's stay request. Total is stamped once at creation
// and never re-priced; availability treats PENDING and CONFIRMED bookings
// as occupying the calendar.
type Booking struct {
	ID        BookingID
	ListingID listings.ListingID
	GuestID   user.ID
	Range     daterange.DateRange
	Total     money.Money
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByGuest(ctx context.Context, guestID user.ID) ([]*Booking, error)
	ActiveByListing(ctx context.Context, listingID listings.ListingID) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	ListingID listings.ListingID
	GuestID   user.ID
	Range     daterange.DateRange
	Total     money.Money
	CreatedAt time.Time
}

func New(params CreateParams) (*Booking, error) {
	if params.GuestID == "" {
		return nil, ErrGuestRequired
	}
	if params.ListingID == "" {
		return nil, ErrListingRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.Total.Amount <= 0 || params.Total.Currency == "" {
		return nil, ErrTotalRequired
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:        params.ID,
		ListingID: params.ListingID,
		GuestID:   params.GuestID,
		Range:     params.Range,
		Total:     params.Total,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, Range: b.Range, Total: b.Total, At: now})
	return b, nil
}

// IsActive reports whether the booking occupies the availability calendar.
func (b *Booking) IsActive() bool {
	return b.State == StatePending || b.State == StateConfirmed
}

// IsTerminal reports whether no further payment-driven transition applies.
func (b *Booking) IsTerminal() bool {
	return b.State == StateConfirmed || b.State == StateCanceled
}

func (b *Booking) Confirm(now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, Range: b.Range, Total: b.Total, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateCanceled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCanceled{BookingID: b.ID, ListingID: b.ListingID, Reason: reason, At: b.UpdatedAt})
	return nil
}
