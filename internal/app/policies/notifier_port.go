package policies

import (
	"context"
	"time"

	domainbooking "staynest/internal/domain/booking"
	"staynest/internal/domain/shared/money"
)

// ConfirmationNotice carries everything the mail sender needs; it is built
// before the transaction commits so the notifier never touches repositories.
type ConfirmationNotice struct {
	BookingID    domainbooking.BookingID
	GuestEmail   string
	GuestName    string
	ListingTitle string
	Location     string
	CheckIn      time.Time
	CheckOut     time.Time
	Total        money.Money
}

// Notifier fires a booking confirmation. Implementations must be best-effort:
// delivery failure is logged, never retried synchronously, and never rolls
// back the state transition that triggered it.
type Notifier interface {
	BookingConfirmed(ctx context.Context, notice ConfirmationNotice) error
}
