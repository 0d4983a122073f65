package availability

import (
	"context"

	"staynest/internal/domain/booking"
	"staynest/internal/domain/listings"
	"staynest/internal/domain/shared/daterange"
)

// ActiveBookings is the slice of the booking repository the engine needs:
// every PENDING or CONFIRMED booking for a listing.
type ActiveBookings interface {
	ActiveByListing(ctx context.Context, listingID listings.ListingID) ([]*booking.Booking, error)
}

// Engine answers whether a proposed stay conflicts with the listing's active
// bookings. It is a read-only check; the caller must run it inside the same
// transaction as the booking insert so two concurrent requests cannot both
// observe "available".
type Engine struct {
	Bookings ActiveBookings
}

// IsAvailable reports whether dr is free on the listing. Canceled bookings
// never block, and a booking may be excluded so an update-in-place does not
// collide with itself.
func (e Engine) IsAvailable(ctx context.Context, listingID listings.ListingID, dr daterange.DateRange, exclude booking.BookingID) (bool, error) {
	if err := dr.Validate(); err != nil {
		return false, err
	}
	active, err := e.Bookings.ActiveByListing(ctx, listingID)
	if err != nil {
		return false, err
	}
	for _, b := range active {
		if exclude != "" && b.ID == exclude {
			continue
		}
		if !b.IsActive() {
			continue
		}
		if b.Range.Overlaps(dr) {
			return false, nil
		}
	}
	return true, nil
}
