package pricing

import (
	"context"
	"errors"

	"staynest/internal/domain/listings"
	"staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
)

var (
	ErrListingRequired = errors.New("pricing: listing required")
	ErrCurrencyUnset   = errors.New("pricing: listing currency must be defined")
)

// Calculator quotes a stay's total. The standard implementation is the pure
// nightly product below; the interface leaves room for alternates.
type Calculator interface {
	Quote(ctx context.Context, listing *listings.Listing, dr daterange.DateRange) (money.Money, error)
}

// Quote derives the total price as nights x nightly rate in integer minor
// units. Pure; the result is stamped on the booking at creation and never
// recomputed.
func Quote(listing *listings.Listing, dr daterange.DateRange) (money.Money, error) {
	if listing == nil {
		return money.Money{}, ErrListingRequired
	}
	if listing.NightlyRate.Currency == "" {
		return money.Money{}, ErrCurrencyUnset
	}
	if err := dr.Validate(); err != nil {
		return money.Money{}, err
	}
	nights := dr.Nights()
	if nights < 1 {
		return money.Money{}, daterange.ErrInvalidRange
	}
	return listing.NightlyRate.Multiply(int64(nights)), nil
}

// NightlyCalculator adapts Quote to the Calculator port.
type NightlyCalculator struct{}

func (NightlyCalculator) Quote(ctx context.Context, listing *listings.Listing, dr daterange.DateRange) (money.Money, error) {
	return Quote(listing, dr)
}
