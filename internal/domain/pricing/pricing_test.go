package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staynest/internal/domain/listings"
	"staynest/internal/domain/pricing"
	"staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
)

func testListing() *listings.Listing {
	return &listings.Listing{
		ID:          "ls-1",
		Host:        "host-1",
		Title:       "Lakeside cabin",
		NightlyRate: money.Must(12550, "ETB"),
	}
}

func stay(t *testing.T, from, to int) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2026, time.February, from, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.February, to, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return dr
}

func TestQuoteSingleNight(t *testing.T) {
	total, err := pricing.Quote(testListing(), stay(t, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(12550), total.Amount)
	assert.Equal(t, "125.50", total.Decimal())
}

func TestQuoteFiveNights(t *testing.T) {
	total, err := pricing.Quote(testListing(), stay(t, 1, 6))
	require.NoError(t, err)
	assert.Equal(t, int64(5*12550), total.Amount)
}

func TestQuoteRejectsZeroNights(t *testing.T) {
	day := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	_, err := pricing.Quote(testListing(), daterange.DateRange{CheckIn: day, CheckOut: day})
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestQuoteMissingListing(t *testing.T) {
	_, err := pricing.Quote(nil, stay(t, 1, 2))
	assert.ErrorIs(t, err, pricing.ErrListingRequired)
}
