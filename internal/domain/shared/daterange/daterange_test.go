package daterange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staynest/internal/domain/shared/daterange"
)

func date(day int) time.Time {
	return time.Date(2026, time.January, day, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, from, to int) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(date(from), date(to))
	require.NoError(t, err)
	return dr
}

func TestNewRejectsEmptyStay(t *testing.T) {
	_, err := daterange.New(date(5), date(5))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	_, err = daterange.New(date(10), date(5))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestNights(t *testing.T) {
	assert.Equal(t, 1, mustRange(t, 1, 2).Nights())
	assert.Equal(t, 5, mustRange(t, 1, 6).Nights())
}

func TestOverlapsHalfOpen(t *testing.T) {
	existing := mustRange(t, 1, 5)

	// Checkout day equals next checkin day: no conflict.
	assert.False(t, existing.Overlaps(mustRange(t, 5, 10)))
	assert.False(t, mustRange(t, 5, 10).Overlaps(existing))

	// Genuine intersection.
	assert.True(t, existing.Overlaps(mustRange(t, 4, 6)))
	assert.True(t, mustRange(t, 4, 6).Overlaps(existing))

	// Containment counts as overlap.
	assert.True(t, existing.Overlaps(mustRange(t, 2, 3)))

	// Fully disjoint.
	assert.False(t, existing.Overlaps(mustRange(t, 20, 25)))
}

func TestContainsDate(t *testing.T) {
	dr := mustRange(t, 1, 5)
	assert.True(t, dr.ContainsDate(date(1)))
	assert.True(t, dr.ContainsDate(date(4)))
	assert.False(t, dr.ContainsDate(date(5)))
}

func TestNewTruncatesToDate(t *testing.T) {
	dr, err := daterange.New(
		time.Date(2026, time.January, 1, 15, 30, 0, 0, time.UTC),
		time.Date(2026, time.January, 3, 9, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, dr.Nights())
}
