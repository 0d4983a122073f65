package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staynest/internal/domain/shared/money"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "WholeAndCents", input: "123.45", want: 12345},
		{name: "WholeOnly", input: "200", want: 20000},
		{name: "SingleFractionDigit", input: "9.5", want: 950},
		{name: "LeadingDot", input: ".75", want: 75},
		{name: "Negative", input: "-10.00", want: -1000},
		{name: "TooManyFractionDigits", input: "1.234", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
		{name: "Garbage", input: "12a.00", wantErr: true},
		{name: "SignInFraction", input: "12.-3", wantErr: true},
		{name: "PlusInFraction", input: "12.+3", wantErr: true},
		{name: "SignInWhole", input: "1-2.00", wantErr: true},
		{name: "ExplicitPlusPrefix", input: "+12.00", wantErr: true},
		{name: "SpaceInFraction", input: "12. 3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := money.ParseDecimal(tt.input, "ETB")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Amount)
			assert.Equal(t, "ETB", m.Currency)
		})
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	m := money.Must(350050, "ETB")
	assert.Equal(t, "3500.50", m.Decimal())

	parsed, err := money.ParseDecimal(m.Decimal(), m.Currency)
	require.NoError(t, err)
	assert.True(t, m.Equal(parsed))
}

func TestAddCurrencyMismatch(t *testing.T) {
	a := money.Must(100, "ETB")
	b := money.Must(100, "USD")
	_, err := a.Add(b)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestMultiply(t *testing.T) {
	nightly := money.Must(15000, "ETB")
	total := nightly.Multiply(5)
	assert.Equal(t, int64(75000), total.Amount)
	assert.Equal(t, "ETB", total.Currency)
}
