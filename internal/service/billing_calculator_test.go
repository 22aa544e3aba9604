package service

import (
	"testing"
	"time"

	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProratedAmount(t *testing.T) {
	calc := NewBillingCalculator()
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	price := decimal.NewFromInt(100)

	tests := []struct {
		name            string
		nextBillingDate time.Time
		want            decimal.Decimal
	}{
		{
			name:            "full cycle remaining charges full price",
			nextBillingDate: now.AddDate(0, 0, 30),
			want:            decimal.NewFromInt(100),
		},
		{
			name:            "half cycle remaining charges half price",
			nextBillingDate: now.AddDate(0, 0, 15),
			want:            decimal.NewFromInt(50),
		},
		{
			name:            "ten days remaining rounds to two places",
			nextBillingDate: now.AddDate(0, 0, 10),
			want:            decimal.NewFromFloat(33.33),
		},
		{
			name:            "due now is zero",
			nextBillingDate: now,
			want:            decimal.Zero,
		},
		{
			name:            "overdue is clamped to zero",
			nextBillingDate: now.AddDate(0, 0, -10),
			want:            decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.ProratedAmount(price, 30, tt.nextBillingDate, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestProratedAmountCappedAtPlanPrice(t *testing.T) {
	calc := NewBillingCalculator()
	price := decimal.NewFromInt(100)

	// A monthly cycle anchored mid-January spans 31 calendar days, which
	// must never prorate above the full plan price.
	now := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	next, err := calc.NextBillingDate(now, 30)
	require.NoError(t, err)
	require.Equal(t, float64(31*24), next.Sub(now).Hours())

	got, err := calc.ProratedAmount(price, 30, next, now)
	require.NoError(t, err)
	assert.True(t, price.Equal(got), "want %s got %s", price, got)

	// One day into the 31-day span still bills a full 30 days worth
	got, err = calc.ProratedAmount(price, 30, next, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, price.Equal(got), "want %s got %s", price, got)
}

func TestProratedAmountMonotonicallyNonIncreasing(t *testing.T) {
	calc := NewBillingCalculator()
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	next := start.AddDate(0, 0, 30)
	price := decimal.NewFromInt(100)

	previous := decimal.NewFromInt(101)
	for day := 0; day <= 35; day++ {
		now := start.AddDate(0, 0, day)
		amount, err := calc.ProratedAmount(price, 30, next, now)
		require.NoError(t, err)

		assert.True(t, amount.LessThanOrEqual(previous),
			"amount rose from %s to %s on day %d", previous, amount, day)
		assert.False(t, amount.IsNegative())
		if !now.Before(next) {
			assert.True(t, amount.IsZero(), "expected zero once due, got %s on day %d", amount, day)
		}
		previous = amount
	}
}

func TestProratedAmountInvalidInput(t *testing.T) {
	calc := NewBillingCalculator()
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	_, err := calc.ProratedAmount(decimal.NewFromInt(100), 0, now.AddDate(0, 0, 10), now)
	assert.True(t, ierr.IsValidation(err))

	_, err = calc.ProratedAmount(decimal.NewFromInt(-100), 30, now.AddDate(0, 0, 10), now)
	assert.True(t, ierr.IsValidation(err))
}

func TestCalculatorNextBillingDate(t *testing.T) {
	calc := NewBillingCalculator()
	anchor := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)

	got, err := calc.NextBillingDate(anchor, 30)
	require.NoError(t, err)
	assert.True(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC).Equal(got))
}
