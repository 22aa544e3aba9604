package types

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextBillingDate(t *testing.T) {
	tests := []struct {
		name      string
		anchor    time.Time
		cycleDays int
		want      time.Time
	}{
		{
			name:      "daily cycle",
			anchor:    date(2025, time.December, 31),
			cycleDays: 1,
			want:      date(2026, time.January, 1),
		},
		{
			name:      "weekly cycle crosses month boundary literally",
			anchor:    date(2025, time.January, 28),
			cycleDays: 7,
			want:      date(2025, time.February, 4),
		},
		{
			name:      "monthly cycle mid month",
			anchor:    date(2025, time.January, 15),
			cycleDays: 30,
			want:      date(2025, time.February, 15),
		},
		{
			name:      "monthly cycle anchored on the 31st clamps to end of February",
			anchor:    date(2025, time.January, 31),
			cycleDays: 30,
			want:      date(2025, time.February, 28),
		},
		{
			name:      "monthly cycle anchored on the 31st in a leap year",
			anchor:    date(2024, time.January, 31),
			cycleDays: 30,
			want:      date(2024, time.February, 29),
		},
		{
			name:      "monthly cycle clamps 31st to 30 day month",
			anchor:    date(2025, time.March, 31),
			cycleDays: 30,
			want:      date(2025, time.April, 30),
		},
		{
			name:      "quarterly cycle crosses year boundary",
			anchor:    date(2025, time.November, 30),
			cycleDays: 90,
			want:      date(2026, time.February, 28),
		},
		{
			name:      "yearly cycle from leap day clamps to February 28",
			anchor:    date(2024, time.February, 29),
			cycleDays: 365,
			want:      date(2025, time.February, 28),
		},
		{
			name:      "unusual cycle length is literal",
			anchor:    date(2025, time.January, 1),
			cycleDays: 45,
			want:      date(2025, time.February, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextBillingDate(tt.anchor, tt.cycleDays)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestNextBillingDateInvalidCycle(t *testing.T) {
	_, err := NextBillingDate(date(2025, time.January, 1), 0)
	assert.Error(t, err)

	_, err = NextBillingDate(date(2025, time.January, 1), -30)
	assert.Error(t, err)
}

func TestNextBillingDatePreservesTimeOfDay(t *testing.T) {
	anchor := time.Date(2025, time.January, 31, 10, 30, 45, 0, time.UTC)
	got, err := NextBillingDate(anchor, 30)
	require.NoError(t, err)

	assert.Equal(t, 10, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, 45, got.Second())
}

func TestAddClampedDate(t *testing.T) {
	// time.AddDate would overflow January 31 into March here
	got := AddClampedDate(date(2025, time.January, 31), 0, 1)
	assert.True(t, date(2025, time.February, 28).Equal(got))

	// December plus one month rolls the year
	got = AddClampedDate(date(2025, time.December, 15), 0, 1)
	assert.True(t, date(2026, time.January, 15).Equal(got))

	// November plus three months lands in February of next year
	got = AddClampedDate(date(2025, time.November, 15), 0, 3)
	assert.True(t, date(2026, time.February, 15).Equal(got))
}

func TestAddClampedDateAcrossDSTTransition(t *testing.T) {
	// March 31 2024 is only 23 hours long in Paris; the month-end lookup
	// must still see 31 days and not clamp to the 30th.
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	got := AddClampedDate(time.Date(2024, time.January, 31, 0, 0, 0, 0, paris), 0, 2)
	assert.True(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, paris).Equal(got))
}

func TestDaysBetween(t *testing.T) {
	from := date(2025, time.January, 1)

	assert.Equal(t, 30, DaysBetween(from, from.AddDate(0, 0, 30)))
	assert.Equal(t, 0, DaysBetween(from, from))
	assert.Equal(t, -5, DaysBetween(from, from.AddDate(0, 0, -5)))

	// Partial days truncate toward zero
	assert.Equal(t, 1, DaysBetween(from, from.Add(36*time.Hour)))
}
