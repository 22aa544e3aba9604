package types

import (
	"time"
)

// NextBillingDate calculates the next billing date for a subscription anchored
// at the given date. Common cycle lengths are calendar-aware rather than
// literal day counts so that a monthly plan anchored on the 31st lands on a
// valid day of the next month instead of drifting:
//   - 1 day    -> +1 day
//   - 7 days   -> +1 week
//   - 30 days  -> +1 calendar month
//   - 90 days  -> +3 calendar months
//   - 365 days -> +1 calendar year
//
// Any other positive cycle length falls back to literal day addition.
// Month and year jumps go through AddClampedDate, which properly handles
// leap years and month-boundary issues.
func NextBillingDate(anchor time.Time, cycleDays int) (time.Time, error) {
	if err := ValidateBillingCycleDays(cycleDays); err != nil {
		return anchor, err
	}

	switch cycleDays {
	case 30:
		return AddClampedDate(anchor, 0, 1), nil
	case 90:
		return AddClampedDate(anchor, 0, 3), nil
	case 365:
		return AddClampedDate(anchor, 1, 0), nil
	default:
		// 1-day and 7-day cycles are literal by definition
		return anchor.AddDate(0, 0, cycleDays), nil
	}
}

// AddClampedDate adds years and months to a date, clamping the day of month
// to the last valid day of the target month. Unlike time.AddDate,
// January 31 plus one month yields the end of February rather than March 2/3.
func AddClampedDate(t time.Time, years, months int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	// If we move beyond December, it adjusts correctly,
	// for example adding 2 months to November will land on January next year.
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	// Find the last valid day of the new month. A DST shift can make that
	// day shorter than 24 hours, so step back a calendar day, not a duration.
	firstOfNextMonth := time.Date(newY, newM+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.AddDate(0, 0, -1).Day()

	newD := d
	if newD > lastDay {
		newD = lastDay
	}

	return time.Date(newY, newM, newD, h, min, sec, t.Nanosecond(), t.Location())
}

// DaysBetween returns the number of whole days from `from` to `to`,
// negative when `to` is before `from`.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
