package service

import (
	"time"

	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/billcycle/billcycle/internal/types"
	"github.com/shopspring/decimal"
)

// BillingCalculator holds the pure billing arithmetic: next-billing-date
// derivation and mid-cycle proration. It has no dependencies and no state so
// every method is independently testable.
type BillingCalculator interface {
	// NextBillingDate applies the billing cycle to the given anchor date
	NextBillingDate(anchor time.Time, cycleDays int) (time.Time, error)

	// ProratedAmount computes the charge for the remainder of the current
	// cycle under the given plan price. The result is never negative and is
	// zero once now has reached the next billing date.
	ProratedAmount(planPrice decimal.Decimal, cycleDays int, nextBillingDate, now time.Time) (decimal.Decimal, error)
}

type billingCalculator struct{}

// NewBillingCalculator creates a new billing calculator
func NewBillingCalculator() BillingCalculator {
	return &billingCalculator{}
}

func (c *billingCalculator) NextBillingDate(anchor time.Time, cycleDays int) (time.Time, error) {
	return types.NextBillingDate(anchor, cycleDays)
}

func (c *billingCalculator) ProratedAmount(planPrice decimal.Decimal, cycleDays int, nextBillingDate, now time.Time) (decimal.Decimal, error) {
	if err := types.ValidateBillingCycleDays(cycleDays); err != nil {
		return decimal.Zero, err
	}
	if planPrice.IsNegative() {
		return decimal.Zero, ierr.NewError("invalid plan price").
			WithHint("Plan price must not be negative").
			WithReportableDetails(map[string]any{
				"plan_price": planPrice,
			}).
			Mark(ierr.ErrValidation)
	}

	// Overdue subscriptions have no remaining time left to bill for
	remainingDays := types.DaysBetween(now, nextBillingDate)
	if remainingDays <= 0 {
		return decimal.Zero, nil
	}
	// A calendar-aware cycle can span more days than its nominal length,
	// e.g. a 30-day plan crossing a 31-day month. The charge still tops
	// out at the full plan price.
	if remainingDays > cycleDays {
		remainingDays = cycleDays
	}

	ratio := decimal.NewFromInt(int64(remainingDays)).
		Div(decimal.NewFromInt(int64(cycleDays)))
	amount := planPrice.Mul(ratio).Round(2)

	if amount.IsNegative() {
		return decimal.Zero, nil
	}
	return amount, nil
}
