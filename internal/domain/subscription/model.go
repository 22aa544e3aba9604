package subscription

import (
	"time"

	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/billcycle/billcycle/internal/types"
	"github.com/shopspring/decimal"
)

type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// CustomerID is the identifier for the customer in our system
	CustomerID string `db:"customer_id" json:"customer_id"`

	// PaymentMethodID identifies the payment method charged by the gateway
	PaymentMethodID string `db:"payment_method_id" json:"payment_method_id"`

	// PlanID is the identifier for the plan in our system
	PlanID string `db:"plan_id" json:"plan_id"`

	// PlanPrice is the recurring charge amount, snapshotted from the plan
	// at subscription time so catalog edits never change in-flight billing
	PlanPrice decimal.Decimal `db:"plan_price" json:"plan_price"`

	// Currency is the currency of the subscription in lowercase 3 digit ISO codes
	Currency string `db:"currency" json:"currency"`

	// BillingCycleDays is the recurring interval between charges
	BillingCycleDays int `db:"billing_cycle_days" json:"billing_cycle_days"`

	// SubscriptionStatus is the billing status of the subscription
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// StartDate is the start date of the current subscription term
	StartDate time.Time `db:"start_date" json:"start_date"`

	// EndDate is the end date of the subscription, if bounded
	EndDate *time.Time `db:"end_date" json:"end_date"`

	// LastBillingDate is when the last successful charge happened
	LastBillingDate *time.Time `db:"last_billing_date" json:"last_billing_date"`

	// NextBillingDate is when the next charge is due. It is only advanced
	// after a successful charge outcome has been recorded.
	NextBillingDate time.Time `db:"next_billing_date" json:"next_billing_date"`

	// FailedPaymentAttempts counts consecutive failed charges. Reset to 0 on
	// any successful charge; reaching the attempt ceiling suspends the
	// subscription.
	FailedPaymentAttempts int `db:"failed_payment_attempts" json:"failed_payment_attempts"`

	// LastPaymentError holds the gateway's decline reason verbatim for
	// operator visibility. Never exposed to the paying user by this engine.
	LastPaymentError *string `db:"last_payment_error" json:"last_payment_error"`

	// LastPaymentFailedDate is when the last charge attempt failed
	LastPaymentFailedDate *time.Time `db:"last_payment_failed_date" json:"last_payment_failed_date"`

	// SuspendedDate is set once when the subscription transitions to suspended
	SuspendedDate *time.Time `db:"suspended_date" json:"suspended_date"`

	// Version guards concurrent updates. Every conditional update increments
	// it; a writer holding a stale version loses the race and skips.
	Version int `db:"version" json:"version"`

	types.BaseModel
}

// IsDue reports whether the subscription should be charged as of the given time
func (s *Subscription) IsDue(now time.Time) bool {
	return !s.NextBillingDate.After(now)
}

// IsRenewalCandidate reports whether the subscription's end date falls within
// the renewal window as of the given time
func (s *Subscription) IsRenewalCandidate(now time.Time, windowDays int) bool {
	if s.EndDate == nil {
		return false
	}
	return !s.EndDate.After(now.AddDate(0, 0, windowDays))
}

// Validate checks the data integrity invariants of the subscription record.
// A violation here indicates a bug upstream, not a runtime condition.
func (s *Subscription) Validate() error {
	if s.PlanPrice.IsNegative() {
		return ierr.NewError("invalid plan price").
			WithHint("Plan price must not be negative").
			WithReportableDetails(map[string]any{
				"subscription_id": s.ID,
				"plan_price":      s.PlanPrice,
			}).
			Mark(ierr.ErrValidation)
	}
	if err := types.ValidateBillingCycleDays(s.BillingCycleDays); err != nil {
		return err
	}
	if err := s.SubscriptionStatus.Validate(); err != nil {
		return err
	}
	if s.FailedPaymentAttempts < 0 {
		return ierr.NewError("invalid failed payment attempts").
			WithHint("Failed payment attempts must not be negative").
			WithReportableDetails(map[string]any{
				"subscription_id": s.ID,
				"attempts":        s.FailedPaymentAttempts,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TableName returns the table name for the subscription
func (s *Subscription) TableName() string {
	return "subscriptions"
}
