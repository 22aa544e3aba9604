package types

import (
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the billing status of a subscription
type SubscriptionStatus string

const (
	// SubscriptionStatusActive means the subscription is billed on its normal cadence
	SubscriptionStatusActive SubscriptionStatus = "active"

	// SubscriptionStatusPaymentFailed means the last charge attempt failed and the
	// subscription is in the bounded retry path
	SubscriptionStatusPaymentFailed SubscriptionStatus = "payment_failed"

	// SubscriptionStatusSuspended means the retry budget was exhausted. This state
	// is terminal for the billing engine and requires external reactivation.
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"

	// SubscriptionStatusExpired means the subscription has passed its end date
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

var SubscriptionStatusValues = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusPaymentFailed,
	SubscriptionStatusSuspended,
	SubscriptionStatusExpired,
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	if !lo.Contains(SubscriptionStatusValues, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": SubscriptionStatusValues,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
