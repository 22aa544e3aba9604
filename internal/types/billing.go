package types

import (
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/samber/lo"
)

// BillingReason explains why a charge was attempted. It is recorded on every
// billing record so the ledger consumer can distinguish revenue streams.
type BillingReason string

const (
	BillingReasonRecurring  BillingReason = "recurring"
	BillingReasonRenewal    BillingReason = "renewal"
	BillingReasonRetry      BillingReason = "retry"
	BillingReasonPlanChange BillingReason = "plan_change"
	BillingReasonManual     BillingReason = "manual"
)

var BillingReasonValues = []BillingReason{
	BillingReasonRecurring,
	BillingReasonRenewal,
	BillingReasonRetry,
	BillingReasonPlanChange,
	BillingReasonManual,
}

func (r BillingReason) String() string {
	return string(r)
}

func (r BillingReason) Validate() error {
	if !lo.Contains(BillingReasonValues, r) {
		return ierr.NewError("invalid billing reason").
			WithHint("Invalid billing reason").
			WithReportableDetails(map[string]any{
				"reason":         r,
				"allowed_values": BillingReasonValues,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ValidateBillingCycleDays validates a billing cycle length. A non-positive
// cycle is a data-integrity bug, not a runtime condition, so callers should
// treat this error as fatal for the record that carries it.
func ValidateBillingCycleDays(cycleDays int) error {
	if cycleDays <= 0 {
		return ierr.NewError("invalid billing cycle length").
			WithHint("Billing cycle days must be a positive integer").
			WithReportableDetails(map[string]any{
				"billing_cycle_days": cycleDays,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
