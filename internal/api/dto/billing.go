package dto

import (
	"time"

	"github.com/billcycle/billcycle/internal/domain/subscription"
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/shopspring/decimal"
)

// BillingRunItem is the outcome of one subscription within a billing run
type BillingRunItem struct {
	SubscriptionID string          `json:"subscription_id"`
	Amount         decimal.Decimal `json:"amount"`
	Success        bool            `json:"success"`
	Skipped        bool            `json:"skipped,omitempty"`
	Reason         string          `json:"reason,omitempty"`
}

// BillingRunResponse summarizes one batch run of a billing operation
type BillingRunResponse struct {
	RunType        string            `json:"run_type"`
	StartAt        time.Time         `json:"start_at"`
	Items          []*BillingRunItem `json:"items"`
	TotalProcessed int               `json:"total_processed"`
	TotalSuccess   int               `json:"total_success"`
	TotalFailed    int               `json:"total_failed"`
	TotalSkipped   int               `json:"total_skipped"`
}

// NewBillingRunResponse creates an empty run summary
func NewBillingRunResponse(runType string, startAt time.Time) *BillingRunResponse {
	return &BillingRunResponse{
		RunType: runType,
		StartAt: startAt,
		Items:   make([]*BillingRunItem, 0),
	}
}

// RecordSuccess adds a successful charge outcome to the summary
func (r *BillingRunResponse) RecordSuccess(subscriptionID string, amount decimal.Decimal) {
	r.Items = append(r.Items, &BillingRunItem{
		SubscriptionID: subscriptionID,
		Amount:         amount,
		Success:        true,
	})
	r.TotalProcessed++
	r.TotalSuccess++
}

// RecordFailure adds a failed charge outcome to the summary
func (r *BillingRunResponse) RecordFailure(subscriptionID string, amount decimal.Decimal, reason string) {
	r.Items = append(r.Items, &BillingRunItem{
		SubscriptionID: subscriptionID,
		Amount:         amount,
		Reason:         reason,
	})
	r.TotalProcessed++
	r.TotalFailed++
}

// RecordSkip adds a skipped subscription to the summary. Skips are not
// failures: they cover not-due records and lost optimistic-lock races.
func (r *BillingRunResponse) RecordSkip(subscriptionID string, reason string) {
	r.Items = append(r.Items, &BillingRunItem{
		SubscriptionID: subscriptionID,
		Skipped:        true,
		Reason:         reason,
	})
	r.TotalProcessed++
	r.TotalSkipped++
}

// PlanChangeRequest switches a subscription to a new plan mid-cycle
type PlanChangeRequest struct {
	NewPlanID string `json:"new_plan_id" binding:"required"`
}

func (r *PlanChangeRequest) Validate() error {
	if r.NewPlanID == "" {
		return ierr.NewError("new_plan_id is required").
			WithHint("Target plan id is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PlanChangeResponse describes the applied plan change and its recorded
// prorated adjustment. The adjustment is recorded in the ledger but never
// charged through the gateway.
type PlanChangeResponse struct {
	SubscriptionID  string          `json:"subscription_id"`
	PreviousPlanID  string          `json:"previous_plan_id"`
	NewPlanID       string          `json:"new_plan_id"`
	ProratedAmount  decimal.Decimal `json:"prorated_amount"`
	Currency        string          `json:"currency"`
	NextBillingDate time.Time       `json:"next_billing_date"`
}

// SubscriptionResponse represents a subscription in API responses
type SubscriptionResponse struct {
	*subscription.Subscription
}
