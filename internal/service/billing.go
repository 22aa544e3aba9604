package service

import (
	"context"
	"strings"
	"time"

	"github.com/billcycle/billcycle/internal/api/dto"
	"github.com/billcycle/billcycle/internal/domain/audit"
	"github.com/billcycle/billcycle/internal/domain/billingrecord"
	"github.com/billcycle/billcycle/internal/domain/subscription"
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/billcycle/billcycle/internal/types"
	"github.com/samber/lo"
)

// BillingService drives the subscription billing state machine. The batch
// operations isolate failures per subscription: a declined charge, a storage
// error or a lost optimistic-lock race on one record never aborts the run.
// Only invalid data reaching the engine stops a batch early.
type BillingService interface {
	// ProcessRecurringBilling charges every subscription whose next billing
	// date has arrived
	ProcessRecurringBilling(ctx context.Context) (*dto.BillingRunResponse, error)

	// ProcessSubscriptionRenewal charges subscriptions whose term ends within
	// the configured renewal window and extends their term on success
	ProcessSubscriptionRenewal(ctx context.Context) (*dto.BillingRunResponse, error)

	// ProcessFailedPaymentRetry retries subscriptions in payment_failed and
	// suspends them once the attempt ceiling is reached
	ProcessFailedPaymentRetry(ctx context.Context) (*dto.BillingRunResponse, error)

	// ProcessManualBilling charges a single subscription on demand,
	// regardless of whether it is due
	ProcessManualBilling(ctx context.Context, subscriptionID string) (*dto.BillingRunResponse, error)

	// ProcessPlanChange switches a subscription to a new plan mid-cycle and
	// records the prorated adjustment without charging it
	ProcessPlanChange(ctx context.Context, subscriptionID string, req *dto.PlanChangeRequest) (*dto.PlanChangeResponse, error)

	// GetSubscription returns a single subscription
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
}

type billingService struct {
	ServiceParams
	calculator BillingCalculator
	processor  PaymentProcessorService
}

// NewBillingService creates a new billing service
func NewBillingService(params ServiceParams) BillingService {
	return &billingService{
		ServiceParams: params,
		calculator:    NewBillingCalculator(),
		processor:     NewPaymentProcessorService(params),
	}
}

func (s *billingService) ProcessRecurringBilling(ctx context.Context) (*dto.BillingRunResponse, error) {
	now := time.Now().UTC()
	resp := dto.NewBillingRunResponse(types.BillingReasonRecurring.String(), now)

	subs, err := s.SubRepo.GetDueForBilling(ctx, now)
	if err != nil {
		return nil, err
	}
	s.Logger.Infow("starting recurring billing run", "due_count", len(subs))

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return resp, err
		}
		if err := s.billSubscription(ctx, sub, now, types.BillingReasonRecurring, false, resp); err != nil {
			return resp, err
		}
	}

	s.logRunSummary(resp)
	return resp, nil
}

func (s *billingService) ProcessSubscriptionRenewal(ctx context.Context) (*dto.BillingRunResponse, error) {
	now := time.Now().UTC()
	resp := dto.NewBillingRunResponse(types.BillingReasonRenewal.String(), now)

	subs, err := s.SubRepo.GetExpiring(ctx, now, s.Config.Billing.RenewalWindowDays)
	if err != nil {
		return nil, err
	}
	s.Logger.Infow("starting renewal run", "candidate_count", len(subs))

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return resp, err
		}
		if err := s.renewSubscription(ctx, sub, now, resp); err != nil {
			return resp, err
		}
	}

	s.logRunSummary(resp)
	return resp, nil
}

func (s *billingService) ProcessFailedPaymentRetry(ctx context.Context) (*dto.BillingRunResponse, error) {
	now := time.Now().UTC()
	resp := dto.NewBillingRunResponse(types.BillingReasonRetry.String(), now)

	subs, err := s.SubRepo.GetByStatus(ctx, types.SubscriptionStatusPaymentFailed)
	if err != nil {
		return nil, err
	}
	s.Logger.Infow("starting payment retry run", "retry_count", len(subs))

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return resp, err
		}
		if err := s.retrySubscription(ctx, sub, now, resp); err != nil {
			return resp, err
		}
	}

	s.logRunSummary(resp)
	return resp, nil
}

func (s *billingService) ProcessManualBilling(ctx context.Context, subscriptionID string) (*dto.BillingRunResponse, error) {
	now := time.Now().UTC()
	resp := dto.NewBillingRunResponse(types.BillingReasonManual.String(), now)

	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus == types.SubscriptionStatusSuspended {
		return nil, ierr.NewError("subscription is suspended").
			WithHint("Suspended subscriptions cannot be billed; reactivate the subscription first").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if err := s.billSubscription(ctx, sub, now, types.BillingReasonManual, true, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *billingService) ProcessPlanChange(ctx context.Context, subscriptionID string, req *dto.PlanChangeRequest) (*dto.PlanChangeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus == types.SubscriptionStatusSuspended {
		return nil, ierr.NewError("subscription is suspended").
			WithHint("Suspended subscriptions cannot change plans; reactivate the subscription first").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	newPlan, err := s.PlanRepo.Get(ctx, req.NewPlanID)
	if err != nil {
		return nil, err
	}
	if newPlan.ID == sub.PlanID {
		return nil, ierr.NewError("subscription already on plan").
			WithHintf("Subscription is already on plan %s", newPlan.ID).
			Mark(ierr.ErrInvalidOperation)
	}
	if err := s.validateChargeCurrency(sub.ID, newPlan.Currency); err != nil {
		return nil, err
	}

	// Proration covers the remainder of the current cycle under the price the
	// customer has been paying, not the new plan's price.
	prorated, err := s.calculator.ProratedAmount(sub.PlanPrice, sub.BillingCycleDays, sub.NextBillingDate, now)
	if err != nil {
		return nil, err
	}

	// Recording the adjustment is mandatory; charging it is left to the
	// ledger consumer, so no gateway call happens on this path.
	record := &billingrecord.BillingRecord{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_RECORD),
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
		Amount:         prorated,
		Currency:       sub.Currency,
		Description:    "Prorated adjustment for mid-cycle plan change",
		BillingReason:  types.BillingReasonPlanChange,
		Metadata: types.Metadata{
			"previous_plan_id": sub.PlanID,
			"new_plan_id":      newPlan.ID,
		},
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	if err := s.BillingRecordRepo.Append(ctx, record); err != nil {
		return nil, err
	}

	previousPlanID := sub.PlanID
	sub.PlanID = newPlan.ID
	sub.PlanPrice = newPlan.Price
	sub.Currency = newPlan.Currency
	sub.BillingCycleDays = newPlan.BillingCycleDays
	sub.UpdatedAt = now

	// Billing status and next billing date stay untouched: the new price
	// takes effect at the next scheduled charge.
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.publishAuditEvent(ctx, audit.EventPlanChanged, sub.ID, map[string]any{
		"previous_plan_id": previousPlanID,
		"new_plan_id":      newPlan.ID,
		"prorated_amount":  prorated,
		"currency":         sub.Currency,
	})

	return &dto.PlanChangeResponse{
		SubscriptionID:  sub.ID,
		PreviousPlanID:  previousPlanID,
		NewPlanID:       newPlan.ID,
		ProratedAmount:  prorated,
		Currency:        sub.Currency,
		NextBillingDate: sub.NextBillingDate,
	}, nil
}

func (s *billingService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

// billSubscription runs one charge-due transition. It returns an error only
// for invalid data, which aborts the whole run; everything else is recorded
// in the summary and isolated from the rest of the batch.
func (s *billingService) billSubscription(ctx context.Context, sub *subscription.Subscription, now time.Time, reason types.BillingReason, force bool, resp *dto.BillingRunResponse) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if err := s.validateChargeCurrency(sub.ID, sub.Currency); err != nil {
		return err
	}
	if !force && !sub.IsDue(now) {
		resp.RecordSkip(sub.ID, "not due")
		return nil
	}

	result := s.processor.ProcessCharge(ctx, sub, sub.PlanPrice, reason)
	if result.Succeeded {
		if err := s.applyChargeSuccess(sub, now); err != nil {
			return err
		}
	} else {
		s.applyChargeFailure(sub, now, result.ErrorMessage)
	}

	if done, err := s.persist(ctx, sub, resp); err != nil || done {
		return err
	}

	if result.Succeeded {
		resp.RecordSuccess(sub.ID, sub.PlanPrice)
	} else {
		resp.RecordFailure(sub.ID, sub.PlanPrice, lo.FromPtr(result.ErrorMessage))
	}
	return nil
}

func (s *billingService) renewSubscription(ctx context.Context, sub *subscription.Subscription, now time.Time, resp *dto.BillingRunResponse) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if err := s.validateChargeCurrency(sub.ID, sub.Currency); err != nil {
		return err
	}
	if !sub.IsRenewalCandidate(now, s.Config.Billing.RenewalWindowDays) {
		resp.RecordSkip(sub.ID, "end date outside renewal window")
		return nil
	}

	result := s.processor.ProcessCharge(ctx, sub, sub.PlanPrice, types.BillingReasonRenewal)
	if result.Succeeded {
		if err := s.applyRenewalSuccess(sub, now); err != nil {
			return err
		}
	} else {
		s.applyChargeFailure(sub, now, result.ErrorMessage)
	}

	if done, err := s.persist(ctx, sub, resp); err != nil || done {
		return err
	}

	if result.Succeeded {
		s.publishAuditEvent(ctx, audit.EventSubscriptionRenewed, sub.ID, map[string]any{
			"end_date":          sub.EndDate,
			"next_billing_date": sub.NextBillingDate,
		})
		resp.RecordSuccess(sub.ID, sub.PlanPrice)
	} else {
		resp.RecordFailure(sub.ID, sub.PlanPrice, lo.FromPtr(result.ErrorMessage))
	}
	return nil
}

func (s *billingService) retrySubscription(ctx context.Context, sub *subscription.Subscription, now time.Time, resp *dto.BillingRunResponse) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if err := s.validateChargeCurrency(sub.ID, sub.Currency); err != nil {
		return err
	}
	// The status query and this check can disagree when another path already
	// recovered the subscription; re-running the retry is then a no-op.
	if sub.SubscriptionStatus != types.SubscriptionStatusPaymentFailed {
		resp.RecordSkip(sub.ID, "no longer in payment_failed")
		return nil
	}

	result := s.processor.ProcessCharge(ctx, sub, sub.PlanPrice, types.BillingReasonRetry)
	suspended := false
	if result.Succeeded {
		if err := s.applyChargeSuccess(sub, now); err != nil {
			return err
		}
	} else {
		s.applyChargeFailure(sub, now, result.ErrorMessage)
		if sub.FailedPaymentAttempts >= s.Config.Billing.MaxPaymentAttempts {
			sub.SubscriptionStatus = types.SubscriptionStatusSuspended
			sub.SuspendedDate = &now
			suspended = true
		}
	}

	if done, err := s.persist(ctx, sub, resp); err != nil || done {
		return err
	}

	if result.Succeeded {
		resp.RecordSuccess(sub.ID, sub.PlanPrice)
		return nil
	}
	if suspended {
		s.Logger.Warnw("subscription suspended after exhausting payment retries",
			"subscription_id", sub.ID,
			"attempts", sub.FailedPaymentAttempts)
		s.publishAuditEvent(ctx, audit.EventSubscriptionSuspended, sub.ID, map[string]any{
			"attempts":       sub.FailedPaymentAttempts,
			"suspended_date": sub.SuspendedDate,
			"last_error":     sub.LastPaymentError,
		})
	}
	resp.RecordFailure(sub.ID, sub.PlanPrice, lo.FromPtr(result.ErrorMessage))
	return nil
}

// validateChargeCurrency rejects currencies the gateway account cannot
// settle. All charges run in the single configured billing currency, so a
// subscription or plan in any other currency is bad data reaching the engine.
func (s *billingService) validateChargeCurrency(subscriptionID, currency string) error {
	if strings.EqualFold(currency, s.Config.Billing.Currency) {
		return nil
	}
	return ierr.NewError("unsupported charge currency").
		WithHintf("Charges are settled in %s only", s.Config.Billing.Currency).
		WithReportableDetails(map[string]any{
			"subscription_id": subscriptionID,
			"currency":        currency,
		}).
		Mark(ierr.ErrValidation)
}

// applyChargeSuccess moves the subscription into its next cycle after a
// successful charge. The next billing date is anchored on the billing date.
func (s *billingService) applyChargeSuccess(sub *subscription.Subscription, now time.Time) error {
	next, err := s.calculator.NextBillingDate(now, sub.BillingCycleDays)
	if err != nil {
		return err
	}
	sub.SubscriptionStatus = types.SubscriptionStatusActive
	sub.LastBillingDate = &now
	sub.NextBillingDate = next
	sub.FailedPaymentAttempts = 0
	sub.LastPaymentError = nil
	sub.UpdatedAt = now
	return nil
}

// applyRenewalSuccess extends the term by one cycle. Unlike the recurring
// path, the next billing date is anchored on the previous next billing date
// so renewal cadence never drifts with run timing.
func (s *billingService) applyRenewalSuccess(sub *subscription.Subscription, now time.Time) error {
	newEnd, err := s.calculator.NextBillingDate(*sub.EndDate, sub.BillingCycleDays)
	if err != nil {
		return err
	}
	next, err := s.calculator.NextBillingDate(sub.NextBillingDate, sub.BillingCycleDays)
	if err != nil {
		return err
	}
	sub.SubscriptionStatus = types.SubscriptionStatusActive
	sub.StartDate = now
	sub.EndDate = &newEnd
	sub.LastBillingDate = &now
	sub.NextBillingDate = next
	sub.FailedPaymentAttempts = 0
	sub.LastPaymentError = nil
	sub.UpdatedAt = now
	return nil
}

func (s *billingService) applyChargeFailure(sub *subscription.Subscription, now time.Time, errorMessage *string) {
	sub.SubscriptionStatus = types.SubscriptionStatusPaymentFailed
	sub.FailedPaymentAttempts++
	sub.LastPaymentError = errorMessage
	sub.LastPaymentFailedDate = &now
	sub.UpdatedAt = now
}

// persist writes the new subscription state back. A version conflict means a
// concurrent run already handled this subscription; that is a skip, not a
// failure. Other storage errors are recorded as failures for this item only.
// done reports that the outcome was already recorded in the summary.
func (s *billingService) persist(ctx context.Context, sub *subscription.Subscription, resp *dto.BillingRunResponse) (done bool, err error) {
	updateErr := s.SubRepo.Update(ctx, sub)
	if updateErr == nil {
		return false, nil
	}
	if ierr.IsVersionConflict(updateErr) {
		s.Logger.Infow("skipping subscription on version conflict",
			"subscription_id", sub.ID,
			"version", sub.Version)
		resp.RecordSkip(sub.ID, "concurrent update, will reconcile next run")
		return true, nil
	}
	s.Logger.Errorw("failed to persist subscription state",
		"subscription_id", sub.ID,
		"error", updateErr)
	resp.RecordFailure(sub.ID, sub.PlanPrice, updateErr.Error())
	return true, nil
}

func (s *billingService) logRunSummary(resp *dto.BillingRunResponse) {
	s.Logger.Infow("billing run finished",
		"run_type", resp.RunType,
		"processed", resp.TotalProcessed,
		"succeeded", resp.TotalSuccess,
		"failed", resp.TotalFailed,
		"skipped", resp.TotalSkipped)
}
