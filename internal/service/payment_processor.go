package service

import (
	"context"
	"time"

	"github.com/billcycle/billcycle/internal/domain/audit"
	"github.com/billcycle/billcycle/internal/domain/billingrecord"
	"github.com/billcycle/billcycle/internal/domain/payment"
	"github.com/billcycle/billcycle/internal/domain/subscription"
	"github.com/billcycle/billcycle/internal/idempotency"
	"github.com/billcycle/billcycle/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PaymentProcessorService executes a single charge attempt and records its
// outcome. A gateway decline and a gateway transport error are both folded
// into a failed ChargeResult: from the state machine's point of view the
// charge did not happen, and the idempotency key keeps an ambiguous timeout
// from turning into a duplicate charge on a later run.
type PaymentProcessorService interface {
	ProcessCharge(ctx context.Context, sub *subscription.Subscription, amount decimal.Decimal, reason types.BillingReason) *payment.ChargeResult
}

type paymentProcessorService struct {
	ServiceParams
}

// NewPaymentProcessorService creates a new payment processor service
func NewPaymentProcessorService(params ServiceParams) PaymentProcessorService {
	return &paymentProcessorService{ServiceParams: params}
}

func (s *paymentProcessorService) ProcessCharge(ctx context.Context, sub *subscription.Subscription, amount decimal.Decimal, reason types.BillingReason) *payment.ChargeResult {
	idemKey := s.chargeIdempotencyKey(sub, reason)
	req := &payment.ChargeRequest{
		CustomerRef:     sub.CustomerID,
		PaymentMethodID: sub.PaymentMethodID,
		Amount:          amount,
		Currency:        sub.Currency,
		IdempotencyKey:  idemKey,
		Description:     chargeDescription(reason),
	}

	// The deadline applies to the gateway call only. Recording the outcome
	// runs on the caller's context so that a charge landing right at the
	// deadline still gets its ledger row and audit trail.
	chargeCtx, cancel := context.WithTimeout(ctx, s.Config.Gateway.Timeout)
	result, err := s.Gateway.Charge(chargeCtx, req)
	cancel()
	if err != nil {
		s.Logger.Warnw("payment gateway charge failed",
			"subscription_id", sub.ID,
			"reason", reason,
			"error", err)
		result = &payment.ChargeResult{
			Succeeded:    false,
			ErrorMessage: lo.ToPtr(err.Error()),
		}
	}

	if result.Succeeded {
		s.recordCharge(ctx, sub, amount, reason, idemKey, result)
		s.publishAuditEvent(ctx, audit.EventPaymentSucceeded, sub.ID, map[string]any{
			"amount":          amount,
			"currency":        sub.Currency,
			"reason":          reason,
			"transaction_ref": result.TransactionRef,
		})
	} else {
		s.publishAuditEvent(ctx, audit.EventPaymentFailed, sub.ID, map[string]any{
			"amount":   amount,
			"currency": sub.Currency,
			"reason":   reason,
			"error":    result.ErrorMessage,
		})
	}
	return result
}

// recordCharge appends the ledger row for a successful charge. The charge has
// already happened at the gateway, so a ledger failure here must not bubble
// up: re-raising it would make the caller retry and double-bill the customer.
func (s *paymentProcessorService) recordCharge(ctx context.Context, sub *subscription.Subscription, amount decimal.Decimal, reason types.BillingReason, idemKey string, result *payment.ChargeResult) {
	record := &billingrecord.BillingRecord{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_RECORD),
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
		Amount:         amount,
		Currency:       sub.Currency,
		Description:    chargeDescription(reason),
		BillingReason:  reason,
		TransactionRef: result.TransactionRef,
		Metadata: types.Metadata{
			"idempotency_key": idemKey,
		},
		BaseModel: types.GetDefaultBaseModel(ctx),
	}

	if err := s.BillingRecordRepo.Append(ctx, record); err != nil {
		s.Logger.Errorw("failed to append billing record after successful charge",
			"subscription_id", sub.ID,
			"amount", amount,
			"transaction_ref", result.TransactionRef,
			"error", err)
		s.publishAuditEvent(ctx, audit.EventLedgerWriteFailed, sub.ID, map[string]any{
			"amount":          amount,
			"currency":        sub.Currency,
			"reason":          reason,
			"transaction_ref": result.TransactionRef,
		})
	}
}

// chargeIdempotencyKey derives the gateway idempotency key for this charge.
// Recurring charges, retries and manual triggers for the same cycle share one
// key; renewals get their own scope keyed on the term's end date. Sharing a
// key across retries requires a gateway that deduplicates successful charges
// only and does not replay cached declines for a seen key.
func (s *paymentProcessorService) chargeIdempotencyKey(sub *subscription.Subscription, reason types.BillingReason) string {
	if reason == types.BillingReasonRenewal {
		anchor := sub.NextBillingDate
		if sub.EndDate != nil {
			anchor = *sub.EndDate
		}
		return s.IdempotencyGen.GenerateKey(idempotency.ScopeRenewalCharge, map[string]interface{}{
			"subscription_id": sub.ID,
			"term_end":        anchor.UTC().Format(time.RFC3339),
		})
	}
	return s.IdempotencyGen.GenerateKey(idempotency.ScopeCycleCharge, map[string]interface{}{
		"subscription_id": sub.ID,
		"cycle_anchor":    sub.NextBillingDate.UTC().Format(time.RFC3339),
	})
}

func chargeDescription(reason types.BillingReason) string {
	switch reason {
	case types.BillingReasonRenewal:
		return "Subscription renewal charge"
	case types.BillingReasonRetry:
		return "Failed payment retry charge"
	case types.BillingReasonManual:
		return "Manually triggered subscription charge"
	default:
		return "Recurring subscription charge"
	}
}
