package service

import (
	"context"
	"testing"
	"time"

	"github.com/billcycle/billcycle/internal/domain/audit"
	"github.com/billcycle/billcycle/internal/domain/billingrecord"
	"github.com/billcycle/billcycle/internal/domain/subscription"
	"github.com/billcycle/billcycle/internal/idempotency"
	"github.com/billcycle/billcycle/internal/testutil"
	"github.com/billcycle/billcycle/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// deadlineSensitiveLedger and deadlineSensitiveSink refuse expired contexts
// the way a real database or broker would.
type deadlineSensitiveLedger struct {
	billingrecord.Repository
}

func (r deadlineSensitiveLedger) Append(ctx context.Context, record *billingrecord.BillingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Repository.Append(ctx, record)
}

type deadlineSensitiveSink struct {
	audit.Sink
}

func (s deadlineSensitiveSink) Publish(ctx context.Context, event *audit.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Sink.Publish(ctx, event)
}

type PaymentProcessorTestSuite struct {
	testutil.BaseServiceTestSuite
	processor PaymentProcessorService
}

func TestPaymentProcessorService(t *testing.T) {
	suite.Run(t, new(PaymentProcessorTestSuite))
}

func (s *PaymentProcessorTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.processor = NewPaymentProcessorService(ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		SubRepo:           s.GetStores().SubscriptionRepo,
		PlanRepo:          s.GetStores().PlanRepo,
		BillingRecordRepo: s.GetStores().BillingRecordRepo,
		Gateway:           s.GetGateway(),
		AuditSink:         s.GetAuditSink(),
		IdempotencyGen:    idempotency.NewGenerator(),
	})
}

func (s *PaymentProcessorTestSuite) newSubscription() *subscription.Subscription {
	now := s.GetNow()
	return &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		CustomerID:         "cust_1",
		PaymentMethodID:    "pm_1",
		PlanID:             "plan_1",
		PlanPrice:          decimal.NewFromInt(100),
		Currency:           "usd",
		BillingCycleDays:   30,
		SubscriptionStatus: types.SubscriptionStatusActive,
		StartDate:          now.AddDate(0, 0, -30),
		NextBillingDate:    now,
		Version:            1,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
}

func (s *PaymentProcessorTestSuite) TestSuccessfulChargeWritesLedgerRecord() {
	sub := s.newSubscription()

	result := s.processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRecurring)

	s.True(result.Succeeded)
	s.NotNil(result.TransactionRef)

	records := s.GetStores().BillingRecordRepo.All()
	s.Len(records, 1)
	s.Equal(sub.ID, records[0].SubscriptionID)
	s.True(decimal.NewFromInt(100).Equal(records[0].Amount))
	s.Equal(types.BillingReasonRecurring, records[0].BillingReason)
	s.Equal(result.TransactionRef, records[0].TransactionRef)

	s.Contains(s.GetAuditSink().EventNames(), audit.EventPaymentSucceeded)
}

func (s *PaymentProcessorTestSuite) TestDeclinedChargeWritesNoLedgerRecord() {
	sub := s.newSubscription()
	s.GetGateway().Script(testutil.ChargeOutcome{DeclineMessage: "insufficient funds"})

	result := s.processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRecurring)

	s.False(result.Succeeded)
	s.NotNil(result.ErrorMessage)
	s.Equal("insufficient funds", *result.ErrorMessage)

	s.Empty(s.GetStores().BillingRecordRepo.All())
	s.Contains(s.GetAuditSink().EventNames(), audit.EventPaymentFailed)
}

func (s *PaymentProcessorTestSuite) TestTransportErrorFoldsIntoFailedResult() {
	sub := s.newSubscription()
	s.GetGateway().Script(testutil.ChargeOutcome{TransportError: true})

	result := s.processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRecurring)

	s.False(result.Succeeded)
	s.NotNil(result.ErrorMessage)
	s.Empty(s.GetStores().BillingRecordRepo.All())
}

func (s *PaymentProcessorTestSuite) TestLedgerWriteFailureIsNonFatal() {
	sub := s.newSubscription()
	s.GetStores().BillingRecordRepo.FailNext()

	result := s.processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRecurring)

	// The charge already happened, so the result must stay successful
	s.True(result.Succeeded)
	s.Empty(s.GetStores().BillingRecordRepo.All())

	names := s.GetAuditSink().EventNames()
	s.Contains(names, audit.EventLedgerWriteFailed)
	s.Contains(names, audit.EventPaymentSucceeded)
}

func (s *PaymentProcessorTestSuite) TestAuditSinkFailureIsNonFatal() {
	sub := s.newSubscription()
	s.GetAuditSink().Fail()

	result := s.processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRecurring)

	s.True(result.Succeeded)
	s.Len(s.GetStores().BillingRecordRepo.All(), 1)
}

func (s *PaymentProcessorTestSuite) TestGatewayDeadlineDoesNotBlockOutcomeRecording() {
	// An already-expired gateway deadline must not leak into the ledger
	// write or the audit publishes that follow the charge.
	cfg := *s.GetConfig()
	cfg.Gateway.Timeout = time.Nanosecond
	processor := NewPaymentProcessorService(ServiceParams{
		Logger:            s.GetLogger(),
		Config:            &cfg,
		SubRepo:           s.GetStores().SubscriptionRepo,
		PlanRepo:          s.GetStores().PlanRepo,
		BillingRecordRepo: deadlineSensitiveLedger{s.GetStores().BillingRecordRepo},
		Gateway:           s.GetGateway(),
		AuditSink:         deadlineSensitiveSink{s.GetAuditSink()},
		IdempotencyGen:    idempotency.NewGenerator(),
	})
	sub := s.newSubscription()

	result := processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRecurring)

	s.True(result.Succeeded)
	s.Len(s.GetStores().BillingRecordRepo.All(), 1)
	s.Contains(s.GetAuditSink().EventNames(), audit.EventPaymentSucceeded)

	s.GetGateway().Script(testutil.ChargeOutcome{DeclineMessage: "insufficient funds"})
	result = processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRecurring)

	s.False(result.Succeeded)
	s.Contains(s.GetAuditSink().EventNames(), audit.EventPaymentFailed)
}

func (s *PaymentProcessorTestSuite) TestIdempotencyKeyStableWithinCycle() {
	sub := s.newSubscription()

	s.processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRecurring)
	s.processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRetry)

	requests := s.GetGateway().Requests()
	s.Len(requests, 2)
	// A retry of the same cycle must map to the same gateway charge
	s.Equal(requests[0].IdempotencyKey, requests[1].IdempotencyKey)
}

func (s *PaymentProcessorTestSuite) TestIdempotencyKeyChangesAcrossCycles() {
	sub := s.newSubscription()

	s.processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRecurring)
	sub.NextBillingDate = sub.NextBillingDate.AddDate(0, 1, 0)
	s.processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRecurring)

	requests := s.GetGateway().Requests()
	s.Len(requests, 2)
	s.NotEqual(requests[0].IdempotencyKey, requests[1].IdempotencyKey)
}

func (s *PaymentProcessorTestSuite) TestRenewalUsesDistinctIdempotencyScope() {
	sub := s.newSubscription()
	end := s.GetNow().AddDate(0, 0, 3)
	sub.EndDate = &end

	s.processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRecurring)
	s.processor.ProcessCharge(s.GetContext(), sub, sub.PlanPrice, types.BillingReasonRenewal)

	requests := s.GetGateway().Requests()
	s.Len(requests, 2)
	s.NotEqual(requests[0].IdempotencyKey, requests[1].IdempotencyKey)
}
