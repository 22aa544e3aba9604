package service

import (
	"github.com/billcycle/billcycle/internal/config"
	"github.com/billcycle/billcycle/internal/domain/audit"
	"github.com/billcycle/billcycle/internal/domain/billingrecord"
	"github.com/billcycle/billcycle/internal/domain/payment"
	"github.com/billcycle/billcycle/internal/domain/plan"
	"github.com/billcycle/billcycle/internal/domain/subscription"
	"github.com/billcycle/billcycle/internal/idempotency"
	"github.com/billcycle/billcycle/internal/logger"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	SubRepo           subscription.Repository
	PlanRepo          plan.Repository
	BillingRecordRepo billingrecord.Repository

	// External collaborators
	Gateway   payment.Gateway
	AuditSink audit.Sink

	// Idempotency key generation for gateway charges
	IdempotencyGen *idempotency.Generator
}
