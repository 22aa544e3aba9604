package repository

import (
	"github.com/billcycle/billcycle/internal/domain/billingrecord"
	"github.com/billcycle/billcycle/internal/domain/plan"
	"github.com/billcycle/billcycle/internal/domain/subscription"
	"github.com/billcycle/billcycle/internal/logger"
	pgrepo "github.com/billcycle/billcycle/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
)

// Repositories bundles the storage interfaces the engine depends on
type Repositories struct {
	Subscription  subscription.Repository
	Plan          plan.Repository
	BillingRecord billingrecord.Repository
}

// NewRepositories wires the postgres implementations
func NewRepositories(db *sqlx.DB, logger *logger.Logger) *Repositories {
	return &Repositories{
		Subscription:  pgrepo.NewSubscriptionRepository(db, logger),
		Plan:          pgrepo.NewPlanRepository(db, logger),
		BillingRecord: pgrepo.NewBillingRecordRepository(db, logger),
	}
}
