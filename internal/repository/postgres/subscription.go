package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/billcycle/billcycle/internal/domain/subscription"
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/billcycle/billcycle/internal/logger"
	"github.com/billcycle/billcycle/internal/types"
	"github.com/jmoiron/sqlx"
)

type subscriptionRepository struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewSubscriptionRepository creates a postgres-backed subscription repository
func NewSubscriptionRepository(db *sqlx.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

const subscriptionColumns = `id, customer_id, payment_method_id, plan_id, plan_price, currency,
	billing_cycle_days, subscription_status, start_date, end_date, last_billing_date,
	next_billing_date, failed_payment_attempts, last_payment_error, last_payment_failed_date,
	suspended_date, version, tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `INSERT INTO subscriptions (` + subscriptionColumns + `) VALUES (
		:id, :customer_id, :payment_method_id, :plan_id, :plan_price, :currency,
		:billing_cycle_days, :subscription_status, :start_date, :end_date, :last_billing_date,
		:next_billing_date, :failed_payment_attempts, :last_payment_error, :last_payment_failed_date,
		:suspended_date, :version, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE id = $1 AND tenant_id = $2 AND status != $3`

	var sub subscription.Subscription
	err := r.db.GetContext(ctx, &sub, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("subscription not found").
				WithHintf("Subscription with ID %s was not found", id).
				WithReportableDetails(map[string]any{
					"subscription_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

// Update is a conditional write on the record version. A stale writer gets
// ierr.ErrVersionConflict and must re-read before retrying.
func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	sub.UpdatedBy = types.GetUserID(ctx)

	query := `UPDATE subscriptions SET
		plan_id = :plan_id,
		plan_price = :plan_price,
		currency = :currency,
		billing_cycle_days = :billing_cycle_days,
		subscription_status = :subscription_status,
		start_date = :start_date,
		end_date = :end_date,
		last_billing_date = :last_billing_date,
		next_billing_date = :next_billing_date,
		failed_payment_attempts = :failed_payment_attempts,
		last_payment_error = :last_payment_error,
		last_payment_failed_date = :last_payment_failed_date,
		suspended_date = :suspended_date,
		version = version + 1,
		updated_at = :updated_at,
		updated_by = :updated_by
		WHERE id = :id AND version = :version AND tenant_id = :tenant_id`

	result, err := r.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	if rows == 0 {
		return ierr.NewError("stale subscription version").
			WithHint("Subscription was modified concurrently, skipping this update").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
				"version":         sub.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	sub.Version++
	return nil
}

func (r *subscriptionRepository) GetDueForBilling(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE subscription_status = $1 AND next_billing_date <= $2
		AND tenant_id = $3 AND status = $4
		ORDER BY next_billing_date ASC`

	var subs []*subscription.Subscription
	err := r.db.SelectContext(ctx, &subs, query,
		types.SubscriptionStatusActive, asOf, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list due subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

func (r *subscriptionRepository) GetByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE subscription_status = $1 AND tenant_id = $2 AND status = $3
		ORDER BY created_at ASC`

	var subs []*subscription.Subscription
	err := r.db.SelectContext(ctx, &subs, query,
		status, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions by status").
			WithReportableDetails(map[string]any{
				"subscription_status": status,
			}).
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

func (r *subscriptionRepository) GetExpiring(ctx context.Context, asOf time.Time, windowDays int) ([]*subscription.Subscription, error) {
	cutoff := asOf.AddDate(0, 0, windowDays)
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE subscription_status IN ($1, $2)
		AND end_date IS NOT NULL AND end_date <= $3
		AND tenant_id = $4 AND status = $5
		ORDER BY end_date ASC`

	var subs []*subscription.Subscription
	err := r.db.SelectContext(ctx, &subs, query,
		types.SubscriptionStatusActive, types.SubscriptionStatusExpired,
		cutoff, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list expiring subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}
