package postgres

import (
	"context"

	"github.com/billcycle/billcycle/internal/domain/billingrecord"
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/billcycle/billcycle/internal/logger"
	"github.com/billcycle/billcycle/internal/types"
	"github.com/jmoiron/sqlx"
)

type billingRecordRepository struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewBillingRecordRepository creates a postgres-backed ledger repository
func NewBillingRecordRepository(db *sqlx.DB, logger *logger.Logger) billingrecord.Repository {
	return &billingRecordRepository{db: db, logger: logger}
}

const billingRecordColumns = `id, subscription_id, customer_id, amount, currency, description,
	billing_reason, transaction_ref, metadata, tenant_id, status, created_at, updated_at, created_by, updated_by`

// Append inserts a new ledger row. The ledger is append-only: there is no
// update or delete path on purpose.
func (r *billingRecordRepository) Append(ctx context.Context, record *billingrecord.BillingRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO billing_records (` + billingRecordColumns + `) VALUES (
		:id, :subscription_id, :customer_id, :amount, :currency, :description,
		:billing_reason, :transaction_ref, :metadata, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to append billing record").
			WithReportableDetails(map[string]any{
				"subscription_id": record.SubscriptionID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *billingRecordRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*billingrecord.BillingRecord, error) {
	query := `SELECT ` + billingRecordColumns + ` FROM billing_records
		WHERE subscription_id = $1 AND tenant_id = $2
		ORDER BY created_at ASC`

	var records []*billingrecord.BillingRecord
	err := r.db.SelectContext(ctx, &records, query, subscriptionID, types.GetTenantID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list billing records").
			Mark(ierr.ErrDatabase)
	}
	return records, nil
}
