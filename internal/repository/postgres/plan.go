package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/billcycle/billcycle/internal/domain/plan"
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/billcycle/billcycle/internal/logger"
	"github.com/billcycle/billcycle/internal/types"
	"github.com/jmoiron/sqlx"
)

type planRepository struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewPlanRepository creates a postgres-backed plan repository
func NewPlanRepository(db *sqlx.DB, logger *logger.Logger) plan.Repository {
	return &planRepository{db: db, logger: logger}
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	query := `SELECT id, name, price, currency, billing_cycle_days,
		tenant_id, status, created_at, updated_at, created_by, updated_by
		FROM plans WHERE id = $1 AND tenant_id = $2 AND status != $3`

	var p plan.Plan
	err := r.db.GetContext(ctx, &p, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("plan not found").
				WithHintf("Plan with ID %s was not found", id).
				WithReportableDetails(map[string]any{
					"plan_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get plan").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}
