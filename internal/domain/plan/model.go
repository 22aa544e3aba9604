package plan

import (
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/billcycle/billcycle/internal/types"
	"github.com/shopspring/decimal"
)

// Plan is a read-only catalog entry for this engine. The billing engine looks
// plans up on plan changes; plan CRUD lives elsewhere.
type Plan struct {
	// ID is the unique identifier for the plan
	ID string `db:"id" json:"id"`

	// Name is the display name of the plan
	Name string `db:"name" json:"name"`

	// Price is the recurring charge amount for one billing cycle
	Price decimal.Decimal `db:"price" json:"price"`

	// Currency is the currency of the plan in lowercase 3 digit ISO codes
	Currency string `db:"currency" json:"currency"`

	// BillingCycleDays is the recurring interval between charges
	BillingCycleDays int `db:"billing_cycle_days" json:"billing_cycle_days"`

	types.BaseModel
}

// Validate checks the data integrity invariants of the plan record
func (p *Plan) Validate() error {
	if p.Price.IsNegative() {
		return ierr.NewError("invalid plan price").
			WithHint("Plan price must not be negative").
			WithReportableDetails(map[string]any{
				"plan_id": p.ID,
				"price":   p.Price,
			}).
			Mark(ierr.ErrValidation)
	}
	return types.ValidateBillingCycleDays(p.BillingCycleDays)
}

// TableName returns the table name for the plan
func (p *Plan) TableName() string {
	return "plans"
}
