package billingrecord

import (
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/billcycle/billcycle/internal/types"
	"github.com/shopspring/decimal"
)

// BillingRecord is one row in the revenue ledger: exactly one per attempted
// charge that the gateway accepted, plus one per plan-change adjustment.
// Records are write-once; the engine never mutates or deletes past records.
type BillingRecord struct {
	// ID is the unique identifier for the billing record
	ID string `db:"id" json:"id"`

	// SubscriptionID links the record to the subscription that was charged
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// CustomerID is the identifier for the customer in our system
	CustomerID string `db:"customer_id" json:"customer_id"`

	// Amount is the charged or adjusted amount
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// Currency is the currency of the amount in lowercase 3 digit ISO codes
	Currency string `db:"currency" json:"currency"`

	// Description is a human readable summary of the charge
	Description string `db:"description" json:"description"`

	// BillingReason explains why the charge was attempted
	BillingReason types.BillingReason `db:"billing_reason" json:"billing_reason"`

	// TransactionRef is the opaque reference returned by the payment gateway,
	// empty for adjustments that never hit the gateway
	TransactionRef *string `db:"transaction_ref" json:"transaction_ref,omitempty"`

	// Metadata carries free-form annotations for the ledger consumer
	Metadata types.Metadata `db:"metadata" json:"metadata,omitempty"`

	types.BaseModel
}

// Validate validates the billing record
func (r *BillingRecord) Validate() error {
	if r.SubscriptionID == "" {
		return ierr.NewError("invalid subscription id").
			WithHint("Subscription id is required").
			Mark(ierr.ErrValidation)
	}
	if r.Amount.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must not be negative").
			WithReportableDetails(map[string]any{
				"subscription_id": r.SubscriptionID,
				"amount":          r.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	if r.Currency == "" {
		return ierr.NewError("invalid currency").
			WithHint("Currency is required").
			Mark(ierr.ErrValidation)
	}
	return r.BillingReason.Validate()
}

// TableName returns the table name for the billing record
func (r *BillingRecord) TableName() string {
	return "billing_records"
}
