package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// ChargeRequest is a single charge attempt against the payment gateway
type ChargeRequest struct {
	// CustomerRef identifies the customer on the gateway side
	CustomerRef string `json:"customer_ref"`

	// PaymentMethodID identifies which payment method to charge
	PaymentMethodID string `json:"payment_method_id"`

	// Amount is the charge value in the given currency
	Amount decimal.Decimal `json:"amount"`

	// Currency is a lowercase 3 letter ISO code
	Currency string `json:"currency"`

	// IdempotencyKey makes replays of the same logical charge safe. It is
	// derived from the subscription and its cycle anchor, so retrying an
	// ambiguous timeout in a later run cannot produce a duplicate charge.
	IdempotencyKey string `json:"idempotency_key"`

	// Description is a human readable summary forwarded to the gateway
	Description string `json:"description"`
}

// ChargeResult is the gateway's answer to a charge attempt. A decline is a
// result, not an error; transport failures surface as Go errors from Charge.
type ChargeResult struct {
	Succeeded      bool    `json:"succeeded"`
	TransactionRef *string `json:"transaction_ref,omitempty"`
	ErrorMessage   *string `json:"error_message,omitempty"`
}

// Gateway is the narrow contract with the external payment processor.
// Charge is synchronous and must resolve or time out; the caller supplies the
// timeout through the context.
type Gateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}
