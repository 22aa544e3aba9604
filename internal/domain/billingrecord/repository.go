package billingrecord

import "context"

// Repository is the append-only revenue ledger
type Repository interface {
	Append(ctx context.Context, record *BillingRecord) error
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*BillingRecord, error)
}
