package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Event names emitted by the billing engine
const (
	EventPaymentSucceeded      = "billing.payment_succeeded"
	EventPaymentFailed         = "billing.payment_failed"
	EventSubscriptionSuspended = "billing.subscription_suspended"
	EventSubscriptionRenewed   = "billing.subscription_renewed"
	EventPlanChanged           = "billing.plan_changed"
	EventLedgerWriteFailed     = "billing.ledger_write_failed"
)

// Event is an operational audit record. Events are a best-effort side
// channel: producers log sink failures and move on.
type Event struct {
	ID             string          `json:"id"`
	EventName      string          `json:"event_name"`
	SubscriptionID string          `json:"subscription_id"`
	TenantID       string          `json:"tenant_id"`
	Timestamp      time.Time       `json:"timestamp"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// Sink receives audit events. Implementations must be safe for concurrent
// use; a failing sink must never block billing.
type Sink interface {
	Publish(ctx context.Context, event *Event) error
}
