package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/billcycle/billcycle/internal/domain/audit"
	"github.com/billcycle/billcycle/internal/types"
)

// publishAuditEvent sends an event to the audit sink. The sink is best
// effort: failures are logged and swallowed so billing never blocks on it.
func (p ServiceParams) publishAuditEvent(ctx context.Context, eventName, subscriptionID string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.Logger.Errorw("failed to marshal audit payload",
			"event_name", eventName,
			"subscription_id", subscriptionID,
			"error", err)
		return
	}

	event := &audit.Event{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_AUDIT_EVENT),
		EventName:      eventName,
		SubscriptionID: subscriptionID,
		TenantID:       types.GetTenantID(ctx),
		Timestamp:      time.Now().UTC(),
		Payload:        body,
	}
	if err := p.AuditSink.Publish(ctx, event); err != nil {
		p.Logger.Warnw("failed to publish audit event",
			"event_name", eventName,
			"subscription_id", subscriptionID,
			"error", err)
	}
}
