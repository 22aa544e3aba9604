package publisher

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/billcycle/billcycle/internal/domain/audit"
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/billcycle/billcycle/internal/logger"
	"github.com/billcycle/billcycle/internal/pubsub"
)

// TopicAuditEvents is the topic all billing audit events are published to
const TopicAuditEvents = "billing.audit"

// auditPublisher implements audit.Sink on top of a watermill publisher
type auditPublisher struct {
	pubSub pubsub.Publisher
	logger *logger.Logger
}

// NewAuditPublisher creates a new audit event publisher
func NewAuditPublisher(pubSub pubsub.Publisher, logger *logger.Logger) audit.Sink {
	return &auditPublisher{
		pubSub: pubSub,
		logger: logger,
	}
}

// Publish publishes an audit event. Callers treat failures as best-effort;
// the error is returned for visibility only.
func (p *auditPublisher) Publish(ctx context.Context, event *audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal audit event").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_name", event.EventName)
	msg.Metadata.Set("subscription_id", event.SubscriptionID)

	if err := p.pubSub.Publish(ctx, TopicAuditEvents, msg); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to publish audit event").
			Mark(ierr.ErrSystem)
	}

	p.logger.Debugw("published audit event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"subscription_id", event.SubscriptionID)

	return nil
}
