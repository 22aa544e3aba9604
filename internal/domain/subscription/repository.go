package subscription

import (
	"context"
	"time"

	"github.com/billcycle/billcycle/internal/types"
)

// Repository provides durable storage for subscriptions.
//
// Update is a conditional write: it only succeeds when the caller holds the
// current Version of the record, and increments the version on success. A
// stale writer receives ierr.ErrVersionConflict so overlapping engine runs
// cannot double-charge the same subscription in the same cycle.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error

	// GetDueForBilling returns active subscriptions whose next billing date
	// is at or before asOf
	GetDueForBilling(ctx context.Context, asOf time.Time) ([]*Subscription, error)

	// GetByStatus returns subscriptions in the given billing status
	GetByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*Subscription, error)

	// GetExpiring returns active or expired subscriptions whose end date is
	// within windowDays of asOf
	GetExpiring(ctx context.Context, asOf time.Time, windowDays int) ([]*Subscription, error)
}
