package testutil

import (
	"context"
	"time"

	"github.com/billcycle/billcycle/internal/domain/subscription"
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/billcycle/billcycle/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository with the same
// optimistic-locking contract as the postgres implementation: Update only
// succeeds when the caller's Version matches the stored one.
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	c := *sub
	return &c
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if err := s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub)); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription with ID %s was not found", id).
			WithReportableDetails(map[string]any{
				"subscription_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

// Update applies a conditional write. A stale version loses the race exactly
// like a concurrent engine run would against postgres.
func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.items[sub.ID]
	if !exists {
		return ierr.NewError("subscription not found").
			WithHintf("Subscription with ID %s was not found", sub.ID).
			Mark(ierr.ErrNotFound)
	}
	if current.Version != sub.Version {
		return ierr.NewError("subscription was modified concurrently").
			WithHint("Subscription was updated by another process").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	sub.Version++
	s.items[sub.ID] = copySubscription(sub)
	return nil
}

func (s *InMemorySubscriptionStore) GetDueForBilling(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	return s.list(ctx, func(ctx context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.SubscriptionStatus == types.SubscriptionStatusActive && sub.IsDue(asOf)
	})
}

func (s *InMemorySubscriptionStore) GetByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*subscription.Subscription, error) {
	return s.list(ctx, func(ctx context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.SubscriptionStatus == status
	})
}

func (s *InMemorySubscriptionStore) GetExpiring(ctx context.Context, asOf time.Time, windowDays int) ([]*subscription.Subscription, error) {
	return s.list(ctx, func(ctx context.Context, sub *subscription.Subscription, _ interface{}) bool {
		if sub.SubscriptionStatus != types.SubscriptionStatusActive &&
			sub.SubscriptionStatus != types.SubscriptionStatusExpired {
			return false
		}
		return sub.IsRenewalCandidate(asOf, windowDays)
	})
}

func (s *InMemorySubscriptionStore) list(ctx context.Context, filterFn FilterFunc[*subscription.Subscription]) ([]*subscription.Subscription, error) {
	tenantFilter := func(ctx context.Context, sub *subscription.Subscription, filter interface{}) bool {
		if sub.TenantID != types.GetTenantID(ctx) {
			return false
		}
		return filterFn(ctx, sub, filter)
	}
	sortFn := func(i, j *subscription.Subscription) bool {
		return i.ID < j.ID
	}

	subs, err := s.InMemoryStore.List(ctx, nil, tenantFilter, sortFn)
	if err != nil {
		return nil, err
	}

	out := make([]*subscription.Subscription, len(subs))
	for i, sub := range subs {
		out[i] = copySubscription(sub)
	}
	return out, nil
}
