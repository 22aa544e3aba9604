package testutil

import (
	"context"
	"sync"

	"github.com/billcycle/billcycle/internal/domain/billingrecord"
	ierr "github.com/billcycle/billcycle/internal/errors"
)

// InMemoryBillingRecordStore implements billingrecord.Repository as an
// append-only slice. FailNext makes the next append fail, to exercise the
// ledger-write-failure path.
type InMemoryBillingRecordStore struct {
	mu       sync.RWMutex
	records  []*billingrecord.BillingRecord
	failNext bool
}

// NewInMemoryBillingRecordStore creates a new in-memory ledger store
func NewInMemoryBillingRecordStore() *InMemoryBillingRecordStore {
	return &InMemoryBillingRecordStore{
		records: make([]*billingrecord.BillingRecord, 0),
	}
}

// FailNext makes the next Append call fail
func (s *InMemoryBillingRecordStore) FailNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = true
}

func (s *InMemoryBillingRecordStore) Append(ctx context.Context, record *billingrecord.BillingRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext {
		s.failNext = false
		return ierr.NewError("ledger unavailable").
			WithHint("Failed to append billing record").
			Mark(ierr.ErrDatabase)
	}

	s.records = append(s.records, record)
	return nil
}

func (s *InMemoryBillingRecordStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*billingrecord.BillingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*billingrecord.BillingRecord
	for _, record := range s.records {
		if record.SubscriptionID == subscriptionID {
			out = append(out, record)
		}
	}
	return out, nil
}

// All returns every record in append order
func (s *InMemoryBillingRecordStore) All() []*billingrecord.BillingRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*billingrecord.BillingRecord{}, s.records...)
}
