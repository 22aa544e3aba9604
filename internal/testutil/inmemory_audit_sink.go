package testutil

import (
	"context"
	"sync"

	"github.com/billcycle/billcycle/internal/domain/audit"
	ierr "github.com/billcycle/billcycle/internal/errors"
)

// InMemoryAuditSink implements audit.Sink and captures published events
type InMemoryAuditSink struct {
	mu     sync.Mutex
	events []*audit.Event
	fail   bool
}

// NewInMemoryAuditSink creates a new capturing audit sink
func NewInMemoryAuditSink() *InMemoryAuditSink {
	return &InMemoryAuditSink{}
}

// Fail makes every subsequent publish fail, to verify the sink stays
// best-effort
func (s *InMemoryAuditSink) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = true
}

func (s *InMemoryAuditSink) Publish(ctx context.Context, event *audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return ierr.NewError("audit sink unavailable").
			WithHint("Failed to publish audit event").
			Mark(ierr.ErrSystem)
	}
	s.events = append(s.events, event)
	return nil
}

// Events returns every captured event in publish order
func (s *InMemoryAuditSink) Events() []*audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*audit.Event{}, s.events...)
}

// EventNames returns the names of captured events in publish order
func (s *InMemoryAuditSink) EventNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.events))
	for i, event := range s.events {
		names[i] = event.EventName
	}
	return names
}
