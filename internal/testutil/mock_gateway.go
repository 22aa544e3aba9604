package testutil

import (
	"context"
	"sync"

	"github.com/billcycle/billcycle/internal/domain/payment"
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/samber/lo"
)

// ChargeOutcome scripts one gateway answer
type ChargeOutcome struct {
	// Succeed makes the charge succeed with a transaction reference
	Succeed bool
	// DeclineMessage is the decline reason when Succeed is false
	DeclineMessage string
	// TransportError makes Charge return an error instead of a result
	TransportError bool
}

// MockGateway implements payment.Gateway with scripted per-call outcomes.
// With no script, every charge succeeds.
type MockGateway struct {
	mu       sync.Mutex
	script   []ChargeOutcome
	requests []*payment.ChargeRequest
}

// NewMockGateway creates a new mock gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Script queues outcomes to be returned in order. Once the script is
// exhausted, charges succeed.
func (g *MockGateway) Script(outcomes ...ChargeOutcome) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.script = append(g.script, outcomes...)
}

// Requests returns every charge request received so far
func (g *MockGateway) Requests() []*payment.ChargeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*payment.ChargeRequest{}, g.requests...)
}

// CallCount returns how many charges were attempted
func (g *MockGateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *MockGateway) Charge(ctx context.Context, req *payment.ChargeRequest) (*payment.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)

	outcome := ChargeOutcome{Succeed: true}
	if len(g.script) > 0 {
		outcome = g.script[0]
		g.script = g.script[1:]
	}

	if outcome.TransportError {
		return nil, ierr.NewError("gateway unreachable").
			WithHint("Payment gateway is unreachable").
			Mark(ierr.ErrGateway)
	}
	if !outcome.Succeed {
		message := outcome.DeclineMessage
		if message == "" {
			message = "card declined"
		}
		return &payment.ChargeResult{
			Succeeded:    false,
			ErrorMessage: lo.ToPtr(message),
		}, nil
	}

	return &payment.ChargeResult{
		Succeeded:      true,
		TransactionRef: lo.ToPtr("txn_" + req.IdempotencyKey),
	}, nil
}
