package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyIsDeterministic(t *testing.T) {
	g := NewGenerator()
	params := map[string]interface{}{
		"subscription_id": "subs_1",
		"cycle_anchor":    "2025-06-01T00:00:00Z",
	}

	first := g.GenerateKey(ScopeCycleCharge, params)
	second := g.GenerateKey(ScopeCycleCharge, params)

	assert.Equal(t, first, second)
	assert.True(t, g.ValidateKey(ScopeCycleCharge, params, first))
}

func TestGenerateKeyOrderIndependent(t *testing.T) {
	g := NewGenerator()

	a := g.GenerateKey(ScopeCycleCharge, map[string]interface{}{
		"subscription_id": "subs_1",
		"cycle_anchor":    "2025-06-01T00:00:00Z",
	})
	b := g.GenerateKey(ScopeCycleCharge, map[string]interface{}{
		"cycle_anchor":    "2025-06-01T00:00:00Z",
		"subscription_id": "subs_1",
	})

	assert.Equal(t, a, b)
}

func TestGenerateKeyVariesByScopeAndParams(t *testing.T) {
	g := NewGenerator()
	params := map[string]interface{}{
		"subscription_id": "subs_1",
		"cycle_anchor":    "2025-06-01T00:00:00Z",
	}

	cycle := g.GenerateKey(ScopeCycleCharge, params)
	renewal := g.GenerateKey(ScopeRenewalCharge, params)
	assert.NotEqual(t, cycle, renewal)

	other := g.GenerateKey(ScopeCycleCharge, map[string]interface{}{
		"subscription_id": "subs_1",
		"cycle_anchor":    "2025-07-01T00:00:00Z",
	})
	assert.NotEqual(t, cycle, other)
	assert.False(t, g.ValidateKey(ScopeCycleCharge, params, other))
}
