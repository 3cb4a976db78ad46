package testutils

import (
	"context"
	"sync"

	"github.com/evdnx/goldpilot/executor"
	"github.com/evdnx/goldpilot/types"
)

// MockExecutor implements executor.Executor in‑memory. Every order fills at
// its price; Err, when set, is returned instead.
type MockExecutor struct {
	mu        sync.RWMutex
	equity    float64
	positions map[string]float64 // lots (signed)
	orders    []types.Order      // captured for assertions
	Err       error
}

// NewMockExecutor creates a fresh executor with the supplied starting equity.
func NewMockExecutor(startEquity float64) *MockExecutor {
	return &MockExecutor{
		equity:    startEquity,
		positions: make(map[string]float64),
	}
}

func (m *MockExecutor) Submit(_ context.Context, o types.Order) (executor.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return executor.Report{}, m.Err
	}
	if o.Side == types.Buy {
		m.positions[o.Symbol] += o.Qty
	} else {
		m.positions[o.Symbol] -= o.Qty
	}
	m.orders = append(m.orders, o)
	return executor.Report{OrderID: o.ID, Qty: o.Qty, Price: o.Price}, nil
}

// Equity returns the configured equity.
func (m *MockExecutor) Equity() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.equity
}

// Position returns the signed lots for a symbol; the average price is not tracked.
func (m *MockExecutor) Position(symbol string) (float64, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.positions[symbol], 0
}

// Orders returns a copy of all submitted orders (useful for assertions).
func (m *MockExecutor) Orders() []types.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Order, len(m.orders))
	copy(out, m.orders)
	return out
}
