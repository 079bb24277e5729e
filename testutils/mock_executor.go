package testutils

import (
	"errors"
	"sync"

	"github.com/evdnx/gosafe/types"
)

// ErrMockRejected is returned for symbols registered with Reject.
var ErrMockRejected = errors.New("mock executor: rejected")

// MockExecutor implements the Executor interface in‑memory. Fills happen at
// the price set with Mark; commission is recorded but not charged.
type MockExecutor struct {
	mu         sync.RWMutex
	cash       float64
	commission float64
	positions  map[string]float64 // qty (signed)
	avgPrice   map[string]float64
	marks      map[string]float64
	failures   map[string]error
	orders     []types.Order // captured for assertions
}

// NewMockExecutor creates a fresh executor with the supplied starting cash.
func NewMockExecutor(startCash float64) *MockExecutor {
	return &MockExecutor{
		cash:      startCash,
		positions: make(map[string]float64),
		avgPrice:  make(map[string]float64),
		marks:     make(map[string]float64),
		failures:  make(map[string]error),
	}
}

// Mark sets the fill and mark price for symbol.
func (m *MockExecutor) Mark(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marks[symbol] = price
}

// FailWith makes every subsequent order for symbol return err.
func (m *MockExecutor) FailWith(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[symbol] = err
}

func (m *MockExecutor) Buy(symbol string, qty float64) error {
	return m.submit(types.Order{Symbol: symbol, Side: types.Buy, Qty: qty})
}

func (m *MockExecutor) Sell(symbol string, qty float64) error {
	return m.submit(types.Order{Symbol: symbol, Side: types.Sell, Qty: qty})
}

func (m *MockExecutor) submit(o types.Order) error {
	if o.Qty == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[o.Symbol]; err != nil {
		return err
	}

	o.Price = m.marks[o.Symbol]
	cost := o.Price * o.Qty
	if o.Side == types.Buy {
		m.cash -= cost
		m.positions[o.Symbol] += o.Qty
		prev := m.avgPrice[o.Symbol]
		m.avgPrice[o.Symbol] = (prev*(m.positions[o.Symbol]-o.Qty) + cost) / m.positions[o.Symbol]
	} else {
		m.cash += cost
		m.positions[o.Symbol] -= o.Qty
		if m.positions[o.Symbol] == 0 {
			m.avgPrice[o.Symbol] = 0
		}
	}
	m.orders = append(m.orders, o)
	return nil
}

// Position returns the open position for symbol, if any.
func (m *MockExecutor) Position(symbol string) (types.Position, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qty := m.positions[symbol]
	if qty == 0 {
		return types.Position{Symbol: symbol}, false
	}
	return types.Position{
		Symbol:     symbol,
		Size:       qty,
		EntryPrice: m.avgPrice[symbol],
		MarkPrice:  m.marks[symbol],
		Open:       true,
	}, true
}

// Cash returns the current cash balance.
func (m *MockExecutor) Cash() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cash
}

func (m *MockExecutor) SetCommission(rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commission = rate
}

// Orders returns a copy of all submitted orders (useful for assertions).
func (m *MockExecutor) Orders() []types.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Order, len(m.orders))
	copy(out, m.orders)
	return out
}
