package executor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/evdnx/gosafe/logger"
	"github.com/evdnx/gosafe/types"
	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientCash rejects a buy whose cost plus commission exceeds the cash balance.
	ErrInsufficientCash = errors.New("insufficient cash")
	// ErrNoMarket is returned when an order arrives for a symbol without a positive mark.
	ErrNoMarket = errors.New("no market price")
)

// Executor is the order and portfolio surface a strategy talks to.
type Executor interface {
	Buy(symbol string, qty float64) error
	Sell(symbol string, qty float64) error
	// Position reports the open position; ok is false when flat.
	Position(symbol string) (pos types.Position, ok bool)
	Cash() float64
	SetCommission(rate float64)
}

type book struct {
	size decimal.Decimal // signed
	avg  decimal.Decimal
}

func (b *book) apply(delta, price decimal.Decimal) {
	next := b.size.Add(delta)
	switch {
	case b.size.IsZero() || b.size.Sign() == delta.Sign():
		b.avg = b.avg.Mul(b.size.Abs()).Add(price.Mul(delta.Abs())).Div(next.Abs())
	case next.IsZero():
		b.avg = decimal.Zero
	case next.Sign() != b.size.Sign():
		b.avg = price
	}
	b.size = next
}

// PaperExecutor is a simple paper‑trader: orders fill immediately at the
// current mark, commission is a fraction of the traded notional, no slippage.
type PaperExecutor struct {
	cash       decimal.Decimal
	commission decimal.Decimal
	books      map[string]*book
	marks      map[string]decimal.Decimal
	fills      []types.Order
	log        logger.Logger
}

func NewPaperExecutor(startCash float64, log logger.Logger) *PaperExecutor {
	if log == nil {
		log = logger.NewNop()
	}
	return &PaperExecutor{
		cash:  decimal.NewFromFloat(startCash),
		books: make(map[string]*book),
		marks: make(map[string]decimal.Decimal),
		log:   log,
	}
}

func (p *PaperExecutor) SetCommission(rate float64) {
	p.commission = decimal.NewFromFloat(rate)
}

// Mark sets the price at which the next order for symbol fills.
func (p *PaperExecutor) Mark(symbol string, price float64) {
	p.marks[symbol] = decimal.NewFromFloat(price)
}

func (p *PaperExecutor) Buy(symbol string, qty float64) error {
	return p.fill(symbol, types.Buy, qty)
}

func (p *PaperExecutor) Sell(symbol string, qty float64) error {
	return p.fill(symbol, types.Sell, qty)
}

func (p *PaperExecutor) fill(symbol string, side types.Side, qty float64) error {
	if qty == 0 {
		return nil
	}
	if qty < 0 {
		return fmt.Errorf("paper executor: negative quantity %v", qty)
	}
	price, ok := p.marks[symbol]
	if !ok || !price.IsPositive() {
		return fmt.Errorf("%w for %s", ErrNoMarket, symbol)
	}
	q := decimal.NewFromFloat(qty)
	notional := price.Mul(q)
	fee := notional.Mul(p.commission)

	b := p.books[symbol]
	if b == nil {
		b = &book{}
		p.books[symbol] = b
	}
	if side == types.Buy {
		cost := notional.Add(fee)
		if cost.GreaterThan(p.cash) {
			return fmt.Errorf("%w: %s cost %s, cash %s", ErrInsufficientCash, symbol, cost.StringFixed(2), p.cash.StringFixed(2))
		}
		p.cash = p.cash.Sub(cost)
		b.apply(q, price)
	} else {
		p.cash = p.cash.Add(notional).Sub(fee)
		b.apply(q.Neg(), price)
	}
	o := types.Order{Symbol: symbol, Side: side, Qty: qty, Price: price.InexactFloat64()}
	p.fills = append(p.fills, o)
	p.log.Info("exec_fill",
		logger.String("symbol", symbol),
		logger.String("side", string(side)),
		logger.Float64("qty", qty),
		logger.Float64("price", o.Price),
		logger.Float64("fee", fee.InexactFloat64()),
		logger.Float64("cash", p.cash.InexactFloat64()),
	)
	return nil
}

func (p *PaperExecutor) Position(symbol string) (types.Position, bool) {
	b := p.books[symbol]
	if b == nil || b.size.IsZero() {
		return types.Position{Symbol: symbol}, false
	}
	return types.Position{
		Symbol:     symbol,
		Size:       b.size.InexactFloat64(),
		EntryPrice: b.avg.InexactFloat64(),
		MarkPrice:  p.marks[symbol].InexactFloat64(),
		Open:       true,
	}, true
}

func (p *PaperExecutor) Cash() float64 { return p.cash.InexactFloat64() }

// Equity is cash plus every open position valued at its mark.
func (p *PaperExecutor) Equity() float64 {
	total := p.cash
	for sym, b := range p.books {
		total = total.Add(b.size.Mul(p.marks[sym]))
	}
	return total.InexactFloat64()
}

// OpenPositions returns the symbols with a non-zero position, sorted.
func (p *PaperExecutor) OpenPositions() []string {
	var out []string
	for sym, b := range p.books {
		if !b.size.IsZero() {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

// Fills returns a copy of every executed order.
func (p *PaperExecutor) Fills() []types.Order {
	out := make([]types.Order, len(p.fills))
	copy(out, p.fills)
	return out
}
