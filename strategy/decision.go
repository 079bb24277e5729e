package strategy

import (
	"fmt"
	"math"

	"github.com/evdnx/gosafe/config"
	"github.com/evdnx/gosafe/risk"
	"github.com/evdnx/gosafe/types"
)

// Tick is everything the decision engine sees for one instrument at one step.
type Tick struct {
	Symbol     string
	Price      float64
	RunningMax float64
	// Position is the executor's view; Open is false when flat.
	Position types.Position
	Cash     float64
}

// Decision is the outcome of one evaluation. Qty is the order size for
// Enter, AverageDown and Exit and 0 for Hold.
type Decision struct {
	Action      types.Action
	Qty         float64
	DrawdownPct float64
	Profit      float64
}

// DecisionEngine evaluates one tick for one instrument.
type DecisionEngine interface {
	Evaluate(t Tick) (Decision, error)
}

// DrawdownPct is the fall of price below runningMax, in percent of price.
func DrawdownPct(runningMax, price float64) float64 {
	return (runningMax - price) / price * 100
}

// ProfitFraction is the unrealized profit of pos as a fraction of its
// entry price, measured at its mark. It is 0 when there is no position or
// either price is unset.
func ProfitFraction(pos types.Position) float64 {
	if !pos.Open || pos.EntryPrice == 0 || pos.MarkPrice == 0 {
		return 0
	}
	return (pos.MarkPrice - pos.EntryPrice) / pos.EntryPrice
}

// DrawdownReversion buys a deep pullback from the running maximum, averages
// down while the position is under water and takes profit above a threshold.
type DrawdownReversion struct {
	params config.StrategyParameters
	opts   config.StrategyOptions
}

func NewDrawdownReversion(params config.StrategyParameters, opts config.StrategyOptions) (*DrawdownReversion, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &DrawdownReversion{params: params, opts: opts}, nil
}

func (d *DrawdownReversion) Parameters() config.StrategyParameters { return d.params }

// Evaluate applies the rules in fixed precedence: enter when flat and the
// drawdown exceeds the buy threshold, else average down below the re-buy
// loss, else exit above the profit target, else hold. Comparisons are strict.
func (d *DrawdownReversion) Evaluate(t Tick) (Decision, error) {
	if t.Price <= 0 || math.IsNaN(t.Price) {
		return Decision{}, fmt.Errorf("%s: %w: %v", t.Symbol, risk.ErrInvalidPrice, t.Price)
	}
	dec := Decision{
		Action:      types.Hold,
		DrawdownPct: DrawdownPct(t.RunningMax, t.Price),
		Profit:      ProfitFraction(t.Position),
	}
	p := d.params

	if !t.Position.Open {
		if dec.DrawdownPct > p.BuyAfterDecreasePercents {
			qty, err := risk.EntryQty(d.opts.Sizing, t.Cash, p.BuySize, t.Price)
			if err != nil {
				return Decision{}, err
			}
			dec.Action, dec.Qty = types.Enter, qty
		}
		return dec, nil
	}
	if t.Position.Size <= 0 {
		// long-only; a short book is left alone
		return dec, nil
	}

	switch {
	case dec.Profit < -p.ReBuyPercents/100:
		qty, err := risk.ReBuyQty(t.Position.Size, p.ReBuySize, t.Price)
		if err != nil {
			return Decision{}, err
		}
		dec.Action, dec.Qty = types.AverageDown, qty
	case dec.Profit > p.SellAfterProfitPercents/100 &&
		(!d.opts.ExitGuard || dec.DrawdownPct < p.BuyAfterDecreasePercents):
		dec.Action, dec.Qty = types.Exit, t.Position.Size
	}
	return dec, nil
}
