package strategy

import (
	"errors"
	"fmt"

	"github.com/evdnx/gosafe/config"
	"github.com/evdnx/gosafe/executor"
	"github.com/evdnx/gosafe/logger"
	"github.com/evdnx/gosafe/metrics"
	"github.com/evdnx/gosafe/risk"
	"github.com/evdnx/gosafe/types"
)

// Orchestrator runs a DecisionEngine over every instrument of a window at
// each engine step. It owns the per-symbol running maxima and the last
// position snapshot read from the executor; both live for one run only.
type Orchestrator struct {
	symbols   []string
	exec      executor.Executor
	engine    DecisionEngine
	reset     config.ResetMode
	trackers  map[string]*RunningMax
	positions map[string]types.Position
	log       logger.Logger
}

// NewOrchestrator builds fresh tracker and position state for symbols.
// Symbols are evaluated in the given order at every step.
func NewOrchestrator(symbols []string, exec executor.Executor, engine DecisionEngine,
	reset config.ResetMode, log logger.Logger) *Orchestrator {

	if log == nil {
		log = logger.NewNop()
	}
	o := &Orchestrator{
		symbols:   append([]string(nil), symbols...),
		exec:      exec,
		engine:    engine,
		reset:     reset,
		trackers:  make(map[string]*RunningMax, len(symbols)),
		positions: make(map[string]types.Position, len(symbols)),
		log:       log,
	}
	for _, sym := range symbols {
		o.trackers[sym] = &RunningMax{}
		o.positions[sym] = types.Position{Symbol: sym}
	}
	return o
}

// RunningMax returns the current maximum tracked for symbol.
func (o *Orchestrator) RunningMax(symbol string) float64 {
	if t, ok := o.trackers[symbol]; ok {
		return t.Value()
	}
	return 0
}

// Position returns the last position snapshot read for symbol.
func (o *Orchestrator) Position(symbol string) types.Position {
	return o.positions[symbol]
}

func (o *Orchestrator) refresh(symbol string) types.Position {
	pos, ok := o.exec.Position(symbol)
	if !ok {
		pos = types.Position{Symbol: symbol}
	}
	o.positions[symbol] = pos
	return pos
}

// Next evaluates every instrument that has a bar at this step.
func (o *Orchestrator) Next(step executor.Step) error {
	for _, sym := range o.symbols {
		bar, ok := step.Bars[sym]
		if !ok {
			continue
		}
		if err := o.evaluate(sym, bar.Close); err != nil {
			return err
		}
	}
	open := 0
	for _, p := range o.positions {
		if p.Open {
			open++
		}
	}
	metrics.PositionsOpen.Set(float64(open))
	return nil
}

func (o *Orchestrator) evaluate(sym string, price float64) error {
	tracker := o.trackers[sym]
	runningMax := tracker.Observe(price)
	pos := o.refresh(sym)

	dec, err := o.engine.Evaluate(Tick{
		Symbol:     sym,
		Price:      price,
		RunningMax: runningMax,
		Position:   pos,
		Cash:       o.exec.Cash(),
	})
	if errors.Is(err, risk.ErrInvalidPrice) {
		o.log.Warn("tick_skipped", logger.String("symbol", sym), logger.Err(err))
		return nil
	}
	if err != nil {
		return err
	}
	if dec.Action == types.Hold {
		return nil
	}
	if dec.Qty <= 0 {
		o.log.Warn("order_skipped",
			logger.String("symbol", sym),
			logger.String("action", dec.Action.String()),
			logger.Float64("price", price),
		)
		return nil
	}

	if dec.Action == types.Exit {
		err = o.exec.Sell(sym, dec.Qty)
	} else {
		err = o.exec.Buy(sym, dec.Qty)
	}
	if errors.Is(err, executor.ErrInsufficientCash) {
		metrics.OrdersRejected.WithLabelValues(dec.Action.String()).Inc()
		o.log.Warn("order_rejected",
			logger.String("symbol", sym),
			logger.String("action", dec.Action.String()),
			logger.Float64("qty", dec.Qty),
			logger.Err(err),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", dec.Action, sym, err)
	}
	metrics.OrdersSubmitted.WithLabelValues(dec.Action.String()).Inc()

	after := o.refresh(sym)
	if dec.Action == types.Enter && o.reset == config.ResetOnEntry {
		tracker.Reset()
		tracker.Observe(price)
	}
	o.log.Info("order_event",
		logger.String("symbol", sym),
		logger.String("action", dec.Action.String()),
		logger.Float64("qty", dec.Qty),
		logger.Float64("size", after.Size),
		logger.Float64("price", price),
		logger.Float64("entry_price", pos.EntryPrice),
		logger.Float64("profit", dec.Profit),
		logger.Float64("running_max", runningMax),
	)
	return nil
}
