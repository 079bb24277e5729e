package executor

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/evdnx/gosafe/logger"
	"github.com/evdnx/gosafe/metrics"
	"github.com/evdnx/gosafe/types"
)

// tradingDaysPerYear annualizes the average per-step log return.
const tradingDaysPerYear = 252

// Step is one point of the merged timeline. Bars holds the latest bar of
// every instrument that has started trading by Time; an instrument without
// a fresh bar at Time carries its previous bar forward.
type Step struct {
	Index int
	Time  time.Time
	Bars  map[string]types.PriceBar
}

// Strategy is driven by the engine once per step.
type Strategy interface {
	Next(step Step) error
}

// Summary is the terminal report of a run.
type Summary struct {
	StartCash   float64
	FinalEquity float64
	FinalCash   float64
	// TotalReturn is ln(FinalEquity / StartCash).
	TotalReturn float64
	// AverageReturn is TotalReturn per step.
	AverageReturn float64
	// NormalizedReturn is AverageReturn annualized over 252 steps, in percent.
	NormalizedReturn float64
	Steps            int
}

// Engine replays a fixed set of instruments through a strategy against a
// fresh PaperExecutor. An Engine runs once.
type Engine struct {
	exec      *PaperExecutor
	feeds     []types.Instrument
	startCash float64
	log       logger.Logger
	equity    []float64
	ran       bool
}

func NewEngine(feeds []types.Instrument, startCash, commission float64, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	exec := NewPaperExecutor(startCash, log)
	exec.SetCommission(commission)
	return &Engine{
		exec:      exec,
		feeds:     feeds,
		startCash: startCash,
		log:       log,
	}
}

// Executor exposes the engine's broker so a strategy can be wired to it.
func (e *Engine) Executor() *PaperExecutor { return e.exec }

// EquityCurve returns the equity recorded after every step.
func (e *Engine) EquityCurve() []float64 {
	out := make([]float64, len(e.equity))
	copy(out, e.equity)
	return out
}

func timeline(feeds []types.Instrument) []time.Time {
	seen := make(map[int64]time.Time)
	for _, f := range feeds {
		for _, b := range f.Bars {
			seen[b.Time.UnixNano()] = b.Time
		}
	}
	out := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Run drives strat through every step and returns the terminal summary.
// The first strategy error aborts the run.
func (e *Engine) Run(strat Strategy) (Summary, error) {
	if e.ran {
		return Summary{}, errors.New("engine: already ran")
	}
	e.ran = true

	cursor := make([]int, len(e.feeds))
	current := make(map[string]types.PriceBar, len(e.feeds))
	for i, ts := range timeline(e.feeds) {
		for fi, f := range e.feeds {
			for cursor[fi] < len(f.Bars) && !f.Bars[cursor[fi]].Time.After(ts) {
				bar := f.Bars[cursor[fi]]
				current[f.Symbol] = bar
				e.exec.Mark(f.Symbol, bar.Close)
				cursor[fi]++
			}
		}
		step := Step{Index: i, Time: ts, Bars: make(map[string]types.PriceBar, len(current))}
		for sym, bar := range current {
			step.Bars[sym] = bar
		}
		if err := strat.Next(step); err != nil {
			return Summary{}, fmt.Errorf("step %d (%s): %w", i, ts.Format("2006-01-02"), err)
		}
		eq := e.exec.Equity()
		e.equity = append(e.equity, eq)
		metrics.EquityGauge.Set(eq)
	}
	s := e.summary()
	e.log.Info("run_finished",
		logger.Int("steps", s.Steps),
		logger.Float64("final_equity", s.FinalEquity),
		logger.Float64("final_cash", s.FinalCash),
		logger.Float64("total_return", s.TotalReturn),
	)
	return s, nil
}

func (e *Engine) summary() Summary {
	s := Summary{
		StartCash:   e.startCash,
		FinalEquity: e.startCash,
		FinalCash:   e.exec.Cash(),
		Steps:       len(e.equity),
	}
	if s.Steps == 0 {
		return s
	}
	s.FinalEquity = e.equity[len(e.equity)-1]
	if s.FinalEquity <= 0 || e.startCash <= 0 {
		s.TotalReturn = math.Inf(-1)
		s.AverageReturn = math.Inf(-1)
		s.NormalizedReturn = -100
		return s
	}
	s.TotalReturn = math.Log(s.FinalEquity / e.startCash)
	s.AverageReturn = s.TotalReturn / float64(s.Steps)
	s.NormalizedReturn = (math.Exp(s.AverageReturn*tradingDaysPerYear) - 1) * 100
	return s
}
