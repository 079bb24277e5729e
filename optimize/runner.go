package optimize

import (
	"fmt"
	"strings"
	"time"

	"github.com/evdnx/gosafe/config"
	"github.com/evdnx/gosafe/executor"
	"github.com/evdnx/gosafe/logger"
	"github.com/evdnx/gosafe/strategy"
	"github.com/evdnx/gosafe/types"
	"github.com/evdnx/gosafe/walkforward"
)

// Runner executes one full backtest of params over a window.
type Runner interface {
	Run(params config.StrategyParameters, w walkforward.Window) (executor.Summary, error)
}

// Loader returns one instrument's bars within [from, to].
type Loader interface {
	Load(symbol string, from, to time.Time) (types.Instrument, error)
}

// BacktestRunner runs the drawdown reversion strategy on a fresh paper
// engine per call. Price data is loaded once per window.
type BacktestRunner struct {
	loader Loader
	broker config.Broker
	opts   config.StrategyOptions
	log    logger.Logger

	cachedKey   string
	cachedFeeds []types.Instrument
}

// NewBacktestRunner wires a runner. Pass a nop logger to keep per-order
// logging out of large sweeps.
func NewBacktestRunner(loader Loader, broker config.Broker, opts config.StrategyOptions, log logger.Logger) *BacktestRunner {
	if log == nil {
		log = logger.NewNop()
	}
	return &BacktestRunner{loader: loader, broker: broker, opts: opts, log: log}
}

func windowKey(w walkforward.Window) string {
	return w.Start.Format(time.RFC3339) + "|" + w.End.Format(time.RFC3339) + "|" + strings.Join(w.Symbols, ",")
}

func (r *BacktestRunner) feeds(w walkforward.Window) ([]types.Instrument, error) {
	key := windowKey(w)
	if key == r.cachedKey && r.cachedFeeds != nil {
		return r.cachedFeeds, nil
	}
	feeds := make([]types.Instrument, 0, len(w.Symbols))
	for _, sym := range w.Symbols {
		inst, err := r.loader.Load(sym, w.Start, w.End)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", sym, err)
		}
		feeds = append(feeds, inst)
	}
	r.cachedKey, r.cachedFeeds = key, feeds
	return feeds, nil
}

func (r *BacktestRunner) Run(params config.StrategyParameters, w walkforward.Window) (executor.Summary, error) {
	feeds, err := r.feeds(w)
	if err != nil {
		return executor.Summary{}, err
	}
	decision, err := strategy.NewDrawdownReversion(params, r.opts)
	if err != nil {
		return executor.Summary{}, err
	}
	eng := executor.NewEngine(feeds, r.broker.StartCash, r.broker.Commission, r.log)
	orch := strategy.NewOrchestrator(w.Symbols, eng.Executor(), decision, r.opts.TrackerReset, r.log)
	return eng.Run(orch)
}
