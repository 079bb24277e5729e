// Package optimize sweeps strategy parameters over a walk-forward window,
// ranks the runs by terminal return and promotes the best one.
package optimize

import (
	"fmt"
	"time"

	"github.com/evdnx/gosafe/config"
	"github.com/evdnx/gosafe/executor"
	"github.com/evdnx/gosafe/logger"
	"github.com/evdnx/gosafe/metrics"
	"github.com/evdnx/gosafe/walkforward"
	"github.com/google/uuid"
)

// Report is everything one sweep produced.
type Report struct {
	RunID        string
	Window       walkforward.Window
	Evaluated    int
	Top          []SearchResult // ascending, best last
	Best         SearchResult
	Confirmation executor.Summary
	Duration     time.Duration
}

// Optimizer runs every candidate sequentially; the first failing run
// aborts the sweep.
type Optimizer struct {
	runner  Runner
	confirm Runner
	source  CandidateSource
	topN    int
	results *ResultLog
	log     logger.Logger
}

// NewOptimizer wires a sweep. results may be nil to skip persistence.
func NewOptimizer(runner Runner, source CandidateSource, topN int, results *ResultLog, log logger.Logger) (*Optimizer, error) {
	if runner == nil || source == nil {
		return nil, fmt.Errorf("%w: optimizer needs a runner and a candidate source", config.ErrInvalidConfiguration)
	}
	if topN <= 0 {
		return nil, fmt.Errorf("%w: top_n must be positive", config.ErrInvalidConfiguration)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Optimizer{runner: runner, confirm: runner, source: source, topN: topN, results: results, log: log}, nil
}

// WithConfirmRunner uses r for the confirmation replay, e.g. a runner with
// per-order logging enabled.
func (o *Optimizer) WithConfirmRunner(r Runner) *Optimizer {
	if r != nil {
		o.confirm = r
	}
	return o
}

func paramFields(p config.StrategyParameters) []logger.Field {
	return []logger.Field{
		logger.Float64("buy_after_decrease_percents", p.BuyAfterDecreasePercents),
		logger.Float64("sell_after_profit_percents", p.SellAfterProfitPercents),
		logger.Float64("re_buy_percents", p.ReBuyPercents),
		logger.Float64("buy_size", p.BuySize),
		logger.Float64("re_buy_size", p.ReBuySize),
	}
}

// Search evaluates every candidate over w, ranks the results, persists the
// best configuration and replays it over the same window.
func (o *Optimizer) Search(w walkforward.Window) (*Report, error) {
	started := time.Now()
	rep := &Report{RunID: uuid.NewString(), Window: w}
	log := o.log.With(logger.String("run_id", rep.RunID))

	candidates, err := o.source.Candidates()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	log.Info("search_started",
		logger.Int("count_of_iterations", len(candidates)),
		logger.String("from", w.Start.Format(config.DateLayout)),
		logger.String("to", w.End.Format(config.DateLayout)),
		logger.Strings("symbols", w.Symbols),
	)

	results := make([]SearchResult, 0, len(candidates))
	for i, p := range candidates {
		sum, err := o.runner.Run(p, w)
		if err != nil {
			return nil, fmt.Errorf("candidate %d/%d %+v: %w", i+1, len(candidates), p, err)
		}
		metrics.CandidateRuns.WithLabelValues("search").Inc()
		results = append(results, newResult(p, sum))
	}
	rep.Evaluated = len(results)

	rep.Top = Rank(results, o.topN)
	for _, r := range rep.Top {
		fields := []logger.Field{
			logger.Float64("rank", r.RankScore),
			logger.Float64("final_equity", r.TerminalEquity),
			logger.Float64("final_cash", r.Summary.FinalCash),
			logger.Float64("total_return", r.TerminalReturn),
			logger.Float64("average_return", r.Summary.AverageReturn),
			logger.Float64("normalized_return", r.Summary.NormalizedReturn),
		}
		log.Info("top_candidate", append(fields, paramFields(r.Parameters)...)...)
	}
	rep.Best = rep.Top[len(rep.Top)-1]
	metrics.BestReturn.Set(rep.Best.TerminalReturn)

	if o.results != nil {
		if err := o.results.Append(w.Symbols, rep.Best.Parameters); err != nil {
			return nil, err
		}
		log.Info("result_persisted", logger.String("path", o.results.Path()))
	}
	log.Info("analyze_finished", logger.String("duration", time.Since(started).String()))

	rep.Confirmation, err = o.confirm.Run(rep.Best.Parameters, w)
	if err != nil {
		return nil, fmt.Errorf("confirmation run: %w", err)
	}
	metrics.CandidateRuns.WithLabelValues("confirm").Inc()
	log.Info("confirmation_finished", append([]logger.Field{
		logger.Float64("final_equity", rep.Confirmation.FinalEquity),
		logger.Float64("total_return", rep.Confirmation.TotalReturn),
	}, paramFields(rep.Best.Parameters)...)...)

	rep.Duration = time.Since(started)
	return rep, nil
}
