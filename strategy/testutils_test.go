package strategy

import (
	"testing"
	"time"

	"github.com/evdnx/gosafe/config"
	"github.com/evdnx/gosafe/executor"
	"github.com/evdnx/gosafe/testutils"
	"github.com/evdnx/gosafe/types"
)

// buildParams returns the thresholds used throughout the tests:
// enter on a 30 % drawdown, exit above 40 % profit, average down below
// -20 %, spend 2 % of cash per entry and double the position on a re-buy.
func buildParams() config.StrategyParameters {
	return config.StrategyParameters{
		BuyAfterDecreasePercents: 30,
		SellAfterProfitPercents:  40,
		ReBuyPercents:            20,
		BuySize:                  0.02,
		ReBuySize:                1.0,
	}
}

func buildEngine(t *testing.T, opts config.StrategyOptions) *DrawdownReversion {
	t.Helper()
	eng, err := NewDrawdownReversion(buildParams(), opts)
	if err != nil {
		t.Fatalf("NewDrawdownReversion failed: %v", err)
	}
	return eng
}

// buildOrchestrator wires a single-symbol orchestrator to a mock executor
// with $10 k of cash.
func buildOrchestrator(t *testing.T, opts config.StrategyOptions, symbols ...string) (*Orchestrator, *testutils.MockExecutor, *testutils.MockLogger) {
	t.Helper()
	if len(symbols) == 0 {
		symbols = []string{"TEST"}
	}
	mockExec := testutils.NewMockExecutor(10_000)
	mockLog := testutils.NewMockLogger()
	orch := NewOrchestrator(symbols, mockExec, buildEngine(t, opts), opts.TrackerReset, mockLog)
	return orch, mockExec, mockLog
}

// feedCloses marks the mock executor and sends one step per close.
func feedCloses(t *testing.T, orch *Orchestrator, exec *testutils.MockExecutor, symbol string, closes ...float64) {
	t.Helper()
	start := time.Date(2012, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		exec.Mark(symbol, c)
		step := executor.Step{
			Index: i,
			Time:  start.AddDate(0, 0, i),
			Bars:  map[string]types.PriceBar{symbol: {Close: c}},
		}
		if err := orch.Next(step); err != nil {
			t.Fatalf("step %d (close %v) failed: %v", i, c, err)
		}
	}
}
