package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/evdnx/gosafe/config"
	"github.com/evdnx/gosafe/executor"
	"github.com/evdnx/gosafe/types"
)

/*
The reference scenario: prices 100, 120, 150, 100, 95, 140 with 30/40/20.
The maximum reaches 150 on the third bar, the 50 % drawdown at 100 enters,
95 is only a 5 % loss and 140 is exactly the 40 % target, which is not
strictly above it, so the position stays open.
*/
func TestOrchestrator_ReferenceScenario(t *testing.T) {
	orch, exec, _ := buildOrchestrator(t, config.DefaultOptions())
	feedCloses(t, orch, exec, "TEST", 100, 120, 150)
	if got := orch.RunningMax("TEST"); got != 150 {
		t.Fatalf("expected running max 150 after step 3, got %v", got)
	}

	feedCloses(t, orch, exec, "TEST", 100, 95, 140)
	orders := exec.Orders()
	if len(orders) != 1 {
		t.Fatalf("expected exactly one order, got %d (%+v)", len(orders), orders)
	}
	o := orders[0]
	if o.Side != types.Buy || o.Price != 100 || o.Qty != 2 {
		t.Fatalf("expected BUY 2 @ 100, got %+v", o)
	}
	pos := orch.Position("TEST")
	if !pos.Open || pos.Size != 2 || pos.EntryPrice != 100 {
		t.Fatalf("expected open 2 @ 100, got %+v", pos)
	}

	// One tick above the target closes the position.
	feedCloses(t, orch, exec, "TEST", 141)
	orders = exec.Orders()
	if len(orders) != 2 || orders[1].Side != types.Sell || orders[1].Qty != 2 {
		t.Fatalf("expected a closing SELL of 2, got %+v", orders)
	}
	if orch.Position("TEST").Open {
		t.Fatal("position should be flat after the exit")
	}
}

func TestOrchestrator_AverageDownDoublesPosition(t *testing.T) {
	orch, exec, log := buildOrchestrator(t, config.DefaultOptions())
	feedCloses(t, orch, exec, "TEST", 150, 100, 75)

	orders := exec.Orders()
	if len(orders) != 2 {
		t.Fatalf("expected entry and re-buy, got %+v", orders)
	}
	if orders[1].Side != types.Buy || orders[1].Qty != 2 || orders[1].Price != 75 {
		t.Fatalf("expected re-buy of 2 @ 75, got %+v", orders[1])
	}
	pos := orch.Position("TEST")
	if pos.Size != 4 || pos.EntryPrice != 87.5 {
		t.Fatalf("expected 4 @ 87.5, got %+v", pos)
	}
	if log.Count("order_event") != 2 {
		t.Fatalf("expected two order_event lines, got %d", log.Count("order_event"))
	}
	if action, _ := log.StringField("order_event", "action"); action != "average_down" {
		t.Fatalf("expected last order_event to be average_down, got %q", action)
	}
	if got, _ := log.FloatField("order_event", "entry_price"); got != 100 {
		t.Fatalf("expected entry_price 100 on the re-buy event, got %v", got)
	}
}

func TestOrchestrator_TrackerResetOnEntry(t *testing.T) {
	never, execA, _ := buildOrchestrator(t, config.DefaultOptions())
	feedCloses(t, never, execA, "TEST", 100, 120, 150, 100)
	if got := never.RunningMax("TEST"); got != 150 {
		t.Fatalf("reset-never must keep 150, got %v", got)
	}

	opts := config.DefaultOptions()
	opts.TrackerReset = config.ResetOnEntry
	onEntry, execB, _ := buildOrchestrator(t, opts)
	feedCloses(t, onEntry, execB, "TEST", 100, 120, 150, 100)
	if got := onEntry.RunningMax("TEST"); got != 100 {
		t.Fatalf("reset-on-entry must restart at the entry price, got %v", got)
	}
	feedCloses(t, onEntry, execB, "TEST", 110)
	if got := onEntry.RunningMax("TEST"); got != 110 {
		t.Fatalf("expected 110 after a new high, got %v", got)
	}
}

func TestOrchestrator_InvalidPriceSkipsTick(t *testing.T) {
	orch, exec, log := buildOrchestrator(t, config.DefaultOptions())
	feedCloses(t, orch, exec, "TEST", 150, 0, -2)
	if n := len(exec.Orders()); n != 0 {
		t.Fatalf("expected no orders on invalid prices, got %d", n)
	}
	if log.Count("tick_skipped") != 2 {
		t.Fatalf("expected two skipped ticks, got %d", log.Count("tick_skipped"))
	}
}

func TestOrchestrator_RejectedOrderContinues(t *testing.T) {
	orch, exec, log := buildOrchestrator(t, config.DefaultOptions())
	exec.FailWith("TEST", executor.ErrInsufficientCash)
	feedCloses(t, orch, exec, "TEST", 150, 100)
	if log.Count("order_rejected") != 1 {
		t.Fatalf("expected one rejected order, got %d", log.Count("order_rejected"))
	}
	if orch.Position("TEST").Open {
		t.Fatal("rejected entry must leave the position flat")
	}
}

func TestOrchestrator_ExecutorErrorAborts(t *testing.T) {
	orch, exec, _ := buildOrchestrator(t, config.DefaultOptions())
	boom := errors.New("broker down")
	exec.FailWith("TEST", boom)
	exec.Mark("TEST", 150)
	step := executor.Step{Time: time.Now(), Bars: map[string]types.PriceBar{"TEST": {Close: 150}}}
	if err := orch.Next(step); err != nil {
		t.Fatalf("no order expected on the first bar: %v", err)
	}
	exec.Mark("TEST", 100)
	step.Bars["TEST"] = types.PriceBar{Close: 100}
	if err := orch.Next(step); !errors.Is(err, boom) {
		t.Fatalf("expected broker error to propagate, got %v", err)
	}
}

func TestOrchestrator_OnlyWindowSymbols(t *testing.T) {
	orch, exec, _ := buildOrchestrator(t, config.DefaultOptions(), "AAA", "BBB")
	exec.Mark("AAA", 150)
	exec.Mark("ZZZ", 150)
	step := executor.Step{Bars: map[string]types.PriceBar{"AAA": {Close: 150}, "ZZZ": {Close: 150}}}
	if err := orch.Next(step); err != nil {
		t.Fatal(err)
	}
	exec.Mark("AAA", 100)
	exec.Mark("ZZZ", 100)
	step.Bars = map[string]types.PriceBar{"AAA": {Close: 100}, "ZZZ": {Close: 100}}
	if err := orch.Next(step); err != nil {
		t.Fatal(err)
	}
	orders := exec.Orders()
	if len(orders) != 1 || orders[0].Symbol != "AAA" {
		t.Fatalf("only AAA should trade, got %+v", orders)
	}
	if orch.RunningMax("BBB") != 0 || orch.RunningMax("ZZZ") != 0 {
		t.Fatal("symbols without bars or outside the window must not be tracked")
	}
}

func TestOrchestrator_WithPaperEngine(t *testing.T) {
	start := time.Date(2014, 6, 2, 0, 0, 0, 0, time.UTC)
	inst := types.Instrument{Symbol: "AAPL"}
	for i, c := range []float64{100, 120, 150, 100, 95, 160} {
		inst.Bars = append(inst.Bars, types.PriceBar{Time: start.AddDate(0, 0, i), Close: c})
	}
	eng := executor.NewEngine([]types.Instrument{inst}, 10_000, 0, nil)
	orch := NewOrchestrator([]string{"AAPL"}, eng.Executor(), buildEngine(t, config.DefaultOptions()), config.ResetNever, nil)
	sum, err := eng.Run(orch)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	// Buy 2 @ 100, sell 2 @ 160.
	if sum.FinalEquity != 10_120 {
		t.Fatalf("expected final equity 10120, got %v", sum.FinalEquity)
	}
	if fills := eng.Executor().Fills(); len(fills) != 2 {
		t.Fatalf("expected 2 fills, got %+v", fills)
	}
}
