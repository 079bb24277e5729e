package strategy

import (
	"errors"
	"testing"

	"github.com/evdnx/gosafe/config"
	"github.com/evdnx/gosafe/risk"
	"github.com/evdnx/gosafe/types"
)

func long(size, entry, mark float64) types.Position {
	return types.Position{Symbol: "TEST", Size: size, EntryPrice: entry, MarkPrice: mark, Open: true}
}

func TestDrawdownReversion_Precedence(t *testing.T) {
	eng := buildEngine(t, config.DefaultOptions())
	cases := []struct {
		name string
		tick Tick
		want types.Action
		qty  float64
	}{
		{"flat_shallow_dip", Tick{Price: 120, RunningMax: 150, Cash: 10_000}, types.Hold, 0},
		{"flat_deep_dip", Tick{Price: 100, RunningMax: 150, Cash: 10_000}, types.Enter, 2},
		{"flat_exact_threshold", Tick{Price: 100, RunningMax: 130, Cash: 10_000}, types.Hold, 0},
		{"long_small_loss", Tick{Price: 95, RunningMax: 150, Position: long(2, 100, 95)}, types.Hold, 0},
		{"long_deep_loss", Tick{Price: 75, RunningMax: 150, Position: long(2, 100, 75)}, types.AverageDown, 2},
		{"long_at_target", Tick{Price: 140, RunningMax: 150, Position: long(2, 100, 140)}, types.Hold, 0},
		{"long_above_target", Tick{Price: 141, RunningMax: 150, Position: long(2, 100, 141)}, types.Exit, 2},
		{"long_deep_dip_is_not_entry", Tick{Price: 99, RunningMax: 150, Position: long(2, 100, 99)}, types.Hold, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.tick.Symbol = "TEST"
			for i := 0; i < 3; i++ { // same tuple, same decision
				dec, err := eng.Evaluate(tc.tick)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if dec.Action != tc.want || dec.Qty != tc.qty {
					t.Fatalf("got %s qty %v, want %s qty %v", dec.Action, dec.Qty, tc.want, tc.qty)
				}
			}
		})
	}
}

func TestDrawdownReversion_ExitGuard(t *testing.T) {
	// Profit of 50 % while price sits 100 % below the running maximum.
	tick := Tick{Symbol: "TEST", Price: 150, RunningMax: 300, Position: long(4, 100, 150)}

	guarded := buildEngine(t, config.DefaultOptions())
	dec, err := guarded.Evaluate(tick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Action != types.Hold {
		t.Fatalf("guard must block the exit, got %s", dec.Action)
	}

	opts := config.DefaultOptions()
	opts.ExitGuard = false
	unguarded := buildEngine(t, opts)
	dec, err = unguarded.Evaluate(tick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Action != types.Exit || dec.Qty != 4 {
		t.Fatalf("expected full exit without guard, got %s qty %v", dec.Action, dec.Qty)
	}
}

func TestDrawdownReversion_FixedUnits(t *testing.T) {
	opts := config.DefaultOptions()
	opts.Sizing = config.SizingFixedUnits
	params := buildParams()
	params.BuySize = 5
	eng, err := NewDrawdownReversion(params, opts)
	if err != nil {
		t.Fatalf("NewDrawdownReversion failed: %v", err)
	}
	dec, err := eng.Evaluate(Tick{Symbol: "TEST", Price: 10, RunningMax: 20, Cash: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Action != types.Enter || dec.Qty != 5 {
		t.Fatalf("expected Enter 5 units, got %s %v", dec.Action, dec.Qty)
	}
}

func TestDrawdownReversion_InvalidPrice(t *testing.T) {
	eng := buildEngine(t, config.DefaultOptions())
	for _, price := range []float64{0, -3} {
		_, err := eng.Evaluate(Tick{Symbol: "TEST", Price: price, RunningMax: 150})
		if !errors.Is(err, risk.ErrInvalidPrice) {
			t.Fatalf("price %v: expected ErrInvalidPrice, got %v", price, err)
		}
	}
}

func TestDrawdownReversion_RejectsBadParameters(t *testing.T) {
	params := buildParams()
	params.SellAfterProfitPercents = -1
	if _, err := NewDrawdownReversion(params, config.DefaultOptions()); !errors.Is(err, config.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestProfitFractionGuards(t *testing.T) {
	cases := []types.Position{
		{},
		{Open: true, Size: 1, EntryPrice: 0, MarkPrice: 10},
		{Open: true, Size: 1, EntryPrice: 10, MarkPrice: 0},
	}
	for _, pos := range cases {
		if got := ProfitFraction(pos); got != 0 {
			t.Fatalf("expected 0 for %+v, got %v", pos, got)
		}
	}
	if got := ProfitFraction(long(1, 80, 100)); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}
