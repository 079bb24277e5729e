package optimize

import (
	"errors"
	"testing"

	"github.com/evdnx/gosafe/config"
)

func TestGrid_CrossProduct(t *testing.T) {
	g := NewGrid(config.Grid{
		BuyAfterDecreasePercents: config.Axis{Values: []float64{10, 20}},
		SellAfterProfitPercents:  config.Axis{Values: []float64{30, 40, 50}},
	}, config.DefaultParameters())
	got, err := g.Candidates()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 6 || g.Size() != 6 {
		t.Fatalf("expected 6 candidates, got %d", len(got))
	}
	if got[0].BuyAfterDecreasePercents != 10 || got[0].SellAfterProfitPercents != 30 {
		t.Fatalf("unexpected first candidate %+v", got[0])
	}
	if got[1].SellAfterProfitPercents != 40 || got[3].BuyAfterDecreasePercents != 20 {
		t.Fatalf("last axis must vary fastest: %+v", got)
	}
	// Unswept parameters keep their defaults.
	if got[5].ReBuyPercents != 20 || got[5].BuySize != 0.02 || got[5].ReBuySize != 1 {
		t.Fatalf("expected defaults for pinned axes, got %+v", got[5])
	}
}

func TestGrid_DefaultConfigSize(t *testing.T) {
	cfg := config.Default()
	g := NewGrid(cfg.Search.Grid, cfg.Strategy)
	if g.Size() != 5*10*7*10*5 {
		t.Fatalf("unexpected default grid size %d", g.Size())
	}
}

func TestRandomSearch_Reproducible(t *testing.T) {
	cfg := config.Default()
	g := NewGrid(cfg.Search.Grid, cfg.Strategy)
	a, err := RandomSearch{Grid: g, MaxTries: 50, Seed: 0}.Candidates()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := RandomSearch{Grid: g, MaxTries: 50, Seed: 0}.Candidates()
	if len(a) != 50 || len(b) != 50 {
		t.Fatalf("expected 50 candidates, got %d/%d", len(a), len(b))
	}
	seen := map[config.StrategyParameters]bool{}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("candidate %d differs between runs with the same seed", i)
		}
		if seen[a[i]] {
			t.Fatalf("duplicate candidate %+v", a[i])
		}
		seen[a[i]] = true
	}
}

func TestRandomSearch_SmallGridReturnedWhole(t *testing.T) {
	g := NewGrid(config.Grid{ReBuyPercents: config.Range(5, 40, 5)}, config.DefaultParameters())
	got, err := RandomSearch{Grid: g, MaxTries: 500, Seed: 1}.Candidates()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 7 {
		t.Fatalf("expected the whole 7-point grid, got %d", len(got))
	}
}

func TestRandomSearch_RequiresMaxTries(t *testing.T) {
	_, err := RandomSearch{Grid: Grid{}, MaxTries: 0}.Candidates()
	if !errors.Is(err, config.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestNewSource(t *testing.T) {
	s := config.Default().Search
	src, err := NewSource(s, config.DefaultParameters())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(Grid); !ok {
		t.Fatalf("expected Grid for grid mode, got %T", src)
	}
	s.Mode = config.SearchRandom
	src, _ = NewSource(s, config.DefaultParameters())
	if _, ok := src.(RandomSearch); !ok {
		t.Fatalf("expected RandomSearch, got %T", src)
	}
	s.Mode = "bayes"
	if _, err := NewSource(s, config.DefaultParameters()); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
