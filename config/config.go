package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration is returned for any configuration that cannot
// produce a valid run.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// StrategyParameters holds the tunable thresholds of the drawdown
// reversion strategy. The field order is the order used in the result log.
type StrategyParameters struct {
	// Enter when price is this many percent below the running maximum.
	BuyAfterDecreasePercents float64 `yaml:"buy_after_decrease_percents"`
	// Exit when unrealized profit exceeds this many percent.
	SellAfterProfitPercents float64 `yaml:"sell_after_profit_percents"`
	// Average down when unrealized loss exceeds this many percent.
	ReBuyPercents float64 `yaml:"re_buy_percents"`
	// Entry size; a cash fraction or a literal unit count depending on SizingMode.
	BuySize float64 `yaml:"buy_size"`
	// Averaging size as a multiple of the open position.
	ReBuySize float64 `yaml:"re_buy_size"`
}

// DefaultParameters returns the historical defaults 30/40/20/0.02/1.0.
func DefaultParameters() StrategyParameters {
	return StrategyParameters{
		BuyAfterDecreasePercents: 30,
		SellAfterProfitPercents:  40,
		ReBuyPercents:            20,
		BuySize:                  0.02,
		ReBuySize:                1.0,
	}
}

// Values returns the parameters in result-log field order.
func (p StrategyParameters) Values() []float64 {
	return []float64{
		p.BuyAfterDecreasePercents,
		p.SellAfterProfitPercents,
		p.ReBuyPercents,
		p.BuySize,
		p.ReBuySize,
	}
}

// Validate checks that every parameter is a finite, non‑negative number.
func (p StrategyParameters) Validate() error {
	names := []string{
		"buy_after_decrease_percents",
		"sell_after_profit_percents",
		"re_buy_percents",
		"buy_size",
		"re_buy_size",
	}
	for i, v := range p.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s (%v) must be a finite value >= 0", ErrInvalidConfiguration, names[i], v)
		}
	}
	return nil
}

// SizingMode selects how entry quantities are computed.
type SizingMode string

const (
	// SizingCashFraction buys round(cash * buy_size / price) units.
	SizingCashFraction SizingMode = "cash_fraction"
	// SizingFixedUnits buys buy_size units as given.
	SizingFixedUnits SizingMode = "fixed_units"
)

// ResetMode selects the lifetime of the running maximum.
type ResetMode string

const (
	// ResetNever keeps one running maximum for the whole run.
	ResetNever ResetMode = "never"
	// ResetOnEntry restarts the running maximum from each entry fill.
	ResetOnEntry ResetMode = "on_entry"
)

// StrategyOptions are the behavioural switches that are not searched over.
type StrategyOptions struct {
	Sizing       SizingMode `yaml:"sizing"`
	TrackerReset ResetMode  `yaml:"tracker_reset"`
	// ExitGuard suppresses an exit while the price is still in buy-trigger
	// territory (drawdown >= buy_after_decrease_percents).
	ExitGuard bool `yaml:"exit_guard"`
}

// DefaultOptions matches the multi-instrument search harness: cash sizing,
// one maximum for the whole series, exit guard on.
func DefaultOptions() StrategyOptions {
	return StrategyOptions{
		Sizing:       SizingCashFraction,
		TrackerReset: ResetNever,
		ExitGuard:    true,
	}
}

func (o StrategyOptions) Validate() error {
	switch o.Sizing {
	case SizingCashFraction, SizingFixedUnits:
	default:
		return fmt.Errorf("%w: unknown sizing mode %q", ErrInvalidConfiguration, o.Sizing)
	}
	switch o.TrackerReset {
	case ResetNever, ResetOnEntry:
	default:
		return fmt.Errorf("%w: unknown tracker reset mode %q", ErrInvalidConfiguration, o.TrackerReset)
	}
	return nil
}

// Axis describes the candidate values of one searched parameter. Values
// wins when set; otherwise Step > 0 yields Start, Start+Step, ... < Stop;
// otherwise Count > 0 yields Count evenly spaced values from Start to Stop
// inclusive.
type Axis struct {
	Values []float64 `yaml:"values,omitempty"`
	Start  float64   `yaml:"start,omitempty"`
	Stop   float64   `yaml:"stop,omitempty"`
	Step   float64   `yaml:"step,omitempty"`
	Count  int       `yaml:"count,omitempty"`
}

// Range returns an Axis like range(start, stop, step).
func Range(start, stop, step float64) Axis { return Axis{Start: start, Stop: stop, Step: step} }

// Linspace returns an Axis of count values from start to stop inclusive.
func Linspace(start, stop float64, count int) Axis {
	return Axis{Start: start, Stop: stop, Count: count}
}

// Expand materializes the axis. An empty axis yields nil.
func (a Axis) Expand() []float64 {
	if len(a.Values) > 0 {
		out := make([]float64, len(a.Values))
		copy(out, a.Values)
		return out
	}
	if a.Step > 0 {
		var out []float64
		for i := 0; ; i++ {
			v := a.Start + float64(i)*a.Step
			if v >= a.Stop {
				break
			}
			out = append(out, v)
		}
		return out
	}
	if a.Count == 1 {
		return []float64{a.Start}
	}
	if a.Count > 1 {
		out := make([]float64, a.Count)
		step := (a.Stop - a.Start) / float64(a.Count-1)
		for i := range out {
			out[i] = a.Start + float64(i)*step
		}
		out[a.Count-1] = a.Stop
		return out
	}
	return nil
}
