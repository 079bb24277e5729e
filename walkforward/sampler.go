// Package walkforward draws random contiguous evaluation windows and
// instrument subsets from a historical universe.
package walkforward

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/evdnx/gosafe/config"
)

const day = 24 * time.Hour

// Window is one sampled evaluation range with its instrument subset.
// End - Start equals the configured trade interval.
type Window struct {
	Start   time.Time
	End     time.Time
	Symbols []string
}

// Sampler draws Windows reproducibly: the same Seed and universe always
// yield the same sequence of windows.
type Sampler struct {
	UniverseStart   time.Time
	UniverseEnd     time.Time
	TradeInterval   time.Duration
	InstrumentCount int
	Seed            int64
}

// NewSampler builds a Sampler from the window section of the config.
func NewSampler(w config.Window) (*Sampler, error) {
	from, to, err := w.Bounds()
	if err != nil {
		return nil, err
	}
	return &Sampler{
		UniverseStart:   from,
		UniverseEnd:     to,
		TradeInterval:   w.TradeInterval(),
		InstrumentCount: w.InstrumentCount,
		Seed:            w.Seed,
	}, nil
}

// SlackDays is the number of whole days the window start can move.
func (s *Sampler) SlackDays() int {
	return int((s.UniverseEnd.Sub(s.UniverseStart) - s.TradeInterval) / day)
}

// Validate reports configurations that can never produce a window.
func (s *Sampler) Validate(universeSize int) error {
	if s.TradeInterval <= 0 {
		return fmt.Errorf("%w: trade interval must be positive", config.ErrInvalidConfiguration)
	}
	if s.UniverseEnd.Sub(s.UniverseStart) < s.TradeInterval {
		return fmt.Errorf("%w: trade interval %s exceeds the history %s..%s",
			config.ErrInvalidConfiguration, s.TradeInterval,
			s.UniverseStart.Format(config.DateLayout), s.UniverseEnd.Format(config.DateLayout))
	}
	if s.InstrumentCount <= 0 {
		return fmt.Errorf("%w: instrument count must be positive", config.ErrInvalidConfiguration)
	}
	if s.InstrumentCount > universeSize {
		return fmt.Errorf("%w: need %d instruments, universe has %d",
			config.ErrInvalidConfiguration, s.InstrumentCount, universeSize)
	}
	return nil
}

// Sample draws the window offset and then InstrumentCount distinct symbols.
// The universe is sorted first, so its input order does not matter.
func (s *Sampler) Sample(universe []string) (Window, error) {
	if err := s.Validate(len(universe)); err != nil {
		return Window{}, err
	}
	rng := rand.New(rand.NewSource(s.Seed))

	offset := rng.Intn(s.SlackDays() + 1)
	start := s.UniverseStart.Add(time.Duration(offset) * day)

	sorted := append([]string(nil), universe...)
	sort.Strings(sorted)
	sorted = dedupe(sorted)
	if s.InstrumentCount > len(sorted) {
		return Window{}, fmt.Errorf("%w: need %d distinct instruments, universe has %d",
			config.ErrInvalidConfiguration, s.InstrumentCount, len(sorted))
	}
	perm := rng.Perm(len(sorted))
	symbols := make([]string, s.InstrumentCount)
	for i := range symbols {
		symbols[i] = sorted[perm[i]]
	}
	return Window{Start: start, End: start.Add(s.TradeInterval), Symbols: symbols}, nil
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
