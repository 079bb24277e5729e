package optimize

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/evdnx/gosafe/config"
)

// ErrNoCandidates is returned when a source yields nothing to evaluate.
var ErrNoCandidates = errors.New("no parameter candidates")

// CandidateSource produces the parameter sets of one sweep.
type CandidateSource interface {
	Candidates() ([]config.StrategyParameters, error)
}

// Grid is the cross product of one value list per parameter, in
// StrategyParameters field order. An empty list pins that parameter to
// the Base value.
type Grid struct {
	Axes [5][]float64
	Base config.StrategyParameters
}

// NewGrid expands the configured axes.
func NewGrid(g config.Grid, base config.StrategyParameters) Grid {
	return Grid{
		Axes: [5][]float64{
			g.BuyAfterDecreasePercents.Expand(),
			g.SellAfterProfitPercents.Expand(),
			g.ReBuyPercents.Expand(),
			g.BuySize.Expand(),
			g.ReBuySize.Expand(),
		},
		Base: base,
	}
}

func (g Grid) axis(i int) []float64 {
	if len(g.Axes[i]) == 0 {
		return []float64{g.Base.Values()[i]}
	}
	return g.Axes[i]
}

// Size is the number of grid points.
func (g Grid) Size() int64 {
	n := int64(1)
	for i := range g.Axes {
		n *= int64(len(g.axis(i)))
	}
	return n
}

// At decodes grid point i; the last axis varies fastest.
func (g Grid) At(i int64) config.StrategyParameters {
	var v [5]float64
	for a := len(g.Axes) - 1; a >= 0; a-- {
		ax := g.axis(a)
		n := int64(len(ax))
		v[a] = ax[i%n]
		i /= n
	}
	return config.StrategyParameters{
		BuyAfterDecreasePercents: v[0],
		SellAfterProfitPercents:  v[1],
		ReBuyPercents:            v[2],
		BuySize:                  v[3],
		ReBuySize:                v[4],
	}
}

func (g Grid) Candidates() ([]config.StrategyParameters, error) {
	n := g.Size()
	out := make([]config.StrategyParameters, 0, n)
	for i := int64(0); i < n; i++ {
		out = append(out, g.At(i))
	}
	return out, nil
}

// RandomSearch samples up to MaxTries distinct grid points with a fixed
// seed. A grid no larger than MaxTries is returned whole.
type RandomSearch struct {
	Grid     Grid
	MaxTries int
	Seed     int64
}

func (r RandomSearch) Candidates() ([]config.StrategyParameters, error) {
	if r.MaxTries <= 0 {
		return nil, fmt.Errorf("%w: max_tries must be positive", config.ErrInvalidConfiguration)
	}
	total := r.Grid.Size()
	if total <= int64(r.MaxTries) {
		return r.Grid.Candidates()
	}
	rng := rand.New(rand.NewSource(r.Seed))
	picked := make(map[int64]struct{}, r.MaxTries)
	idx := make([]int64, 0, r.MaxTries)
	for len(idx) < r.MaxTries {
		i := rng.Int63n(total)
		if _, dup := picked[i]; dup {
			continue
		}
		picked[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool { return idx[a] < idx[b] })
	out := make([]config.StrategyParameters, len(idx))
	for k, i := range idx {
		out[k] = r.Grid.At(i)
	}
	return out, nil
}

// NewSource builds the candidate source selected by the search config.
func NewSource(s config.Search, base config.StrategyParameters) (CandidateSource, error) {
	grid := NewGrid(s.Grid, base)
	switch s.Mode {
	case config.SearchGrid, "":
		return grid, nil
	case config.SearchRandom:
		return RandomSearch{Grid: grid, MaxTries: s.MaxTries, Seed: s.Seed}, nil
	default:
		return nil, fmt.Errorf("%w: unknown search mode %q", config.ErrInvalidConfiguration, s.Mode)
	}
}
