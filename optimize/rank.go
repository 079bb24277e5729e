package optimize

import (
	"math"
	"sort"

	"github.com/evdnx/gosafe/config"
	"github.com/evdnx/gosafe/executor"
)

// SearchResult is the outcome of one candidate run.
type SearchResult struct {
	Parameters     config.StrategyParameters
	TerminalReturn float64
	TerminalEquity float64
	// RankScore is the 1-based position of the result in the whole sweep,
	// best first. It is 0 until the result has been ranked.
	RankScore float64
	Summary   executor.Summary
}

func newResult(p config.StrategyParameters, s executor.Summary) SearchResult {
	return SearchResult{
		Parameters:     p,
		TerminalReturn: s.TotalReturn,
		TerminalEquity: s.FinalEquity,
		Summary:        s,
	}
}

func lessReturn(a, b float64) bool {
	if math.IsNaN(a) {
		return !math.IsNaN(b)
	}
	return a < b
}

// Rank sorts a copy of results ascending by terminal return and keeps the
// last n, so the best result is the final element. Ties keep sweep order.
func Rank(results []SearchResult, n int) []SearchResult {
	sorted := make([]SearchResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessReturn(sorted[i].TerminalReturn, sorted[j].TerminalReturn)
	})
	for i := range sorted {
		sorted[i].RankScore = float64(len(sorted) - i)
	}
	if n >= 0 && n < len(sorted) {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}
