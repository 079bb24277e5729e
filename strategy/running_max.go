package strategy

// RunningMax tracks the highest price observed since the last reset. The
// zero value is ready to use and starts at 0.
type RunningMax struct {
	max float64
}

// Observe folds price into the maximum and returns the updated value.
func (r *RunningMax) Observe(price float64) float64 {
	if price > r.max {
		r.max = price
	}
	return r.max
}

// Value returns the current maximum without observing a price.
func (r *RunningMax) Value() float64 { return r.max }

// Reset restarts the tracker from 0.
func (r *RunningMax) Reset() { r.max = 0 }
