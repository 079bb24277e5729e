package types

import "time"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type Order struct {
	Symbol string
	Side   Side
	Qty    float64
	Price  float64 // fill price; the paper engine fills at the current mark
	// meta
	Comment string
}

// PriceBar is one OHLCV row of a historical price file.
type PriceBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Instrument is a symbol together with its chronologically ordered bars.
// It is treated as immutable once loaded.
type Instrument struct {
	Symbol string
	Bars   []PriceBar
}

// Position is the executor's view of an open position. Size is signed
// (positive = long).
type Position struct {
	Symbol     string
	Size       float64
	EntryPrice float64
	MarkPrice  float64
	Open       bool
}

// Action is the outcome of evaluating one tick for one instrument.
type Action int

const (
	Hold Action = iota
	Enter
	AverageDown
	Exit
)

func (a Action) String() string {
	switch a {
	case Enter:
		return "enter"
	case AverageDown:
		return "average_down"
	case Exit:
		return "exit"
	default:
		return "hold"
	}
}
