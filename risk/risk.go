package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/evdnx/gosafe/config"
)

// ErrInvalidPrice is returned when an order would be sized against a
// non-positive price.
var ErrInvalidPrice = errors.New("invalid price")

// EntryQty sizes a fresh entry. In cash-fraction mode it spends buySize of
// the available cash rounded to the nearest whole unit, in fixed-unit mode
// buySize is the order size.
func EntryQty(mode config.SizingMode, cash, buySize, price float64) (float64, error) {
	if price <= 0 || math.IsNaN(price) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	switch mode {
	case config.SizingFixedUnits:
		return buySize, nil
	case config.SizingCashFraction:
		qty := math.Round(cash * buySize / price)
		if qty < 0 {
			return 0, nil
		}
		return qty, nil
	default:
		return 0, fmt.Errorf("%w: unknown sizing mode %q", config.ErrInvalidConfiguration, mode)
	}
}

// ReBuyQty sizes an averaging-down order as a multiple of the open
// position, rounded to the nearest whole unit.
func ReBuyQty(positionSize, reBuySize, price float64) (float64, error) {
	if price <= 0 || math.IsNaN(price) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	qty := math.Round(positionSize * reBuySize)
	if qty < 0 {
		return 0, nil
	}
	return qty, nil
}
