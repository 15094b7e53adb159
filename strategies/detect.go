package strategies

import (
	"math"

	"github.com/rustyeddy/autotrader/indicators"
	"github.com/rustyeddy/autotrader/market"
)

// DetectCrossover reports whether the short SMA crossed the long SMA between
// the last two bars of the series.
//
// It fails closed: with fewer than longWindow bars, or while either SMA is
// still inside its warmup window at the previous bar, the answer is None.
// Ties never trigger: both inequalities are strict, so this detects a cross,
// not a level touch. Pure function of its inputs.
func DetectCrossover(series market.BarSeries, shortWindow, longWindow int) Signal {
	if shortWindow <= 0 || longWindow <= 0 || shortWindow >= longWindow {
		return None
	}
	n := len(series)
	if n < longWindow || n < 2 {
		return None
	}

	closes := series.Closes()
	shortMA := indicators.SMASeries(closes, shortWindow)
	longMA := indicators.SMASeries(closes, longWindow)

	shortPrev, longPrev := shortMA[n-2], longMA[n-2]
	shortCurr, longCurr := shortMA[n-1], longMA[n-1]

	if math.IsNaN(shortPrev) || math.IsNaN(longPrev) {
		return None
	}

	switch {
	case shortPrev < longPrev && shortCurr > longCurr:
		return Buy // golden cross
	case shortPrev > longPrev && shortCurr < longCurr:
		return Sell // death cross
	default:
		return None
	}
}
