package market

import (
	"fmt"
	"time"
)

// Bar represents OHLCV (Open, High, Low, Close, Volume) candlestick data
// at a fixed granularity.
type Bar struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	time.Time
	Volume float64
}

// BarSeries is a time-ordered sequence of bars with strictly increasing
// timestamps and a single granularity.
type BarSeries []Bar

// Closes returns the close prices in series order.
func (s BarSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar, or false when the series is empty.
func (s BarSeries) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Validate checks that timestamps are strictly increasing.
func (s BarSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return fmt.Errorf("bar %d: timestamp %s not after %s",
				i, s[i].Time.Format(time.RFC3339), s[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}
