package market

import "fmt"

// Timeframe represents the bar granularity in the wire format the data API
// expects.
type Timeframe string

const (
	Min1  Timeframe = "1Min"
	Min5  Timeframe = "5Min"
	Min15 Timeframe = "15Min"
	Min30 Timeframe = "30Min"
	Hour1 Timeframe = "1Hour"
	Day1  Timeframe = "1Day"
)

var timeframes = map[Timeframe]bool{
	Min1: true, Min5: true, Min15: true, Min30: true, Hour1: true, Day1: true,
}

// ParseTimeframe validates a timeframe string from configuration.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if !timeframes[tf] {
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
	return tf, nil
}
