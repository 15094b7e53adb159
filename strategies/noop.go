package strategies

import (
	"context"

	"github.com/rustyeddy/autotrader/broker"
	"github.com/rustyeddy/autotrader/market"
)

// NoopStrategy does nothing.
type NoopStrategy struct{}

func (NoopStrategy) OnBars(context.Context, broker.Broker, market.Instrument, market.BarSeries, []broker.Position) error {
	return nil
}
