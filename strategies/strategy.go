package strategies

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/autotrader/broker"
	"github.com/rustyeddy/autotrader/market"
)

// Strategy is evaluated once per symbol per heartbeat cycle. The positions
// slice is the cycle's read-only snapshot; implementations must not cache it
// across calls.
type Strategy interface {
	OnBars(ctx context.Context, b broker.Broker, inst market.Instrument, series market.BarSeries, positions []broker.Position) error
}

var registry = make(map[string]Strategy)

// Register makes a strategy resolvable through ByName. Registered names take
// precedence over the built-ins.
func Register(name string, strat Strategy) {
	registry[strings.ToLower(name)] = strat
}

func Get(name string) Strategy {
	return registry[strings.ToLower(name)]
}

// ByName builds a strategy from its config-facing name.
func ByName(name string, short, long, positionLimit int, notionalUSD float64) (Strategy, error) {
	if strat := Get(strings.TrimSpace(name)); strat != nil {
		return strat, nil
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return NoopStrategy{}, nil

	case "sma-cross", "smacross", "":
		return &SMACross{
			ShortWindow:   short,
			LongWindow:    long,
			PositionLimit: positionLimit,
			NotionalUSD:   decimal.NewFromFloat(notionalUSD),
		}, nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, sma-cross)", name)
	}
}
