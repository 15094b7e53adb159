package universe

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/autotrader/broker"
	"github.com/rustyeddy/autotrader/market"
)

// Config selects how the trading universe is assembled.
type Config struct {
	// Symbols is the static list, always included. Mixed equities and
	// crypto pairs.
	Symbols []string

	// Dynamic adds the screener's most-active stocks at startup.
	Dynamic bool

	// TopN is how many most-active symbols to request.
	TopN int
}

// Build resolves the working set of instruments once, at startup: static
// list ∪ screener result, deduplicated in first-seen order, each symbol
// classified by syntax exactly once. The universe is not refreshed during
// the process lifetime.
//
// Screener failure degrades to the static list; an asset-lookup failure
// skips that screener symbol. Neither is fatal.
func Build(ctx context.Context, cfg Config, scr broker.Screener, assets broker.Broker) []market.Instrument {
	symbols := append([]string(nil), cfg.Symbols...)

	if cfg.Dynamic && scr != nil {
		active, err := scr.MostActive(ctx, cfg.TopN)
		if err != nil {
			log.Warn().Err(err).Msg("screener unavailable, using static symbols only")
		} else {
			log.Info().Strs("symbols", active).Msg("fetched most active stocks")
			for _, sym := range active {
				if !tradable(ctx, assets, sym) {
					continue
				}
				symbols = append(symbols, sym)
			}
		}
	}

	seen := make(map[string]bool, len(symbols))
	out := make([]market.Instrument, 0, len(symbols))
	for _, sym := range symbols {
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, market.NewInstrument(sym))
	}

	log.Info().Int("count", len(out)).Msg("trading universe resolved")
	return out
}

func tradable(ctx context.Context, assets broker.Broker, symbol string) bool {
	if assets == nil {
		return true
	}
	asset, err := assets.GetAsset(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("asset lookup failed, skipping symbol")
		return false
	}
	if !asset.Tradable {
		log.Info().Str("symbol", symbol).Msg("asset not tradable, skipping")
		return false
	}
	return true
}
