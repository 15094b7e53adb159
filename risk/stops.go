package risk

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/autotrader/broker"
	"github.com/rustyeddy/autotrader/pkg/id"
)

// ReconcileStops submits a GTC sell trailing stop, sized to the full
// position, for every open long position that does not already have one.
//
// At most one stop per symbol: a symbol with any qualifying open order is
// skipped, however many there are. A submission failure for one symbol is
// logged and must not block protection of the rest; the returned error only
// covers the snapshot fetches.
func (m *Manager) ReconcileStops(ctx context.Context, b broker.Broker) error {
	positions, err := b.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("reconcile stops: positions: %w", err)
	}
	orders, err := b.GetOrders(ctx)
	if err != nil {
		return fmt.Errorf("reconcile stops: orders: %w", err)
	}

	for _, pos := range positions {
		if pos.Qty.Sign() <= 0 {
			continue // only long positions get protective sells
		}
		if hasTrailingStop(orders, pos.Symbol) {
			continue
		}

		log.Info().
			Str("symbol", pos.Symbol).
			Str("qty", pos.Qty.String()).
			Float64("trail_percent", m.TrailPercent).
			Msg("no trailing stop found, creating one")

		req := broker.TrailingStopOrderRequest{
			Symbol:        pos.Symbol,
			Qty:           pos.Qty,
			Side:          broker.Sell,
			TrailPercent:  m.TrailPercent,
			TIF:           broker.GTC,
			ClientOrderID: id.New(),
		}
		if _, err := b.SubmitTrailingStop(ctx, req); err != nil {
			log.Error().Err(err).Str("symbol", pos.Symbol).Msg("trailing stop submission failed")
			continue
		}
		log.Info().Str("symbol", pos.Symbol).Msg("trailing stop submitted")
	}
	return nil
}

func hasTrailingStop(orders []broker.Order, symbol string) bool {
	for _, o := range orders {
		if o.Symbol == symbol && o.Side == broker.Sell && o.Type == broker.TrailingStop {
			return true
		}
	}
	return false
}
