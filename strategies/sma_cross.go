package strategies

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/autotrader/broker"
	"github.com/rustyeddy/autotrader/chart"
	"github.com/rustyeddy/autotrader/journal"
	"github.com/rustyeddy/autotrader/market"
	"github.com/rustyeddy/autotrader/pkg/id"
)

// SMACross trades the short/long SMA crossover:
//   - golden cross opens a notional market buy (day TIF), subject to the
//     position limit and a one-position-per-symbol rule
//   - death cross closes the full position, if one exists
//
// Submission failures are logged and recorded; they never abort the rest of
// the universe scan. Symbols are evaluated independently, so processing
// order across the universe cannot change any single symbol's outcome.
type SMACross struct {
	ShortWindow   int
	LongWindow    int
	PositionLimit int
	NotionalUSD   decimal.Decimal

	// Charts and Journal are optional sinks; both tolerate nil.
	Charts  *chart.Renderer
	Journal journal.Journal
}

func (s *SMACross) OnBars(ctx context.Context, b broker.Broker, inst market.Instrument, series market.BarSeries, positions []broker.Position) error {
	sig := DetectCrossover(series, s.ShortWindow, s.LongWindow)
	if sig == None {
		log.Debug().Str("symbol", inst.Symbol).Msg("no signal")
		return nil
	}

	log.Info().
		Str("symbol", inst.Symbol).
		Str("signal", sig.String()).
		Msg("crossover detected")
	s.saveChart(inst.Symbol, sig, series)

	switch sig {
	case Buy:
		s.onBuy(ctx, b, inst.Symbol, positions)
	case Sell:
		s.onSell(ctx, b, inst.Symbol, positions)
	}
	return nil
}

func (s *SMACross) onBuy(ctx context.Context, b broker.Broker, symbol string, positions []broker.Position) {
	if len(positions) >= s.PositionLimit {
		log.Warn().
			Str("symbol", symbol).
			Int("limit", s.PositionLimit).
			Msg("position limit reached, not opening new position")
		return
	}
	if hasPosition(positions, symbol) {
		log.Info().Str("symbol", symbol).Msg("already holding, not buying again")
		return
	}

	req := broker.MarketOrderRequest{
		Symbol:        symbol,
		Notional:      s.NotionalUSD,
		Side:          broker.Buy,
		TIF:           broker.Day,
		ClientOrderID: id.New(),
	}
	rec := journal.OrderRecord{
		ClientOrderID: req.ClientOrderID,
		Symbol:        symbol,
		Side:          string(broker.Buy),
		Type:          string(broker.Market),
		Notional:      s.NotionalUSD.InexactFloat64(),
		Reason:        "golden_cross",
		Time:          time.Now().UTC(),
	}

	if _, err := b.SubmitMarketOrder(ctx, req); err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("buy order submission failed")
		rec.Status = journal.StatusRejected
		rec.Reason = err.Error()
		s.record(rec)
		return
	}

	log.Info().
		Str("symbol", symbol).
		Str("notional", s.NotionalUSD.String()).
		Str("client_order_id", req.ClientOrderID).
		Msg("market buy submitted")
	rec.Status = journal.StatusSubmitted
	s.record(rec)
}

func (s *SMACross) onSell(ctx context.Context, b broker.Broker, symbol string, positions []broker.Position) {
	if !hasPosition(positions, symbol) {
		log.Info().Str("symbol", symbol).Msg("no position to sell")
		return
	}

	rec := journal.OrderRecord{
		ClientOrderID: id.New(),
		Symbol:        symbol,
		Side:          string(broker.Sell),
		Type:          "close",
		Reason:        "death_cross",
		Time:          time.Now().UTC(),
	}

	if err := b.ClosePosition(ctx, symbol); err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("position close failed")
		rec.Status = journal.StatusRejected
		rec.Reason = err.Error()
		s.record(rec)
		return
	}

	log.Info().Str("symbol", symbol).Msg("position closed")
	rec.Status = journal.StatusSubmitted
	s.record(rec)
}

func (s *SMACross) saveChart(symbol string, sig Signal, series market.BarSeries) {
	if s.Charts == nil {
		return
	}
	path, err := s.Charts.SaveCrossover(symbol, sig.String(), series, s.ShortWindow, s.LongWindow)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("chart render failed")
		return
	}
	log.Info().Str("symbol", symbol).Str("path", path).Msg("chart saved")
}

func (s *SMACross) record(rec journal.OrderRecord) {
	if s.Journal == nil {
		return
	}
	if err := s.Journal.RecordOrder(rec); err != nil {
		log.Warn().Err(err).Str("symbol", rec.Symbol).Msg("journal write failed")
	}
}

func hasPosition(positions []broker.Position, symbol string) bool {
	for _, p := range positions {
		if p.Symbol == symbol {
			return true
		}
	}
	return false
}
