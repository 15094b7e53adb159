package risk

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/autotrader/broker"
)

func TestReconcileStopsCreatesMissingStops(t *testing.T) {
	e := newEngine()
	e.SetPosition("SPY", decimal.NewFromInt(10))
	e.SetPosition("AAPL", decimal.RequireFromString("2.5"))
	m := NewManager(-0.05, 2.0)

	require.NoError(t, m.ReconcileStops(context.Background(), e))

	stops := e.TrailingStops()
	require.Len(t, stops, 2)
	bySymbol := map[string]broker.TrailingStopOrderRequest{}
	for _, s := range stops {
		bySymbol[s.Symbol] = s
	}

	spy := bySymbol["SPY"]
	assert.Equal(t, broker.Sell, spy.Side)
	assert.Equal(t, broker.GTC, spy.TIF)
	assert.Equal(t, 2.0, spy.TrailPercent)
	assert.True(t, spy.Qty.Equal(decimal.NewFromInt(10)), "stop covers the full position")

	aapl := bySymbol["AAPL"]
	assert.True(t, aapl.Qty.Equal(decimal.RequireFromString("2.5")))
}

func TestReconcileStopsIsIdempotent(t *testing.T) {
	e := newEngine()
	e.SetPosition("SPY", decimal.NewFromInt(10))
	m := NewManager(-0.05, 2.0)

	require.NoError(t, m.ReconcileStops(context.Background(), e))
	require.NoError(t, m.ReconcileStops(context.Background(), e))

	// The second run sees the resting stop and submits nothing new.
	assert.Len(t, e.TrailingStops(), 1)
}

func TestReconcileStopsSkipsProtectedSymbols(t *testing.T) {
	e := newEngine()
	e.SetPosition("SPY", decimal.NewFromInt(10))
	e.SetPosition("AAPL", decimal.NewFromInt(3))
	m := NewManager(-0.05, 2.0)

	// SPY already has a stop from an earlier run.
	_, err := e.SubmitTrailingStop(context.Background(), broker.TrailingStopOrderRequest{
		Symbol: "SPY", Qty: decimal.NewFromInt(10), Side: broker.Sell,
		TrailPercent: 2.0, TIF: broker.GTC,
	})
	require.NoError(t, err)

	require.NoError(t, m.ReconcileStops(context.Background(), e))

	stops := e.TrailingStops()
	require.Len(t, stops, 2)
	assert.Equal(t, "AAPL", stops[1].Symbol)
}

func TestReconcileStopsIgnoresShortPositions(t *testing.T) {
	e := newEngine()
	e.SetPosition("SPY", decimal.NewFromInt(-4))
	m := NewManager(-0.05, 2.0)

	require.NoError(t, m.ReconcileStops(context.Background(), e))
	assert.Empty(t, e.TrailingStops())
}

func TestReconcileStopsIsolatesPerSymbolFailures(t *testing.T) {
	e := newEngine()
	e.SetPosition("AAPL", decimal.NewFromInt(1))
	e.SetPosition("SPY", decimal.NewFromInt(2))
	e.FailSubmit = func(symbol string) error {
		if symbol == "AAPL" {
			return fmt.Errorf("rejected %s", symbol)
		}
		return nil
	}
	m := NewManager(-0.05, 2.0)

	// One bad symbol must not block protection of the rest, and the run
	// as a whole still succeeds.
	require.NoError(t, m.ReconcileStops(context.Background(), e))

	stops := e.TrailingStops()
	require.Len(t, stops, 1)
	assert.Equal(t, "SPY", stops[0].Symbol)
}
