package paper

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/autotrader/broker"
)

func newEngine() *Engine {
	return NewEngine(broker.Account{
		ID: "PAPER", Currency: "USD",
		Cash: 1000, PortfolioValue: 1000, LastEquity: 1000,
	})
}

func TestMarketOrderFillsAtPrice(t *testing.T) {
	e := newEngine()
	e.SetPrice("SPY", 50)

	order, err := e.SubmitMarketOrder(context.Background(), broker.MarketOrderRequest{
		Symbol:   "SPY",
		Notional: decimal.NewFromInt(100),
		Side:     broker.Buy,
		TIF:      broker.Day,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, broker.Market, order.Type)

	positions, err := e.GetPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].Qty.Equal(decimal.NewFromInt(2)), "100 notional at 50/share")
}

func TestMarketOrderRejectsNonPositiveNotional(t *testing.T) {
	e := newEngine()
	_, err := e.SubmitMarketOrder(context.Background(), broker.MarketOrderRequest{
		Symbol: "SPY", Notional: decimal.Zero, Side: broker.Buy, TIF: broker.Day,
	})
	assert.Error(t, err)
}

func TestSellReducesAndRemovesPosition(t *testing.T) {
	e := newEngine()
	e.SetPrice("SPY", 1)
	e.SetPosition("SPY", decimal.NewFromInt(100))

	_, err := e.SubmitMarketOrder(context.Background(), broker.MarketOrderRequest{
		Symbol: "SPY", Notional: decimal.NewFromInt(100), Side: broker.Sell, TIF: broker.Day,
	})
	require.NoError(t, err)

	positions, err := e.GetPositions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, positions, "a flat position disappears")
}

func TestTrailingStopRestsAsOpenOrder(t *testing.T) {
	e := newEngine()
	_, err := e.SubmitTrailingStop(context.Background(), broker.TrailingStopOrderRequest{
		Symbol: "SPY", Qty: decimal.NewFromInt(10), Side: broker.Sell,
		TrailPercent: 2.0, TIF: broker.GTC,
	})
	require.NoError(t, err)

	orders, err := e.GetOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, broker.TrailingStop, orders[0].Type)

	require.NoError(t, e.CancelOrders(context.Background()))
	orders, err = e.GetOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.True(t, e.CanceledAll())
}

func TestTrailingStopRejectsBadTrail(t *testing.T) {
	e := newEngine()
	_, err := e.SubmitTrailingStop(context.Background(), broker.TrailingStopOrderRequest{
		Symbol: "SPY", Qty: decimal.NewFromInt(1), Side: broker.Sell, TIF: broker.GTC,
	})
	assert.Error(t, err)
}

func TestClosePositionRequiresOne(t *testing.T) {
	e := newEngine()
	assert.Error(t, e.ClosePosition(context.Background(), "SPY"))

	e.SetPosition("SPY", decimal.NewFromInt(3))
	assert.NoError(t, e.ClosePosition(context.Background(), "SPY"))

	positions, err := e.GetPositions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestCloseAllPositionsCancelsOrdersWhenAsked(t *testing.T) {
	e := newEngine()
	e.SetPosition("SPY", decimal.NewFromInt(3))
	_, err := e.SubmitTrailingStop(context.Background(), broker.TrailingStopOrderRequest{
		Symbol: "SPY", Qty: decimal.NewFromInt(3), Side: broker.Sell,
		TrailPercent: 2.0, TIF: broker.GTC,
	})
	require.NoError(t, err)

	require.NoError(t, e.CloseAllPositions(context.Background(), true))
	assert.True(t, e.Liquidated())

	positions, _ := e.GetPositions(context.Background())
	orders, _ := e.GetOrders(context.Background())
	assert.Empty(t, positions)
	assert.Empty(t, orders)
}

func TestPositionsAreSorted(t *testing.T) {
	e := newEngine()
	e.SetPosition("TSLA", decimal.NewFromInt(1))
	e.SetPosition("AAPL", decimal.NewFromInt(1))
	e.SetPosition("NVDA", decimal.NewFromInt(1))

	positions, err := e.GetPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 3)
	assert.Equal(t, "AAPL", positions[0].Symbol)
	assert.Equal(t, "NVDA", positions[1].Symbol)
	assert.Equal(t, "TSLA", positions[2].Symbol)
}

func TestFailureInjection(t *testing.T) {
	e := newEngine()
	e.FailAccount = assert.AnError
	_, err := e.GetAccount(context.Background())
	assert.ErrorIs(t, err, assert.AnError)

	e.FailLiquidate = assert.AnError
	assert.ErrorIs(t, e.CloseAllPositions(context.Background(), true), assert.AnError)
}
