package broker

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/autotrader/market"
)

// Account is a point-in-time snapshot of the brokerage account. It is
// refreshed every cycle and never persisted.
type Account struct {
	ID             string
	Currency       string
	Cash           float64
	PortfolioValue float64
	LastEquity     float64
	TradingBlocked bool
}

// Position is a read-only snapshot of an open position. Quantities are
// decimal because crypto positions are fractional.
type Position struct {
	Symbol string
	Qty    decimal.Decimal
}

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

type OrderType string

const (
	Market       OrderType = "market"
	TrailingStop OrderType = "trailing_stop"
)

type TimeInForce string

const (
	Day TimeInForce = "day"
	GTC TimeInForce = "gtc"
)

// Order is a read-only snapshot of an open (not yet filled or canceled)
// order, with the fields needed to detect an existing trailing stop.
type Order struct {
	ID            string
	ClientOrderID string
	Symbol        string
	Side          Side
	Type          OrderType
}

// MarketOrderRequest is an order sized by target dollar value (notional)
// rather than unit quantity.
type MarketOrderRequest struct {
	Symbol        string
	Notional      decimal.Decimal
	Side          Side
	TIF           TimeInForce
	ClientOrderID string
}

// TrailingStopOrderRequest is a protective sell order whose trigger follows
// the market price by TrailPercent (in percentage points, e.g. 2.0).
type TrailingStopOrderRequest struct {
	Symbol        string
	Qty           decimal.Decimal
	Side          Side
	TrailPercent  float64
	TIF           TimeInForce
	ClientOrderID string
}

// Asset describes whether a symbol is currently tradable at the brokerage.
type Asset struct {
	Symbol   string
	Tradable bool
}

// Broker is the brokerage trading surface the bot decides against. Every
// call is a synchronous request/response over the network.
type Broker interface {
	GetAccount(ctx context.Context) (Account, error)
	GetPositions(ctx context.Context) ([]Position, error)
	GetOrders(ctx context.Context) ([]Order, error)
	SubmitMarketOrder(ctx context.Context, req MarketOrderRequest) (Order, error)
	SubmitTrailingStop(ctx context.Context, req TrailingStopOrderRequest) (Order, error)
	ClosePosition(ctx context.Context, symbol string) error
	CloseAllPositions(ctx context.Context, cancelOrders bool) error
	CancelOrders(ctx context.Context) error
	GetAsset(ctx context.Context, symbol string) (Asset, error)
}

// BarSource supplies historical bars for an instrument. Equity and crypto
// symbols may be served by different endpoints; the instrument's class
// selects the path.
type BarSource interface {
	GetBars(ctx context.Context, inst market.Instrument, tf market.Timeframe, limit int) (market.BarSeries, error)
}

// Screener returns the symbols of the most active stocks, used to seed the
// dynamic part of the trading universe.
type Screener interface {
	MostActive(ctx context.Context, top int) ([]string, error)
}
