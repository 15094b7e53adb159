package paper

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/autotrader/broker"
	"github.com/rustyeddy/autotrader/pkg/id"
)

// Engine is an in-memory Broker used by tests and the dry-run mode. Market
// orders fill instantly at the last set price; trailing stops rest as open
// orders until canceled.
type Engine struct {
	mu        sync.Mutex
	account   broker.Account
	positions map[string]decimal.Decimal
	orders    []broker.Order
	prices    map[string]float64
	untradble map[string]bool

	marketHistory []broker.MarketOrderRequest
	stopHistory   []broker.TrailingStopOrderRequest
	liquidated    bool
	canceledAll   bool

	// FailSubmit, when non-nil, is consulted before accepting any order
	// submission; a non-nil error rejects it. Lets tests inject
	// per-symbol failures.
	FailSubmit func(symbol string) error

	// FailAccount, when non-nil, makes GetAccount fail.
	FailAccount error

	// FailLiquidate, when non-nil, makes CloseAllPositions fail.
	FailLiquidate error
}

func NewEngine(acct broker.Account) *Engine {
	return &Engine{
		account:   acct,
		positions: make(map[string]decimal.Decimal),
		prices:    make(map[string]float64),
		untradble: make(map[string]bool),
	}
}

// SetPrice sets the fill price used to convert notional orders into units.
func (e *Engine) SetPrice(symbol string, px float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prices[symbol] = px
}

// SetPosition seeds or overwrites an open position.
func (e *Engine) SetPosition(symbol string, qty decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if qty.IsZero() {
		delete(e.positions, symbol)
		return
	}
	e.positions[symbol] = qty
}

// SetAccount replaces the account snapshot returned by GetAccount.
func (e *Engine) SetAccount(acct broker.Account) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.account = acct
}

// SetTradable marks a symbol as (un)tradable for GetAsset.
func (e *Engine) SetTradable(symbol string, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.untradble[symbol] = !ok
}

// MarketOrders returns every accepted market order submission, in order.
func (e *Engine) MarketOrders() []broker.MarketOrderRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]broker.MarketOrderRequest, len(e.marketHistory))
	copy(out, e.marketHistory)
	return out
}

// TrailingStops returns every accepted trailing-stop submission, in order.
func (e *Engine) TrailingStops() []broker.TrailingStopOrderRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]broker.TrailingStopOrderRequest, len(e.stopHistory))
	copy(out, e.stopHistory)
	return out
}

// Liquidated reports whether CloseAllPositions was called.
func (e *Engine) Liquidated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liquidated
}

// CanceledAll reports whether CancelOrders was called.
func (e *Engine) CanceledAll() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canceledAll
}

func (e *Engine) GetAccount(ctx context.Context) (broker.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailAccount != nil {
		return broker.Account{}, e.FailAccount
	}
	return e.account, nil
}

func (e *Engine) GetPositions(ctx context.Context) ([]broker.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	symbols := make([]string, 0, len(e.positions))
	for s := range e.positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	out := make([]broker.Position, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, broker.Position{Symbol: s, Qty: e.positions[s]})
	}
	return out, nil
}

func (e *Engine) GetOrders(ctx context.Context) ([]broker.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]broker.Order, len(e.orders))
	copy(out, e.orders)
	return out, nil
}

func (e *Engine) SubmitMarketOrder(ctx context.Context, req broker.MarketOrderRequest) (broker.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.FailSubmit != nil {
		if err := e.FailSubmit(req.Symbol); err != nil {
			return broker.Order{}, err
		}
	}
	if req.Notional.LessThanOrEqual(decimal.Zero) {
		return broker.Order{}, fmt.Errorf("paper: notional must be positive")
	}

	px := e.prices[req.Symbol]
	if px <= 0 {
		px = 1.0
	}
	qty := req.Notional.Div(decimal.NewFromFloat(px))
	if req.Side == broker.Sell {
		qty = qty.Neg()
	}
	e.positions[req.Symbol] = e.positions[req.Symbol].Add(qty)
	if e.positions[req.Symbol].IsZero() {
		delete(e.positions, req.Symbol)
	}

	e.marketHistory = append(e.marketHistory, req)
	return broker.Order{
		ID:            id.New(),
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          broker.Market,
	}, nil
}

func (e *Engine) SubmitTrailingStop(ctx context.Context, req broker.TrailingStopOrderRequest) (broker.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.FailSubmit != nil {
		if err := e.FailSubmit(req.Symbol); err != nil {
			return broker.Order{}, err
		}
	}
	if req.TrailPercent <= 0 {
		return broker.Order{}, fmt.Errorf("paper: trail percent must be positive")
	}

	order := broker.Order{
		ID:            id.New(),
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          broker.TrailingStop,
	}
	e.orders = append(e.orders, order)
	e.stopHistory = append(e.stopHistory, req)
	return order, nil
}

func (e *Engine) ClosePosition(ctx context.Context, symbol string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.positions[symbol]; !ok {
		return fmt.Errorf("paper: no open position for %s", symbol)
	}
	delete(e.positions, symbol)
	return nil
}

func (e *Engine) CloseAllPositions(ctx context.Context, cancelOrders bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailLiquidate != nil {
		return e.FailLiquidate
	}
	e.positions = make(map[string]decimal.Decimal)
	if cancelOrders {
		e.orders = nil
	}
	e.liquidated = true
	return nil
}

func (e *Engine) CancelOrders(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orders = nil
	e.canceledAll = true
	return nil
}

func (e *Engine) GetAsset(ctx context.Context, symbol string) (broker.Asset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return broker.Asset{Symbol: symbol, Tradable: !e.untradble[symbol]}, nil
}
