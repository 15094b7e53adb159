package alpaca

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/autotrader/broker"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:            "test-key",
		APISecret:         "test-secret",
		BaseURL:           srv.URL,
		MarketDataURL:     srv.URL,
		RequestsPerMinute: 60000, // don't throttle tests
	})
}

func TestGetAccountParsesStringNumerics(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/account", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "test-secret", r.Header.Get("APCA-API-SECRET-KEY"))
		w.Write([]byte(`{
			"id": "acct-1", "currency": "USD",
			"cash": "925.50", "portfolio_value": "1010.25",
			"last_equity": "1000", "trading_blocked": false
		}`))
	}))

	acct, err := c.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acct-1", acct.ID)
	assert.Equal(t, 925.50, acct.Cash)
	assert.Equal(t, 1010.25, acct.PortfolioValue)
	assert.Equal(t, 1000.0, acct.LastEquity)
	assert.False(t, acct.TradingBlocked)
}

func TestGetAccountRejectsBadNumeric(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "acct-1", "cash": "not-a-number"}`))
	}))

	_, err := c.GetAccount(context.Background())
	assert.Error(t, err)
}

func TestAPIErrorCarriesStatusAndBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "forbidden"}`, http.StatusForbidden)
	}))

	_, err := c.GetAccount(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "forbidden")
}

func TestErrNotFoundMatches404(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := c.GetAsset(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestGetPositionsParsesFractionalQty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/positions", r.URL.Path)
		w.Write([]byte(`[
			{"symbol": "SPY", "qty": "10"},
			{"symbol": "BTCUSD", "qty": "0.0214"}
		]`))
	}))

	positions, err := c.GetPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "SPY", positions[0].Symbol)
	assert.True(t, positions[0].Qty.Equal(decimal.NewFromInt(10)))
	assert.True(t, positions[1].Qty.Equal(decimal.RequireFromString("0.0214")))
}

func TestGetOrdersRequestsOpenOrders(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/orders", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{
			"id": "o-1", "client_order_id": "c-1", "symbol": "SPY",
			"side": "sell", "type": "trailing_stop"
		}]`))
	}))

	orders, err := c.GetOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, broker.Sell, orders[0].Side)
	assert.Equal(t, broker.TrailingStop, orders[0].Type)
}

func TestSubmitMarketOrderBody(t *testing.T) {
	var body map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"id": "o-1", "client_order_id": "c-1", "symbol": "SPY", "side": "buy", "type": "market"}`))
	}))

	order, err := c.SubmitMarketOrder(context.Background(), broker.MarketOrderRequest{
		Symbol:        "SPY",
		Notional:      decimal.NewFromInt(100),
		Side:          broker.Buy,
		TIF:           broker.Day,
		ClientOrderID: "c-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "o-1", order.ID)

	assert.Equal(t, map[string]string{
		"symbol":          "SPY",
		"notional":        "100",
		"side":            "buy",
		"type":            "market",
		"time_in_force":   "day",
		"client_order_id": "c-1",
	}, body)
}

func TestSubmitTrailingStopBody(t *testing.T) {
	var body map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"id": "o-2", "symbol": "SPY", "side": "sell", "type": "trailing_stop"}`))
	}))

	_, err := c.SubmitTrailingStop(context.Background(), broker.TrailingStopOrderRequest{
		Symbol:        "SPY",
		Qty:           decimal.RequireFromString("2.5"),
		Side:          broker.Sell,
		TrailPercent:  2.0,
		TIF:           broker.GTC,
		ClientOrderID: "c-2",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"symbol":          "SPY",
		"qty":             "2.5",
		"side":            "sell",
		"type":            "trailing_stop",
		"trail_percent":   "2",
		"time_in_force":   "gtc",
		"client_order_id": "c-2",
	}, body)
}

func TestClosePositionStripsCryptoSeparator(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.ClosePosition(context.Background(), "BTC/USD"))
	assert.Equal(t, "/v2/positions/BTCUSD", gotPath)

	require.NoError(t, c.ClosePosition(context.Background(), "SPY"))
	assert.Equal(t, "/v2/positions/SPY", gotPath)
}

func TestCloseAllPositionsPropagatesCancelFlag(t *testing.T) {
	var gotCancel string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v2/positions", r.URL.Path)
		gotCancel = r.URL.Query().Get("cancel_orders")
		w.WriteHeader(http.StatusMultiStatus)
	}))

	require.NoError(t, c.CloseAllPositions(context.Background(), true))
	assert.Equal(t, "true", gotCancel)
}

func TestCancelOrders(t *testing.T) {
	var called bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v2/orders", r.URL.Path)
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.CancelOrders(context.Background()))
	assert.True(t, called)
}

func TestGetAsset(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/assets/ETHUSD", r.URL.Path)
		w.Write([]byte(`{"symbol": "ETH/USD", "tradable": true}`))
	}))

	asset, err := c.GetAsset(context.Background(), "ETH/USD")
	require.NoError(t, err)
	assert.Equal(t, "ETH/USD", asset.Symbol)
	assert.True(t, asset.Tradable)
}

func TestNewClientEnvironmentSelection(t *testing.T) {
	assert.Equal(t, PaperURL, NewClient(Config{Paper: true}).baseURL)
	assert.Equal(t, LiveURL, NewClient(Config{}).baseURL)
	assert.Equal(t, "http://localhost:1", NewClient(Config{BaseURL: "http://localhost:1"}).baseURL)
}
