package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/autotrader/broker"
)

const (
	// PaperURL is the paper-trading environment.
	PaperURL = "https://paper-api.alpaca.markets"
	// LiveURL is the live trading environment.
	LiveURL = "https://api.alpaca.markets"
	// DataURL serves historical market data and the screener.
	DataURL = "https://data.alpaca.markets"
)

// Config selects the environment and credentials for a Client.
type Config struct {
	APIKey    string
	APISecret string
	Paper     bool

	// BaseURL / MarketDataURL override the environment URLs; tests point
	// them at a local server.
	BaseURL       string
	MarketDataURL string

	// Timeout applies per request. Default 30s.
	Timeout time.Duration

	// RequestsPerMinute caps the client-side request rate. Default 200,
	// matching the API's published limit.
	RequestsPerMinute int
}

// Client is a hand-rolled Alpaca REST client implementing broker.Broker,
// broker.BarSource and broker.Screener. All requests pass through a shared
// rate limiter; screener calls additionally go through a circuit breaker so
// a flapping screener cannot slow the trading path down.
type Client struct {
	baseURL    string
	dataURL    string
	key        string
	secret     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

func NewClient(cfg Config) *Client {
	baseURL := LiveURL
	if cfg.Paper {
		baseURL = PaperURL
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	dataURL := DataURL
	if cfg.MarketDataURL != "" {
		dataURL = cfg.MarketDataURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 200
	}

	st := gobreaker.Settings{Name: "alpaca-screener"}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}

	return &Client{
		baseURL:    baseURL,
		dataURL:    dataURL,
		key:        cfg.APIKey,
		secret:     cfg.APISecret,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 10),
		breaker:    gobreaker.NewCircuitBreaker(st),
	}
}

// ErrNotFound matches any 404 from the API, e.g. an unknown asset symbol.
var ErrNotFound = errors.New("alpaca: not found")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alpaca: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, base, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("alpaca: marshal request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("APCA-API-KEY-ID", c.key)
	req.Header.Set("APCA-API-SECRET-KEY", c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("alpaca: decode response: %w", err)
	}
	return nil
}

// The trading API returns numeric fields as JSON strings.
type apiAccount struct {
	ID             string `json:"id"`
	Currency       string `json:"currency"`
	Cash           string `json:"cash"`
	PortfolioValue string `json:"portfolio_value"`
	LastEquity     string `json:"last_equity"`
	TradingBlocked bool   `json:"trading_blocked"`
}

func (c *Client) GetAccount(ctx context.Context) (broker.Account, error) {
	var raw apiAccount
	if err := c.do(ctx, http.MethodGet, c.baseURL, "/v2/account", nil, nil, &raw); err != nil {
		return broker.Account{}, err
	}

	cash, err := parseFloat(raw.Cash, "cash")
	if err != nil {
		return broker.Account{}, err
	}
	pv, err := parseFloat(raw.PortfolioValue, "portfolio_value")
	if err != nil {
		return broker.Account{}, err
	}
	le, err := parseFloat(raw.LastEquity, "last_equity")
	if err != nil {
		return broker.Account{}, err
	}

	return broker.Account{
		ID:             raw.ID,
		Currency:       raw.Currency,
		Cash:           cash,
		PortfolioValue: pv,
		LastEquity:     le,
		TradingBlocked: raw.TradingBlocked,
	}, nil
}

type apiPosition struct {
	Symbol string `json:"symbol"`
	Qty    string `json:"qty"`
}

func (c *Client) GetPositions(ctx context.Context) ([]broker.Position, error) {
	var raw []apiPosition
	if err := c.do(ctx, http.MethodGet, c.baseURL, "/v2/positions", nil, nil, &raw); err != nil {
		return nil, err
	}

	out := make([]broker.Position, 0, len(raw))
	for _, p := range raw {
		qty, err := decimal.NewFromString(p.Qty)
		if err != nil {
			return nil, fmt.Errorf("alpaca: position %s: bad qty %q", p.Symbol, p.Qty)
		}
		out = append(out, broker.Position{Symbol: p.Symbol, Qty: qty})
	}
	return out, nil
}

type apiOrder struct {
	ID            string `json:"id"`
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Type          string `json:"type"`
}

func (o apiOrder) toOrder() broker.Order {
	return broker.Order{
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          broker.Side(o.Side),
		Type:          broker.OrderType(o.Type),
	}
}

func (c *Client) GetOrders(ctx context.Context) ([]broker.Order, error) {
	q := url.Values{}
	q.Set("status", "open")
	q.Set("limit", "500")

	var raw []apiOrder
	if err := c.do(ctx, http.MethodGet, c.baseURL, "/v2/orders", q, nil, &raw); err != nil {
		return nil, err
	}

	out := make([]broker.Order, 0, len(raw))
	for _, o := range raw {
		out = append(out, o.toOrder())
	}
	return out, nil
}

func (c *Client) SubmitMarketOrder(ctx context.Context, req broker.MarketOrderRequest) (broker.Order, error) {
	body := map[string]string{
		"symbol":          req.Symbol,
		"notional":        req.Notional.String(),
		"side":            string(req.Side),
		"type":            string(broker.Market),
		"time_in_force":   string(req.TIF),
		"client_order_id": req.ClientOrderID,
	}

	var raw apiOrder
	if err := c.do(ctx, http.MethodPost, c.baseURL, "/v2/orders", nil, body, &raw); err != nil {
		return broker.Order{}, err
	}
	return raw.toOrder(), nil
}

func (c *Client) SubmitTrailingStop(ctx context.Context, req broker.TrailingStopOrderRequest) (broker.Order, error) {
	body := map[string]string{
		"symbol":          req.Symbol,
		"qty":             req.Qty.String(),
		"side":            string(req.Side),
		"type":            string(broker.TrailingStop),
		"trail_percent":   strconv.FormatFloat(req.TrailPercent, 'f', -1, 64),
		"time_in_force":   string(req.TIF),
		"client_order_id": req.ClientOrderID,
	}

	var raw apiOrder
	if err := c.do(ctx, http.MethodPost, c.baseURL, "/v2/orders", nil, body, &raw); err != nil {
		return broker.Order{}, err
	}
	return raw.toOrder(), nil
}

func (c *Client) ClosePosition(ctx context.Context, symbol string) error {
	return c.do(ctx, http.MethodDelete, c.baseURL, "/v2/positions/"+pathSymbol(symbol), nil, nil, nil)
}

func (c *Client) CloseAllPositions(ctx context.Context, cancelOrders bool) error {
	q := url.Values{}
	q.Set("cancel_orders", strconv.FormatBool(cancelOrders))
	return c.do(ctx, http.MethodDelete, c.baseURL, "/v2/positions", q, nil, nil)
}

func (c *Client) CancelOrders(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, c.baseURL, "/v2/orders", nil, nil, nil)
}

type apiAsset struct {
	Symbol   string `json:"symbol"`
	Tradable bool   `json:"tradable"`
}

func (c *Client) GetAsset(ctx context.Context, symbol string) (broker.Asset, error) {
	var raw apiAsset
	if err := c.do(ctx, http.MethodGet, c.baseURL, "/v2/assets/"+pathSymbol(symbol), nil, nil, &raw); err != nil {
		return broker.Asset{}, err
	}
	return broker.Asset{Symbol: raw.Symbol, Tradable: raw.Tradable}, nil
}

// pathSymbol adapts a symbol for a URL path segment; crypto pairs drop the
// separator (the API addresses the BTC/USD position as BTCUSD).
func pathSymbol(symbol string) string {
	return url.PathEscape(strings.ReplaceAll(symbol, "/", ""))
}

func parseFloat(s, field string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("alpaca: bad %s %q", field, s)
	}
	return v, nil
}
