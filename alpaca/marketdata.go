package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/autotrader/broker"
	"github.com/rustyeddy/autotrader/market"
)

// Bars come back as JSON numbers with an RFC3339 timestamp.
type apiBar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

type stockBarsResponse struct {
	Bars []apiBar `json:"bars"`
}

type cryptoBarsResponse struct {
	Bars map[string][]apiBar `json:"bars"`
}

var _ broker.BarSource = (*Client)(nil)

// GetBars fetches the most recent bars for an instrument. The instrument's
// asset class, decided once at universe construction, selects the endpoint:
// stocks and crypto are served by different API families.
func (c *Client) GetBars(ctx context.Context, inst market.Instrument, tf market.Timeframe, limit int) (market.BarSeries, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("alpaca: bar limit must be positive")
	}

	var bars []apiBar
	var err error
	if inst.Class == market.Crypto {
		bars, err = c.cryptoBars(ctx, inst.Symbol, tf, limit)
	} else {
		bars, err = c.stockBars(ctx, inst.Symbol, tf, limit)
	}
	if err != nil {
		return nil, err
	}

	series := make(market.BarSeries, len(bars))
	for i, b := range bars {
		series[i] = market.Bar{
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Time:   b.Time,
			Volume: b.Volume,
		}
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("alpaca: bars for %s: %w", inst.Symbol, err)
	}
	return series, nil
}

func (c *Client) stockBars(ctx context.Context, symbol string, tf market.Timeframe, limit int) ([]apiBar, error) {
	q := url.Values{}
	q.Set("timeframe", string(tf))
	q.Set("limit", strconv.Itoa(limit))

	var resp stockBarsResponse
	path := "/v2/stocks/" + url.PathEscape(symbol) + "/bars"
	if err := c.do(ctx, http.MethodGet, c.dataURL, path, q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Bars, nil
}

func (c *Client) cryptoBars(ctx context.Context, symbol string, tf market.Timeframe, limit int) ([]apiBar, error) {
	q := url.Values{}
	q.Set("symbols", symbol)
	q.Set("timeframe", string(tf))
	q.Set("limit", strconv.Itoa(limit))

	var resp cryptoBarsResponse
	if err := c.do(ctx, http.MethodGet, c.dataURL, "/v1beta3/crypto/us/bars", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Bars[symbol], nil
}
