package alpaca

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rustyeddy/autotrader/broker"
)

type mostActivesResponse struct {
	MostActives []struct {
		Symbol string `json:"symbol"`
	} `json:"most_actives"`
}

var _ broker.Screener = (*Client)(nil)

// MostActive returns the symbols of the most active stocks by volume, used
// as a proxy for volatility when seeding the universe.
//
// The call runs through the screener circuit breaker: after repeated
// failures the breaker opens and requests fail fast until the cool-off
// expires. Callers degrade to their static symbol list on any error.
func (c *Client) MostActive(ctx context.Context, top int) ([]string, error) {
	if top <= 0 {
		top = 20
	}

	result, err := c.breaker.Execute(func() (any, error) {
		q := url.Values{}
		q.Set("top", strconv.Itoa(top))

		var resp mostActivesResponse
		path := "/v1beta1/screener/stocks/most-actives"
		if err := c.do(ctx, http.MethodGet, c.dataURL, path, q, nil, &resp); err != nil {
			return nil, err
		}

		symbols := make([]string, 0, len(resp.MostActives))
		for _, s := range resp.MostActives {
			symbols = append(symbols, s.Symbol)
		}
		return symbols, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}
