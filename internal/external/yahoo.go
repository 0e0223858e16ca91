package external

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/kjannette/marketpulse/internal/httputil"
	"github.com/kjannette/marketpulse/internal/models"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"

var lookbacks = [3]time.Duration{7 * 24 * time.Hour, 30 * 24 * time.Hour, 90 * 24 * time.Hour}

// YahooClient reads three months of daily closes from the Yahoo chart API.
type YahooClient struct {
	http *httputil.Client
	cfg  settings
}

func NewYahooClient(hc *httputil.Client, opts ...Option) *YahooClient {
	return &YahooClient{http: hc, cfg: newSettings(yahooChartURL, opts)}
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *YahooClient) FetchAssetRecentPrice(ctx context.Context, symbol models.MarketSymbol) (models.AssetPrice, error) {
	ticker := symbol.YahooTicker()
	if ticker == "" {
		return models.AssetPrice{}, fmt.Errorf("yahoo: no ticker for %s", symbol)
	}

	var chart yahooChart
	endpoint := c.cfg.baseURL + "/" + url.PathEscape(ticker)
	params := url.Values{"interval": {"1d"}, "range": {"3mo"}}
	if err := c.http.GetJSON(ctx, endpoint, params, &chart); err != nil {
		return models.AssetPrice{}, fmt.Errorf("yahoo %s: %w", ticker, err)
	}
	if e := chart.Chart.Error; e != nil {
		return models.AssetPrice{}, fmt.Errorf("yahoo %s: %s: %s", ticker, e.Code, e.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return models.AssetPrice{}, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}

	res := chart.Chart.Result[0]
	quote := res.Indicators.Quote[0]
	if len(res.Timestamp) != len(quote.Close) || len(res.Timestamp) != len(quote.Volume) {
		return models.AssetPrice{}, fmt.Errorf("yahoo %s: length mismatch in chart data", ticker)
	}

	last := -1
	for i := len(quote.Close) - 1; i >= 0; i-- {
		if quote.Close[i] != nil {
			last = i
			break
		}
	}
	if last < 0 {
		return models.AssetPrice{}, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}

	now := c.cfg.now()
	price := models.AssetPrice{
		Symbol:      symbol,
		LatestPrice: *quote.Close[last],
		Price7dAgo:  closestClose(res.Timestamp, quote.Close, now.Add(-lookbacks[0]).Unix()),
		Price30dAgo: closestClose(res.Timestamp, quote.Close, now.Add(-lookbacks[1]).Unix()),
		Price90dAgo: closestClose(res.Timestamp, quote.Close, now.Add(-lookbacks[2]).Unix()),
	}
	if v := quote.Volume[last]; v != nil {
		price.Volume = *v
	}
	return price, nil
}

// closestClose returns the non-null close nearest to target, or 0 if none.
func closestClose(timestamps []int64, closes []*float64, target int64) float64 {
	best := -1
	var bestDist int64
	for i, ts := range timestamps {
		if closes[i] == nil {
			continue
		}
		d := ts - target
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return 0
	}
	return *closes[best]
}
