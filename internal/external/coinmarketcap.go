package external

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/kjannette/marketpulse/internal/httputil"
	"github.com/kjannette/marketpulse/internal/models"
)

const coinMarketCapURL = "https://api.coinmarketcap.com/data-api/v4/global-metrics/quotes/historical"

// usdConvertID is CoinMarketCap's id for USD.
const usdConvertID = "2781"

// CoinMarketCapClient reads total crypto market figures.
type CoinMarketCapClient struct {
	http *httputil.Client
	cfg  settings
}

func NewCoinMarketCapClient(hc *httputil.Client, opts ...Option) *CoinMarketCapClient {
	return &CoinMarketCapClient{http: hc, cfg: newSettings(coinMarketCapURL, opts)}
}

type cmcPoint struct {
	MarketCap   float64 `json:"marketCap"`
	StableValue float64 `json:"stableValue"`
	BTCValue    float64 `json:"btcValue"`
	ETHValue    float64 `json:"ethValue"`
	Volume      float64 `json:"volume"`
	Timestamp   string  `json:"timestamp"`
}

// FetchGlobalAggregate returns the second newest point, the last complete day.
func (c *CoinMarketCapClient) FetchGlobalAggregate(ctx context.Context) (models.GlobalAggregate, error) {
	var data struct {
		Data struct {
			Points []cmcPoint `json:"points"`
		} `json:"data"`
	}
	params := url.Values{"convertId": {usdConvertID}, "range": {"30d"}}
	if err := c.http.GetJSON(ctx, c.cfg.baseURL, params, &data); err != nil {
		return models.GlobalAggregate{}, fmt.Errorf("coinmarketcap global: %w", err)
	}

	type stamped struct {
		ts int64
		p  cmcPoint
	}
	points := make([]stamped, 0, len(data.Data.Points))
	for _, p := range data.Data.Points {
		ts, err := strconv.ParseInt(p.Timestamp, 10, 64)
		if err != nil {
			continue
		}
		points = append(points, stamped{ts, p})
	}
	if len(points) < 2 {
		return models.GlobalAggregate{}, fmt.Errorf("coinmarketcap global: %d usable points: %w", len(points), ErrNoData)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].ts > points[j].ts })

	day := points[1].p
	return models.GlobalAggregate{
		TotalCapUSD:  day.MarketCap,
		StableCapUSD: day.StableValue,
		BTCCapUSD:    day.BTCValue,
		ETHCapUSD:    day.ETHValue,
		Volume24hUSD: day.Volume,
	}, nil
}
