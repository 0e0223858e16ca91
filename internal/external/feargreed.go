package external

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/kjannette/marketpulse/internal/httputil"
	"github.com/kjannette/marketpulse/internal/models"
)

const alternativeMeURL = "https://api.alternative.me/fng/"

// FearGreedClient reads the crypto fear & greed index from alternative.me.
type FearGreedClient struct {
	http *httputil.Client
	cfg  settings
}

func NewFearGreedClient(hc *httputil.Client, opts ...Option) *FearGreedClient {
	return &FearGreedClient{http: hc, cfg: newSettings(alternativeMeURL, opts)}
}

func (c *FearGreedClient) FetchSentimentIndex(ctx context.Context) (models.SentimentIndex, error) {
	var data struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
			Timestamp      string `json:"timestamp"`
		} `json:"data"`
	}
	if err := c.http.GetJSON(ctx, c.cfg.baseURL, url.Values{"limit": {"1"}}, &data); err != nil {
		return models.SentimentIndex{}, fmt.Errorf("fear & greed fetch: %w", err)
	}
	if len(data.Data) == 0 {
		return models.SentimentIndex{}, fmt.Errorf("fear & greed: %w", ErrNoData)
	}

	item := data.Data[0]
	value, err := parseNumber(item.Value)
	if err != nil {
		return models.SentimentIndex{}, fmt.Errorf("fear & greed value: %w", err)
	}
	ts, err := strconv.ParseInt(item.Timestamp, 10, 64)
	if err != nil {
		return models.SentimentIndex{}, fmt.Errorf("fear & greed timestamp %q: %w", item.Timestamp, err)
	}

	return models.SentimentIndex{
		Value:          value,
		Classification: item.Classification,
		Date:           models.DateOf(time.Unix(ts, 0)),
	}, nil
}
