package external

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjannette/marketpulse/internal/models"
)

// ErrNoData means the provider answered but had nothing usable.
var ErrNoData = errors.New("no data available")

type SentimentSource interface {
	FetchSentimentIndex(ctx context.Context) (models.SentimentIndex, error)
}

type SeriesSource interface {
	FetchNamedSeries(ctx context.Context, seriesID string) (models.SeriesObservation, error)
}

type PriceSource interface {
	FetchAssetRecentPrice(ctx context.Context, symbol models.MarketSymbol) (models.AssetPrice, error)
}

type AggregateSource interface {
	FetchGlobalAggregate(ctx context.Context) (models.GlobalAggregate, error)
}

type settings struct {
	baseURL string
	now     func() time.Time
}

// Option overrides a client's endpoint or clock.
type Option func(*settings)

func WithBaseURL(u string) Option {
	return func(s *settings) { s.baseURL = strings.TrimRight(u, "/") }
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func newSettings(defaultURL string, opts []Option) settings {
	s := settings{baseURL: defaultURL, now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// parseNumber reads a provider's numeric string exactly before converting.
func parseNumber(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}
