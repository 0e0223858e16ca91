package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kjannette/marketpulse/internal/models"
	"github.com/kjannette/marketpulse/internal/repository"
)

// Batch is everything one cycle writes.
type Batch struct {
	MarketData []models.MarketDataPoint
	Metrics    []models.MarketMetricPoint
}

func (b Batch) Len() int { return len(b.MarketData) + len(b.Metrics) }

type PersistSummary struct {
	Attempted int
	Failed    int
}

// Persist upserts every record of b through one session. A failed record is
// logged and skipped; only failing to obtain the session is returned.
func Persist(ctx context.Context, store repository.Store, b Batch, log zerolog.Logger) (PersistSummary, error) {
	var sum PersistSummary

	sess, err := store.Acquire(ctx)
	if err != nil {
		return sum, fmt.Errorf("persist: %w", err)
	}
	defer sess.Release()

	for _, p := range b.MarketData {
		sum.Attempted++
		if err := sess.UpsertMarketData(ctx, p); err != nil {
			sum.Failed++
			log.Warn().Err(err).
				Str("symbol", p.Symbol.String()).
				Str("date", p.Date.Format(models.DateLayout)).
				Msg("failed to persist market data")
		}
	}
	for _, p := range b.Metrics {
		sum.Attempted++
		if err := sess.UpsertMetric(ctx, p); err != nil {
			sum.Failed++
			log.Warn().Err(err).
				Str("metric", p.Name.String()).
				Str("date", p.Date.Format(models.DateLayout)).
				Msg("failed to persist metric")
		}
	}
	return sum, nil
}
