package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kjannette/marketpulse/internal/external"
	"github.com/kjannette/marketpulse/internal/models"
	"github.com/kjannette/marketpulse/internal/repository"
)

// MonthlyResult holds one M2 observation per requested economy, keyed by
// metric name.
type MonthlyResult struct {
	At     time.Time
	Series []models.FetchOutcome[models.SeriesObservation]
}

// MonthlyJob collects the M2 money stock of each economy.
type MonthlyJob struct {
	series  external.SeriesSource
	metrics []models.MarketSymbol
	store   repository.Store
	s       settings
}

func NewMonthlyJob(series external.SeriesSource, metrics []models.MarketSymbol, store repository.Store, opts ...Option) *MonthlyJob {
	j := &MonthlyJob{series: series, metrics: metrics, store: store, s: newSettings(opts)}
	j.s.log = j.s.log.With().Str("job", j.Name()).Logger()
	return j
}

func (j *MonthlyJob) Name() string { return "monthly" }

// Fetch fails only when no economy could be fetched.
func (j *MonthlyJob) Fetch(ctx context.Context) (*MonthlyResult, error) {
	res := &MonthlyResult{At: j.s.now().UTC()}
	res.Series = FanOut(ctx, models.Strings(j.metrics), func(ctx context.Context, key string) (models.SeriesObservation, error) {
		id := models.MarketSymbol(key).FREDSeriesID()
		if id == "" {
			return models.SeriesObservation{}, fmt.Errorf("%s: no FRED series mapped", key)
		}
		return j.series.FetchNamedSeries(ctx, id)
	})

	var errs []error
	for _, o := range res.Series {
		if !o.OK() {
			j.s.log.Warn().Err(o.Err).Str("source", o.Key).Msg("fetch failed")
			j.s.metrics.FetchFailed(j.Name(), o.Key)
			errs = append(errs, o.Err)
		}
	}
	if len(res.Series) > 0 && len(errs) == len(res.Series) {
		return nil, fmt.Errorf("all %d M2 series failed: %w", len(errs), errors.Join(errs...))
	}

	j.s.log.Info().
		Int("ok", len(res.Series)-len(errs)).
		Int("failed", len(errs)).
		Msg("monthly fetch complete")
	return res, nil
}

func (r *MonthlyResult) Batch() Batch {
	var b Batch
	for _, o := range r.Series {
		if o.OK() {
			b.Metrics = append(b.Metrics,
				models.Metric(models.MarketSymbol(o.Key), o.Value.Date, o.Value.Value, SourceFRED))
		}
	}
	return b
}

func (j *MonthlyJob) Store(ctx context.Context, r *MonthlyResult) error {
	return storeBatch(ctx, j.Name(), j.store, r.Batch(), j.s)
}
