package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/kjannette/marketpulse/internal/analytics"
	"github.com/kjannette/marketpulse/internal/external"
	"github.com/kjannette/marketpulse/internal/models"
	"github.com/kjannette/marketpulse/internal/repository"
)

const (
	SourceFRED          = "fred"
	SourceCoinMarketCap = "coinmarketcap"

	keySentiment = "fear_greed"
	keyGlobal    = "global_aggregate"
)

// DailySources are the providers the daily job reads.
type DailySources struct {
	Sentiment external.SentimentSource
	Series    external.SeriesSource
	Prices    external.PriceSource
	Aggregate external.AggregateSource
}

// DailyResult is one daily fetch, consumed once by Store.
type DailyResult struct {
	At        time.Time
	Sentiment models.SentimentIndex
	Series    []models.FetchOutcome[models.SeriesObservation]
	Prices    []models.FetchOutcome[models.AssetPrice]
	Global    models.FetchOutcome[models.GlobalAggregate]
	Derived   *analytics.DerivedMetrics
}

// DailyJob gathers sentiment, macro series, asset prices and the global
// aggregate, and derives dominance and return metrics from them.
type DailyJob struct {
	src    DailySources
	series []string
	assets []models.MarketSymbol
	store  repository.Store
	s      settings
}

func NewDailyJob(src DailySources, series []string, assets []models.MarketSymbol, store repository.Store, opts ...Option) *DailyJob {
	j := &DailyJob{src: src, series: series, assets: assets, store: store, s: newSettings(opts)}
	j.s.log = j.s.log.With().Str("job", j.Name()).Logger()
	return j
}

func (j *DailyJob) Name() string { return "daily" }

// Fetch fails only when the sentiment index is unavailable. Every other
// source failure is recorded in the result and tolerated.
func (j *DailyJob) Fetch(ctx context.Context) (*DailyResult, error) {
	at := j.s.now().UTC()

	sentiment := async(ctx, keySentiment, j.src.Sentiment.FetchSentimentIndex)
	global := async(ctx, keyGlobal, j.src.Aggregate.FetchGlobalAggregate)

	var series []models.FetchOutcome[models.SeriesObservation]
	var prices []models.FetchOutcome[models.AssetPrice]
	done := make(chan struct{})
	go func() {
		defer close(done)
		series = FanOut(ctx, j.series, j.src.Series.FetchNamedSeries)
	}()
	prices = FanOut(ctx, models.Strings(j.assets), func(ctx context.Context, key string) (models.AssetPrice, error) {
		return j.src.Prices.FetchAssetRecentPrice(ctx, models.MarketSymbol(key))
	})
	<-done

	sent := <-sentiment
	res := &DailyResult{
		At:     at,
		Series: series,
		Prices: prices,
		Global: <-global,
	}

	j.reportFailures(res)

	if !sent.OK() {
		j.s.metrics.FetchFailed(j.Name(), keySentiment)
		return nil, fmt.Errorf("sentiment index: %w", sent.Err)
	}
	res.Sentiment = sent.Value

	if res.Global.OK() {
		d := analytics.ComputeDerived(models.Succeeded(prices), res.Global.Value, at)
		for _, reason := range d.Skipped {
			j.s.log.Warn().Str("reason", reason).Msg("derived metric skipped")
		}
		res.Derived = &d
	} else {
		j.s.log.Warn().Msg("global aggregate unavailable, derived metrics skipped")
	}

	j.s.log.Info().
		Int("series_ok", len(series)-models.Failed(series)).
		Int("series_failed", models.Failed(series)).
		Int("prices_ok", len(prices)-models.Failed(prices)).
		Int("prices_failed", models.Failed(prices)).
		Bool("global_ok", res.Global.OK()).
		Msg("daily fetch complete")
	return res, nil
}

func (j *DailyJob) reportFailures(res *DailyResult) {
	fail := func(key string, err error) {
		j.s.log.Warn().Err(err).Str("source", key).Msg("fetch failed")
		j.s.metrics.FetchFailed(j.Name(), key)
	}
	for _, o := range res.Series {
		if !o.OK() {
			fail(o.Key, o.Err)
		}
	}
	for _, o := range res.Prices {
		if !o.OK() {
			fail(o.Key, o.Err)
		}
	}
	if !res.Global.OK() {
		fail(res.Global.Key, res.Global.Err)
	}
}

// Batch maps a fetch result onto storage rows. Failed outcomes contribute
// nothing.
func (r *DailyResult) Batch() Batch {
	var b Batch

	s := r.Sentiment
	b.Metrics = append(b.Metrics, models.Metric(models.FearGreedIndex, r.At, s.Value, s.Classification))

	for _, o := range r.Series {
		if o.OK() {
			b.Metrics = append(b.Metrics,
				models.Metric(models.MarketSymbol(o.Value.SeriesID), o.Value.Date, o.Value.Value, SourceFRED))
		}
	}

	for _, o := range r.Prices {
		if o.OK() {
			b.MarketData = append(b.MarketData, models.MarketDataPoint{
				Symbol:    o.Value.Symbol,
				Date:      models.DateOf(r.At),
				PriceUSD:  o.Value.LatestPrice,
				VolumeUSD: models.Float(o.Value.Volume),
			})
		}
	}

	if r.Global.OK() {
		g := r.Global.Value
		for _, m := range []struct {
			name  models.MarketSymbol
			value float64
		}{
			{models.GlobalTotalMarketCapUsd, g.TotalCapUSD},
			{models.GlobalTotalStableCapUsd, g.StableCapUSD},
			{models.GlobalTotalBtcCapUsd, g.BTCCapUSD},
			{models.GlobalTotalEthCapUsd, g.ETHCapUSD},
			{models.GlobalTotalVolume24hUsd, g.Volume24hUSD},
		} {
			b.Metrics = append(b.Metrics, models.Metric(m.name, r.At, m.value, SourceCoinMarketCap))
		}
	}

	if r.Derived != nil {
		b.Metrics = append(b.Metrics, r.Derived.Points()...)
	}
	return b
}

func (j *DailyJob) Store(ctx context.Context, r *DailyResult) error {
	return storeBatch(ctx, j.Name(), j.store, r.Batch(), j.s)
}

func storeBatch(ctx context.Context, job string, store repository.Store, b Batch, s settings) error {
	sum, err := Persist(ctx, store, b, s.log)
	if err != nil {
		return err
	}
	s.metrics.Persisted(job, sum.Attempted, sum.Failed)

	ev := s.log.Info()
	if sum.Failed > 0 {
		ev = s.log.Warn()
	}
	ev.Int("attempted", sum.Attempted).Int("failed", sum.Failed).Msg("persist complete")
	return nil
}
