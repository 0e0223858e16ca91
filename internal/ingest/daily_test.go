package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/marketpulse/internal/models"
	"github.com/kjannette/marketpulse/internal/repository"
)

var cycleTime = time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

func newDaily(src DailySources, store repository.Store) *DailyJob {
	return NewDailyJob(src,
		[]string{"DFF", "DGS10", "UNRATE"},
		[]models.MarketSymbol{models.BtcUsd, models.EthUsd, models.Gold},
		store,
		WithClock(func() time.Time { return cycleTime }),
	)
}

func TestDailyJob_FetchToleratesPartialFailure(t *testing.T) {
	job := newDaily(healthySources(), repository.NewMemoryStore())

	res, err := job.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, models.Failed(res.Series), "UNRATE has no fake value")
	assert.Equal(t, "UNRATE", res.Series[2].Key)
	assert.Equal(t, 1, models.Failed(res.Prices), "GOLD has no fake quote")
	assert.Equal(t, string(models.Gold), res.Prices[2].Key)
	require.NotNil(t, res.Derived)
	assert.InDelta(t, 0.5, res.Derived.BTCDominance, 1e-9)
	assert.Equal(t, 72.0, res.Sentiment.Value)
}

func TestDailyJob_SentimentFailureAbortsFetch(t *testing.T) {
	src := healthySources()
	src.Sentiment = &fakeSentiment{err: errors.New("alternative.me down")}

	_, err := newDaily(src, repository.NewMemoryStore()).Fetch(context.Background())
	assert.ErrorContains(t, err, "alternative.me down")
}

func TestDailyJob_GlobalFailureSkipsDerived(t *testing.T) {
	src := healthySources()
	src.Aggregate = &fakeAggregate{err: errors.New("cmc 503")}
	store := repository.NewMemoryStore()
	job := newDaily(src, store)

	res, err := job.Fetch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Derived)

	require.NoError(t, job.Store(context.Background(), res))

	data, metrics := store.Counts()
	assert.Equal(t, 2, data, "BTC and ETH prices")
	assert.Equal(t, 1+2, metrics, "sentiment plus two series")
}

func TestDailyJob_StoreWritesEveryRecord(t *testing.T) {
	store := repository.NewMemoryStore()
	job := newDaily(healthySources(), store)
	ctx := context.Background()

	res, err := job.Fetch(ctx)
	require.NoError(t, err)
	require.NoError(t, job.Store(ctx, res))

	data, metrics := store.Counts()
	assert.Equal(t, 2, data)
	// sentiment + 2 series + 5 global + 7 derived
	assert.Equal(t, 1+2+5+7, metrics)

	fg, err := store.Metrics().Latest(ctx, models.FearGreedIndex)
	require.NoError(t, err)
	require.NotNil(t, fg)
	assert.Equal(t, "Greed", *fg.Source)
	assert.True(t, fg.Date.Equal(models.DateOf(cycleTime)))

	btc, err := store.MarketData().LatestN(ctx, models.BtcUsd, 1)
	require.NoError(t, err)
	require.Len(t, btc, 1)
	assert.Equal(t, 66000.0, btc[0].PriceUSD)
	assert.Equal(t, 1e9, *btc[0].VolumeUSD)

	ret, err := store.Metrics().Latest(ctx, models.BtcReturn7d)
	require.NoError(t, err)
	require.NotNil(t, ret)
	assert.InDelta(t, 0.1, *ret.Value, 1e-9)

	acquired, released := store.Sessions()
	assert.Equal(t, acquired, released)
}

func TestDailyJob_RerunIsIdempotent(t *testing.T) {
	store := repository.NewMemoryStore()
	job := newDaily(healthySources(), store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := job.Fetch(ctx)
		require.NoError(t, err)
		require.NoError(t, job.Store(ctx, res))
	}

	data, metrics := store.Counts()
	assert.Equal(t, 2, data)
	assert.Equal(t, 15, metrics)
}
