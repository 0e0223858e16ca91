package ingest

import (
	"context"
	"errors"
	"sync"

	"github.com/kjannette/marketpulse/internal/models"
)

type fakeSentiment struct {
	value models.SentimentIndex
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeSentiment) FetchSentimentIndex(context.Context) (models.SentimentIndex, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.value, f.err
}

type fakeSeries struct {
	values map[string]float64
}

func (f *fakeSeries) FetchNamedSeries(_ context.Context, id string) (models.SeriesObservation, error) {
	v, ok := f.values[id]
	if !ok {
		return models.SeriesObservation{}, errors.New("series unavailable: " + id)
	}
	return models.SeriesObservation{SeriesID: id, Value: v, Date: testDay}, nil
}

type fakePrices struct {
	prices map[models.MarketSymbol]models.AssetPrice
}

func (f *fakePrices) FetchAssetRecentPrice(_ context.Context, s models.MarketSymbol) (models.AssetPrice, error) {
	p, ok := f.prices[s]
	if !ok {
		return models.AssetPrice{}, errors.New("no quote for " + s.String())
	}
	return p, nil
}

type fakeAggregate struct {
	value models.GlobalAggregate
	err   error
}

func (f *fakeAggregate) FetchGlobalAggregate(context.Context) (models.GlobalAggregate, error) {
	return f.value, f.err
}

func healthySources() DailySources {
	return DailySources{
		Sentiment: &fakeSentiment{value: models.SentimentIndex{Value: 72, Classification: "Greed", Date: testDay}},
		Series:    &fakeSeries{values: map[string]float64{"DFF": 5.33, "DGS10": 4.1}},
		Prices: &fakePrices{prices: map[models.MarketSymbol]models.AssetPrice{
			models.BtcUsd: {Symbol: models.BtcUsd, LatestPrice: 66000, Volume: 1e9, Price7dAgo: 60000, Price30dAgo: 55000, Price90dAgo: 44000},
			models.EthUsd: {Symbol: models.EthUsd, LatestPrice: 3000, Volume: 5e8, Price7dAgo: 2900, Price30dAgo: 2500, Price90dAgo: 2000},
		}},
		Aggregate: &fakeAggregate{value: models.GlobalAggregate{
			TotalCapUSD: 2000, StableCapUSD: 200, BTCCapUSD: 1000, ETHCapUSD: 400, Volume24hUSD: 90,
		}},
	}
}
