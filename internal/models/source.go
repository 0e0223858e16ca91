package models

import "time"

// SentimentIndex is the latest fear & greed reading.
type SentimentIndex struct {
	Value          float64   `json:"value"`
	Classification string    `json:"classification"`
	Date           time.Time `json:"date"`
}

// SeriesObservation is the latest observation of a named macro series.
type SeriesObservation struct {
	SeriesID string    `json:"seriesId"`
	Value    float64   `json:"value"`
	Date     time.Time `json:"date"`
}

// AssetPrice is an asset's latest close plus closes at fixed look-back offsets.
type AssetPrice struct {
	Symbol      MarketSymbol `json:"symbol"`
	LatestPrice float64      `json:"latestPrice"`
	Volume      float64      `json:"volume"`
	Price7dAgo  float64      `json:"price7dAgo"`
	Price30dAgo float64      `json:"price30dAgo"`
	Price90dAgo float64      `json:"price90dAgo"`
}

// GlobalAggregate holds total crypto market figures for the last complete day.
type GlobalAggregate struct {
	TotalCapUSD  float64 `json:"totalCapUsd"`
	StableCapUSD float64 `json:"stableCapUsd"`
	BTCCapUSD    float64 `json:"btcCapUsd"`
	ETHCapUSD    float64 `json:"ethCapUsd"`
	Volume24hUSD float64 `json:"volume24hUsd"`
}
