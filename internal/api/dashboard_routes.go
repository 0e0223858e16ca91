package api

import (
	"context"
	"net/http"

	"github.com/kjannette/marketpulse/internal/analytics"
	"github.com/kjannette/marketpulse/internal/models"
)

const (
	dashboardPriceDays     = 365
	dashboardSentimentDays = 378
)

type dashboardResponse struct {
	Snapshots    []assetSnapshot `json:"snapshots"`
	FearGreed    []fearGreedJSON `json:"fear_greed"`
	MacroMetrics []metricJSON    `json:"macro_metrics"`
}

type assetSnapshot struct {
	Symbol  string       `json:"symbol"`
	Prices  []priceJSON  `json:"prices"`
	Metrics []metricJSON `json:"metrics"`
}

type priceJSON struct {
	Timestamp    string   `json:"timestamp"`
	PriceUSD     float64  `json:"price_usd"`
	VolumeUSD    *float64 `json:"volume_usd"`
	MarketCapUSD *float64 `json:"market_cap_usd"`
	Dominance    *float64 `json:"dominance"`
}

type metricJSON struct {
	Timestamp string  `json:"timestamp"`
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Source    string  `json:"source,omitempty"`
}

type fearGreedJSON struct {
	Timestamp      string `json:"timestamp"`
	Value          int    `json:"value"`
	Avg7d          int    `json:"value_avg_7d"`
	Avg14d         int    `json:"value_avg_14d"`
	Avg21d         int    `json:"value_avg_21d"`
	Classification string `json:"classification"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	btc, err := s.snapshot(ctx, models.BtcUsd, models.BTCMetrics())
	if err != nil {
		s.log.Error().Err(err).Str("symbol", models.BtcUsd.String()).Msg("dashboard snapshot failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch dashboard")
		return
	}
	eth, err := s.snapshot(ctx, models.EthUsd, models.ETHMetrics())
	if err != nil {
		s.log.Error().Err(err).Str("symbol", models.EthUsd.String()).Msg("dashboard snapshot failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch dashboard")
		return
	}

	fg, err := s.metrics.LatestN(ctx, models.FearGreedIndex, dashboardSentimentDays)
	if err != nil {
		s.log.Error().Err(err).Msg("dashboard fear & greed failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch dashboard")
		return
	}

	macro, err := s.macroMetrics(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("dashboard macro metrics failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch dashboard")
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Snapshots:    []assetSnapshot{btc, eth},
		FearGreed:    toFearGreedJSON(analytics.SentimentSeries(fg)),
		MacroMetrics: macro,
	})
}

func (s *Server) snapshot(ctx context.Context, symbol models.MarketSymbol, names []models.MarketSymbol) (assetSnapshot, error) {
	prices, err := s.data.LatestN(ctx, symbol, dashboardPriceDays)
	if err != nil {
		return assetSnapshot{}, err
	}
	metrics, err := s.metrics.LatestForNames(ctx, names)
	if err != nil {
		return assetSnapshot{}, err
	}
	return assetSnapshot{
		Symbol:  symbol.String(),
		Prices:  toPriceJSON(prices),
		Metrics: toMetricJSON(metrics),
	}, nil
}

// macroMetrics combines the latest asset closes and the latest macro series
// into one grid.
func (s *Server) macroMetrics(ctx context.Context) ([]metricJSON, error) {
	var assets, series []models.MarketSymbol
	for _, m := range models.MacroMetrics() {
		if m.YahooTicker() != "" {
			assets = append(assets, m)
		} else {
			series = append(series, m)
		}
	}

	out := []metricJSON{}
	for _, a := range assets {
		rows, err := s.data.LatestN(ctx, a, 1)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			out = append(out, metricJSON{
				Timestamp: rows[0].Date.Format(models.DateLayout),
				Name:      a.String(),
				Value:     rows[0].PriceUSD,
			})
		}
	}

	rows, err := s.metrics.LatestForNames(ctx, series)
	if err != nil {
		return nil, err
	}
	return append(out, toMetricJSON(rows)...), nil
}

func toPriceJSON(rows []models.MarketDataPoint) []priceJSON {
	out := make([]priceJSON, len(rows))
	for i, p := range rows {
		out[i] = priceJSON{
			Timestamp:    p.Date.Format(models.DateLayout),
			PriceUSD:     p.PriceUSD,
			VolumeUSD:    p.VolumeUSD,
			MarketCapUSD: p.MarketCapUSD,
			Dominance:    p.Dominance,
		}
	}
	return out
}

func toMetricJSON(rows []models.MarketMetricPoint) []metricJSON {
	out := make([]metricJSON, len(rows))
	for i, p := range rows {
		m := metricJSON{Timestamp: p.Date.Format(models.DateLayout), Name: p.Name.String()}
		if p.Value != nil {
			m.Value = *p.Value
		}
		if p.Source != nil {
			m.Source = *p.Source
		}
		out[i] = m
	}
	return out
}

func toFearGreedJSON(rows []analytics.SentimentRow) []fearGreedJSON {
	out := make([]fearGreedJSON, len(rows))
	for i, r := range rows {
		out[i] = fearGreedJSON{
			Timestamp:      r.Date.Format(models.DateLayout),
			Value:          r.Value,
			Avg7d:          r.Avg7d,
			Avg14d:         r.Avg14d,
			Avg21d:         r.Avg21d,
			Classification: r.Classification,
		}
	}
	return out
}
