package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/kjannette/marketpulse/internal/models"
)

// ErrZeroBase is returned by ReturnOverTime when the past price is zero.
var ErrZeroBase = errors.New("return over time: zero base price")

const SourceComputed = "computed"

// Dominance is part's share of whole. A zero whole yields 0.
func Dominance(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole
}

// Ratio is a/b. A zero b yields 0.
func Ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// ReturnOverTime is the fractional change from past to recent.
func ReturnOverTime(recent, past float64) (float64, error) {
	if past == 0 {
		return 0, ErrZeroBase
	}
	return (recent - past) / past, nil
}

// DerivedMetrics are computed once per daily cycle from the global aggregate
// and the BTC price. Return fields are nil when they could not be computed.
type DerivedMetrics struct {
	At                  time.Time
	BTCDominance        float64
	ETHDominance        float64
	StablecoinDominance float64
	BTCStableRatio      float64
	BTCReturn7d         *float64
	BTCReturn30d        *float64
	BTCReturn90d        *float64

	// Skipped lists metrics that could not be computed and why.
	Skipped []string
}

// ComputeDerived builds the cycle's derived metrics. Dominance figures need
// only the aggregate; returns additionally need a BTC price among prices.
func ComputeDerived(prices []models.AssetPrice, global models.GlobalAggregate, at time.Time) DerivedMetrics {
	d := DerivedMetrics{
		At:                  at,
		BTCDominance:        Dominance(global.BTCCapUSD, global.TotalCapUSD),
		ETHDominance:        Dominance(global.ETHCapUSD, global.TotalCapUSD),
		StablecoinDominance: Dominance(global.StableCapUSD, global.TotalCapUSD),
		BTCStableRatio:      Ratio(global.BTCCapUSD, global.StableCapUSD),
	}

	var btc *models.AssetPrice
	for i := range prices {
		if prices[i].Symbol.IsBTC() {
			btc = &prices[i]
			break
		}
	}
	if btc == nil {
		d.Skipped = append(d.Skipped,
			fmt.Sprintf("%s, %s, %s: no BTC price", models.BtcReturn7d, models.BtcReturn30d, models.BtcReturn90d))
		return d
	}

	d.BTCReturn7d = d.btcReturn(models.BtcReturn7d, btc.LatestPrice, btc.Price7dAgo)
	d.BTCReturn30d = d.btcReturn(models.BtcReturn30d, btc.LatestPrice, btc.Price30dAgo)
	d.BTCReturn90d = d.btcReturn(models.BtcReturn90d, btc.LatestPrice, btc.Price90dAgo)
	return d
}

func (d *DerivedMetrics) btcReturn(name models.MarketSymbol, recent, past float64) *float64 {
	r, err := ReturnOverTime(recent, past)
	if err != nil {
		d.Skipped = append(d.Skipped, fmt.Sprintf("%s: %v", name, err))
		return nil
	}
	return &r
}

// Points flattens the metrics into rows dated on the cycle's calendar day.
func (d DerivedMetrics) Points() []models.MarketMetricPoint {
	out := []models.MarketMetricPoint{
		models.Metric(models.BtcDominance, d.At, d.BTCDominance, SourceComputed),
		models.Metric(models.EthDominance, d.At, d.ETHDominance, SourceComputed),
		models.Metric(models.StablecoinDominance, d.At, d.StablecoinDominance, SourceComputed),
		models.Metric(models.BtcStableRatio, d.At, d.BTCStableRatio, SourceComputed),
	}
	returns := []struct {
		name models.MarketSymbol
		v    *float64
	}{
		{models.BtcReturn7d, d.BTCReturn7d},
		{models.BtcReturn30d, d.BTCReturn30d},
		{models.BtcReturn90d, d.BTCReturn90d},
	}
	for _, r := range returns {
		if r.v != nil {
			out = append(out, models.Metric(r.name, d.At, *r.v, SourceComputed))
		}
	}
	return out
}
