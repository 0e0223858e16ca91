package models

// MarketSymbol names an asset or a metric series. Every persisted row is keyed
// by one of these values.
type MarketSymbol string

// Tradable assets (market_data rows).
const (
	BtcUsd   MarketSymbol = "BTC_USD"
	EthUsd   MarketSymbol = "ETH_USD"
	Gold     MarketSymbol = "GOLD_USD"
	Oil      MarketSymbol = "OIL_USD"
	Sp500    MarketSymbol = "SP500_USD"
	Nasdaq   MarketSymbol = "NASDAQ_USD"
	UsdIndex MarketSymbol = "USD_INDEX_USD"
)

// FRED macro series (market_metrics rows, source "fred").
const (
	DFF      MarketSymbol = "DFF"      // Federal Funds Rate
	T10Y2Y   MarketSymbol = "T10Y2Y"   // 10Y-2Y Treasury Spread
	DEXUSEU  MarketSymbol = "DEXUSEU"  // USD/EUR Exchange Rate
	CPIAUCSL MarketSymbol = "CPIAUCSL" // Consumer Price Index
	DGS10    MarketSymbol = "DGS10"    // 10-Year Treasury Constant Maturity Rate
	DGS2     MarketSymbol = "DGS2"     // 2-Year Treasury Constant Maturity Rate
	M2SL     MarketSymbol = "M2SL"     // M2 Money Stock
	UNRATE   MarketSymbol = "UNRATE"   // Unemployment Rate
	FEDFUNDS MarketSymbol = "FEDFUNDS" // Effective Federal Funds Rate
)

// Computed metrics (source "computed").
const (
	BtcDominance        MarketSymbol = "BTC_DOMINANCE"
	EthDominance        MarketSymbol = "ETH_DOMINANCE"
	StablecoinDominance MarketSymbol = "STABLECOIN_DOMINANCE"
	BtcStableRatio      MarketSymbol = "BTC_STABLE_RATIO"
	BtcReturn7d         MarketSymbol = "BTC_RETURN_7D"
	BtcReturn30d        MarketSymbol = "BTC_RETURN_30D"
	BtcReturn90d        MarketSymbol = "BTC_RETURN_90D"
)

// Global crypto aggregates (source "coinmarketcap").
const (
	GlobalTotalMarketCapUsd MarketSymbol = "GLOBAL_TOTAL_MARKET_CAP_USD"
	GlobalTotalStableCapUsd MarketSymbol = "GLOBAL_TOTAL_STABLE_CAP_USD"
	GlobalTotalBtcCapUsd    MarketSymbol = "GLOBAL_TOTAL_BTC_CAP_USD"
	GlobalTotalEthCapUsd    MarketSymbol = "GLOBAL_TOTAL_ETH_CAP_USD"
	GlobalTotalVolume24hUsd MarketSymbol = "GLOBAL_TOTAL_VOLUME_24H_USD"
)

const FearGreedIndex MarketSymbol = "FEAR_GREED_INDEX"

// Monthly M2 money stock per economy.
const (
	M2US MarketSymbol = "M2_US"
	M2EU MarketSymbol = "M2_EU"
	M2UK MarketSymbol = "M2_UK"
	M2JP MarketSymbol = "M2_JP"
	M2CA MarketSymbol = "M2_CA"
	M2CN MarketSymbol = "M2_CN"
)

var yahooTickers = map[MarketSymbol]string{
	BtcUsd:   "BTC-USD",
	EthUsd:   "ETH-USD",
	Gold:     "GC=F",
	Oil:      "CL=F",
	Sp500:    "^GSPC",
	Nasdaq:   "^IXIC",
	UsdIndex: "DX-Y.NYB",
}

// m2Series maps each M2 metric to the FRED series that carries it.
var m2Series = map[MarketSymbol]string{
	M2US: "M2SL",
	M2EU: "MYAGM2EZM196N",
	M2UK: "MABMM301GBM189S",
	M2JP: "MYAGM2JPM189N",
	M2CA: "MABMM301CAM189S",
	M2CN: "MYAGM2CNM189N",
}

func (s MarketSymbol) String() string { return string(s) }

// YahooTicker returns the Yahoo Finance ticker for an asset symbol, or "" if
// the symbol is not a tradable asset.
func (s MarketSymbol) YahooTicker() string {
	return yahooTickers[s]
}

// FREDSeriesID returns the FRED series backing an M2 metric, or "".
func (s MarketSymbol) FREDSeriesID() string {
	return m2Series[s]
}

func (s MarketSymbol) IsBTC() bool { return s == BtcUsd }

// IsKnown reports whether s belongs to the fixed symbol set.
func (s MarketSymbol) IsKnown() bool {
	_, ok := known[s]
	return ok
}

var known = func() map[MarketSymbol]struct{} {
	out := make(map[MarketSymbol]struct{})
	groups := [][]MarketSymbol{
		DefaultAssets(), FREDSeries(), BTCMetrics(), ETHMetrics(), GlobalMetrics(), M2Metrics(),
		{StablecoinDominance, FearGreedIndex},
	}
	for _, g := range groups {
		for _, s := range g {
			out[s] = struct{}{}
		}
	}
	return out
}()

func DefaultAssets() []MarketSymbol {
	return []MarketSymbol{BtcUsd, EthUsd, Gold, Oil, Sp500, Nasdaq, UsdIndex}
}

func FREDSeries() []MarketSymbol {
	return []MarketSymbol{DFF, T10Y2Y, DEXUSEU, CPIAUCSL, DGS10, DGS2, M2SL, UNRATE, FEDFUNDS}
}

func BTCMetrics() []MarketSymbol {
	return []MarketSymbol{BtcDominance, BtcStableRatio, BtcReturn7d, BtcReturn30d, BtcReturn90d}
}

func ETHMetrics() []MarketSymbol {
	return []MarketSymbol{EthDominance}
}

func GlobalMetrics() []MarketSymbol {
	return []MarketSymbol{
		GlobalTotalMarketCapUsd, GlobalTotalStableCapUsd, GlobalTotalBtcCapUsd,
		GlobalTotalEthCapUsd, GlobalTotalVolume24hUsd,
	}
}

// MacroMetrics lists the names shown in the dashboard macro grid.
func MacroMetrics() []MarketSymbol {
	return append([]MarketSymbol{Gold, Oil, Sp500, Nasdaq, UsdIndex}, FREDSeries()...)
}

func M2Metrics() []MarketSymbol {
	return []MarketSymbol{M2US, M2EU, M2UK, M2JP, M2CA, M2CN}
}

// ParseSymbols converts raw names into symbols, dropping unknown entries.
func ParseSymbols(names []string) []MarketSymbol {
	out := make([]MarketSymbol, 0, len(names))
	for _, n := range names {
		s := MarketSymbol(n)
		if s.IsKnown() {
			out = append(out, s)
		}
	}
	return out
}

// Strings returns the raw names of syms.
func Strings(syms []MarketSymbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = string(s)
	}
	return out
}
