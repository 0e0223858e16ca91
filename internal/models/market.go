package models

import "time"

// DateLayout is the wire and log format for calendar dates.
const DateLayout = "2006-01-02"

// MarketDataPoint is one asset observation for one calendar date.
// Natural key: (Symbol, Date).
type MarketDataPoint struct {
	Symbol       MarketSymbol `json:"symbol"`
	Date         time.Time    `json:"date"`
	PriceUSD     float64      `json:"priceUsd"`
	VolumeUSD    *float64     `json:"volumeUsd,omitempty"`
	MarketCapUSD *float64     `json:"marketCapUsd,omitempty"`
	Dominance    *float64     `json:"dominance,omitempty"`
}

// MarketMetricPoint is one named scalar for one calendar date. Macro series,
// sentiment, global aggregates and computed metrics all share this shape.
// Natural key: (Name, Date).
type MarketMetricPoint struct {
	Name   MarketSymbol `json:"name"`
	Date   time.Time    `json:"date"`
	Value  *float64     `json:"value,omitempty"`
	Source *string      `json:"source,omitempty"`
}

// Metric builds a MarketMetricPoint with a value and source label.
func Metric(name MarketSymbol, date time.Time, value float64, source string) MarketMetricPoint {
	return MarketMetricPoint{Name: name, Date: DateOf(date), Value: &value, Source: &source}
}

// DateOf truncates t to midnight UTC of its UTC calendar day.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Str returns a pointer to s.
func Str(s string) *string { return &s }
