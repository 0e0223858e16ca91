package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/kjannette/marketpulse/internal/models"
)

// TrailingAverage smooths a date-ordered series. Position i averages the
// non-nil values in [max(0, i-window+1), i]; a range with no values yields 0.
// Windows shorter than 1 are treated as 1.
func TrailingAverage(values []*float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	for i := range values {
		var sum float64
		var count int
		for _, v := range values[max(0, i-window+1) : i+1] {
			if v != nil {
				sum += *v
				count++
			}
		}
		if count > 0 {
			out[i] = sum / float64(count)
		}
	}
	return out
}

// SentimentWindows are the smoothing windows shown next to the raw index.
var SentimentWindows = [3]int{7, 14, 21}

// SentimentRow is one day of the index with its trailing averages.
type SentimentRow struct {
	Date           time.Time
	Value          int
	Avg7d          int
	Avg14d         int
	Avg21d         int
	Classification string
}

// SentimentSeries sorts stored fear & greed rows by date and attaches the
// trailing averages. The classification is carried in the row's source.
func SentimentSeries(points []models.MarketMetricPoint) []SentimentRow {
	data := make([]models.MarketMetricPoint, len(points))
	copy(data, points)
	sort.SliceStable(data, func(i, j int) bool { return data[i].Date.Before(data[j].Date) })

	values := make([]*float64, len(data))
	for i, p := range data {
		values[i] = p.Value
	}
	a7 := TrailingAverage(values, SentimentWindows[0])
	a14 := TrailingAverage(values, SentimentWindows[1])
	a21 := TrailingAverage(values, SentimentWindows[2])

	rows := make([]SentimentRow, len(data))
	for i, p := range data {
		row := SentimentRow{
			Date:   p.Date,
			Avg7d:  round(a7[i]),
			Avg14d: round(a14[i]),
			Avg21d: round(a21[i]),
		}
		if p.Value != nil {
			row.Value = round(*p.Value)
		}
		if p.Source != nil {
			row.Classification = *p.Source
		}
		rows[i] = row
	}
	return rows
}

func round(v float64) int { return int(math.Round(v)) }
