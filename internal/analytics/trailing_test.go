package analytics

import (
	"testing"
	"time"

	"github.com/kjannette/marketpulse/internal/models"
)

func floats(vs ...float64) []*float64 {
	out := make([]*float64, len(vs))
	for i := range vs {
		v := vs[i]
		out[i] = &v
	}
	return out
}

func TestTrailingAverage_Window7(t *testing.T) {
	got := TrailingAverage(floats(10, 20, 30, 40, 50, 60, 70), 7)
	if !approx(got[6], 40) {
		t.Fatalf("expected last value 40, got %f", got[6])
	}
	if !approx(got[0], 10) {
		t.Fatalf("expected first value 10, got %f", got[0])
	}
}

func TestTrailingAverage_Window3(t *testing.T) {
	got := TrailingAverage(floats(10, 20, 30, 40, 50, 60, 70), 3)
	want := []float64{10, 15, 20, 30, 40, 50, 60}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Errorf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestTrailingAverage_SkipsNulls(t *testing.T) {
	values := floats(10, 0, 30)
	values[1] = nil

	got := TrailingAverage(values, 3)
	if !approx(got[1], 10) {
		t.Fatalf("expected 10 at null position, got %f", got[1])
	}
	if !approx(got[2], 20) {
		t.Fatalf("expected 20, got %f", got[2])
	}
}

func TestTrailingAverage_MixedMagnitudes(t *testing.T) {
	values := floats(1e17, 1, 3)

	got := TrailingAverage(values, 1)
	want := []float64{1e17, 1, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("window 1, index %d: expected %g, got %g", i, want[i], got[i])
		}
	}

	// The large value has left the window by the last position.
	got = TrailingAverage(values, 2)
	if got[2] != 2 {
		t.Fatalf("window 2: expected 2 at last position, got %g", got[2])
	}
}

func TestTrailingAverage_AllNull(t *testing.T) {
	got := TrailingAverage([]*float64{nil, nil}, 7)
	for i, v := range got {
		if v != 0 {
			t.Errorf("index %d: expected 0, got %f", i, v)
		}
	}
}

func TestTrailingAverage_WindowLargerThanSeries(t *testing.T) {
	got := TrailingAverage(floats(1, 2, 3), 21)
	if !approx(got[2], 2) {
		t.Fatalf("expected 2, got %f", got[2])
	}
}

func TestTrailingAverage_Empty(t *testing.T) {
	if got := TrailingAverage(nil, 7); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestSentimentSeries_SortsAndRounds(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	points := []models.MarketMetricPoint{
		models.Metric(models.FearGreedIndex, day(3), 30, "Fear"),
		models.Metric(models.FearGreedIndex, day(1), 10, "Extreme Fear"),
		models.Metric(models.FearGreedIndex, day(2), 21, "Extreme Fear"),
	}

	rows := SentimentSeries(points)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if !rows[0].Date.Equal(day(1)) || !rows[2].Date.Equal(day(3)) {
		t.Fatalf("rows not sorted by date: %v, %v", rows[0].Date, rows[2].Date)
	}
	// (10 + 21) / 2 = 15.5
	if rows[1].Avg7d != 16 {
		t.Errorf("expected rounded 7d average 16, got %d", rows[1].Avg7d)
	}
	if rows[2].Avg21d != 20 {
		t.Errorf("expected 21d average 20, got %d", rows[2].Avg21d)
	}
	if rows[2].Classification != "Fear" || rows[2].Value != 30 {
		t.Errorf("unexpected last row: %+v", rows[2])
	}
}
