package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kjannette/marketpulse/internal/models"
)

type dataKey struct {
	symbol models.MarketSymbol
	date   time.Time
}

type metricKey struct {
	name models.MarketSymbol
	date time.Time
}

// MemoryStore keeps rows in maps keyed like the Postgres primary keys. It
// implements Store, offers read views matching both repos, and counts
// sessions so callers can check that every one was released.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[dataKey]models.MarketDataPoint
	metrics map[metricKey]models.MarketMetricPoint

	acquired int
	released int

	// FailMetric, when set, makes UpsertMetric fail for matching rows.
	FailMetric func(p models.MarketMetricPoint) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:    make(map[dataKey]models.MarketDataPoint),
		metrics: make(map[metricKey]models.MarketMetricPoint),
	}
}

func (s *MemoryStore) Acquire(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.acquired++
	s.mu.Unlock()
	return &memSession{store: s}, nil
}

// Sessions reports how many sessions were acquired and released.
func (s *MemoryStore) Sessions() (acquired, released int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired, s.released
}

func (s *MemoryStore) upsertData(p models.MarketDataPoint) {
	p.Date = models.DateOf(p.Date)
	s.mu.Lock()
	s.data[dataKey{p.Symbol, p.Date}] = p
	s.mu.Unlock()
}

func (s *MemoryStore) upsertMetric(p models.MarketMetricPoint) error {
	if s.FailMetric != nil {
		if err := s.FailMetric(p); err != nil {
			return err
		}
	}
	p.Date = models.DateOf(p.Date)
	s.mu.Lock()
	s.metrics[metricKey{p.Name, p.Date}] = p
	s.mu.Unlock()
	return nil
}

// Counts returns the number of stored market_data and market_metrics rows.
func (s *MemoryStore) Counts() (data, metrics int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data), len(s.metrics)
}

// MarketData returns a read view with MarketDataRepo's query methods.
func (s *MemoryStore) MarketData() *MemoryMarketData { return &MemoryMarketData{s: s} }

// Metrics returns a read view with MarketMetricRepo's query methods.
func (s *MemoryStore) Metrics() *MemoryMetrics { return &MemoryMetrics{s: s} }

type MemoryMarketData struct{ s *MemoryStore }

func (v *MemoryMarketData) LatestN(_ context.Context, symbol models.MarketSymbol, n int) ([]models.MarketDataPoint, error) {
	v.s.mu.Lock()
	out := []models.MarketDataPoint{}
	for k, p := range v.s.data {
		if k.symbol == symbol {
			out = append(out, p)
		}
	}
	v.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return limit(out, n), nil
}

type MemoryMetrics struct{ s *MemoryStore }

func (v *MemoryMetrics) LatestN(_ context.Context, name models.MarketSymbol, n int) ([]models.MarketMetricPoint, error) {
	out := v.s.metricsFor(name)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return limit(out, n), nil
}

func (v *MemoryMetrics) Latest(ctx context.Context, name models.MarketSymbol) (*models.MarketMetricPoint, error) {
	rows, _ := v.LatestN(ctx, name, 1)
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (v *MemoryMetrics) LatestForNames(ctx context.Context, names []models.MarketSymbol) ([]models.MarketMetricPoint, error) {
	out := []models.MarketMetricPoint{}
	for _, n := range names {
		p, _ := v.Latest(ctx, n)
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (v *MemoryMetrics) Range(_ context.Context, name models.MarketSymbol, from, to time.Time) ([]models.MarketMetricPoint, error) {
	from, to = models.DateOf(from), models.DateOf(to)
	out := []models.MarketMetricPoint{}
	for _, p := range v.s.metricsFor(name) {
		if !p.Date.Before(from) && !p.Date.After(to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) metricsFor(name models.MarketSymbol) []models.MarketMetricPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.MarketMetricPoint{}
	for k, p := range s.metrics {
		if k.name == name {
			out = append(out, p)
		}
	}
	return out
}

func limit[T any](rows []T, n int) []T {
	if n >= 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

type memSession struct {
	store    *MemoryStore
	released bool
}

func (m *memSession) UpsertMarketData(ctx context.Context, p models.MarketDataPoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.store.upsertData(p)
	return nil
}

func (m *memSession) UpsertMetric(ctx context.Context, p models.MarketMetricPoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.store.upsertMetric(p)
}

func (m *memSession) Release() {
	if m.released {
		return
	}
	m.released = true
	m.store.mu.Lock()
	m.store.released++
	m.store.mu.Unlock()
}
