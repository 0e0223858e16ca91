package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/marketpulse/internal/models"
)

const metricColumns = `name, timestamp, value, source`

type MarketMetricRepo struct {
	pool *pgxpool.Pool
}

func NewMarketMetricRepo(pool *pgxpool.Pool) *MarketMetricRepo {
	return &MarketMetricRepo{pool: pool}
}

// LatestN returns up to n rows for name, newest first.
func (r *MarketMetricRepo) LatestN(ctx context.Context, name models.MarketSymbol, n int) ([]models.MarketMetricPoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+metricColumns+` FROM market_metrics WHERE name = $1
		 ORDER BY timestamp DESC LIMIT $2`,
		string(name), n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMetrics(rows)
}

// Latest returns the newest row for name, or nil if there is none.
func (r *MarketMetricRepo) Latest(ctx context.Context, name models.MarketSymbol) (*models.MarketMetricPoint, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+metricColumns+` FROM market_metrics WHERE name = $1
		 ORDER BY timestamp DESC LIMIT 1`,
		string(name),
	)
	p, err := scanMetric(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// LatestForNames returns the newest row of each name that has any data.
func (r *MarketMetricRepo) LatestForNames(ctx context.Context, names []models.MarketSymbol) ([]models.MarketMetricPoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (name) `+metricColumns+` FROM market_metrics
		 WHERE name = ANY($1)
		 ORDER BY name, timestamp DESC`,
		models.Strings(names),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMetrics(rows)
}

// Range returns rows for name with from <= date <= to, oldest first.
func (r *MarketMetricRepo) Range(ctx context.Context, name models.MarketSymbol, from, to time.Time) ([]models.MarketMetricPoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+metricColumns+` FROM market_metrics
		 WHERE name = $1 AND timestamp >= $2 AND timestamp <= $3
		 ORDER BY timestamp ASC`,
		string(name), models.DateOf(from), models.DateOf(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMetrics(rows)
}

func scanMetric(row scannable) (models.MarketMetricPoint, error) {
	var p models.MarketMetricPoint
	var name string
	var ts time.Time
	if err := row.Scan(&name, &ts, &p.Value, &p.Source); err != nil {
		return p, err
	}
	p.Name = models.MarketSymbol(name)
	p.Date = models.DateOf(ts)
	return p, nil
}

func collectMetrics(rows rowsIter) ([]models.MarketMetricPoint, error) {
	out := []models.MarketMetricPoint{}
	for rows.Next() {
		p, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
