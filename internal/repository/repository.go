package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/marketpulse/internal/models"
)

// Session is a unit of writes bound to one storage connection. Release must
// be called exactly once.
type Session interface {
	UpsertMarketData(ctx context.Context, p models.MarketDataPoint) error
	UpsertMetric(ctx context.Context, p models.MarketMetricPoint) error
	Release()
}

// Store hands out write sessions.
type Store interface {
	Acquire(ctx context.Context) (Session, error)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const upsertMarketDataSQL = `
INSERT INTO market_data (asset_symbol, timestamp, price_usd, volume_usd, market_cap_usd, dominance)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (asset_symbol, timestamp) DO UPDATE SET
	price_usd      = EXCLUDED.price_usd,
	volume_usd     = EXCLUDED.volume_usd,
	market_cap_usd = EXCLUDED.market_cap_usd,
	dominance      = EXCLUDED.dominance`

const upsertMetricSQL = `
INSERT INTO market_metrics (name, timestamp, value, source)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name, timestamp) DO UPDATE SET
	value  = EXCLUDED.value,
	source = EXCLUDED.source`

func upsertMarketData(ctx context.Context, db execer, p models.MarketDataPoint) error {
	_, err := db.Exec(ctx, upsertMarketDataSQL,
		string(p.Symbol), models.DateOf(p.Date), p.PriceUSD, p.VolumeUSD, p.MarketCapUSD, p.Dominance,
	)
	if err != nil {
		return fmt.Errorf("upsert market_data %s %s: %w", p.Symbol, p.Date.Format(models.DateLayout), err)
	}
	return nil
}

func upsertMetric(ctx context.Context, db execer, p models.MarketMetricPoint) error {
	_, err := db.Exec(ctx, upsertMetricSQL, string(p.Name), models.DateOf(p.Date), p.Value, p.Source)
	if err != nil {
		return fmt.Errorf("upsert market_metrics %s %s: %w", p.Name, p.Date.Format(models.DateLayout), err)
	}
	return nil
}

// PgStore acquires pooled connections for write sessions.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Acquire(ctx context.Context) (Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &pgSession{conn: conn}, nil
}

type pgSession struct {
	conn *pgxpool.Conn
}

func (s *pgSession) UpsertMarketData(ctx context.Context, p models.MarketDataPoint) error {
	return upsertMarketData(ctx, s.conn, p)
}

func (s *pgSession) UpsertMetric(ctx context.Context, p models.MarketMetricPoint) error {
	return upsertMetric(ctx, s.conn, p)
}

func (s *pgSession) Release() { s.conn.Release() }

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}
