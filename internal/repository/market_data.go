package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/marketpulse/internal/models"
)

type MarketDataRepo struct {
	pool *pgxpool.Pool
}

func NewMarketDataRepo(pool *pgxpool.Pool) *MarketDataRepo {
	return &MarketDataRepo{pool: pool}
}

// LatestN returns up to n rows for symbol, newest first.
func (r *MarketDataRepo) LatestN(ctx context.Context, symbol models.MarketSymbol, n int) ([]models.MarketDataPoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT asset_symbol, timestamp, price_usd, volume_usd, market_cap_usd, dominance
		 FROM market_data WHERE asset_symbol = $1
		 ORDER BY timestamp DESC LIMIT $2`,
		string(symbol), n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMarketData(rows)
}

func scanMarketData(row scannable) (models.MarketDataPoint, error) {
	var p models.MarketDataPoint
	var sym string
	var ts time.Time
	if err := row.Scan(&sym, &ts, &p.PriceUSD, &p.VolumeUSD, &p.MarketCapUSD, &p.Dominance); err != nil {
		return p, err
	}
	p.Symbol = models.MarketSymbol(sym)
	p.Date = models.DateOf(ts)
	return p, nil
}

func collectMarketData(rows rowsIter) ([]models.MarketDataPoint, error) {
	out := []models.MarketDataPoint{}
	for rows.Next() {
		p, err := scanMarketData(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
