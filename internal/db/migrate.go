package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS market_data (
		asset_symbol   VARCHAR(16)      NOT NULL,
		timestamp      DATE             NOT NULL,
		price_usd      DOUBLE PRECISION NOT NULL,
		volume_usd     DOUBLE PRECISION,
		market_cap_usd DOUBLE PRECISION,
		dominance      DOUBLE PRECISION,
		PRIMARY KEY (asset_symbol, timestamp)
	)`,
	`CREATE TABLE IF NOT EXISTS market_metrics (
		name      VARCHAR(128) NOT NULL,
		timestamp DATE         NOT NULL,
		value     DOUBLE PRECISION,
		source    VARCHAR(64),
		PRIMARY KEY (name, timestamp)
	)`,
}

// Migrate creates the ingestion tables if they do not exist.
func Migrate(ctx context.Context, p *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := p.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
