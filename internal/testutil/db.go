package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/kjannette/marketpulse/internal/db"
)

// SetupPool connects to TEST_DATABASE_URL and applies the schema. Tests are
// skipped when no test database is configured.
func SetupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn, db.DefaultPool)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

// Cleanup deletes rows written under the given names when the test ends.
func Cleanup(t *testing.T, pool *pgxpool.Pool, names ...string) {
	t.Helper()
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = pool.Exec(ctx, `DELETE FROM market_data WHERE asset_symbol = ANY($1)`, names)
		_, _ = pool.Exec(ctx, `DELETE FROM market_metrics WHERE name = ANY($1)`, names)
	})
}
