// Package dbtest opens the database integration tests run against. Tests
// using it are skipped unless DATABASE_URL is set.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/restaurant-ops/internal/db"
	"github.com/example/restaurant-ops/internal/migrate"
)

// Open connects to DATABASE_URL and brings the schema up to date.
func Open(t testing.TB) *db.DB {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set; skipping postgres integration test")
	}
	ctx := context.Background()
	d, err := db.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	require.NoError(t, d.Ping(ctx))
	require.NoError(t, migrate.Up(ctx, d))
	return d
}

// Restaurant inserts a restaurant with seats and removes it, and everything
// referencing it, when the test ends.
func Restaurant(t testing.TB, d *db.DB, seats *int) string {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, d.Exec(ctx, `INSERT INTO restaurants (id, name, total_seats) VALUES ($1, $2, $3)`,
		id, "test "+id[:8], seats))
	t.Cleanup(func() {
		_ = d.Exec(context.Background(), `DELETE FROM restaurants WHERE id=$1`, id)
	})
	return id
}
