package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"astrotech/internal/config"
)

// setupIntegrationPool connects with the DB_* variables or skips the test.
func setupIntegrationPool(t *testing.T, mutate func(*config.Database)) *Pool {
	t.Helper()

	cfg, err := config.LoadDatabase()
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
	}
	if cfg.Host == "" {
		t.Skip("Skipping integration test: DB_HOST not set")
	}
	if mutate != nil {
		mutate(&cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := Open(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Skipf("Skipping integration test: cannot open pool: %v", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		t.Skipf("Skipping integration test: cannot ping DB: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestIntegrationExecuteRoundTrip(t *testing.T) {
	// Temp tables live on one connection, so keep the pool to a single one.
	p := setupIntegrationPool(t, func(c *config.Database) { c.MaxConns = 1 })
	ctx := context.Background()

	_, _, err := p.Execute(ctx, `CREATE TEMP TABLE IF NOT EXISTS it_interventions(
		id   serial PRIMARY KEY,
		code text NOT NULL UNIQUE,
		note text
	)`)
	require.NoError(t, err)

	assert.Equal(t, int32(1), p.Stats().MaxConns)

	rows, fields, err := p.Execute(ctx,
		"INSERT INTO it_interventions (code, note) VALUES (?, ?) RETURNING id, code, note",
		"INT-001", "first visit")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "INT-001", rows[0]["code"])
	require.Len(t, fields, 3)
	assert.Equal(t, "id", fields[0].Name)
	assert.NotZero(t, fields[0].DataTypeID)

	_, _, err = p.Execute(ctx,
		"INSERT INTO it_interventions (code, note) VALUES (?, ?)",
		"INT-001", "duplicate")
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23505", pgErr.Code)

	rows, _, err = p.Execute(ctx, "SELECT code FROM it_interventions WHERE code = ?", "INT-001")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestIntegrationPlaceholderCountMismatch(t *testing.T) {
	p := setupIntegrationPool(t, nil)

	_, _, err := p.Execute(context.Background(), "SELECT ?::int + ?::int AS total", 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAcquireTimeout)
}

func TestIntegrationSaturatedPoolTimesOut(t *testing.T) {
	const acquireTimeout = 200 * time.Millisecond
	p := setupIntegrationPool(t, func(c *config.Database) {
		c.MaxConns = 2
		c.AcquireTimeout = acquireTimeout
	})
	ctx := context.Background()

	held := make([]*pgxpool.Conn, 0, 2)
	for i := 0; i < 2; i++ {
		c, err := p.pgx.Acquire(ctx)
		require.NoError(t, err)
		held = append(held, c)
	}

	start := time.Now()
	_, _, err := p.Execute(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrAcquireTimeout)
	assert.GreaterOrEqual(t, time.Since(start), acquireTimeout)

	held[0].Release()
	_, _, err = p.Execute(ctx, "SELECT 1")
	assert.NoError(t, err)
	held[1].Release()
}
