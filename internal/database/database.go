package database

import (
	"context"
	"fmt"
	"time"

	"discounter/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Schema is the DDL for the campaign and voucher tables.
const Schema = `
	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		amount_value BIGINT NOT NULL CHECK (amount_value > 0),
		currency TEXT NOT NULL,
		brand TEXT NOT NULL,
		voucher_expires TIMESTAMPTZ NOT NULL,
		campaign_begins TIMESTAMPTZ NOT NULL,
		campaign_ends TIMESTAMPTZ NOT NULL,
		max_issued INTEGER NOT NULL CHECK (max_issued > 0),
		num_issued INTEGER NOT NULL DEFAULT 0,
		CHECK (num_issued >= 0 AND num_issued <= max_issued)
	);

	CREATE TABLE IF NOT EXISTS vouchers (
		code TEXT PRIMARY KEY,
		amount_value BIGINT NOT NULL,
		currency TEXT NOT NULL,
		brand TEXT NOT NULL,
		voucher_expires TIMESTAMPTZ NOT NULL,
		claimant TEXT NOT NULL,
		issued TIMESTAMPTZ NOT NULL,
		consumed BOOLEAN NOT NULL DEFAULT FALSE
	);
	CREATE INDEX IF NOT EXISTS idx_vouchers_claimant ON vouchers(claimant);
`

// NewPool creates a new PostgreSQL connection pool.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int("max_connections", cfg.MaxConnections).
		Int("min_connections", cfg.MinConnections).
		Msg("creating database connection pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("database connection pool created successfully")

	return pool, nil
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
