// Package postgres provides PostgreSQL-backed persistence.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PoolConfig tunes the database connection pool.
type PoolConfig struct {
	MaxConns   int
	MaxIdle    int
	ConnMaxAge time.Duration
}

// DefaultPoolConfig returns conservative pool settings.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:   10,
		MaxIdle:    5,
		ConnMaxAge: 30 * time.Minute,
	}
}

// Open opens a database connection, configures the pool and verifies
// connectivity with a ping.
func Open(dsn string, cfg PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(cfg.ConnMaxAge)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
