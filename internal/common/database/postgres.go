// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"assessment-workers/internal/common/config"
	"assessment-workers/internal/common/metrics"
)

const connLifetime = 5 * time.Minute

// PostgresClient holds the pool backing the assessment repository.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens the pool lazily; the first Ping dials.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	configurePool(db, cfg)
	return &PostgresClient{DB: db}, nil
}

func configurePool(db *sql.DB, cfg config.PostgresConfig) {
	maxIdle := cfg.MaxIdle
	if cfg.MaxConnections > 0 && maxIdle > cfg.MaxConnections {
		maxIdle = cfg.MaxConnections
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connLifetime)
	db.SetConnMaxIdleTime(connLifetime)
}

// Ping checks the pool and records the result on the dependency gauge.
func (c *PostgresClient) Ping(ctx context.Context) error {
	err := c.DB.PingContext(ctx)
	metrics.RecordDependency("postgres", err)
	if err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
