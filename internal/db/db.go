// Package db opens the Postgres pool and applies the embedded schema
// migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/startup-vidyapith/apiserver/config"
)

const (
	driverName      = "postgres"
	connMaxIdleTime = 2 * time.Minute
	pingInterval    = 500 * time.Millisecond
)

// PostgresURL builds the lib/pq connection URL for cfg.
func PostgresURL(cfg config.DatabaseConfig) string {
	q := url.Values{}
	if cfg.UseSSL {
		q.Set("sslmode", "require")
	} else {
		q.Set("sslmode", "disable")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     cfg.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open builds the pool and pings until the server answers or
// cfg.ConnectTimeout passes.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	pool, err := sql.Open(driverName, PostgresURL(cfg))
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	pool.SetConnMaxIdleTime(connMaxIdleTime)

	if err := waitReady(ctx, pool, cfg.ConnectTimeout); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func waitReady(ctx context.Context, pool *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		err := pool.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return err
		case <-ticker.C:
		}
	}
}
