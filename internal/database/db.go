package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	_ "github.com/lib/pq"
	"github.com/safar/storefront/internal/config"
)

var ErrKVStoreMissing = errors.New("kv_store table missing, run migrations first")

const maxConnectBackoff = 2 * time.Second

// NewConnection opens the pool behind the postgres storage backend. The
// server may still be starting, so the first ping is retried until
// cfg.ConnectTimeout runs out.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := waitForServer(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func waitForServer(ctx context.Context, db *sql.DB) error {
	backoff := 100 * time.Millisecond

	for {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		if !isStartupError(err) {
			return fmt.Errorf("ping database: %w", err)
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("ping database: %w", err)
		}
		backoff = min(backoff*2, maxConnectBackoff)
	}
}

// isStartupError reports failures a server produces while it is still coming
// up: refused dials and the retryable classes, 57P03 cannot_connect_now
// among them.
func isStartupError(err error) bool {
	if IsRetryable(err) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// CheckKVStore fails with ErrKVStoreMissing until the kv_store migration has
// been applied.
func CheckKVStore(ctx context.Context, db *sql.DB) error {
	var table sql.NullString
	if err := db.QueryRowContext(ctx, `SELECT to_regclass('kv_store')::text`).Scan(&table); err != nil {
		return fmt.Errorf("check kv_store: %w", err)
	}
	if !table.Valid {
		return ErrKVStoreMissing
	}
	return nil
}
