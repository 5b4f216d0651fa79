package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/ports"
)

// Open builds the configured backend. The returned close func releases any
// connections and is never nil.
func Open(ctx context.Context, cfg config.StorageConfig, samples SampleSource) (ports.BriefingStore, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendObjectStore:
		client, err := NewS3Client(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, noop, err
		}
		return NewObjectStore(client, cfg.ObjectStore.Prefix), noop, nil

	case config.BackendKeyedTable:
		pool, err := Connect(ctx, cfg.KeyedTable.DSN)
		if err != nil {
			return nil, noop, err
		}
		table, err := NewKeyedTable(pool, cfg.KeyedTable.Table)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return table, pool.Close, nil

	case config.BackendRemoteAPI:
		return NewRemoteAPI(cfg.RemoteAPI.Endpoint, cfg.RemoteAPI.Timeout), noop, nil

	case config.BackendPlaceholder:
		return NewPlaceholder(samples), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Connect establishes a verified connection pool.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}
