package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rug-estimator/internal/resilience"
	"github.com/sells-group/rug-estimator/internal/store"
)

// initStore opens the configured backend and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		st, err = connectPostgres(ctx)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// connectPostgres retries pool creation while the database is still coming up.
func connectPostgres(ctx context.Context) (*store.PostgresStore, error) {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = 5
	retry.InitialBackoff = 500 * time.Millisecond
	retry.OnRetry = resilience.RetryLogger("connect postgres")

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*store.PostgresStore, error) {
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	})
}
