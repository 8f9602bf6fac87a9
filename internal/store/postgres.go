package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rug-estimator/internal/db"
	"github.com/sells-group/rug-estimator/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS estimates (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	reference       TEXT NOT NULL DEFAULT '',
	service_count   INTEGER NOT NULL,
	total           NUMERIC(12,2) NOT NULL,
	requires_review BOOLEAN NOT NULL DEFAULT false,
	payload         JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS price_overrides (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	estimate_id    TEXT NOT NULL REFERENCES estimates(id) ON DELETE CASCADE,
	service_id     TEXT NOT NULL,
	service_name   TEXT NOT NULL DEFAULT '',
	original_price NUMERIC(12,2) NOT NULL,
	adjusted_price NUMERIC(12,2) NOT NULL,
	reason         TEXT NOT NULL,
	notes          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_estimates_reference ON estimates(reference);
CREATE INDEX IF NOT EXISTS idx_estimates_created_at ON estimates(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_estimates_review ON estimates(requires_review) WHERE requires_review;
CREATE INDEX IF NOT EXISTS idx_price_overrides_estimate_id ON price_overrides(estimate_id);
`

var estimateColumns = []string{"id", "reference", "service_count", "total", "requires_review", "payload", "created_at"}

var overrideColumns = []string{"id", "estimate_id", "service_id", "service_name", "original_price", "adjusted_price", "reason", "notes", "created_at"}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func estimateRow(est *model.Estimate) ([]any, error) {
	payload, err := prepareEstimate(est)
	if err != nil {
		return nil, err
	}
	return []any{
		est.ID, est.Reference, len(est.Pricing.Services), est.Pricing.TotalAfterAdjustments,
		est.Determination.RequiresStaffReview, payload, est.CreatedAt,
	}, nil
}

func (s *PostgresStore) SaveEstimate(ctx context.Context, est *model.Estimate) error {
	row, err := estimateRow(est)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO estimates (id, reference, service_count, total, requires_review, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET reference = $2, service_count = $3, total = $4, requires_review = $5, payload = $6`,
		row...,
	)
	return eris.Wrapf(err, "postgres: save estimate %s", est.ID)
}

// SaveEstimates upserts many estimates in one transaction.
func (s *PostgresStore) SaveEstimates(ctx context.Context, ests []*model.Estimate) (int64, error) {
	rows := make([][]any, 0, len(ests))
	for _, est := range ests {
		row, err := estimateRow(est)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "estimates",
		Columns:      estimateColumns,
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"reference", "service_count", "total", "requires_review", "payload"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save estimates")
	}
	return n, nil
}

func (s *PostgresStore) GetEstimate(ctx context.Context, id string) (*model.Estimate, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM estimates WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: estimate %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get estimate %s", id)
	}

	var est model.Estimate
	if err := json.Unmarshal(payload, &est); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal estimate")
	}
	return &est, nil
}

func (s *PostgresStore) ListEstimates(ctx context.Context, filter EstimateFilter) ([]model.EstimateSummary, error) {
	query := `SELECT id, reference, service_count, total::float8, requires_review, created_at FROM estimates WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Reference != "" {
		query += fmt.Sprintf(` AND reference = $%d`, argIdx)
		args = append(args, filter.Reference)
		argIdx++
	}
	if filter.ReviewOnly {
		query += ` AND requires_review`
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list estimates")
	}
	defer rows.Close()

	var out []model.EstimateSummary
	for rows.Next() {
		var e model.EstimateSummary
		if err := rows.Scan(&e.ID, &e.Reference, &e.ServiceCount, &e.Total, &e.RequiresStaffReview, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan estimate")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list estimates iterate")
}

// RecordOverrides bulk-inserts audit rows with COPY.
func (s *PostgresStore) RecordOverrides(ctx context.Context, estimateID string, overrides []model.PriceOverride) ([]model.OverrideRecord, error) {
	if len(overrides) == 0 {
		return nil, nil
	}
	recs := overrideRecords(estimateID, overrides)

	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.ID, r.EstimateID, r.ServiceID, r.ServiceName, r.OriginalPrice, r.AdjustedPrice, string(r.Reason), r.Notes, r.CreatedAt}
	}
	if _, err := db.CopyFrom(ctx, s.pool, "price_overrides", overrideColumns, rows); err != nil {
		return nil, eris.Wrapf(err, "postgres: record overrides for %s", estimateID)
	}
	return recs, nil
}

func (s *PostgresStore) ListOverrides(ctx context.Context, estimateID string) ([]model.OverrideRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, estimate_id, service_id, service_name, original_price::float8, adjusted_price::float8, reason, notes, created_at
		 FROM price_overrides WHERE estimate_id = $1 ORDER BY created_at, id`,
		estimateID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list overrides %s", estimateID)
	}
	defer rows.Close()

	var out []model.OverrideRecord
	for rows.Next() {
		var r model.OverrideRecord
		var reason string
		if err := rows.Scan(&r.ID, &r.EstimateID, &r.ServiceID, &r.ServiceName, &r.OriginalPrice, &r.AdjustedPrice, &reason, &r.Notes, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan override")
		}
		r.Reason = model.OverrideReason(reason)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list overrides iterate")
}
