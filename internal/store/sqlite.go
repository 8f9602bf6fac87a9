package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/rug-estimator/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS estimates (
	id              TEXT PRIMARY KEY,
	reference       TEXT NOT NULL DEFAULT '',
	service_count   INTEGER NOT NULL,
	total           REAL NOT NULL,
	requires_review INTEGER NOT NULL DEFAULT 0,
	payload         TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS price_overrides (
	id             TEXT PRIMARY KEY,
	estimate_id    TEXT NOT NULL REFERENCES estimates(id) ON DELETE CASCADE,
	service_id     TEXT NOT NULL,
	service_name   TEXT NOT NULL DEFAULT '',
	original_price REAL NOT NULL,
	adjusted_price REAL NOT NULL,
	reason         TEXT NOT NULL,
	notes          TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_estimates_reference ON estimates(reference);
CREATE INDEX IF NOT EXISTS idx_estimates_created_at ON estimates(created_at);
CREATE INDEX IF NOT EXISTS idx_price_overrides_estimate_id ON price_overrides(estimate_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteUpsertEstimate = `INSERT INTO estimates (id, reference, service_count, total, requires_review, payload, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET reference = excluded.reference, service_count = excluded.service_count,
		total = excluded.total, requires_review = excluded.requires_review, payload = excluded.payload`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveSQLiteEstimate(ctx context.Context, ex execer, est *model.Estimate) error {
	payload, err := prepareEstimate(est)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, sqliteUpsertEstimate,
		est.ID, est.Reference, len(est.Pricing.Services), est.Pricing.TotalAfterAdjustments,
		est.Determination.RequiresStaffReview, string(payload), est.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: save estimate %s", est.ID)
}

func (s *SQLiteStore) SaveEstimate(ctx context.Context, est *model.Estimate) error {
	return saveSQLiteEstimate(ctx, s.db, est)
}

func (s *SQLiteStore) SaveEstimates(ctx context.Context, ests []*model.Estimate) (int64, error) {
	if len(ests) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, est := range ests {
		if err := saveSQLiteEstimate(ctx, tx, est); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit estimates")
	}
	return int64(len(ests)), nil
}

func (s *SQLiteStore) GetEstimate(ctx context.Context, id string) (*model.Estimate, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM estimates WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: estimate %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get estimate %s", id)
	}

	var est model.Estimate
	if err := json.Unmarshal([]byte(payload), &est); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal estimate")
	}
	return &est, nil
}

func (s *SQLiteStore) ListEstimates(ctx context.Context, filter EstimateFilter) ([]model.EstimateSummary, error) {
	query := `SELECT id, reference, service_count, total, requires_review, created_at FROM estimates WHERE 1=1`
	var args []any

	if filter.Reference != "" {
		query += ` AND reference = ?`
		args = append(args, filter.Reference)
	}
	if filter.ReviewOnly {
		query += ` AND requires_review = 1`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list estimates")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.EstimateSummary
	for rows.Next() {
		var e model.EstimateSummary
		if err := rows.Scan(&e.ID, &e.Reference, &e.ServiceCount, &e.Total, &e.RequiresStaffReview, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan estimate")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list estimates iterate")
}

func (s *SQLiteStore) RecordOverrides(ctx context.Context, estimateID string, overrides []model.PriceOverride) ([]model.OverrideRecord, error) {
	if len(overrides) == 0 {
		return nil, nil
	}
	recs := overrideRecords(estimateID, overrides)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range recs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO price_overrides (id, estimate_id, service_id, service_name, original_price, adjusted_price, reason, notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.EstimateID, r.ServiceID, r.ServiceName, r.OriginalPrice, r.AdjustedPrice, string(r.Reason), r.Notes, r.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert override for %s", r.ServiceID)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit overrides")
	}
	return recs, nil
}

func (s *SQLiteStore) ListOverrides(ctx context.Context, estimateID string) ([]model.OverrideRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, estimate_id, service_id, service_name, original_price, adjusted_price, reason, notes, created_at
		 FROM price_overrides WHERE estimate_id = ? ORDER BY created_at, rowid`,
		estimateID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list overrides %s", estimateID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.OverrideRecord
	for rows.Next() {
		var r model.OverrideRecord
		var reason string
		if err := rows.Scan(&r.ID, &r.EstimateID, &r.ServiceID, &r.ServiceName, &r.OriginalPrice, &r.AdjustedPrice, &reason, &r.Notes, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan override")
		}
		r.Reason = model.OverrideReason(reason)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list overrides iterate")
}
