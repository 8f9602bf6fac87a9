// Package store persists priced estimates and the override audit trail.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rug-estimator/internal/model"
)

// ErrNotFound is returned when an estimate does not exist.
var ErrNotFound = eris.New("store: not found")

// EstimateFilter specifies criteria for listing estimates.
type EstimateFilter struct {
	Reference  string `json:"reference,omitempty"`
	ReviewOnly bool   `json:"review_only,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for estimates.
type Store interface {
	// Estimates
	SaveEstimate(ctx context.Context, est *model.Estimate) error
	SaveEstimates(ctx context.Context, ests []*model.Estimate) (int64, error)
	GetEstimate(ctx context.Context, id string) (*model.Estimate, error)
	ListEstimates(ctx context.Context, filter EstimateFilter) ([]model.EstimateSummary, error)

	// Override audit trail
	RecordOverrides(ctx context.Context, estimateID string, overrides []model.PriceOverride) ([]model.OverrideRecord, error)
	ListOverrides(ctx context.Context, estimateID string) ([]model.OverrideRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

// prepareEstimate assigns an id and creation time when missing and returns
// the serialized payload.
func prepareEstimate(est *model.Estimate) ([]byte, error) {
	if est == nil {
		return nil, eris.New("store: nil estimate")
	}
	if est.ID == "" {
		est.ID = uuid.New().String()
	}
	if est.CreatedAt.IsZero() {
		est.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(est)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal estimate")
	}
	return payload, nil
}

// overrideRecords builds audit records for estimateID.
func overrideRecords(estimateID string, overrides []model.PriceOverride) []model.OverrideRecord {
	now := time.Now().UTC()
	recs := make([]model.OverrideRecord, len(overrides))
	for i, o := range overrides {
		recs[i] = model.OverrideRecord{
			ID:            uuid.New().String(),
			EstimateID:    estimateID,
			PriceOverride: o,
			CreatedAt:     now,
		}
	}
	return recs
}

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
