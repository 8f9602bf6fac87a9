package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rug-estimator/internal/model"
)

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleEstimate(ref string, total float64, review bool) *model.Estimate {
	return &model.Estimate{
		Reference: ref,
		Input: model.InspectionInput{
			Material:      model.Material{Type: model.MaterialCommonFiber, Construction: model.ConstructionMachineMade, Age: model.AgeNew, Value: model.ValueStandard},
			Conditions:    model.AllClear(),
			SquareFootage: 40,
		},
		Determination: model.ServiceDetermination{
			Services: []model.DeterminedService{
				model.NewDeterminedService("dusting", "Mechanical Dusting", model.CategoryRequired, "", 40, model.PricePerSqFt, 0.75, "", 2),
			},
			RequiresStaffReview: review,
		},
		Pricing: model.PricingResult{
			Services: []model.PricedService{{
				DeterminedService: model.NewDeterminedService("dusting", "Mechanical Dusting", model.CategoryRequired, "", 40, model.PricePerSqFt, 0.75, "", 2),
				BaseTotal:         30,
				RiskMultiplier:    1,
				AdjustedTotal:     total,
				RiskLevel:         model.RiskLow,
			}},
			TotalBeforeAdjustments: 30,
			TotalAfterAdjustments:  total,
			AverageRiskMultiplier:  1,
		},
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("SaveAndGetEstimate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		est := sampleEstimate("INV-1", 30, false)
		require.NoError(t, s.SaveEstimate(ctx, est))
		assert.NotEmpty(t, est.ID)
		assert.False(t, est.CreatedAt.IsZero())

		got, err := s.GetEstimate(ctx, est.ID)
		require.NoError(t, err)
		assert.Equal(t, est.ID, got.ID)
		assert.Equal(t, "INV-1", got.Reference)
		require.Len(t, got.Pricing.Services, 1)
		assert.Equal(t, "dusting", got.Pricing.Services[0].ID)
		assert.False(t, got.Pricing.Services[0].CanDecline)
		assert.InDelta(t, 30.0, got.Pricing.TotalAfterAdjustments, 0.001)
	})

	t.Run("SaveEstimateTwiceUpdates", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		est := sampleEstimate("INV-2", 30, false)
		require.NoError(t, s.SaveEstimate(ctx, est))
		est.Pricing.TotalAfterAdjustments = 45
		require.NoError(t, s.SaveEstimate(ctx, est))

		list, err := s.ListEstimates(ctx, EstimateFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.InDelta(t, 45.0, list[0].Total, 0.001)
	})

	t.Run("GetEstimateNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetEstimate(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrNotFound))
	})

	t.Run("ListEstimatesFilters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a := sampleEstimate("A", 10, false)
		a.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
		b := sampleEstimate("B", 20, true)
		b.CreatedAt = time.Now().UTC().Add(-1 * time.Hour)
		c := sampleEstimate("B", 30, false)
		n, err := s.SaveEstimates(ctx, []*model.Estimate{a, b, c})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		all, err := s.ListEstimates(ctx, EstimateFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, c.ID, all[0].ID)
		assert.Equal(t, a.ID, all[2].ID)

		byRef, err := s.ListEstimates(ctx, EstimateFilter{Reference: "B"})
		require.NoError(t, err)
		assert.Len(t, byRef, 2)

		review, err := s.ListEstimates(ctx, EstimateFilter{ReviewOnly: true})
		require.NoError(t, err)
		require.Len(t, review, 1)
		assert.Equal(t, b.ID, review[0].ID)
		assert.True(t, review[0].RequiresStaffReview)
		assert.Equal(t, 1, review[0].ServiceCount)

		page, err := s.ListEstimates(ctx, EstimateFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, b.ID, page[0].ID)
	})

	t.Run("RecordAndListOverrides", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		est := sampleEstimate("OVR", 30, false)
		require.NoError(t, s.SaveEstimate(ctx, est))

		recs, err := s.RecordOverrides(ctx, est.ID, []model.PriceOverride{
			{ServiceID: "dusting", ServiceName: "Mechanical Dusting", OriginalPrice: 30, AdjustedPrice: 25, Reason: model.ReasonLoyaltyAdjustment, Notes: "repeat client"},
		})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.NotEmpty(t, recs[0].ID)

		got, err := s.ListOverrides(ctx, est.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, recs[0].ID, got[0].ID)
		assert.Equal(t, model.ReasonLoyaltyAdjustment, got[0].Reason)
		assert.InDelta(t, 25.0, got[0].AdjustedPrice, 0.001)
		assert.Equal(t, "repeat client", got[0].Notes)

		none, err := s.RecordOverrides(ctx, est.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("SaveNilEstimate", func(t *testing.T) {
		s := newStore(t)
		err := s.SaveEstimate(context.Background(), nil)
		require.Error(t, err)
	})
}

func TestSQLiteStoreSuite(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}
