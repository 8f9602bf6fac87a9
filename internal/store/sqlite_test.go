package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rug-estimator/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_OverrideRequiresEstimate(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.RecordOverrides(context.Background(), "no-such-estimate", []model.PriceOverride{
		{ServiceID: "dusting", OriginalPrice: 10, AdjustedPrice: 9, Reason: model.ReasonManagerApproval},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert override")
}

func TestSQLite_SaveEstimatesEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)
	n, err := st.SaveEstimates(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_ListOverridesEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)
	got, err := st.ListOverrides(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_KeepsProvidedID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	est := sampleEstimate("ID", 12, false)
	est.ID = "fixed-id"
	require.NoError(t, st.SaveEstimate(ctx, est))

	got, err := st.GetEstimate(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "ID", got.Reference)
}
