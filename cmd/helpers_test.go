package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/rug-estimator/internal/store"
)

const stainedYAML = `material:
  type: common_fiber
  construction: hand_made_standard
  age: modern
  value: standard
conditions:
  soiling: none
  staining: moderate
  pet_urine: none
  fringe_damage: none
  edge_damage: none
  holes_tears: none
  wear: none
  color_run: none
  moth_damage: none
  dry_rot: false
  pests_in_environment: false
square_footage: 40
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}
