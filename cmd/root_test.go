package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"determine", "price", "categorize", "validate-override", "batch", "serve", "estimates", "export", "intake"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "rug-estimator", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestPriceCommand_Flags(t *testing.T) {
	for _, name := range []string{"input", "override", "save", "staff"} {
		require.NotNil(t, priceCmd.Flags().Lookup(name), "price command should have --%s flag", name)
	}
}

func TestBatchCommand_Flags(t *testing.T) {
	flag := batchCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag, "batch command should have --concurrency flag")
	assert.Equal(t, "0", flag.DefValue)
	require.NotNil(t, batchCmd.Flags().Lookup("dir"))
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestEstimatesCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range estimatesCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "csv", flag.DefValue)
}
