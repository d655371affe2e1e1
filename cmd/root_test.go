package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/nightwatch/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "score", "heatmap"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "nightwatch", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestScoreCommand_Flags(t *testing.T) {
	flag := scoreCmd.Flags().Lookup("place")
	require.NotNil(t, flag, "score command should have --place flag")
}

func TestHeatmapCommand_Flags(t *testing.T) {
	require.NotNil(t, heatmapCmd.Flags().Lookup("place"))

	flag := heatmapCmd.Flags().Lookup("format")
	require.NotNil(t, flag, "heatmap command should have --format flag")
	assert.Equal(t, "json", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestInitCache_Drivers(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg = &config.Config{}
	cfg.Cache.Driver = ""
	c, err := initCache(context.Background())
	require.NoError(t, err)
	assert.Nil(t, c, "empty driver runs without a cache")

	cfg.Cache.Driver = "sqlite"
	cfg.Cache.Path = ":memory:"
	c, err = initCache(context.Background())
	require.NoError(t, err)
	require.NotNil(t, c)
	_ = c.Close()

	cfg.Cache.Driver = "redis"
	_, err = initCache(context.Background())
	assert.Error(t, err, "unknown driver must be rejected")
}
