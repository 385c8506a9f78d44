package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/shardex/configs"
	"github.com/Aman-CERP/shardex/internal/errors"
)

// isolate points the user config lookup at an empty temp dir and clears env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"SHARDEX_HOST", "SHARDEX_PORT", "SHARDEX_LOG_LEVEL", "SHARDEX_DATA_DIR", "SHARDEX_NODE_ID"} {
		t.Setenv(k, "")
	}
	return t.TempDir()
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Given: a directory without configuration
	dir := isolate(t)

	// When: loading config
	cfg, err := Load(dir)

	// Then: defaults are returned
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
	assert.Equal(t, DefaultDataDir(), cfg.Paths.DataDir)
	assert.Equal(t, "standard", cfg.Engine.DefaultAnalyzer)
	assert.Equal(t, 4, cfg.Engine.SpaceCacheSize)
}

func TestLoad_UserConfigOverridesDefaults(t *testing.T) {
	// Given: a user config setting the port
	dir := isolate(t)
	userPath := GetUserConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(userPath), 0o755))
	require.NoError(t, os.WriteFile(userPath, []byte("server:\n  port: 9300\n"), 0o644))

	// When: loading config
	cfg, err := Load(dir)

	// Then: the user value wins and other defaults survive
	require.NoError(t, err)
	assert.Equal(t, 9300, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	// Given: both user and project config
	dir := isolate(t)
	userPath := GetUserConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(userPath), 0o755))
	require.NoError(t, os.WriteFile(userPath, []byte("server:\n  port: 9300\n  log_level: warn\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".shardex.yaml"), []byte("server:\n  port: 9400\n"), 0o644))

	// When: loading config
	cfg, err := Load(dir)

	// Then: project beats user, untouched user values remain
	require.NoError(t, err)
	assert.Equal(t, 9400, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
}

func TestLoad_YmlExtension(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".shardex.yml"), []byte("engine:\n  space_cache_size: 16\n"), 0o644))

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Engine.SpaceCacheSize)
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	// Given: a project file and env overrides
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".shardex.yaml"), []byte("server:\n  port: 9400\n"), 0o644))
	dataDir := t.TempDir()
	t.Setenv("SHARDEX_PORT", "9500")
	t.Setenv("SHARDEX_DATA_DIR", dataDir)
	t.Setenv("SHARDEX_NODE_ID", "node-a")

	// When: loading config
	cfg, err := Load(dir)

	// Then: env wins
	require.NoError(t, err)
	assert.Equal(t, 9500, cfg.Server.Port)
	assert.Equal(t, dataDir, cfg.Paths.DataDir)
	assert.Equal(t, "node-a", cfg.NodeID())
}

func TestLoad_InvalidYAML_ReturnsConfigError(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".shardex.yaml"), []byte("server: [unclosed"), 0o644))

	_, err := Load(dir)

	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfig, errors.GetCategory(err))
}

func TestLoad_InvalidValues_FailValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"bad log level", "server:\n  log_level: loud\n"},
		{"bad shutdown timeout", "server:\n  shutdown_timeout: soon\n"},
		{"negative cache", "engine:\n  space_cache_size: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			require.NoError(t, os.WriteFile(filepath.Join(dir, ".shardex.yaml"), []byte(tt.yaml), 0o644))

			_, err := Load(dir)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestGetUserConfigPath_RespectsXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	assert.Equal(t, filepath.Join(xdg, "shardex", "config.yaml"), GetUserConfigPath())
	assert.False(t, UserConfigExists())
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	// Given: a customized config written as the project file
	dir := isolate(t)
	cfg := NewConfig()
	cfg.Server.Port = 9999
	cfg.Engine.DefaultAnalyzer = "keyword"
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ".shardex.yaml")))

	// When: loading it back
	loaded, err := Load(dir)

	// Then: values survive
	require.NoError(t, err)
	assert.Equal(t, 9999, loaded.Server.Port)
	assert.Equal(t, "keyword", loaded.IndexSettings().DefaultAnalyzer)
}

func TestAddr(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 7000
	assert.Equal(t, "0.0.0.0:7000", cfg.Addr())
}

func TestLoad_ShippedTemplateIsValid(t *testing.T) {
	// Given: the template written by `config init` as the user config
	dir := isolate(t)
	userPath := GetUserConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(userPath), 0o755))
	require.NoError(t, os.WriteFile(userPath, []byte(configs.ConfigTemplate), 0o644))

	// When: loading config
	cfg, err := Load(dir)

	// Then: it validates and matches the defaults
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}
