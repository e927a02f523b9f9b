package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("u-123")
	cfg.Store.LogSQL = true
	cfg.Log.Format = "json"

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.User.ID, got.User.ID)
	assert.Equal(t, cfg.Currency, got.Currency)
	assert.Equal(t, cfg.Store, got.Store)
	assert.Equal(t, "json", got.Log.Format)
	assert.Equal(t, cfg.Credits.Tolerance, got.Credits.Tolerance)
}

func TestDefaults(t *testing.T) {
	cfg := Default("u1")

	assert.Equal(t, "u1", cfg.User.ID)
	assert.Equal(t, "ARS", cfg.Currency.Home)
	assert.Equal(t, "USD", cfg.Currency.Foreign)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "finanzas.db", cfg.Store.Path)
	assert.False(t, cfg.Store.LogSQL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.Equal(t, "0.01", cfg.Credits.Tolerance)
}

func TestLoadFillsMissingKeysWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("user:\n  id: abc\nstore:\n  driver: memory\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.User.ID)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "finanzas.db", cfg.Store.Path)
	assert.Equal(t, "ARS", cfg.Currency.Home)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FINANZAS_USER_ID":           "env-user",
		"FINANZAS_STORE_DRIVER":      "memory",
		"FINANZAS_STORE_LOG_SQL":     "true",
		"FINANZAS_LOG_LEVEL":         "debug",
		"FINANZAS_CREDITS_TOLERANCE": " 0.05 ",
	}
	cfg := Default("file-user")
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "env-user", cfg.User.ID)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.True(t, cfg.Store.LogSQL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "0.05", cfg.Credits.Tolerance)
	assert.Equal(t, "ARS", cfg.Currency.Home, "unset variables keep the file value")

	env["FINANZAS_STORE_LOG_SQL"] = "sometimes"
	assert.Error(t, cfg.ApplyEnv(func(k string) string { return env[k] }))
}

func TestStorePath(t *testing.T) {
	cfg := Default("u1")
	assert.Equal(t, filepath.Join("/data", "finanzas.db"), cfg.StorePath("/data"))

	cfg.Store.Path = "/var/lib/finanzas.db"
	assert.Equal(t, "/var/lib/finanzas.db", cfg.StorePath("/data"))
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("u1")
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "id: u1")
	assert.Contains(t, contents, "home: ARS")
	assert.Contains(t, contents, "driver: sqlite")
	assert.Contains(t, contents, "tolerance: \"0.01\"")
}
