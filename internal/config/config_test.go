package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	return home
}

func TestDefaults(t *testing.T) {
	isolate(t)
	v, err := New("")
	require.NoError(t, err)
	cfg, err := Decode(v)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Reminder.Interval)
	assert.Equal(t, "health.db", filepath.Base(cfg.DB))
	assert.Equal(t, "badger", filepath.Base(cfg.BadgerDir))
}

func TestFileAndEnvOverrides(t *testing.T) {
	home := isolate(t)
	file := filepath.Join(home, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
backend: badger
log:
  level: debug
  format: json
reminder:
  interval: 1m
usda:
  api_key: from-file
`), 0o644))
	t.Setenv("HEALTHMGR_USDA_API_KEY", "from-env")
	t.Setenv("HEALTHMGR_SERVER_ADDR", ":9000")

	v, err := New(file)
	require.NoError(t, err)
	cfg, err := Decode(v)
	require.NoError(t, err)

	assert.Equal(t, "badger", cfg.Backend)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, time.Minute, cfg.Reminder.Interval)
	assert.Equal(t, "from-env", cfg.USDA.APIKey)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestExplicitMissingFileFails(t *testing.T) {
	home := isolate(t)
	_, err := New(filepath.Join(home, "nope.yaml"))
	require.Error(t, err)
}

func TestDecodeRejectsUnknownBackend(t *testing.T) {
	isolate(t)
	t.Setenv("HEALTHMGR_BACKEND", "postgres")
	v, err := New("")
	require.NoError(t, err)
	_, err = Decode(v)
	require.ErrorContains(t, err, "unknown backend")
}

func TestWatchAppliesEdits(t *testing.T) {
	home := isolate(t)
	file := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log:\n  level: info\n"), 0o644))

	v, err := New(file)
	require.NoError(t, err)
	var level atomic.Value
	Watch(v, func(cfg Config) { level.Store(cfg.Log.Level) }, nil)

	require.NoError(t, os.WriteFile(file, []byte("log:\n  level: debug\n"), 0o644))
	require.Eventually(t, func() bool {
		got, _ := level.Load().(string)
		return got == "debug"
	}, 5*time.Second, 50*time.Millisecond)
}
