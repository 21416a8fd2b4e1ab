package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 5000, c.Server.Port)
	assert.Equal(t, 30*time.Second, c.Cache.RealtimeTTL)
	assert.Equal(t, 60*time.Second, c.Cache.MarketTTL)
	assert.Equal(t, time.Hour, c.Cache.SearchTTL)
	assert.Equal(t, time.Hour, c.Cache.HistoricalTTL)
	assert.Equal(t, 5*time.Minute, c.Cache.SweepInterval)
	assert.Equal(t, 3, c.Retry.MaxAttempts)
	assert.Equal(t, 20*time.Second, c.Retry.Budget)
	assert.Less(t, c.Retry.Budget, c.Server.WriteTimeout)
	assert.Equal(t, 10*time.Second, c.Upstream.Timeout)
	assert.False(t, c.Redis.Enabled)
	assert.NoError(t, c.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8081
cache:
  realtime_ttl: 15s
upstream:
  concurrency: 8
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8081, c.Server.Port)
	assert.Equal(t, 15*time.Second, c.Cache.RealtimeTTL)
	assert.Equal(t, time.Hour, c.Cache.SearchTTL)
	assert.Equal(t, 8, c.Upstream.Concurrency)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retry:\n  max_attempts: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadRejectsBudgetPastWriteTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  write_timeout: 15s
retry:
  budget: 15s
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "retry.budget")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":             "7000",
		"DEBUG":            "true",
		"UPSTREAM_TIMEOUT": "3s",
		"REDIS_ENABLED":    "TRUE",
		"REDIS_ADDR":       "cache.internal:6380",
	}
	c, err := Default()
	require.NoError(t, err)

	require.NoError(t, c.applyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, 7000, c.Server.Port)
	assert.Equal(t, "debug", c.Logger.Level)
	assert.Equal(t, 3*time.Second, c.Upstream.Timeout)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "cache.internal", c.Redis.Host)
	assert.Equal(t, 6380, c.Redis.Port)
}

func TestApplyEnvBadValues(t *testing.T) {
	for _, kv := range [][2]string{
		{"PORT", "http"},
		{"UPSTREAM_TIMEOUT", "soon"},
		{"REDIS_ADDR", "host:port"},
	} {
		t.Run(kv[0], func(t *testing.T) {
			c, err := Default()
			require.NoError(t, err)
			err = c.applyEnv(func(k string) string {
				if k == kv[0] {
					return kv[1]
				}
				return ""
			})
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}
