package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "ANALYZE_ENDPOINT", "ANALYZE_FIELD", "ANALYZE_SETTLE_DELAY",
		"BACKGROUND_URL", "BACKGROUND_ENABLED", "SESSION_TTL", "MAX_UPLOAD_BYTES",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOCAL_STORE_DIR", "RAV_CONFIG",
		"POLL_RATE_LIMIT_RPS", "POLL_RATE_LIMIT_BURST", "SESSION_RATE_LIMIT_RPS",
		"SESSION_RATE_LIMIT_BURST", "MAX_SESSIONS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, DefaultAnalyzeEndpoint, cfg.AnalyzeEndpoint)
	assert.Equal(t, "resume", cfg.AnalyzeField)
	assert.Equal(t, time.Second, cfg.SettleDelay)
	assert.Equal(t, DefaultBackgroundURL, cfg.BackgroundURL)
	assert.True(t, cfg.BackgroundEnabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "prod")
	t.Setenv("ANALYZE_ENDPOINT", "http://analyzer.internal:9000/analyze-resume")
	t.Setenv("ANALYZE_SETTLE_DELAY", "0")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("BACKGROUND_ENABLED", "false")
	t.Setenv("RATE_LIMIT_BURST", "9")
	t.Setenv("SESSION_RATE_LIMIT_RPS", "0.5")
	t.Setenv("MAX_SESSIONS", "25")
	t.Setenv("LOCAL_STORE_DIR", "/tmp/rav")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "http://analyzer.internal:9000/analyze-resume", cfg.AnalyzeEndpoint)
	assert.Equal(t, time.Duration(0), cfg.SettleDelay)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.BackgroundEnabled)
	assert.Equal(t, 9, cfg.RateLimitBurst)
	assert.Equal(t, 0.5, cfg.SessionRateLimitRPS)
	assert.Equal(t, 25, cfg.MaxSessions)
	assert.Equal(t, "/tmp/rav", cfg.LocalStoreDir)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "rav.toml")
	body := `
port = "9090"
analyze_endpoint = "http://file-host/analyze-resume"
settle_delay = "250ms"
background_enabled = false
poll_rate_limit_burst = 30
max_sessions = 50
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("PORT", "7070")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port, "env must override file")
	assert.Equal(t, "http://file-host/analyze-resume", cfg.AnalyzeEndpoint)
	assert.Equal(t, 250*time.Millisecond, cfg.SettleDelay)
	assert.False(t, cfg.BackgroundEnabled)
	assert.Equal(t, 30, cfg.PollRateLimitBurst)
	assert.Equal(t, 50, cfg.MaxSessions)
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "rav.toml")
	require.NoError(t, os.WriteFile(path, []byte(`retry_count = 3`), 0o600))

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry_count")
}

func TestValidateRejectsBadEndpoint(t *testing.T) {
	cfg := Defaults()
	cfg.AnalyzeEndpoint = "not a url"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AnalyzeEndpoint")
}

func TestValidateRejectsNegativeDelay(t *testing.T) {
	cfg := Defaults()
	cfg.SettleDelay = -time.Second
	require.Error(t, cfg.Validate())
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANALYZE_SETTLE_DELAY", "soon")

	_, err := LoadFrom("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANALYZE_SETTLE_DELAY")
}
