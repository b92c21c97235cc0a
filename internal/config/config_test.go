package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreyysyy/orbit/internal/propagation"
	"github.com/kreyysyy/orbit/internal/transform"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 4, cfg.HTTP.MaxConcurrentPerIP)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, propagation.DefaultConfig(), cfg.Prop)
	assert.Equal(t, runtime.NumCPU(), cfg.Prop.Workers)
	assert.Equal(t, DefaultSourceURL, cfg.TLE.SourceURL)
	assert.Empty(t, cfg.TLE.ExtraSourceURLs)
	assert.Equal(t, 6*time.Hour, cfg.TLE.RefreshInterval)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ORBIT_HTTP_ADDR", ":9090")
	t.Setenv("ORBIT_PROP_WORKERS", "3")
	t.Setenv("ORBIT_PROP_STEP", "30s")
	t.Setenv("ORBIT_PROP_HORIZON", "3h")
	t.Setenv("ORBIT_PROP_MAX_ITERATIONS", "50")
	t.Setenv("ORBIT_PROP_TOLERANCE", "1e-8")
	t.Setenv("ORBIT_PROP_SIDEREAL_MODEL", "meeus")
	t.Setenv("ORBIT_TLE_VERIFY_CHECKSUM", "true")
	t.Setenv("ORBIT_TLE_EXTRA_URLS", "https://a.example/tle, https://b.example/tle")
	t.Setenv("ORBIT_TRACING_ENABLED", "true")
	t.Setenv("ORBIT_TRACING_EXPORTER", "OTLP")
	t.Setenv("ORBIT_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("ORBIT_LOG_LEVEL", "debug")

	cfg, err := Load(New(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 3, cfg.Prop.Workers)
	assert.Equal(t, 30*time.Second, cfg.Prop.Step)
	assert.Equal(t, 3*time.Hour, cfg.Prop.Horizon)
	assert.Equal(t, 50, cfg.Prop.MaxIterations)
	assert.Equal(t, 1e-8, cfg.Prop.Tolerance)
	assert.Equal(t, transform.SiderealMeeus, cfg.Prop.Sidereal)
	assert.True(t, cfg.TLE.VerifyChecksum)
	assert.Equal(t, []string{"https://a.example/tle", "https://b.example/tle"}, cfg.TLE.ExtraSourceURLs)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "otlp", cfg.Tracing.Exporter)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRatio)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("ORBIT_PROP_WORKERS", "zero")
	t.Setenv("ORBIT_PROP_STEP", "-5s")
	t.Setenv("ORBIT_PROP_MAX_ITERATIONS", "0")
	t.Setenv("ORBIT_PROP_TOLERANCE", "tiny")
	t.Setenv("ORBIT_PROP_SIDEREAL_MODEL", "greenwich")
	t.Setenv("ORBIT_TRACING_SAMPLE_RATIO", "2")
	t.Setenv("ORBIT_LOG_LEVEL", "loud")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	cfg, err := Load(New(), "", logger)
	require.NoError(t, err)

	d := propagation.DefaultConfig()
	assert.Equal(t, runtime.NumCPU(), cfg.Prop.Workers)
	assert.Equal(t, d.Step, cfg.Prop.Step)
	assert.Equal(t, d.MaxIterations, cfg.Prop.MaxIterations)
	assert.Equal(t, d.Tolerance, cfg.Prop.Tolerance)
	assert.Equal(t, transform.SiderealCurtis, cfg.Prop.Sidereal)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)

	for _, key := range []string{"prop.workers", "prop.step", "prop.max_iterations", "prop.tolerance", "prop.sidereal_model", "tracing.sample_ratio", "log.level"} {
		assert.Contains(t, buf.String(), key, "expected a warning mentioning %s", key)
	}
}

func TestLoadAuth(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		enabled bool
	}{
		{"disabled by default", nil, false, false},
		{"enabled with token", map[string]string{"ORBIT_AUTH_ENABLED": "true", "ORBIT_AUTH_TOKEN": "s3cret"}, false, true},
		{"enabled without token", map[string]string{"ORBIT_AUTH_ENABLED": "1"}, true, false},
		{"not a boolean", map[string]string{"ORBIT_AUTH_ENABLED": "sometimes"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(New(), "", nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, cfg.Auth.Enabled)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbit.yaml")
	content := `
http:
  addr: ":7000"
prop:
  workers: 2
  step: 15s
  sidereal_model: iau82
tle:
  source_url: https://example.com/tle.txt
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// Environment wins over the file.
	t.Setenv("ORBIT_PROP_WORKERS", "5")

	cfg, err := Load(New(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, 5, cfg.Prop.Workers)
	assert.Equal(t, 15*time.Second, cfg.Prop.Step)
	assert.Equal(t, transform.SiderealIAU82, cfg.Prop.Sidereal)
	assert.Equal(t, "https://example.com/tle.txt", cfg.TLE.SourceURL)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestLogAttrs(t *testing.T) {
	cfg, err := Load(New(), "", nil)
	require.NoError(t, err)
	attrs := cfg.LogAttrs()
	assert.Equal(t, 0, len(attrs)%2)
	assert.Contains(t, attrs, "sidereal_model")
}
