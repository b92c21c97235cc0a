// Package config loads runtime settings from defaults, an optional config
// file and ORBIT_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kreyysyy/orbit/internal/auth"
	"github.com/kreyysyy/orbit/internal/observability"
	"github.com/kreyysyy/orbit/internal/propagation"
	"github.com/kreyysyy/orbit/internal/transform"
)

// EnvPrefix is prepended to every environment variable, so prop.workers is
// read from ORBIT_PROP_WORKERS.
const EnvPrefix = "ORBIT"

// DefaultSourceURL is the CelesTrak active-satellite catalog.
const DefaultSourceURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle"

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Addr               string
	TrustProxy         bool // honour X-Forwarded-For / X-Real-IP
	MaxConcurrentPerIP int  // concurrent ground-track and pass requests per client
}

// TLEConfig holds catalog fetch settings.
type TLEConfig struct {
	EnableFetch     bool
	SourceURL       string
	ExtraSourceURLs []string
	VerifyChecksum  bool
	RefreshInterval time.Duration
}

// Config is the fully resolved runtime configuration.
type Config struct {
	HTTP     HTTPConfig
	Auth     auth.Config
	Prop     propagation.Config
	TLE      TLEConfig
	Tracing  observability.TracingConfig
	LogLevel slog.Level
}

// New returns a viper instance with every key defaulted and environment
// lookup enabled.
func New() *viper.Viper {
	v := viper.New()
	d := propagation.DefaultConfig()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.trust_proxy", false)
	v.SetDefault("http.max_concurrent_per_ip", 4)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token", "")
	v.SetDefault("prop.workers", d.Workers)
	v.SetDefault("prop.step", d.Step)
	v.SetDefault("prop.horizon", d.Horizon)
	v.SetDefault("prop.max_iterations", d.MaxIterations)
	v.SetDefault("prop.tolerance", d.Tolerance)
	v.SetDefault("prop.sidereal_model", string(d.Sidereal))
	v.SetDefault("tle.enable_fetch", false)
	v.SetDefault("tle.source_url", DefaultSourceURL)
	v.SetDefault("tle.extra_urls", []string{})
	v.SetDefault("tle.verify_checksum", false)
	v.SetDefault("tle.refresh_interval", 6*time.Hour)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "orbit")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file at path into v and resolves the
// result. Invalid numeric and enum values fall back to their defaults with
// a warning; an invalid auth section is an error.
func Load(v *viper.Viper, path string, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	authCfg, err := loadAuth(v)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Addr:               v.GetString("http.addr"),
			TrustProxy:         v.GetBool("http.trust_proxy"),
			MaxConcurrentPerIP: positiveInt(v, logger, "http.max_concurrent_per_ip", 4),
		},
		Auth:     authCfg,
		Prop:     loadProp(v, logger),
		TLE:      loadTLE(v, logger),
		Tracing:  loadTracing(v, logger),
		LogLevel: loadLogLevel(v, logger),
	}
	return cfg, nil
}

func loadAuth(v *viper.Viper) (auth.Config, error) {
	cfg := auth.Config{}

	enabled, err := strconv.ParseBool(v.GetString("auth.enabled"))
	if err != nil {
		return cfg, errors.New("auth.enabled must be a boolean value (true/false/1/0)")
	}
	cfg.Enabled = enabled

	if cfg.Enabled {
		cfg.Token = v.GetString("auth.token")
		if cfg.Token == "" {
			return cfg, errors.New("auth.token is required when auth is enabled")
		}
	}
	return cfg, nil
}

func loadProp(v *viper.Viper, logger *slog.Logger) propagation.Config {
	d := propagation.DefaultConfig()
	cfg := propagation.Config{
		Workers:       positiveInt(v, logger, "prop.workers", runtime.NumCPU()),
		Step:          positiveDuration(v, logger, "prop.step", d.Step),
		Horizon:       positiveDuration(v, logger, "prop.horizon", d.Horizon),
		MaxIterations: positiveInt(v, logger, "prop.max_iterations", d.MaxIterations),
		Tolerance:     d.Tolerance,
		Sidereal:      d.Sidereal,
	}

	if tol, err := strconv.ParseFloat(v.GetString("prop.tolerance"), 64); err == nil && tol > 0 {
		cfg.Tolerance = tol
	} else {
		logger.Warn("invalid prop.tolerance value, using default",
			"value", v.GetString("prop.tolerance"), "default", d.Tolerance)
	}

	raw := v.GetString("prop.sidereal_model")
	if m, err := transform.ParseSiderealModel(raw); err != nil {
		logger.Warn("invalid prop.sidereal_model value, using default", "value", raw, "default", d.Sidereal)
	} else {
		cfg.Sidereal = m
	}
	return cfg
}

func loadTLE(v *viper.Viper, logger *slog.Logger) TLEConfig {
	cfg := TLEConfig{
		EnableFetch:     v.GetBool("tle.enable_fetch"),
		SourceURL:       v.GetString("tle.source_url"),
		VerifyChecksum:  v.GetBool("tle.verify_checksum"),
		RefreshInterval: positiveDuration(v, logger, "tle.refresh_interval", 6*time.Hour),
	}
	// Environment values arrive as one comma-separated string.
	for _, raw := range v.GetStringSlice("tle.extra_urls") {
		for _, u := range strings.Split(raw, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.ExtraSourceURLs = append(cfg.ExtraSourceURLs, u)
			}
		}
	}
	return cfg
}

func loadTracing(v *viper.Viper, logger *slog.Logger) observability.TracingConfig {
	cfg := observability.TracingConfig{
		Enabled:     v.GetBool("tracing.enabled"),
		ServiceName: v.GetString("tracing.service_name"),
		Exporter:    strings.ToLower(v.GetString("tracing.exporter")),
		Endpoint:    v.GetString("tracing.endpoint"),
		SampleRatio: 1,
	}
	if r, err := strconv.ParseFloat(v.GetString("tracing.sample_ratio"), 64); err == nil && r >= 0 && r <= 1 {
		cfg.SampleRatio = r
	} else {
		logger.Warn("invalid tracing.sample_ratio value, using default",
			"value", v.GetString("tracing.sample_ratio"), "default", 1.0)
	}
	return cfg
}

func loadLogLevel(v *viper.Viper, logger *slog.Logger) slog.Level {
	var level slog.Level
	raw := v.GetString("log.level")
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		logger.Warn("invalid log.level value, using default", "value", raw, "default", "info")
		return slog.LevelInfo
	}
	return level
}

func positiveInt(v *viper.Viper, logger *slog.Logger, key string, def int) int {
	n, err := strconv.Atoi(v.GetString(key))
	if err != nil || n < 1 {
		logger.Warn("invalid "+key+" value, using default", "value", v.GetString(key), "default", def)
		return def
	}
	return n
}

func positiveDuration(v *viper.Viper, logger *slog.Logger, key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		logger.Warn("invalid "+key+" value, using default", "value", v.GetString(key), "default", def.String())
		return def
	}
	return d
}

// LogAttrs returns the startup summary logged by the binaries.
func (c Config) LogAttrs() []any {
	return []any{
		"http_addr", c.HTTP.Addr,
		"auth_enabled", c.Auth.Enabled,
		"prop_workers", c.Prop.Workers,
		"prop_step", c.Prop.Step.String(),
		"prop_horizon", c.Prop.Horizon.String(),
		"prop_max_iterations", c.Prop.MaxIterations,
		"prop_tolerance", c.Prop.Tolerance,
		"sidereal_model", string(c.Prop.Sidereal),
		"tle_fetch_enabled", c.TLE.EnableFetch,
		"tle_source_url", c.TLE.SourceURL,
		"tle_verify_checksum", c.TLE.VerifyChecksum,
		"tracing_enabled", c.Tracing.Enabled,
		"log_level", c.LogLevel.String(),
	}
}
