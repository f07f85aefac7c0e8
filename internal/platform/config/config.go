// Package config builds process configuration from environment variables so
// main stays lean. Library consumers construct services directly and ignore
// this package.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config captures daemon-level configuration.
type Config struct {
	Addr        string
	DatabaseURL string
	// RedisURL selects the Redis-backed rate limit counter store when set;
	// empty means per-process in-memory counters.
	RedisURL string

	// CaptchaSigningKey signs web-captcha session tokens.
	CaptchaSigningKey string
	// CaptchaBaseURL is the public URL the captcha page lives under.
	CaptchaBaseURL string

	// SweepInterval drives the statestore and challenge expiry sweeps.
	SweepInterval time.Duration
	// IncidentDecayInterval drives the 30-day incident decay job.
	IncidentDecayInterval time.Duration

	LogLevel slog.Level
}

// FromEnv reads configuration from the environment, applying development
// defaults for anything unset.
func FromEnv() Config {
	cfg := Config{
		Addr:                  getenv("WARDEN_ADDR", ":8090"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		CaptchaSigningKey:     getenv("CAPTCHA_SIGNING_KEY", "dev-secret-change-in-production"),
		CaptchaBaseURL:        getenv("CAPTCHA_BASE_URL", "http://localhost:8090/captcha"),
		SweepInterval:         getDuration("WARDEN_SWEEP_INTERVAL", time.Minute),
		IncidentDecayInterval: getDuration("WARDEN_DECAY_INTERVAL", 6*time.Hour),
		LogLevel:              slog.LevelInfo,
	}
	if os.Getenv("WARDEN_DEBUG") == "true" {
		cfg.LogLevel = slog.LevelDebug
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
