package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"manifest-service/internal/platform/logger"
)

// Config is the runtime configuration read from the environment.
type Config struct {
	Port        string
	DatabaseURL string
	SeedPath    string

	// Empty disables the Redis locker; locks then stay in-process.
	RedisURL     string
	LockTTL      time.Duration
	LockWait     time.Duration
	PODDir       string
	PODBaseURL   string
	TariffPath   string
	RateLimitRPS float64
	CORSOrigins  []string

	LogLevel  string
	LogFormat string
	LogOutput string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:         Get("PORT", "8080"),
		DatabaseURL:  Get("DATABASE_URL", "data/manifest.db"),
		SeedPath:     Get("SEED_PATH", "data/seeds/jobs.json"),
		RedisURL:     os.Getenv("REDIS_URL"),
		PODDir:       Get("POD_DIR", "data/pod"),
		PODBaseURL:   Get("POD_BASE_URL", "/pod"),
		TariffPath:   os.Getenv("TARIFF_PATH"),
		CORSOrigins:  splitList(Get("CORS_ORIGINS", "*")),
		LogLevel:     Get("LOG_LEVEL", "info"),
		LogFormat:    Get("LOG_FORMAT", "json"),
		LogOutput:    Get("LOG_OUTPUT", "stdout"),
		LockTTL:      10 * time.Second,
		LockWait:     3 * time.Second,
		RateLimitRPS: 20,
	}

	var err error
	if cfg.LockTTL, err = durationEnv("LOCK_TTL", cfg.LockTTL); err != nil {
		return nil, err
	}
	if cfg.LockWait, err = durationEnv("LOCK_WAIT", cfg.LockWait); err != nil {
		return nil, err
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("config: RATE_LIMIT_RPS %q: %w", v, err)
		}
		cfg.RateLimitRPS = rps
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	return nil
}

func (c *Config) LoggerConfig() logger.LogConfig {
	lc := logger.DefaultConfig()
	lc.Level = c.LogLevel
	lc.Format = c.LogFormat
	lc.Output = c.LogOutput
	return lc
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
