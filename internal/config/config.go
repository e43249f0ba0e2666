package config

import (
	"fmt"
	"strings"
	"time"

	"sbrf-gateway/pkg/sbrf"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"golang.org/x/time/rate"
)

type Config struct {
	AppEnv   string
	LogLevel string

	UserName          string
	Password          string
	TestMode          bool
	ReturnURL         string
	FailURL           string
	TestBaseURL       string
	ProductionBaseURL string

	HTTPTimeout time.Duration
	RateLimit   float64
	RateBurst   int
}

// LoadConfig reads an optional .env file and then the process environment.
// Credentials are not checked here; the gateway client reports them per call.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:            valueOrDefault(k.String("APP_ENV"), "development"),
		LogLevel:          k.String("LOG_LEVEL"),
		UserName:          k.String("SBRF_USERNAME"),
		Password:          k.String("SBRF_PASSWORD"),
		TestMode:          parseBool(k.String("SBRF_TEST_MODE")),
		ReturnURL:         strings.TrimSpace(k.String("SBRF_RETURN_URL")),
		FailURL:           strings.TrimSpace(k.String("SBRF_FAIL_URL")),
		TestBaseURL:       strings.TrimSpace(k.String("SBRF_TEST_URL")),
		ProductionBaseURL: strings.TrimSpace(k.String("SBRF_PRODUCTION_URL")),
		HTTPTimeout:       parseDuration(k.String("SBRF_HTTP_TIMEOUT"), "30s"),
		RateLimit:         k.Float64("SBRF_RATE_LIMIT"),
		RateBurst:         k.Int("SBRF_RATE_BURST"),
	}

	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("SBRF_RATE_LIMIT must not be negative, got %v", cfg.RateLimit)
	}
	if cfg.RateLimit > 0 && cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}

	return cfg, nil
}

// Gateway converts the loaded settings into the client configuration.
func (c *Config) Gateway() sbrf.Config {
	return sbrf.Config{
		UserName:          c.UserName,
		Password:          c.Password,
		TestMode:          c.TestMode,
		ReturnURL:         c.ReturnURL,
		FailURL:           c.FailURL,
		TestBaseURL:       c.TestBaseURL,
		ProductionBaseURL: c.ProductionBaseURL,
	}
}

// Limiter returns nil when rate limiting is disabled.
func (c *Config) Limiter() *rate.Limiter {
	if c.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.RateLimit), c.RateBurst)
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
