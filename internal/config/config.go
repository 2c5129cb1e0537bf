package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type Config struct {
	HTTPPort           string
	GRPCHealthPort     string
	BackendBaseURL     string
	PublicBaseURL      string
	SaleCategoryID     string
	RedisAddr          string
	RedisPassword      string
	LedgerDBPath       string
	KafkaBrokers       []string
	KafkaTopic         string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	SessionTTL         time.Duration
	CategoryCacheTTL   time.Duration
	Currency           domain.Currency
	CookieSecure       bool
	LogLevel           string
	MaxRequestBodySize int64
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		GRPCHealthPort:     getEnv("GRPC_HEALTH_PORT", "50070"),
		BackendBaseURL:     getEnv("BACKEND_BASE_URL", "http://localhost:3000"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		SaleCategoryID:     getEnv("SALE_CATEGORY_ID", "bd571c5c-8455-4646-9a85-e8941986b644"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		LedgerDBPath:       getEnv("LEDGER_DB_PATH", "./payments.db"),
		KafkaBrokers:       getEnvList("KAFKA_BROKERS"),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "storefront-checkout-events"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxRequestBodySize: 1 << 20, // 1MB
	}

	var err error
	if cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CategoryCacheTTL, err = getEnvDuration("CATEGORY_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = getEnvBool("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.Currency, err = domain.ParseCurrency(getEnv("CURRENCY_DISPLAY", "toman")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
