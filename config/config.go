package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"wingo/database"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL      string
	DatabaseName     string
	DatabaseMaxConns int32 // pool size; every bet and settlement step holds one connection for its transaction

	// HTTP configuration
	HTTPAddr string

	// Redis configuration (round snapshot cache, optional)
	RedisURL      string
	RoundCacheTTL time.Duration

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables publishing

	// Round configuration
	RoundDuration     time.Duration
	BetCloseBeforeEnd time.Duration
	SchedulerSchedule string // robfig/cron spec for the round scheduler tick

	// Wallet limits
	MinDeposit      decimal.Decimal
	MaxDeposit      decimal.Decimal
	MinWithdrawal   decimal.Decimal
	MaxWithdrawal   decimal.Decimal
	ReferralBonus   decimal.Decimal
	HistoryLimit    int
	MaxHistoryLimit int

	// Payment gateway configuration
	PaymentGatewayURL   string
	PaymentKeyID        string
	PaymentKeySecret    string
	PayoutGatewayURL    string
	PayoutAPIKey        string
	PayoutAccount       string
	PayoutWebhookSecret string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int
	OTelServiceName          string

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from environment variables, reading a .env file first if one exists
func load() (*Config, error) {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseName:     os.Getenv("DATABASE_NAME"),
		DatabaseMaxConns: 20,

		HTTPAddr: getEnvWithDefault("HTTP_ADDR", ":8080"),

		RedisURL:      os.Getenv("REDIS_URL"),
		RoundCacheTTL: getDurationWithDefault("ROUND_CACHE_TTL", 2*time.Second),

		NATSServers: os.Getenv("NATS_SERVERS"),

		RoundDuration:     getDurationWithDefault("ROUND_DURATION", 60*time.Second),
		BetCloseBeforeEnd: getDurationWithDefault("BET_CLOSE_BEFORE_END", 30*time.Second),
		SchedulerSchedule: getEnvWithDefault("SCHEDULER_SCHEDULE", "@every 10s"),

		MinDeposit:      getDecimalWithDefault("MIN_DEPOSIT", 70),
		MaxDeposit:      getDecimalWithDefault("MAX_DEPOSIT", 50000),
		MinWithdrawal:   getDecimalWithDefault("MIN_WITHDRAWAL", 110),
		MaxWithdrawal:   getDecimalWithDefault("MAX_WITHDRAWAL", 50000),
		ReferralBonus:   getDecimalWithDefault("REFERRAL_BONUS", 25),
		HistoryLimit:    50,
		MaxHistoryLimit: 100,

		PaymentGatewayURL:   os.Getenv("PAYMENT_GATEWAY_URL"),
		PaymentKeyID:        os.Getenv("PAYMENT_KEY_ID"),
		PaymentKeySecret:    os.Getenv("PAYMENT_KEY_SECRET"),
		PayoutGatewayURL:    os.Getenv("PAYOUT_GATEWAY_URL"),
		PayoutAPIKey:        os.Getenv("PAYOUT_API_KEY"),
		PayoutAccount:       os.Getenv("PAYOUT_ACCOUNT_NUMBER"),
		PayoutWebhookSecret: os.Getenv("PAYOUT_WEBHOOK_SECRET"),

		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: 60000,
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "wingo"),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if maxConns := os.Getenv("DATABASE_MAX_CONNS"); maxConns != "" {
		parsed, err := strconv.ParseInt(maxConns, 10, 32)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("DATABASE_MAX_CONNS must be a positive integer, got %q", maxConns)
		}
		config.DatabaseMaxConns = int32(parsed)
	}

	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			config.OTelExportIntervalMillis = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
		if config.PaymentKeySecret == "" {
			return nil, fmt.Errorf("PAYMENT_KEY_SECRET is required")
		}
	}

	if config.BetCloseBeforeEnd >= config.RoundDuration {
		return nil, fmt.Errorf("BET_CLOSE_BEFORE_END (%s) must be shorter than ROUND_DURATION (%s)", config.BetCloseBeforeEnd, config.RoundDuration)
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDecimalWithDefault(key string, defaultValue int64) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
	}
	return decimal.NewFromInt(defaultValue)
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:         "test",
		DatabaseMaxConns:    10,
		HTTPAddr:            ":0",
		RoundCacheTTL:       2 * time.Second,
		RoundDuration:       60 * time.Second,
		BetCloseBeforeEnd:   30 * time.Second,
		SchedulerSchedule:   "@every 10s",
		MinDeposit:          decimal.NewFromInt(70),
		MaxDeposit:          decimal.NewFromInt(50000),
		MinWithdrawal:       decimal.NewFromInt(110),
		MaxWithdrawal:       decimal.NewFromInt(50000),
		ReferralBonus:       decimal.NewFromInt(25),
		HistoryLimit:        50,
		MaxHistoryLimit:     100,
		PaymentKeySecret:    "test-payment-secret",
		PayoutWebhookSecret: "test-webhook-secret",
		OTelExporterType:    "none",
		OTelServiceName:     "wingo-test",
		LogLevel:            "debug",
	}
}
