package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"zhigulbot/database"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken      string
	DiscordGuildID    string
	AnnounceChannelID string // Channel that receives cycle results, empty to disable

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Wager configuration
	StartingBalance   int64
	WagerStake        int64
	IntakeLockTimeout time.Duration // Longest a wager waits behind a running settlement

	// Settlement configuration
	SettlementInterval    time.Duration
	SettlementLockTimeout time.Duration
	SettlementLeaseTTL    time.Duration
	QueueLowWatermark     int64

	// Forecast configuration
	ForecastURL     string // Remote model endpoint, empty to use the local drift model
	ForecastTimeout time.Duration
	ForecastDepth   int

	// Chart configuration
	ChartDir     string
	ChartTimeout time.Duration

	// Infrastructure
	HTTPAddr    string
	RedisURL    string // Optional, enables the cross-replica settlement lease
	NATSServers string // Optional, enables event forwarding

	LogLevel    string
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

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL combines the base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// BotEnabled reports whether the Discord front-end should start
func (c *Config) BotEnabled() bool {
	return c.DiscordToken != ""
}

// CycleSpacing is the shortest gap allowed between the starts of two
// committed cycles. It trails the interval slightly so a replica's own next
// tick, which may fire a few milliseconds early relative to the last start,
// is never refused.
func CycleSpacing(interval time.Duration) time.Duration {
	return interval - min(time.Second, interval/20)
}

// MinCycleSpacing applies CycleSpacing to the configured interval
func (c *Config) MinCycleSpacing() time.Duration {
	return CycleSpacing(c.SettlementInterval)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DiscordToken:      os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID:    os.Getenv("DISCORD_GUILD_ID"),
		AnnounceChannelID: os.Getenv("ANNOUNCE_CHANNEL_ID"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		ForecastURL: os.Getenv("FORECAST_URL"),
		ChartDir:    getEnvWithDefault("CHART_DIR", "images"),

		HTTPAddr:    getEnvWithDefault("HTTP_ADDR", ":8080"),
		RedisURL:    os.Getenv("REDIS_URL"),
		NATSServers: os.Getenv("NATS_SERVERS"),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	var err error
	if config.StartingBalance, err = int64FromEnv("STARTING_BALANCE", 3000); err != nil {
		return nil, err
	}
	if config.WagerStake, err = int64FromEnv("WAGER_STAKE", 10); err != nil {
		return nil, err
	}
	if config.QueueLowWatermark, err = int64FromEnv("QUEUE_LOW_WATERMARK", 10); err != nil {
		return nil, err
	}
	depth, err := int64FromEnv("FORECAST_DEPTH", 60)
	if err != nil {
		return nil, err
	}
	config.ForecastDepth = int(depth)

	durations := []struct {
		key    string
		target *time.Duration
		def    time.Duration
	}{
		{"INTAKE_LOCK_TIMEOUT", &config.IntakeLockTimeout, 2 * time.Second},
		{"SETTLEMENT_INTERVAL", &config.SettlementInterval, time.Minute},
		{"SETTLEMENT_LOCK_TIMEOUT", &config.SettlementLockTimeout, 10 * time.Second},
		{"SETTLEMENT_LEASE_TTL", &config.SettlementLeaseTTL, 0},
		{"FORECAST_TIMEOUT", &config.ForecastTimeout, 5 * time.Second},
		{"CHART_TIMEOUT", &config.ChartTimeout, 30 * time.Second},
	}
	for _, d := range durations {
		if *d.target, err = durationFromEnv(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if config.SettlementLeaseTTL == 0 {
		config.SettlementLeaseTTL = config.SettlementInterval * 3 / 4
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Environment == "test" {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be blank when provided")
	}
	if c.WagerStake <= 0 {
		return fmt.Errorf("WAGER_STAKE must be positive")
	}
	if c.StartingBalance < 0 {
		return fmt.Errorf("STARTING_BALANCE cannot be negative")
	}
	if c.SettlementInterval <= 0 {
		return fmt.Errorf("SETTLEMENT_INTERVAL must be positive")
	}
	// A lease outliving the interval would make the holder skip its own next tick
	if c.SettlementLeaseTTL >= c.SettlementInterval {
		return fmt.Errorf("SETTLEMENT_LEASE_TTL must be shorter than SETTLEMENT_INTERVAL")
	}
	if c.ForecastDepth < 30 {
		return fmt.Errorf("FORECAST_DEPTH must be at least 30")
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func int64FromEnv(key string, defaultValue int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func durationFromEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		StartingBalance:       3000,
		WagerStake:            10,
		IntakeLockTimeout:     time.Second,
		SettlementInterval:    time.Minute,
		SettlementLockTimeout: 5 * time.Second,
		SettlementLeaseTTL:    45 * time.Second,
		QueueLowWatermark:     10,
		ForecastTimeout:       time.Second,
		ForecastDepth:         60,
		ChartDir:              os.TempDir(),
		ChartTimeout:          5 * time.Second,
		HTTPAddr:              ":0",
		LogLevel:              "debug",
		Environment:           "test",
	}
}
