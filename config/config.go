package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Matching  MatchingConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig holds catalog store configuration
type StoreConfig struct {
	Driver       string        `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN          string        `mapstructure:"dsn"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	AutoMigrate  bool          `mapstructure:"auto_migrate"`
}

// MatchingConfig holds the fuzzy matching thresholds and seller denylist
type MatchingConfig struct {
	CategoryThreshold  float64 `mapstructure:"category_threshold"`
	ProductThreshold   float64 `mapstructure:"product_threshold"`
	ExcludedSellerIDs  []int64 `mapstructure:"excluded_seller_ids"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/supplier-search/")

	// Environment variable settings
	v.SetEnvPrefix("SUPPLIERSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "3002")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "15s")

	// Store defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "file:suppliers.db")
	v.SetDefault("store.query_timeout", "10s")
	v.SetDefault("store.max_open_conns", 10)
	v.SetDefault("store.auto_migrate", true)

	// Matching defaults
	v.SetDefault("matching.category_threshold", 0.8)
	v.SetDefault("matching.product_threshold", 0.7)
	v.SetDefault("matching.excluded_seller_ids", []int64{25, 1761, 2, 2078, 2070, 4382})
	v.SetDefault("matching.enable_debug_logging", false)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if strings.TrimSpace(config.Server.Port) == "" {
		return fmt.Errorf("server port is required (set SUPPLIERSEARCH_SERVER_PORT)")
	}

	if config.Store.Driver != "sqlite" && config.Store.Driver != "postgres" {
		return fmt.Errorf("store driver must be 'sqlite' or 'postgres', got: %s", config.Store.Driver)
	}

	if config.Store.Driver == "postgres" && config.Store.DSN == "" {
		return fmt.Errorf("store DSN is required when store driver is 'postgres'")
	}

	if config.Store.QueryTimeout <= 0 {
		return fmt.Errorf("store query timeout must be positive, got: %s", config.Store.QueryTimeout)
	}

	if !validThreshold(config.Matching.CategoryThreshold) {
		return fmt.Errorf("category threshold must be in (0, 1), got: %v", config.Matching.CategoryThreshold)
	}

	if !validThreshold(config.Matching.ProductThreshold) {
		return fmt.Errorf("product threshold must be in (0, 1), got: %v", config.Matching.ProductThreshold)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("rate limit per IP must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}

// validThreshold rejects 0 as well: the matchers treat a zero threshold as unset
func validThreshold(t float64) bool {
	return t > 0 && t < 1
}

// loadEnvFile loads KEY=VALUE pairs from ./.env into the process environment.
// Variables already set are left untouched. A missing file is not an error.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return err
		}
	}

	return nil
}
