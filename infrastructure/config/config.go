package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// RelayConfig holds configuration for the relay hub
type RelayConfig struct {
	// MaxConnections caps concurrent hub connections
	MaxConnections int `yaml:"maxConnections" validate:"gte=1"`
	// WriteTimeout bounds a single outbound WebSocket write
	WriteTimeout time.Duration `yaml:"writeTimeout" validate:"gt=0"`
	// PingInterval is the keepalive ping period
	PingInterval time.Duration `yaml:"pingInterval" validate:"gt=0"`
	// SendQueueSize is the per-connection outbound buffer
	SendQueueSize int `yaml:"sendQueueSize" validate:"gte=1"`
}

// SyncConfig holds configuration for the remote document client
type SyncConfig struct {
	// ReconnectBackoff is the initial wait before redialing the relay
	ReconnectBackoff time.Duration `yaml:"reconnectBackoff" validate:"gt=0"`
	// MaxReconnectBackoff caps the exponential redial backoff
	MaxReconnectBackoff time.Duration `yaml:"maxReconnectBackoff" validate:"gt=0"`
	// BreakerTimeout is how long the write circuit stays open
	BreakerTimeout time.Duration `yaml:"breakerTimeout" validate:"gt=0"`
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"serverAddress" validate:"required"`
	Environment   string `yaml:"environment" validate:"oneof=development staging production"`

	// Logging
	LogLevel string `yaml:"logLevel" validate:"oneof=debug info warn error"`

	// Feature flags
	EnableMetrics bool `yaml:"enableMetrics"`

	Relay RelayConfig `yaml:"relay"`
	Sync  SyncConfig  `yaml:"sync"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		ServerAddress: ":8080",
		Environment:   "development",
		LogLevel:      "info",
		EnableMetrics: true,
		Relay: RelayConfig{
			MaxConnections: 256,
			WriteTimeout:   10 * time.Second,
			PingInterval:   30 * time.Second,
			SendQueueSize:  64,
		},
		Sync: SyncConfig{
			ReconnectBackoff:    time.Second,
			MaxReconnectBackoff: 30 * time.Second,
			BreakerTimeout:      60 * time.Second,
		},
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file
// named by TRIPGRAPH_CONFIG, and environment variable overrides, in
// that order of increasing priority.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("TRIPGRAPH_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.EnableMetrics)
	cfg.Relay.MaxConnections = getEnvInt("RELAY_MAX_CONNECTIONS", cfg.Relay.MaxConnections)
	cfg.Relay.SendQueueSize = getEnvInt("RELAY_SEND_QUEUE_SIZE", cfg.Relay.SendQueueSize)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlayFile merges a YAML file over the current values
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsDevelopment checks for the development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
