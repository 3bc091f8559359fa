package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Storage backends
const (
	BackendFile       = "file"
	BackendClickHouse = "clickhouse"
	BackendMemory     = "memory"
)

// Config holds the application configuration
type Config struct {
	Port string

	// Storage configuration
	Backend     string // file, clickhouse or memory
	DataDir     string // directory holding one file per collection (file backend)
	StoreFormat string // json or yaml (file backend)

	// Logging configuration
	LogLevel  zapcore.Level
	LogFormat string // json or console

	// ClickHouse configuration
	ClickHouseHost        string
	ClickHousePort        int
	ClickHouseDatabase    string
	ClickHouseUser        string
	ClickHousePassword    string
	ClickHouseUseTLS      bool
	ClickHouseAutoMigrate bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	config.Port = os.Getenv("PORT")
	if config.Port == "" {
		config.Port = "8080" // Default port
	}
	if _, err := strconv.Atoi(config.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	// Storage backend (default: file). USE_MOCK_DB is kept as a shorthand for memory.
	config.Backend = strings.ToLower(os.Getenv("STORAGE_BACKEND"))
	if os.Getenv("USE_MOCK_DB") == "true" {
		config.Backend = BackendMemory
	}
	if config.Backend == "" {
		config.Backend = BackendFile
	}
	switch config.Backend {
	case BackendFile, BackendClickHouse, BackendMemory:
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %s (expected file, clickhouse or memory)", config.Backend)
	}

	config.DataDir = os.Getenv("DATA_DIR")
	if config.DataDir == "" {
		config.DataDir = "./data"
	}

	config.StoreFormat = strings.ToLower(os.Getenv("STORE_FORMAT"))
	switch config.StoreFormat {
	case "":
		config.StoreFormat = "json"
	case "json", "yaml":
	default:
		return nil, fmt.Errorf("invalid STORE_FORMAT: %s (expected json or yaml)", config.StoreFormat)
	}

	// Logging
	config.LogLevel = zap.InfoLevel
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		config.LogLevel = parsed
	}

	config.LogFormat = strings.ToLower(os.Getenv("LOG_FORMAT"))
	switch config.LogFormat {
	case "":
		config.LogFormat = "json"
	case "json", "console":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT: %s (expected json or console)", config.LogFormat)
	}

	// ClickHouse configuration (required for the clickhouse backend)
	if config.Backend == BackendClickHouse {
		if err := config.loadClickHouse(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// LoadClickHouseFromEnv loads the configuration and requires the ClickHouse
// settings whatever STORAGE_BACKEND says. Used by cmd/migrate.
func LoadClickHouseFromEnv() (*Config, error) {
	config, err := LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if config.Backend != BackendClickHouse {
		if err := config.loadClickHouse(); err != nil {
			return nil, err
		}
	}
	return config, nil
}

func (c *Config) loadClickHouse() error {
	c.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
	if c.ClickHouseHost == "" {
		return fmt.Errorf("CLICKHOUSE_HOST is required for ClickHouse storage")
	}

	portStr := os.Getenv("CLICKHOUSE_PORT")
	if portStr == "" {
		c.ClickHousePort = 9000 // Default ClickHouse native port
	} else {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err)
		}
		c.ClickHousePort = port
	}

	c.ClickHouseDatabase = os.Getenv("CLICKHOUSE_DATABASE")
	if c.ClickHouseDatabase == "" {
		c.ClickHouseDatabase = "default"
	}

	c.ClickHouseUser = os.Getenv("CLICKHOUSE_USER")
	if c.ClickHouseUser == "" {
		c.ClickHouseUser = "default"
	}

	c.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
	// Password is optional, can be empty

	c.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	c.ClickHouseAutoMigrate = os.Getenv("CLICKHOUSE_AUTO_MIGRATE") == "true"
	return nil
}

// NewLogger builds the zap logger described by the configuration
func (c *Config) NewLogger() (*zap.Logger, error) {
	var zc zap.Config
	if c.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(c.LogLevel)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
