package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Dataset sources.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Dataset  DatasetConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DatasetConfig holds the location and source of the bike sharing dataset
type DatasetConfig struct {
	Path   string
	Source string // "csv" or "postgres"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables take precedence over it.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         envString("SERVER_HOST", "0.0.0.0"),
			Port:         envInt("SERVER_PORT", 8080),
			ReadTimeout:  envDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: envDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  envDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            envString("DB_HOST", "localhost"),
			Port:            envInt("DB_PORT", 5432),
			User:            envString("DB_USER", "bikeshare"),
			Password:        envString("DB_PASSWORD", ""),
			Database:        envString("DB_NAME", "bikeshare"),
			SSLMode:         envString("DB_SSLMODE", "disable"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: envDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Dataset: DatasetConfig{
			Path:   envString("DATASET_PATH", "./data/day.csv"),
			Source: envString("DATASET_SOURCE", SourceCSV),
		},
		Logging: LoggingConfig{
			Level: envString("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	if c.Dataset.Source != SourceCSV && c.Dataset.Source != SourcePostgres {
		return fmt.Errorf("invalid dataset source %q, expected %q or %q", c.Dataset.Source, SourceCSV, SourcePostgres)
	}

	if c.Dataset.Source == SourceCSV && c.Dataset.Path == "" {
		return fmt.Errorf("dataset path is required when source is %q", SourceCSV)
	}

	if c.Dataset.Source == SourcePostgres {
		if c.Database.Host == "" || c.Database.Database == "" {
			return fmt.Errorf("database host and name are required when source is %q", SourcePostgres)
		}
	}

	if c.Database.MaxOpenConns < c.Database.MaxIdleConns {
		return fmt.Errorf("max open connections (%d) must be >= max idle connections (%d)",
			c.Database.MaxOpenConns, c.Database.MaxIdleConns)
	}

	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
