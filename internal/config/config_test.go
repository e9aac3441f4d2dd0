package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Dataset.Source != SourceCSV {
		t.Errorf("Dataset.Source = %q, want %q", cfg.Dataset.Source, SourceCSV)
	}
	if cfg.Dataset.Path != "./data/day.csv" {
		t.Errorf("Dataset.Path = %q, want ./data/day.csv", cfg.Dataset.Path)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Database.MaxOpenConns = %d, want 25", cfg.Database.MaxOpenConns)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATASET_SOURCE", "postgres")
	t.Setenv("DATASET_PATH", "/srv/data/day.csv")
	t.Setenv("DB_CONN_MAX_LIFETIME", "30m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Dataset.Source != SourcePostgres {
		t.Errorf("Dataset.Source = %q, want %q", cfg.Dataset.Source, SourcePostgres)
	}
	if cfg.Dataset.Path != "/srv/data/day.csv" {
		t.Errorf("Dataset.Path = %q", cfg.Dataset.Path)
	}
	if cfg.Database.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("Database.ConnMaxLifetime = %v, want 30m", cfg.Database.ConnMaxLifetime)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want fallback 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want fallback 15s", cfg.Server.ReadTimeout)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"unknown source", func(c *Config) { c.Dataset.Source = "sqlite" }, true},
		{"csv without path", func(c *Config) {
			c.Dataset.Source = SourceCSV
			c.Dataset.Path = ""
		}, true},
		{"postgres without host", func(c *Config) {
			c.Dataset.Source = SourcePostgres
			c.Database.Host = ""
		}, true},
		{"postgres source", func(c *Config) { c.Dataset.Source = SourcePostgres }, false},
		{"idle exceeds open", func(c *Config) {
			c.Database.MaxOpenConns = 2
			c.Database.MaxIdleConns = 10
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
