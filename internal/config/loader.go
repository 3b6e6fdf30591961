package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

var (
	global   *Config
	initErr  error
	initOnce sync.Once
)

// GetConfig returns the process-wide configuration, loading it on first call.
// Three sources are layered, later ones winning: built-in defaults, the JSON
// file named by CONFIG_PATH (config/config.json when unset), and environment
// variables.
func GetConfig() (*Config, error) {
	initOnce.Do(func() {
		global, initErr = load()
	})
	return global, initErr
}

func load() (*Config, error) {
	cfg := defaultConfig()

	if err := applyJSONFile(&cfg); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			ReadTimeout:  Duration(30 * time.Second),
			WriteTimeout: Duration(30 * time.Second),
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "password",
			DBName:   "quickcart",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			URL:      "redis://localhost:6379/0",
			PoolSize: 50,
		},
		Cache: CacheConfig{
			DefaultTTL: Duration(time.Hour),
		},
		OTP: OTPConfig{
			ExpiryMinutes: 5,
			MaxAttempts:   3,
			Lockout:       Duration(time.Hour),
		},
		RateLimit: RateLimitConfig{
			Default: RateRule{Calls: 100, Window: Duration(time.Minute)},
			Rules: map[string]RateRule{
				"/api/v1/auth":   {Calls: 5, Window: Duration(time.Minute)},
				"/api/v1/search": {Calls: 30, Window: Duration(time.Minute)},
			},
		},
	}
}

// applyJSONFile overlays cfg with the JSON config file. A missing file is
// fine; a file that exists but cannot be parsed is not.
func applyJSONFile(cfg *Config) error {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = filepath.Join("config", "config.json")
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	v := validator.New()

	// Duration fields must carry a positive value once loading is done.
	if err := v.RegisterValidation("duration_gt0", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(Duration)
		return ok && d > 0
	}); err != nil {
		return err
	}

	return v.Struct(cfg)
}
