// Package config loads relay settings from the environment.
//
// Variables carry the BACKUP_ prefix, e.g. BACKUP_INSTITUTE_URL maps to
// Config.InstituteURL. A .env file in the working directory is loaded first
// when present.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const prefix = "BACKUP_"

// DefaultInstituteURL is the remote backup endpoint used when neither the
// environment nor the request names one.
const DefaultInstituteURL = "https://paymangaysoranmder.vercel.app/api/backup"

// Config holds the relay settings
type Config struct {
	InstituteURL   string        `koanf:"institute_url" validate:"required,url"`
	ProbeTimeout   time.Duration `koanf:"probe_timeout" validate:"gt=0"`
	ForwardTimeout time.Duration `koanf:"forward_timeout" validate:"gt=0"`
	MaxBodyBytes   int64         `koanf:"max_body_bytes" validate:"gt=0"`
	QueueURL       string        `koanf:"queue_url" validate:"omitempty,url"`
	Region         string        `koanf:"aws_region"`
	LogLevel       string        `koanf:"log_level" validate:"oneof=trace debug info warn error disabled"`
	DevAddr        string        `koanf:"dev_addr" validate:"required"`
}

// Default returns the settings used when nothing is overridden
func Default() *Config {
	return &Config{
		InstituteURL:   DefaultInstituteURL,
		ProbeTimeout:   10 * time.Second,
		ForwardTimeout: 30 * time.Second,
		MaxBodyBytes:   10 << 20,
		LogLevel:       "info",
		DevAddr:        ":8080",
	}
}

// Load reads BACKUP_* variables over the defaults and validates the result
func Load() (*Config, error) {

	k := koanf.New(".")

	err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, prefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load environment: %w", err)
	}

	cfg := Default()
	err = k.Unmarshal("", cfg)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_REGION")
	}

	err = validator.New().Struct(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Notifications reports whether a queue is configured for forward events
func (c *Config) Notifications() bool {
	return c.QueueURL != ""
}
