package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const envPrefix = "MKT"

type Config struct {
	Port           string        `yaml:"port" envconfig:"PORT" validate:"required,numeric"`
	LogLevel       string        `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	HTTPTimeout    time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT" validate:"gt=0"`
	FacebookSource string        `yaml:"facebook_source" envconfig:"FACEBOOK_SOURCE" validate:"required"`
	GoogleSource   string        `yaml:"google_source" envconfig:"GOOGLE_SOURCE" validate:"required"`
	TikTokSource   string        `yaml:"tiktok_source" envconfig:"TIKTOK_SOURCE" validate:"required"`
	BusinessSource string        `yaml:"business_source" envconfig:"BUSINESS_SOURCE" validate:"required"`
	XLSXSheet      string        `yaml:"xlsx_sheet" envconfig:"XLSX_SHEET"`
	CacheSize      int           `yaml:"cache_size" envconfig:"CACHE_SIZE" validate:"gt=0"`
	ChangeCap      float64       `yaml:"change_cap" envconfig:"CHANGE_CAP" validate:"gt=0"`
	CompareDays    int           `yaml:"compare_days" envconfig:"COMPARE_DAYS" validate:"gt=0"`
}

func Default() Config {
	return Config{
		Port:           "8080",
		LogLevel:       "info",
		HTTPTimeout:    15 * time.Second,
		FacebookSource: "Facebook.csv",
		GoogleSource:   "Google.csv",
		TikTokSource:   "TikTok.csv",
		BusinessSource: "business.csv",
		CacheSize:      8,
		ChangeCap:      100,
		CompareDays:    14,
	}
}

// Load applies defaults, then the YAML file named by MKT_CONFIG_FILE, then
// MKT_* environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(envPrefix + "_CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
