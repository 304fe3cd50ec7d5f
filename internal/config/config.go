package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalid is returned by Load when a value is out of range.
var ErrInvalid = errors.New("invalid configuration")

// StoreConfig selects the project database.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	DSN       string `mapstructure:"dsn"`
	CacheSize int    `mapstructure:"cache_size"`
}

// CalendarConfig holds calendar defaults for project files that leave them
// unset.
type CalendarConfig struct {
	MaxHorizonDays  int  `mapstructure:"max_horizon_days"`
	ExcludeWeekends bool `mapstructure:"exclude_weekends"`
}

// LogConfig controls operational logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig enables the JSONL event stream when Path is set.
type TelemetryConfig struct {
	Path string `mapstructure:"path"`
}

// WatchConfig tunes schedule --watch.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Config holds all runtime configuration for critpath.
// Values are populated from .critpath.yaml, CRITPATH_* env vars (also read
// from a .env file), and CLI flags.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Watch     WatchConfig     `mapstructure:"watch"`
}

// LoadDotEnv loads KEY=value pairs from the given files (default .env)
// into the process environment. Variables that are already set win. A
// missing file is not an error.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("store.driver", "sqlite")
	viper.SetDefault("store.dsn", "critpath.db")
	viper.SetDefault("store.cache_size", 64)
	viper.SetDefault("calendar.max_horizon_days", 3650)
	viper.SetDefault("calendar.exclude_weekends", true)
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.json", false)
	viper.SetDefault("telemetry.path", "")
	viper.SetDefault("watch.debounce", 100*time.Millisecond)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.Store.CacheSize < 0 {
		return Config{}, fmt.Errorf("%w: store.cache_size %d", ErrInvalid, cfg.Store.CacheSize)
	}
	if cfg.Calendar.MaxHorizonDays < 0 {
		return Config{}, fmt.Errorf("%w: calendar.max_horizon_days %d", ErrInvalid, cfg.Calendar.MaxHorizonDays)
	}
	if cfg.Watch.Debounce < 0 {
		return Config{}, fmt.Errorf("%w: watch.debounce %s", ErrInvalid, cfg.Watch.Debounce)
	}
	return cfg, nil
}
