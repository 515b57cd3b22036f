// Package config loads tunables for the builder from defaults, an optional YAML file
// and BIOLINK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "BIOLINK"

type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	DnD     DnDConfig     `mapstructure:"dnd" yaml:"dnd"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
}

type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	// LogFile enables a rotated JSON log in addition to the console output.
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type HistoryConfig struct {
	Limit         int           `mapstructure:"limit" yaml:"limit"`
	BatchingDelay time.Duration `mapstructure:"batching_delay" yaml:"batching_delay"`
}

type DnDConfig struct {
	ThrottleInterval time.Duration `mapstructure:"throttle_interval" yaml:"throttle_interval"`
}

type SessionConfig struct {
	WatchdogTimeout time.Duration `mapstructure:"watchdog_timeout" yaml:"watchdog_timeout"`
	// AbandonedCap is the size at which the abandoned-operation list is trimmed
	// back to AbandonedKeep entries.
	AbandonedCap  int `mapstructure:"abandoned_cap" yaml:"abandoned_cap"`
	AbandonedKeep int `mapstructure:"abandoned_keep" yaml:"abandoned_keep"`
}

// ConfigDir is ~/.biolink unless BIOLINK_CONFIG_DIR overrides it (tests use this to
// stay out of the home directory).
func ConfigDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("BIOLINK_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".biolink"), nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "warn")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "biolink")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)

	v.SetDefault("store.path", "")

	v.SetDefault("history.limit", 50)
	v.SetDefault("history.batching_delay", "500ms")

	v.SetDefault("dnd.throttle_interval", "16ms")

	v.SetDefault("session.watchdog_timeout", "30s")
	v.SetDefault("session.abandoned_cap", 10)
	v.SetDefault("session.abandoned_keep", 5)
}

func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Load builds the configuration. cfgFile may be empty; otherwise it must exist. When no
// file is given, <ConfigDir>/config.yaml is read if present.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else if dir, err := ConfigDir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.History.Limit <= 0 {
		return fmt.Errorf("history.limit must be positive, got %d", c.History.Limit)
	}
	if c.History.BatchingDelay < 0 {
		return fmt.Errorf("history.batching_delay must not be negative")
	}
	if c.DnD.ThrottleInterval < 0 {
		return fmt.Errorf("dnd.throttle_interval must not be negative")
	}
	if c.Session.WatchdogTimeout <= 0 {
		return fmt.Errorf("session.watchdog_timeout must be positive")
	}
	if c.Session.AbandonedKeep < 0 || c.Session.AbandonedKeep > c.Session.AbandonedCap {
		return fmt.Errorf("session.abandoned_keep must be between 0 and abandoned_cap")
	}
	return nil
}

// StorePath resolves the SQLite path, defaulting to <ConfigDir>/biolink.sqlite.
func (c *Config) StorePath() (string, error) {
	if p := strings.TrimSpace(c.Store.Path); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "biolink.sqlite"), nil
}
