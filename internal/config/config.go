// Package config provides configuration management for go-yelpcamp.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var AppVersion = "-unset-" // will be set at build time

const (
	EnvPrefix = "YELPCAMP"

	DefaultListenPort      = 3000
	DefaultSessionTTL      = 7 * 24 * time.Hour
	DefaultCleanupInterval = 15 * time.Minute
)

// MainConfig holds the main configuration for go-yelpcamp
type MainConfig struct {
	Web      WebConfig      `mapstructure:"web"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`

	AppVersion string `mapstructure:"-"` // Application version, set at build time
	ConfigFile string `mapstructure:"-"`
}

// WebConfig holds web interface configuration
type WebConfig struct {
	ListenPort     int      `mapstructure:"listen_port"`
	SSL            bool     `mapstructure:"ssl"`
	CertFile       string   `mapstructure:"cert_file"`
	KeyFile        string   `mapstructure:"key_file"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	Debug          bool     `mapstructure:"debug"` // gin debug mode
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	WALMode      bool   `mapstructure:"wal_mode"`
}

// SessionConfig holds browser session settings
type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	return &MainConfig{
		AppVersion: AppVersion,
		Web: WebConfig{
			ListenPort:     DefaultListenPort,
			TrustedProxies: []string{"127.0.0.1", "::1"},
		},
		Database: DatabaseConfig{
			DataDir:      "./data",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			WALMode:      true,
		},
		Session: SessionConfig{
			TTL:             DefaultSessionTTL,
			CleanupInterval: DefaultCleanupInterval,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration in order of precedence:
// environment (YELPCAMP_WEB_LISTEN_PORT, ...), .env files, config file, defaults.
// An empty path searches ./yelpcamp.yaml and ignores a missing file.
func Load(path string) (*MainConfig, error) {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	setDefaults(v, NewDefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("yelpcamp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &MainConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.AppVersion = AppVersion
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, d *MainConfig) {
	v.SetDefault("web.listen_port", d.Web.ListenPort)
	v.SetDefault("web.ssl", d.Web.SSL)
	v.SetDefault("web.cert_file", d.Web.CertFile)
	v.SetDefault("web.key_file", d.Web.KeyFile)
	v.SetDefault("web.trusted_proxies", d.Web.TrustedProxies)
	v.SetDefault("web.debug", d.Web.Debug)

	v.SetDefault("database.data_dir", d.Database.DataDir)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.wal_mode", d.Database.WALMode)

	v.SetDefault("session.ttl", d.Session.TTL)
	v.SetDefault("session.cleanup_interval", d.Session.CleanupInterval)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate checks values that would only fail later at listen or open time
func (c *MainConfig) Validate() error {
	if c.Web.ListenPort < 1024 || c.Web.ListenPort > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1024 and 65535)", c.Web.ListenPort)
	}
	if c.Web.SSL && (c.Web.CertFile == "" || c.Web.KeyFile == "") {
		return errors.New("SSL enabled but cert_file or key_file not specified in config")
	}
	if c.Database.DataDir == "" {
		return errors.New("database data_dir must be set")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("invalid session ttl: %s", c.Session.TTL)
	}
	if c.Session.CleanupInterval <= 0 {
		return fmt.Errorf("invalid session cleanup_interval: %s", c.Session.CleanupInterval)
	}
	return nil
}
