package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. Engine rule and
// multiplier tables are compiled in and not configurable here.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Export ExportConfig `yaml:"export" mapstructure:"export"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins     []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit          float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst          int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// BatchConfig configures batch pricing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ExportConfig sets export defaults.
type ExportConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	Staff  bool   `yaml:"staff" mapstructure:"staff"`
}

const maxBatchConcurrency = 64

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RUGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.sqlite_path", "rug-estimator.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.request_timeout_secs", 30)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("export.format", "csv")
	v.SetDefault("export.staff", false)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "store"
// (any command touching persistence), "serve", "batch" and "export".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "store":
		errs = append(errs, c.validateStore()...)
	case "serve":
		errs = append(errs, c.validateServer()...)
	case "batch":
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > maxBatchConcurrency {
			errs = append(errs, fmt.Sprintf("batch.concurrency must be between 1 and %d", maxBatchConcurrency))
		}
	case "export":
		errs = append(errs, c.validateStore()...)
		if f := c.Export.Format; f != "csv" && f != "xlsx" {
			errs = append(errs, fmt.Sprintf("export.format %q must be csv or xlsx", f))
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, "store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
		if c.Store.MinConns > c.Store.MaxConns && c.Store.MaxConns > 0 {
			errs = append(errs, "store.min_conns must not exceed store.max_conns")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}
	return errs
}

func (c *Config) validateServer() []string {
	var errs []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be > 0 and <= 65535")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server.rate_limit must be >= 0")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		errs = append(errs, "server.rate_burst must be >= 1 when rate limiting is enabled")
	}
	if c.Server.RequestTimeoutSecs < 0 {
		errs = append(errs, "server.request_timeout_secs must be >= 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
