package config

import (
	"time"

	"github.com/maxviazov/cve-catalog-service/internal/logger"
)

type Config struct {
	App      AppConfig           `mapstructure:"app"`
	Logger   logger.LoggerConfig `mapstructure:"logger"`
	Store    StoreConfig         `mapstructure:"store"`
	Postgres PostgresConfig      `mapstructure:"postgres"`
	SQLite   SQLiteConfig        `mapstructure:"sqlite"`
	HTTP     HTTPConfig          `mapstructure:"http"`
	Metrics  MetricsConfig       `mapstructure:"metrics"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	// Migrate applies the embedded schema migrations on startup.
	Migrate bool `mapstructure:"migrate"`
}

// PostgresConfig holds connection and pool tuning; durations are in seconds.
type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"min=1,max=65535"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password" validate:"required"`
	DBName            string `mapstructure:"db" validate:"required"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns" validate:"min=1"`
	MinConns          int32  `mapstructure:"min_conns" validate:"min=0"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type HTTPConfig struct {
	RequestTimeout   time.Duration   `mapstructure:"request_timeout" validate:"gt=0"`
	ReadTimeout      time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration   `mapstructure:"write_timeout"`
	ShutdownTimeout  time.Duration   `mapstructure:"shutdown_timeout" validate:"gt=0"`
	AllowedPageSizes []int           `mapstructure:"allowed_page_sizes" validate:"min=1,dive,gt=0"`
	CORS             CORSConfig      `mapstructure:"cors"`
	RateLimit        RateLimitConfig `mapstructure:"rate_limit"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig allows Requests per Window for each client IP, with Burst tokens up front.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests" validate:"min=1"`
	Window   time.Duration `mapstructure:"window" validate:"gt=0"`
	Burst    int           `mapstructure:"burst" validate:"min=1"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}
