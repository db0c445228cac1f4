package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads path (if non-empty) and overlays APP_* environment variables.
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	// Secrets are commonly provided under the conventional Postgres names too.
	_ = v.BindEnv("postgres.user", "APP_POSTGRES_USER", "POSTGRES_USER", "DB_USER")
	_ = v.BindEnv("postgres.password", "APP_POSTGRES_PASSWORD", "POSTGRES_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("postgres.db", "APP_POSTGRES_DB", "POSTGRES_DB", "DB_NAME")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cve-catalog-service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.port", 8080)

	v.SetDefault("logger.env", "prod")
	v.SetDefault("logger.level", "info")

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.migrate", false)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 3600)
	v.SetDefault("postgres.max_conn_idle_time", 300)
	v.SetDefault("postgres.health_check_period", 30)

	v.SetDefault("sqlite.path", "cves.db")

	v.SetDefault("http.request_timeout", 5*time.Second)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.allowed_page_sizes", []int{10, 50, 100})
	v.SetDefault("http.cors.allowed_origins", []string{"*"})
	v.SetDefault("http.rate_limit.enabled", true)
	v.SetDefault("http.rate_limit.requests", 100)
	v.SetDefault("http.rate_limit.window", 15*time.Minute)
	v.SetDefault("http.rate_limit.burst", 100)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

type section struct {
	name string
	s    any
}

// validate checks every section; store credentials are only required for the selected driver.
func (c *Config) validate() error {
	v := validator.New()
	sections := []section{{"app", c.App}, {"store", c.Store}, {"http", c.HTTP}}
	switch c.Store.Driver {
	case "postgres":
		sections = append(sections, section{"postgres", c.Postgres})
	case "sqlite":
		sections = append(sections, section{"sqlite", c.SQLite})
	}

	for _, sec := range sections {
		if err := v.Struct(sec.s); err != nil {
			return fmt.Errorf("invalid %s config: %w", sec.name, err)
		}
	}
	return nil
}
