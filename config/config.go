package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Database holds the Postgres connection settings. The variable names match
// the ones the Supabase dashboard hands out.
type Database struct {
	User     string `env:"user"`
	Password string `env:"password"`
	Host     string `env:"host" envDefault:"localhost"`
	Port     string `env:"port" envDefault:"5432"`
	Name     string `env:"dbname" envDefault:"postgres"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"require"`
}

// DSN builds the lib/pq connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		strings.TrimSpace(d.User), strings.TrimSpace(d.Password),
		strings.TrimSpace(d.Host), strings.TrimSpace(d.Port),
		strings.TrimSpace(d.Name), strings.TrimSpace(d.SSLMode))
}

type Config struct {
	Addr       string `env:"HTTP_ADDR" envDefault:":8080"`
	JWTSecret  string `env:"SUPABASE_JWT_SECRET"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// SplitJS serves the client library as separate files instead of one bundle.
	SplitJS bool `env:"BOKEH_SPLITJS" envDefault:"false"`
	// ClientLogLevel is the log level handed to the browser client.
	ClientLogLevel string `env:"BOKEH_LOG_LEVEL" envDefault:"info"`
	ResourcesMode  string `env:"BOKEH_RESOURCES" envDefault:"server"`

	DB Database
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
