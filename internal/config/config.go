// Package config handles loading and parsing application configuration.
// It supports three sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//  3. The environment alone, when no file is given.
//
// Environment variables override values from the file in every case.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"

	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file and can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity, and the API docs host.
	Env string `yaml:"env" env:"ENV" env-default:"dev" validate:"oneof=dev staging prod"`

	HTTPServer HTTPServer `yaml:"http_server"`

	// APIVersion is the version segment of the base path, /api/<version>.
	APIVersion string `yaml:"api_version" env:"API_VERSION" env-default:"v1" validate:"required"`

	Storage Storage `yaml:"storage"`
	ID      ID      `yaml:"id"`

	// SwaggerHost is the host advertised by /api-docs in production.
	SwaggerHost string `yaml:"swagger_host" env:"SWAGGER_HOST"`

	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"*"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:5000".
	// When unset, PORT is used as ":<PORT>".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR"`
}

type Storage struct {
	Driver       string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"mongo" validate:"oneof=mongo sqlite memory"`
	DatabaseURL  string `yaml:"database_url" env:"DATABASE_URL" validate:"required_if=Driver mongo"`
	DatabaseName string `yaml:"database_name" env:"DATABASE_NAME" env-default:"students"`
	Path         string `yaml:"path" env:"STORAGE_PATH" env-default:"storage/storage.db" validate:"required_if=Driver sqlite"`
}

type ID struct {
	Strategy string `yaml:"strategy" env:"ID_STRATEGY" env-default:"sequence" validate:"oneof=sequence uuid"`
	Prefix   string `yaml:"prefix" env:"ID_PREFIX" env-default:"STU-"`
}

const defaultPort = "5000"

// Load reads and validates the configuration. args are the command-line
// arguments without the program name; only --config is recognised.
func Load(args []string) (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		fs := flag.NewFlagSet("config", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		path := fs.String("config", "", "Path to the configuration YAML file")
		if err := fs.Parse(args); err != nil && !errors.Is(err, flag.ErrHelp) {
			return nil, fmt.Errorf("parse flags: %w", err)
		}
		configPath = *path
	}

	var cfg Config

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if cfg.HTTPServer.Addr == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = defaultPort
		}
		cfg.HTTPServer.Addr = ":" + port
	}

	cfg.APIVersion = strings.Trim(cfg.APIVersion, "/")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// IsProduction reports whether the service runs with ENV=prod.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProd
}

// Port returns the port part of the listen address.
func (c *Config) Port() string {
	addr := c.HTTPServer.Addr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i+1:]
	}
	return addr
}
