// Package config loads server configuration.
//
// Values are layered, later sources winning:
//  1. defaults (New)
//  2. TOML file: --config, TASKBOARD_CONFIG, or ./taskboard.toml when present
//  3. environment variables (TASKBOARD_*, and PORT)
//  4. command line flags
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
)

const DefaultConfigFile = "taskboard.toml"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	HTTPPort        string        `toml:"http_port"`
	Environment     string        `toml:"environment"`
	LogLevel        string        `toml:"log_level"`
	LogFormat       string        `toml:"log_format"`
	CORSOrigins     []string      `toml:"cors_origins"`
	MaxBodyBytes    int64         `toml:"max_body_bytes"`
	Timezone        string        `toml:"timezone"`
	EnableReset     bool          `toml:"enable_reset"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

func New() Config {
	return Config{
		HTTPPort:        ":8080",
		Environment:     EnvDevelopment,
		LogLevel:        "info",
		LogFormat:       "text",
		MaxBodyBytes:    10 << 20,
		Timezone:        "Local",
		ShutdownTimeout: time.Second * 10,
	}
}

// DevCORSOrigins are allowed when no origins are configured outside
// production.
func DevCORSOrigins() []string {
	return []string{"http://localhost:3000", "http://localhost:3001", "http://localhost:5173"}
}

// Load builds the configuration from defaults, file, environment and the
// flags in args. fs receives the flag definitions; pass a fresh set.
func Load(fs *pflag.FlagSet, args []string) (Config, error) {
	cfg := New()

	configPath := fs.String("config", "", "path to a TOML config file")
	port := fs.String("port", "", "HTTP listen address, e.g. :8080")
	environment := fs.String("env", "", "environment name (development, production, test)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "log format: text, json, logfmt")
	corsOrigins := fs.StringSlice("cors-origin", nil, "allowed CORS origin (repeatable)")
	maxBodyBytes := fs.Int64("max-body-bytes", 0, "maximum request body size in bytes")
	timezone := fs.String("timezone", "", "IANA timezone used to decide what day it is")
	enableReset := fs.Bool("enable-reset", false, "expose DELETE on the task collection to clear the store")
	shutdownTimeout := fs.Duration("shutdown-timeout", 0, "graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	path := *configPath
	if path == "" {
		path = os.Getenv("TASKBOARD_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(&cfg); err != nil {
		return Config{}, err
	}

	if fs.Changed("port") {
		cfg.HTTPPort = *port
	}
	if fs.Changed("env") {
		cfg.Environment = *environment
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = *logFormat
	}
	if fs.Changed("cors-origin") {
		cfg.CORSOrigins = *corsOrigins
	}
	if fs.Changed("max-body-bytes") {
		cfg.MaxBodyBytes = *maxBodyBytes
	}
	if fs.Changed("timezone") {
		cfg.Timezone = *timezone
	}
	if fs.Changed("enable-reset") {
		cfg.EnableReset = *enableReset
	}
	if fs.Changed("shutdown-timeout") {
		cfg.ShutdownTimeout = *shutdownTimeout
	}

	cfg.HTTPPort = normalizeAddr(cfg.HTTPPort)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTPPort = v
	}
	if v := os.Getenv("TASKBOARD_HTTP_PORT"); v != "" {
		cfg.HTTPPort = v
	}
	if v := os.Getenv("TASKBOARD_ENV"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("TASKBOARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TASKBOARD_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TASKBOARD_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("TASKBOARD_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("TASKBOARD_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TASKBOARD_MAX_BODY_BYTES: %w", err)
		}
		cfg.MaxBodyBytes = n
	}
	if v := os.Getenv("TASKBOARD_ENABLE_RESET"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TASKBOARD_ENABLE_RESET: %w", err)
		}
		cfg.EnableReset = b
	}
	if v := os.Getenv("TASKBOARD_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TASKBOARD_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// normalizeAddr turns a bare port ("3000") into a listen address.
func normalizeAddr(addr string) string {
	if addr == "" {
		return addr
	}
	if _, err := strconv.Atoi(addr); err == nil {
		return ":" + addr
	}
	return addr
}

func (c Config) Validate() error {
	var errs []error

	if c.HTTPPort == "" {
		errs = append(errs, errors.New("http_port is empty"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("log_format %q is not one of text, json, logfmt", c.LogFormat))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// AllowedOrigins returns the CORS origins for the current environment.
func (c Config) AllowedOrigins() []string {
	if len(c.CORSOrigins) > 0 {
		return c.CORSOrigins
	}
	if c.IsProduction() {
		return nil
	}
	return DevCORSOrigins()
}
