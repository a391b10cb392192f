package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/JonMunkholm/EntityEditor/internal/export"
	"github.com/JonMunkholm/EntityEditor/internal/schema"
)

// Config holds the application configuration.
type Config struct {
	Port string
	// DatabaseURL enables PostgreSQL snapshots when set; otherwise snapshots
	// are kept in memory.
	DatabaseURL string

	LineEnding       string
	DefaultQuoting   string
	NullDefault      string
	ExportMode       string
	StrictValidation bool
	LogLevel         string
	// CORSOrigins lists the origins allowed to call the API. Empty disables CORS.
	CORSOrigins []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	QueryTimeout    time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (silently ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getenv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LineEnding:     strings.ToLower(getenv("LINE_ENDING", "lf")),
		DefaultQuoting: strings.ToLower(getenv("DEFAULT_QUOTING", "always")),
		NullDefault:    strings.ToLower(getenv("NULL_DEFAULT", "omit")),
		ExportMode:     strings.ToLower(getenv("EXPORT_MODE", "selected")),
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		CORSOrigins:    getlist("CORS_ORIGINS"),
	}

	var err error
	if cfg.StrictValidation, err = getbool("STRICT_VALIDATION", false); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = getduration("READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = getduration("WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getduration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout, err = getduration("QUERY_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that every setting has a usable value.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.By(func(value interface{}) error {
			p, err := strconv.Atoi(value.(string))
			if err != nil || p < 1 || p > 65535 {
				return fmt.Errorf("must be a port number")
			}
			return nil
		})),
		validation.Field(&c.LineEnding, validation.In("lf", "crlf")),
		validation.Field(&c.DefaultQuoting, validation.In("always", "never", "auto")),
		validation.Field(&c.NullDefault, validation.In("omit", "keep")),
		validation.Field(&c.ExportMode, validation.In("selected", "all")),
		validation.Field(&c.LogLevel, validation.By(func(value interface{}) error {
			_, err := zerolog.ParseLevel(value.(string))
			return err
		})),
		validation.Field(&c.ReadTimeout, validation.Min(time.Second)),
		validation.Field(&c.WriteTimeout, validation.Min(time.Second)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Second)),
		validation.Field(&c.QueryTimeout, validation.Min(100*time.Millisecond)),
	)
}

// RenderOptions returns the SQL rendering policy described by the config.
func (c Config) RenderOptions() (schema.RenderOptions, error) {
	var opts schema.RenderOptions
	var err error
	if opts.LineEnding, err = schema.ParseLineEnding(c.LineEnding); err != nil {
		return opts, err
	}
	if opts.Quoting, err = schema.ParseDefaultQuoting(c.DefaultQuoting); err != nil {
		return opts, err
	}
	if opts.NullDefault, err = schema.ParseNullDefault(c.NullDefault); err != nil {
		return opts, err
	}
	return opts, nil
}

// Mode returns the default export mode.
func (c Config) Mode() (export.Mode, error) {
	return export.ParseMode(c.ExportMode)
}

// Level returns the configured log level.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getlist(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getbool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getduration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
