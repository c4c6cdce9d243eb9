// Package config loads server settings from the environment.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environments recognised by Config.Env.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every runtime setting of the server.
type Config struct {
	Env    string
	Addr   string
	DBPath string

	// CSRFKey is the 32-byte key for CSRF tokens and the flash cookie. Empty outside production means generate one.
	CSRFKey []byte

	SessionTTL  time.Duration
	RateLimit   int
	SlowQuery   time.Duration
	SlowRequest time.Duration
	LogLevel    string

	// OutboxInterval is how often failed notifications are retried; zero disables the worker.
	OutboxInterval time.Duration

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitMQURL string

	ResendAPIKey string
	EmailFrom    string
}

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool { return c.Env == EnvProduction }

func setDefaults(v *viper.Viper) {
	v.SetDefault("EVENTBOOK_ENV", EnvDevelopment)
	v.SetDefault("EVENTBOOK_ADDR", ":8080")
	v.SetDefault("EVENTBOOK_DB_PATH", "eventbook.db")
	v.SetDefault("EVENTBOOK_CSRF_KEY", "")
	v.SetDefault("EVENTBOOK_SESSION_TTL", "24h")
	v.SetDefault("EVENTBOOK_OUTBOX_INTERVAL", "1m")
	v.SetDefault("EVENTBOOK_RATE_LIMIT", 120)
	v.SetDefault("EVENTBOOK_SLOW_QUERY_MS", 100)
	v.SetDefault("EVENTBOOK_SLOW_REQUEST_MS", 200)
	v.SetDefault("EVENTBOOK_ADMIN_USERNAME", "admin")
	v.SetDefault("EVENTBOOK_ADMIN_EMAIL", "admin@example.com")
	v.SetDefault("EVENTBOOK_ADMIN_PASSWORD", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("EMAIL_FROM", "Eventbook <bookings@example.com>")
}

// Load reads an optional .env file, then the process environment.
// Values already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg, err := fromViper(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:            strings.ToLower(strings.TrimSpace(v.GetString("EVENTBOOK_ENV"))),
		Addr:           v.GetString("EVENTBOOK_ADDR"),
		DBPath:         v.GetString("EVENTBOOK_DB_PATH"),
		SessionTTL:     v.GetDuration("EVENTBOOK_SESSION_TTL"),
		RateLimit:      v.GetInt("EVENTBOOK_RATE_LIMIT"),
		OutboxInterval: v.GetDuration("EVENTBOOK_OUTBOX_INTERVAL"),
		SlowQuery:      time.Duration(v.GetInt("EVENTBOOK_SLOW_QUERY_MS")) * time.Millisecond,
		SlowRequest:    time.Duration(v.GetInt("EVENTBOOK_SLOW_REQUEST_MS")) * time.Millisecond,
		LogLevel:       v.GetString("LOG_LEVEL"),
		AdminUsername:  v.GetString("EVENTBOOK_ADMIN_USERNAME"),
		AdminEmail:     v.GetString("EVENTBOOK_ADMIN_EMAIL"),
		AdminPassword:  v.GetString("EVENTBOOK_ADMIN_PASSWORD"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		ResendAPIKey:   v.GetString("RESEND_API_KEY"),
		EmailFrom:      v.GetString("EMAIL_FROM"),
	}
	if raw := strings.TrimSpace(v.GetString("EVENTBOOK_CSRF_KEY")); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil {
			return Config{}, fmt.Errorf("EVENTBOOK_CSRF_KEY: %w", err)
		}
		cfg.CSRFKey = key
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("EVENTBOOK_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("EVENTBOOK_ADDR is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("EVENTBOOK_DB_PATH is required"))
	}
	if c.CSRFKey != nil && len(c.CSRFKey) != 32 {
		errs = append(errs, fmt.Errorf("EVENTBOOK_CSRF_KEY must be 64 hex chars, got %d bytes", len(c.CSRFKey)))
	}
	if c.IsProduction() && c.CSRFKey == nil {
		errs = append(errs, errors.New("EVENTBOOK_CSRF_KEY is required in production"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("EVENTBOOK_SESSION_TTL must be positive"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("EVENTBOOK_RATE_LIMIT must not be negative"))
	}
	if c.OutboxInterval < 0 {
		errs = append(errs, errors.New("EVENTBOOK_OUTBOX_INTERVAL must not be negative"))
	}
	if c.SlowQuery <= 0 || c.SlowRequest <= 0 {
		errs = append(errs, errors.New("slow query and slow request thresholds must be positive"))
	}
	if c.ResendAPIKey != "" && c.EmailFrom == "" {
		errs = append(errs, errors.New("EMAIL_FROM is required when RESEND_API_KEY is set"))
	}
	return errors.Join(errs...)
}
