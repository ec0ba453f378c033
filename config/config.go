// Package config loads process configuration for a groupware service.
//
// Configuration is read from a YAML file with viper, then environment
// variables prefixed with GROUPWARE_ override single values, e.g.
// GROUPWARE_STORE_DRIVER=postgres or GROUPWARE_CACHE_REDIS_ADDR=localhost:6379.
// A missing file is not an error; defaults apply.
//
// Open turns a Config into service options:
//
//	cfg, err := config.Load(path)
//	rt, err := config.Open(ctx, cfg, logger)
//	defer rt.Close(ctx)
//	svc, err := rt.NewService()
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GROUPWARE_"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Image backends. An empty backend keeps images inline.
const (
	ImagesInline = ""
	ImagesS3     = "s3"
	ImagesGCS    = "gcs"
)

// Secret modes.
const (
	SecretsPlain      = "plain"
	SecretsPassphrase = "passphrase"
	SecretsKeyring    = "keyring"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// StoreConfig selects the contact and account backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver" env:"DRIVER"`
	// DSN is the SQLite file, PostgreSQL DSN or MongoDB URI.
	DSN           string        `mapstructure:"dsn" yaml:"dsn" env:"DSN"`
	Database      string        `mapstructure:"database" yaml:"database" env:"DATABASE"`
	ContactsTable string        `mapstructure:"contacts_table" yaml:"contacts_table" env:"CONTACTS_TABLE"`
	AccountsTable string        `mapstructure:"accounts_table" yaml:"accounts_table" env:"ACCOUNTS_TABLE"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout" env:"TIMEOUT"`
}

// CacheConfig enables the Redis account cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db" env:"REDIS_DB"`
	Prefix        string        `mapstructure:"prefix" yaml:"prefix" env:"PREFIX"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl" env:"TTL"`
}

// ImageConfig selects where contact images are kept.
type ImageConfig struct {
	Backend   string `mapstructure:"backend" yaml:"backend" env:"BACKEND"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket" env:"BUCKET"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix" env:"PREFIX"`
	Region    string `mapstructure:"region" yaml:"region" env:"REGION"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint" env:"ENDPOINT"`
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style" env:"PATH_STYLE"`

	AccessKey       string `mapstructure:"access_key" yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey       string `mapstructure:"secret_key" yaml:"secret_key" env:"SECRET_KEY"`
	RoleARN         string `mapstructure:"role_arn" yaml:"role_arn" env:"ROLE_ARN"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file" env:"CREDENTIALS_FILE"`

	// CacheDir enables the local disk cache in front of the backend.
	CacheDir     string        `mapstructure:"cache_dir" yaml:"cache_dir" env:"CACHE_DIR"`
	CacheMaxSize int64         `mapstructure:"cache_max_size" yaml:"cache_max_size" env:"CACHE_MAX_SIZE"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" env:"CACHE_TTL"`
}

// SecretConfig selects how account passwords are sealed.
type SecretConfig struct {
	Mode            string `mapstructure:"mode" yaml:"mode" env:"MODE"`
	Passphrase      string `mapstructure:"passphrase" yaml:"passphrase" env:"PASSPHRASE"`
	KeyringService  string `mapstructure:"keyring_service" yaml:"keyring_service" env:"KEYRING_SERVICE"`
	KeyringDir      string `mapstructure:"keyring_dir" yaml:"keyring_dir" env:"KEYRING_DIR"`
	KeyringPassword string `mapstructure:"keyring_password" yaml:"keyring_password" env:"KEYRING_PASSWORD"`
}

// ProbeConfig tunes account connection checks.
type ProbeConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" env:"TIMEOUT"`
	Attempts  int           `mapstructure:"attempts" yaml:"attempts" env:"ATTEMPTS"`
	LocalName string        `mapstructure:"local_name" yaml:"local_name" env:"LOCAL_NAME"`
}

// EventsConfig configures the event bus. Redis publishes over the cache's
// Redis server.
type EventsConfig struct {
	Redis       bool `mapstructure:"redis" yaml:"redis" env:"REDIS"`
	ErrorsFatal bool `mapstructure:"errors_fatal" yaml:"errors_fatal" env:"ERRORS_FATAL"`
}

// TelemetryConfig enables OpenTelemetry with the global providers.
type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name" yaml:"service_name" env:"SERVICE_NAME"`
	Tracing     bool   `mapstructure:"tracing" yaml:"tracing" env:"TRACING"`
	Metrics     bool   `mapstructure:"metrics" yaml:"metrics" env:"METRICS"`
}

// LimitsConfig overrides service limits; zero keeps the default.
type LimitsConfig struct {
	MaxQuery            int           `mapstructure:"max_query" yaml:"max_query" env:"MAX_QUERY"`
	DefaultQuery        int           `mapstructure:"default_query" yaml:"default_query" env:"DEFAULT_QUERY"`
	Autocomplete        int           `mapstructure:"autocomplete" yaml:"autocomplete" env:"AUTOCOMPLETE"`
	MaxImageSize        int           `mapstructure:"max_image_size" yaml:"max_image_size" env:"MAX_IMAGE_SIZE"`
	MaxConcurrentWrites int           `mapstructure:"max_concurrent_writes" yaml:"max_concurrent_writes" env:"MAX_CONCURRENT_WRITES"`
	BulkConcurrency     int           `mapstructure:"bulk_concurrency" yaml:"bulk_concurrency" env:"BULK_CONCURRENCY"`
	ShutdownTimeout     time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// Collation is a BCP 47 tag ordering contacts by name.
	Collation string `mapstructure:"collation" yaml:"collation" env:"COLLATION"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" env:"LEVEL"`
	Format string `mapstructure:"format" yaml:"format" env:"FORMAT"`
}

// Config is the top-level process configuration.
type Config struct {
	Store     StoreConfig     `mapstructure:"store" yaml:"store" envPrefix:"STORE_"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache" envPrefix:"CACHE_"`
	Images    ImageConfig     `mapstructure:"images" yaml:"images" envPrefix:"IMAGES_"`
	Secrets   SecretConfig    `mapstructure:"secrets" yaml:"secrets" envPrefix:"SECRETS_"`
	Probe     ProbeConfig     `mapstructure:"probe" yaml:"probe" envPrefix:"PROBE_"`
	Events    EventsConfig    `mapstructure:"events" yaml:"events" envPrefix:"EVENTS_"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry" envPrefix:"TELEMETRY_"`
	Limits    LimitsConfig    `mapstructure:"limits" yaml:"limits" envPrefix:"LIMITS_"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" envPrefix:"LOG_"`
}

// DefaultPath returns ~/.config/groupware/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "groupware", "config.yaml")
}

// Default returns the configuration used when no file exists: an
// in-memory store with plain passwords.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:  DriverMemory,
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Prefix: "groupware:",
			TTL:    5 * time.Minute,
		},
		Secrets: SecretConfig{Mode: SecretsPlain},
		Probe: ProbeConfig{
			Timeout:  10 * time.Second,
			Attempts: 3,
		},
		Telemetry: TelemetryConfig{ServiceName: "groupware"},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// setDefaults mirrors Default so missing keys resolve the same way.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.timeout", d.Store.Timeout)
	v.SetDefault("cache.prefix", d.Cache.Prefix)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("secrets.mode", d.Secrets.Mode)
	v.SetDefault("probe.timeout", d.Probe.Timeout)
	v.SetDefault("probe.attempts", d.Probe.Attempts)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads the YAML file at path, applies GROUPWARE_* environment
// overrides and validates the result. A missing file yields the defaults
// plus overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	cfg := Default()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv applies GROUPWARE_* environment variables to cfg. Unset
// variables leave fields unchanged.
func ParseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.Set("store", cfg.Store)
	v.Set("cache", cfg.Cache)
	v.Set("images", cfg.Images)
	v.Set("secrets", cfg.Secrets)
	v.Set("probe", cfg.Probe)
	v.Set("events", cfg.Events)
	v.Set("telemetry", cfg.Telemetry)
	v.Set("limits", cfg.Limits)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate reports unknown drivers, backends and modes, and settings that
// are required by the chosen ones.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres, DriverMongo:
		if c.Store.DSN == "" {
			invalid("store.dsn is required for %s", c.Store.Driver)
		}
	default:
		invalid("unknown store driver %q", c.Store.Driver)
	}

	switch c.Images.Backend {
	case ImagesInline:
	case ImagesS3, ImagesGCS:
		if c.Images.Bucket == "" {
			invalid("images.bucket is required for %s", c.Images.Backend)
		}
	default:
		invalid("unknown image backend %q", c.Images.Backend)
	}

	switch c.Secrets.Mode {
	case SecretsPlain, SecretsKeyring:
	case SecretsPassphrase:
		if c.Secrets.Passphrase == "" {
			invalid("secrets.passphrase is required")
		}
	default:
		invalid("unknown secrets mode %q", c.Secrets.Mode)
	}

	if c.Events.Redis && c.Cache.RedisAddr == "" {
		invalid("events.redis needs cache.redis_addr")
	}
	if c.Limits.Collation != "" {
		if _, err := language.Parse(c.Limits.Collation); err != nil {
			invalid("limits.collation: %v", err)
		}
	}
	if _, err := c.level(); err != nil {
		invalid("log.level: %v", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		invalid("unknown log format %q", c.Log.Format)
	}
	return errors.Join(errs...)
}

func (c *Config) level() (slog.Level, error) {
	var l slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	err := l.UnmarshalText([]byte(c.Log.Level))
	return l, err
}

// Logger returns a logger writing to w in the configured format and level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
