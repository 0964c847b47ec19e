package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store backends.
const (
	StoreBackendPostgREST = "postgrest"
	StoreBackendPostgres  = "postgres"
)

// DefaultExportsSecret is the development signing key for export links.
const DefaultExportsSecret = "dev_exports_secret"

// Refresh-signal transports.
const (
	EventsBackendMemory = "memory"
	EventsBackendRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream UpstreamConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Events   EventsConfig
	CORS     CORSConfig
	Log      LogConfig
	Browser  BrowserConfig
	Exports  ExportsConfig
	Cron     CronConfig
}

// UpstreamConfig points the gateway at the remote resource store.
type UpstreamConfig struct {
	BaseURL      string
	Token        string
	Username     string
	Timeout      time.Duration
	RequireToken bool
	// JWTSecret verifies caller tokens. Required for the postgres store backend,
	// which scopes rows by the token's owner claim itself.
	JWTSecret    string
}

// StoreConfig selects how forms, fields and records are persisted.
type StoreConfig struct {
	Backend string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// EventsConfig selects the refresh-signal transport.
type EventsConfig struct {
	Backend       string
	ChannelPrefix string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BrowserConfig tunes record browser sessions.
type BrowserConfig struct {
	IdleTTL time.Duration
}

// ExportsConfig configures asynchronous record exports.
type ExportsConfig struct {
	Enabled         bool
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	Workers         int
}

// CronConfig schedules background maintenance.
type CronConfig struct {
	MaintenanceSchedule string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Store.Backend == StoreBackendPostgres && cfg.Upstream.JWTSecret == "" {
		return errors.New("UPSTREAM_JWT_SECRET is required when STORE_BACKEND=postgres")
	}
	if cfg.Env == EnvProduction && cfg.Exports.Enabled &&
		(cfg.Exports.SignedURLSecret == "" || cfg.Exports.SignedURLSecret == DefaultExportsSecret) {
		return errors.New("EXPORTS_SIGNED_URL_SECRET must be set in production")
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		BaseURL:      strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
		Token:        v.GetString("UPSTREAM_TOKEN"),
		Username:     v.GetString("UPSTREAM_USERNAME"),
		Timeout:      parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 15*time.Second),
		RequireToken: v.GetBool("UPSTREAM_REQUIRE_TOKEN"),
		JWTSecret:    v.GetString("UPSTREAM_JWT_SECRET"),
	}

	cfg.Store = StoreConfig{Backend: strings.ToLower(v.GetString("STORE_BACKEND"))}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Events = EventsConfig{
		Backend:       strings.ToLower(v.GetString("EVENTS_BACKEND")),
		ChannelPrefix: v.GetString("EVENTS_CHANNEL_PREFIX"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Browser = BrowserConfig{
		IdleTTL: parseDuration(v.GetString("SESSION_IDLE_TTL"), 30*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		Enabled:         v.GetBool("EXPORTS_ENABLED"),
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		Workers:         v.GetInt("EXPORTS_WORKERS"),
	}

	cfg.Cron = CronConfig{MaintenanceSchedule: v.GetString("MAINTENANCE_SCHEDULE")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:3000")
	v.SetDefault("UPSTREAM_TOKEN", "")
	v.SetDefault("UPSTREAM_USERNAME", "")
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")
	v.SetDefault("UPSTREAM_REQUIRE_TOKEN", false)
	v.SetDefault("UPSTREAM_JWT_SECRET", "")

	v.SetDefault("STORE_BACKEND", StoreBackendPostgREST)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "formbase")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("EVENTS_BACKEND", EventsBackendMemory)
	v.SetDefault("EVENTS_CHANNEL_PREFIX", "formbase:refresh")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SESSION_IDLE_TTL", "30m")

	v.SetDefault("EXPORTS_ENABLED", false)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", DefaultExportsSecret)
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_WORKERS", 1)

	v.SetDefault("MAINTENANCE_SCHEDULE", "@every 1m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
