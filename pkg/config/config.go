package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Booking   BookingConfig   `mapstructure:"booking"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	Arkesel   ArkeselConfig   `mapstructure:"arkesel"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	OTEL      OTELConfig      `mapstructure:"otel"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

// BookingConfig holds scheduling rules
type BookingConfig struct {
	// Timezone is the clinic location used to decide what "today" is.
	Timezone          string `mapstructure:"timezone"`
	SlotDisplayFormat string `mapstructure:"slot_display_format"`
}

// RateLimitConfig throttles appointment submissions per client
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// ArkeselConfig holds SMS gateway configuration
type ArkeselConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	SenderID string        `mapstructure:"sender_id"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SMTPConfig holds outgoing mail configuration
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Endpoint       string `mapstructure:"endpoint"`
	Enabled        bool   `mapstructure:"enabled"`
}

// envBindings maps config keys to the environment variables that set them
var envBindings = map[string]string{
	"app_env":                     "APP_ENV",
	"server.host":                 "SERVER_HOST",
	"server.port":                 "SERVER_PORT",
	"server.read_timeout":         "SERVER_READ_TIMEOUT",
	"server.write_timeout":        "SERVER_WRITE_TIMEOUT",
	"server.idle_timeout":         "SERVER_IDLE_TIMEOUT",
	"server.allowed_origins":      "ALLOWED_ORIGINS",
	"server.trusted_proxies":      "TRUSTED_PROXIES",
	"storage.driver":              "STORAGE_DRIVER",
	"database.host":               "DB_HOST",
	"database.port":               "DB_PORT",
	"database.user":               "DB_USER",
	"database.password":           "DB_PASSWORD",
	"database.name":               "DB_NAME",
	"database.sslmode":            "DB_SSLMODE",
	"redis.host":                  "REDIS_HOST",
	"redis.port":                  "REDIS_PORT",
	"redis.password":              "REDIS_PASSWORD",
	"redis.db":                    "REDIS_DB",
	"redis.enabled":               "REDIS_ENABLED",
	"booking.timezone":            "BOOKING_TIMEZONE",
	"booking.slot_display_format": "SLOT_DISPLAY_FORMAT",
	"rate_limit.rps":              "RATE_LIMIT_RPS",
	"rate_limit.burst":            "RATE_LIMIT_BURST",
	"log.level":                   "LOG_LEVEL",
	"log.file":                    "LOG_FILE",
	"arkesel.api_key":             "ARKESEL_API_KEY",
	"arkesel.sender_id":           "ARKESEL_SENDER_ID",
	"arkesel.base_url":            "ARKESEL_BASE_URL",
	"arkesel.timeout":             "ARKESEL_TIMEOUT",
	"smtp.host":                   "SMTP_HOST",
	"smtp.port":                   "SMTP_PORT",
	"smtp.username":               "SMTP_USERNAME",
	"smtp.password":               "SMTP_PASSWORD",
	"smtp.from":                   "SMTP_FROM",
	"otel.service_name":           "OTEL_SERVICE_NAME",
	"otel.service_version":        "OTEL_SERVICE_VERSION",
	"otel.endpoint":               "OTEL_ENDPOINT",
	"otel.enabled":                "OTEL_ENABLED",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("storage.driver", StorageDriverPostgres)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "streamlinecare")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", true)

	v.SetDefault("booking.timezone", "Africa/Accra")
	v.SetDefault("booking.slot_display_format", "24h")

	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("arkesel.api_key", "")
	v.SetDefault("arkesel.sender_id", "StreamCare")
	v.SetDefault("arkesel.base_url", "https://sms.arkesel.com/sms/api")
	v.SetDefault("arkesel.timeout", "10s")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@streamlinecare.local")

	v.SetDefault("otel.service_name", "streamlinecare")
	v.SetDefault("otel.service_version", "1.0.0")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.enabled", false)
}

// Load loads configuration from an optional config.yaml and environment
// variables. Environment variables win.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit directory for config.yaml
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("invalid BOOKING_TIMEZONE %q: %w", c.Booking.Timezone, err)
	}
	switch c.Booking.SlotDisplayFormat {
	case "24h", "12h":
	default:
		return fmt.Errorf("unsupported SLOT_DISPLAY_FORMAT %q", c.Booking.SlotDisplayFormat)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Location returns the clinic time zone
func (c *BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ServerAddr returns the HTTP listen address
func (c *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SMSEnabled reports whether an SMS gateway is configured
func (c *ArkeselConfig) SMSEnabled() bool {
	return c.APIKey != ""
}

// EmailEnabled reports whether outgoing mail is configured
func (c *SMTPConfig) EmailEnabled() bool {
	return c.Host != ""
}
