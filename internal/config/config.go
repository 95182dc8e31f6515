// Package config loads portal and mockbank configuration from an optional YAML
// file overlaid by PORTAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
// PORTAL_STORE_FILE_PATH sets store.file_path.
const EnvPrefix = "PORTAL_"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config is the complete process configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	CORS     CORSConfig     `koanf:"cors"`
	BankAPI  BankAPIConfig  `koanf:"bankapi"`
	Store    StoreConfig    `koanf:"store"`
	MockBank MockBankConfig `koanf:"mockbank"`
}

// ServerConfig configures the portal HTTP listeners.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port" validate:"required,numeric"`
	MetricsPort       string        `koanf:"metrics_port" validate:"required,numeric"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout       time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// CORSConfig lists origins allowed to call the portal from a browser.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// BankAPIConfig points the portal at the banking API.
type BankAPIConfig struct {
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
	RateLimit float64       `koanf:"rate_limit" validate:"gte=0"`
	Burst     int           `koanf:"burst" validate:"gte=0"`
}

// StoreConfig selects and configures the session store backend.
type StoreConfig struct {
	Driver          string        `koanf:"driver" validate:"oneof=memory file redis postgres"`
	FilePath        string        `koanf:"file_path" validate:"required_if=Driver file"`
	RedisURL        string        `koanf:"redis_url" validate:"required_if=Driver redis"`
	RedisKey        string        `koanf:"redis_key"`
	PostgresURL     string        `koanf:"postgres_url" validate:"required_if=Driver postgres"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectAttempts int           `koanf:"connect_attempts" validate:"gte=1"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout" validate:"gt=0"`
}

// MockBankConfig configures cmd/mockbank.
type MockBankConfig struct {
	Host      string        `koanf:"host"`
	Port      string        `koanf:"port" validate:"required,numeric"`
	JWTSecret string        `koanf:"jwt_secret" validate:"min=32"`
	TokenTTL  time.Duration `koanf:"token_ttl" validate:"gt=0"`
	Users     []SeedUser    `koanf:"users" validate:"dive"`
}

// SeedUser is an account created when the mockbank starts.
type SeedUser struct {
	Username string `koanf:"username" validate:"required"`
	Email    string `koanf:"email" validate:"required,email"`
	Password string `koanf:"password" validate:"required"`
	Role     string `koanf:"role" validate:"oneof=CUSTOMER ADMIN MANAGER"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		BankAPI: BankAPIConfig{
			BaseURL:   "http://127.0.0.1:8081",
			Timeout:   10 * time.Second,
			RateLimit: 2,
			Burst:     3,
		},
		Store: StoreConfig{
			Driver:          DriverFile,
			FilePath:        "data/session.json",
			RedisKey:        "portal:session",
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectAttempts: 5,
			ConnectTimeout:  60 * time.Second,
		},
		MockBank: MockBankConfig{
			Host:      "127.0.0.1",
			Port:      "8081",
			JWTSecret: "mockbank-development-secret-change-me",
			TokenTTL:  time.Hour,
			Users: []SeedUser{
				{Username: "customer", Email: "customer@bank.local", Password: "Customer#2024", Role: "CUSTOMER"},
				{Username: "admin", Email: "admin@bank.local", Password: "Admin#2024x", Role: "ADMIN"},
				{Username: "manager", Email: "manager@bank.local", Password: "Manager#2024", Role: "MANAGER"},
			},
		},
	}
}

// Load reads path (skipped when empty) and the environment on top of Default.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// envKey maps PORTAL_BANKAPI_BASE_URL to bankapi.base_url: the first segment
// names the section, the rest is the field.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}
