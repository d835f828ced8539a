// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LEVEL"`   // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"FORMAT"` // json|console
	Sampling bool   `yaml:"sampling" env:"SAMPLING"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url" env:"URL"`
	MaxConns int32  `yaml:"max_conns" env:"MAX_CONNS"`
}

type RedisConfig struct {
	URL      string        `yaml:"url" env:"URL"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	TTL      time.Duration `yaml:"ttl" env:"TTL"` // session cache ttl
}

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	UseSSL    bool   `yaml:"use_ssl" env:"USE_SSL"`
}

type AuthConfig struct {
	Secret     string        `yaml:"secret" env:"SECRET"`
	CookieName string        `yaml:"cookie_name" env:"COOKIE_NAME"`
	TokenTTL   time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

type OnboardingConfig struct {
	DraftTTL          time.Duration `yaml:"draft_ttl" env:"DRAFT_TTL"`
	AttachmentTTL     time.Duration `yaml:"attachment_ttl" env:"ATTACHMENT_TTL"`
	MaxAttachmentSize int64         `yaml:"max_attachment_size" env:"MAX_ATTACHMENT_SIZE"`
	SubmitLockTTL     time.Duration `yaml:"submit_lock_ttl" env:"SUBMIT_LOCK_TTL"`
	SubmitRateLimit   int           `yaml:"submit_rate_limit" env:"SUBMIT_RATE_LIMIT"` // step posts per minute
	Language          string        `yaml:"language" env:"LANGUAGE"`
	Workers           int           `yaml:"workers" env:"WORKERS"`
}

type NotifyConfig struct {
	TelegramToken string  `yaml:"telegram_token" env:"TELEGRAM_TOKEN"`
	ReviewerChats []int64 `yaml:"reviewer_chats" env:"REVIEWER_CHATS"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key" env:"ENCRYPTION_KEY"`
}

type Config struct {
	HTTP       HTTPConfig       `yaml:"http" envPrefix:"HTTP_"`
	Log        LogConfig        `yaml:"log" envPrefix:"LOG_"`
	Database   DatabaseConfig   `yaml:"database" envPrefix:"DATABASE_"`
	Redis      RedisConfig      `yaml:"redis" envPrefix:"REDIS_"`
	Storage    StorageConfig    `yaml:"storage" envPrefix:"STORAGE_"`
	Auth       AuthConfig       `yaml:"auth" envPrefix:"AUTH_"`
	Onboarding OnboardingConfig `yaml:"onboarding" envPrefix:"ONBOARDING_"`
	Notify     NotifyConfig     `yaml:"notify" envPrefix:"NOTIFY_"`
	Security   SecurityConfig   `yaml:"security" envPrefix:"SECURITY_"`

	Runtime RuntimeConfig `yaml:"-" env:"-"`
}

const EnvPrefix = "LEXBRIEF_"

// LoadConfig reads the yaml file at path, then applies LEXBRIEF_* environment overrides.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.Secret == "" {
		return nil, errors.New("auth.secret is required")
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	cfg.HTTP.ReadTimeout = orDefault(cfg.HTTP.ReadTimeout, 15*time.Second)
	cfg.HTTP.WriteTimeout = orDefault(cfg.HTTP.WriteTimeout, 30*time.Second)
	cfg.HTTP.ShutdownTimeout = orDefault(cfg.HTTP.ShutdownTimeout, 10*time.Second)

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = orDefault(cfg.Redis.TTL, time.Hour)

	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "lexbrief_session"
	}
	cfg.Auth.TokenTTL = orDefault(cfg.Auth.TokenTTL, 24*time.Hour)

	o := &cfg.Onboarding
	o.DraftTTL = orDefault(o.DraftTTL, 30*24*time.Hour)
	o.AttachmentTTL = orDefault(o.AttachmentTTL, 2*time.Hour)
	o.SubmitLockTTL = orDefault(o.SubmitLockTTL, 30*time.Second)
	if o.MaxAttachmentSize <= 0 {
		o.MaxAttachmentSize = 10 << 20
	}
	if o.SubmitRateLimit <= 0 {
		o.SubmitRateLimit = 60
	}
	if o.Language == "" {
		o.Language = "en"
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "lexbrief-verification"
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
