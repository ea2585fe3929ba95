package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/mamoski/relaydeck/pkg/logger"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Logger   logger.Config  `yaml:"logger"`
	Auth     AuthConfig     `yaml:"auth"`
	Relay    RelayConfig    `yaml:"relay"`
	Outbox   OutboxConfig   `yaml:"outbox"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	Host        string `yaml:"host"`
	Mode        string `yaml:"mode"`
	CertFile    string `yaml:"cert_file"`
	KeyFile     string `yaml:"key_file"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret"`
	TokenTTL    string `yaml:"token_ttl"`
	TOTPIssuer  string `yaml:"totp_issuer"`
	RequireTOTP bool   `yaml:"require_totp"`
}

type RelayConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Timeout    string `yaml:"timeout"`
}

type OutboxConfig struct {
	FlushInterval string `yaml:"flush_interval"`
	// Enabled is a pointer so an explicit "enabled: false" survives the
	// default pass; nil means unset and defaults to true.
	Enabled *bool `yaml:"enabled"`
}

// OutboxEnabled reports whether the flusher should run.
func (c *OutboxConfig) OutboxEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5620
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Auth.TokenTTL == "" {
		cfg.Auth.TokenTTL = "24h"
	}
	if cfg.Auth.TOTPIssuer == "" {
		cfg.Auth.TOTPIssuer = "RelayDeck"
	}
	if cfg.Relay.Timeout == "" {
		cfg.Relay.Timeout = "60s"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 256
	}
	if cfg.Outbox.FlushInterval == "" {
		cfg.Outbox.FlushInterval = "1m"
	}
	if cfg.Outbox.Enabled == nil {
		enabled := true
		cfg.Outbox.Enabled = &enabled
	}

	return cfg, nil
}
