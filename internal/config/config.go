// Package config loads server settings from an optional YAML file and
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	Port   int    `yaml:"port"`
	DBPath string `yaml:"db_path"`

	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
	Gateway GatewayConfig `yaml:"gateway"`
	Rules   RulesConfig   `yaml:"rules"`

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type LogConfig struct {
	Level string `yaml:"level"`

	// File, when set, receives a copy of the log stream with size-based rotation.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type GatewayConfig struct {
	// Provider is "paystack" or "fake".
	Provider    string `yaml:"provider"`
	SecretKey   string `yaml:"secret_key"`
	BaseURL     string `yaml:"base_url"`
	CallbackURL string `yaml:"callback_url"`
}

type RulesConfig struct {
	// StrictContributionAmount rejects payments that differ from the group's
	// contribution amount.
	StrictContributionAmount bool          `yaml:"strict_contribution_amount"`
	JoinRequestTTL           time.Duration `yaml:"join_request_ttl"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:   8080,
		DBPath: "./data/susu.db",
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
		},
		Gateway: GatewayConfig{
			Provider: "paystack",
			BaseURL:  "https://api.paystack.co",
		},
		Rules: RulesConfig{
			JoinRequestTTL: 24 * time.Hour,
		},
		CORSAllowedOrigins: []string{"*"},
	}
}

// Load reads path (if it exists) over the defaults, then applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("DB_PATH", &c.DBPath)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FILE", &c.Log.File)
	str("GATEWAY_PROVIDER", &c.Gateway.Provider)
	str("PAYSTACK_SECRET_KEY", &c.Gateway.SecretKey)
	str("PAYSTACK_BASE_URL", &c.Gateway.BaseURL)
	str("PAYSTACK_CALLBACK_URL", &c.Gateway.CallbackURL)

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v, ok := lookup("JWT_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_TTL %q: %w", v, err)
		}
		c.Auth.TokenTTL = ttl
	}
	if v, ok := lookup("STRICT_CONTRIBUTION_AMOUNT"); ok && v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid STRICT_CONTRIBUTION_AMOUNT %q: %w", v, err)
		}
		c.Rules.StrictContributionAmount = strict
	}
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSAllowedOrigins = origins
	}
	return nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	switch c.Gateway.Provider {
	case "fake":
	case "paystack":
		if c.Gateway.SecretKey == "" {
			return errors.New("gateway.secret_key is required for paystack")
		}
	default:
		return fmt.Errorf("unknown gateway provider %q", c.Gateway.Provider)
	}
	return nil
}
