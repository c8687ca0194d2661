// Package config loads the application configuration from config/app.yaml
// with environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	JWT      JWTConfig      `yaml:"jwt"`
	Database DatabaseConfig `yaml:"database"`
	Amazon   AmazonConfig   `yaml:"amazon"`
	Limits   LimitsConfig   `yaml:"limits"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSec int      `yaml:"write_timeout_seconds"`
	ShutdownSec     int      `yaml:"shutdown_timeout_seconds"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

// JWTConfig controls token issuance and verification.
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	TTLHours int    `yaml:"ttl_hours"`
}

// DatabaseConfig selects the persistence backend. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// AmazonConfig holds the Product Advertising API credential set. All three of
// access key, secret key and partner tag must be present before any signed
// request is attempted.
type AmazonConfig struct {
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	PartnerTag  string `yaml:"partner_tag"`
	Marketplace string `yaml:"marketplace"`
	TimeoutSec  int    `yaml:"timeout_seconds"`
}

// LimitsConfig controls per-client rate limiting.
type LimitsConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Load reads config/app.yaml relative to the working directory.
func Load() (*Config, error) {
	return LoadFromPath(filepath.Join("config", "app.yaml"))
}

// LoadFromPath reads the configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the configuration or falls back to defaults plus
// environment overrides when the file is absent.
func LoadOrDefault(path string) *Config {
	if path == "" {
		path = filepath.Join("config", "app.yaml")
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		cfg = Default()
		cfg.applyEnv()
	}
	return cfg
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 30,
			ShutdownSec:     20,
			AllowedOrigins:  []string{"*"},
		},
		JWT: JWTConfig{
			Issuer:   "affiliate-backend",
			TTLHours: 72,
		},
		Amazon: AmazonConfig{
			Marketplace: "www.amazon.com",
			TimeoutSec:  30,
		},
		Limits: LimitsConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
	}
}

// applyEnv overlays environment variables onto the configuration. Secrets are
// expected to arrive this way in deployed environments.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		c.Server.AllowedOrigins = origins
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("AMAZON_ACCESS_KEY"); v != "" {
		c.Amazon.AccessKey = v
	}
	if v := os.Getenv("AMAZON_SECRET_KEY"); v != "" {
		c.Amazon.SecretKey = v
	}
	if v := os.Getenv("AMAZON_PARTNER_TAG"); v != "" {
		c.Amazon.PartnerTag = v
	}
	if v := os.Getenv("AMAZON_MARKETPLACE"); v != "" {
		c.Amazon.Marketplace = v
	}
}

// Validate checks invariants that would otherwise surface as runtime faults.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.JWT.TTLHours <= 0 {
		return fmt.Errorf("jwt ttl_hours must be positive")
	}
	if c.Amazon.TimeoutSec <= 0 {
		return fmt.Errorf("amazon timeout_seconds must be positive")
	}
	return nil
}

// CatalogTimeout returns the outbound catalog API timeout.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Amazon.TimeoutSec) * time.Second
}
