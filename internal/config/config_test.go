package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
jwt:
  secret: file-secret
  ttl_hours: 24
amazon:
  partner_tag: tag-20
  marketplace: www.amazon.co.jp
limits:
  requests_per_second: 5
  burst: 10
`)
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.JWT.Secret != "file-secret" || cfg.JWT.TTLHours != 24 {
		t.Fatalf("jwt = %+v", cfg.JWT)
	}
	if cfg.Amazon.Marketplace != "www.amazon.co.jp" {
		t.Fatalf("marketplace = %s", cfg.Amazon.Marketplace)
	}
	// Fields the file omits keep their defaults.
	if cfg.Server.ReadTimeoutSec != 15 || cfg.Amazon.TimeoutSec != 30 {
		t.Fatalf("defaults not preserved: %+v", cfg)
	}
	if cfg.Limits.RequestsPerSecond != 5 || cfg.Limits.Burst != 10 {
		t.Fatalf("limits = %+v", cfg.Limits)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: file-secret
`)
	t.Setenv("PORT", "7070")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/linkcart")
	t.Setenv("AMAZON_ACCESS_KEY", "AKIAENV")
	t.Setenv("ALLOWED_ORIGINS", "https://app.linkcart.io, *.linkcart.dev")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Fatalf("env must win over file, got %q", cfg.JWT.Secret)
	}
	if cfg.Database.URL != "postgres://localhost/linkcart" {
		t.Fatalf("database url = %q", cfg.Database.URL)
	}
	if cfg.Amazon.AccessKey != "AKIAENV" {
		t.Fatalf("access key = %q", cfg.Amazon.AccessKey)
	}
	want := []string{"https://app.linkcart.io", "*.linkcart.dev"}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[0] != want[0] || cfg.Server.AllowedOrigins[1] != want[1] {
		t.Fatalf("allowed origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"valid", func(c *Config) { c.JWT.Secret = "s" }, true},
		{"missing secret", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.JWT.Secret = "s"; c.Server.Port = 0 }, false},
		{"bad ttl", func(c *Config) { c.JWT.Secret = "s"; c.JWT.TTLHours = 0 }, false},
		{"bad timeout", func(c *Config) { c.JWT.Secret = "s"; c.Amazon.TimeoutSec = 0 }, false},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		err := cfg.Validate()
		if tc.wantOK && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.wantOK && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Fatalf("secret = %q", cfg.JWT.Secret)
	}
}

func TestCatalogTimeout(t *testing.T) {
	cfg := Default()
	if cfg.CatalogTimeout() != 30*time.Second {
		t.Fatalf("timeout = %v", cfg.CatalogTimeout())
	}
}
