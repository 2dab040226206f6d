package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Host != "derpibooru.org" {
		t.Errorf("expected default Host derpibooru.org, got %s", cfg.Host)
	}
	if cfg.Scheme != "https" {
		t.Errorf("expected default Scheme https, got %s", cfg.Scheme)
	}
	if cfg.StoreDriver != "json" {
		t.Errorf("expected default StoreDriver json, got %s", cfg.StoreDriver)
	}
	if cfg.NotificationsEnabled {
		t.Error("expected notifications to default to disabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvHost, "")
	t.Setenv(EnvSession, "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Host != NewConfig().Host {
		t.Errorf("expected default host, got %s", cfg.Host)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	t.Setenv(EnvHost, "")
	t.Setenv(EnvSession, "")
	path := filepath.Join(t.TempDir(), "config")

	cfg := &Config{
		Host:                 "twibooru.org",
		Platform:             "twibooru",
		Scheme:               "https",
		SessionCookie:        "_twibooru_session=abc",
		UserAgent:            "tester",
		Cooldown:             8 * time.Second,
		StoreDriver:          "sqlite",
		StorePath:            "/tmp/store.db",
		ProxyMode:            "basic",
		ProxyHost:            "proxy.local",
		ProxyPort:            3128,
		ProxyUser:            "u",
		NoProxy:              "localhost",
		NotificationsEnabled: true,
		LogFile:              "/tmp/bte.log",
	}
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if info.Mode().Perm()&0077 != 0 {
		t.Errorf("config file permissions too open: %v", info.Mode().Perm())
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded config mismatch:\n got %+v\nwant %+v", *loaded, *cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvHost, "ponybooru.org")
	t.Setenv(EnvSession, "session=xyz")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Host != "ponybooru.org" || cfg.SessionCookie != "session=xyz" {
		t.Errorf("env overrides not applied: host=%s session=%s", cfg.Host, cfg.SessionCookie)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing host", func(c *Config) { c.Host = " " }, ErrMissingHost},
		{"bad scheme", func(c *Config) { c.Scheme = "ftp" }, ErrInvalidScheme},
		{"bad driver", func(c *Config) { c.StoreDriver = "redis" }, ErrInvalidStoreDriver},
		{"bad proxy mode", func(c *Config) { c.ProxyMode = "socks" }, ErrInvalidProxyMode},
		{"ntlm without host", func(c *Config) { c.ProxyMode = "ntlm" }, ErrMissingProxyHost},
		{"system proxy ok", func(c *Config) { c.ProxyMode = "system" }, nil},
		{"negative cooldown", func(c *Config) { c.Cooldown = -time.Second }, ErrInvalidCooldown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBaseURL(t *testing.T) {
	cfg := NewConfig()
	cfg.Host = "twibooru.org/"
	if got := cfg.BaseURL(); got != "https://twibooru.org" {
		t.Errorf("BaseURL() = %q", got)
	}
}
