// Package config provides configuration management for bulk-tag-editor.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/boorutools/bulk-tag-editor/internal/kvstore"
)

// Config is the tool configuration.
//
// Config file location: ~/.config/bulk-tag-editor/config
//
// INI format:
//
//	[booru]
//	host = derpibooru.org
//	platform =
//	scheme = https
//	session_cookie = _philomena_key=...
//	user_agent = bulk-tag-editor
//	cooldown =
//
//	[store]
//	driver = json
//	path = ~/.config/bulk-tag-editor/store.json
//
//	[network]
//	proxy_mode = no-proxy
//	proxy_host =
//	proxy_port = 0
//	proxy_user =
//	proxy_password =
//	no_proxy =
//
//	[notifications]
//	enabled = false
//
//	[logging]
//	file =
type Config struct {
	// Booru connection settings
	Host          string
	Platform      string // optional; overrides selection by host
	Scheme        string
	SessionCookie string
	UserAgent     string
	Cooldown      time.Duration // optional; lengthens the site's interval between submissions

	// Local persistence
	StoreDriver string
	StorePath   string

	// Proxy settings
	ProxyMode     string // no-proxy, system, basic, ntlm
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string

	// NotificationsEnabled sends a desktop notification when a bulk apply finishes.
	NotificationsEnabled bool

	// LogFile enables a rotating log file when non-empty.
	LogFile string
}

// Environment overrides
const (
	EnvHost    = "BULK_TAG_EDITOR_HOST"
	EnvSession = "BULK_TAG_EDITOR_SESSION"
)

// Validation errors
var (
	ErrMissingHost        = errors.New("booru host is required")
	ErrInvalidScheme      = errors.New("scheme must be http or https")
	ErrInvalidProxyMode   = errors.New("proxy_mode must be one of no-proxy, system, basic, ntlm")
	ErrMissingProxyHost   = errors.New("proxy_host is required for basic and ntlm proxy modes")
	ErrInvalidStoreDriver = errors.New("store driver must be one of json, sqlite, memory")
	ErrInvalidCooldown    = errors.New("cooldown must not be negative")
)

// ConfigDirectory returns ~/.config/bulk-tag-editor (or the OS equivalent).
func ConfigDirectory() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "bulk-tag-editor")
		}
		return filepath.Join(homeDir, ".config", "bulk-tag-editor")
	}
	return filepath.Join(configDir, "bulk-tag-editor")
}

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDirectory(), "config")
}

// DefaultStorePath returns the default store path for a driver.
func DefaultStorePath(driver string) string {
	if driver == kvstore.DriverSQLite {
		return filepath.Join(ConfigDirectory(), "store.db")
	}
	return filepath.Join(ConfigDirectory(), "store.json")
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Host:        "derpibooru.org",
		Scheme:      "https",
		UserAgent:   "bulk-tag-editor",
		StoreDriver: kvstore.DriverJSON,
		StorePath:   DefaultStorePath(kvstore.DriverJSON),
		ProxyMode:   "no-proxy",
	}
}

// LoadConfig loads configuration from an INI file and applies environment
// overrides. If the file doesn't exist, defaults are used and no error is returned.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		iniFile, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg.applyINI(iniFile)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to access config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (cfg *Config) applyINI(f *ini.File) {
	booru := f.Section("booru")
	cfg.Host = booru.Key("host").MustString(cfg.Host)
	cfg.Platform = booru.Key("platform").String()
	cfg.Scheme = booru.Key("scheme").MustString(cfg.Scheme)
	cfg.SessionCookie = booru.Key("session_cookie").String()
	cfg.UserAgent = booru.Key("user_agent").MustString(cfg.UserAgent)
	cfg.Cooldown = booru.Key("cooldown").MustDuration(0)

	store := f.Section("store")
	cfg.StoreDriver = store.Key("driver").MustString(cfg.StoreDriver)
	cfg.StorePath = expandHome(store.Key("path").MustString(DefaultStorePath(cfg.StoreDriver)))

	network := f.Section("network")
	cfg.ProxyMode = network.Key("proxy_mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = network.Key("proxy_host").String()
	cfg.ProxyPort = network.Key("proxy_port").MustInt(0)
	cfg.ProxyUser = network.Key("proxy_user").String()
	cfg.ProxyPassword = network.Key("proxy_password").String()
	cfg.NoProxy = network.Key("no_proxy").String()

	cfg.NotificationsEnabled = f.Section("notifications").Key("enabled").MustBool(false)
	cfg.LogFile = expandHome(f.Section("logging").Key("file").String())
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(EnvSession); v != "" {
		cfg.SessionCookie = v
	}
}

// SaveConfig writes the configuration to an INI file.
// The session cookie is stored in the file - the file is created 0600.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f := ini.Empty()
	sections := []struct {
		name   string
		values [][2]string
	}{
		{"booru", [][2]string{
			{"host", cfg.Host},
			{"platform", cfg.Platform},
			{"scheme", cfg.Scheme},
			{"session_cookie", cfg.SessionCookie},
			{"user_agent", cfg.UserAgent},
			{"cooldown", formatDuration(cfg.Cooldown)},
		}},
		{"store", [][2]string{
			{"driver", cfg.StoreDriver},
			{"path", cfg.StorePath},
		}},
		{"network", [][2]string{
			{"proxy_mode", cfg.ProxyMode},
			{"proxy_host", cfg.ProxyHost},
			{"proxy_port", fmt.Sprintf("%d", cfg.ProxyPort)},
			{"proxy_user", cfg.ProxyUser},
			{"proxy_password", cfg.ProxyPassword},
			{"no_proxy", cfg.NoProxy},
		}},
		{"notifications", [][2]string{
			{"enabled", fmt.Sprintf("%t", cfg.NotificationsEnabled)},
		}},
		{"logging", [][2]string{
			{"file", cfg.LogFile},
		}},
	}
	for _, s := range sections {
		section, err := f.NewSection(s.name)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", s.name, err)
		}
		for _, kv := range s.values {
			section.Key(kv[0]).SetValue(kv[1])
		}
	}

	// Temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := f.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Validate checks the configuration. Returns nil if valid.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Host) == "" {
		return ErrMissingHost
	}
	switch cfg.Scheme {
	case "http", "https":
	default:
		return ErrInvalidScheme
	}
	if cfg.Cooldown < 0 {
		return ErrInvalidCooldown
	}
	switch strings.ToLower(cfg.StoreDriver) {
	case kvstore.DriverJSON, kvstore.DriverSQLite, kvstore.DriverMemory:
	default:
		return ErrInvalidStoreDriver
	}
	switch strings.ToLower(cfg.ProxyMode) {
	case "", "no-proxy", "system":
	case "basic", "ntlm":
		if strings.TrimSpace(cfg.ProxyHost) == "" {
			return ErrMissingProxyHost
		}
	default:
		return ErrInvalidProxyMode
	}
	return nil
}

// BaseURL returns scheme://host.
func (cfg *Config) BaseURL() string {
	return cfg.Scheme + "://" + strings.TrimSuffix(cfg.Host, "/")
}

// formatDuration writes zero as an empty value so the site default applies.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
