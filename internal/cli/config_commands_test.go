package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/boorutools/bulk-tag-editor/internal/config"
)

func TestRunConfigPrompts(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantHost     string
		wantPlatform string
		wantDriver   string
		wantNotify   bool
	}{
		{
			name:       "defaults",
			input:      "\n\n\n\n",
			wantHost:   "derpibooru.org",
			wantDriver: "json",
		},
		{
			name:       "known host with sqlite",
			input:      "twibooru.org\nsqlite\n/tmp/s.db\ntrue\n",
			wantHost:   "twibooru.org",
			wantDriver: "sqlite",
			wantNotify: true,
		},
		{
			name:         "unknown host asks for platform",
			input:        "booru.example\nponybooru\nmemory\nfalse\n",
			wantHost:     "booru.example",
			wantPlatform: "ponybooru",
			wantDriver:   "memory",
		},
		{
			name:       "input ends early",
			input:      "ponerpics.org\n",
			wantHost:   "ponerpics.org",
			wantDriver: "json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cfg, err := runConfigPrompts(bufio.NewReader(strings.NewReader(tt.input)), &out)
			if err != nil {
				t.Fatalf("runConfigPrompts failed: %v", err)
			}
			if cfg.Host != tt.wantHost {
				t.Errorf("Host = %q, want %q", cfg.Host, tt.wantHost)
			}
			if cfg.Platform != tt.wantPlatform {
				t.Errorf("Platform = %q, want %q", cfg.Platform, tt.wantPlatform)
			}
			if cfg.StoreDriver != tt.wantDriver {
				t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, tt.wantDriver)
			}
			if cfg.NotificationsEnabled != tt.wantNotify {
				t.Errorf("NotificationsEnabled = %v, want %v", cfg.NotificationsEnabled, tt.wantNotify)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("prompted config does not validate: %v", err)
			}
		})
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":             "(not set)",
		"abc":          "****",
		"session=1234": "********1234",
	}
	for in, want := range tests {
		if got := mask(in); got != want {
			t.Errorf("mask(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrintConfigHidesSession(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SessionCookie = "_philomena_key=secretvalue"

	var out bytes.Buffer
	printConfig(&out, cfg)
	if strings.Contains(out.String(), "secret") {
		t.Errorf("session cookie leaked:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "https://derpibooru.org") {
		t.Errorf("base URL missing:\n%s", out.String())
	}
}

func TestConfigShowUsesFlags(t *testing.T) {
	out, err := runCLI(t, "config", "show", "--host", "twibooru.org", "--store", "memory")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "twibooru.org") || !strings.Contains(out, "memory") {
		t.Errorf("flag overrides not shown:\n%s", out)
	}
}
