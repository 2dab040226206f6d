package cli

import (
	"bytes"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/boorutools/bulk-tag-editor/internal/config"
	"github.com/boorutools/bulk-tag-editor/internal/platform"
	"github.com/boorutools/bulk-tag-editor/internal/ratelimit"
)

// runCLI executes the command tree with args and returns what was written to
// the command's output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvHost, "")
	t.Setenv(config.EnvSession, "")
	ratelimit.ResetGlobalLimiter()
	t.Cleanup(ratelimit.ResetGlobalLimiter)

	root := NewRootCmd()
	AddCommands(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "config")}, args...))
	err := root.Execute()
	return out.String(), err
}

func findCommand(root *cobra.Command, path ...string) *cobra.Command {
	cmd := root
	for _, name := range path {
		var next *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cmd = next
	}
	return cmd
}

func TestCommandStructure(t *testing.T) {
	root := NewRootCmd()
	AddCommands(root)

	tests := [][]string{
		{"apply"},
		{"merge"},
		{"edit"},
		{"platforms"},
		{"autocomplete"},
		{"tags", "show"},
		{"tags", "add"},
		{"tags", "remove"},
		{"tags", "clear"},
		{"tags", "set"},
		{"config", "init"},
		{"config", "show"},
		{"config", "path"},
		{"completion", "bash"},
	}
	for _, path := range tests {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			if findCommand(root, path...) == nil {
				t.Errorf("command %q not registered", strings.Join(path, " "))
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	cmd := newApplyCmd()
	for _, name := range []string{"add", "remove", "saved", "ids-file", "from-page", "notify"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("apply is missing --%s", name)
		}
	}
	if f := cmd.Flags().ShorthandLookup("a"); f == nil || f.Name != "add" {
		t.Error("expected -a to be --add")
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"add and remove", []string{"--tags", "safe, solo", "--add", "pony", "--remove", "solo"}, "safe, pony"},
		{"remove wins", []string{"--tags", "safe", "--add", "pony", "--remove", "pony"}, "safe"},
		{"empty field", []string{"--add", "a, b"}, "a, b"},
		{"fancy field", []string{"--tags", "x", "--add", "y", "--fancy"}, "x, y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, append([]string{"merge"}, tt.args...)...)
			if err != nil {
				t.Fatalf("merge failed: %v", err)
			}
			if got := strings.TrimSpace(out); got != tt.want {
				t.Errorf("merge output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagsPersistAcrossRuns(t *testing.T) {
	storeFile := filepath.Join(t.TempDir(), "store.json")
	store := []string{"--store", "json", "--store-path", storeFile}

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"tags", "add", "add", "safe, pony"}, "safe, pony"},
		{[]string{"tags", "add", "add", "pony", "solo"}, "safe, pony, solo"},
		{[]string{"tags", "remove", "add", "pony"}, "safe, solo"},
		{[]string{"tags", "set", "remove", "sad,  grimdark ,"}, "sad, grimdark"},
		{[]string{"tags", "show", "add"}, "safe, solo"},
		{[]string{"tags", "clear", "add"}, ""},
		{[]string{"tags", "show", "remove"}, "sad, grimdark"},
	}
	for _, step := range steps {
		out, err := runCLI(t, append(step.args, store...)...)
		if err != nil {
			t.Fatalf("%v failed: %v", step.args, err)
		}
		if got := strings.TrimSpace(out); got != step.want {
			t.Errorf("%v output = %q, want %q", step.args, got, step.want)
		}
	}
}

func TestTagsUnknownEditor(t *testing.T) {
	_, err := runCLI(t, "tags", "show", "sideways", "--store", "memory")
	if err == nil || !strings.Contains(err.Error(), "unknown editor") {
		t.Errorf("expected unknown editor error, got %v", err)
	}
}

func TestPlatforms(t *testing.T) {
	out, err := runCLI(t, "platforms")
	if err != nil {
		t.Fatalf("platforms failed: %v", err)
	}
	for _, want := range []string{"derpibooru", "ponybooru", "ponerpics", "twibooru", "/api/v3/posts/"} {
		if !strings.Contains(out, want) {
			t.Errorf("platforms output missing %q:\n%s", want, out)
		}
	}
}

func TestPlatformCooldown(t *testing.T) {
	base, err := platform.Lookup("derpibooru")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name     string
		cooldown time.Duration
		want     time.Duration
	}{
		{"unset", 0, platform.DefaultCooldown},
		{"longer", 12 * time.Second, 12 * time.Second},
		{"shorter is ignored", time.Second, platform.DefaultCooldown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, registry := platformCooldown(&config.Config{Cooldown: tt.cooldown}, base)
			if p.Cooldown != tt.want {
				t.Errorf("Cooldown = %v, want %v", p.Cooldown, tt.want)
			}
			if got := registry.Cooldown(p.Key); got != tt.want {
				t.Errorf("registry cooldown = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitIDs(t *testing.T) {
	got := splitIDs("1, 2\n3\t4,,5 ")
	want := []string{"1", "2", "3", "4", "5"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("splitIDs = %v, want %v", got, want)
	}
}

// fakeSite is a derpibooru-dialect server with per-record tags.
type fakeSite struct {
	mu        sync.Mutex
	tags      map[string]string
	submitted map[string]string
}

func newFakeSite(t *testing.T, tags map[string]string) (*fakeSite, string) {
	site := &fakeSite{tags: tags, submitted: make(map[string]string)}
	srv := httptest.NewServer(site)
	t.Cleanup(srv.Close)
	return site, strings.TrimPrefix(srv.URL, "http://")
}

func (s *fakeSite) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/v1/json/images/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/json/images/")
		tags, ok := s.tags[id]
		if !ok {
			nethttp.NotFound(w, r)
			return
		}
		quoted := []string{}
		for _, tag := range strings.Split(tags, ",") {
			quoted = append(quoted, fmt.Sprintf("%q", strings.TrimSpace(tag)))
		}
		fmt.Fprintf(w, `{"image":{"id":%s,"tags":[%s]}}`, id, strings.Join(quoted, ","))
	case r.URL.Path == "/search":
		fmt.Fprint(w, `<div class="media-box" data-image-id="7"></div>`)
	case r.Method == nethttp.MethodGet:
		fmt.Fprint(w, `<html><head><meta name="csrf-token" content="tok"></head></html>`)
	case r.Method == nethttp.MethodPost:
		_ = r.ParseForm()
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/images/"), "/tags")
		s.submitted[id] = r.PostForm.Get("image[tag_input]")
	}
}

func siteArgs(host string) []string {
	return []string{"--host", host, "--scheme", "http", "--platform", "derpibooru", "--store", "memory"}
}

func TestApplySingleRecord(t *testing.T) {
	site, host := newFakeSite(t, map[string]string{"7": "safe, solo"})

	_, err := runCLI(t, append([]string{"apply", "7", "--add", "pony", "--remove", "solo"}, siteArgs(host)...)...)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got := site.submitted["7"]; got != "safe, pony" {
		t.Errorf("submitted tags = %q, want %q", got, "safe, pony")
	}
}

func TestApplyFromPage(t *testing.T) {
	site, host := newFakeSite(t, map[string]string{"7": "safe"})

	_, err := runCLI(t, append([]string{"apply", "--from-page", "/search", "--add", "pony"}, siteArgs(host)...)...)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got := site.submitted["7"]; got != "safe, pony" {
		t.Errorf("submitted tags = %q, want %q", got, "safe, pony")
	}
}

func TestApplyReportsFailures(t *testing.T) {
	_, host := newFakeSite(t, map[string]string{})

	_, err := runCLI(t, append([]string{"apply", "404", "--add", "pony"}, siteArgs(host)...)...)
	if !errors.Is(err, ErrPartialFailure) {
		t.Errorf("expected ErrPartialFailure, got %v", err)
	}
}

func TestApplyRequiresSelectionAndTags(t *testing.T) {
	_, host := newFakeSite(t, map[string]string{})

	if _, err := runCLI(t, append([]string{"apply", "--add", "pony"}, siteArgs(host)...)...); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("expected ErrEmptySelection, got %v", err)
	}
	if _, err := runCLI(t, append([]string{"apply", "1"}, siteArgs(host)...)...); err == nil {
		t.Error("expected an error when there is nothing to apply")
	}
}

func TestApplyIDsFile(t *testing.T) {
	site, host := newFakeSite(t, map[string]string{"9": "a"})
	idsFile := filepath.Join(t.TempDir(), "ids.txt")
	if err := os.WriteFile(idsFile, []byte("9\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, append([]string{"apply", "--ids-file", idsFile, "--add", "b"}, siteArgs(host)...)...)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got := site.submitted["9"]; got != "a, b" {
		t.Errorf("submitted tags = %q, want %q", got, "a, b")
	}
}
