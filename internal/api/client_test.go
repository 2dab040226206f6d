package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/boorutools/bulk-tag-editor/internal/config"
	"github.com/boorutools/bulk-tag-editor/internal/http"
	"github.com/boorutools/bulk-tag-editor/internal/platform"
	"github.com/boorutools/bulk-tag-editor/internal/tagset"
)

const tokenPage = `<!DOCTYPE html><html><head>
<meta charset="utf-8">
<meta name="csrf-token" content="tok123">
</head><body></body></html>`

func mustLookup(t *testing.T, key string) platform.Config {
	t.Helper()
	p, err := platform.Lookup(key)
	if err != nil {
		t.Fatalf("Lookup(%s): %v", key, err)
	}
	return p
}

func TestFetchTags(t *testing.T) {
	tests := []struct {
		platform string
		path     string
		body     string
	}{
		{"derpibooru", "/api/v1/json/images/42", `{"image":{"id":42,"tags":["safe","pony","safe"]}}`},
		{"twibooru", "/api/v3/posts/42", `{"post":{"id":42,"tags":["safe","pony"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				if r.Method != nethttp.MethodGet || r.URL.Path != tt.path {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if got := r.Header.Get("Cookie"); got != "_session=abc" {
					t.Errorf("Cookie = %q", got)
				}
				if got := r.Header.Get("User-Agent"); got != "bulk-tag-editor-test" {
					t.Errorf("User-Agent = %q", got)
				}
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c := New(srv.Client(), srv.URL, mustLookup(t, tt.platform),
				WithSessionCookie("_session=abc"), WithUserAgent("bulk-tag-editor-test"))

			tags, err := c.FetchTags(context.Background(), "42")
			if err != nil {
				t.Fatalf("FetchTags: %v", err)
			}
			if got := tags.Serialize(); got != "safe, pony" {
				t.Errorf("tags = %q, want %q", got, "safe, pony")
			}
		})
	}
}

func TestFetchTagsWrongRecordKey(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		fmt.Fprint(w, `{"post":{"tags":["a"]}}`)
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, mustLookup(t, "derpibooru"))
	_, err := c.FetchTags(context.Background(), "1")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestFetchTagsNon200(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Error(w, "gone", nethttp.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, mustLookup(t, "derpibooru"))
	_, err := c.FetchTags(context.Background(), "7")

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.StatusCode != nethttp.StatusNotFound || se.Method != "GET" || se.Path != "/api/v1/json/images/7" {
		t.Errorf("unexpected status error: %+v", se)
	}
	if se.Body != "gone" {
		t.Errorf("Body = %q", se.Body)
	}
}

// TestStatusErrorClassifiedByCode verifies the record id in the path does not
// decide the failure class.
func TestStatusErrorClassifiedByCode(t *testing.T) {
	tests := []struct {
		path string
		code int
		want http.ErrorType
	}{
		{"/api/v1/json/images/1401", nethttp.StatusNotFound, http.ErrorTypeFatal},
		{"/api/v1/json/images/25003", nethttp.StatusNotFound, http.ErrorTypeFatal},
		{"/images/4403/tags", nethttp.StatusUnprocessableEntity, http.ErrorTypeFatal},
		{"/images/1500/tags", nethttp.StatusForbidden, http.ErrorTypeCredential},
		{"/images/403/tags", nethttp.StatusServiceUnavailable, http.ErrorTypeRetryable},
	}
	for _, tt := range tests {
		err := fmt.Errorf("fetch: %w", &StatusError{Method: "GET", Path: tt.path, StatusCode: tt.code})
		if got := http.ClassifyError(err); got != tt.want {
			t.Errorf("%s status %d classified %s, want %s", tt.path, tt.code, http.ErrorTypeName(got), http.ErrorTypeName(tt.want))
		}
	}
}

func TestSubmitTagsRequestShape(t *testing.T) {
	tests := []struct {
		platform   string
		pagePath   string
		submitPath string
		tokenField string
		oldField   string
		newField   string
	}{
		{"derpibooru", "/images/5", "/images/5/tags", "_csrf_token", "image[old_tag_input]", "image[tag_input]"},
		{"twibooru", "/posts/5", "/posts/5/tags", "authenticity_token", "post[old_tag_list]", "post[tag_input]"},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			var submits int32
			srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				switch {
				case r.Method == nethttp.MethodGet && r.URL.Path == tt.pagePath:
					fmt.Fprint(w, tokenPage)
				case r.Method == nethttp.MethodPost && r.URL.Path == tt.submitPath:
					atomic.AddInt32(&submits, 1)
					if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
						t.Errorf("Content-Type = %q", ct)
					}
					if err := r.ParseForm(); err != nil {
						t.Fatalf("ParseForm: %v", err)
					}
					want := map[string]string{
						"_method":     "put",
						tt.tokenField: "tok123",
						tt.oldField:   "a, b",
						tt.newField:   "a, c",
					}
					for k, v := range want {
						if got := r.PostForm.Get(k); got != v {
							t.Errorf("form[%s] = %q, want %q", k, got, v)
						}
					}
				default:
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
					w.WriteHeader(nethttp.StatusTeapot)
				}
			}))
			defer srv.Close()

			c := New(srv.Client(), srv.URL, mustLookup(t, tt.platform))
			err := c.SubmitTags(context.Background(), "5", tagset.New("a", "b"), tagset.New("a", "c"))
			if err != nil {
				t.Fatalf("SubmitTags: %v", err)
			}
			if submits != 1 {
				t.Errorf("submits = %d, want 1", submits)
			}
		})
	}
}

func TestTokenIsCached(t *testing.T) {
	var pages int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method == nethttp.MethodGet {
			atomic.AddInt32(&pages, 1)
			fmt.Fprint(w, tokenPage)
		}
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, mustLookup(t, "derpibooru"))
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		if err := c.SubmitTags(ctx, id, tagset.New(), tagset.New("x")); err != nil {
			t.Fatalf("SubmitTags(%s): %v", id, err)
		}
	}
	if pages != 1 {
		t.Errorf("token page fetched %d times, want 1", pages)
	}
}

func TestTokenInvalidatedOnForbidden(t *testing.T) {
	var pages int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method == nethttp.MethodGet {
			atomic.AddInt32(&pages, 1)
			fmt.Fprint(w, tokenPage)
			return
		}
		w.WriteHeader(nethttp.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, mustLookup(t, "derpibooru"))
	ctx := context.Background()

	err := c.SubmitTags(ctx, "1", tagset.New(), tagset.New("x"))
	if !IsAuthError(err) {
		t.Fatalf("err = %v, want auth error", err)
	}
	_ = c.SubmitTags(ctx, "2", tagset.New(), tagset.New("x"))
	if pages != 2 {
		t.Errorf("token page fetched %d times, want 2", pages)
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		want    string
		wantErr error
	}{
		{"present", tokenPage, "tok123", nil},
		{"whitespace trimmed", `<meta name="csrf-token" content="  t  ">`, "t", nil},
		{"missing", `<html><head><meta name="other" content="x"></head></html>`, "", ErrTokenNotFound},
		{"empty content", `<meta name="csrf-token" content="">`, "", ErrTokenNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToken(strings.NewReader(tt.page))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAutocomplete(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		path     string
		body     string
		want     []string
	}{
		{"objects", "derpibooru", "/autocomplete/tags", `[{"label":"pony (100)","value":"pony"},{"label":"ponies","value":""}]`, []string{"pony", "ponies"}},
		{"strings", "twibooru", "/tags/autocomplete.json", `["pony","pinkie pie"]`, []string{"pony", "pinkie pie"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				if r.URL.Path != tt.path {
					t.Errorf("path = %s, want %s", r.URL.Path, tt.path)
				}
				if got := r.URL.Query().Get("term"); got != "po ny" {
					t.Errorf("term = %q", got)
				}
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c := New(srv.Client(), srv.URL, mustLookup(t, tt.platform))
			got, err := c.Autocomplete(context.Background(), " po ny ")
			if err != nil {
				t.Fatalf("Autocomplete: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("suggestions = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAutocompleteEmptyTermSkipsRequest(t *testing.T) {
	c := New(nethttp.DefaultClient, "http://127.0.0.1:0", mustLookup(t, "derpibooru"))
	got, err := c.Autocomplete(context.Background(), "   ")
	if err != nil || got != nil {
		t.Errorf("Autocomplete(blank) = %v, %v", got, err)
	}
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("q") != "pony" {
			t.Errorf("unexpected request %s", r.URL)
		}
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, mustLookup(t, "derpibooru"))
	body, err := c.FetchPage(context.Background(), "search?q=pony")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "<html></html>" {
		t.Errorf("body = %q", data)
	}
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Host = "twibooru.org"
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.Platform().Key != "twibooru" {
		t.Errorf("platform = %s, want twibooru", c.Platform().Key)
	}

	cfg.Host = "example.com"
	if _, err := NewClient(cfg); !errors.Is(err, platform.ErrUnknownPlatform) {
		t.Errorf("err = %v, want ErrUnknownPlatform", err)
	}
}

func TestPlatformOverride(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Host = "127.0.0.1:8080"
	cfg.Platform = "ponerpics"
	p, err := PlatformFor(cfg)
	if err != nil {
		t.Fatalf("PlatformFor: %v", err)
	}
	if p.Key != "ponerpics" {
		t.Errorf("platform = %s", p.Key)
	}
}
