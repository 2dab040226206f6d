// Package api talks to a Philomena-style booru: it reads record tags, submits
// tag edits, scrapes the security token and queries tag autocomplete.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/boorutools/bulk-tag-editor/internal/config"
	"github.com/boorutools/bulk-tag-editor/internal/http"
	"github.com/boorutools/bulk-tag-editor/internal/platform"
	"github.com/boorutools/bulk-tag-editor/internal/tagset"
)

// maxErrorBody caps how much of a failed response is kept in a StatusError.
const maxErrorBody = 512

// Client is a booru API client bound to one platform.
type Client struct {
	httpClient    *nethttp.Client
	baseURL       string
	platform      platform.Config
	sessionCookie string
	userAgent     string

	tokenMu sync.Mutex
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithSessionCookie sets the Cookie header sent with every request.
func WithSessionCookie(cookie string) Option {
	return func(c *Client) { c.sessionCookie = cookie }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for baseURL using an existing HTTP client.
func New(httpClient *nethttp.Client, baseURL string, p platform.Config, opts ...Option) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		platform:   p,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClient builds a client from configuration: the platform is the
// configured override or else selected from the host, and the transport
// honours the proxy settings.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := PlatformFor(cfg)
	if err != nil {
		return nil, err
	}
	httpClient, err := http.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	return New(httpClient, cfg.BaseURL(), p,
		WithSessionCookie(cfg.SessionCookie),
		WithUserAgent(cfg.UserAgent),
	), nil
}

// PlatformFor resolves the platform for cfg.
func PlatformFor(cfg *config.Config) (platform.Config, error) {
	if cfg.Platform != "" {
		return platform.Lookup(cfg.Platform)
	}
	return platform.Select(cfg.Host)
}

// Platform returns the platform this client is bound to.
func (c *Client) Platform() platform.Config {
	return c.platform
}

// doRequest sends a request with the session headers and turns any non-200
// response into a *StatusError. The caller closes the body on success.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*nethttp.Response, error) {
	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.sessionCookie != "" {
		req.Header.Set("Cookie", c.sessionCookie)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", path).Msg("Request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode != nethttp.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	return resp, nil
}

// FetchTags reads the current tag list of a record.
func (c *Client) FetchTags(ctx context.Context, id string) (*tagset.TagSet, error) {
	resp, err := c.doRequest(ctx, nethttp.MethodGet, c.platform.RecordPath(id), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	raw, ok := envelope[c.platform.RecordKey]
	if !ok {
		return nil, fmt.Errorf("record %s: %w (key %q)", id, ErrRecordNotFound, c.platform.RecordKey)
	}

	var record struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return tagset.New(record.Tags...), nil
}

// SubmitTags writes a record's tag list. old is the list the edit is based
// on; the site uses it to detect concurrent edits.
func (c *Client) SubmitTags(ctx context.Context, id string, old, updated *tagset.TagSet) error {
	token, err := c.FetchToken(ctx, id)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("_method", "put")
	form.Set(c.platform.AuthTokenField, token)
	form.Set(c.platform.OldTagsField, old.Serialize())
	form.Set(c.platform.NewTagsField, updated.Serialize())

	resp, err := c.doRequest(ctx, nethttp.MethodPost, c.platform.TagsPath(id),
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		if IsAuthError(err) {
			c.InvalidateToken()
		}
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	log.Debug().Str("id", id).Int("tags", updated.Len()).Msg("Tags submitted")
	return nil
}

// Autocomplete returns tag suggestions for term. The endpoint answers with
// either plain strings or {label, value} objects; the value is used.
func (c *Client) Autocomplete(ctx context.Context, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	resp, err := c.doRequest(ctx, nethttp.MethodGet, c.platform.AutocompletePath+url.QueryEscape(term), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode autocomplete response: %w", err)
	}

	suggestions := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			suggestions = append(suggestions, s)
			continue
		}
		var obj struct {
			Label string `json:"label"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("unexpected autocomplete item %s: %w", string(item), err)
		}
		if obj.Value != "" {
			suggestions = append(suggestions, obj.Value)
		} else if obj.Label != "" {
			suggestions = append(suggestions, obj.Label)
		}
	}
	return suggestions, nil
}

// FetchPage returns the body of an HTML page on the site, e.g. a search
// listing used to build a selection.
func (c *Client) FetchPage(ctx context.Context, path string) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	resp, err := c.doRequest(ctx, nethttp.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
