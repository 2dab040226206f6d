// Package platform holds the static per-booru parameter table and selects an
// entry by host name.
package platform

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Config describes one supported booru. Values are immutable after table
// construction; Select and Lookup return copies.
type Config struct {
	// Key identifies the platform (also the rate-limit key).
	Key string

	// Cooldown is the minimum spacing between tag submissions.
	Cooldown time.Duration

	// AutocompletePath is the tag autocomplete endpoint; the term is appended.
	AutocompletePath string

	// EditPathPrefix precedes "<id>/tags" for tag submissions.
	EditPathPrefix string

	// RecordPathPrefix precedes "<id>" for the JSON record endpoint.
	RecordPathPrefix string

	// AuthTokenField is the form field carrying the security token.
	AuthTokenField string

	// OldTagsField and NewTagsField are the form fields for the tag lists.
	OldTagsField string
	NewTagsField string

	// SelectionContainerSelector locates the listing header on index pages.
	SelectionContainerSelector string

	// RecordKey is the top-level JSON key wrapping a record ("image" or "post").
	RecordKey string

	hostPattern *regexp.Regexp
}

// ErrUnknownPlatform is returned when no table entry matches a host or key.
var ErrUnknownPlatform = errors.New("unsupported platform")

// The default rate-limit interval shared by all supported boorus.
const DefaultCooldown = 5 * time.Second

var defaults = Config{
	Cooldown:                   DefaultCooldown,
	AutocompletePath:           "/autocomplete/tags?term=",
	EditPathPrefix:             "/images/",
	RecordPathPrefix:           "/api/v1/json/images/",
	AuthTokenField:             "_csrf_token",
	OldTagsField:               "image[old_tag_input]",
	NewTagsField:               "image[tag_input]",
	SelectionContainerSelector: "#imagelist-container > section.block__header > div.flex__right",
	RecordKey:                  "image",
}

func derive(key, hostPattern string, override func(*Config)) Config {
	c := defaults
	c.Key = key
	c.hostPattern = regexp.MustCompile(hostPattern)
	if override != nil {
		override(&c)
	}
	return c
}

// table is ordered; Select returns the first match.
var table = []Config{
	derive("derpibooru", `(^|\.)(derpibooru|trixiebooru)\.org$`, nil),
	derive("ponybooru", `(^|\.)ponybooru\.org$`, nil),
	derive("ponerpics", `(^|\.)ponerpics\.(org|com)$`, nil),
	derive("twibooru", `(^|\.)twibooru\.org$`, func(c *Config) {
		c.AutocompletePath = "/tags/autocomplete.json?term="
		c.EditPathPrefix = "/posts/"
		c.RecordPathPrefix = "/api/v3/posts/"
		c.AuthTokenField = "authenticity_token"
		c.OldTagsField = "post[old_tag_list]"
		c.NewTagsField = "post[tag_input]"
		c.SelectionContainerSelector = "#imagelist_container > section.block__header > div.flex__right"
		c.RecordKey = "post"
	}),
}

// Select returns the configuration whose host pattern matches host.
// host may include a port, which is ignored.
func Select(host string) (Config, error) {
	h := strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndex(h, ":"); i >= 0 && !strings.Contains(h[i:], "]") {
		h = h[:i]
	}
	for _, c := range table {
		if c.hostPattern.MatchString(h) {
			return c, nil
		}
	}
	return Config{}, fmt.Errorf("%w: no platform matches host %q", ErrUnknownPlatform, host)
}

// Lookup returns the configuration for a platform key.
func Lookup(key string) (Config, error) {
	for _, c := range table {
		if c.Key == key {
			return c, nil
		}
	}
	return Config{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, key)
}

// All returns every supported platform, sorted by key.
func All() []Config {
	out := make([]Config, len(table))
	copy(out, table)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Keys returns the supported platform keys, sorted.
func Keys() []string {
	all := All()
	keys := make([]string, len(all))
	for i, c := range all {
		keys[i] = c.Key
	}
	return keys
}

// HostPattern returns the regular expression used to match host names.
func (c Config) HostPattern() string {
	if c.hostPattern == nil {
		return ""
	}
	return c.hostPattern.String()
}

// RecordPath returns the JSON record endpoint path for id.
func (c Config) RecordPath(id string) string {
	return c.RecordPathPrefix + id
}

// EditPath returns the record page path for id.
func (c Config) EditPath(id string) string {
	return c.EditPathPrefix + id
}

// TagsPath returns the tag submission endpoint path for id.
func (c Config) TagsPath(id string) string {
	return c.EditPathPrefix + id + "/tags"
}
