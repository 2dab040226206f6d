package ratelimit

import (
	"fmt"
	"sort"
	"time"

	"github.com/boorutools/bulk-tag-editor/internal/platform"
)

// Registry maps platform keys to their cooldown. Intervals start from the
// platform table and can only be lengthened.
type Registry struct {
	cooldowns       map[string]time.Duration
	defaultCooldown time.Duration
}

// NewRegistry builds the registry from the platform table.
func NewRegistry() *Registry {
	r := &Registry{
		cooldowns:       make(map[string]time.Duration),
		defaultCooldown: platform.DefaultCooldown,
	}
	for _, c := range platform.All() {
		r.cooldowns[c.Key] = c.Cooldown
	}
	return r
}

// Cooldown returns the interval for key, or the default for unknown keys.
func (r *Registry) Cooldown(key string) time.Duration {
	if d, ok := r.cooldowns[key]; ok {
		return d
	}
	return r.defaultCooldown
}

// SetCooldown lengthens the interval for key. A value shorter than the
// current interval is ignored and false is returned.
func (r *Registry) SetCooldown(key string, d time.Duration) bool {
	if d < r.Cooldown(key) {
		return false
	}
	r.cooldowns[key] = d
	return true
}

// Keys returns the registered platform keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.cooldowns))
	for k := range r.cooldowns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DisplayString returns a human-readable description for logging.
// Example: "derpibooru (1 submission / 5.0s)"
func (r *Registry) DisplayString(key string) string {
	d, ok := r.cooldowns[key]
	if !ok {
		return key + " (unknown platform)"
	}
	return fmt.Sprintf("%s (1 submission / %.1fs)", key, d.Seconds())
}
