package ratelimit

import (
	"sync"

	"github.com/boorutools/bulk-tag-editor/internal/kvstore"
)

var (
	globalLimiter     *Limiter
	globalLimiterOnce sync.Once
	globalStore       kvstore.Store
	globalStoreMu     sync.Mutex
)

// SetGlobalStore registers the store the process-wide limiter persists to.
// Must be called before the first GlobalLimiter call to take effect.
func SetGlobalStore(s kvstore.Store) {
	globalStoreMu.Lock()
	defer globalStoreMu.Unlock()
	globalStore = s
}

// GlobalLimiter returns the process-level singleton Limiter.
// All API clients for the same platform share its timestamps.
// Thread-safe; initialized exactly once.
func GlobalLimiter() *Limiter {
	globalLimiterOnce.Do(func() {
		globalStoreMu.Lock()
		s := globalStore
		globalStoreMu.Unlock()

		var opts []Option
		if s != nil {
			opts = append(opts, WithStore(s))
		}
		globalLimiter = NewLimiter(opts...)
	})
	return globalLimiter
}

// ResetGlobalLimiter replaces the global limiter with a fresh instance.
// Only for use in tests.
func ResetGlobalLimiter() {
	globalLimiterOnce = sync.Once{}
	globalLimiter = nil
	SetGlobalStore(nil)
}
