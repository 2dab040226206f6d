// Package ratelimit enforces a minimum spacing between calls to the same
// platform. The spacing is measured from the end of the previous call.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/boorutools/bulk-tag-editor/internal/kvstore"
)

// Limiter tracks the last invocation time per platform key.
//
// It does not queue concurrent callers: two goroutines calling Throttle for
// the same key at once can both proceed after the same wait. Callers that need
// strict spacing (the bulk pipeline) issue one call at a time.
type Limiter struct {
	mu           sync.Mutex
	last         map[string]time.Time
	loaded       map[string]bool
	store        kvstore.Store // optional; persists timestamps across runs
	lastWarnTime time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithStore persists last-invocation timestamps to s so the cooldown window
// carries over between separate runs.
func WithStore(s kvstore.Store) Option {
	return func(l *Limiter) { l.store = s }
}

// WithClock replaces the time source and sleep function (tests).
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		l.now = now
		l.sleep = sleep
	}
}

// NewLimiter creates a limiter using the real clock.
func NewLimiter(opts ...Option) *Limiter {
	l := &Limiter{
		last:   make(map[string]time.Time),
		loaded: make(map[string]bool),
		now:    time.Now,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Throttle waits until cooldown has elapsed since the previous call for key
// finished, invokes fn, records the finish time (on success and on failure),
// and returns fn's result.
func Throttle[T any](ctx context.Context, l *Limiter, key string, cooldown time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if err := l.Wait(ctx, key, cooldown); err != nil {
		var zero T
		return zero, err
	}
	defer l.Record(key)
	return fn(ctx)
}

// Do is Throttle for functions without a result.
func (l *Limiter) Do(ctx context.Context, key string, cooldown time.Duration, fn func(context.Context) error) error {
	_, err := Throttle(ctx, l, key, cooldown, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Wait blocks for max(0, cooldown - (now - last[key])).
// Returns ctx.Err() if the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context, key string, cooldown time.Duration) error {
	wait := l.Remaining(key, cooldown)
	if wait <= 0 {
		return nil
	}

	l.mu.Lock()
	if wait > WarnWaitThreshold && l.now().Sub(l.lastWarnTime) > WarnMinInterval {
		log.Info().Str("platform", key).Msgf("Cooldown: waiting %.1fs before next submission", wait.Seconds())
		l.lastWarnTime = l.now()
	}
	l.mu.Unlock()

	return l.sleep(ctx, wait)
}

// Remaining returns how long a call for key would currently have to wait.
// The result is within [0, cooldown], even when the recorded time lies in the
// future because the wall clock moved back.
func (l *Limiter) Remaining(key string, cooldown time.Duration) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := l.now().Sub(l.lastLocked(key))
	wait := cooldown - elapsed
	switch {
	case wait < 0:
		return 0
	case wait > cooldown:
		return cooldown
	}
	return wait
}

// Record marks now as the last invocation time for key.
func (l *Limiter) Record(key string) {
	l.mu.Lock()
	now := l.now()
	l.last[key] = now
	l.loaded[key] = true
	store := l.store
	l.mu.Unlock()

	if store == nil {
		return
	}
	if err := store.Set(storeKey(key), now.UnixMilli()); err != nil {
		log.Warn().Err(err).Str("platform", key).Msg("Failed to persist cooldown timestamp")
	}
}

// lastLocked returns the last invocation for key, loading it from the store
// on first use. Caller must hold l.mu.
func (l *Limiter) lastLocked(key string) time.Time {
	if !l.loaded[key] {
		l.loaded[key] = true
		if l.store != nil {
			var ms int64
			found, err := l.store.Get(storeKey(key), &ms)
			if err != nil {
				log.Warn().Err(err).Str("platform", key).Msg("Ignoring unreadable cooldown timestamp")
			} else if found {
				l.last[key] = time.UnixMilli(ms)
			}
		}
	}
	if t, ok := l.last[key]; ok {
		return t
	}
	return time.Unix(0, 0)
}

func storeKey(key string) string {
	return kvstore.Key("throttle", key)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
