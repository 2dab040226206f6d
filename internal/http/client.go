// Package http builds the transport used to talk to booru sites.
package http

import (
	"context"
	nethttp "net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/boorutools/bulk-tag-editor/internal/config"
)

// leveledLogger implements the retryablehttp.LeveledLogger interface on zerolog.
type leveledLogger struct{}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warn().Fields(keysAndValues).Msg(msg)
}

// NewClient returns the HTTP client for booru requests.
//
// Requests are attempted exactly once: a failed bulk item is counted and
// skipped, never retried. The retryablehttp wrapper is kept for its leveled
// request logging and uniform error reporting.
func NewClient(cfg *config.Config) (*nethttp.Client, error) {
	base, err := ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.RetryMax = 0
	rc.CheckRetry = noRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = &leveledLogger{}

	return rc.StandardClient(), nil
}

// noRetry never retries but still surfaces transport errors.
func noRetry(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return false, err
}
