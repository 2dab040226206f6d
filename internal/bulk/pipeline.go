// Package bulk applies one add/remove tag pair to many records, one record at
// a time, spaced by the platform's rate limit.
package bulk

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/boorutools/bulk-tag-editor/internal/http"
	"github.com/boorutools/bulk-tag-editor/internal/platform"
	"github.com/boorutools/bulk-tag-editor/internal/progress"
	"github.com/boorutools/bulk-tag-editor/internal/ratelimit"
	"github.com/boorutools/bulk-tag-editor/internal/tagset"
)

// Booru reads and writes record tags.
type Booru interface {
	FetchTags(ctx context.Context, id string) (*tagset.TagSet, error)
	SubmitTags(ctx context.Context, id string, old, updated *tagset.TagSet) error
}

// ItemError is the failure of one record.
type ItemError struct {
	ID  string
	Err error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// Summary is the outcome of a bulk run. Completed counts every processed
// item, failed or not.
type Summary struct {
	Total     int
	Completed int
	Failed    int
	Errors    []ItemError
	Duration  time.Duration
}

// Message returns the final status line.
func (s Summary) Message() string {
	return progress.CompletionMessage(s.Failed)
}

// Pipeline runs bulk applies against one booru.
type Pipeline struct {
	booru    Booru
	limiter  *ratelimit.Limiter
	platform platform.Config
	reporter progress.Reporter
}

// NewPipeline creates a pipeline. A nil limiter uses the global limiter and a
// nil reporter discards progress.
func NewPipeline(booru Booru, p platform.Config, limiter *ratelimit.Limiter, reporter progress.Reporter) *Pipeline {
	if limiter == nil {
		limiter = ratelimit.GlobalLimiter()
	}
	if reporter == nil {
		reporter = progress.NoOpProgress{}
	}
	return &Pipeline{
		booru:    booru,
		limiter:  limiter,
		platform: p,
		reporter: reporter,
	}
}

// Step fetches one record's tags, merges add and remove into them and
// submits the result. Only the submission is spaced by the platform rate
// limit.
func (p *Pipeline) Step(ctx context.Context, id string, add, remove *tagset.TagSet) error {
	current, err := p.booru.FetchTags(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	merged := tagset.Merge(current, add, remove)

	err = p.limiter.Do(ctx, p.platform.Key, p.platform.Cooldown, func(ctx context.Context) error {
		return p.booru.SubmitTags(ctx, id, current, merged)
	})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return nil
}

// Run applies add and remove to every selected record in selection order.
// A failed record is counted and skipped; the run always reaches the end and
// always clears the selection.
func (p *Pipeline) Run(ctx context.Context, sel *Selection, add, remove *tagset.TagSet) Summary {
	start := time.Now()
	ids := sel.IDs()
	summary := Summary{Total: len(ids)}

	log.Info().
		Str("platform", p.platform.Key).
		Int("total", summary.Total).
		Str("add", add.Serialize()).
		Str("remove", remove.Serialize()).
		Msg("Bulk apply started")

	p.reporter.Progress(0, summary.Total)

	for _, id := range ids {
		if err := p.Step(ctx, id, add, remove); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, ItemError{ID: id, Err: err})
			log.Warn().
				Err(err).
				Str("id", id).
				Str("class", http.ErrorTypeName(http.ClassifyError(err))).
				Msg("Tag update failed")
			p.reporter.ItemFailed(id, err)
		}
		summary.Completed++
		p.reporter.Progress(summary.Completed, summary.Total)
	}

	summary.Duration = time.Since(start)
	p.reporter.Done(summary.Total, summary.Failed)
	log.Info().
		Int("total", summary.Total).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg(summary.Message())

	sel.Clear()
	return summary
}
