// Package progress reports bulk apply progress on a terminal (progress bar),
// a plain writer (one line per update) or the event bus.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/boorutools/bulk-tag-editor/internal/events"
	"github.com/boorutools/bulk-tag-editor/internal/http"
)

// Reporter receives bulk apply progress.
type Reporter interface {
	// Progress is called with 0/total before the first item and after every
	// item.
	Progress(completed, total int)
	// ItemFailed is called once per failed item.
	ItemFailed(id string, err error)
	// Done is called once when the run ends.
	Done(total, failed int)
}

// Message formats a progress update.
func Message(completed, total int) string {
	return fmt.Sprintf("Progress: %d/%d", completed, total)
}

// CompletionMessage formats the final status.
func CompletionMessage(failed int) string {
	if failed == 0 {
		return "Completed"
	}
	return fmt.Sprintf("Completed with %d errors", failed)
}

// New returns a progress bar reporter when w is a terminal and a line
// reporter otherwise.
func New(w io.Writer) Reporter {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return NewCLIProgress(f)
	}
	return NewLineProgress(w)
}

// CLIProgress draws a progress bar.
type CLIProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a new CLI progress reporter.
func NewCLIProgress(w io.Writer) *CLIProgress {
	return &CLIProgress{w: w}
}

func (p *CLIProgress) Progress(completed, total int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Applying tags"),
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(p.w, "\n")
			}),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	_ = p.bar.Set(completed)
}

func (p *CLIProgress) ItemFailed(id string, err error) {
	if p.bar != nil {
		_ = p.bar.Clear()
	}
	fmt.Fprintf(p.w, "Error: %s: %v\n", id, err)
}

func (p *CLIProgress) Done(total, failed int) {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
	fmt.Fprintln(p.w, CompletionMessage(failed))
}

// LineProgress writes one status line per update.
type LineProgress struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineProgress creates a reporter writing plain lines to w.
func NewLineProgress(w io.Writer) *LineProgress {
	return &LineProgress{w: w}
}

func (p *LineProgress) Progress(completed, total int) {
	p.println(Message(completed, total))
}

func (p *LineProgress) ItemFailed(id string, err error) {
	p.println(fmt.Sprintf("Error: %s: %v", id, err))
}

func (p *LineProgress) Done(total, failed int) {
	p.println(CompletionMessage(failed))
}

func (p *LineProgress) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

// EventProgress publishes progress to an event bus.
type EventProgress struct {
	bus *events.EventBus
}

// NewEventProgress creates a reporter that publishes to bus.
func NewEventProgress(bus *events.EventBus) *EventProgress {
	return &EventProgress{bus: bus}
}

func (p *EventProgress) Progress(completed, total int) {
	p.bus.PublishProgress(completed, total, Message(completed, total))
}

func (p *EventProgress) ItemFailed(id string, err error) {
	p.bus.PublishItemFailed(id, http.ErrorTypeName(http.ClassifyError(err)), err)
}

func (p *EventProgress) Done(total, failed int) {
	p.bus.PublishComplete(total, failed, 0, CompletionMessage(failed))
}

// NoOpProgress is a progress reporter that does nothing.
type NoOpProgress struct{}

func (NoOpProgress) Progress(completed, total int)   {}
func (NoOpProgress) ItemFailed(id string, err error) {}
func (NoOpProgress) Done(total, failed int)          {}
