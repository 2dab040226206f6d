// Package tui is the terminal front end for the add/remove tag editors.
package tui

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"github.com/boorutools/bulk-tag-editor/internal/bulk"
	"github.com/boorutools/bulk-tag-editor/internal/editor"
	"github.com/boorutools/bulk-tag-editor/internal/events"
	"github.com/boorutools/bulk-tag-editor/internal/tagset"
)

const suggestTimeout = 10 * time.Second

// SuggestFunc returns autocomplete suggestions for a partial tag.
type SuggestFunc func(ctx context.Context, term string) ([]string, error)

// ApplyFunc applies the add and remove sets to the selected records and
// returns the final status line.
type ApplyFunc func(ctx context.Context, sel *bulk.Selection, add, remove *tagset.TagSet) string

// Options configures an App.
type Options struct {
	Screen  tcell.Screen
	Pair    *editor.Pair
	Suggest SuggestFunc // optional
	Apply   ApplyFunc   // optional; Ctrl-A is disabled without it
	Bus     *events.EventBus

	// Records are the ids that can be picked for a bulk apply.
	Records []string
	// Selection receives the picked ids. A new one is created when nil.
	Selection *bulk.Selection
}

// App is the terminal editor. Key events are handled on the Run goroutine.
// Applies and suggestion lookups run on their own goroutines; an apply
// reports through the event bus and a lookup posts its result back to the
// event loop.
type App struct {
	screen  tcell.Screen
	pair    *editor.Pair
	suggest SuggestFunc
	apply   ApplyFunc
	bus     *events.EventBus

	records   []string
	selection *bulk.Selection
	cursor    int

	active      int
	textMode    bool
	suggestions []string
	selected    int
	chipHits    []chipHit
	recordHits  []recordHit
	quit        bool

	applying atomic.Bool
	applyWG  sync.WaitGroup

	suggesting atomic.Bool
	suggestWG  sync.WaitGroup

	mu     sync.Mutex
	status string
}

// chipHit is the screen cell range of a chip's dismiss marker.
type chipHit struct {
	editor int
	y      int
	x0, x1 int
	name   string
}

// recordHit is the screen cell range of a record id in the records line.
type recordHit struct {
	y      int
	x0, x1 int
	index  int
}

// suggestResult is posted to the event loop when a lookup finishes.
type suggestResult struct {
	editor int
	term   string
	list   []string
	err    error
}

// New creates an App.
func New(opts Options) *App {
	sel := opts.Selection
	if sel == nil {
		sel = bulk.NewSelection()
	}
	var records []string
	seen := make(map[string]bool)
	for _, id := range opts.Records {
		if id != "" && !seen[id] {
			seen[id] = true
			records = append(records, id)
		}
	}
	return &App{
		screen:    opts.Screen,
		pair:      opts.Pair,
		suggest:   opts.Suggest,
		apply:     opts.Apply,
		bus:       opts.Bus,
		records:   records,
		selection: sel,
		status:    "Ready",
	}
}

// Run takes over the screen until the user quits.
func (a *App) Run(ctx context.Context) error {
	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer a.screen.Fini()
	a.screen.EnableMouse()

	if a.bus != nil {
		sub := a.bus.SubscribeAll()
		defer a.bus.UnsubscribeAll(sub)
		go a.forward(sub)
	}

	a.draw()
	for !a.quit {
		ev := a.screen.PollEvent()
		if ev == nil {
			break
		}
		a.handleEvent(ctx, ev)
		a.draw()
	}
	a.applyWG.Wait()
	a.suggestWG.Wait()
	return nil
}

// forward turns bus events into status updates and wakes the event loop.
func (a *App) forward(sub <-chan events.Event) {
	for ev := range sub {
		switch e := ev.(type) {
		case *events.ProgressEvent:
			a.setStatus(e.Message)
		case *events.ItemFailedEvent:
			a.setStatus(fmt.Sprintf("Error on %s (%s): %v", e.ID, e.Class, e.Error))
		case *events.CompleteEvent:
			a.setStatus(e.Message)
		default:
			continue
		}
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}

// Status returns the status line.
func (a *App) Status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *App) setStatus(s string) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

// notice sets the status line and publishes it as a log event.
func (a *App) notice(level events.LogLevel, msg string) {
	a.setStatus(msg)
	if a.bus != nil {
		a.bus.PublishLog(level, msg)
	}
}

// Active returns the focused editor.
func (a *App) Active() *editor.TagEditor {
	return a.pair.Editors()[a.active]
}

func (a *App) handleEvent(ctx context.Context, ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		a.handleKey(ctx, ev)
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventInterrupt:
		if r, ok := ev.Data().(*suggestResult); ok {
			a.showSuggestions(r)
		}
	case *tcell.EventResize:
		a.screen.Sync()
	}
}

func (a *App) handleKey(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		if len(a.suggestions) > 0 {
			a.suggestions = nil
			return
		}
		a.quit = true
		return

	case tcell.KeyCtrlC:
		a.quit = true
		return

	case tcell.KeyTab:
		if a.textMode {
			a.Active().SyncChipsFromText()
		}
		a.active = (a.active + 1) % len(a.pair.Editors())
		a.suggestions = nil
		return

	case tcell.KeyCtrlS:
		a.save()
		return

	case tcell.KeyCtrlL:
		if err := a.pair.Load(); err != nil {
			a.notice(events.ErrorLevel, "Load failed: "+err.Error())
			return
		}
		a.notice(events.InfoLevel, "Tags loaded")
		return

	case tcell.KeyCtrlA:
		a.startApply(ctx)
		return

	case tcell.KeyCtrlB:
		a.toggleBulkMode()
		return

	case tcell.KeyCtrlN:
		a.moveCursor(1)
		return

	case tcell.KeyCtrlP:
		a.moveCursor(-1)
		return

	case tcell.KeyCtrlR:
		a.toggleRecord(a.cursor)
		return

	case tcell.KeyCtrlT:
		a.fetchSuggestions(ctx)
		return

	case tcell.KeyCtrlE:
		a.toggleTextMode()
		return
	}

	if a.textMode {
		a.handleTextKey(ev)
		return
	}

	if len(a.suggestions) > 0 {
		switch ev.Key() {
		case tcell.KeyDown:
			a.selected = (a.selected + 1) % len(a.suggestions)
			return
		case tcell.KeyUp:
			a.selected = (a.selected + len(a.suggestions) - 1) % len(a.suggestions)
			return
		case tcell.KeyEnter:
			a.Active().SelectSuggestion(a.suggestions[a.selected])
			a.suggestions = nil
			return
		}
	}

	if a.Active().HandleKey(ev) {
		a.suggestions = nil
	}
}

// handleTextKey edits the text view directly.
func (a *App) handleTextKey(ev *tcell.EventKey) {
	text := a.Active().Text()
	value := []rune(text.Value())
	switch ev.Key() {
	case tcell.KeyRune:
		text.SetValue(string(append(value, ev.Rune())))
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(value) > 0 {
			text.SetValue(string(value[:len(value)-1]))
		}
	case tcell.KeyEnter:
		a.toggleTextMode()
	}
}

func (a *App) toggleTextMode() {
	if a.textMode {
		a.pair.SyncChipsFromText()
	}
	a.textMode = !a.textMode
	a.suggestions = nil
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	if ev.Buttons()&tcell.Button1 == 0 {
		return
	}
	x, y := ev.Position()
	for _, hit := range a.recordHits {
		if y == hit.y && x >= hit.x0 && x <= hit.x1 {
			a.cursor = hit.index
			a.toggleRecord(hit.index)
			return
		}
	}
	// Chips are stale while the text view is being edited.
	if a.textMode {
		return
	}
	for _, hit := range a.chipHits {
		if y == hit.y && x >= hit.x0 && x <= hit.x1 {
			a.pair.Editors()[hit.editor].DismissChip(hit.name)
			return
		}
	}
}

func (a *App) save() {
	if err := a.pair.Save(); err != nil {
		a.notice(events.ErrorLevel, "Save failed: "+err.Error())
		return
	}
	// SaveTags leaves the chips alone; rebuild them from the canonical text.
	a.pair.SyncChipsFromText()
	a.notice(events.InfoLevel, "Tags saved")
}

// Selection returns the records picked for a bulk apply.
func (a *App) Selection() *bulk.Selection {
	return a.selection
}

// toggleBulkMode arms or disarms the selection. Arming an empty selection
// picks every record; disarming drops the picks.
func (a *App) toggleBulkMode() {
	if a.Applying() {
		a.setStatus("Apply already running")
		return
	}
	if a.selection.Armed() {
		a.selection.Disarm()
		a.notice(events.InfoLevel, "Bulk mode off")
		return
	}
	a.selection.Arm()
	if a.selection.Len() == 0 {
		a.selection.Add(a.records...)
	}
	a.notice(events.InfoLevel, fmt.Sprintf("Bulk mode on: %d of %d selected", a.selection.Len(), len(a.records)))
}

func (a *App) moveCursor(delta int) {
	if len(a.records) == 0 {
		return
	}
	a.cursor = (a.cursor + delta + len(a.records)) % len(a.records)
}

// toggleRecord picks or unpicks the record at index i.
func (a *App) toggleRecord(i int) {
	if i < 0 || i >= len(a.records) {
		return
	}
	switch {
	case a.Applying():
		a.setStatus("Apply already running")
	case !a.selection.Armed():
		a.setStatus("Bulk mode is off (Ctrl-B)")
	default:
		id := a.records[i]
		if a.selection.Toggle(id) {
			a.setStatus("Selected " + id)
		} else {
			a.setStatus("Unselected " + id)
		}
	}
}

// fetchSuggestions looks up the active editor's input in the background. The
// result is shown by showSuggestions once the event loop receives it.
func (a *App) fetchSuggestions(ctx context.Context) {
	if a.suggest == nil {
		a.setStatus("Autocomplete unavailable")
		return
	}
	term := a.Active().Input()
	if term == "" {
		return
	}
	if !a.suggesting.CompareAndSwap(false, true) {
		return
	}
	a.setStatus("Looking up " + term + "...")

	a.suggestWG.Add(1)
	go func(idx int) {
		defer a.suggestWG.Done()
		ctx, cancel := context.WithTimeout(ctx, suggestTimeout)
		defer cancel()

		list, err := a.suggest(ctx, term)
		a.suggesting.Store(false)
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(&suggestResult{editor: idx, term: term, list: list, err: err}))
	}(a.active)
}

func (a *App) showSuggestions(r *suggestResult) {
	if r.err != nil {
		log.Debug().Err(r.err).Str("term", r.term).Msg("Autocomplete failed")
		a.notice(events.WarnLevel, "Autocomplete failed: "+r.err.Error())
		return
	}
	// The user moved on while the lookup ran.
	if r.editor != a.active || a.textMode {
		a.setStatus("Ready")
		return
	}
	if len(r.list) == 0 {
		a.setStatus("No suggestions for " + r.term)
	} else {
		a.setStatus(fmt.Sprintf("%d suggestions for %s", len(r.list), r.term))
	}
	a.suggestions = r.list
	a.selected = 0
}

// startApply runs the apply in the background. Re-entry is refused while a
// previous apply is still running.
func (a *App) startApply(ctx context.Context) {
	if a.apply == nil {
		a.setStatus("Nothing selected to apply to")
		return
	}
	if !a.applying.CompareAndSwap(false, true) {
		a.setStatus("Apply already running")
		return
	}
	if !a.selection.Armed() {
		a.applying.Store(false)
		a.setStatus("Bulk mode is off (Ctrl-B)")
		return
	}
	if a.selection.Len() == 0 {
		a.applying.Store(false)
		a.setStatus("Nothing selected to apply to")
		return
	}

	if a.textMode {
		a.pair.SyncChipsFromText()
	}
	add, remove := a.pair.Sets()
	a.setStatus("Applying...")

	a.applyWG.Add(1)
	go func() {
		defer a.applyWG.Done()
		defer a.applying.Store(false)
		msg := a.apply(ctx, a.selection, add, remove)
		a.setStatus(msg)
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()
}

// Applying reports whether an apply is in progress.
func (a *App) Applying() bool {
	return a.applying.Load()
}

// waitApply blocks until a running apply finishes.
func (a *App) waitApply() {
	a.applyWG.Wait()
}
