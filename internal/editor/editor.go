// Package editor implements the persisted tag-list editor with its two
// synchronized presentations (free text and chips) and the single-target
// apply operation.
package editor

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"github.com/boorutools/bulk-tag-editor/internal/kvstore"
	"github.com/boorutools/bulk-tag-editor/internal/tagset"
)

// TagEditor owns one tag set and keeps its text view and chip view in sync
// with it. The set is persisted under kvstore.Key(id).
//
// After any public operation the chips match the set in membership and order,
// except after ClearView or SaveTags, which leave the chips untouched.
type TagEditor struct {
	Label string
	ID    string

	store kvstore.Store
	tags  *tagset.TagSet
	saved *tagset.TagSet
	text  TextView
	chips ChipView
	input []rune
}

// New creates an editor and loads its persisted tags.
func New(label, id string, store kvstore.Store, text TextView, chips ChipView) (*TagEditor, error) {
	if text == nil {
		text = &TextBuffer{}
	}
	if chips == nil {
		chips = &ChipList{}
	}
	e := &TagEditor{
		Label: label,
		ID:    id,
		store: store,
		tags:  tagset.New(),
		text:  text,
		chips: chips,
	}
	if err := e.LoadTags(); err != nil {
		return nil, err
	}
	return e, nil
}

// StoreKey returns the key the editor persists under.
func (e *TagEditor) StoreKey() string {
	return kvstore.Key(e.ID)
}

// Tags returns a copy of the current set.
func (e *TagEditor) Tags() *tagset.TagSet {
	return e.tags.Clone()
}

// Text returns the text view.
func (e *TagEditor) Text() TextView { return e.text }

// Chips returns the chip view.
func (e *TagEditor) Chips() ChipView { return e.chips }

// Input returns the raw, uncommitted chip-mode input.
func (e *TagEditor) Input() string {
	return string(e.input)
}

// SetInput replaces the raw input buffer.
func (e *TagEditor) SetInput(s string) {
	e.input = []rune(s)
}

// AddTag appends a tag. Only the new chip is added; existing chips are not
// rebuilt.
func (e *TagEditor) AddTag(name string) {
	name = strings.TrimSpace(name)
	if !e.tags.Add(name) {
		return
	}
	e.text.SetValue(ToText(e.tags))
	e.chips.Append(Chip{Name: name})
}

// RemoveTag removes a tag and its chip. Removing an absent tag only rewrites
// the text view from the set.
func (e *TagEditor) RemoveTag(name string) {
	if e.tags.Remove(name) {
		if !e.chips.Remove(name) {
			panic(fmt.Sprintf("editor %s: tag %q has no chip", e.ID, name))
		}
	}
	e.text.SetValue(ToText(e.tags))
}

// ClearView removes all chips. The set and text view are untouched.
func (e *TagEditor) ClearView() {
	e.chips.Clear()
}

// SaveTags re-reads the set from the text view, persists it and rewrites the
// text view in canonical form.
func (e *TagEditor) SaveTags() error {
	e.tags = tagset.Deserialize(e.text.Value())
	if err := e.store.Set(e.StoreKey(), e.tags); err != nil {
		return fmt.Errorf("failed to save %s: %w", e.ID, err)
	}
	e.saved = e.tags.Clone()
	e.text.SetValue(ToText(e.tags))
	log.Debug().Str("editor", e.ID).Int("tags", e.tags.Len()).Msg("Tags saved")
	return nil
}

// ResetTags deletes the persisted set and reloads the now empty editor.
func (e *TagEditor) ResetTags() error {
	if err := e.store.Delete(e.StoreKey()); err != nil {
		return fmt.Errorf("failed to reset %s: %w", e.ID, err)
	}
	return e.LoadTags()
}

// Modified reports whether the text view differs from what was last saved
// or loaded.
func (e *TagEditor) Modified() bool {
	return !tagset.Deserialize(e.text.Value()).Equal(e.saved)
}

// LoadTags replaces the set with the persisted one (empty when absent) and
// rebuilds both views.
func (e *TagEditor) LoadTags() error {
	e.ClearView()

	loaded := tagset.New()
	if _, err := e.store.Get(e.StoreKey(), loaded); err != nil {
		return fmt.Errorf("failed to load %s: %w", e.ID, err)
	}
	e.tags = loaded
	e.saved = loaded.Clone()
	for _, chip := range ToChips(e.tags) {
		e.chips.Append(chip)
	}
	e.text.SetValue(ToText(e.tags))
	return nil
}

// SyncChipsFromText re-derives the set from the text view and rebuilds all
// chips. Used when switching from text to chip presentation.
func (e *TagEditor) SyncChipsFromText() {
	e.tags = tagset.Deserialize(e.text.Value())
	e.ClearView()
	for _, chip := range ToChips(e.tags) {
		e.chips.Append(chip)
	}
}

// SelectSuggestion adds an autocomplete suggestion and clears the raw input.
func (e *TagEditor) SelectSuggestion(s string) {
	e.AddTag(s)
	e.input = e.input[:0]
}

// DismissChip removes the tag behind a chip.
func (e *TagEditor) DismissChip(name string) {
	e.RemoveTag(name)
}

// Commit adds every tag in the raw input and clears it.
func (e *TagEditor) Commit() {
	for _, tag := range tagset.Deserialize(string(e.input)).Tags() {
		e.AddTag(tag)
	}
	e.input = e.input[:0]
}

// HandleKey applies a chip-mode key event. It returns whether the key was
// consumed.
func (e *TagEditor) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEnter:
		e.Commit()
		return true

	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(e.input) > 0 {
			e.input = e.input[:len(e.input)-1]
			return true
		}
		if last, ok := e.tags.Last(); ok {
			e.RemoveTag(last)
		}
		return true

	case tcell.KeyRune:
		if ev.Rune() == ',' {
			e.Commit()
			return true
		}
		e.input = append(e.input, ev.Rune())
		return true
	}
	return false
}
