package editor

import (
	"github.com/boorutools/bulk-tag-editor/internal/kvstore"
	"github.com/boorutools/bulk-tag-editor/internal/tagset"
)

// Editor ids and labels
const (
	AddEditorID       = "add-editor"
	RemoveEditorID    = "remove-editor"
	AddEditorLabel    = "Tags to add:"
	RemoveEditorLabel = "Tags to remove:"
)

// Pair is the add/remove editor couple shown together.
type Pair struct {
	Add    *TagEditor
	Remove *TagEditor
}

// NewPair creates both editors with in-memory views and loads their tags.
func NewPair(store kvstore.Store) (*Pair, error) {
	add, err := New(AddEditorLabel, AddEditorID, store, nil, nil)
	if err != nil {
		return nil, err
	}
	remove, err := New(RemoveEditorLabel, RemoveEditorID, store, nil, nil)
	if err != nil {
		return nil, err
	}
	return &Pair{Add: add, Remove: remove}, nil
}

// Editors returns the add and remove editors in display order.
func (p *Pair) Editors() []*TagEditor {
	return []*TagEditor{p.Add, p.Remove}
}

// Lookup returns the editor with the given id or short name ("add" or
// "remove").
func (p *Pair) Lookup(name string) (*TagEditor, bool) {
	switch name {
	case "add", AddEditorID:
		return p.Add, true
	case "remove", RemoveEditorID:
		return p.Remove, true
	}
	return nil, false
}

// Save persists both editors.
func (p *Pair) Save() error {
	for _, e := range p.Editors() {
		if err := e.SaveTags(); err != nil {
			return err
		}
	}
	return nil
}

// Load reloads both editors from the store.
func (p *Pair) Load() error {
	for _, e := range p.Editors() {
		if err := e.LoadTags(); err != nil {
			return err
		}
	}
	return nil
}

// SyncChipsFromText rebuilds both chip views from their text views.
func (p *Pair) SyncChipsFromText() {
	for _, e := range p.Editors() {
		e.SyncChipsFromText()
	}
}

// Sets returns the add and remove sets as read from the text views, which is
// what an apply acts on.
func (p *Pair) Sets() (add, remove *tagset.TagSet) {
	return tagset.Deserialize(p.Add.Text().Value()), tagset.Deserialize(p.Remove.Text().Value())
}
