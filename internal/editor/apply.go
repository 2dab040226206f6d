package editor

import (
	"errors"

	"github.com/boorutools/bulk-tag-editor/internal/tagset"
)

// ErrNoTagField is returned when there is no tag field to apply to.
var ErrNoTagField = errors.New("tag field not found")

// TagField is the tag input of a single record's edit form.
type TagField interface {
	Value() string
	SetValue(string)
	// IsFancy reports whether the field is in chip presentation.
	IsFancy() bool
	// SetFancy switches the presentation.
	SetFancy(bool)
}

// ApplyToField merges add and remove into the field's tag list. A field in
// chip presentation is switched to text for the edit and back afterwards.
func ApplyToField(field TagField, add, remove *tagset.TagSet) error {
	if field == nil {
		return ErrNoTagField
	}

	fancy := field.IsFancy()
	if fancy {
		field.SetFancy(false)
	}

	merged := tagset.Merge(tagset.Deserialize(field.Value()), add, remove)
	field.SetValue(merged.Serialize())

	if fancy {
		field.SetFancy(true)
	}
	return nil
}

// Field is an in-memory TagField. When switched to chip presentation its
// chips are rebuilt from the value.
type Field struct {
	TextBuffer
	Chips ChipList
	fancy bool
	// Toggles counts presentation switches.
	Toggles int
}

// NewField returns a field holding value.
func NewField(value string, fancy bool) *Field {
	f := &Field{fancy: fancy}
	f.SetValue(value)
	if fancy {
		f.rebuildChips()
	}
	return f
}

func (f *Field) IsFancy() bool { return f.fancy }

func (f *Field) SetFancy(fancy bool) {
	if f.fancy == fancy {
		return
	}
	f.fancy = fancy
	f.Toggles++
	if fancy {
		f.rebuildChips()
	}
}

func (f *Field) rebuildChips() {
	f.Chips.Clear()
	for _, chip := range ToChips(tagset.Deserialize(f.Value())) {
		f.Chips.Append(chip)
	}
}
