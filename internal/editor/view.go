package editor

import (
	"sync"

	"github.com/boorutools/bulk-tag-editor/internal/tagset"
)

// TextView is the free-text presentation of a tag list.
type TextView interface {
	Value() string
	SetValue(string)
}

// Chip is one removable tag element in the chip presentation.
type Chip struct {
	Name string
}

// ChipView is the chip presentation of a tag list. Chips are kept in
// insertion order.
type ChipView interface {
	Append(Chip)
	// Remove deletes the chip named name and reports whether it existed.
	Remove(name string) bool
	Clear()
	Chips() []Chip
}

// ToText renders a set the way the text view shows it.
func ToText(set *tagset.TagSet) string {
	return set.Serialize()
}

// ToChips renders a set as chips, one per member in order.
func ToChips(set *tagset.TagSet) []Chip {
	tags := set.Tags()
	chips := make([]Chip, len(tags))
	for i, tag := range tags {
		chips[i] = Chip{Name: tag}
	}
	return chips
}

// TextBuffer is an in-memory TextView.
type TextBuffer struct {
	mu    sync.RWMutex
	value string
}

func (b *TextBuffer) Value() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

func (b *TextBuffer) SetValue(v string) {
	b.mu.Lock()
	b.value = v
	b.mu.Unlock()
}

// ChipList is an in-memory ChipView.
type ChipList struct {
	mu    sync.RWMutex
	chips []Chip
}

func (l *ChipList) Append(c Chip) {
	l.mu.Lock()
	l.chips = append(l.chips, c)
	l.mu.Unlock()
}

func (l *ChipList) Remove(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.chips {
		if c.Name == name {
			l.chips = append(l.chips[:i], l.chips[i+1:]...)
			return true
		}
	}
	return false
}

func (l *ChipList) Clear() {
	l.mu.Lock()
	l.chips = nil
	l.mu.Unlock()
}

func (l *ChipList) Chips() []Chip {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Chip, len(l.chips))
	copy(out, l.chips)
	return out
}
