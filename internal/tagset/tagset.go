// Package tagset provides the ordered, duplicate-free tag collection shared by
// the tag editors and the bulk apply pipeline.
package tagset

import (
	"encoding/json"
	"strings"
)

// Separator is the delimiter between tags in the text form.
const Separator = ","

// TagSet is an ordered sequence of unique, trimmed, non-empty tags.
// Order of first insertion is preserved across edits.
type TagSet struct {
	tags []string
}

// New creates a TagSet from the given tags, keeping the first occurrence of
// each and dropping empties.
func New(tags ...string) *TagSet {
	s := &TagSet{}
	for _, tag := range tags {
		s.Add(tag)
	}
	return s
}

// Deserialize splits text on commas and normalizes the pieces.
// Empty input yields an empty set.
func Deserialize(text string) *TagSet {
	if text == "" {
		return &TagSet{}
	}
	return New(strings.Split(text, Separator)...)
}

// Serialize joins the members with ", ".
func (s *TagSet) Serialize() string {
	return strings.Join(s.tags, Separator+" ")
}

// String implements fmt.Stringer.
func (s *TagSet) String() string {
	return s.Serialize()
}

// Add trims tag and appends it. Empty or already present tags are ignored.
// Reports whether the set changed.
func (s *TagSet) Add(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || s.Contains(tag) {
		return false
	}
	s.tags = append(s.tags, tag)
	return true
}

// Remove deletes tag by exact match. Reports whether the set changed.
func (s *TagSet) Remove(tag string) bool {
	i := s.index(tag)
	if i < 0 {
		return false
	}
	s.tags = append(s.tags[:i], s.tags[i+1:]...)
	return true
}

// Contains reports whether tag is a member (exact string equality).
func (s *TagSet) Contains(tag string) bool {
	return s.index(tag) >= 0
}

func (s *TagSet) index(tag string) int {
	for i, t := range s.tags {
		if t == tag {
			return i
		}
	}
	return -1
}

// Len returns the number of members.
func (s *TagSet) Len() int {
	return len(s.tags)
}

// Tags returns a copy of the members in order.
func (s *TagSet) Tags() []string {
	out := make([]string, len(s.tags))
	copy(out, s.tags)
	return out
}

// Last returns the most recently appended member.
func (s *TagSet) Last() (string, bool) {
	if len(s.tags) == 0 {
		return "", false
	}
	return s.tags[len(s.tags)-1], true
}

// Clone returns an independent copy.
func (s *TagSet) Clone() *TagSet {
	return &TagSet{tags: s.Tags()}
}

// Equal reports whether both sets hold the same members in the same order.
func (s *TagSet) Equal(other *TagSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i, t := range s.tags {
		if other.tags[i] != t {
			return false
		}
	}
	return true
}

// Merge computes (current ∪ add) \ remove. Existing tags keep their order and
// new tags follow in add order. A tag present in both add and remove is removed.
func Merge(current, add, remove *TagSet) *TagSet {
	merged := current.Clone()
	for _, tag := range add.tags {
		merged.Add(tag)
	}
	for _, tag := range remove.tags {
		merged.Remove(tag)
	}
	return merged
}

// MarshalJSON encodes the set as a JSON array of strings.
func (s *TagSet) MarshalJSON() ([]byte, error) {
	if s.tags == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.tags)
}

// UnmarshalJSON decodes a JSON array of strings, normalizing the members.
func (s *TagSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = *New(raw...)
	return nil
}
