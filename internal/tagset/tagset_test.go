package tagset

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDeserialize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"single", "foo", []string{"foo"}},
		{"multiple", "foo,bar,baz", []string{"foo", "bar", "baz"}},
		{"with spaces", " foo , bar , baz ", []string{"foo", "bar", "baz"}},
		{"duplicates keep first", "a, a, b", []string{"a", "b"}},
		{"duplicate after trim", "b, a,  b", []string{"b", "a"}},
		{"empty pieces dropped", "foo,,bar,", []string{"foo", "bar"}},
		{"whitespace only", "   ", []string{}},
		{"case sensitive", "Safe, safe", []string{"Safe", "safe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deserialize(tt.input).Tags()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Deserialize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestSerializeRoundTrip verifies Deserialize(Serialize(s)) == s for duplicate-free sequences.
func TestSerializeRoundTrip(t *testing.T) {
	cases := [][]string{
		{},
		{"safe"},
		{"safe", "pony", "artist:foo"},
		{"oc:bar baz", "solo", "cute"},
	}
	for _, tags := range cases {
		s := New(tags...)
		text := s.Serialize()
		back := Deserialize(text)
		if !back.Equal(s) {
			t.Errorf("round trip of %v via %q gave %v", tags, text, back.Tags())
		}
	}
}

func TestSerializeFormat(t *testing.T) {
	if got := New("a", "b", "c").Serialize(); got != "a, b, c" {
		t.Errorf("Serialize() = %q, want %q", got, "a, b, c")
	}
	if got := New().Serialize(); got != "" {
		t.Errorf("Serialize() of empty set = %q, want empty", got)
	}
}

// TestAddIsIdempotent verifies adding the same tag twice yields a single member.
func TestAddIsIdempotent(t *testing.T) {
	s := New()
	if !s.Add("x") {
		t.Fatal("first Add should change the set")
	}
	if s.Add("x") {
		t.Error("second Add should be a no-op")
	}
	if s.Add("  x ") {
		t.Error("Add of padded duplicate should be a no-op")
	}
	if s.Add("   ") {
		t.Error("Add of blank tag should be a no-op")
	}
	if got := s.Tags(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("Tags() = %v, want [x]", got)
	}
}

func TestRemove(t *testing.T) {
	s := New("a", "b", "c")
	if !s.Remove("b") {
		t.Error("Remove(b) should change the set")
	}
	if s.Remove("missing") {
		t.Error("Remove of absent tag should be a no-op")
	}
	if got := s.Tags(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("Tags() = %v, want [a c]", got)
	}
	// Order of first insertion survives a remove/add cycle
	s.Add("b")
	if got := s.Tags(); !reflect.DeepEqual(got, []string{"a", "c", "b"}) {
		t.Errorf("Tags() = %v, want [a c b]", got)
	}
}

func TestLast(t *testing.T) {
	if _, ok := New().Last(); ok {
		t.Error("Last() on empty set should report false")
	}
	if last, ok := New("a", "b").Last(); !ok || last != "b" {
		t.Errorf("Last() = %q, %v; want b, true", last, ok)
	}
}

// TestMergeRemoveWins verifies remove takes precedence over add.
func TestMergeRemoveWins(t *testing.T) {
	current := New("a", "b", "c")
	add := New("c", "d")
	remove := New("c")

	merged := Merge(current, add, remove)
	if got := merged.Tags(); !reflect.DeepEqual(got, []string{"a", "b", "d"}) {
		t.Errorf("Merge() = %v, want [a b d]", got)
	}
	// Inputs are untouched
	if current.Len() != 3 || add.Len() != 2 || remove.Len() != 1 {
		t.Error("Merge() mutated its inputs")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New("a")
	c := s.Clone()
	c.Add("b")
	if s.Len() != 1 {
		t.Errorf("original changed after mutating clone: %v", s.Tags())
	}
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(New())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("empty set marshals to %s, want []", data)
	}

	var s TagSet
	if err := json.Unmarshal([]byte(`[" a ","b","a",""]`), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got := s.Tags(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Unmarshal normalized to %v, want [a b]", got)
	}
}
