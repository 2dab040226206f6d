package bulk

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Selection is the ordered set of record ids picked for a bulk apply, plus
// the bulk-mode toggle.
type Selection struct {
	mu    sync.Mutex
	ids   []string
	armed bool
}

// NewSelection returns a selection holding ids in order. Duplicates are kept.
func NewSelection(ids ...string) *Selection {
	s := &Selection{}
	s.Add(ids...)
	return s
}

// Add appends ids.
func (s *Selection) Add(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			s.ids = append(s.ids, id)
		}
	}
}

// Toggle selects id if unselected and unselects every occurrence otherwise.
// It reports whether id is selected afterwards.
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.ids[:0]
	found := false
	for _, existing := range s.ids {
		if existing == id {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	s.ids = kept
	if !found {
		s.ids = append(s.ids, id)
	}
	return !found
}

// IDs returns a copy of the selected ids in selection order.
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	s.ids = nil
	s.mu.Unlock()
}

// Arm enables bulk mode.
func (s *Selection) Arm() {
	s.mu.Lock()
	s.armed = true
	s.mu.Unlock()
}

// Disarm leaves bulk mode and clears the selection.
func (s *Selection) Disarm() {
	s.mu.Lock()
	s.armed = false
	s.ids = nil
	s.mu.Unlock()
}

// Armed reports whether bulk mode is on.
func (s *Selection) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// SelectionFromPage reads a listing page and returns a selection of every
// element's data-image-id in document order.
func SelectionFromPage(r io.Reader) (*Selection, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	sel := NewSelection()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "data-image-id" {
					sel.Add(a.Val)
					break
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return sel, nil
}
