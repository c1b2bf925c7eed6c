// Package scene keeps the set of regions on display in step with the regions
// a probe touches, emitting the minimal add/remove deltas for the renderer.
package scene

import (
	"slices"

	"probeplanner/internal/models"
)

// Entry is a region and its display parameters
type Entry struct {
	Label   string
	Display models.Display
}

// RenderedSet maps rendered region labels to their display parameters.
// Iteration follows insertion order.
type RenderedSet struct {
	order   []string
	display map[string]models.Display
	tip     string
}

// NewRenderedSet creates a set holding the given entries
func NewRenderedSet(entries ...Entry) *RenderedSet {
	s := &RenderedSet{display: make(map[string]models.Display, len(entries))}
	for _, e := range entries {
		s.put(e.Label, e.Display)
	}
	return s
}

func (s *RenderedSet) put(label string, d models.Display) {
	if _, ok := s.display[label]; !ok {
		s.order = append(s.order, label)
	}
	s.display[label] = d
}

// Contains reports whether label is rendered
func (s *RenderedSet) Contains(label string) bool {
	if s == nil {
		return false
	}
	_, ok := s.display[label]
	return ok
}

// Display returns the display parameters of a rendered label
func (s *RenderedSet) Display(label string) (models.Display, bool) {
	if s == nil {
		return models.Display{}, false
	}
	d, ok := s.display[label]
	return d, ok
}

// Labels returns the rendered labels in insertion order
func (s *RenderedSet) Labels() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.order)
}

// Entries returns the rendered labels with their display parameters
func (s *RenderedSet) Entries() []Entry {
	if s == nil {
		return nil
	}
	entries := make([]Entry, 0, len(s.order))
	for _, l := range s.order {
		entries = append(entries, Entry{Label: l, Display: s.display[l]})
	}
	return entries
}

// Len returns the number of rendered labels
func (s *RenderedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Tip returns the label rendered as tip region, or ""
func (s *RenderedSet) Tip() string {
	if s == nil {
		return ""
	}
	return s.tip
}
