// Package selection tracks which items of one list view are marked for a
// bulk action. A Set is owned by exactly one view.
package selection

import (
	"sort"
	"sync"
)

// Set is a set of item identities
type Set struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// New creates a set holding ids
func New(ids ...string) *Set {
	s := &Set{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Toggle flips the membership of one identity and reports whether it is now selected
func (s *Set) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// ToggleAll selects or deselects exactly the visible identities. Selections
// outside visibleIDs are left untouched.
func (s *Set) ToggleAll(visibleIDs []string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range visibleIDs {
		if selected {
			s.ids[id] = struct{}{}
		} else {
			delete(s.ids, id)
		}
	}
}

// AllSelected reports whether every visible identity is selected
func (s *Set) AllSelected(visibleIDs []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(visibleIDs) == 0 {
		return false
	}
	for _, id := range visibleIDs {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

// Prune drops every identity that is not in present and returns the dropped ones
func (s *Set) Prune(present []string) []string {
	keep := make(map[string]struct{}, len(present))
	for _, id := range present {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var dropped []string
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
			dropped = append(dropped, id)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// RemoveSucceeded removes the identities a bulk operation completed. Ids
// that are not selected are ignored.
func (s *Set) RemoveSucceeded(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Contains reports whether id is selected
func (s *Set) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected identities
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the selected identities, sorted
func (s *Set) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear deselects everything
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{})
}
