// Package view holds the state of one item list: the cached items, the
// selection and the revealed value. Each scope has exactly one owner and is
// torn down with Close.
package view

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/azvault/go/internal/exposure"
	"github.com/azvault/go/internal/search"
	"github.com/azvault/go/internal/selection"
	"github.com/azvault/go/internal/vault"
)

// ListScope is the state container of one list view
type ListScope struct {
	mu        sync.Mutex
	client    vault.Client
	vaultRef  string
	kind      vault.Kind
	items     []vault.Item
	selection *selection.Set
	revealer  *exposure.Revealer
	log       zerolog.Logger
	closed    bool
}

// NewListScope creates an empty scope. revealer may be nil for lists that
// never show values.
func NewListScope(client vault.Client, vaultRef string, kind vault.Kind, revealer *exposure.Revealer, log zerolog.Logger) *ListScope {
	return &ListScope{
		client:    client,
		vaultRef:  vaultRef,
		kind:      kind,
		selection: selection.New(),
		revealer:  revealer,
		log:       log,
	}
}

// VaultRef returns the vault the scope lists
func (s *ListScope) VaultRef() string {
	return s.vaultRef
}

// Kind returns the listed item kind
func (s *ListScope) Kind() vault.Kind {
	return s.kind
}

// Selection returns the scope's selection
func (s *ListScope) Selection() *selection.Set {
	return s.selection
}

// Revealer returns the scope's revealer, if any
func (s *ListScope) Revealer() *exposure.Revealer {
	return s.revealer
}

// Refresh reloads the items from the vault and prunes selections of items
// that disappeared. A listing failure leaves the cache untouched.
func (s *ListScope) Refresh(ctx context.Context) error {
	items, err := s.client.ListItems(ctx, s.vaultRef, s.kind)
	if err != nil {
		return vault.NewTransportError("list items", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	s.items = items
	if dropped := s.selection.Prune(vault.IDs(items)); len(dropped) > 0 {
		s.log.Debug().Int("count", len(dropped)).Msg("pruned selection after refresh")
	}

	if s.revealer != nil {
		if name, ok := s.revealer.Held(); ok && !containsName(items, name) {
			s.revealer.Clear()
		}
	}
	return nil
}

// Items returns the cached items
func (s *ListScope) Items() []vault.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]vault.Item(nil), s.items...)
}

// Visible returns the cached items whose name contains query
func (s *ListScope) Visible(query string) []vault.Item {
	return search.MatchSubstring(s.Items(), query)
}

// ToggleAllVisible selects or deselects the items matching query only
func (s *ListScope) ToggleAllVisible(query string, selected bool) {
	s.selection.ToggleAll(vault.IDs(s.Visible(query)), selected)
}

// SelectedItems returns the cached items that are selected, in list order
func (s *ListScope) SelectedItems() []vault.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []vault.Item
	for _, item := range s.items {
		if s.selection.Contains(item.ID) {
			out = append(out, item)
		}
	}
	return out
}

// SelectByName selects the cached item called name and reports whether
// such an item exists
func (s *ListScope) SelectByName(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.Name == name {
			if !s.selection.Contains(item.ID) {
				s.selection.Toggle(item.ID)
			}
			return true
		}
	}
	return false
}

// RemoveItems drops ids from the cache and the selection
func (s *ListScope) RemoveItems(ids []string) {
	if len(ids) == 0 {
		return
	}
	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0:0]
	for _, item := range s.items {
		if _, ok := gone[item.ID]; !ok {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.selection.RemoveSucceeded(ids)
}

// Close discards the cache, the selection and any revealed value. No timer
// of the scope fires afterwards.
func (s *ListScope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items = nil
	s.selection.Clear()
	if s.revealer != nil {
		s.revealer.Close()
	}
}

func containsName(items []vault.Item, name string) bool {
	for _, item := range items {
		if item.Name == name {
			return true
		}
	}
	return false
}
