package search

import (
	"strings"

	"github.com/azvault/go/internal/vault"
)

// MatchPrefix returns the items whose name starts with prefix, ignoring case.
// An empty prefix matches nothing so an empty prefix-delete field can never
// select the whole vault.
func MatchPrefix(items []vault.Item, prefix string) []vault.Item {
	if prefix == "" {
		return nil
	}

	p := strings.ToLower(prefix)
	var matched []vault.Item
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item.Name), p) {
			matched = append(matched, item)
		}
	}
	return matched
}

// MatchSubstring is the ordinary list filter: an empty query keeps everything
func MatchSubstring(items []vault.Item, query string) []vault.Item {
	if query == "" {
		return items
	}

	q := strings.ToLower(query)
	var matched []vault.Item
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), q) {
			matched = append(matched, item)
		}
	}
	return matched
}
