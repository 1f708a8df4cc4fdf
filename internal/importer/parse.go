// Package importer validates bulk import payloads before any item is created.
package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/azvault/go/internal/vault"
)

// EnvelopeField is the array field of the enveloped payload shape
const EnvelopeField = "secrets"

// MaxEntries bounds the number of entries in one payload
const MaxEntries = 20000

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Parse decodes raw into create requests. Shape errors stop immediately;
// otherwise every entry is checked and all issues are returned together.
func Parse(raw []byte) ([]vault.CreateRequest, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmpty
	}

	var top any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var entries []any
	switch v := top.(type) {
	case []any:
		entries = v
	case map[string]any:
		list, ok := v[EnvelopeField].([]any)
		if !ok {
			return nil, ErrShape
		}
		entries = list
	default:
		return nil, ErrShape
	}

	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	if len(entries) > MaxEntries {
		return nil, fmt.Errorf("import file has %d entries, the limit is %d", len(entries), MaxEntries)
	}

	var issues []Issue
	seen := make(map[string]int, len(entries))
	requests := make([]vault.CreateRequest, 0, len(entries))

	for i, entry := range entries {
		index := i + 1
		req, entryIssues := parseEntry(index, entry)
		issues = append(issues, entryIssues...)

		// vault names compare case-insensitively
		if key := strings.ToLower(req.Name); key != "" {
			if first, dup := seen[key]; dup {
				issues = append(issues, Issue{Index: index, Field: "name", Message: fmt.Sprintf("duplicates entry %d", first)})
			} else {
				seen[key] = index
			}
		}
		requests = append(requests, req)
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return requests, nil
}

func parseEntry(index int, raw any) (vault.CreateRequest, []Issue) {
	var req vault.CreateRequest
	var issues []Issue
	fail := func(field, message string) {
		issues = append(issues, Issue{Index: index, Field: field, Message: message})
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		fail("", "must be an object")
		return req, issues
	}

	switch name, ok := obj["name"].(string); {
	case !ok || name == "":
		fail("name", "is required")
	default:
		if err := vault.ValidateName(name); err != nil {
			fail("name", trimSentinel(err, vault.ErrInvalidName))
		} else {
			req.Name = name
		}
	}

	switch value, ok := obj["value"].(string); {
	case !ok || value == "":
		fail("value", "is required")
	case utf8.RuneCountInString(value) > vault.MaxValueLength:
		fail("value", fmt.Sprintf("must be at most %d characters", vault.MaxValueLength))
	default:
		req.Value = value
	}

	if v, present := field(obj, "contentType"); present {
		if s, ok := v.(string); ok {
			req.ContentType = &s
		} else {
			fail("contentType", "must be a string")
		}
	}

	if v, present := field(obj, "enabled"); present {
		if b, ok := v.(bool); ok {
			req.Enabled = &b
		} else {
			fail("enabled", "must be a boolean")
		}
	}

	for _, name := range []string{"expires", "notBefore"} {
		v, present := field(obj, name)
		if !present {
			continue
		}
		ts, err := normalizeDate(v)
		if err != nil {
			fail(name, err.Error())
			continue
		}
		if name == "expires" {
			req.Expires = &ts
		} else {
			req.NotBefore = &ts
		}
	}

	if v, present := field(obj, "tags"); present {
		tags, tagIssues := parseTags(v)
		for _, msg := range tagIssues {
			fail("tags", msg)
		}
		if len(tagIssues) == 0 {
			req.Tags = tags
		}
	}

	return req, issues
}

// field treats an explicit null the same as an absent key
func field(obj map[string]any, key string) (any, bool) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func parseTags(v any) (map[string]string, []string) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, []string{"must be an object of string values"}
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tags := make(map[string]string, len(obj))
	var issues []string
	for _, k := range keys {
		s, ok := obj[k].(string)
		if !ok {
			issues = append(issues, fmt.Sprintf("value for %q must be a string", k))
			continue
		}
		tags[k] = s
	}
	return tags, issues
}

func normalizeDate(v any) (string, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errors.New("must be a date string")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339), nil
		}
	}
	return "", fmt.Errorf("is not a valid date: %q", s)
}

func trimSentinel(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
