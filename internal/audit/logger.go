package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	// MaxEntries is the number of newest entries kept
	MaxEntries = 1000

	// MaxFieldLength bounds every string field of an entry
	MaxFieldLength = 512

	// DefaultReadLimit is used when Entries is called with a non-positive limit
	DefaultReadLimit = 100

	// FileName is the log file created inside the audit directory
	FileName = "audit.json"
)

var sensitiveKeywords = []string{"secret", "token", "password", "access_key"}

var valueBearingActions = []string{"get_value", "secret_value", "set_secret", "token"}

// Logger is a bounded, append-only audit log. When it has a path every
// append is written through to disk.
type Logger struct {
	mu      sync.Mutex
	path    string
	entries []Entry
	log     zerolog.Logger
}

// NewMemoryLogger creates a logger that is never persisted
func NewMemoryLogger() *Logger {
	return &Logger{log: zerolog.Nop()}
}

// Open loads the log stored in dir, creating the directory if needed
func Open(dir string, log zerolog.Logger) (*Logger, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	l := &Logger{
		path: filepath.Join(dir, FileName),
		log:  log,
	}

	data, err := os.ReadFile(l.path)
	switch {
	case os.IsNotExist(err):
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, fmt.Errorf("failed to parse audit log: %w", err)
	}
	l.trimLocked()
	return l, nil
}

// Path returns the backing file, or "" for a memory logger
func (l *Logger) Path() string {
	return l.path
}

// Append sanitizes e and adds it to the log
func (l *Logger) Append(e Entry) {
	e = sanitizeEntry(e)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	l.trimLocked()

	if err := l.persistLocked(); err != nil {
		l.log.Warn().Err(err).Str("action", e.Action).Msg("failed to persist audit entry")
	}
}

// Entries returns up to limit of the newest entries, oldest first
func (l *Logger) Entries(limit int) []Entry {
	if limit <= 0 {
		limit = DefaultReadLimit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	start := len(l.entries) - limit
	if start < 0 {
		start = 0
	}
	out := make([]Entry, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out
}

// Len returns the number of stored entries
func (l *Logger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// SanitizedExport renders every entry as indented JSON with the details of
// value-bearing actions replaced by Redacted
func (l *Logger) SanitizedExport() ([]byte, error) {
	l.mu.Lock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	l.mu.Unlock()

	for i := range out {
		if isValueBearing(out[i].Action) {
			redacted := Redacted
			out[i].Details = &redacted
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit export: %w", err)
	}
	return data, nil
}

// Clear drops every entry and truncates the backing file
func (l *Logger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	return l.persistLocked()
}

func (l *Logger) trimLocked() {
	if over := len(l.entries) - MaxEntries; over > 0 {
		l.entries = append([]Entry(nil), l.entries[over:]...)
	}
}

func (l *Logger) persistLocked() error {
	if l.path == "" {
		return nil
	}

	entries := l.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode audit log: %w", err)
	}

	// CreateTemp opens with mode 0600
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".audit-*.json")
	if err != nil {
		return fmt.Errorf("failed to create audit temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("failed to replace audit log: %w", err)
	}
	return nil
}

func sanitizeEntry(e Entry) Entry {
	e.VaultName = truncate(e.VaultName)
	e.Action = truncate(e.Action)
	e.ItemType = truncate(e.ItemType)
	e.ItemName = truncate(e.ItemName)
	e.Result = truncate(e.Result)
	if e.Details != nil {
		details := SanitizeDetails(*e.Details)
		e.Details = &details
	}
	return e
}

// SanitizeDetails redacts details mentioning credential keywords and
// truncates the rest. The fixed redacted details pass through unchanged.
func SanitizeDetails(details string) string {
	if details == DetailValueRedacted || details == DetailValueSet {
		return details
	}
	lower := strings.ToLower(details)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return Redacted
		}
	}
	return truncate(details)
}

func isValueBearing(action string) bool {
	for _, a := range valueBearingActions {
		if strings.Contains(action, a) {
			return true
		}
	}
	return false
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxFieldLength {
		return s
	}
	return string(r[:MaxFieldLength])
}
