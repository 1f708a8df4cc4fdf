// Package export renders item metadata for download. Secret values are
// never part of an export.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/azvault/go/internal/vault"
)

// Format selects the rendering
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// MaxItems bounds the number of items in one export
const MaxItems = 20000

var (
	// ErrTooManyItems indicates the export exceeds MaxItems
	ErrTooManyItems = fmt.Errorf("export is limited to %d items", MaxItems)

	// ErrUnknownFormat indicates an unsupported Format
	ErrUnknownFormat = errors.New("unknown export format")
)

// ParseFormat converts a flag value into a Format
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Record is the exported view of one item
type Record struct {
	Name        string            `json:"name"`
	Enabled     bool              `json:"enabled"`
	Created     string            `json:"created,omitempty"`
	Updated     string            `json:"updated,omitempty"`
	Expires     string            `json:"expires,omitempty"`
	ContentType string            `json:"contentType,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

var csvHeader = []string{"name", "enabled", "created", "updated", "expires", "contentType", "tags"}

// NewRecord projects item onto the exported fields
func NewRecord(item vault.Item) Record {
	return Record{
		Name:        item.Name,
		Enabled:     item.Enabled,
		Created:     formatTime(item.Created),
		Updated:     formatTime(item.Updated),
		Expires:     formatTime(item.Expires),
		ContentType: item.ContentType,
		Tags:        item.Tags,
	}
}

// Render serializes the metadata of items in format
func Render(items []vault.Item, format Format) ([]byte, error) {
	if len(items) > MaxItems {
		return nil, ErrTooManyItems
	}

	records := make([]Record, len(items))
	for i, item := range items {
		records[i] = NewRecord(item)
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode export: %w", err)
		}
		return data, nil
	case FormatCSV:
		return renderCSV(records)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func renderCSV(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}

	for _, r := range records {
		tags := ""
		if len(r.Tags) > 0 {
			data, err := json.Marshal(r.Tags)
			if err != nil {
				return nil, fmt.Errorf("failed to encode tags of '%s': %w", r.Name, err)
			}
			tags = string(data)
		}
		row := []string{r.Name, strconv.FormatBool(r.Enabled), r.Created, r.Updated, r.Expires, r.ContentType, tags}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Destination says where an export ended up
type Destination string

const (
	DestinationDisk      Destination = "disk"
	DestinationClipboard Destination = "clipboard"
)

// ClipboardWriter is the fallback target of Deliver
type ClipboardWriter interface {
	WriteAll(text string) error
}

// DeliveryError carries both failures of a delivery
type DeliveryError struct {
	DiskErr      error
	ClipboardErr error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("export could not be delivered: disk: %v; clipboard: %v", e.DiskErr, e.ClipboardErr)
}

func (e *DeliveryError) Unwrap() []error {
	return []error{e.DiskErr, e.ClipboardErr}
}

// Deliver writes data to path, falling back to the clipboard. It only fails
// when both targets fail. An empty path skips the disk attempt.
func Deliver(data []byte, path string, clip ClipboardWriter) (Destination, error) {
	diskErr := errors.New("no output path")
	if path != "" {
		if diskErr = writeFile(path, data); diskErr == nil {
			return DestinationDisk, nil
		}
	}

	clipErr := errors.New("clipboard unavailable")
	if clip != nil {
		if clipErr = clip.WriteAll(string(data)); clipErr == nil {
			return DestinationClipboard, nil
		}
	}

	return "", &DeliveryError{DiskErr: diskErr, ClipboardErr: clipErr}
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
