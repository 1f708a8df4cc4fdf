package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// System is the OS clipboard
type System struct{}

// WriteAll replaces the clipboard content
func (System) WriteAll(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// ReadAll returns the clipboard content
func (System) ReadAll() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}

// IsSupported returns true if clipboard operations are supported on this platform
func IsSupported() bool {
	return !clipboard.Unsupported
}
