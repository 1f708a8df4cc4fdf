package vault

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

const (
	// MaxNameLength is the longest item name the vault accepts
	MaxNameLength = 127

	// MaxValueLength is the largest secret value the vault accepts, in characters
	MaxValueLength = 25000
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// ValidName reports whether name only uses letters, digits and dashes
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// ValidateName checks an item name against the vault naming rules
func ValidateName(name string) error {
	if name == "" || len(name) > MaxNameLength {
		return fmt.Errorf("%w: must be between 1 and %d characters", ErrInvalidName, MaxNameLength)
	}
	if !ValidName(name) {
		return fmt.Errorf("%w: may only contain letters, numbers, and dashes", ErrInvalidName)
	}
	return nil
}

// ValidateValue checks a secret value against the vault size limits
func ValidateValue(value string) error {
	if n := utf8.RuneCountInString(value); n == 0 || n > MaxValueLength {
		return fmt.Errorf("%w: must be between 1 and %d characters", ErrInvalidValue, MaxValueLength)
	}
	return nil
}
