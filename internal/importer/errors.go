package importer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmpty indicates the payload holds no entries
	ErrEmpty = errors.New("import file is empty")

	// ErrShape indicates the payload is neither an array nor a secrets envelope
	ErrShape = errors.New(`import file must be an array or an object with a "secrets" array`)

	// ErrMalformed indicates the payload is not JSON
	ErrMalformed = errors.New("import file is not valid JSON")
)

// Issue is one problem found in one entry
type Issue struct {
	Index   int // 1-based
	Field   string
	Message string
}

func (i Issue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("entry %d: %s", i.Index, i.Message)
	}
	return fmt.Sprintf("entry %d: %s %s", i.Index, i.Field, i.Message)
}

// ValidationError lists every problem found in an import payload. Nothing
// is imported when it is returned.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		lines[i] = issue.String()
	}
	return fmt.Sprintf("import validation failed: %s", strings.Join(lines, "; "))
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
