package vault

import "github.com/rs/zerolog"

// Redacted is the rendering of a Sensitive value in every output channel
const Redacted = "[REDACTED]"

// Sensitive holds secret plaintext. Formatting, JSON and log rendering all
// produce Redacted; only Plaintext exposes the payload.
type Sensitive struct {
	plaintext string
}

// NewSensitive wraps a plaintext secret
func NewSensitive(plaintext string) Sensitive {
	return Sensitive{plaintext: plaintext}
}

// Plaintext returns the wrapped secret
func (s Sensitive) Plaintext() string {
	return s.plaintext
}

// IsZero reports whether no value is held
func (s Sensitive) IsZero() bool {
	return s.plaintext == ""
}

// Equal compares two sensitive values without exposing either
func (s Sensitive) Equal(other Sensitive) bool {
	return s.plaintext == other.plaintext
}

func (s Sensitive) String() string {
	return Redacted
}

func (s Sensitive) GoString() string {
	return Redacted
}

// MarshalJSON never emits the plaintext
func (s Sensitive) MarshalJSON() ([]byte, error) {
	return []byte(`"` + Redacted + `"`), nil
}

// MarshalZerologObject keeps the plaintext out of structured logs
func (s Sensitive) MarshalZerologObject(e *zerolog.Event) {
	e.Str("value", Redacted)
}
