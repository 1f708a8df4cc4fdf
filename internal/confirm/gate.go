// Package confirm implements the confirmation gates that stand in front of
// destructive and sensitive actions.
package confirm

import (
	"errors"
	"strings"
	"sync"
)

// DeleteToken is the word a user types to confirm a bulk delete
const DeleteToken = "delete"

// PurgeToken is the word a user types to confirm a permanent purge
const PurgeToken = "purge"

var (
	// ErrRejected indicates the typed text or acknowledgment did not satisfy the gate
	ErrRejected = errors.New("confirmation rejected")

	// ErrDialogClosed indicates the gate was checked while its dialog was not open
	ErrDialogClosed = errors.New("confirmation dialog is not open")
)

// Typed validates typed confirmation text against an exact token
type Typed struct {
	Token           string
	CaseInsensitive bool
}

// IsValid reports whether the trimmed input equals the token exactly.
// Prefixes and near misses never pass.
func (t Typed) IsValid(input string) bool {
	if t.Token == "" {
		return false
	}
	input = strings.TrimSpace(input)
	if t.CaseInsensitive {
		return strings.EqualFold(input, t.Token)
	}
	return input == t.Token
}

// Acknowledgment is a boolean the user must set before a sensitive action
type Acknowledgment struct {
	mu        sync.Mutex
	confirmed bool
}

// Set records the user's choice
func (a *Acknowledgment) Set(confirmed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.confirmed = confirmed
}

// Confirmed reports the current choice
func (a *Acknowledgment) Confirmed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.confirmed
}

// Reset returns the acknowledgment to unconfirmed
func (a *Acknowledgment) Reset() {
	a.Set(false)
}

// Dialog holds the confirmation state of one dialog. Opening the dialog
// always resets it, so confirmation never survives a close.
type Dialog struct {
	mu         sync.Mutex
	typed      *Typed
	requireAck bool
	open       bool
	input      string
	ack        Acknowledgment
}

// Option configures a Dialog
type Option func(*Dialog)

// WithTypedToken requires the user to type token
func WithTypedToken(token string, caseInsensitive bool) Option {
	return func(d *Dialog) {
		d.typed = &Typed{Token: token, CaseInsensitive: caseInsensitive}
	}
}

// WithAcknowledgment requires the acknowledgment toggle to be set
func WithAcknowledgment() Option {
	return func(d *Dialog) {
		d.requireAck = true
	}
}

// NewDialog creates a closed dialog
func NewDialog(opts ...Option) *Dialog {
	d := &Dialog{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open transitions closed→open and resets all confirmation state
func (d *Dialog) Open() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return
	}
	d.open = true
	d.input = ""
	d.ack.Reset()
}

// Close hides the dialog
func (d *Dialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
}

// IsOpen reports whether the dialog is showing
func (d *Dialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// SetInput records the typed confirmation text
func (d *Dialog) SetInput(input string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.input = input
}

// Acknowledge sets the acknowledgment toggle
func (d *Dialog) Acknowledge(confirmed bool) {
	d.ack.Set(confirmed)
}

// Satisfied reports whether the action may proceed
func (d *Dialog) Satisfied() bool {
	return d.Check() == nil
}

// Check returns nil when every configured gate passes
func (d *Dialog) Check() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return ErrDialogClosed
	}
	if d.typed != nil && !d.typed.IsValid(d.input) {
		return ErrRejected
	}
	if d.requireAck && !d.ack.Confirmed() {
		return ErrRejected
	}
	return nil
}
