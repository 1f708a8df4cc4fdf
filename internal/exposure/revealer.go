package exposure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/azvault/go/internal/audit"
	"github.com/azvault/go/internal/clock"
	"github.com/azvault/go/internal/confirm"
	"github.com/azvault/go/internal/vault"
)

var (
	// ErrNothingFetched indicates Reveal was called before a successful Fetch
	ErrNothingFetched = errors.New("no value has been fetched")

	// ErrClosed indicates the owning scope was torn down
	ErrClosed = errors.New("revealer is closed")
)

// RevealedValue pairs a fetched value with the item name it belongs to.
// It only ever lives in memory.
type RevealedValue struct {
	Name  string
	value vault.Sensitive
}

// Revealer owns the RevealedValue of one view scope and its exposure timer
type Revealer struct {
	mu       sync.Mutex
	client   vault.Client
	vaultRef string
	sink     audit.Sink
	timer    *Timer
	reauth   *confirm.Acknowledgment
	log      zerolog.Logger

	value  *RevealedValue
	closed bool
}

// RevealerOption configures a Revealer
type RevealerOption func(*Revealer)

// WithReauth requires ack to be confirmed at the moment of each reveal
func WithReauth(ack *confirm.Acknowledgment) RevealerOption {
	return func(r *Revealer) {
		r.reauth = ack
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(log zerolog.Logger) RevealerOption {
	return func(r *Revealer) {
		r.log = log
	}
}

// NewRevealer creates a revealer for vaultRef. Every fetch is recorded in sink.
func NewRevealer(client vault.Client, vaultRef string, sink audit.Sink, sched clock.Scheduler, autoHide time.Duration, opts ...RevealerOption) *Revealer {
	if sink == nil {
		sink = audit.Discard{}
	}
	r := &Revealer{
		client:   client,
		vaultRef: vaultRef,
		sink:     sink,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.timer = NewTimer(sched, autoHide, r.expire)
	return r
}

// Fetch loads the current value of name and holds it hidden. A previously
// held value is discarded.
func (r *Revealer) Fetch(ctx context.Context, name string) error {
	if err := vault.ValidateName(name); err != nil {
		return err
	}

	secret, err := r.client.GetValue(ctx, r.vaultRef, name)

	// the detail is a constant so the fetched value cannot reach the log
	r.sink.Append(audit.NewEntry(r.vaultRef, audit.ActionGetSecretValue, string(vault.KindSecret), name, err).
		WithDetails(audit.DetailValueRedacted))

	if err != nil {
		fetchesTotal.WithLabelValues(audit.ResultError).Inc()
		return fmt.Errorf("failed to fetch value of '%s': %w", name, err)
	}
	fetchesTotal.WithLabelValues(audit.ResultSuccess).Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.timer.Hide()
	r.value = &RevealedValue{Name: name, value: secret.Value}
	r.log.Debug().Str("name", name).Msg("secret value fetched")
	return nil
}

// Reveal makes the held value visible and starts the auto-hide countdown.
// With re-auth enabled the acknowledgment is consumed by each call.
func (r *Revealer) Reveal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.value == nil {
		return ErrNothingFetched
	}
	if r.reauth != nil {
		confirmed := r.reauth.Confirmed()
		r.reauth.Reset()
		if !confirmed {
			return confirm.ErrRejected
		}
	}
	r.timer.Reveal()
	revealsTotal.Inc()
	return nil
}

// Hide stops showing the value but keeps it held
func (r *Revealer) Hide() {
	r.timer.Hide()
}

// Clear hides and discards the held value
func (r *Revealer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer.Hide()
	r.value = nil
}

// Close tears down the timer and discards the value. No callback runs afterwards.
func (r *Revealer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer.Close()
	r.value = nil
	r.closed = true
}

// State returns the exposure state
func (r *Revealer) State() State {
	return r.timer.State()
}

// Held returns the name of the held value, if any
func (r *Revealer) Held() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.value == nil {
		return "", false
	}
	return r.value.Name, true
}

// Value returns the held value for copying. It is available while hidden.
func (r *Revealer) Value() (vault.Sensitive, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.value == nil {
		return vault.Sensitive{}, false
	}
	return r.value.value, true
}

// Plaintext returns the value only while it is revealed
func (r *Revealer) Plaintext() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.value == nil || !r.timer.State().Revealed {
		return "", false
	}
	return r.value.value.Plaintext(), true
}

// expire runs when the deadline fires. The timer lock is released before the
// callback, so a Fetch, Reveal or Hide may already have moved the timer on.
func (r *Revealer) expire(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer.Generation() != gen {
		return
	}
	r.value = nil
	autoHidesTotal.Inc()
	r.log.Debug().Msg("revealed value auto-hidden")
}
