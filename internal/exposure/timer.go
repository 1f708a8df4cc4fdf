// Package exposure controls how long a fetched secret value stays visible.
package exposure

import (
	"math"
	"sync"
	"time"

	"github.com/azvault/go/internal/clock"
)

// DefaultAutoHide is used when a timer is created with a non-positive duration
const DefaultAutoHide = 30 * time.Second

const tickInterval = time.Second

// State is a snapshot of the timer. SecondsRemaining is only meaningful
// while Revealed.
type State struct {
	Revealed         bool
	SecondsRemaining int
}

// Hidden is the initial state
var Hidden = State{}

// Timer is the reveal/auto-hide state machine for a single value. At most one
// tick and one deadline are scheduled at any time.
type Timer struct {
	mu       sync.Mutex
	sched    clock.Scheduler
	autoHide time.Duration
	onHide   func(gen uint64)

	state    State
	gen      uint64
	tick     clock.Handle
	deadline clock.Handle
	closed   bool
}

// NewTimer creates a hidden timer. onHide runs once each time the deadline
// expires; it is never called for an explicit Hide. It receives the
// generation the expiry produced, which Generation keeps returning until the
// timer is touched again.
func NewTimer(sched clock.Scheduler, autoHide time.Duration, onHide func(gen uint64)) *Timer {
	if autoHide <= 0 {
		autoHide = DefaultAutoHide
	}
	return &Timer{
		sched:    sched,
		autoHide: autoHide,
		onHide:   onHide,
	}
}

// AutoHide returns the configured countdown length
func (t *Timer) AutoHide() time.Duration {
	return t.autoHide
}

// State returns the current state
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Generation changes on every Reveal, Hide and expiry
func (t *Timer) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// Reveal enters Revealed and restarts the countdown from the full duration
func (t *Timer) Reveal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	t.stopLocked()
	gen := t.gen

	t.state = State{
		Revealed:         true,
		SecondsRemaining: int(math.Ceil(t.autoHide.Seconds())),
	}
	t.tick = t.sched.Every(tickInterval, func() { t.onTick(gen) })
	t.deadline = t.sched.AfterFunc(t.autoHide, func() { t.onDeadline(gen) })
}

// Hide returns to Hidden without calling onHide
func (t *Timer) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.state = Hidden
}

// Close hides the timer and makes later reveals no-ops
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.state = Hidden
	t.closed = true
}

// stopLocked cancels both handles and invalidates callbacks already in flight
func (t *Timer) stopLocked() {
	if t.tick != nil {
		t.tick.Cancel()
		t.tick = nil
	}
	if t.deadline != nil {
		t.deadline.Cancel()
		t.deadline = nil
	}
	t.gen++
}

func (t *Timer) onTick(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || !t.state.Revealed {
		return
	}
	if t.state.SecondsRemaining > 0 {
		t.state.SecondsRemaining--
	}
}

func (t *Timer) onDeadline(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.state.Revealed {
		t.mu.Unlock()
		return
	}
	t.stopLocked()
	t.state = Hidden
	onHide, expired := t.onHide, t.gen
	t.mu.Unlock()

	if onHide != nil {
		onHide(expired)
	}
}
