// Package clipboard copies secret values to the shared clipboard and
// overwrites them after a delay.
package clipboard

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/azvault/go/internal/clock"
)

const (
	// DefaultClearDelay is the default time to wait before clearing clipboard
	DefaultClearDelay = 30 * time.Second

	// FeedbackWindow is how long Copied reports true after a copy
	FeedbackWindow = 2 * time.Second

	// MaxClipboardSize is the maximum size of data we'll copy to clipboard (for safety)
	MaxClipboardSize = 1024 * 1024 // 1MB
)

// Writer is a clipboard backend
type Writer interface {
	WriteAll(text string) error
}

// Guard writes values to the clipboard and schedules a best-effort clear.
// Every copy re-arms a single clear timer.
type Guard struct {
	mu         sync.Mutex
	writer     Writer
	sched      clock.Scheduler
	clearDelay time.Duration
	disabled   bool
	log        zerolog.Logger

	clearGen uint64
	clear    clock.Handle
	feedback clock.Handle
	copied   bool
}

// Option configures a Guard
type Option func(*Guard)

// WithClearDelay sets the delay before the clipboard is overwritten
func WithClearDelay(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.clearDelay = d
		}
	}
}

// WithCopyDisabled turns every Copy into a no-op
func WithCopyDisabled(disabled bool) Option {
	return func(g *Guard) {
		g.disabled = disabled
	}
}

// WithLogger sets the logger used for swallowed clipboard failures
func WithLogger(log zerolog.Logger) Option {
	return func(g *Guard) {
		g.log = log
	}
}

// NewGuard creates a guard writing to w
func NewGuard(w Writer, sched clock.Scheduler, opts ...Option) *Guard {
	g := &Guard{
		writer:     w,
		sched:      sched,
		clearDelay: DefaultClearDelay,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ClearDelay returns the configured clear delay
func (g *Guard) ClearDelay() time.Duration {
	return g.clearDelay
}

// Enabled reports whether copying is allowed
func (g *Guard) Enabled() bool {
	return !g.disabled
}

// Copy writes value to the clipboard and re-arms the clear timer. It returns
// false when copying is disabled or the write failed.
func (g *Guard) Copy(value string) bool {
	if g.disabled || len(value) > MaxClipboardSize {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.writer.WriteAll(value); err != nil {
		g.log.Debug().Err(err).Msg("clipboard write failed")
		return false
	}

	if g.clear != nil {
		g.clear.Cancel()
	}
	g.clearGen++
	gen := g.clearGen
	g.clear = g.sched.AfterFunc(g.clearDelay, func() { g.clearIfCurrent(gen) })

	if g.feedback != nil {
		g.feedback.Cancel()
	}
	g.copied = true
	g.feedback = g.sched.AfterFunc(FeedbackWindow, g.resetFeedback)
	return true
}

// Copied reports whether a copy happened within the feedback window
func (g *Guard) Copied() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.copied
}

// ClearPending reports whether a clear is scheduled
func (g *Guard) ClearPending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clear != nil
}

// ClearNow runs a pending clear immediately. It does nothing when no clear
// is scheduled.
func (g *Guard) ClearNow() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clear == nil {
		return
	}
	g.clear.Cancel()
	g.clearLocked()
}

// Close cancels pending timers without touching the clipboard
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clear != nil {
		g.clear.Cancel()
		g.clear = nil
	}
	if g.feedback != nil {
		g.feedback.Cancel()
		g.feedback = nil
	}
	g.clearGen++
	g.copied = false
}

func (g *Guard) clearIfCurrent(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.clearGen || g.clear == nil {
		return
	}
	g.clearLocked()
}

func (g *Guard) clearLocked() {
	g.clear = nil
	g.clearGen++
	if err := g.writer.WriteAll(""); err != nil {
		g.log.Debug().Err(err).Msg("clipboard clear failed")
	}
}

func (g *Guard) resetFeedback() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.copied = false
	g.feedback = nil
}
