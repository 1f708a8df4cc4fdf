package exposure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/azvault/go/internal/clock"
)

func newTestTimer(autoHide time.Duration) (*Timer, *clock.Manual, *int) {
	sched := clock.NewManual()
	hides := 0
	timer := NewTimer(sched, autoHide, func(uint64) { hides++ })
	return timer, sched, &hides
}

func TestTimer_StartsHidden(t *testing.T) {
	timer, sched, _ := newTestTimer(30 * time.Second)
	assert.Equal(t, Hidden, timer.State())
	assert.Equal(t, 0, sched.Pending())
}

func TestTimer_AutoHide(t *testing.T) {
	timer, sched, hides := newTestTimer(30 * time.Second)

	timer.Reveal()
	assert.Equal(t, State{Revealed: true, SecondsRemaining: 30}, timer.State())
	assert.Equal(t, 2, sched.Pending(), "one tick and one deadline")

	sched.Advance(29 * time.Second)
	assert.Equal(t, State{Revealed: true, SecondsRemaining: 1}, timer.State())
	assert.Equal(t, 0, *hides)

	sched.Advance(time.Second)
	assert.Equal(t, Hidden, timer.State())
	assert.Equal(t, 1, *hides)
	assert.Equal(t, 0, sched.Pending())

	sched.Advance(time.Minute)
	assert.Equal(t, 1, *hides, "deadline fires exactly once")
}

func TestTimer_ExplicitHideSkipsCallback(t *testing.T) {
	timer, sched, hides := newTestTimer(30 * time.Second)

	timer.Reveal()
	sched.Advance(10 * time.Second)
	assert.Equal(t, 20, timer.State().SecondsRemaining)

	timer.Hide()
	assert.Equal(t, Hidden, timer.State())
	assert.Equal(t, 0, sched.Pending())

	sched.Advance(time.Minute)
	assert.Equal(t, 0, *hides)
	assert.Equal(t, Hidden, timer.State())
}

func TestTimer_ExpiryReportsGeneration(t *testing.T) {
	sched := clock.NewManual()
	var expired []uint64
	var timer *Timer
	timer = NewTimer(sched, 5*time.Second, func(gen uint64) {
		expired = append(expired, gen)
		assert.Equal(t, timer.Generation(), gen)
	})

	timer.Reveal()
	revealed := timer.Generation()
	sched.Advance(5 * time.Second)
	assert.Len(t, expired, 1)
	assert.NotEqual(t, revealed, expired[0])

	timer.Hide()
	assert.NotEqual(t, expired[0], timer.Generation(), "later changes invalidate the expiry")
}

func TestTimer_RevealRestartsCountdown(t *testing.T) {
	timer, sched, hides := newTestTimer(30 * time.Second)

	timer.Reveal()
	sched.Advance(20 * time.Second)
	timer.Reveal()
	assert.Equal(t, 30, timer.State().SecondsRemaining)
	assert.Equal(t, 2, sched.Pending(), "previous timers are cancelled, not stacked")

	sched.Advance(20 * time.Second)
	assert.True(t, timer.State().Revealed)
	assert.Equal(t, 10, timer.State().SecondsRemaining)
	assert.Equal(t, 0, *hides)

	sched.Advance(10 * time.Second)
	assert.Equal(t, Hidden, timer.State())
	assert.Equal(t, 1, *hides)
}

func TestTimer_CountdownFloorsAtZero(t *testing.T) {
	sched := clock.NewManual()
	timer := NewTimer(sched, 1500*time.Millisecond, nil)

	timer.Reveal()
	assert.Equal(t, 2, timer.State().SecondsRemaining)
	sched.Advance(time.Second)
	assert.Equal(t, 1, timer.State().SecondsRemaining)
	sched.Advance(400 * time.Millisecond)
	assert.True(t, timer.State().Revealed)
	sched.Advance(100 * time.Millisecond)
	assert.Equal(t, Hidden, timer.State())
}

func TestTimer_CloseCancelsEverything(t *testing.T) {
	timer, sched, hides := newTestTimer(30 * time.Second)

	timer.Reveal()
	timer.Close()
	assert.Equal(t, 0, sched.Pending())

	timer.Reveal()
	assert.Equal(t, Hidden, timer.State(), "reveal after close is a no-op")
	sched.Advance(time.Minute)
	assert.Equal(t, 0, *hides)
}

func TestTimer_DefaultDuration(t *testing.T) {
	timer := NewTimer(clock.NewManual(), 0, nil)
	assert.Equal(t, DefaultAutoHide, timer.AutoHide())
}

func TestTimer_StaleCallbackIgnored(t *testing.T) {
	sched := clock.NewManual()
	timer := NewTimer(sched, 5*time.Second, nil)
	timer.Reveal()

	// a deadline from an earlier generation must not hide the current reveal
	stale := timer.gen - 1
	timer.onDeadline(stale)
	assert.True(t, timer.State().Revealed)
	timer.onTick(stale)
	assert.Equal(t, 5, timer.State().SecondsRemaining)
}
