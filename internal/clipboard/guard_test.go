package clipboard

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/azvault/go/internal/clock"
)

type memoryWriter struct {
	mu       sync.Mutex
	content  string
	writes   []string
	err      error
	clearErr error
}

func (w *memoryWriter) WriteAll(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if text == "" && w.clearErr != nil {
		return w.clearErr
	}
	if w.err != nil {
		return w.err
	}
	w.content = text
	w.writes = append(w.writes, text)
	return nil
}

func (w *memoryWriter) Content() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.content
}

func TestGuard_CopyAndClear(t *testing.T) {
	w := &memoryWriter{}
	sched := clock.NewManual()
	g := NewGuard(w, sched, WithClearDelay(30*time.Second))

	assert.True(t, g.Copy("value"))
	assert.Equal(t, "value", w.Content())
	assert.True(t, g.Copied())
	assert.True(t, g.ClearPending())

	sched.Advance(29 * time.Second)
	assert.Equal(t, "value", w.Content())

	sched.Advance(time.Second)
	assert.Equal(t, "", w.Content())
	assert.False(t, g.ClearPending())
}

func TestGuard_FeedbackWindowIndependentOfClearDelay(t *testing.T) {
	w := &memoryWriter{}
	sched := clock.NewManual()
	g := NewGuard(w, sched, WithClearDelay(time.Minute))

	g.Copy("value")
	sched.Advance(FeedbackWindow - time.Millisecond)
	assert.True(t, g.Copied())
	sched.Advance(time.Millisecond)
	assert.False(t, g.Copied())
	assert.Equal(t, "value", w.Content())
}

func TestGuard_SecondCopyRearms(t *testing.T) {
	w := &memoryWriter{}
	sched := clock.NewManual()
	g := NewGuard(w, sched, WithClearDelay(30*time.Second))

	g.Copy("first")
	sched.Advance(20 * time.Second)
	g.Copy("second")

	sched.Advance(20 * time.Second)
	assert.Equal(t, "second", w.Content(), "first timer must not clear the second copy")

	sched.Advance(10 * time.Second)
	assert.Equal(t, "", w.Content())
	assert.Equal(t, []string{"first", "second", ""}, w.writes)
}

func TestGuard_Disabled(t *testing.T) {
	w := &memoryWriter{}
	sched := clock.NewManual()
	g := NewGuard(w, sched, WithCopyDisabled(true))

	assert.False(t, g.Enabled())
	assert.False(t, g.Copy("value"))
	assert.Empty(t, w.writes)
	assert.Equal(t, 0, sched.Pending())
}

func TestGuard_WriteFailure(t *testing.T) {
	w := &memoryWriter{err: errors.New("no display")}
	sched := clock.NewManual()
	g := NewGuard(w, sched)

	assert.False(t, g.Copy("value"))
	assert.False(t, g.Copied())
	assert.Equal(t, 0, sched.Pending())
}

func TestGuard_ClearFailureSwallowed(t *testing.T) {
	w := &memoryWriter{clearErr: errors.New("clipboard busy")}
	sched := clock.NewManual()
	g := NewGuard(w, sched, WithClearDelay(time.Second))

	assert.True(t, g.Copy("value"))
	assert.NotPanics(t, func() { sched.Advance(time.Second) })
	assert.False(t, g.ClearPending())
}

func TestGuard_TooLarge(t *testing.T) {
	w := &memoryWriter{}
	g := NewGuard(w, clock.NewManual())
	assert.False(t, g.Copy(strings.Repeat("x", MaxClipboardSize+1)))
}

func TestGuard_ClearNow(t *testing.T) {
	w := &memoryWriter{}
	sched := clock.NewManual()
	g := NewGuard(w, sched)

	g.ClearNow()
	assert.Empty(t, w.writes, "nothing pending, nothing cleared")

	g.Copy("value")
	g.ClearNow()
	assert.Equal(t, "", w.Content())
	assert.False(t, g.ClearPending())

	sched.Advance(time.Hour)
	assert.Equal(t, []string{"value", ""}, w.writes)
}

func TestGuard_Close(t *testing.T) {
	w := &memoryWriter{}
	sched := clock.NewManual()
	g := NewGuard(w, sched)

	g.Copy("value")
	g.Close()
	assert.Equal(t, 0, sched.Pending())
	assert.False(t, g.Copied())
	sched.Advance(time.Hour)
	assert.Equal(t, "value", w.Content())
}
