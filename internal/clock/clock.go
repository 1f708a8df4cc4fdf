// Package clock provides cancellable scheduled tasks. Components that hide
// values or clear the clipboard on a deadline take a Scheduler so their
// timing can be driven by virtual time in tests.
package clock

import (
	"sync"
	"time"
)

// Handle cancels a scheduled task. Cancel is idempotent.
type Handle interface {
	Cancel()
}

// Scheduler schedules one-shot and repeating tasks
type Scheduler interface {
	// AfterFunc runs f once after d
	AfterFunc(d time.Duration, f func()) Handle
	// Every runs f every d until cancelled
	Every(d time.Duration, f func()) Handle
}

// Real returns a Scheduler backed by the runtime timers
func Real() Scheduler {
	return realScheduler{}
}

type realScheduler struct{}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Cancel() {
	h.t.Stop()
}

func (realScheduler) AfterFunc(d time.Duration, f func()) Handle {
	return timerHandle{t: time.AfterFunc(d, f)}
}

type tickerHandle struct {
	once sync.Once
	stop chan struct{}
}

func (h *tickerHandle) Cancel() {
	h.once.Do(func() { close(h.stop) })
}

func (realScheduler) Every(d time.Duration, f func()) Handle {
	h := &tickerHandle{stop: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				f()
			}
		}
	}()
	return h
}
