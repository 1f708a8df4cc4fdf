package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by Advance. Due tasks run synchronously on
// the goroutine calling Advance, in deadline order.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	m         *Manual
	seq       int
	due       time.Duration
	period    time.Duration
	fn        func()
	cancelled bool
}

func (t *manualTask) Cancel() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	t.cancelled = true
}

// NewManual creates a manual scheduler at virtual time zero
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc schedules f to run once d after the current virtual time
func (m *Manual) AfterFunc(d time.Duration, f func()) Handle {
	return m.schedule(d, 0, f)
}

// Every schedules f to run every d
func (m *Manual) Every(d time.Duration, f func()) Handle {
	return m.schedule(d, d, f)
}

func (m *Manual) schedule(d, period time.Duration, f func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{m: m, seq: m.seq, due: m.now + d, period: period, fn: f}
	m.tasks = append(m.tasks, t)
	return t
}

// Now returns the elapsed virtual time
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of live scheduled tasks
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Advance moves virtual time forward by d, running every task that falls due
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		if next.period > 0 {
			next.due += next.period
		} else {
			next.cancelled = true
		}
		m.mu.Unlock()

		next.fn()
	}
}

// nextDue returns the earliest live task due at or before target and drops
// cancelled tasks. Caller holds m.mu.
func (m *Manual) nextDue(target time.Duration) *manualTask {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	m.tasks = live

	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due != m.tasks[j].due {
			return m.tasks[i].due < m.tasks[j].due
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})
	if len(m.tasks) == 0 || m.tasks[0].due > target {
		return nil
	}
	return m.tasks[0]
}
