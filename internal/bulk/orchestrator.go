// Package bulk fans one mutation out over many vault items and reconciles
// the owning view afterwards.
package bulk

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/azvault/go/internal/vault"
)

// Progress counts the items of one running operation
type Progress struct {
	Total     int
	Completed int
	Failed    int
}

// NextProgress records one finished item. failed is the running failure
// count observed so far.
func NextProgress(p Progress, failed int) Progress {
	p.Completed++
	p.Failed = failed
	return p
}

// Done reports whether every item has finished
func (p Progress) Done() bool {
	return p.Completed >= p.Total
}

// Result is the outcome of one bulk operation
type Result struct {
	SucceededIDs []string
	FailedCount  int
	Total        int
}

// PartiallyFailed reports whether at least one item failed
func (r Result) PartiallyFailed() bool {
	return r.FailedCount > 0
}

// Summary is the message shown when items failed
func (r Result) Summary() string {
	if r.FailedCount == 0 {
		return ""
	}
	return fmt.Sprintf("%d items failed, check permissions", r.FailedCount)
}

// Op mutates a single item
type Op func(ctx context.Context, item vault.Item) error

// Orchestrator runs bulk operations for one view. Only one operation may
// run at a time.
type Orchestrator struct {
	limit    int
	observer func(Progress)
	log      zerolog.Logger

	busy     atomic.Bool
	notifyMu sync.Mutex
	mu       sync.Mutex
	progress Progress
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithConcurrency caps the number of in-flight items. Zero means unlimited.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.limit = n
	}
}

// WithObserver receives every progress update in order
func WithObserver(f func(Progress)) Option {
	return func(o *Orchestrator) {
		o.observer = f
	}
}

// WithLogger sets the logger for per-item failures
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// NewOrchestrator creates an idle orchestrator
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Busy reports whether an operation is running
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Progress returns the counters of the current or last operation
func (o *Orchestrator) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Run applies op to every item concurrently. A failing item never stops its
// siblings; failures are only counted. Items already dispatched keep running
// when ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context, items []vault.Item, op Op) (Result, error) {
	if len(items) == 0 {
		rejectedTotal.WithLabelValues("empty").Inc()
		return Result{}, ErrNoItems
	}
	if !o.busy.CompareAndSwap(false, true) {
		rejectedTotal.WithLabelValues("busy").Inc()
		return Result{}, ErrBusy
	}
	defer o.busy.Store(false)

	o.publish(func(Progress) Progress { return Progress{Total: len(items)} })

	opCtx := context.WithoutCancel(ctx)
	outcomes := make([]error, len(items))
	failed := 0

	var g errgroup.Group
	if o.limit > 0 {
		g.SetLimit(o.limit)
	}
	for i, item := range items {
		g.Go(func() error {
			err := op(opCtx, item)
			outcomes[i] = err

			if err != nil {
				itemsTotal.WithLabelValues("error").Inc()
				o.log.Debug().Err(err).Str("name", item.Name).Msg("bulk item failed")
			} else {
				itemsTotal.WithLabelValues("success").Inc()
			}

			o.publish(func(p Progress) Progress {
				if err != nil {
					failed++
				}
				return NextProgress(p, failed)
			})
			return nil
		})
	}
	_ = g.Wait()

	result := Result{Total: len(items)}
	for i, err := range outcomes {
		if err != nil {
			result.FailedCount++
			continue
		}
		result.SucceededIDs = append(result.SucceededIDs, items[i].ID)
	}

	if result.PartiallyFailed() {
		runsTotal.WithLabelValues("partial").Inc()
	} else {
		runsTotal.WithLabelValues("complete").Inc()
	}
	return result, nil
}

// publish applies update under the lock and notifies the observer with the
// new snapshot. Notifications are delivered in update order.
func (o *Orchestrator) publish(update func(Progress) Progress) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	o.progress = update(o.progress)
	snapshot := o.progress
	o.mu.Unlock()

	if o.observer != nil {
		o.observer(snapshot)
	}
}
