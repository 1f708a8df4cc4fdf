package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/azvault/go/internal/audit"
	"github.com/azvault/go/internal/bulk"
	"github.com/azvault/go/internal/clipboard"
	"github.com/azvault/go/internal/clock"
	"github.com/azvault/go/internal/confirm"
	"github.com/azvault/go/internal/database"
	"github.com/azvault/go/internal/exposure"
	"github.com/azvault/go/internal/vault"
	"github.com/azvault/go/internal/view"
)

// workspace is everything a command needs to work on one vault
type workspace struct {
	db     *database.VaultDatabase
	client vault.Client
	audit  *audit.Logger
	guard  *clipboard.Guard
	reauth *confirm.Acknowledgment
	sched  clock.Scheduler
}

// openWorkspace authenticates and wires the vault collaborators
func openWorkspace() (*workspace, error) {
	db, err := connect()
	if err != nil {
		return nil, err
	}

	auditLog, err := audit.Open(cfg.AuditDir, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	sched := clock.Real()
	w := &workspace{
		db:     db,
		client: vault.NewRetrying(db, vault.DefaultMaxRetries, logger),
		audit:  auditLog,
		sched:  sched,
		guard: clipboard.NewGuard(clipboard.System{}, sched,
			clipboard.WithClearDelay(cfg.ClipboardClear()),
			clipboard.WithCopyDisabled(cfg.DisableClipboardCopy || !clipboard.IsSupported()),
			clipboard.WithLogger(logger)),
	}
	if cfg.RequireReauthForReveal {
		w.reauth = &confirm.Acknowledgment{}
	}
	return w, nil
}

// Close releases timers and the database. A pending clipboard clear runs first.
func (w *workspace) Close() {
	w.guard.ClearNow()
	w.guard.Close()
	if err := w.db.Close(); err != nil {
		printVerbose("Failed to close vault: %v", err)
	}
}

// newRevealer creates a revealer honouring the configured auto-hide and re-auth
func (w *workspace) newRevealer() *exposure.Revealer {
	opts := []exposure.RevealerOption{exposure.WithLogger(logger)}
	if w.reauth != nil {
		opts = append(opts, exposure.WithReauth(w.reauth))
	}
	return exposure.NewRevealer(w.client, cfg.VaultName, w.audit, w.sched, cfg.AutoHide(), opts...)
}

// newScope loads the list of kind items into a fresh scope
func (w *workspace) newScope(ctx context.Context, kind vault.Kind) (*view.ListScope, error) {
	scope := view.NewListScope(w.client, cfg.VaultName, kind, w.newRevealer(), logger)
	if err := scope.Refresh(ctx); err != nil {
		scope.Close()
		return nil, err
	}
	w.audit.Append(audit.NewEntry(cfg.VaultName, audit.ActionListItems, string(kind), "", nil))
	return scope, nil
}

// newOrchestrator returns a bulk orchestrator that reports progress on s
func (w *workspace) newOrchestrator(s *spinner.Spinner, verb string) *bulk.Orchestrator {
	return bulk.NewOrchestrator(
		bulk.WithConcurrency(cfg.BulkConcurrency),
		bulk.WithLogger(logger),
		bulk.WithObserver(func(p bulk.Progress) {
			s.Lock()
			s.Suffix = fmt.Sprintf(" %s %d/%d...", verb, p.Completed, p.Total)
			s.Unlock()
		}),
	)
}

// fail reports err like handleError. Deferred cleanup does not run after the
// exit, so a copied value is cleared first.
func (w *workspace) fail(err error, message string) {
	w.guard.ClearNow()
	handleError(err, message)
}

// holdClipboard waits until the pending clear fires or the user interrupts,
// then makes sure the clipboard is cleared
func (w *workspace) holdClipboard() {
	if !w.guard.ClearPending() {
		return
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	s := newSpinner(fmt.Sprintf(" Clipboard clears in %s, press Ctrl+C to clear now", w.guard.ClearDelay()))
	s.Start()

	deadline := time.NewTimer(w.guard.ClearDelay())
	defer deadline.Stop()
	select {
	case <-deadline.C:
	case <-interrupt:
	}

	w.guard.ClearNow()
	s.FinalMSG = color.GreenString("✓") + " Clipboard cleared\n"
	s.Stop()
}

func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = suffix
	s.Writer = os.Stderr
	return s
}
