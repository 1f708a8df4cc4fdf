package bulk

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/azvault/go/internal/audit"
	"github.com/azvault/go/internal/confirm"
	"github.com/azvault/go/internal/search"
	"github.com/azvault/go/internal/vault"
)

// Target is the view a bulk operation reconciles when it finishes
type Target interface {
	// RemoveItems drops ids from the selection and the item cache
	RemoveItems(ids []string)
	// Refresh reloads the authoritative item list
	Refresh(ctx context.Context) error
}

// flow is the run/reconcile sequence shared by the dialogs
type flow struct {
	mu       sync.Mutex
	gate     *confirm.Dialog
	orch     *Orchestrator
	client   vault.Client
	vaultRef string
	target   Target
	sink     audit.Sink
	log      zerolog.Logger
	summary  string
}

func newFlow(gate *confirm.Dialog, orch *Orchestrator, client vault.Client, vaultRef string, target Target, sink audit.Sink, log zerolog.Logger) *flow {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &flow{
		gate:     gate,
		orch:     orch,
		client:   client,
		vaultRef: vaultRef,
		target:   target,
		sink:     sink,
		log:      log,
	}
}

// IsOpen reports whether the dialog is showing
func (f *flow) IsOpen() bool {
	return f.gate.IsOpen()
}

// Close hides the dialog. An operation in flight still completes and
// reconciles the view.
func (f *flow) Close() {
	f.gate.Close()
}

// Summary returns the failure summary of the last run
func (f *flow) Summary() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary
}

// Progress returns the counters of the running or last operation
func (f *flow) Progress() Progress {
	return f.orch.Progress()
}

func (f *flow) open() {
	f.mu.Lock()
	f.summary = ""
	f.mu.Unlock()
	f.gate.Open()
}

func (f *flow) run(ctx context.Context, items []vault.Item, op Op) (Result, error) {
	if err := f.gate.Check(); err != nil {
		return Result{}, err
	}

	result, err := f.orch.Run(ctx, items, op)
	if err != nil {
		return Result{}, err
	}

	f.target.RemoveItems(result.SucceededIDs)

	f.mu.Lock()
	f.summary = result.Summary()
	f.mu.Unlock()
	if !result.PartiallyFailed() {
		f.gate.Close()
	}

	if err := f.target.Refresh(context.WithoutCancel(ctx)); err != nil {
		f.log.Warn().Err(err).Msg("refresh after bulk operation failed")
	}
	return result, nil
}

// DeleteDialog confirms and runs a bulk delete of a fixed set of items
type DeleteDialog struct {
	*flow
	items []vault.Item
}

// NewDeleteDialog creates a closed delete dialog. The user must type
// confirm.DeleteToken exactly.
func NewDeleteDialog(orch *Orchestrator, client vault.Client, vaultRef string, target Target, sink audit.Sink, log zerolog.Logger) *DeleteDialog {
	gate := confirm.NewDialog(confirm.WithTypedToken(confirm.DeleteToken, false))
	return &DeleteDialog{flow: newFlow(gate, orch, client, vaultRef, target, sink, log)}
}

// Open shows the dialog for items and resets the confirmation
func (d *DeleteDialog) Open(items []vault.Item) {
	d.mu.Lock()
	d.items = append([]vault.Item(nil), items...)
	d.mu.Unlock()
	d.open()
}

// OpenPrefix lists the vault and opens the dialog for every secret whose
// name starts with prefix. Listing failures are returned as a
// *vault.TransportError and nothing is opened.
func (d *DeleteDialog) OpenPrefix(ctx context.Context, prefix string) ([]vault.Item, error) {
	items, err := d.client.ListItems(ctx, d.vaultRef, vault.KindSecret)
	if err != nil {
		return nil, vault.NewTransportError("list secrets", err)
	}

	matched := search.MatchPrefix(items, prefix)
	if len(matched) == 0 {
		return nil, ErrNoItems
	}
	d.Open(matched)
	return matched, nil
}

// Items returns the items the dialog will delete
func (d *DeleteDialog) Items() []vault.Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]vault.Item(nil), d.items...)
}

// SetConfirmation records the typed confirmation text
func (d *DeleteDialog) SetConfirmation(input string) {
	d.gate.SetInput(input)
}

// Run deletes every item once the typed confirmation matches
func (d *DeleteDialog) Run(ctx context.Context) (Result, error) {
	return d.run(ctx, d.Items(), d.deleteOne)
}

func (d *DeleteDialog) deleteOne(ctx context.Context, item vault.Item) error {
	err := d.client.DeleteItem(ctx, d.vaultRef, item.Name)
	d.sink.Append(audit.NewEntry(d.vaultRef, audit.ActionDeleteSecret, string(item.Kind), item.Name, err))
	if err != nil {
		return fmt.Errorf("failed to delete '%s': %w", item.Name, err)
	}
	return nil
}
