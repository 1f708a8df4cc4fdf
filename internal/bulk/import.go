package bulk

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/azvault/go/internal/audit"
	"github.com/azvault/go/internal/confirm"
	"github.com/azvault/go/internal/importer"
	"github.com/azvault/go/internal/vault"
)

// ImportDialog validates an import payload and creates every entry
type ImportDialog struct {
	*flow
	requests map[string]vault.CreateRequest
	items    []vault.Item
}

// NewImportDialog creates a closed import dialog
func NewImportDialog(orch *Orchestrator, client vault.Client, vaultRef string, target Target, sink audit.Sink, log zerolog.Logger) *ImportDialog {
	return &ImportDialog{flow: newFlow(confirm.NewDialog(), orch, client, vaultRef, target, sink, log)}
}

// Open shows the dialog and forgets any previously loaded payload
func (d *ImportDialog) Open() {
	d.mu.Lock()
	d.requests = nil
	d.items = nil
	d.mu.Unlock()
	d.open()
}

// Load validates raw. On failure nothing is kept and the error is usually
// an *importer.ValidationError.
func (d *ImportDialog) Load(raw []byte) ([]vault.CreateRequest, error) {
	reqs, err := importer.Parse(raw)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = nil
	d.items = nil
	if err != nil {
		return nil, err
	}

	d.requests = make(map[string]vault.CreateRequest, len(reqs))
	d.items = make([]vault.Item, len(reqs))
	for i, req := range reqs {
		d.requests[req.Name] = req
		d.items[i] = vault.Item{ID: req.Name, Kind: vault.KindSecret, Name: req.Name}
	}
	return reqs, nil
}

// Run creates every loaded entry
func (d *ImportDialog) Run(ctx context.Context) (Result, error) {
	d.mu.Lock()
	items, requests := d.items, d.requests
	d.mu.Unlock()
	if len(items) == 0 {
		return Result{}, ErrNothingLoaded
	}
	return d.run(ctx, items, d.createFrom(requests))
}

// createFrom binds the op to one loaded payload so a reopen during the run
// cannot change what is created
func (d *ImportDialog) createFrom(requests map[string]vault.CreateRequest) Op {
	return func(ctx context.Context, item vault.Item) error {
		_, err := d.client.SetItem(ctx, d.vaultRef, requests[item.Name])
		d.sink.Append(audit.NewEntry(d.vaultRef, audit.ActionImportSecret, string(vault.KindSecret), item.Name, err).
			WithDetails(audit.DetailValueSet))
		if err != nil {
			return fmt.Errorf("failed to import '%s': %w", item.Name, err)
		}
		return nil
	}
}
