// Package vaulttest provides an in-memory vault.Client for tests.
package vaulttest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/azvault/go/internal/vault"
)

// Fake is an in-memory vault.Client. Failures can be injected per
// operation and item name.
type Fake struct {
	mu      sync.Mutex
	items   map[string]*record
	values  map[string]string
	fail    map[string]error
	calls   []string
	gate    chan struct{}
	listErr error
}

type record struct {
	item    vault.Item
	deleted bool
}

// NewFake creates an empty fake vault
func NewFake() *Fake {
	return &Fake{
		items:  make(map[string]*record),
		values: make(map[string]string),
		fail:   make(map[string]error),
	}
}

// AddSecret stores a secret and returns its metadata
func (f *Fake) AddSecret(name, value string) vault.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putLocked(name, value, vault.KindSecret)
}

// AddItem stores a non-secret item of kind
func (f *Fake) AddItem(name string, kind vault.Kind) vault.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putLocked(name, "", kind)
}

func (f *Fake) putLocked(name, value string, kind vault.Kind) vault.Item {
	now := time.Now().UTC()
	item := vault.Item{
		ID:      uuid.NewString(),
		Kind:    kind,
		Name:    name,
		Enabled: true,
		Created: &now,
		Updated: &now,
	}
	if existing, ok := f.items[name]; ok {
		item.ID = existing.item.ID
		item.Created = existing.item.Created
	}
	f.items[name] = &record{item: item}
	f.values[name] = value
	return item
}

// FailOn makes op fail with err for name. op is one of "get", "set",
// "delete", "recover", "purge".
func (f *Fake) FailOn(op, name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op+":"+name] = err
}

// FailList makes listing fail with err
func (f *Fake) FailList(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

// Hold blocks every mutation until Release is called
func (f *Fake) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
}

// Release unblocks mutations held by Hold
func (f *Fake) Release() {
	f.mu.Lock()
	gate := f.gate
	f.gate = nil
	f.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

// Calls returns the recorded "op:name" calls in order
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Has reports whether a live item named name exists
func (f *Fake) Has(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[name]
	return ok && !r.deleted
}

func (f *Fake) enter(ctx context.Context, op, name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, op+":"+name)
	gate := f.gate
	err := f.fail[op+":"+name]
	f.mu.Unlock()

	if gate != nil && op != "get" {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *Fake) list(deleted bool, kind vault.Kind) ([]vault.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var items []vault.Item
	for _, r := range f.items {
		if r.deleted != deleted || (kind != "" && r.item.Kind != kind) {
			continue
		}
		items = append(items, r.item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (f *Fake) ListItems(ctx context.Context, vaultRef string, kind vault.Kind) ([]vault.Item, error) {
	return f.list(false, kind)
}

func (f *Fake) ListDeleted(ctx context.Context, vaultRef string) ([]vault.Item, error) {
	return f.list(true, "")
}

func (f *Fake) GetValue(ctx context.Context, vaultRef, name string) (vault.SecretValue, error) {
	if err := f.enter(ctx, "get", name); err != nil {
		return vault.SecretValue{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[name]
	if !ok || r.deleted || r.item.Kind != vault.KindSecret {
		return vault.SecretValue{}, vault.ErrNotFound
	}
	return vault.SecretValue{ID: r.item.ID, Name: name, Value: vault.NewSensitive(f.values[name])}, nil
}

func (f *Fake) SetItem(ctx context.Context, vaultRef string, req vault.CreateRequest) (vault.Item, error) {
	if err := f.enter(ctx, "set", req.Name); err != nil {
		return vault.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	item := f.putLocked(req.Name, req.Value, vault.KindSecret)
	if req.Tags != nil {
		item.Tags = req.Tags
		f.items[req.Name].item = item
	}
	return item, nil
}

func (f *Fake) DeleteItem(ctx context.Context, vaultRef, name string) error {
	if err := f.enter(ctx, "delete", name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[name]
	if !ok || r.deleted {
		return vault.ErrNotFound
	}
	r.deleted = true
	return nil
}

func (f *Fake) RecoverItem(ctx context.Context, vaultRef, name string) error {
	if err := f.enter(ctx, "recover", name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[name]
	if !ok {
		return vault.ErrNotFound
	}
	if !r.deleted {
		return vault.ErrNotDeleted
	}
	r.deleted = false
	return nil
}

func (f *Fake) PurgeItem(ctx context.Context, vaultRef, name string) error {
	if err := f.enter(ctx, "purge", name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[name]
	if !ok {
		return vault.ErrNotFound
	}
	if !r.deleted {
		return vault.ErrNotDeleted
	}
	delete(f.items, name)
	delete(f.values, name)
	return nil
}

var _ vault.Client = (*Fake)(nil)
