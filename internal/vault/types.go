package vault

import (
	"context"
	"time"
)

// Kind identifies which collection of the vault an item belongs to
type Kind string

const (
	KindSecret      Kind = "secret"
	KindKey         Kind = "key"
	KindCertificate Kind = "certificate"
)

// Valid reports whether k is one of the known item kinds
func (k Kind) Valid() bool {
	switch k {
	case KindSecret, KindKey, KindCertificate:
		return true
	}
	return false
}

// Item is an immutable metadata snapshot of a secret, key or certificate.
// It never carries a secret value.
type Item struct {
	ID          string            `json:"id"`
	Kind        Kind              `json:"kind"`
	Name        string            `json:"name"`
	Enabled     bool              `json:"enabled"`
	Created     *time.Time        `json:"created,omitempty"`
	Updated     *time.Time        `json:"updated,omitempty"`
	Expires     *time.Time        `json:"expires,omitempty"`
	NotBefore   *time.Time        `json:"notBefore,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	ContentType string            `json:"contentType,omitempty"`
	KeyType     string            `json:"keyType,omitempty"`
	KeyOps      []string          `json:"keyOps,omitempty"`
	Subject     string            `json:"subject,omitempty"`
	Thumbprint  string            `json:"thumbprint,omitempty"`
	Managed     *bool             `json:"managed,omitempty"`
}

// SecretValue is a secret payload fetched on demand
type SecretValue struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Value Sensitive `json:"value"`
}

// CreateRequest creates a secret or adds a new version to an existing one
type CreateRequest struct {
	Name        string            `json:"name"`
	Value       string            `json:"-"`
	ContentType *string           `json:"contentType,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
	Expires     *string           `json:"expires,omitempty"`
	NotBefore   *string           `json:"notBefore,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// Client is the vault collaborator. Every call may block on I/O.
type Client interface {
	ListItems(ctx context.Context, vaultRef string, kind Kind) ([]Item, error)
	ListDeleted(ctx context.Context, vaultRef string) ([]Item, error)
	GetValue(ctx context.Context, vaultRef, name string) (SecretValue, error)
	SetItem(ctx context.Context, vaultRef string, req CreateRequest) (Item, error)
	DeleteItem(ctx context.Context, vaultRef, name string) error
	RecoverItem(ctx context.Context, vaultRef, name string) error
	PurgeItem(ctx context.Context, vaultRef, name string) error
}

// IDs returns the identities of items in order
func IDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
