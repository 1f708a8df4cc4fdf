package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azvault/go/internal/vault"
)

const testVault = "kv-test"

func openTestDatabase(t *testing.T) *VaultDatabase {
	t.Helper()
	vd := NewVaultDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, vd.Connect("test_password_123"))
	t.Cleanup(func() { vd.Close() })
	return vd
}

func setSecret(t *testing.T, vd *VaultDatabase, name, value string) vault.Item {
	t.Helper()
	item, err := vd.SetItem(context.Background(), testVault, vault.CreateRequest{Name: name, Value: value})
	require.NoError(t, err)
	return item
}

func TestVaultDatabase_Basic(t *testing.T) {
	ctx := context.Background()
	vd := NewVaultDatabase(filepath.Join(t.TempDir(), "test.db"))
	assert.False(t, vd.IsConnected())

	require.NoError(t, vd.Connect("test_password_123"))
	assert.True(t, vd.IsConnected())

	// Create secret
	contentType := "text/plain"
	created, err := vd.SetItem(ctx, testVault, vault.CreateRequest{
		Name:        "db-password",
		Value:       "test_secret_value",
		ContentType: &contentType,
		Tags:        map[string]string{"env": "prod"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, vault.KindSecret, created.Kind)
	assert.True(t, created.Enabled)
	assert.Equal(t, "text/plain", created.ContentType)
	assert.Equal(t, map[string]string{"env": "prod"}, created.Tags)

	// Retrieve secret
	secret, err := vd.GetValue(ctx, testVault, "db-password")
	require.NoError(t, err)
	assert.Equal(t, created.ID, secret.ID)
	assert.Equal(t, "test_secret_value", secret.Value.Plaintext())

	// List secrets
	items, err := vd.ListItems(ctx, testVault, vault.KindSecret)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "db-password", items[0].Name)

	// Update keeps the identity
	updated, err := vd.SetItem(ctx, testVault, vault.CreateRequest{Name: "db-password", Value: "updated_secret_value"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Nil(t, updated.Tags)

	secret, err = vd.GetValue(ctx, testVault, "db-password")
	require.NoError(t, err)
	assert.Equal(t, "updated_secret_value", secret.Value.Plaintext())

	// Close connection
	require.NoError(t, vd.Close())
	assert.False(t, vd.IsConnected())
}

func TestVaultDatabase_Errors(t *testing.T) {
	ctx := context.Background()
	vd := NewVaultDatabase(filepath.Join(t.TempDir(), "test.db"))

	// Test operations without connection
	_, err := vd.SetItem(ctx, testVault, vault.CreateRequest{Name: "key", Value: "value"})
	assert.Equal(t, ErrDatabaseNotConnected, err)

	_, err = vd.GetValue(ctx, testVault, "key")
	assert.Equal(t, ErrDatabaseNotConnected, err)

	require.NoError(t, vd.Connect("test_password"))
	defer vd.Close()

	// Test item not found
	_, err = vd.GetValue(ctx, testVault, "nonexistent")
	assert.ErrorIs(t, err, vault.ErrNotFound)

	assert.ErrorIs(t, vd.DeleteItem(ctx, testVault, "nonexistent"), vault.ErrNotFound)
	assert.ErrorIs(t, vd.RecoverItem(ctx, testVault, "nonexistent"), vault.ErrNotFound)
	assert.ErrorIs(t, vd.PurgeItem(ctx, testVault, "nonexistent"), vault.ErrNotFound)
}

func TestVaultDatabase_NameValidation(t *testing.T) {
	ctx := context.Background()
	vd := openTestDatabase(t)

	invalidNames := []string{
		"",                        // Empty name
		"has space",               // Disallowed character
		"under_score",             // Disallowed character
		string(make([]byte, 128)), // Too long
	}

	for _, name := range invalidNames {
		_, err := vd.SetItem(ctx, testVault, vault.CreateRequest{Name: name, Value: "value"})
		assert.ErrorIs(t, err, vault.ErrInvalidName, name)
	}

	_, err := vd.SetItem(ctx, testVault, vault.CreateRequest{Name: "valid-name-123", Value: ""})
	assert.ErrorIs(t, err, vault.ErrInvalidValue)

	setSecret(t, vd, "valid-name-123", "value")
}

func TestVaultDatabase_SoftDeleteLifecycle(t *testing.T) {
	ctx := context.Background()
	vd := openTestDatabase(t)
	setSecret(t, vd, "api-key", "value")
	setSecret(t, vd, "keep", "value")

	assert.ErrorIs(t, vd.RecoverItem(ctx, testVault, "api-key"), vault.ErrNotDeleted)
	assert.ErrorIs(t, vd.PurgeItem(ctx, testVault, "api-key"), vault.ErrNotDeleted)

	require.NoError(t, vd.DeleteItem(ctx, testVault, "api-key"))
	assert.ErrorIs(t, vd.DeleteItem(ctx, testVault, "api-key"), vault.ErrNotFound)

	_, err := vd.GetValue(ctx, testVault, "api-key")
	assert.ErrorIs(t, err, vault.ErrNotFound)

	_, err = vd.SetItem(ctx, testVault, vault.CreateRequest{Name: "api-key", Value: "new"})
	assert.ErrorIs(t, err, ErrItemDeleted)

	live, err := vd.ListItems(ctx, testVault, vault.KindSecret)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "keep", live[0].Name)

	deleted, err := vd.ListDeleted(ctx, testVault)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "api-key", deleted[0].Name)

	// Recover brings the value back
	require.NoError(t, vd.RecoverItem(ctx, testVault, "api-key"))
	secret, err := vd.GetValue(ctx, testVault, "api-key")
	require.NoError(t, err)
	assert.Equal(t, "value", secret.Value.Plaintext())

	// Purge removes it for good
	require.NoError(t, vd.DeleteItem(ctx, testVault, "api-key"))
	require.NoError(t, vd.PurgeItem(ctx, testVault, "api-key"))
	deleted, err = vd.ListDeleted(ctx, testVault)
	require.NoError(t, err)
	assert.Empty(t, deleted)

	// The name is free again
	setSecret(t, vd, "api-key", "fresh")
}

func TestVaultDatabase_VaultsAreIsolated(t *testing.T) {
	ctx := context.Background()
	vd := openTestDatabase(t)
	setSecret(t, vd, "shared-name", "one")

	_, err := vd.GetValue(ctx, "other-vault", "shared-name")
	assert.ErrorIs(t, err, vault.ErrNotFound)

	items, err := vd.ListItems(ctx, "other-vault", "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestVaultDatabase_KindFilter(t *testing.T) {
	ctx := context.Background()
	vd := openTestDatabase(t)
	setSecret(t, vd, "a-secret", "value")

	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	key, err := vd.PutMetadata(ctx, testVault, vault.Item{
		Kind:    vault.KindKey,
		Name:    "signing-key",
		Enabled: true,
		KeyType: "RSA",
		KeyOps:  []string{"sign", "verify"},
		Expires: &expires,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, key.ID)

	_, err = vd.PutMetadata(ctx, testVault, vault.Item{Kind: vault.KindSecret, Name: "nope"})
	assert.Error(t, err)

	all, err := vd.ListItems(ctx, testVault, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	keys, err := vd.ListItems(ctx, testVault, vault.KindKey)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, []string{"sign", "verify"}, keys[0].KeyOps)
	assert.Equal(t, "RSA", keys[0].KeyType)
	require.NotNil(t, keys[0].Expires)
	assert.True(t, expires.Equal(*keys[0].Expires))

	// keys have no value to fetch
	_, err = vd.GetValue(ctx, testVault, "signing-key")
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

func TestVaultDatabase_Attributes(t *testing.T) {
	ctx := context.Background()
	vd := openTestDatabase(t)

	disabled := false
	expires := "2030-06-01T12:00:00+02:00"
	item, err := vd.SetItem(ctx, testVault, vault.CreateRequest{
		Name:    "with-attrs",
		Value:   "v",
		Enabled: &disabled,
		Expires: &expires,
	})
	require.NoError(t, err)
	assert.False(t, item.Enabled)
	require.NotNil(t, item.Expires)
	assert.Equal(t, "2030-06-01T10:00:00Z", item.Expires.Format(time.RFC3339))

	bad := "next week"
	_, err = vd.SetItem(ctx, testVault, vault.CreateRequest{Name: "bad-date", Value: "v", NotBefore: &bad})
	assert.Error(t, err)
}

func TestVaultDatabase_WrongPassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	vd := NewVaultDatabase(dbPath)
	require.NoError(t, vd.Connect("correct"))
	setSecret(t, vd, "a", "value")
	require.NoError(t, vd.Close())

	other := NewVaultDatabase(dbPath)
	err := other.Connect("wrong")
	assert.Equal(t, ErrAuthenticationFailed, err)
	assert.False(t, other.IsConnected())
}

func TestVaultDatabase_Rekey(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	vd := NewVaultDatabase(dbPath)
	require.NoError(t, vd.Connect("old-pass"))
	setSecret(t, vd, "a", "value")

	require.NoError(t, vd.Rekey("old-pass", "new-pass"))
	secret, err := vd.GetValue(ctx, testVault, "a")
	require.NoError(t, err)
	assert.Equal(t, "value", secret.Value.Plaintext())
	require.NoError(t, vd.Close())

	assert.Equal(t, ErrAuthenticationFailed, NewVaultDatabase(dbPath).Connect("old-pass"))
}

func TestDatabaseError_TransientOnLock(t *testing.T) {
	busy := NewDatabaseError("list_items", errors.New("database is locked"))
	assert.ErrorIs(t, busy, vault.ErrTransient)

	other := NewDatabaseError("list_items", errors.New("no such table"))
	assert.NotErrorIs(t, other, vault.ErrTransient)
	assert.Contains(t, other.Error(), "list_items")
}
