// Package database stores local vaults in an encrypted SQLCipher file. A
// VaultDatabase implements vault.Client, so the rest of the tool works the
// same against it as against any other vault.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mutecomm/go-sqlcipher/v4" // SQLCipher driver

	"github.com/azvault/go/internal/vault"
)

const (
	// SchemaVersion defines the current database schema version
	SchemaVersion = 1
)

//go:embed schema.sql
var schema string

// VaultDatabase manages the encrypted SQLCipher database
type VaultDatabase struct {
	mu         sync.RWMutex
	dbPath     string
	connection *sql.DB
}

// NewVaultDatabase creates a new VaultDatabase instance
func NewVaultDatabase(dbPath string) *VaultDatabase {
	return &VaultDatabase{dbPath: dbPath}
}

// Path returns the database file
func (vd *VaultDatabase) Path() string {
	return vd.dbPath
}

// Connect establishes a connection to the encrypted database with the given password
func (vd *VaultDatabase) Connect(password string) error {
	vd.mu.Lock()
	defer vd.mu.Unlock()

	if vd.connection != nil {
		return nil // Already connected
	}

	// Build connection string with SQLCipher parameters
	connStr := fmt.Sprintf("%s?_pragma_key=%s&_pragma_cipher_page_size=4096&_pragma_cipher_hmac_algorithm=HMAC_SHA512&_pragma_cipher_kdf_algorithm=PBKDF2_HMAC_SHA512&_pragma_cipher_kdf_iter=256000&_busy_timeout=5000",
		vd.dbPath, url.QueryEscape(password))

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return NewDatabaseError("connect", err)
	}
	// SQLite serializes writers; one connection keeps bulk writes from racing for the lock
	db.SetMaxOpenConns(1)

	if err := testConnection(db); err != nil {
		db.Close()
		return err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return NewDatabaseError("initialize_schema", err)
	}

	vd.connection = db
	return nil
}

// testConnection verifies the database connection and password
func testConnection(db *sql.DB) error {
	var result int
	err := db.QueryRow("SELECT count(*) FROM sqlite_master").Scan(&result)
	if err != nil {
		if strings.Contains(err.Error(), "file is not a database") ||
			strings.Contains(err.Error(), "file is encrypted") {
			return ErrAuthenticationFailed
		}
		return NewDatabaseError("test_connection", err)
	}
	return nil
}

// Rekey changes the encryption password for the vault database
// This operation re-encrypts the entire database with a new password
func (vd *VaultDatabase) Rekey(oldPassword, newPassword string) error {
	if err := vd.Close(); err != nil {
		return err
	}

	if err := vd.Connect(oldPassword); err != nil {
		return fmt.Errorf("failed to verify old password: %w", err)
	}

	vd.mu.RLock()
	_, err := vd.connection.Exec(fmt.Sprintf("PRAGMA rekey = '%s'", strings.ReplaceAll(newPassword, "'", "''")))
	vd.mu.RUnlock()
	if err != nil {
		vd.Close()
		return NewDatabaseError("rekey", err)
	}

	// Close and reconnect with new password to verify
	if err := vd.Close(); err != nil {
		return err
	}
	if err := vd.Connect(newPassword); err != nil {
		return fmt.Errorf("failed to verify new password after rekey: %w", err)
	}
	return nil
}

// Close closes the database connection
func (vd *VaultDatabase) Close() error {
	vd.mu.Lock()
	defer vd.mu.Unlock()

	if vd.connection == nil {
		return nil
	}

	err := vd.connection.Close()
	vd.connection = nil
	if err != nil {
		return NewDatabaseError("close", err)
	}
	return nil
}

// IsConnected returns true if the database connection is active
func (vd *VaultDatabase) IsConnected() bool {
	vd.mu.RLock()
	defer vd.mu.RUnlock()
	return vd.connection != nil
}

// conn returns the open connection
func (vd *VaultDatabase) conn() (*sql.DB, error) {
	vd.mu.RLock()
	defer vd.mu.RUnlock()
	if vd.connection == nil {
		return nil, ErrDatabaseNotConnected
	}
	return vd.connection, nil
}

// ListItems returns the live items of kind, or of every kind when kind is empty
func (vd *VaultDatabase) ListItems(ctx context.Context, vaultRef string, kind vault.Kind) ([]vault.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE vault = ? AND deleted_at IS NULL AND (? = '' OR kind = ?)
		ORDER BY name ASC`
	return vd.queryItems(ctx, "list_items", query, vaultRef, string(kind), string(kind))
}

// ListDeleted returns the soft-deleted secrets that can be recovered or purged
func (vd *VaultDatabase) ListDeleted(ctx context.Context, vaultRef string) ([]vault.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE vault = ? AND kind = ? AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC, name ASC`
	return vd.queryItems(ctx, "list_deleted", query, vaultRef, string(vault.KindSecret))
}

func (vd *VaultDatabase) queryItems(ctx context.Context, op, query string, args ...any) ([]vault.Item, error) {
	db, err := vd.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewDatabaseError(op, err)
	}
	defer rows.Close()

	var items []vault.Item
	for rows.Next() {
		row, err := scanItem(rows)
		if err != nil {
			return nil, NewDatabaseError(op+"_scan", err)
		}
		items = append(items, row.toItem())
	}
	if err := rows.Err(); err != nil {
		return nil, NewDatabaseError(op+"_iteration", err)
	}
	return items, nil
}

// GetValue returns the current value of a live secret
func (vd *VaultDatabase) GetValue(ctx context.Context, vaultRef, name string) (vault.SecretValue, error) {
	if err := vault.ValidateName(name); err != nil {
		return vault.SecretValue{}, err
	}
	db, err := vd.conn()
	if err != nil {
		return vault.SecretValue{}, err
	}

	query := `SELECT id, name, value FROM items
		WHERE vault = ? AND kind = ? AND name = ? AND deleted_at IS NULL`

	var id, storedName string
	var value sql.NullString
	err = db.QueryRowContext(ctx, query, vaultRef, string(vault.KindSecret), name).Scan(&id, &storedName, &value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vault.SecretValue{}, vault.ErrNotFound
		}
		return vault.SecretValue{}, NewDatabaseError("get_value", err)
	}

	return vault.SecretValue{ID: id, Name: storedName, Value: vault.NewSensitive(value.String)}, nil
}

// SetItem creates a secret or replaces the value and attributes of a live one
func (vd *VaultDatabase) SetItem(ctx context.Context, vaultRef string, req vault.CreateRequest) (vault.Item, error) {
	if err := vault.ValidateName(req.Name); err != nil {
		return vault.Item{}, err
	}
	if err := vault.ValidateValue(req.Value); err != nil {
		return vault.Item{}, err
	}
	expires, err := parseTimestamp(req.Expires)
	if err != nil {
		return vault.Item{}, fmt.Errorf("invalid expires: %w", err)
	}
	notBefore, err := parseTimestamp(req.NotBefore)
	if err != nil {
		return vault.Item{}, fmt.Errorf("invalid notBefore: %w", err)
	}
	tags, err := encodeTags(req.Tags)
	if err != nil {
		return vault.Item{}, fmt.Errorf("invalid tags: %w", err)
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	var contentType sql.NullString
	if req.ContentType != nil {
		contentType = sql.NullString{String: *req.ContentType, Valid: true}
	}

	db, err := vd.conn()
	if err != nil {
		return vault.Item{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return vault.Item{}, NewDatabaseError("set_item_begin", err)
	}
	defer tx.Rollback()

	var id string
	var deletedAt sql.NullTime
	err = tx.QueryRowContext(ctx, `SELECT id, deleted_at FROM items WHERE vault = ? AND kind = ? AND name = ?`,
		vaultRef, string(vault.KindSecret), req.Name).Scan(&id, &deletedAt)

	now := time.Now().UTC()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO items (id, vault, kind, name, value, enabled, created_at, updated_at,
				expires_at, not_before, content_type, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, vaultRef, string(vault.KindSecret), req.Name, req.Value, enabled, now, now,
			expires, notBefore, contentType, tags)
		if err != nil {
			return vault.Item{}, NewDatabaseError("set_item_insert", err)
		}
	case err != nil:
		return vault.Item{}, NewDatabaseError("set_item_lookup", err)
	case deletedAt.Valid:
		return vault.Item{}, ErrItemDeleted
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE items SET value = ?, enabled = ?, updated_at = ?, expires_at = ?, not_before = ?,
				content_type = ?, tags = ?
			WHERE id = ?`,
			req.Value, enabled, now, expires, notBefore, contentType, tags, id)
		if err != nil {
			return vault.Item{}, NewDatabaseError("set_item_update", err)
		}
	}

	row, err := scanItem(tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if err != nil {
		return vault.Item{}, NewDatabaseError("set_item_read", err)
	}
	if err := tx.Commit(); err != nil {
		return vault.Item{}, NewDatabaseError("set_item_commit", err)
	}
	return row.toItem(), nil
}

// PutMetadata stores a key or certificate entry. Such items carry no value.
func (vd *VaultDatabase) PutMetadata(ctx context.Context, vaultRef string, item vault.Item) (vault.Item, error) {
	if item.Kind == vault.KindSecret || !item.Kind.Valid() {
		return vault.Item{}, fmt.Errorf("metadata items must be keys or certificates, got %q", item.Kind)
	}
	if err := vault.ValidateName(item.Name); err != nil {
		return vault.Item{}, err
	}
	db, err := vd.conn()
	if err != nil {
		return vault.Item{}, err
	}

	tags, err := encodeTags(item.Tags)
	if err != nil {
		return vault.Item{}, fmt.Errorf("invalid tags: %w", err)
	}
	keyOps, err := encodeList(item.KeyOps)
	if err != nil {
		return vault.Item{}, fmt.Errorf("invalid key operations: %w", err)
	}

	now := time.Now().UTC()
	item.ID = uuid.NewString()
	_, err = db.ExecContext(ctx, `
		INSERT INTO items (id, vault, kind, name, enabled, created_at, updated_at, expires_at, not_before,
			tags, key_type, key_ops, subject, thumbprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, vaultRef, string(item.Kind), item.Name, item.Enabled, now, now,
		sqlTime(item.Expires), sqlTime(item.NotBefore), tags,
		nullString(item.KeyType), keyOps, nullString(item.Subject), nullString(item.Thumbprint))
	if err != nil {
		return vault.Item{}, NewDatabaseError("put_metadata", err)
	}
	item.Created = &now
	item.Updated = &now
	return item, nil
}

// DeleteItem soft-deletes a live secret
func (vd *VaultDatabase) DeleteItem(ctx context.Context, vaultRef, name string) error {
	return vd.transition(ctx, "delete_item", vaultRef, name, false,
		`UPDATE items SET deleted_at = ? WHERE vault = ? AND kind = ? AND name = ? AND deleted_at IS NULL`,
		time.Now().UTC(), vaultRef, string(vault.KindSecret), name)
}

// RecoverItem restores a soft-deleted secret
func (vd *VaultDatabase) RecoverItem(ctx context.Context, vaultRef, name string) error {
	return vd.transition(ctx, "recover_item", vaultRef, name, true,
		`UPDATE items SET deleted_at = NULL, updated_at = ? WHERE vault = ? AND kind = ? AND name = ? AND deleted_at IS NOT NULL`,
		time.Now().UTC(), vaultRef, string(vault.KindSecret), name)
}

// PurgeItem permanently removes a soft-deleted secret
func (vd *VaultDatabase) PurgeItem(ctx context.Context, vaultRef, name string) error {
	return vd.transition(ctx, "purge_item", vaultRef, name, true,
		`DELETE FROM items WHERE vault = ? AND kind = ? AND name = ? AND deleted_at IS NOT NULL`,
		vaultRef, string(vault.KindSecret), name)
}

// transition runs a single-row lifecycle statement and explains a miss
func (vd *VaultDatabase) transition(ctx context.Context, op, vaultRef, name string, wantDeleted bool, query string, args ...any) error {
	if err := vault.ValidateName(name); err != nil {
		return err
	}
	db, err := vd.conn()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return NewDatabaseError(op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return NewDatabaseError(op+"_check", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var deletedAt sql.NullTime
	err = db.QueryRowContext(ctx, `SELECT deleted_at FROM items WHERE vault = ? AND kind = ? AND name = ?`,
		vaultRef, string(vault.KindSecret), name).Scan(&deletedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return vault.ErrNotFound
	case err != nil:
		return NewDatabaseError(op+"_lookup", err)
	case wantDeleted && !deletedAt.Valid:
		return vault.ErrNotDeleted
	default:
		// deleting an already deleted secret
		return vault.ErrNotFound
	}
}

func sqlTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ vault.Client = (*VaultDatabase)(nil)
