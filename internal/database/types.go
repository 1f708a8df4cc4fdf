package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/azvault/go/internal/vault"
)

// itemRow is the scanned form of one items row
type itemRow struct {
	ID          string
	Kind        string
	Name        string
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   sql.NullTime
	NotBefore   sql.NullTime
	ContentType sql.NullString
	Tags        sql.NullString
	KeyType     sql.NullString
	KeyOps      sql.NullString
	Subject     sql.NullString
	Thumbprint  sql.NullString
}

const itemColumns = `id, kind, name, enabled, created_at, updated_at, expires_at, not_before,
	content_type, tags, key_type, key_ops, subject, thumbprint`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (itemRow, error) {
	var r itemRow
	err := s.Scan(
		&r.ID,
		&r.Kind,
		&r.Name,
		&r.Enabled,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.ExpiresAt,
		&r.NotBefore,
		&r.ContentType,
		&r.Tags,
		&r.KeyType,
		&r.KeyOps,
		&r.Subject,
		&r.Thumbprint,
	)
	return r, err
}

// toItem converts the row into the metadata snapshot handed to callers
func (r itemRow) toItem() vault.Item {
	created := r.CreatedAt.UTC()
	updated := r.UpdatedAt.UTC()
	item := vault.Item{
		ID:          r.ID,
		Kind:        vault.Kind(r.Kind),
		Name:        r.Name,
		Enabled:     r.Enabled,
		Created:     &created,
		Updated:     &updated,
		Expires:     nullTime(r.ExpiresAt),
		NotBefore:   nullTime(r.NotBefore),
		ContentType: r.ContentType.String,
		KeyType:     r.KeyType.String,
		Subject:     r.Subject.String,
		Thumbprint:  r.Thumbprint.String,
	}
	if r.Tags.Valid && r.Tags.String != "" {
		// rows are only written by encodeTags
		_ = json.Unmarshal([]byte(r.Tags.String), &item.Tags)
	}
	if r.KeyOps.Valid && r.KeyOps.String != "" {
		_ = json.Unmarshal([]byte(r.KeyOps.String), &item.KeyOps)
	}
	return item
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

func encodeTags(tags map[string]string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func encodeList(values []string) (sql.NullString, error) {
	if len(values) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func parseTimestamp(s *string) (sql.NullTime, error) {
	if s == nil || *s == "" {
		return sql.NullTime{}, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return sql.NullTime{}, err
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}, nil
}
