package audit

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry_Result(t *testing.T) {
	ok := NewEntry("vault", ActionDeleteSecret, "secret", "db", nil)
	assert.Equal(t, ResultSuccess, ok.Result)
	assert.Nil(t, ok.Details)
	assert.False(t, ok.Timestamp.IsZero())

	failed := NewEntry("vault", ActionDeleteSecret, "secret", "db", errors.New("forbidden"))
	assert.Equal(t, ResultError, failed.Result)

	withDetails := ok.WithDetails("note")
	require.NotNil(t, withDetails.Details)
	assert.Equal(t, "note", *withDetails.Details)
	assert.Nil(t, ok.Details, "WithDetails must not modify the receiver")
}

func TestSanitizeDetails(t *testing.T) {
	tests := []struct {
		name    string
		details string
		want    string
	}{
		{"plain", "deleted 3 items", "deleted 3 items"},
		{"secret keyword", "my Secret is x", Redacted},
		{"token keyword", "bearer TOKEN abc", Redacted},
		{"password keyword", "password=hunter2", Redacted},
		{"access key keyword", "access_key=AKIA", Redacted},
		{"fixed fetch detail", DetailValueRedacted, DetailValueRedacted},
		{"fixed set detail", DetailValueSet, DetailValueSet},
		{"truncated", strings.Repeat("a", 600), strings.Repeat("a", MaxFieldLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeDetails(tt.details))
		})
	}
}

func TestLogger_AppendTruncatesFields(t *testing.T) {
	l := NewMemoryLogger()
	l.Append(NewEntry("vault", ActionSetSecret, "secret", strings.Repeat("n", 700), nil))

	entries := l.Entries(0)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].ItemName, MaxFieldLength)
}

func TestLogger_BoundedToMaxEntries(t *testing.T) {
	l := NewMemoryLogger()
	for i := 0; i < MaxEntries+5; i++ {
		l.Append(NewEntry("vault", ActionListItems, "secret", "", nil))
	}
	assert.Equal(t, MaxEntries, l.Len())
}

func TestLogger_EntriesReturnsNewest(t *testing.T) {
	l := NewMemoryLogger()
	for _, name := range []string{"a", "b", "c"} {
		l.Append(NewEntry("vault", ActionDeleteSecret, "secret", name, nil))
	}

	entries := l.Entries(2)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].ItemName)
	assert.Equal(t, "c", entries[1].ItemName)

	assert.Len(t, l.Entries(0), 3)
}

func TestLogger_SanitizedExport(t *testing.T) {
	l := NewMemoryLogger()
	l.Append(NewEntry("vault", ActionGetSecretValue, "secret", "db", nil).WithDetails(DetailValueRedacted))
	l.Append(NewEntry("vault", ActionDeleteSecret, "secret", "db", nil).WithDetails("soft delete"))

	data, err := l.SanitizedExport()
	require.NoError(t, err)

	var exported []Entry
	require.NoError(t, json.Unmarshal(data, &exported))
	require.Len(t, exported, 2)
	assert.Equal(t, Redacted, *exported[0].Details)
	assert.Equal(t, "soft delete", *exported[1].Details)

	// stored entries keep their details
	assert.Equal(t, DetailValueRedacted, *l.Entries(0)[0].Details)
}

func TestLogger_PersistsAndReloads(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")

	l, err := Open(dir, zerolog.Nop())
	require.NoError(t, err)
	l.Append(NewEntry("vault", ActionRecoverSecret, "secret", "db", nil))

	info, err := os.Stat(l.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := Open(dir, zerolog.Nop())
	require.NoError(t, err)
	entries := reopened.Entries(0)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionRecoverSecret, entries[0].Action)

	require.NoError(t, reopened.Clear())
	assert.Equal(t, 0, reopened.Len())

	cleared, err := Open(dir, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0, cleared.Len())
}

func TestOpen_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0600))

	_, err := Open(dir, zerolog.Nop())
	assert.Error(t, err)
}
