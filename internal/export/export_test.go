package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azvault/go/internal/vault"
)

func sampleItems() []vault.Item {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600))
	return []vault.Item{
		{
			ID: "1", Kind: vault.KindSecret, Name: "db-password", Enabled: true,
			Created: &created, Updated: &created, Expires: &expires,
			ContentType: "text/plain", Tags: map[string]string{"env": "prod"},
			Thumbprint: "should-not-appear",
		},
		{ID: "2", Kind: vault.KindSecret, Name: "api-key"},
	}
}

func TestRender_JSON(t *testing.T) {
	data, err := Render(sampleItems(), FormatJSON)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)

	assert.Equal(t, "db-password", records[0]["name"])
	assert.Equal(t, true, records[0]["enabled"])
	assert.Equal(t, "2024-01-02T03:04:05Z", records[0]["created"])
	assert.Equal(t, "2029-12-31T23:00:00Z", records[0]["expires"])
	assert.Equal(t, map[string]any{"env": "prod"}, records[0]["tags"])
	assert.NotContains(t, records[0], "id")
	assert.NotContains(t, string(data), "should-not-appear")
}

func TestRender_CSV(t *testing.T) {
	data, err := Render(sampleItems(), FormatCSV)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"db-password", "true", "2024-01-02T03:04:05Z", "2024-01-02T03:04:05Z", "2029-12-31T23:00:00Z", "text/plain", `{"env":"prod"}`}, rows[1])
	assert.Equal(t, []string{"api-key", "false", "", "", "", "", ""}, rows[2])
}

func TestRender_Bounds(t *testing.T) {
	_, err := Render(make([]vault.Item, MaxItems+1), FormatJSON)
	assert.ErrorIs(t, err, ErrTooManyItems)

	_, err = Render(nil, Format("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	data, err := Render(nil, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("yaml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

type clipboardStub struct {
	content string
	err     error
}

func (c *clipboardStub) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.content = text
	return nil
}

func TestDeliver_Disk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "export.json")
	clip := &clipboardStub{}

	dest, err := Deliver([]byte("data"), path, clip)
	require.NoError(t, err)
	assert.Equal(t, DestinationDisk, dest)
	assert.Empty(t, clip.content)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(written))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestDeliver_FallsBackToClipboard(t *testing.T) {
	// a directory cannot be written as a file
	path := t.TempDir()
	clip := &clipboardStub{}

	dest, err := Deliver([]byte("data"), path, clip)
	require.NoError(t, err)
	assert.Equal(t, DestinationClipboard, dest)
	assert.Equal(t, "data", clip.content)

	dest, err = Deliver([]byte("other"), "", clip)
	require.NoError(t, err)
	assert.Equal(t, DestinationClipboard, dest)
}

func TestDeliver_BothFail(t *testing.T) {
	clipErr := errors.New("no display")
	_, err := Deliver([]byte("data"), t.TempDir(), &clipboardStub{err: clipErr})
	require.Error(t, err)

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, clipErr)
	assert.Error(t, de.DiskErr)

	_, err = Deliver([]byte("data"), "", nil)
	assert.Error(t, err)
}
