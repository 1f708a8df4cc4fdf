package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def, cfg)
	assert.Equal(t, 30*time.Second, cfg.AutoHide())
	assert.Equal(t, 30*time.Second, cfg.ClipboardClear())
	assert.Equal(t, 8, cfg.BulkConcurrency)
	assert.Equal(t, "default", cfg.VaultName)
	assert.False(t, cfg.DisableClipboardCopy)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
vault_name: kv-prod
auto_hide_seconds: 10
disable_clipboard_copy: true
require_reauth_for_reveal: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "kv-prod", cfg.VaultName)
	assert.Equal(t, 10*time.Second, cfg.AutoHide())
	assert.True(t, cfg.DisableClipboardCopy)
	assert.True(t, cfg.RequireReauthForReveal)
	assert.Equal(t, 30, cfg.ClipboardClearSeconds, "unset keys keep defaults")
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := writeConfig(t, "vault_name: from-file\nbulk_concurrency: 4\n")
	t.Setenv("AZVAULT_VAULT_NAME", "from-env")
	t.Setenv("AZVAULT_CLIPBOARD_CLEAR_SECONDS", "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.VaultName)
	assert.Equal(t, 5*time.Second, cfg.ClipboardClear())
	assert.Equal(t, 4, cfg.BulkConcurrency)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "auto_hide_seconds: [1, 2]"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "auto_hide_seconds: 0"))
	assert.ErrorContains(t, err, "auto_hide_seconds")

	t.Setenv("AZVAULT_BULK_CONCURRENCY", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	cfg := Default()
	cfg.VaultName = "saved"

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
