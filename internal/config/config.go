// Package config loads azvault settings from a YAML file and AZVAULT_*
// environment variables. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "AZVAULT"

// Config holds the tool settings. Fields without a value in the file or
// the environment keep the defaults from Default.
type Config struct {
	VaultPath              string `yaml:"vault_path" envconfig:"VAULT_PATH"`
	VaultName              string `yaml:"vault_name" envconfig:"VAULT_NAME"`
	AuditDir               string `yaml:"audit_dir" envconfig:"AUDIT_DIR"`
	AutoHideSeconds        int    `yaml:"auto_hide_seconds" envconfig:"AUTO_HIDE_SECONDS"`
	ClipboardClearSeconds  int    `yaml:"clipboard_clear_seconds" envconfig:"CLIPBOARD_CLEAR_SECONDS"`
	DisableClipboardCopy   bool   `yaml:"disable_clipboard_copy" envconfig:"DISABLE_CLIPBOARD_COPY"`
	RequireReauthForReveal bool   `yaml:"require_reauth_for_reveal" envconfig:"REQUIRE_REAUTH_FOR_REVEAL"`
	BulkConcurrency        int    `yaml:"bulk_concurrency" envconfig:"BULK_CONCURRENCY"`
	LogLevel               string `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// Default returns the built-in settings rooted at the user's home directory
func Default() Config {
	base := ".azvault"
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".azvault")
	}
	return Config{
		VaultPath:             filepath.Join(base, "vault.db"),
		VaultName:             "default",
		AuditDir:              base,
		AutoHideSeconds:       30,
		ClipboardClearSeconds: 30,
		BulkConcurrency:       8,
		LogLevel:              "warn",
	}
}

// DefaultPath returns the default configuration file
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yml"
	}
	return filepath.Join(home, ".azvault", "config.yml")
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings for values the tool cannot work with
func (c Config) Validate() error {
	if c.VaultPath == "" {
		return errors.New("vault_path must not be empty")
	}
	if c.VaultName == "" {
		return errors.New("vault_name must not be empty")
	}
	if c.AutoHideSeconds <= 0 {
		return fmt.Errorf("auto_hide_seconds must be positive, got %d", c.AutoHideSeconds)
	}
	if c.ClipboardClearSeconds <= 0 {
		return fmt.Errorf("clipboard_clear_seconds must be positive, got %d", c.ClipboardClearSeconds)
	}
	if c.BulkConcurrency < 0 {
		return fmt.Errorf("bulk_concurrency must not be negative, got %d", c.BulkConcurrency)
	}
	return nil
}

// AutoHide returns the reveal countdown
func (c Config) AutoHide() time.Duration {
	return time.Duration(c.AutoHideSeconds) * time.Second
}

// ClipboardClear returns the delay before the clipboard is cleared
func (c Config) ClipboardClear() time.Duration {
	return time.Duration(c.ClipboardClearSeconds) * time.Second
}

// Save writes the settings to path as YAML
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
