// Package keyring keeps the local vault passphrase in the OS secret store so
// commands can open the vault without prompting.
package keyring

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// ServiceName is the name used to identify azvault in the system keyring
	ServiceName = "azvault"

	// DefaultAccount is used when no vault file is associated with the manager
	DefaultAccount = "default"
)

// Manager stores one vault passphrase per account
type Manager struct {
	serviceName string
	account     string
	enabled     bool
}

// NewManager creates a manager for the vault identified by account.
// An empty account selects DefaultAccount.
func NewManager(account string) *Manager {
	if account == "" {
		account = DefaultAccount
	}
	return &Manager{
		serviceName: ServiceName,
		account:     account,
		enabled:     true,
	}
}

// IsEnabled returns whether keyring integration is enabled
func (m *Manager) IsEnabled() bool {
	return m.enabled
}

// Disable turns every operation into a no-op or ErrKeyringDisabled
func (m *Manager) Disable() {
	m.enabled = false
}

// Enable re-enables keyring integration
func (m *Manager) Enable() {
	m.enabled = true
}

// ServiceName returns the keyring service
func (m *Manager) ServiceName() string {
	return m.serviceName
}

// Account returns the keyring account
func (m *Manager) Account() string {
	return m.account
}

// SetServiceName overrides the keyring service, mainly for tests
func (m *Manager) SetServiceName(name string) {
	m.serviceName = name
}

// SavePassword stores the vault passphrase, replacing any previous one
func (m *Manager) SavePassword(password string) error {
	if !m.enabled {
		return nil
	}
	if password == "" {
		return errors.New("refusing to store an empty password")
	}
	if err := keyring.Set(m.serviceName, m.account, password); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// GetPassword returns the stored passphrase
func (m *Manager) GetPassword() (string, error) {
	if !m.enabled {
		return "", ErrKeyringDisabled
	}
	password, err := keyring.Get(m.serviceName, m.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrPasswordNotFound
		}
		return "", fmt.Errorf("failed to retrieve from keyring: %w", err)
	}
	return password, nil
}

// DeletePassword removes the stored passphrase. A missing entry is not an error.
func (m *Manager) DeletePassword() error {
	if !m.enabled {
		return nil
	}
	if err := keyring.Delete(m.serviceName, m.account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// HasPassword checks if a passphrase is stored
func (m *Manager) HasPassword() bool {
	_, err := m.GetPassword()
	return err == nil
}

// PromptToSave asks on out whether to remember password and reads the
// answer from in. Nothing is asked when a passphrase is already stored.
func (m *Manager) PromptToSave(password string, in io.Reader, out io.Writer) (bool, error) {
	if !m.enabled || m.HasPassword() {
		return false, nil
	}

	fmt.Fprint(out, "Save password to system keyring for auto-login? (y/N): ")
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	if response != "y" && response != "yes" {
		return false, nil
	}

	if err := m.SavePassword(password); err != nil {
		return false, err
	}
	return true, nil
}

// IsSupported checks if keyring is supported on the current system
func IsSupported() bool {
	const probeService, probeUser = "azvault-probe", "probe"
	if err := keyring.Set(probeService, probeUser, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(probeService, probeUser)
	return true
}
