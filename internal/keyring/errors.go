package keyring

import "errors"

var (
	// ErrKeyringDisabled is returned when --no-keyring turned the manager off
	ErrKeyringDisabled = errors.New("keyring is disabled")

	// ErrPasswordNotFound indicates no passphrase is stored for the vault file
	ErrPasswordNotFound = errors.New("no vault password stored in keyring")

	// ErrKeyringNotSupported indicates the OS offers no secret store
	ErrKeyringNotSupported = errors.New("keyring is not supported on this system")
)
