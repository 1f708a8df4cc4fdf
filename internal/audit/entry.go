// Package audit records what was done to which vault item. Entries carry
// action metadata only; a fetched secret value never reaches this package.
package audit

import "time"

// Action names written to the log
const (
	ActionGetSecretValue = "get_secret_value"
	ActionSetSecret      = "set_secret"
	ActionDeleteSecret   = "delete_secret"
	ActionRecoverSecret  = "recover_secret"
	ActionPurgeSecret    = "purge_secret"
	ActionImportSecret   = "import_secret"
	ActionExportItems    = "export_items"
	ActionListItems      = "list_items"
)

// Result values
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Fixed details for value-bearing actions
const (
	DetailValueRedacted = "[value retrieved - REDACTED]"
	DetailValueSet      = "[value set - REDACTED]"
)

// Redacted replaces details that look like they carry credentials
const Redacted = "[REDACTED]"

// Entry is one audit record
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	VaultName string    `json:"vaultName"`
	Action    string    `json:"action"`
	ItemType  string    `json:"itemType"`
	ItemName  string    `json:"itemName"`
	Result    string    `json:"result"`
	Details   *string   `json:"details,omitempty"`
}

// Sink accepts audit entries. Append never fails from the caller's point of
// view; persistence problems are the sink's concern.
type Sink interface {
	Append(Entry)
}

// NewEntry builds an entry stamped with the current time. A nil err records
// success.
func NewEntry(vaultName, action, itemType, itemName string, err error) Entry {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	return Entry{
		Timestamp: time.Now().UTC(),
		VaultName: vaultName,
		Action:    action,
		ItemType:  itemType,
		ItemName:  itemName,
		Result:    result,
	}
}

// WithDetails returns a copy of e carrying details
func (e Entry) WithDetails(details string) Entry {
	e.Details = &details
	return e
}

// Discard is a Sink that drops every entry
type Discard struct{}

// Append does nothing
func (Discard) Append(Entry) {}
