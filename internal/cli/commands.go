package cli

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/azvault/go/internal/audit"
	"github.com/azvault/go/internal/confirm"
	"github.com/azvault/go/internal/exposure"
	"github.com/azvault/go/internal/search"
	"github.com/azvault/go/internal/vault"
	"github.com/azvault/go/internal/view"
)

// getCmd reveals a secret with auto-hide
var getCmd = &cobra.Command{
	Use:     "get [name]",
	Aliases: []string{"reveal"},
	Short:   "Reveal a secret value",
	Long: `Fetch a secret and show it masked. Press r to reveal it for the configured
auto-hide time, c to copy it, h to hide it again and q to quit. If no name is
provided, an interactive picker opens.

Examples:
  azvault get db-password          # Open the reveal view
  azvault get                      # Pick a secret interactively
  azvault get --stdout db-password # Print the value for scripting`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		ws, err := openWorkspace()
		if err != nil {
			handleError(err, "Authentication failed")
			return
		}
		defer ws.Close()

		scope, err := ws.newScope(ctx, vault.KindSecret)
		if err != nil {
			handleError(err, "Failed to list secrets")
			return
		}
		defer scope.Close()

		name, ok := resolveName(scope, args)
		if !ok {
			fmt.Println("No selection made")
			return
		}

		revealer := scope.Revealer()
		if err := revealer.Fetch(ctx, name); err != nil {
			handleError(err, fmt.Sprintf("Failed to get secret '%s'", name))
			return
		}

		if ws.reauth != nil {
			if err := verifyPassword("Re-enter vault password to reveal: "); err != nil {
				handleError(err, "Re-authentication failed")
				return
			}
			ws.reauth.Set(true)
		}

		if toStdout, _ := cmd.Flags().GetBool("stdout"); toStdout {
			if err := revealer.Reveal(); err != nil {
				handleError(err, "Failed to reveal secret")
				return
			}
			plaintext, _ := revealer.Plaintext()
			fmt.Println(plaintext)
			return
		}

		var copier exposure.Copier
		if ws.guard.Enabled() {
			copier = ws.guard
		}
		if err := exposure.RunReveal(revealer, copier); err != nil {
			ws.fail(err, "Reveal view failed")
			return
		}
		ws.holdClipboard()
	},
}

// copyCmd copies a secret without showing it
var copyCmd = &cobra.Command{
	Use:   "copy [name]",
	Short: "Copy a secret to the clipboard",
	Long: `Copy a secret value to the clipboard without displaying it. The clipboard
is cleared after the configured delay, or immediately on Ctrl+C.

Examples:
  azvault copy db-password
  azvault copy                # Pick a secret interactively`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		ws, err := openWorkspace()
		if err != nil {
			handleError(err, "Authentication failed")
			return
		}
		defer ws.Close()

		if !ws.guard.Enabled() {
			handleError(errors.New("clipboard copy is disabled or unsupported"), "")
			return
		}

		scope, err := ws.newScope(ctx, vault.KindSecret)
		if err != nil {
			handleError(err, "Failed to list secrets")
			return
		}
		defer scope.Close()

		name, ok := resolveName(scope, args)
		if !ok {
			fmt.Println("No selection made")
			return
		}

		revealer := scope.Revealer()
		if err := revealer.Fetch(ctx, name); err != nil {
			handleError(err, fmt.Sprintf("Failed to get secret '%s'", name))
			return
		}
		value, _ := revealer.Value()
		if !ws.guard.Copy(value.Plaintext()) {
			handleError(errors.New("could not write to the clipboard"), "Copy failed")
			return
		}
		revealer.Clear()

		printSuccess("Copied '%s' to clipboard", name)
		ws.holdClipboard()
	},
}

// setCmd stores a secret or adds a new version
var setCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Store or update a secret",
	Long: `Store a new secret in the vault or add a new version to an existing one.
The value is always read securely from stdin (hidden input).

Examples:
  azvault set api-token                       # Prompt for the value
  azvault set -g db-password                  # Generate a random value and copy it
  azvault set --tag env=prod --tag team=core api-token
  azvault set --content-type text/plain --expires 2030-01-01 api-token`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		name := args[0]
		if err := vault.ValidateName(name); err != nil {
			handleError(err, "")
			return
		}

		ws, err := openWorkspace()
		if err != nil {
			handleError(err, "Authentication failed")
			return
		}
		defer ws.Close()

		generate, _ := cmd.Flags().GetBool("generate")
		var value string
		if generate {
			if !ws.guard.Enabled() {
				handleError(errors.New("clipboard not available"), "Cannot generate secret without clipboard support")
				return
			}
			length, _ := cmd.Flags().GetInt("length")
			if value, err = generateSecret(length); err != nil {
				handleError(err, "Failed to generate secret")
				return
			}
		} else {
			if value, err = promptPassword("Enter secret value: "); err != nil {
				handleError(err, "Failed to read secret value")
				return
			}
		}
		if err := vault.ValidateValue(value); err != nil {
			handleError(err, "")
			return
		}

		req := createRequestFromFlags(cmd, name, value)

		existing, err := ws.client.ListItems(ctx, cfg.VaultName, vault.KindSecret)
		if err != nil {
			handleError(err, "Failed to list secrets")
			return
		}
		if containsItem(existing, name) && !confirmYes(fmt.Sprintf("Secret '%s' already exists. Add a new version?", name)) {
			fmt.Println("Cancelled")
			return
		}

		item, err := ws.client.SetItem(ctx, cfg.VaultName, req)
		ws.audit.Append(audit.NewEntry(cfg.VaultName, audit.ActionSetSecret, string(vault.KindSecret), name, err).
			WithDetails(audit.DetailValueSet))
		if err != nil {
			handleError(err, fmt.Sprintf("Failed to store secret '%s'", name))
			return
		}

		printSuccess("Secret '%s' stored", item.Name)
		printVerbose("Stored secret %s", item.ID)

		if generate {
			if !ws.guard.Copy(value) {
				handleError(errors.New("could not write to the clipboard"), "Failed to copy generated secret")
				return
			}
			printSuccess("Generated value copied to clipboard")
			ws.holdClipboard()
		}
	},
}

// deleteCmd soft-deletes one secret
var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a secret from the vault",
	Long: `Delete a secret. Deleted secrets can be restored with 'azvault recover'
until they are purged.

Examples:
  azvault delete api-token
  azvault delete -f api-token    # Delete without confirmation`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		if err := vault.ValidateName(name); err != nil {
			handleError(err, "")
			return
		}

		ws, err := openWorkspace()
		if err != nil {
			handleError(err, "Authentication failed")
			return
		}
		defer ws.Close()

		if !confirmYes(fmt.Sprintf("Are you sure you want to delete secret '%s'?", name)) {
			fmt.Println("Cancelled")
			return
		}

		err = ws.client.DeleteItem(cmd.Context(), cfg.VaultName, name)
		ws.audit.Append(audit.NewEntry(cfg.VaultName, audit.ActionDeleteSecret, string(vault.KindSecret), name, err))
		if err != nil {
			handleError(err, fmt.Sprintf("Failed to delete secret '%s'", name))
			return
		}

		printSuccess("Secret '%s' deleted", name)
	},
}

// recoverCmd restores a soft-deleted secret
var recoverCmd = &cobra.Command{
	Use:   "recover <name>",
	Short: "Restore a deleted secret",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		if err := vault.ValidateName(name); err != nil {
			handleError(err, "")
			return
		}

		ws, err := openWorkspace()
		if err != nil {
			handleError(err, "Authentication failed")
			return
		}
		defer ws.Close()

		err = ws.client.RecoverItem(cmd.Context(), cfg.VaultName, name)
		ws.audit.Append(audit.NewEntry(cfg.VaultName, audit.ActionRecoverSecret, string(vault.KindSecret), name, err))
		if err != nil {
			handleError(err, fmt.Sprintf("Failed to recover secret '%s'", name))
			return
		}

		printSuccess("Secret '%s' recovered", name)
	},
}

// purgeCmd permanently removes a soft-deleted secret
var purgeCmd = &cobra.Command{
	Use:   "purge <name>",
	Short: "Permanently remove a deleted secret",
	Long: `Permanently remove a deleted secret. This cannot be undone, so the word
"purge" must be typed to confirm, even with --force.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		if err := vault.ValidateName(name); err != nil {
			handleError(err, "")
			return
		}

		ws, err := openWorkspace()
		if err != nil {
			handleError(err, "Authentication failed")
			return
		}
		defer ws.Close()

		gate := confirm.NewDialog(confirm.WithTypedToken(confirm.PurgeToken, false))
		gate.Open()
		gate.SetInput(promptLine(fmt.Sprintf("Type %s to permanently remove '%s': ",
			color.YellowString(confirm.PurgeToken), name)))
		if err := gate.Check(); err != nil {
			handleError(err, "Purge cancelled")
			return
		}

		err = ws.client.PurgeItem(cmd.Context(), cfg.VaultName, name)
		ws.audit.Append(audit.NewEntry(cfg.VaultName, audit.ActionPurgeSecret, string(vault.KindSecret), name, err))
		if err != nil {
			handleError(err, fmt.Sprintf("Failed to purge secret '%s'", name))
			return
		}

		printSuccess("Secret '%s' purged", name)
	},
}

// Command flag initialization
func init() {
	getCmd.Flags().Bool("stdout", false, "Print the value instead of opening the reveal view")

	setCmd.Flags().BoolP("generate", "g", false, "Auto-generate a random secret")
	setCmd.Flags().IntP("length", "l", 24, "Length of generated secret")
	setCmd.Flags().String("content-type", "", "Content type of the value")
	setCmd.Flags().StringToString("tag", nil, "Tag as key=value, repeatable")
	setCmd.Flags().String("expires", "", "Expiry date (RFC 3339 or YYYY-MM-DD)")
	setCmd.Flags().String("not-before", "", "Activation date (RFC 3339 or YYYY-MM-DD)")
	setCmd.Flags().Bool("disabled", false, "Store the secret disabled")
}

// resolveName returns the name argument, or asks the user to pick one of
// the scope's items
func resolveName(scope *view.ListScope, args []string) (string, bool) {
	if len(args) == 1 {
		return args[0], true
	}

	items := scope.Items()
	if len(items) == 0 {
		fmt.Println("No secrets stored in vault")
		return "", false
	}

	commands := make([]search.Command, len(items))
	for i, item := range items {
		commands[i] = search.Command{ID: item.Name, Title: item.Name, Hint: formatDate(item.Updated)}
	}
	chosen, ok, err := search.RunPalette(commands)
	if err != nil {
		handleError(err, "Interactive search failed")
		return "", false
	}
	return chosen.ID, ok
}

// createRequestFromFlags builds the create request of set
func createRequestFromFlags(cmd *cobra.Command, name, value string) vault.CreateRequest {
	req := vault.CreateRequest{Name: name, Value: value}

	if contentType, _ := cmd.Flags().GetString("content-type"); contentType != "" {
		req.ContentType = &contentType
	}
	if tags, _ := cmd.Flags().GetStringToString("tag"); len(tags) > 0 {
		req.Tags = tags
	}
	if disabled, _ := cmd.Flags().GetBool("disabled"); disabled {
		enabled := false
		req.Enabled = &enabled
	}
	for flag, dst := range map[string]**string{"expires": &req.Expires, "not-before": &req.NotBefore} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			*dst = &v
		}
	}
	return req
}

func containsItem(items []vault.Item, name string) bool {
	for _, item := range items {
		if item.Name == name {
			return true
		}
	}
	return false
}

// generateSecret generates a cryptographically secure random secret
func generateSecret(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()-_=+[]{}|;:,.<>?"

	if length < 8 {
		return "", fmt.Errorf("secret length must be at least 8 characters")
	}
	if length > 256 {
		return "", fmt.Errorf("secret length must not exceed 256 characters")
	}

	limit := big.NewInt(int64(len(charset)))
	secret := make([]byte, length)
	for i := range secret {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		secret[i] = charset[n.Int64()]
	}

	return string(secret), nil
}
