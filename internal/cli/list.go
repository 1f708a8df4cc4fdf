package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/azvault/go/internal/audit"
	"github.com/azvault/go/internal/clipboard"
	"github.com/azvault/go/internal/database"
	"github.com/azvault/go/internal/keyring"
	"github.com/azvault/go/internal/search"
	"github.com/azvault/go/internal/vault"
)

// listCmd represents the list/search command for showing items
var listCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List or search vault items",
	Long: `List the items of the vault or rank them against a fuzzy query.
Values are never listed.

Examples:
  azvault list                     # List all secrets
  azvault list api                 # Search for secrets matching "api"
  azvault list --kind all          # Secrets, keys and certificates
  azvault list --deleted           # Deleted items awaiting purge
  azvault list --format table      # List in table format`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kind, err := parseKind(cmd)
		if err != nil {
			handleError(err, "")
			return
		}

		ws, err := openWorkspace()
		if err != nil {
			handleError(err, "Authentication failed")
			return
		}
		defer ws.Close()

		var items []vault.Item
		if deleted, _ := cmd.Flags().GetBool("deleted"); deleted {
			items, err = ws.client.ListDeleted(cmd.Context(), cfg.VaultName)
			ws.audit.Append(audit.NewEntry(cfg.VaultName, audit.ActionListItems, "deleted", "", err))
		} else {
			scope, scopeErr := ws.newScope(cmd.Context(), kind)
			if scopeErr == nil {
				items = scope.Items()
				scope.Close()
			}
			err = scopeErr
		}
		if err != nil {
			handleError(err, "Failed to list items")
			return
		}

		if len(items) == 0 {
			fmt.Println("No items stored in vault")
			return
		}

		if len(args) > 0 {
			query := args[0]
			limit, _ := cmd.Flags().GetInt("limit")
			matches := search.Filter(items, query, func(item vault.Item) string { return item.Name })
			if len(matches) == 0 {
				fmt.Printf("No matches found for '%s'\n", query)
				return
			}
			if limit > 0 && len(matches) > limit {
				matches = matches[:limit]
			}

			fmt.Printf("Found %d matches for '%s':\n\n", len(matches), query)
			for i, match := range matches {
				fmt.Printf("%d. %s (score: %.1f)\n", i+1, match.Item.Name, match.Score)
			}
			return
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "table":
			printItemsTable(items)
		case "json":
			if err := printItemsJSON(items); err != nil {
				handleError(err, "Failed to encode items")
			}
			return
		default:
			printItemsList(items)
		}

		fmt.Printf("\nTotal: %d items\n", len(items))
	},
}

// initCmd represents the init command for creating a new vault
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new vault",
	Long: `Create a new encrypted vault database with the specified password.

Examples:
  azvault init                # Initialize with password prompt
  azvault init --force        # Overwrite existing vault`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(cfg.VaultPath); err == nil {
			if !force {
				fmt.Printf("Vault already exists at %s\nUse --force to overwrite\n", cfg.VaultPath)
				return
			}
			if err := os.Remove(cfg.VaultPath); err != nil {
				handleError(err, "Failed to remove existing vault")
				return
			}
		}

		if err := ensureVaultDirectory(); err != nil {
			handleError(err, "Failed to create vault directory")
			return
		}

		password, err := promptNewPassword("Enter new vault password: ")
		if err != nil {
			handleError(err, "Failed to read password")
			return
		}

		db := database.NewVaultDatabase(cfg.VaultPath)
		if err := db.Connect(password); err != nil {
			handleError(err, "Failed to initialize vault")
			return
		}
		defer db.Close()

		printSuccess("Vault initialized at %s", cfg.VaultPath)

		km := newKeyringManager()
		if _, err := km.PromptToSave(password, stdin, os.Stdout); err != nil {
			printVerbose("Failed to save password to keyring: %v", err)
		}
	},
}

// rekeyCmd changes the vault password
var rekeyCmd = &cobra.Command{
	Use:   "rekey",
	Short: "Change the vault password",
	Long:  `Re-encrypt the vault with a new password. A password stored in the keyring is updated.`,
	Run: func(cmd *cobra.Command, args []string) {
		current, err := promptPassword("Enter current vault password: ")
		if err != nil {
			handleError(err, "Failed to read password")
			return
		}
		next, err := promptNewPassword("Enter new vault password: ")
		if err != nil {
			handleError(err, "Failed to read password")
			return
		}

		db := database.NewVaultDatabase(cfg.VaultPath)
		if err := db.Rekey(current, next); err != nil {
			handleError(err, "Failed to change password")
			return
		}
		defer db.Close()

		km := newKeyringManager()
		if km.HasPassword() {
			if err := km.SavePassword(next); err != nil {
				handleError(err, "Password changed but keyring update failed")
				return
			}
			printVerbose("Updated keyring password")
		}
		printSuccess("Vault password changed")
	},
}

// statusCmd represents the status command for showing vault info
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vault and clipboard status",
	Long: `Display information about the vault database, the keyring, the clipboard
and the audit log.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Vault Status:\n")
		fmt.Printf("  Path: %s\n", cfg.VaultPath)
		fmt.Printf("  Name: %s\n", cfg.VaultName)
		if _, err := os.Stat(cfg.VaultPath); os.IsNotExist(err) {
			fmt.Printf("  Status: %s\n", color.YellowString("Not initialized"))
		} else {
			fmt.Printf("  Status: %s\n", color.GreenString("Available"))
		}

		km := newKeyringManager()
		fmt.Printf("\nKeyring Status:\n")
		fmt.Printf("  Supported: %t\n", keyring.IsSupported())
		fmt.Printf("  Has Stored Password: %t\n", km.HasPassword())

		fmt.Printf("\nClipboard Status:\n")
		fmt.Printf("  Supported: %t\n", clipboard.IsSupported())
		fmt.Printf("  Copy enabled: %t\n", !cfg.DisableClipboardCopy)
		fmt.Printf("  Clear delay: %v\n", cfg.ClipboardClear())

		fmt.Printf("\nReveal Settings:\n")
		fmt.Printf("  Auto-hide: %v\n", cfg.AutoHide())
		fmt.Printf("  Re-authentication: %t\n", cfg.RequireReauthForReveal)

		fmt.Printf("\nAudit Log:\n")
		if auditLog, err := audit.Open(cfg.AuditDir, logger); err == nil {
			fmt.Printf("  Path: %s\n", auditLog.Path())
			fmt.Printf("  Entries: %d\n", auditLog.Len())
		} else {
			fmt.Printf("  Error: %v\n", err)
		}

		fmt.Printf("\nSystem Info:\n")
		fmt.Printf("  Verbose mode: %v\n", verbose)
		fmt.Printf("  Config path: %s\n", configPath)
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for the azvault CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("azvault version %s\n", getVersion())
		if getCommit() != "unknown" {
			fmt.Printf("commit: %s\n", getCommit())
		}
		if getBuildTime() != "unknown" {
			fmt.Printf("built: %s\n", getBuildTime())
		}
	},
}

func init() {
	listCmd.Flags().String("kind", "secret", "Item kind: secret, key, certificate, all")
	listCmd.Flags().Bool("deleted", false, "List deleted items instead")
	listCmd.Flags().String("format", "list", "Output format: list, table, json")
	listCmd.Flags().Int("limit", 20, "Maximum number of search results to show")
}

// parseKind reads the --kind flag. "all" lists every kind.
func parseKind(cmd *cobra.Command) (vault.Kind, error) {
	value, _ := cmd.Flags().GetString("kind")
	if value == "all" {
		return "", nil
	}
	kind := vault.Kind(value)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown item kind %q", value)
	}
	return kind, nil
}

// promptNewPassword reads a password twice and checks both entries match
func promptNewPassword(prompt string) (string, error) {
	password, err := promptPassword(prompt)
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	again, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if again != password {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

// printItemsList prints items in a simple list format
func printItemsList(items []vault.Item) {
	for _, item := range items {
		state := ""
		if !item.Enabled {
			state = color.YellowString(" [disabled]")
		}
		fmt.Printf("%-40s %-12s updated %s%s\n", item.Name, item.Kind, formatDate(item.Updated), state)
	}
}

// printItemsTable prints items in a table format
func printItemsTable(items []vault.Item) {
	fmt.Printf("%-40s %-12s %-8s %-12s %-12s\n", "NAME", "KIND", "ENABLED", "UPDATED", "EXPIRES")
	fmt.Printf("%-40s %-12s %-8s %-12s %-12s\n", strings.Repeat("-", 40), strings.Repeat("-", 12), strings.Repeat("-", 8), strings.Repeat("-", 12), strings.Repeat("-", 12))

	for _, item := range items {
		fmt.Printf("%-40s %-12s %-8t %-12s %-12s\n",
			truncateString(item.Name, 40),
			item.Kind,
			item.Enabled,
			formatDate(item.Updated),
			formatDate(item.Expires))
	}
}

// printItemsJSON prints item metadata as JSON
func printItemsJSON(items []vault.Item) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(items)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

// truncateString truncates a string to the specified length
func truncateString(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

// Version information functions (these would be set by build flags)
var (
	versionInfo = struct {
		version string
		commit  string
		date    string
	}{
		version: "dev",
		commit:  "unknown",
		date:    "unknown",
	}
)

func getVersion() string {
	return versionInfo.version
}

func getBuildTime() string {
	return versionInfo.date
}

func getCommit() string {
	return versionInfo.commit
}
