package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/azvault/go/internal/audit"
	"github.com/azvault/go/internal/bulk"
	"github.com/azvault/go/internal/clipboard"
	"github.com/azvault/go/internal/confirm"
	"github.com/azvault/go/internal/export"
	"github.com/azvault/go/internal/importer"
	"github.com/azvault/go/internal/vault"
)

// bulkDeleteCmd deletes many secrets after a typed confirmation
var bulkDeleteCmd = &cobra.Command{
	Use:   "bulk-delete [name...]",
	Short: "Delete several secrets at once",
	Long: `Delete the named secrets, every secret starting with --prefix, or every
secret whose name contains --match. The word "delete" must be typed to
confirm, even with --force.

Examples:
  azvault bulk-delete old-token legacy-db
  azvault bulk-delete --prefix tmp-
  azvault bulk-delete --match staging`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		prefix, _ := cmd.Flags().GetString("prefix")
		match, _ := cmd.Flags().GetString("match")

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

		s := newSpinner(" Deleting...")
		dialog := bulk.NewDeleteDialog(ws.newOrchestrator(s, "Deleting"), ws.client, cfg.VaultName, scope, ws.audit, logger)

		if cmd.Flags().Changed("prefix") {
			if _, err := dialog.OpenPrefix(ctx, prefix); err != nil {
				handleError(err, fmt.Sprintf("Nothing to delete for prefix '%s'", prefix))
				return
			}
		} else {
			for _, name := range args {
				if !scope.SelectByName(name) {
					handleError(fmt.Errorf("%w: %s", vault.ErrNotFound, name), "")
					return
				}
			}
			if match != "" {
				scope.ToggleAllVisible(match, true)
			}
			selected := scope.SelectedItems()
			if len(selected) == 0 {
				handleError(bulk.ErrNoItems, "Nothing to delete")
				return
			}
			dialog.Open(selected)
		}

		items := dialog.Items()
		fmt.Printf("The following %d secrets will be deleted:\n", len(items))
		for _, item := range items {
			fmt.Printf("  %s %s\n", color.RedString("-"), item.Name)
		}
		dialog.SetConfirmation(promptLine(fmt.Sprintf("Type %s to confirm: ", color.YellowString(confirm.DeleteToken))))

		s.Start()
		result, err := dialog.Run(ctx)
		s.Stop()
		if err != nil {
			handleError(err, "Bulk delete cancelled")
			return
		}

		reportResult(result, "Deleted")
	},
}

// importCmd creates secrets from a JSON file
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create secrets from a JSON file",
	Long: `Create or update secrets from a JSON array, or an object with a "secrets"
array. Every entry needs a name and a value and may set contentType, enabled,
expires, notBefore and tags. The whole file is validated before anything is
written. Use - to read from stdin together with --force.

Example file:
  [{"name": "api-token", "value": "s3cr3t", "tags": {"env": "prod"}}]`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		raw, err := readInput(args[0])
		if err != nil {
			handleError(err, "Failed to read import file")
			return
		}

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

		s := newSpinner(" Importing...")
		dialog := bulk.NewImportDialog(ws.newOrchestrator(s, "Importing"), ws.client, cfg.VaultName, scope, ws.audit, logger)
		dialog.Open()

		requests, err := dialog.Load(raw)
		if err != nil {
			var ve *importer.ValidationError
			if errors.As(err, &ve) {
				fmt.Fprintf(os.Stderr, "%s Import file has %d problems:\n", color.RedString("✗"), len(ve.Issues))
				for _, issue := range ve.Issues {
					fmt.Fprintf(os.Stderr, "  %s %s\n", color.CyanString("→"), issue)
				}
				os.Exit(exitCode(err))
			}
			handleError(err, "Invalid import file")
			return
		}

		current := scope.Items()
		existing := 0
		for _, req := range requests {
			if containsItem(current, req.Name) {
				existing++
			}
		}
		prompt := fmt.Sprintf("Import %d secrets?", len(requests))
		if existing > 0 {
			prompt = fmt.Sprintf("Import %d secrets (%d add a new version to an existing secret)?", len(requests), existing)
		}
		if !confirmYes(prompt) {
			dialog.Close()
			fmt.Println("Cancelled")
			return
		}

		s.Start()
		result, err := dialog.Run(ctx)
		s.Stop()
		if err != nil {
			handleError(err, "Import failed")
			return
		}

		reportResult(result, "Imported")
	},
}

// exportCmd writes item metadata to a file or the clipboard
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export item metadata",
	Long: `Export the metadata of the listed items as JSON or CSV. Values are never
exported. The export goes to --output, or to the clipboard when no file can be
written.

Examples:
  azvault export --output secrets.json
  azvault export --format csv --output secrets.csv
  azvault export --kind all --format csv`,
	Run: func(cmd *cobra.Command, args []string) {
		formatFlag, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(formatFlag)
		if err != nil {
			handleError(err, "")
			return
		}
		kind, err := parseKind(cmd)
		if err != nil {
			handleError(err, "")
			return
		}
		output, _ := cmd.Flags().GetString("output")

		ws, err := openWorkspace()
		if err != nil {
			handleError(err, "Authentication failed")
			return
		}
		defer ws.Close()

		scope, err := ws.newScope(cmd.Context(), kind)
		if err != nil {
			handleError(err, "Failed to list items")
			return
		}
		items := scope.Items()
		scope.Close()

		data, err := export.Render(items, format)
		ws.audit.Append(audit.NewEntry(cfg.VaultName, audit.ActionExportItems, string(kind), "", err).
			WithDetails(fmt.Sprintf("%d items as %s", len(items), format)))
		if err != nil {
			handleError(err, "Failed to render export")
			return
		}

		var clip export.ClipboardWriter
		if clipboard.IsSupported() {
			clip = clipboard.System{}
		}
		dest, err := export.Deliver(data, output, clip)
		if err != nil {
			handleError(err, "Export failed")
			return
		}

		switch dest {
		case export.DestinationDisk:
			printSuccess("Exported %d items to %s", len(items), output)
		case export.DestinationClipboard:
			printSuccess("Exported %d items to the clipboard", len(items))
		}
	},
}

func init() {
	bulkDeleteCmd.Flags().String("prefix", "", "Delete every secret whose name starts with prefix")
	bulkDeleteCmd.Flags().String("match", "", "Delete every secret whose name contains text")

	exportCmd.Flags().String("format", string(export.FormatJSON), "Output format: json, csv")
	exportCmd.Flags().StringP("output", "o", "", "File to write; the clipboard is used when empty or unwritable")
	exportCmd.Flags().String("kind", "secret", "Item kind: secret, key, certificate, all")
}

// reportResult prints the outcome of a bulk run and exits non-zero when
// items failed
func reportResult(result bulk.Result, verb string) {
	succeeded := len(result.SucceededIDs)
	printSuccess("%s %d of %d items", verb, succeeded, result.Total)
	if result.PartiallyFailed() {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("✗"), result.Summary())
		os.Exit(1)
	}
}

// readInput reads path, or stdin for "-"
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
