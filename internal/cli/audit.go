package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/azvault/go/internal/audit"
	"github.com/azvault/go/internal/clipboard"
	"github.com/azvault/go/internal/export"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit log",
	Long:  `Show, export or clear the local audit log. Secret values are never recorded.`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent audit entries",
	Run: func(cmd *cobra.Command, args []string) {
		auditLog, err := audit.Open(cfg.AuditDir, logger)
		if err != nil {
			handleError(err, "Failed to open audit log")
			return
		}

		limit, _ := cmd.Flags().GetInt("limit")
		entries := auditLog.Entries(limit)
		if len(entries) == 0 {
			fmt.Println("Audit log is empty")
			return
		}

		for _, e := range entries {
			result := color.GreenString(e.Result)
			if e.Result == audit.ResultError {
				result = color.RedString(e.Result)
			}
			details := ""
			if e.Details != nil {
				details = " " + *e.Details
			}
			fmt.Printf("%s  %-16s %-18s %-12s %-30s %s%s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.VaultName, e.Action, e.ItemType, e.ItemName, result, details)
		}
		fmt.Printf("\nShowing %d of %d entries\n", len(entries), auditLog.Len())
	},
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the audit log as JSON",
	Long: `Write the audit log as JSON to --output, or to the clipboard when no file
can be written. Details of value-related entries are redacted.`,
	Run: func(cmd *cobra.Command, args []string) {
		auditLog, err := audit.Open(cfg.AuditDir, logger)
		if err != nil {
			handleError(err, "Failed to open audit log")
			return
		}

		data, err := auditLog.SanitizedExport()
		if err != nil {
			handleError(err, "Failed to export audit log")
			return
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "-" {
			os.Stdout.Write(append(data, '\n'))
			return
		}

		var clip export.ClipboardWriter
		if clipboard.IsSupported() {
			clip = clipboard.System{}
		}
		dest, err := export.Deliver(data, output, clip)
		if err != nil {
			handleError(err, "Audit export failed")
			return
		}
		if dest == export.DestinationDisk {
			printSuccess("Audit log written to %s", output)
		} else {
			printSuccess("Audit log copied to the clipboard")
		}
	},
}

var auditClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every audit entry",
	Run: func(cmd *cobra.Command, args []string) {
		auditLog, err := audit.Open(cfg.AuditDir, logger)
		if err != nil {
			handleError(err, "Failed to open audit log")
			return
		}

		if !confirmYes(fmt.Sprintf("Remove all %d audit entries?", auditLog.Len())) {
			fmt.Println("Cancelled")
			return
		}

		if err := auditLog.Clear(); err != nil {
			handleError(err, "Failed to clear audit log")
			return
		}
		printSuccess("Audit log cleared")
	},
}

func init() {
	auditListCmd.Flags().Int("limit", audit.DefaultReadLimit, "Number of most recent entries to show")
	auditExportCmd.Flags().StringP("output", "o", "", "File to write, - for stdout")

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditExportCmd)
	auditCmd.AddCommand(auditClearCmd)
}
