package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/azvault/go/internal/bulk"
	"github.com/azvault/go/internal/config"
	"github.com/azvault/go/internal/confirm"
	"github.com/azvault/go/internal/database"
	"github.com/azvault/go/internal/importer"
	"github.com/azvault/go/internal/keyring"
	"github.com/azvault/go/internal/logging"
	"github.com/azvault/go/internal/vault"
)

var (
	// Global flags
	vaultPath  string
	vaultName  string
	configPath string
	verbose    bool
	force      bool
	noKeyring  bool

	// Global instances
	cfg    config.Config
	logger = zerolog.Nop()
	stdin  = bufio.NewReader(os.Stdin)
	exit   = os.Exit
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "azvault",
	Short: "Browse and manage vault secrets from the terminal",
	Long: `azvault lists, reveals and manages the secrets of a vault with
guarded clipboard copies, timed reveals and confirmed bulk operations.

Features:
- SQLCipher encrypted local vault
- Timed reveal that hides and discards values
- Clipboard copies that clear themselves
- Typed confirmation for bulk delete and purge
- Bulk import and metadata export
- Redacted audit trail

Examples:
  azvault list                     # List all secrets
  azvault get db-password          # Reveal a secret with auto-hide
  azvault copy db-password         # Copy, then clear the clipboard
  azvault bulk-delete --prefix tmp # Delete every secret starting with "tmp"
  azvault import secrets.json      # Create secrets from a JSON file
  azvault export --format csv      # Export metadata, never values
  azvault palette                  # Pick a command interactively`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initializeGlobals(cmd)
	},
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// SetVersion sets the version information for the CLI
func SetVersion(version, commit, date string) {
	versionInfo.version = version
	versionInfo.commit = commit
	versionInfo.date = date
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&vaultPath, "vault", "v", "", "Path to vault database file")
	rootCmd.PersistentFlags().StringVarP(&vaultName, "name", "n", "", "Name of the vault inside the database")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&force, "force", "f", false, "Force operation without confirmation")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noKeyring, "no-keyring", false, "Never read or write the system keyring")

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{ID: "management", Title: "Management Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "secret", Title: "Secret Operations:"})
	rootCmd.AddGroup(&cobra.Group{ID: "bulk", Title: "Bulk Operations:"})

	// Secret operations
	for _, cmd := range []*cobra.Command{getCmd, copyCmd, setCmd, deleteCmd, recoverCmd, purgeCmd} {
		cmd.GroupID = "secret"
		rootCmd.AddCommand(cmd)
	}

	// Bulk operations
	for _, cmd := range []*cobra.Command{bulkDeleteCmd, importCmd, exportCmd} {
		cmd.GroupID = "bulk"
		rootCmd.AddCommand(cmd)
	}

	// Management commands
	for _, cmd := range []*cobra.Command{initCmd, listCmd, paletteCmd, auditCmd, statusCmd, versionCmd, keyringCmd, rekeyCmd} {
		cmd.GroupID = "management"
		rootCmd.AddCommand(cmd)
	}
}

// initializeGlobals loads the configuration and applies flag overrides
func initializeGlobals(cmd *cobra.Command) {
	loaded, err := config.Load(configPath)
	if err != nil {
		handleError(err, "Failed to load configuration")
		return
	}
	cfg = loaded

	if cmd.Flags().Changed("vault") {
		cfg.VaultPath = vaultPath
	}
	if cmd.Flags().Changed("name") {
		cfg.VaultName = vaultName
	}
	vaultPath, vaultName = cfg.VaultPath, cfg.VaultName

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger = logging.New(os.Stderr, level)

	printVerbose("Vault path: %s", cfg.VaultPath)
	printVerbose("Vault name: %s", cfg.VaultName)
	printVerbose("Config path: %s", configPath)
}

// newKeyringManager returns the keyring entry of the current vault file
func newKeyringManager() *keyring.Manager {
	account := cfg.VaultPath
	if abs, err := filepath.Abs(cfg.VaultPath); err == nil {
		account = abs
	}
	km := keyring.NewManager(account)
	if noKeyring {
		km.Disable()
	}
	return km
}

// connect opens the vault database, trying the keyring before prompting
func connect() (*database.VaultDatabase, error) {
	if _, err := os.Stat(cfg.VaultPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no vault at %s, run 'azvault init' first", cfg.VaultPath)
	}

	db := database.NewVaultDatabase(cfg.VaultPath)
	km := newKeyringManager()

	if password, err := km.GetPassword(); err == nil {
		if err := db.Connect(password); err == nil {
			printVerbose("Authenticated using keyring")
			return db, nil
		}
		printVerbose("Keyring password rejected")
	} else {
		printVerbose("Keyring authentication unavailable: %v", err)
	}

	password, err := promptPassword("Enter vault password: ")
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if err := db.Connect(password); err != nil {
		return nil, err
	}

	if saved, err := km.PromptToSave(password, stdin, os.Stdout); err != nil {
		printVerbose("Failed to save password to keyring: %v", err)
	} else if saved {
		fmt.Println("Password saved to keyring")
	}
	return db, nil
}

// verifyPassword prompts for the vault password and checks it against the
// database without touching the open connection
func verifyPassword(prompt string) error {
	password, err := promptPassword(prompt)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	probe := database.NewVaultDatabase(cfg.VaultPath)
	if err := probe.Connect(password); err != nil {
		return err
	}
	return probe.Close()
}

// promptPassword prompts the user for a password with hidden input
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)

	// Read password without echoing to terminal
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // Print newline after password input

	if err != nil {
		return "", err
	}

	return string(passwordBytes), nil
}

// promptLine reads one line of visible input
func promptLine(prompt string) string {
	fmt.Print(prompt)
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

// confirmYes asks a y/N question. --force answers yes.
func confirmYes(prompt string) bool {
	if force {
		return true
	}
	response := strings.ToLower(promptLine(prompt + " (y/N): "))
	return response == "y" || response == "yes"
}

// exitCode maps an error to the process exit status
func exitCode(err error) int {
	switch {
	case errors.Is(err, database.ErrAuthenticationFailed):
		return 2
	case errors.Is(err, vault.ErrNotFound), errors.Is(err, vault.ErrNotDeleted), errors.Is(err, bulk.ErrNoItems):
		return 3
	case errors.Is(err, vault.ErrInvalidName), errors.Is(err, vault.ErrInvalidValue), importer.IsValidationError(err),
		errors.Is(err, importer.ErrEmpty), errors.Is(err, importer.ErrShape), errors.Is(err, importer.ErrMalformed):
		return 4
	case errors.Is(err, confirm.ErrRejected):
		return 5
	case errors.Is(err, vault.ErrTransport):
		return 6
	default:
		return 1
	}
}

// handleError handles errors with appropriate output and exit codes
func handleError(err error, message string) {
	if err == nil {
		return
	}

	if message != "" {
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", color.RedString("✗"), message, err)
	} else {
		fmt.Fprintf(os.Stderr, "%s Error: %v\n", color.RedString("✗"), err)
	}

	exit(exitCode(err))
}

// printSuccess prints a completed action
func printSuccess(format string, args ...interface{}) {
	fmt.Printf(color.GreenString("✓")+" "+format+"\n", args...)
}

// printVerbose prints verbose output if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

// ensureVaultDirectory ensures the vault directory exists
func ensureVaultDirectory() error {
	dir := filepath.Dir(cfg.VaultPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}
	return nil
}
