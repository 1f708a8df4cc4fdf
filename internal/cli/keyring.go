package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/azvault/go/internal/database"
	"github.com/azvault/go/internal/keyring"
)

var keyringCmd = &cobra.Command{
	Use:   "keyring",
	Short: "Manage keyring integration",
	Long:  `Manage system keyring integration for storing the vault password securely.`,
}

var keyringStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show keyring status",
	Long:  `Display the current status of keyring integration.`,
	Run: func(cmd *cobra.Command, args []string) {
		km := newKeyringManager()

		fmt.Println("Keyring Status:")
		fmt.Printf("  Service: %s\n", km.ServiceName())
		fmt.Printf("  Account: %s\n", km.Account())
		fmt.Printf("  Enabled: %t\n", km.IsEnabled())
		fmt.Printf("  Has Stored Password: %t\n", km.HasPassword())
	},
}

var keyringSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save vault password to keyring",
	Long:  `Save the vault password to the system keyring for automatic authentication.`,
	Run: func(cmd *cobra.Command, args []string) {
		km := newKeyringManager()

		if !km.IsEnabled() {
			fmt.Println("Keyring is disabled")
			return
		}
		if !keyring.IsSupported() {
			handleError(keyring.ErrKeyringNotSupported, "")
			return
		}

		if km.HasPassword() && !confirmYes("Password already stored. Overwrite?") {
			fmt.Println("Cancelled")
			return
		}

		password, err := promptPassword("Enter vault password to store: ")
		if err != nil {
			handleError(err, "Failed to read password")
			return
		}

		// Verify the password works by attempting to connect
		db := database.NewVaultDatabase(cfg.VaultPath)
		if err := db.Connect(password); err != nil {
			handleError(err, "Invalid password")
			return
		}
		db.Close()

		if err := km.SavePassword(password); err != nil {
			handleError(err, "Failed to save password to keyring")
			return
		}

		printSuccess("Password saved to keyring")
	},
}

var keyringClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove vault password from keyring",
	Long:  `Remove the stored vault password from the system keyring.`,
	Run: func(cmd *cobra.Command, args []string) {
		km := newKeyringManager()

		if !km.HasPassword() {
			fmt.Println("No password stored in keyring")
			return
		}

		if !confirmYes("Remove password from keyring?") {
			fmt.Println("Cancelled")
			return
		}

		if err := km.DeletePassword(); err != nil {
			handleError(err, "Failed to remove password from keyring")
			return
		}

		printSuccess("Password removed from keyring")
	},
}

func init() {
	keyringCmd.AddCommand(keyringStatusCmd)
	keyringCmd.AddCommand(keyringSetCmd)
	keyringCmd.AddCommand(keyringClearCmd)
}
