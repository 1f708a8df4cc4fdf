package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/azvault/go/internal/search"
)

// paletteCmd lets the user pick a command by fuzzy search
var paletteCmd = &cobra.Command{
	Use:   "palette",
	Short: "Pick a command interactively",
	Long: `Open a command palette. Type to filter commands, move with the arrow keys
and press enter to run the highlighted command.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		chosen, ok, err := search.RunPalette(paletteCommands())
		if err != nil {
			handleError(err, "Command palette failed")
			return
		}
		if !ok {
			fmt.Println("No selection made")
			return
		}

		target, _, err := rootCmd.Find([]string{chosen.ID})
		if err != nil || target.Run == nil {
			handleError(fmt.Errorf("unknown command %q", chosen.ID), "")
			return
		}
		printVerbose("Running %s", target.CommandPath())
		target.SetContext(cmd.Context())
		target.Run(target, nil)
	},
}

// paletteCommands lists the top-level commands that run without arguments
func paletteCommands() []search.Command {
	var commands []search.Command
	for _, c := range rootCmd.Commands() {
		if c.Name() == "palette" || c.Run == nil || c.Hidden || !acceptsNoArgs(c) {
			continue
		}
		commands = append(commands, search.Command{ID: c.Name(), Title: c.Name(), Hint: c.Short})
	}
	return commands
}

func acceptsNoArgs(c *cobra.Command) bool {
	return c.Args == nil || c.Args(c, nil) == nil
}
