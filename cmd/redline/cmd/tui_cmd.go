package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"redline/internal/tui"
)

// tuiCmd launches the interactive review browser.
var tuiCmd = &cobra.Command{
	Use:   "tui <file.docx>",
	Short: "Browse a document's tracked changes and comments interactively",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := tui.Run(args[0]); err != nil {
			fmt.Println("Error running TUI:", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
