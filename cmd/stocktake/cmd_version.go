package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yairfalse/stocktake/internal/plugin"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the stocktake version",
	Args:  cobra.NoArgs,
	// Overrides the root hook: no config resolution.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Stocktake %s - Cloud Resource Inventory\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "Plugins: %s\n", strings.Join(plugin.Names(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
