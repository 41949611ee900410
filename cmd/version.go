package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/pr-pathways/internal/catalog"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)

		if c, err := catalog.LoadEmbedded(); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "embedded catalog: %s (%d programs)\n", c.Version(), c.Len())
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
