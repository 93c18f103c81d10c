package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the forecast CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "forecast version %s\n", version)
		fmt.Fprintln(out, "Monthly financial projections driven by sandboxed formulas")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
