package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the kgrouter application.
var rootCmd = &cobra.Command{
	Use:   "kgrouter",
	Short: "Route MCP context tools to knowledge-graph domain servers",
	Long: `kgrouter presents a single MCP endpoint to a calling agent and forwards
each context tool invocation to one of several independently-running
knowledge-graph domain servers (developer, project, student,
qualitative-research, quantitative-research), based on the active domain.`,
	// Handled errors should not trigger a usage dump.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main with
// the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "kgrouter version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
