// Package cli implements the entsync command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/entsync/internal/logger"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "entsync",
	Short: "Sync entities from a source into local destinations",
	Long: `entsync pulls entities from a configured source (a directory tree, a
GitHub repository), routes them through transformer chains, and writes the
results to one or more destinations, tracking fingerprints so unchanged
entities are never rewritten.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "entsync.toml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// ExecuteContext runs the CLI with the given context; cancelling it stops a
// running sync gracefully.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
