// Package cli defines the Cobra command tree for the weaver CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "weaver",
	Short: "Context and generation orchestrator for LLM coding workflows",
	Long: `Weaver assembles the right context for LLM code generation and keeps
generation reliable.

It indexes your codebase for relevance retrieval, fits code and
conversation history under token budgets, breaks complex build requests
into ordered steps, and retries degenerate model output with targeted
prompt adjustments.

Run 'weaver init' in any project directory to get started.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(
		newInitCmd(),
		newIndexCmd(),
		newPlanCmd(),
		newContextCmd(),
		newRunCmd(),
		newEstimateCmd(),
		newStatusCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("weaver %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
