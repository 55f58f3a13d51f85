package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	policyFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "moonwatch",
	Short: "moonwatch - market signal confidence engine",
	Long: `moonwatch Unified CLI

Scores tickers across weighted signal categories, issues directional
calls with confidence tiers, and tracks each call through its
observation window to an outcome.

Usage:
  go run ./cmd/moonwatch [command]

Examples:
  go run ./cmd/moonwatch api
  go run ./cmd/moonwatch scan AAPL TSLA
  go run ./cmd/moonwatch scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&policyFile, "policy", "", "policy file (default is POLICY_PATH or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
