package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moonwatch/backend/internal/policy"
	"github.com/moonwatch/backend/pkg/config"
)

// policyCmd represents the policy command
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect the scoring policy",
	Long: `Loads the policy file, validates it, and prints the effective values.

Example:
  go run ./cmd/moonwatch policy check
  go run ./cmd/moonwatch policy check --policy config/policy.yaml`,
}

var policyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate and print the effective policy",
	RunE:  runPolicyCheck,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyCheckCmd)
}

func runPolicyCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := cfg.PolicyPath
	if policyFile != "" {
		path = policyFile
	}

	pol, err := policy.Load(path)
	if err != nil {
		return fmt.Errorf("policy invalid: %w", err)
	}

	if path == "" {
		fmt.Println("Policy: built-in reference values")
	} else {
		fmt.Printf("Policy: %s\n", path)
	}
	fmt.Println()
	fmt.Printf("Weights:   technical=%.2f sentiment=%.2f social=%.2f earnings=%.2f (sum=%.4f)\n",
		pol.Weights.Technical, pol.Weights.Sentiment, pol.Weights.Social, pol.Weights.Earnings, pol.Weights.Sum())
	fmt.Printf("Votes:     up=%+.1f down=%+.1f pass=%+.1f\n",
		pol.Votes.UpDelta, pol.Votes.DownDelta, pol.Votes.PassDelta)
	fmt.Printf("Lifecycle: window=%v grace=%v freshness=%v\n",
		pol.Lifecycle.ObservationWindow, pol.Lifecycle.GracePeriod, pol.Lifecycle.PriceFreshness)
	fmt.Printf("Targets:   move=%.1f%% stop=%.1f%% partial-floor=%.1f%%\n",
		pol.Lifecycle.TargetMovePct, pol.Lifecycle.StopMovePct, pol.Lifecycle.MinFavorableMovePct)
	fmt.Printf("View:      min-confidence=%.1f\n", pol.View.MinConfidence)
	return nil
}
