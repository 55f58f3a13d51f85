package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/moonwatch/backend/internal/view"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [tickers...]",
	Short: "Run one scan cycle",
	Long: `Runs a single scan cycle over the given tickers (or SCAN_UNIVERSE
when none are given), prints the signals it issues, and exits.

Example:
  go run ./cmd/moonwatch scan
  go run ./cmd/moonwatch scan AAPL TSLA GME`,
	RunE: runScan,
}

var scanTimeout time.Duration

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 2*time.Minute, "cycle deadline")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	universe := a.cfg.Scan.Universe
	if len(args) > 0 {
		universe = make([]string, len(args))
		for i, t := range args {
			universe[i] = strings.ToUpper(strings.TrimSpace(t))
		}
	}
	if len(universe) == 0 {
		return fmt.Errorf("no tickers: pass them as arguments or set SCAN_UNIVERSE")
	}

	a.warmBook()

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	// Prices first so issuance has fresh entry prices.
	if _, err := a.poller.Poll(ctx, universe); err != nil {
		a.log.WithError(err).Warn("price poll failed, scan may skip tickers")
	}

	result, err := a.eng.RunCycle(ctx, universe)
	if err != nil {
		return fmt.Errorf("scan cycle: %w", err)
	}

	fmt.Printf("Cycle finished in %v: %d issued, %d skipped, %d failed, %d dropped\n",
		result.Duration.Round(time.Millisecond), result.Issued, result.Skipped, result.Failed, result.Dropped)

	views := view.ProjectSignals(a.eng.Book().Active(), view.Options{
		Key:           view.SortByConfidence,
		MinConfidence: a.pol.View.MinConfidence,
	})
	for _, v := range views {
		fmt.Printf("  %-6s %-4s %-8s conf=%5.1f entry=%.2f target=[%.2f, %.2f]\n",
			v.Ticker, v.Direction, v.Tier, v.FinalConfidence, v.EntryPrice, v.TargetLow, v.TargetHigh)
	}
	if len(views) == 0 {
		fmt.Println("  no signals above the confidence floor")
	}
	return nil
}
