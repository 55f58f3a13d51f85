package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moonwatch/backend/internal/scheduler"
)

// schedulerRunWait bounds how long a one-shot job invocation is allowed
// to run before the process exits.
const schedulerRunWait = 5 * time.Minute

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the job scheduler",
	Long: `Starts the scheduler daemon without the API server.

Registered jobs:
- scan_active: scan cycle on the market-hours cadence
- scan_idle: scan cycle on the off-hours cadence
- lifecycle: price poll plus lifecycle evaluation every 5 minutes
- maintenance: hourly sweep retiring overdue signals

Example:
  go run ./cmd/moonwatch scheduler start
  go run ./cmd/moonwatch scheduler run scan_active
  go run ./cmd/moonwatch scheduler status`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runSchedulerDaemon,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job run statistics",
		RunE:  showSchedulerStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func initScheduler() (*scheduler.Scheduler, *app, context.CancelFunc, error) {
	a, err := initApp()
	if err != nil {
		return nil, nil, nil, err
	}

	a.warmBook()

	ctx, cancel := context.WithCancel(context.Background())
	go a.poller.Run(ctx, a.cfg.Scan.Universe, a.cfg.Feeds.PollInterval)
	if a.stream != nil {
		go func() {
			if err := a.stream.Run(ctx); err != nil && ctx.Err() == nil {
				a.log.WithError(err).Error("price stream stopped")
			}
		}()
	}

	sched := scheduler.New(a.log)
	registerJobs(sched, a)
	return sched, a, cancel, nil
}

func runSchedulerDaemon(cmd *cobra.Command, args []string) error {
	sched, a, cancel, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()
	defer cancel()

	sched.Start()

	fmt.Println("Scheduler started")
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down scheduler...")
	sched.Stop()
	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	sched, a, cancel, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()
	defer cancel()

	fmt.Printf("Running job: %s\n", jobName)
	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// RunJob is asynchronous; give the one-shot invocation time to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case <-time.After(schedulerRunWait):
	}
	return nil
}

func showSchedulerStatus(cmd *cobra.Command, args []string) error {
	sched, a, cancel, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()
	defer cancel()

	stats := sched.Stats()

	fmt.Println("Job statistics:")
	fmt.Println()
	for jobName, stat := range stats {
		fmt.Printf("%s\n", jobName)
		fmt.Printf("  Schedule: %s\n", stat.Schedule)
		fmt.Printf("  Total runs: %d\n", stat.TotalRuns)
		fmt.Printf("  Success rate: %.1f%%\n", stat.SuccessRate*100)
		if stat.LastRun != nil {
			fmt.Printf("  Last run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
	return nil
}
