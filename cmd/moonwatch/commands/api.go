package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moonwatch/backend/internal/api"
	"github.com/moonwatch/backend/internal/api/handlers"
	"github.com/moonwatch/backend/internal/scheduler"
	"github.com/moonwatch/backend/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the full service: scan scheduler, price feed and REST API.

Endpoints:
  GET  /health                     - Health check
  GET  /metrics                    - Prometheus metrics
  GET  /api/signals                - Ranked signal view
  GET  /api/signals/{id}           - Single signal
  POST /api/signals/{id}/vote      - Record a gut vote
  POST /api/signals/{id}/watch     - Promote to active monitoring
  GET  /api/watchlist              - Watchlist with derived returns
  POST /api/watchlist              - Add an entry
  PUT  /api/watchlist/{id}         - Edit an entry
  DELETE /api/watchlist/{id}       - Remove an entry
  GET  /api/system                 - Scanning switch and job stats
  POST /api/system                 - Flip the scanning switch

Example:
  go run ./cmd/moonwatch api
  go run ./cmd/moonwatch api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort   string
	apiNoJobs bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
	apiCmd.Flags().BoolVar(&apiNoJobs, "no-jobs", false, "serve the API without the scan scheduler")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.log
	log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("initializing API server")

	a.warmBook()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Price feed: websocket push when configured, polling always as backup.
	if a.stream != nil {
		go func() {
			if err := a.stream.Run(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("price stream stopped")
			}
		}()
	}
	go a.poller.Run(ctx, a.cfg.Scan.Universe, a.cfg.Feeds.PollInterval)

	var sched *scheduler.Scheduler
	if !apiNoJobs {
		sched = scheduler.New(log)
		registerJobs(sched, a)
		sched.Start()
		defer sched.Stop()
	}

	signalHandler := handlers.NewSignalHandler(a.eng, a.viewCache, log)
	watchlistHandler := handlers.NewWatchlistHandler(a.ledger, log)
	statusHandler := handlers.NewStatusHandler(a.state, sched, log)

	router := api.NewRouter(signalHandler, watchlistHandler, statusHandler, a.promRegistry, log)
	server := api.New(a.cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// registerJobs wires the recurring jobs: scans on the market-hours and
// off-hours cadences, lifecycle evaluation, and the overdue sweep.
func registerJobs(sched *scheduler.Scheduler, a *app) {
	universe := a.cfg.Scan.Universe

	sched.AddJob(jobs.NewScanJob("scan_active", a.cfg.Scan.ActiveSchedule, a.eng, a.state, universe, a.log))
	sched.AddJob(jobs.NewScanJob("scan_idle", a.cfg.Scan.IdleSchedule, a.eng, a.state, universe, a.log))
	sched.AddJob(jobs.NewLifecycleJob("0 */5 * * * *", a.eng, a.poller, universe, a.log))
	sched.AddJob(jobs.NewMaintenanceJob("0 0 * * * *", a.eng, a.log))
}
