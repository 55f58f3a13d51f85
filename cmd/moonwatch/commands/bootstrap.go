package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/internal/engine"
	"github.com/moonwatch/backend/internal/metrics"
	"github.com/moonwatch/backend/internal/policy"
	"github.com/moonwatch/backend/internal/pricefeed"
	"github.com/moonwatch/backend/internal/scorers"
	"github.com/moonwatch/backend/internal/store"
	"github.com/moonwatch/backend/internal/watchlist"
	"github.com/moonwatch/backend/pkg/config"
	"github.com/moonwatch/backend/pkg/database"
	"github.com/moonwatch/backend/pkg/httputil"
	"github.com/moonwatch/backend/pkg/logger"
	"github.com/moonwatch/backend/pkg/redis"

	promclient "github.com/prometheus/client_golang/prometheus"
)

// app holds the wired dependency graph shared by the CLI commands.
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	pol          *policy.Policy
	db           *database.DB  // nil without DATABASE_URL
	redis        *redis.Client // nil when disabled
	viewCache    *redis.Cache  // nil when redis is disabled
	prices       *pricefeed.Cache
	poller       *pricefeed.Poller
	stream       *pricefeed.Stream // nil without a stream URL
	eng          *engine.Engine
	state        *engine.SystemState
	ledger       *watchlist.Ledger
	metrics      *metrics.Registry
	promRegistry *promclient.Registry
}

// initApp loads config and builds the full pipeline. An invalid policy is
// fatal; a missing database or redis just degrades to in-memory operation.
func initApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	path := cfg.PolicyPath
	if policyFile != "" {
		path = policyFile
	}
	pol, err := policy.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"policy":             path,
		"observation_window": pol.Lifecycle.ObservationWindow,
		"min_confidence":     pol.View.MinConfidence,
	}).Info("policy loaded")

	a := &app{cfg: cfg, log: log, pol: pol}

	var signalRepo contracts.SignalRepository
	var watchRepo contracts.WatchlistRepository
	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		signalRepo = store.NewSignalRepository(db.Pool)
		watchRepo = store.NewWatchlistRepository(db.Pool)
		log.Info("connected to database")
	} else {
		log.Warn("DATABASE_URL not set, running in-memory only")
	}

	if cfg.Redis.Enabled {
		rc, err := redis.New(cfg)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, view cache disabled")
		} else {
			a.redis = rc
			a.viewCache = redis.NewCache(rc, "moonwatch")
		}
	}

	httpClient := httputil.New(log)

	providers := map[contracts.Category]engine.Provider{
		contracts.CategoryTechnical: scorers.NewHTTPProvider(httpClient, log, cfg.Feeds.ScorerBaseURL, contracts.CategoryTechnical),
		contracts.CategorySocial:    scorers.NewHTTPProvider(httpClient, log, cfg.Feeds.ScorerBaseURL, contracts.CategorySocial),
		contracts.CategoryEarnings:  scorers.NewHTTPProvider(httpClient, log, cfg.Feeds.ScorerBaseURL, contracts.CategoryEarnings),
	}
	if cfg.Feeds.HeadlineBaseURL != "" {
		providers[contracts.CategorySentiment] = scorers.NewHeadlineScorer(httpClient, log, cfg.Feeds.HeadlineBaseURL)
	} else {
		providers[contracts.CategorySentiment] = scorers.NewHTTPProvider(httpClient, log, cfg.Feeds.ScorerBaseURL, contracts.CategorySentiment)
	}

	a.prices = pricefeed.NewCache(pol.Lifecycle.PriceFreshness, log)
	a.poller = pricefeed.NewPoller(httpClient, a.prices, log, cfg.Feeds.PriceBaseURL)
	if cfg.Feeds.PriceStreamURL != "" {
		a.stream = pricefeed.NewStream(cfg.Feeds.PriceStreamURL, a.prices, log)
	}

	if cfg.MetricsEnabled {
		a.metrics, a.promRegistry = metrics.NewRegistry()
	}

	a.eng = engine.New(providers, pol, engine.NewBook(), a.prices, signalRepo, a.metrics, engine.Config{
		Workers:       cfg.Scan.Workers,
		ScorerTimeout: cfg.Scan.ScorerTimeout,
		ScoreWindow:   cfg.Scan.ScoreWindow,
	}, log)
	a.state = engine.NewSystemState(true)
	a.ledger = watchlist.NewLedger(a.prices, watchRepo, log)

	return a, nil
}

// close releases external connections.
func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// warmBook restores active signals from the store so restarts do not drop
// open calls mid-window.
func (a *app) warmBook() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := a.eng.LoadActive(ctx)
	if err != nil {
		a.log.WithError(err).Warn("could not restore active signals")
		return
	}
	if n > 0 {
		a.log.WithField("signals", n).Info("active signals restored")
	}
}
