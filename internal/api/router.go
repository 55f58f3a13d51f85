package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moonwatch/backend/internal/api/handlers"
	"github.com/moonwatch/backend/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	signalHandler *handlers.SignalHandler,
	watchlistHandler *handlers.WatchlistHandler,
	statusHandler *handlers.StatusHandler,
	promRegistry *prometheus.Registry,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	if promRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Signal endpoints
	api.HandleFunc("/signals", signalHandler.List).Methods("GET")
	api.HandleFunc("/signals/{id}", signalHandler.Get).Methods("GET")
	api.HandleFunc("/signals/{id}/vote", signalHandler.Vote).Methods("POST")
	api.HandleFunc("/signals/{id}/watch", signalHandler.Promote).Methods("POST")

	// Watchlist endpoints
	api.HandleFunc("/watchlist", watchlistHandler.List).Methods("GET")
	api.HandleFunc("/watchlist", watchlistHandler.Add).Methods("POST")
	api.HandleFunc("/watchlist/{id}", watchlistHandler.Update).Methods("PUT")
	api.HandleFunc("/watchlist/{id}", watchlistHandler.Remove).Methods("DELETE")

	// System endpoints
	api.HandleFunc("/system", statusHandler.Get).Methods("GET")
	api.HandleFunc("/system", statusHandler.Set).Methods("POST")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "moonwatch-api",
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "internal server error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
