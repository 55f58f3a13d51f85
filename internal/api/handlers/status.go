package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/moonwatch/backend/internal/engine"
	"github.com/moonwatch/backend/internal/scheduler"
	"github.com/moonwatch/backend/pkg/logger"
)

// StatusHandler exposes the scanning switch and scheduler health.
type StatusHandler struct {
	state  *engine.SystemState
	sched  *scheduler.Scheduler // optional, nil in api-only mode
	logger *logger.Logger
}

// NewStatusHandler creates the status handler. sched may be nil.
func NewStatusHandler(state *engine.SystemState, sched *scheduler.Scheduler, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		state:  state,
		sched:  sched,
		logger: log.WithField("handler", "status"),
	}
}

// statusResponse reports the switch position and job stats.
type statusResponse struct {
	Enabled   bool                          `json:"enabled"`
	Reason    string                        `json:"reason,omitempty"`
	UpdatedAt time.Time                     `json:"updated_at"`
	Jobs      map[string]scheduler.JobStats `json:"jobs,omitempty"`
}

// Get returns the current system state.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	enabled, reason, updatedAt := h.state.Snapshot()

	resp := statusResponse{
		Enabled:   enabled,
		Reason:    reason,
		UpdatedAt: updatedAt,
	}
	if h.sched != nil {
		resp.Jobs = h.sched.Stats()
	}
	respondJSON(w, http.StatusOK, resp)
}

// setStateRequest flips the scanning switch.
type setStateRequest struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

// Set flips the scanning switch on or off.
func (h *StatusHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req setStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "malformed state payload")
		return
	}

	h.state.SetEnabled(req.Enabled, req.Reason)
	h.logger.WithFields(map[string]interface{}{
		"enabled": req.Enabled,
		"reason":  req.Reason,
	}).Info("system state changed")

	enabled, reason, updatedAt := h.state.Snapshot()
	respondJSON(w, http.StatusOK, statusResponse{
		Enabled:   enabled,
		Reason:    reason,
		UpdatedAt: updatedAt,
	})
}
