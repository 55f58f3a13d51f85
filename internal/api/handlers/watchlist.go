package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/internal/view"
	"github.com/moonwatch/backend/internal/watchlist"
	"github.com/moonwatch/backend/pkg/logger"
)

// WatchlistHandler serves watchlist CRUD for a user.
type WatchlistHandler struct {
	ledger *watchlist.Ledger
	logger *logger.Logger
}

// NewWatchlistHandler creates the watchlist handler.
func NewWatchlistHandler(ledger *watchlist.Ledger, log *logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		ledger: ledger,
		logger: log.WithField("handler", "watchlist"),
	}
}

// List returns the user's entries with derived return fields.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondBadRequest(w, "user_id is required")
		return
	}

	entries := h.ledger.ListByUser(userID)
	respondJSON(w, http.StatusOK, view.ProjectEntries(entries, time.Now()))
}

// addEntryRequest is the explicit watchlist add payload. Nothing enters
// the watchlist without one of these.
type addEntryRequest struct {
	UserID         string   `json:"user_id"`
	Ticker         string   `json:"ticker"`
	SourceSignalID string   `json:"source_signal_id,omitempty"`
	EntryPrice     float64  `json:"entry_price"`
	TargetPrice    float64  `json:"target_price"`
	StopLossPrice  *float64 `json:"stop_loss_price,omitempty"`
	Shares         float64  `json:"shares,omitempty"`
}

// Add creates a watchlist entry.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "malformed watchlist payload")
		return
	}

	entry := &contracts.WatchlistEntry{
		UserID:         req.UserID,
		Ticker:         req.Ticker,
		SourceSignalID: req.SourceSignalID,
		EntryPrice:     req.EntryPrice,
		TargetPrice:    req.TargetPrice,
		StopLossPrice:  req.StopLossPrice,
		Shares:         req.Shares,
	}

	saved, err := h.ledger.Add(r.Context(), entry)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

// updateEntryRequest carries the mutable fields; absent fields are left
// untouched.
type updateEntryRequest struct {
	TargetPrice   *float64 `json:"target_price,omitempty"`
	StopLossPrice *float64 `json:"stop_loss_price,omitempty"`
	Shares        *float64 `json:"shares,omitempty"`
}

// Update edits an existing entry.
func (h *WatchlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "malformed watchlist payload")
		return
	}

	entry, err := h.ledger.Update(r.Context(), id, req.TargetPrice, req.StopLossPrice, req.Shares)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// Remove deletes an entry.
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.ledger.Remove(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
