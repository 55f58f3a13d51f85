// Package handlers implements the HTTP endpoint handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/moonwatch/backend/internal/contracts"
)

// errorResponse is the JSON error envelope. Typed rejections map to
// distinct statuses so UI layers can tell "already handled" from "system
// failure".
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contracts.ErrAlreadyVoted):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "already_voted"})
	case errors.Is(err, contracts.ErrSignalRetired):
		respondJSON(w, http.StatusGone, errorResponse{Error: err.Error(), Code: "signal_retired"})
	case errors.Is(err, contracts.ErrSignalNotFound), errors.Is(err, contracts.ErrEntryNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, contracts.ErrStalePriceData):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "stale_price"})
	case errors.Is(err, contracts.ErrIncompleteScoreSet):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "incomplete_scores"})
	default:
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func respondBadRequest(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Code: "bad_request"})
}
