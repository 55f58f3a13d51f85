package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/internal/engine"
	"github.com/moonwatch/backend/internal/view"
	"github.com/moonwatch/backend/pkg/logger"
	"github.com/moonwatch/backend/pkg/redis"
)

// SignalHandler serves the signal list, single-signal lookups and votes.
type SignalHandler struct {
	eng    *engine.Engine
	cache  *redis.Cache // optional, short-TTL view cache
	logger *logger.Logger
}

// NewSignalHandler creates the signal handler. cache may be nil.
func NewSignalHandler(eng *engine.Engine, cache *redis.Cache, log *logger.Logger) *SignalHandler {
	return &SignalHandler{
		eng:    eng,
		cache:  cache,
		logger: log.WithField("handler", "signals"),
	}
}

// List returns the ordered, filtered signal view.
// Query params: sort (confidence|change|ticker|time), asc, min_confidence,
// include_stale, include_none.
func (h *SignalHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := view.Options{
		Key:           view.SortByConfidence,
		MinConfidence: h.eng.Policy().View.MinConfidence,
	}

	q := r.URL.Query()
	if s := q.Get("sort"); s != "" {
		opts.Key = view.SortKey(s)
	}
	if q.Get("asc") == "true" {
		opts.Ascending = true
	}
	if s := q.Get("min_confidence"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 0 && v <= 100 {
			opts.MinConfidence = v
		} else {
			respondBadRequest(w, "min_confidence must be a number in [0, 100]")
			return
		}
	}
	opts.IncludeStale = q.Get("include_stale") == "true"
	opts.IncludeNone = q.Get("include_none") == "true"

	// Default views are cached briefly; parameterized ones are computed.
	cacheable := h.cache != nil && !opts.Ascending && !opts.IncludeStale && !opts.IncludeNone
	cacheKey := redis.SignalViewKey(string(opts.Key), opts.MinConfidence)

	if cacheable {
		var cached []view.SignalView
		if found, err := h.cache.Get(r.Context(), cacheKey, &cached); err == nil && found {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	views := view.ProjectSignals(h.eng.Book().Active(), opts)

	if cacheable {
		if err := h.cache.Set(r.Context(), cacheKey, views, redis.TTLShort); err != nil {
			h.logger.WithError(err).Debug("signal view cache write failed")
		}
	}

	respondJSON(w, http.StatusOK, views)
}

// Get returns one signal by id.
func (h *SignalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	sig, ok := h.eng.Book().Get(id)
	if !ok {
		respondError(w, contracts.ErrSignalNotFound)
		return
	}

	views := view.ProjectSignals([]*contracts.Signal{sig}, view.Options{
		Key:          view.SortByConfidence,
		IncludeStale: true,
		IncludeNone:  true,
	})
	respondJSON(w, http.StatusOK, views[0])
}

// voteRequest is the vote submission payload.
type voteRequest struct {
	Vote   string `json:"vote"`
	UserID string `json:"user_id"`
}

// voteResponse returns the adjusted signal and, for non-PASS votes, the
// derived watchlist entry candidate.
type voteResponse struct {
	Signal    view.SignalView           `json:"signal"`
	Candidate *contracts.WatchlistEntry `json:"watchlist_candidate,omitempty"`
}

// Vote records a gut vote on a signal.
func (h *SignalHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "malformed vote payload")
		return
	}
	vote := contracts.Vote(req.Vote)
	if !vote.Valid() {
		respondBadRequest(w, "vote must be UP, DOWN or PASS")
		return
	}
	if req.UserID == "" {
		respondBadRequest(w, "user_id is required")
		return
	}

	candidate, err := h.eng.SubmitVote(r.Context(), id, vote, req.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	h.invalidateViews(r.Context())

	sig, _ := h.eng.Book().Get(id)
	views := view.ProjectSignals([]*contracts.Signal{sig}, view.Options{
		IncludeStale: true,
		IncludeNone:  true,
	})
	respondJSON(w, http.StatusOK, voteResponse{Signal: views[0], Candidate: candidate})
}

// Promote moves a reviewed signal into active monitoring.
func (h *SignalHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.eng.Promote(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	h.invalidateViews(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{"status": "watching"})
}

// invalidateViews drops the cached default view after a mutation.
func (h *SignalHandler) invalidateViews(ctx context.Context) {
	if h.cache == nil {
		return
	}
	key := redis.SignalViewKey(string(view.SortByConfidence), h.eng.Policy().View.MinConfidence)
	if err := h.cache.Delete(ctx, key); err != nil {
		h.logger.WithError(err).Debug("signal view cache invalidation failed")
	}
}
