// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, limit int) ([]Entry, error)
	GroupLeaderboard(ctx context.Context, group string, limit int) ([]Entry, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N requests. The
// limit is optional; omitting it returns up to maxLimit rows.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, ok := h.parseLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.Leaderboard(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetGroupLeaderboard handles GET /leaderboard/{group}?limit=N
// requests for a single taxon group standings table.
func (h *LeaderboardHandler) HandleGetGroupLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_group_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	group := strings.TrimPrefix(r.URL.Path, "/leaderboard/")
	if group == "" || strings.Contains(group, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	n, ok := h.parseLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.GroupLeaderboard(r.Context(), group, n)
	if err != nil {
		if isUnknownInput(err) {
			writeError(w, http.StatusBadRequest, "unknown_group", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// parseLimit returns the requested limit, 0 when absent, and false on a
// malformed or out-of-range value.
func (h *LeaderboardHandler) parseLimit(r *http.Request) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0, true
	}
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 || n > h.maxLimit {
		return 0, false
	}
	return n, true
}
