// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// TrophyDependencies defines the interface for trophy standings.
type TrophyDependencies interface {
	Trophies(ctx context.Context, scope, date, slug string) ([]TrophyStanding, error)
}

// TrophiesHandler handles trophy standings requests.
type TrophiesHandler struct {
	deps TrophyDependencies
}

// NewTrophiesHandler creates a new trophies handler.
func NewTrophiesHandler(deps TrophyDependencies) *TrophiesHandler {
	return &TrophiesHandler{deps: deps}
}

// HandleGetTrophies handles GET /trophies?scope=&date=&slug= requests.
// scope defaults to trip; daily standings additionally take a date.
func (h *TrophiesHandler) HandleGetTrophies(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_trophies"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	standings, err := h.deps.Trophies(r.Context(), q.Get("scope"), q.Get("date"), q.Get("slug"))
	if err != nil {
		if isUnknownInput(err) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, standings)
}
