// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// DaysDependencies defines the interface for per-day summaries.
type DaysDependencies interface {
	Days(ctx context.Context) ([]DaySummary, error)
}

// DaysHandler handles per-day summary requests.
type DaysHandler struct {
	deps DaysDependencies
}

// NewDaysHandler creates a new days handler.
func NewDaysHandler(deps DaysDependencies) *DaysHandler {
	return &DaysHandler{deps: deps}
}

// HandleGetDays handles GET /days requests.
func (h *DaysHandler) HandleGetDays(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_days"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	days, err := h.deps.Days(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, days)
}
