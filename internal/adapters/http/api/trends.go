// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// TrendDependencies defines the interface for trend queries.
type TrendDependencies interface {
	Trends(ctx context.Context) ([]Trend, error)
}

// TrendsHandler handles trend requests.
type TrendsHandler struct {
	deps TrendDependencies
}

// NewTrendsHandler creates a new trends handler.
func NewTrendsHandler(deps TrendDependencies) *TrendsHandler {
	return &TrendsHandler{deps: deps}
}

// HandleGetTrends handles GET /trends requests.
func (h *TrendsHandler) HandleGetTrends(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_trends"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	trends, err := h.deps.Trends(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, trends)
}
