// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
)

// BattleDependencies defines the interface for close-battle queries.
type BattleDependencies interface {
	Battles(ctx context.Context, threshold float64) ([]Battle, error)
}

// BattlesHandler handles close-battle requests.
type BattlesHandler struct {
	deps BattleDependencies
}

// NewBattlesHandler creates a new battles handler.
func NewBattlesHandler(deps BattleDependencies) *BattlesHandler {
	return &BattlesHandler{deps: deps}
}

// HandleGetBattles handles GET /battles?threshold=N requests. The
// threshold is optional; omitting it uses the configured gap.
func (h *BattlesHandler) HandleGetBattles(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_battles"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	var threshold float64
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		threshold = v
	}
	battles, err := h.deps.Battles(r.Context(), threshold)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, battles)
}
