// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/pkg/metrics"
	"github.com/google/uuid"
)

// ObservationDependencies defines the interface for ingest dependencies.
type ObservationDependencies interface {
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
	Enqueue(ctx context.Context, e model.Event) bool
}

// ObservationsHandler handles observation submissions.
type ObservationsHandler struct {
	deps ObservationDependencies
}

// NewObservationsHandler creates a new observations handler.
func NewObservationsHandler(deps ObservationDependencies) *ObservationsHandler {
	return &ObservationsHandler{deps: deps}
}

// HandlePostObservation handles POST /observations requests.
func (h *ObservationsHandler) HandlePostObservation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_observation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req observationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordObservationRejected()
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		metrics.RecordObservationRejected()
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Assign an idempotency key when the submitter did not provide one.
	// Such requests can never be recognized as retries.
	if req.EventID == "" {
		req.EventID = uuid.NewString()
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.EventID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", EventID: req.EventID, Duplicate: true})
		return
	}

	e := model.Event{
		EventID:    req.EventID,
		Obs:        req.toModel(),
		ReceivedAt: time.Now(),
	}

	// Try to enqueue for async processing
	if ok := h.deps.Enqueue(r.Context(), e); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), req.EventID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventID: req.EventID, Duplicate: false})
}
