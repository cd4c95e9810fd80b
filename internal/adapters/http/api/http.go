// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Idempotency operations back POST /observations retries.
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
	Size() int64

	// Enqueue pushes an observation for async processing. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, e model.Event) bool

	// Read operations expose competition data.
	Leaderboard(ctx context.Context, limit int) ([]Entry, error)
	GroupLeaderboard(ctx context.Context, group string, limit int) ([]Entry, error)
	Rank(ctx context.Context, login string) (Entry, error)
	Days(ctx context.Context) ([]DaySummary, error)
	Trophies(ctx context.Context, scope, date, slug string) ([]TrophyStanding, error)
	Battles(ctx context.Context, threshold float64) ([]Battle, error)
	Trends(ctx context.Context) ([]Trend, error)
}

// Read shapes returned by competition queries.
type (
	Entry          = types.Entry
	DaySummary     = types.DaySummary
	TrophyStanding = types.TrophyStanding
	Battle         = types.Battle
	Trend          = types.Trend
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	observationsHandler *ObservationsHandler
	leaderboardHandler  *LeaderboardHandler
	rankHandler         *RankHandler
	daysHandler         *DaysHandler
	trophiesHandler     *TrophiesHandler
	battlesHandler      *BattlesHandler
	trendsHandler       *TrendsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		observationsHandler: NewObservationsHandler(deps),
		leaderboardHandler:  NewLeaderboardHandler(deps, maxLimit),
		rankHandler:         NewRankHandler(deps),
		daysHandler:         NewDaysHandler(deps),
		trophiesHandler:     NewTrophiesHandler(deps),
		battlesHandler:      NewBattlesHandler(deps),
		trendsHandler:       NewTrendsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/observations", MetricsMiddleware(s.observationsHandler.HandlePostObservation, "observations"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/leaderboard/", MetricsMiddleware(s.leaderboardHandler.HandleGetGroupLeaderboard, "leaderboard_group"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/days", MetricsMiddleware(s.daysHandler.HandleGetDays, "days"))
	mux.HandleFunc("/trophies", MetricsMiddleware(s.trophiesHandler.HandleGetTrophies, "trophies"))
	mux.HandleFunc("/battles", MetricsMiddleware(s.battlesHandler.HandleGetBattles, "battles"))
	mux.HandleFunc("/trends", MetricsMiddleware(s.trendsHandler.HandleGetTrends, "trends"))
}

// observationRequest mirrors the wire schema for POST /observations.
// EventID is the idempotency key; when omitted the server assigns one.
type observationRequest struct {
	EventID        string  `json:"event_id"`
	ID             int64   `json:"id"`
	ObservedOn     string  `json:"observed_on"`
	TimeObservedAt string  `json:"time_observed_at"`
	Quality        string  `json:"quality_grade"`
	UserLogin      string  `json:"user_login"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	TaxonID        int64   `json:"taxon_id"`
	TaxonName      string  `json:"taxon_name"`
	TaxonRank      string  `json:"taxon_rank"`
	IconicTaxon    string  `json:"iconic_taxon"`
	URI            string  `json:"uri"`
}

func (o observationRequest) validate() error {
	switch {
	case o.ID <= 0:
		return errors.New("missing or invalid id")
	case strings.TrimSpace(o.UserLogin) == "":
		return errors.New("missing user_login")
	case strings.TrimSpace(o.ObservedOn) == "":
		return errors.New("missing observed_on")
	}
	if _, err := time.Parse(model.DayFormat, o.ObservedOn); err != nil {
		return errors.New("invalid observed_on; must be YYYY-MM-DD")
	}
	if o.TimeObservedAt != "" {
		if _, err := time.Parse(time.RFC3339, o.TimeObservedAt); err != nil {
			return errors.New("invalid time_observed_at; must be RFC3339")
		}
	}
	switch model.QualityGrade(o.Quality) {
	case model.QualityResearch, model.QualityNeedsID, model.QualityCasual, "":
	default:
		return errors.New("invalid quality_grade")
	}
	return nil
}

// toModel converts a validated request to the domain observation. An empty
// quality grade defaults to casual.
func (o observationRequest) toModel() model.Observation {
	quality := model.QualityGrade(o.Quality)
	if quality == "" {
		quality = model.QualityCasual
	}
	var at time.Time
	if o.TimeObservedAt != "" {
		at, _ = time.Parse(time.RFC3339, o.TimeObservedAt)
	}
	return model.Observation{
		ID:             o.ID,
		ObservedOn:     o.ObservedOn,
		TimeObservedAt: at,
		Quality:        quality,
		UserLogin:      o.UserLogin,
		Lat:            o.Lat,
		Lng:            o.Lng,
		TaxonID:        o.TaxonID,
		TaxonName:      o.TaxonName,
		TaxonRank:      o.TaxonRank,
		IconicTaxon:    o.IconicTaxon,
		URI:            o.URI,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound allows the API to translate upstream not-found errors to 404.
// This stays generic to avoid tight coupling with specific packages.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// isUnknownInput translates the service's unknown-group/scope/trophy
// errors to 400.
func isUnknownInput(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unknown")
}
