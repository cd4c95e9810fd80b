package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ecoquest/bioblitz/internal/adapters/http/api"
	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDeduper struct {
	seen map[string]bool
}

func (m *mockDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDeduper) Unrecord(ctx context.Context, id string) {
	if m.seen != nil {
		delete(m.seen, id)
	}
}

func (m *mockDeduper) Size() int64 {
	return int64(len(m.seen))
}

type mockQueue struct {
	enqueueSuccess bool
	enqueued       []model.Event
}

func (m *mockQueue) Enqueue(ctx context.Context, e model.Event) bool {
	if m.enqueueSuccess {
		m.enqueued = append(m.enqueued, e)
		return true
	}
	return false
}

type mockReads struct {
	leaderboard []types.Entry
	groups      map[string][]types.Entry
	rank        types.Entry
	days        []types.DaySummary
	trophies    []types.TrophyStanding
	battles     []types.Battle
	trends      []types.Trend
	err         error
}

func (m *mockReads) Leaderboard(ctx context.Context, limit int) ([]types.Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && limit < len(m.leaderboard) {
		return m.leaderboard[:limit], nil
	}
	return m.leaderboard, nil
}

func (m *mockReads) GroupLeaderboard(ctx context.Context, group string, limit int) ([]types.Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	entries, ok := m.groups[group]
	if !ok {
		return nil, fmt.Errorf("unknown taxon group: %s", group)
	}
	return entries, nil
}

func (m *mockReads) Rank(ctx context.Context, login string) (types.Entry, error) {
	if m.err != nil {
		return types.Entry{}, m.err
	}
	if m.rank.Login != login {
		return types.Entry{}, fmt.Errorf("user not found: %s", login)
	}
	return m.rank, nil
}

func (m *mockReads) Days(ctx context.Context) ([]types.DaySummary, error) {
	return m.days, m.err
}

func (m *mockReads) Trophies(ctx context.Context, scope, date, slug string) ([]types.TrophyStanding, error) {
	if m.err != nil {
		return nil, m.err
	}
	if scope != "" && scope != "trip" && scope != "daily" {
		return nil, fmt.Errorf("unknown trophy scope: %s", scope)
	}
	return m.trophies, nil
}

func (m *mockReads) Battles(ctx context.Context, threshold float64) ([]types.Battle, error) {
	return m.battles, m.err
}

func (m *mockReads) Trends(ctx context.Context) ([]types.Trend, error) {
	return m.trends, m.err
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

// Mock dependencies that implements the Dependencies interface
type mockDependencies struct {
	dedupe *mockDeduper
	queue  *mockQueue
	reads  *mockReads
}

func (m *mockDependencies) SeenAndRecord(ctx context.Context, id string) bool {
	return m.dedupe.SeenAndRecord(ctx, id)
}

func (m *mockDependencies) Unrecord(ctx context.Context, id string) {
	m.dedupe.Unrecord(ctx, id)
}

func (m *mockDependencies) Size() int64 {
	return m.dedupe.Size()
}

func (m *mockDependencies) Enqueue(ctx context.Context, e model.Event) bool {
	return m.queue.Enqueue(ctx, e)
}

func (m *mockDependencies) Leaderboard(ctx context.Context, limit int) ([]types.Entry, error) {
	return m.reads.Leaderboard(ctx, limit)
}

func (m *mockDependencies) GroupLeaderboard(ctx context.Context, group string, limit int) ([]types.Entry, error) {
	return m.reads.GroupLeaderboard(ctx, group, limit)
}

func (m *mockDependencies) Rank(ctx context.Context, login string) (types.Entry, error) {
	return m.reads.Rank(ctx, login)
}

func (m *mockDependencies) Days(ctx context.Context) ([]types.DaySummary, error) {
	return m.reads.Days(ctx)
}

func (m *mockDependencies) Trophies(ctx context.Context, scope, date, slug string) ([]types.TrophyStanding, error) {
	return m.reads.Trophies(ctx, scope, date, slug)
}

func (m *mockDependencies) Battles(ctx context.Context, threshold float64) ([]types.Battle, error) {
	return m.reads.Battles(ctx, threshold)
}

func (m *mockDependencies) Trends(ctx context.Context) ([]types.Trend, error) {
	return m.reads.Trends(ctx)
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		dedupe: &mockDeduper{},
		queue:  &mockQueue{enqueueSuccess: true},
		reads:  &mockReads{},
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

const validObservation = `{
	"event_id": "evt-1",
	"id": 101,
	"observed_on": "2025-06-14",
	"time_observed_at": "2025-06-14T09:30:00Z",
	"quality_grade": "research",
	"user_login": "maria",
	"taxon_id": 42,
	"taxon_name": "Sciurus vulgaris",
	"iconic_taxon": "Mammalia"
}`

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := newMockDependencies()
		deps.reads.leaderboard = []types.Entry{{Rank: 1, Login: "maria", Points: 12.5}}
		deps.reads.groups = map[string][]types.Entry{
			"birds": {{Rank: 1, Login: "jonas", Points: 4.0}},
		}
		statsProvider := &mockStatsProvider{stats: map[string]interface{}{}}
		server := api.NewServer(deps, statsProvider, 100)
		mux := http.NewServeMux()
		server.Register(context.Background(), mux)

		get := func(path string) *httptest.ResponseRecorder {
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		Convey("Then health endpoint should be accessible", func() {
			So(get("/healthz").Code, ShouldEqual, http.StatusOK)
		})

		Convey("And stats endpoint should be accessible", func() {
			So(get("/stats").Code, ShouldEqual, http.StatusOK)
		})

		Convey("And observations endpoint should reject an empty body", func() {
			req := httptest.NewRequest("POST", "/observations", strings.NewReader(`{}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("And leaderboard endpoint should be accessible", func() {
			So(get("/leaderboard?limit=10").Code, ShouldEqual, http.StatusOK)
		})

		Convey("And group leaderboard endpoint should be accessible", func() {
			So(get("/leaderboard/birds").Code, ShouldEqual, http.StatusOK)
		})

		Convey("And days, trophies, battles, trends should be accessible", func() {
			So(get("/days").Code, ShouldEqual, http.StatusOK)
			So(get("/trophies").Code, ShouldEqual, http.StatusOK)
			So(get("/battles").Code, ShouldEqual, http.StatusOK)
			So(get("/trends").Code, ShouldEqual, http.StatusOK)
		})

		Convey("And root endpoint should catch everything else", func() {
			So(get("/unknown").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestObservationsHandler_HandlePostObservation(t *testing.T) {
	Convey("Given an observations handler", t, func() {
		deps := newMockDependencies()
		handler := api.NewObservationsHandler(deps)

		Convey("When handling a valid POST request", func() {
			req := httptest.NewRequest("POST", "/observations", strings.NewReader(validObservation))
			w := httptest.NewRecorder()

			Convey("Then it should return accepted status", func() {
				handler.HandlePostObservation(w, req)
				So(w.Code, ShouldEqual, http.StatusAccepted)

				var response ackResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Status, ShouldEqual, "accepted")
				So(response.EventID, ShouldEqual, "evt-1")
				So(response.Duplicate, ShouldBeFalse)

				So(deps.queue.enqueued, ShouldHaveLength, 1)
				obs := deps.queue.enqueued[0].Obs
				So(obs.ID, ShouldEqual, 101)
				So(obs.UserLogin, ShouldEqual, "maria")
				So(obs.Quality, ShouldEqual, model.QualityResearch)
			})
		})

		Convey("When handling a duplicate event", func() {
			req1 := httptest.NewRequest("POST", "/observations", strings.NewReader(validObservation))
			w1 := httptest.NewRecorder()
			handler.HandlePostObservation(w1, req1)

			req2 := httptest.NewRequest("POST", "/observations", strings.NewReader(validObservation))
			w2 := httptest.NewRecorder()

			Convey("Then it should return duplicate status", func() {
				handler.HandlePostObservation(w2, req2)
				So(w2.Code, ShouldEqual, http.StatusOK)

				var response ackResponse
				err := json.NewDecoder(w2.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Status, ShouldEqual, "duplicate")
				So(response.Duplicate, ShouldBeTrue)
				So(deps.queue.enqueued, ShouldHaveLength, 1)
			})
		})

		Convey("When the event id is omitted", func() {
			body := `{
				"id": 102,
				"observed_on": "2025-06-14",
				"user_login": "jonas"
			}`
			req := httptest.NewRequest("POST", "/observations", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then the server should assign one", func() {
				handler.HandlePostObservation(w, req)
				So(w.Code, ShouldEqual, http.StatusAccepted)

				var response ackResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.EventID, ShouldNotBeEmpty)
			})
		})

		Convey("When the quality grade is omitted", func() {
			body := `{
				"id": 103,
				"observed_on": "2025-06-14",
				"user_login": "jonas"
			}`
			req := httptest.NewRequest("POST", "/observations", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should default to casual", func() {
				handler.HandlePostObservation(w, req)
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(deps.queue.enqueued, ShouldHaveLength, 1)
				So(deps.queue.enqueued[0].Obs.Quality, ShouldEqual, model.QualityCasual)
			})
		})

		Convey("When handling an invalid JSON request", func() {
			req := httptest.NewRequest("POST", "/observations", strings.NewReader(`{invalid json`))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request status", func() {
				handler.HandlePostObservation(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When handling a request with a malformed day", func() {
			body := `{
				"id": 104,
				"observed_on": "June 14th",
				"user_login": "jonas"
			}`
			req := httptest.NewRequest("POST", "/observations", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request status", func() {
				handler.HandlePostObservation(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When handling a non-POST request", func() {
			req := httptest.NewRequest("GET", "/observations", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandlePostObservation(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When enqueue fails due to backpressure", func() {
			deps.queue.enqueueSuccess = false
			req := httptest.NewRequest("POST", "/observations", strings.NewReader(validObservation))
			w := httptest.NewRecorder()

			Convey("Then it should return too many requests status", func() {
				handler.HandlePostObservation(w, req)
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Code, ShouldEqual, "backpressure")

				Convey("And the event id should be retryable", func() {
					So(deps.dedupe.Size(), ShouldEqual, 0)
				})
			})
		})
	})
}

func TestLeaderboardHandler_HandleGetLeaderboard(t *testing.T) {
	Convey("Given a leaderboard handler", t, func() {
		deps := newMockDependencies()
		deps.reads.leaderboard = []types.Entry{
			{Rank: 1, Login: "maria", Points: 100.0},
			{Rank: 2, Login: "jonas", Points: 95.0},
			{Rank: 3, Login: "li_wei", Points: 90.0},
		}
		deps.reads.groups = map[string][]types.Entry{
			"mammals": {{Rank: 1, Login: "maria", Points: 30.0}},
		}
		handler := api.NewLeaderboardHandler(deps, 100)

		Convey("When requesting top N entries", func() {
			req := httptest.NewRequest("GET", "/leaderboard?limit=2", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the top N entries", func() {
				handler.HandleGetLeaderboard(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response []types.Entry
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(len(response), ShouldEqual, 2)
				So(response[0].Login, ShouldEqual, "maria")
				So(response[1].Login, ShouldEqual, "jonas")
			})
		})

		Convey("When no limit is specified", func() {
			req := httptest.NewRequest("GET", "/leaderboard", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the full board", func() {
				handler.HandleGetLeaderboard(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response []types.Entry
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(len(response), ShouldEqual, 3)
			})
		})

		Convey("When the limit exceeds the maximum", func() {
			req := httptest.NewRequest("GET", "/leaderboard?limit=1000", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return 400 Bad Request", func() {
				handler.HandleGetLeaderboard(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When requesting a taxon group board", func() {
			req := httptest.NewRequest("GET", "/leaderboard/mammals", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the group entries", func() {
				handler.HandleGetGroupLeaderboard(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response []types.Entry
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(len(response), ShouldEqual, 1)
				So(response[0].Login, ShouldEqual, "maria")
			})
		})

		Convey("When requesting an unknown taxon group", func() {
			req := httptest.NewRequest("GET", "/leaderboard/dinosaurs", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return 400 Bad Request", func() {
				handler.HandleGetGroupLeaderboard(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var response errorResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Code, ShouldEqual, "unknown_group")
			})
		})

		Convey("When the service returns an error", func() {
			deps.reads.err = fmt.Errorf("store unavailable")
			req := httptest.NewRequest("GET", "/leaderboard?limit=10", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return internal server error", func() {
				handler.HandleGetLeaderboard(w, req)
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestRankHandler_HandleGetRank(t *testing.T) {
	Convey("Given a rank handler", t, func() {
		deps := newMockDependencies()
		deps.reads.rank = types.Entry{Rank: 5, Login: "maria", Points: 85.0}
		handler := api.NewRankHandler(deps)

		Convey("When requesting rank for an existing user", func() {
			req := httptest.NewRequest("GET", "/rank/maria", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the rank information", func() {
				handler.HandleGetRank(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

				var response types.Entry
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response.Login, ShouldEqual, "maria")
				So(response.Rank, ShouldEqual, 5)
				So(response.Points, ShouldEqual, 85.0)
			})
		})

		Convey("When requesting rank for an unknown user", func() {
			req := httptest.NewRequest("GET", "/rank/nobody", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found status", func() {
				handler.HandleGetRank(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the service returns another error", func() {
			deps.reads.err = fmt.Errorf("store unavailable")
			req := httptest.NewRequest("GET", "/rank/maria", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return internal server error", func() {
				handler.HandleGetRank(w, req)
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestTrophiesHandler_HandleGetTrophies(t *testing.T) {
	Convey("Given a trophies handler", t, func() {
		deps := newMockDependencies()
		deps.reads.trophies = []types.TrophyStanding{
			{Slug: "variety-hero", Title: "Variety Hero", Scope: "trip", Rank: 1, Login: "maria", Value: 12},
		}
		handler := api.NewTrophiesHandler(deps)

		Convey("When requesting trip standings", func() {
			req := httptest.NewRequest("GET", "/trophies?scope=trip", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the standings", func() {
				handler.HandleGetTrophies(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response []types.TrophyStanding
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(len(response), ShouldEqual, 1)
				So(response[0].Slug, ShouldEqual, "variety-hero")
			})
		})

		Convey("When requesting an unknown scope", func() {
			req := httptest.NewRequest("GET", "/trophies?scope=weekly", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return 400 Bad Request", func() {
				handler.HandleGetTrophies(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestBattlesHandler_HandleGetBattles(t *testing.T) {
	Convey("Given a battles handler", t, func() {
		deps := newMockDependencies()
		deps.reads.battles = []types.Battle{
			{Position: "top", LeaderLogin: "maria", LeaderRank: 1, ChaserLogin: "jonas", ChaserRank: 2, Gap: 1.0},
		}
		handler := api.NewBattlesHandler(deps)

		Convey("When requesting battles with the default threshold", func() {
			req := httptest.NewRequest("GET", "/battles", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the battles", func() {
				handler.HandleGetBattles(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response []types.Battle
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(len(response), ShouldEqual, 1)
				So(response[0].Position, ShouldEqual, "top")
			})
		})

		Convey("When the threshold is malformed", func() {
			req := httptest.NewRequest("GET", "/battles?threshold=tight", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return 400 Bad Request", func() {
				handler.HandleGetBattles(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the threshold is negative", func() {
			req := httptest.NewRequest("GET", "/battles?threshold=-1", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return 400 Bad Request", func() {
				handler.HandleGetBattles(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		mockStats := &mockStatsProvider{
			stats: map[string]interface{}{
				"observations": 1000,
				"participants": 150,
			},
		}
		handler := api.NewStatsHandler(mockStats)

		Convey("When handling stats request", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return stats", func() {
				handler.HandleStats(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]interface{}
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response["observations"], ShouldEqual, 1000)
				So(response["participants"], ShouldEqual, 150)
			})
		})
	})
}
