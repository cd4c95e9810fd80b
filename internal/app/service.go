// Package service provides the core business service that implements the
// dependencies required by the HTTP API: observation ingestion on one
// side, recomputed scoreboards, trophies, battles, and trends on the
// other.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	eventqueue "github.com/ecoquest/bioblitz/internal/adapters/mq/queue"
	workerpool "github.com/ecoquest/bioblitz/internal/adapters/mq/worker"
	"github.com/ecoquest/bioblitz/internal/adapters/repository"
	"github.com/ecoquest/bioblitz/internal/domain/battle"
	"github.com/ecoquest/bioblitz/internal/domain/dedupe"
	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/internal/domain/scoring"
	"github.com/ecoquest/bioblitz/internal/domain/taxon"
	"github.com/ecoquest/bioblitz/internal/domain/trophy"
	"github.com/ecoquest/bioblitz/internal/domain/types"
	"github.com/ecoquest/bioblitz/pkg/logger"
	"github.com/ecoquest/bioblitz/pkg/metrics"
)

// Clock supplies the reference time for scoring runs. Injectable so tests
// can pin it.
type Clock func() time.Time

// snapshot is one computed scoreboard plus the observation set it came
// from. Snapshots are immutable once built.
type snapshot struct {
	board        *scoring.Scoreboard
	observations []model.Observation
	builtAt      time.Time
}

// Service implements the API dependencies for the competition backend.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	workerPool *workerpool.Pool
	trophies   *trophy.Registry

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	maxLimit        int
	gapThreshold    float64
	trailingWindow  time.Duration
	snapshotRefresh time.Duration
	dbPath          string
	clock           Clock

	// Snapshot cache. current serves reads until it is older than
	// snapshotRefresh; prior backs trend computation.
	snapMu  sync.Mutex
	current *snapshot
	prior   *snapshot

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount sets the number of ingest workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxLeaderboardLimit caps leaderboard query sizes.
func WithMaxLeaderboardLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}

// WithBattleGapThreshold sets the close-battle announcement threshold.
func WithBattleGapThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.gapThreshold = threshold
		}
	}
}

// WithTrailingWindow sets the rolling window behind the catch-up
// percentile.
func WithTrailingWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.trailingWindow = d
		}
	}
}

// WithSnapshotRefresh sets how long a computed scoreboard is served before
// a read triggers a rebuild. Zero disables caching entirely.
func WithSnapshotRefresh(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.snapshotRefresh = d
		}
	}
}

// WithDBPath selects the SQLite observation store; empty keeps
// observations in memory.
func WithDBPath(path string) Option {
	return func(s *Service) {
		s.dbPath = path
	}
}

// WithClock injects the reference-time source for scoring runs.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithStore injects a pre-built observation store, bypassing DBPath.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithTrophyRegistry replaces the default trophy set.
func WithTrophyRegistry(r *trophy.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.trophies = r
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     4,
		queueSize:       100_000,
		dedupeSize:      500_000,
		maxLimit:        100,
		gapThreshold:    battle.DefaultGapThreshold,
		trailingWindow:  24 * time.Hour,
		snapshotRefresh: 2 * time.Second,
		clock:           time.Now,
		trophies:        trophy.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoring service...")

	if s.store == nil {
		if s.dbPath != "" {
			store, err := repository.NewSQLStore(s.dbPath)
			if err != nil {
				return fmt.Errorf("open observation store: %w", err)
			}
			s.store = store
			s.logger.Info(ctx, "using sqlite observation store", logger.String("path", s.dbPath))
		} else {
			s.store = repository.NewMemStore()
			s.logger.Info(ctx, "using in-memory observation store")
		}
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")

	if s.workerPool != nil {
		s.workerPool.Stop()
	}
	if s.eventQueue != nil {
		_ = s.eventQueue.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// SeenAndRecord atomically checks if an event id was seen and records it
// if not. Returns true if the event was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordObservationDuplicate()
	}
	return seen
}

// Unrecord removes an event ID from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits an observation event for asynchronous ingestion.
// Returns false on backpressure.
func (s *Service) Enqueue(ctx context.Context, e model.Event) bool {
	return s.eventQueue.Enqueue(ctx, e)
}

// scoreboard returns the current snapshot, rebuilding it when stale. Every
// rebuild rotates the previous snapshot into the prior slot for trends.
func (s *Service) scoreboard(ctx context.Context) (*snapshot, error) {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()

	now := s.clock()
	if s.current != nil && now.Sub(s.current.builtAt) < s.snapshotRefresh {
		metrics.UpdateScoreboardAge(now.Sub(s.current.builtAt).Seconds())
		return s.current, nil
	}

	observations, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}

	start := time.Now()
	sctx := scoring.BuildContext(observations, now, scoring.WithTrailingWindow(s.trailingWindow))
	board := scoring.Aggregate(observations, sctx)
	metrics.RecordScoreboardRebuild(float64(time.Since(start).Milliseconds()))
	metrics.UpdateScoreboardParticipants(len(board.ByUser))
	metrics.UpdateScoreboardAge(0)

	s.prior = s.current
	s.current = &snapshot{
		board:        board,
		observations: observations,
		builtAt:      now,
	}
	return s.current, nil
}

// Leaderboard returns the top-limit users overall.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]types.Entry, error) {
	snap, err := s.scoreboard(ctx)
	if err != nil {
		return nil, err
	}
	return entriesFrom(snap.board.Ranked, s.clampLimit(limit)), nil
}

// GroupLeaderboard returns the top-limit users for one taxon group.
func (s *Service) GroupLeaderboard(ctx context.Context, group string, limit int) ([]types.Entry, error) {
	g, ok := taxon.Valid(group)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, group)
	}
	snap, err := s.scoreboard(ctx)
	if err != nil {
		return nil, err
	}
	return entriesFrom(snap.board.Groups[g], s.clampLimit(limit)), nil
}

// Rank returns one user's overall standing.
func (s *Service) Rank(ctx context.Context, login string) (types.Entry, error) {
	snap, err := s.scoreboard(ctx)
	if err != nil {
		return types.Entry{}, err
	}
	for i, u := range snap.board.Ranked {
		if u.Login == login {
			return entryFor(i+1, u), nil
		}
	}
	return types.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, login)
}

// Days returns per-day summaries in calendar order.
func (s *Service) Days(ctx context.Context) ([]types.DaySummary, error) {
	snap, err := s.scoreboard(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.DaySummary, 0, len(snap.board.ByDay))
	for _, d := range snap.board.ByDay {
		out = append(out, types.DaySummary{
			Date:         d.Date,
			Observations: d.ObsCount,
			Species:      d.SpeciesCount,
			Participants: len(d.Participants),
			Points:       d.Points,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Trophies evaluates trophies and returns their standings. scope must be
// "trip" or "daily"; daily evaluation requires a date. A non-empty slug
// narrows to a single trophy.
func (s *Service) Trophies(ctx context.Context, scope, date, slug string) ([]types.TrophyStanding, error) {
	var sc trophy.Scope
	switch scope {
	case string(trophy.ScopeTrip), "":
		sc = trophy.ScopeTrip
	case string(trophy.ScopeDaily):
		sc = trophy.ScopeDaily
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}

	var selected []*trophy.Trophy
	if slug != "" {
		t, ok := s.trophies.Get(slug)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTrophy, slug)
		}
		selected = []*trophy.Trophy{t}
	} else {
		selected = s.trophies.Scoped(sc)
	}

	snap, err := s.scoreboard(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.RecordTrophyEvalDuration(float64(time.Since(start).Milliseconds()))
	}()

	var out []types.TrophyStanding
	for _, t := range selected {
		results := t.Evaluate(snap.observations, snap.board.Context, date)
		for i, r := range results {
			out = append(out, types.TrophyStanding{
				Slug:     t.Slug,
				Title:    t.Title,
				Scope:    string(t.Scope),
				Rank:     i + 1,
				Login:    r.Login,
				Value:    r.Value,
				Evidence: r.Evidence,
			})
		}
	}
	return out, nil
}

// Battles returns the announced close battles. A non-positive threshold
// uses the configured one.
func (s *Service) Battles(ctx context.Context, threshold float64) ([]types.Battle, error) {
	if threshold <= 0 {
		threshold = s.gapThreshold
	}
	snap, err := s.scoreboard(ctx)
	if err != nil {
		return nil, err
	}
	battles := battle.FindCloseBattles(standings(snap.board), threshold)
	out := make([]types.Battle, 0, len(battles))
	for _, b := range battles {
		out = append(out, types.Battle{
			Position:    b.Position,
			LeaderLogin: b.Leader.Login,
			LeaderRank:  b.Leader.Rank,
			ChaserLogin: b.Chaser.Login,
			ChaserRank:  b.Chaser.Rank,
			Gap:         b.Gap,
		})
	}
	return out, nil
}

// Trends returns each current user's movement since the previous snapshot,
// ordered by current rank. Before two snapshots exist, every trend is
// zero.
func (s *Service) Trends(ctx context.Context) ([]types.Trend, error) {
	snap, err := s.scoreboard(ctx)
	if err != nil {
		return nil, err
	}

	s.snapMu.Lock()
	prior := s.prior
	s.snapMu.Unlock()

	current := standings(snap.board)
	var priorStandings []battle.Standing
	if prior != nil {
		priorStandings = standings(prior.board)
	}
	trends := battle.ComputeTrends(current, priorStandings)

	out := make([]types.Trend, 0, len(current))
	for _, st := range current {
		t := trends[st.Login]
		out = append(out, types.Trend{
			Login:       st.Login,
			RankDelta:   t.Rank,
			PointsDelta: t.Points,
		})
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if s.started {
		stats["queueLength"] = s.eventQueue.Len(ctx)
		stats["observations"] = s.store.Count(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
	}

	s.snapMu.Lock()
	if s.current != nil {
		stats["scoreboardBuiltAt"] = s.current.builtAt
		stats["participants"] = len(s.current.board.ByUser)
	}
	s.snapMu.Unlock()

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

func (s *Service) clampLimit(limit int) int {
	if limit < 1 {
		return s.maxLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

func standings(board *scoring.Scoreboard) []battle.Standing {
	out := make([]battle.Standing, len(board.Ranked))
	for i, u := range board.Ranked {
		out[i] = battle.Standing{Rank: i + 1, Login: u.Login, Points: u.Points}
	}
	return out
}

func entriesFrom(users []*scoring.UserScore, limit int) []types.Entry {
	if limit > len(users) {
		limit = len(users)
	}
	out := make([]types.Entry, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, entryFor(i+1, users[i]))
	}
	return out
}

func entryFor(rank int, u *scoring.UserScore) types.Entry {
	return types.Entry{
		Rank:         rank,
		Login:        u.Login,
		Points:       u.Points,
		Observations: u.ObsCount,
		Species:      u.SpeciesCount,
		Research:     u.ResearchCount,
		NeedsID:      u.NeedsIDCount,
		Casual:       u.CasualCount,
	}
}
