package scoring

import (
	"sort"

	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/internal/domain/taxon"
)

// UserScore accumulates one user's totals across a scoring run.
type UserScore struct {
	Login         string
	ObsCount      int
	SpeciesCount  int
	ResearchCount int
	NeedsIDCount  int
	CasualCount   int
	Points        float64

	taxa map[int64]struct{}
}

// DayScore accumulates one calendar day's totals across all users.
type DayScore struct {
	Date         string
	ObsCount     int
	SpeciesCount int
	Participants map[string]struct{}
	Points       float64

	taxa map[int64]struct{}
}

// Scoreboard is the aggregate of a full scoring run: per-user and per-day
// totals, one independent leaderboard per taxon group, and the overall
// ranking sorted descending by points (stable, so ties keep accumulation
// order).
type Scoreboard struct {
	ByUser  map[string]*UserScore
	ByDay   map[string]*DayScore
	Groups  map[taxon.Group][]*UserScore
	Ranked  []*UserScore
	Context *Context
}

// Aggregate scores every observation once and folds the results into user,
// day, and taxon-group totals. The observation list must be the same set the
// context was built from. Empty input yields empty maps, never an error.
func Aggregate(observations []model.Observation, ctx *Context) *Scoreboard {
	board := &Scoreboard{
		ByUser:  make(map[string]*UserScore),
		ByDay:   make(map[string]*DayScore),
		Groups:  make(map[taxon.Group][]*UserScore),
		Context: ctx,
	}

	// Taxon-group buckets are their own accumulations, not views over
	// ByUser: a user's group totals only include observations in that group.
	groupUsers := make(map[taxon.Group]map[string]*UserScore)
	for _, g := range taxon.Groups() {
		groupUsers[g] = make(map[string]*UserScore)
		board.Groups[g] = nil
	}

	for i := range observations {
		obs := &observations[i]
		pts := ScoreObservation(obs, ctx)

		user := board.ByUser[obs.UserLogin]
		if user == nil {
			user = newUserScore(obs.UserLogin)
			board.ByUser[obs.UserLogin] = user
		}
		user.fold(obs, pts)

		day := board.ByDay[obs.ObservedOn]
		if day == nil {
			day = &DayScore{
				Date:         obs.ObservedOn,
				Participants: make(map[string]struct{}),
				taxa:         make(map[int64]struct{}),
			}
			board.ByDay[obs.ObservedOn] = day
		}
		day.fold(obs, pts)

		if g, ok := taxon.Classify(obs.IconicTaxon); ok {
			gu := groupUsers[g][obs.UserLogin]
			if gu == nil {
				gu = newUserScore(obs.UserLogin)
				groupUsers[g][obs.UserLogin] = gu
				board.Groups[g] = append(board.Groups[g], gu)
			}
			gu.fold(obs, pts)
		}
	}

	for _, g := range taxon.Groups() {
		sortByPoints(board.Groups[g])
	}

	board.Ranked = make([]*UserScore, 0, len(board.ByUser))
	for _, u := range board.ByUser {
		board.Ranked = append(board.Ranked, u)
	}
	// Map order is random; fix it by login before the stable points sort so
	// ties rank deterministically.
	sort.Slice(board.Ranked, func(i, j int) bool {
		return board.Ranked[i].Login < board.Ranked[j].Login
	})
	sortByPoints(board.Ranked)

	return board
}

func newUserScore(login string) *UserScore {
	return &UserScore{Login: login, taxa: make(map[int64]struct{})}
}

func (u *UserScore) fold(obs *model.Observation, pts float64) {
	u.ObsCount++
	if obs.HasTaxon() {
		if _, seen := u.taxa[obs.TaxonID]; !seen {
			u.taxa[obs.TaxonID] = struct{}{}
			u.SpeciesCount++
		}
	}
	switch obs.Quality {
	case model.QualityResearch:
		u.ResearchCount++
	case model.QualityNeedsID:
		u.NeedsIDCount++
	default:
		u.CasualCount++
	}
	u.Points = Round2(u.Points + pts)
}

func (d *DayScore) fold(obs *model.Observation, pts float64) {
	d.ObsCount++
	if obs.HasTaxon() {
		if _, seen := d.taxa[obs.TaxonID]; !seen {
			d.taxa[obs.TaxonID] = struct{}{}
			d.SpeciesCount++
		}
	}
	d.Participants[obs.UserLogin] = struct{}{}
	d.Points = Round2(d.Points + pts)
}

func sortByPoints(users []*UserScore) {
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Points > users[j].Points
	})
}
