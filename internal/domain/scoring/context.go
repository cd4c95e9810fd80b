// Package scoring computes observation point values and aggregates them
// into leaderboards. All computation is a pure function of the observation
// set and an injected reference time; nothing here reads the system clock
// or keeps state between runs.
package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/ecoquest/bioblitz/internal/domain/model"
)

// Default context configuration constants.
const (
	defaultTrailingWindow = 24 * time.Hour
)

// Rarity tiers derived from per-taxon observation counts. Fewer sightings
// of a taxon mean a higher rarity value.
const (
	rarityUnique    = 3 // exactly one observation
	rarityScarce    = 2 // at most 3
	rarityUncommon  = 1 // at most 10
	rarityCommon    = 0
	scarceMaxCount  = 3
	uncommonMaxSize = 10
)

// ContextOption applies a configuration option to context construction.
type ContextOption func(*contextConfig)

type contextConfig struct {
	trailingWindow time.Duration
}

// WithTrailingWindow sets the rolling window used for the catch-up
// percentile. Defaults to 24 hours.
func WithTrailingWindow(d time.Duration) ContextOption {
	return func(c *contextConfig) {
		if d > 0 {
			c.trailingWindow = d
		}
	}
}

// Context holds the lookup structures one scoring run needs. It is built
// once per run and never mutated afterwards; every observation scored
// against it must come from the set it was built from.
type Context struct {
	referenceTime time.Time

	byTaxon          map[int64][]model.Observation
	noveltyIndex     map[int64]int   // observation id -> chronological index within its taxon
	tripFirstByTaxon map[int64]int64 // taxon id -> observation id
	dayFirstByTaxon  map[string]int64
	rarityByTaxon    map[int64]int
	userDayCounts    map[string]int
	trailingPct      map[string]float64
}

// BuildContext sorts the observations by effective time (stable, so equal
// timestamps keep input order) and derives all per-run lookups in a single
// forward pass. referenceTime anchors the trailing-activity window; passing
// it explicitly keeps the context reproducible in tests.
func BuildContext(observations []model.Observation, referenceTime time.Time, opts ...ContextOption) *Context {
	cfg := contextConfig{trailingWindow: defaultTrailingWindow}
	for _, opt := range opts {
		opt(&cfg)
	}

	sorted := make([]model.Observation, len(observations))
	copy(sorted, observations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveTime().Before(sorted[j].EffectiveTime())
	})

	ctx := &Context{
		referenceTime:    referenceTime,
		byTaxon:          make(map[int64][]model.Observation),
		noveltyIndex:     make(map[int64]int),
		tripFirstByTaxon: make(map[int64]int64),
		dayFirstByTaxon:  make(map[string]int64),
		rarityByTaxon:    make(map[int64]int),
		userDayCounts:    make(map[string]int),
		trailingPct:      make(map[string]float64),
	}

	for i := range sorted {
		obs := &sorted[i]
		if obs.HasTaxon() {
			ctx.noveltyIndex[obs.ID] = len(ctx.byTaxon[obs.TaxonID])
			ctx.byTaxon[obs.TaxonID] = append(ctx.byTaxon[obs.TaxonID], *obs)
			if _, seen := ctx.tripFirstByTaxon[obs.TaxonID]; !seen {
				ctx.tripFirstByTaxon[obs.TaxonID] = obs.ID
			}
			dk := taxonDayKey(obs.TaxonID, obs.ObservedOn)
			if _, seen := ctx.dayFirstByTaxon[dk]; !seen {
				ctx.dayFirstByTaxon[dk] = obs.ID
			}
		}
		// Unidentified observations still count toward fatigue.
		ctx.userDayCounts[userDayKey(obs.UserLogin, obs.ObservedOn)]++
	}

	for taxonID, list := range ctx.byTaxon {
		ctx.rarityByTaxon[taxonID] = rarityForCount(len(list))
	}

	ctx.buildTrailingPercentiles(sorted, cfg.trailingWindow)

	return ctx
}

// buildTrailingPercentiles ranks users by observation volume inside the
// window ending at the reference time. Percentile 0 is the least active
// recent user; users with no recent activity are absent from the map.
func (c *Context) buildTrailingPercentiles(sorted []model.Observation, window time.Duration) {
	cutoff := c.referenceTime.Add(-window)
	counts := make(map[string]int)
	for i := range sorted {
		t := sorted[i].EffectiveTime()
		if t.After(cutoff) && !t.After(c.referenceTime) {
			counts[sorted[i].UserLogin]++
		}
	}
	if len(counts) == 0 {
		return
	}

	type userCount struct {
		login string
		count int
	}
	ranked := make([]userCount, 0, len(counts))
	for login, n := range counts {
		ranked = append(ranked, userCount{login: login, count: n})
	}
	// Ascending by count; ties ordered by login so runs are deterministic.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count < ranked[j].count
		}
		return ranked[i].login < ranked[j].login
	})

	if len(ranked) == 1 {
		c.trailingPct[ranked[0].login] = 0
		return
	}
	for i, uc := range ranked {
		c.trailingPct[uc.login] = float64(i) / float64(len(ranked)-1)
	}
}

func rarityForCount(n int) int {
	switch {
	case n == 1:
		return rarityUnique
	case n <= scarceMaxCount:
		return rarityScarce
	case n <= uncommonMaxSize:
		return rarityUncommon
	default:
		return rarityCommon
	}
}

// ReferenceTime returns the wall-clock anchor the context was built with.
func (c *Context) ReferenceTime() time.Time {
	return c.referenceTime
}

// NoveltyIndex returns the observation's zero-based chronological position
// within its taxon. The second return is false for unidentified
// observations and for observations outside the context's source set.
func (c *Context) NoveltyIndex(obs *model.Observation) (int, bool) {
	if !obs.HasTaxon() {
		return 0, false
	}
	idx, ok := c.noveltyIndex[obs.ID]
	return idx, ok
}

// IsTripFirst reports whether obs is the first recorded sighting of its
// taxon across the whole trip.
func (c *Context) IsTripFirst(obs *model.Observation) bool {
	return obs.HasTaxon() && c.tripFirstByTaxon[obs.TaxonID] == obs.ID
}

// IsDayFirst reports whether obs is the first sighting of its taxon on its
// calendar day.
func (c *Context) IsDayFirst(obs *model.Observation) bool {
	if !obs.HasTaxon() {
		return false
	}
	id, ok := c.dayFirstByTaxon[taxonDayKey(obs.TaxonID, obs.ObservedOn)]
	return ok && id == obs.ID
}

// Rarity returns the 0-3 rarity tier for a taxon; 0 for unknown taxa.
func (c *Context) Rarity(taxonID int64) int {
	r := c.rarityByTaxon[taxonID]
	if r < rarityCommon {
		return rarityCommon
	}
	if r > rarityUnique {
		return rarityUnique
	}
	return r
}

// TaxonCount returns how many observations of taxonID the run contains.
func (c *Context) TaxonCount(taxonID int64) int {
	return len(c.byTaxon[taxonID])
}

// TripFirstCount returns the number of taxa whose trip-first observation is
// attributed to login.
func (c *Context) TripFirstCount(login string, observations []model.Observation) int {
	n := 0
	for i := range observations {
		if observations[i].UserLogin == login && c.IsTripFirst(&observations[i]) {
			n++
		}
	}
	return n
}

// UserDayCount returns the user's total observation count on a day.
func (c *Context) UserDayCount(login, day string) int {
	return c.userDayCounts[userDayKey(login, day)]
}

// TrailingPercentile returns the user's ascending percentile of recent
// activity. Users absent from the trailing window report 1, meaning no
// catch-up boost.
func (c *Context) TrailingPercentile(login string) float64 {
	pct, ok := c.trailingPct[login]
	if !ok {
		return 1
	}
	return pct
}

func taxonDayKey(taxonID int64, day string) string {
	return fmt.Sprintf("%d|%s", taxonID, day)
}

func userDayKey(login, day string) string {
	return login + "|" + day
}
