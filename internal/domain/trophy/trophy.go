// Package trophy derives ranked, named awards from a scored observation
// set. Trophies are pure derivations: nothing is persisted, every view is
// recomputed from the observations and the scoring context.
package trophy

import (
	"sort"
	"time"

	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/internal/domain/scoring"
)

// Scope controls which observations a trophy sees.
type Scope string

// Trophy scopes. Daily trophies are evaluated against a single calendar
// day; trip trophies see the full observation set.
const (
	ScopeDaily Scope = "daily"
	ScopeTrip  Scope = "trip"
)

// Result is one user's standing for a trophy.
type Result struct {
	Login    string
	Value    float64
	Evidence string
	Sample   []model.Observation
}

// EvalFunc computes trophy standings for a (possibly day-filtered)
// observation set. Implementations must return an empty slice, not an
// error, when nobody qualifies.
type EvalFunc func(observations []model.Observation, ctx *scoring.Context) []Result

// Trophy is a named derivation with a qualification threshold baked into
// its evaluator.
type Trophy struct {
	Slug  string
	Title string
	Scope Scope
	eval  EvalFunc
}

// New constructs a trophy from its parts.
func New(slug, title string, scope Scope, eval EvalFunc) *Trophy {
	return &Trophy{Slug: slug, Title: title, Scope: scope, eval: eval}
}

// Evaluate runs the trophy. For daily trophies the observations are first
// narrowed to the given ObservedOn day; trip trophies ignore day.
func (t *Trophy) Evaluate(observations []model.Observation, ctx *scoring.Context, day string) []Result {
	if t.Scope == ScopeDaily {
		filtered := make([]model.Observation, 0, len(observations))
		for i := range observations {
			if observations[i].ObservedOn == day {
				filtered = append(filtered, observations[i])
			}
		}
		observations = filtered
	}
	return t.eval(observations, ctx)
}

// candidate pairs a result with its tiebreak instant. Standings sort
// descending by value; equal values rank by earliest qualifying time, then
// login, so repeated runs agree.
type candidate struct {
	result Result
	at     time.Time
}

func rank(cands []candidate) []Result {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := &cands[i], &cands[j]
		if a.result.Value != b.result.Value {
			return a.result.Value > b.result.Value
		}
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		return a.result.Login < b.result.Login
	})
	results := make([]Result, len(cands))
	for i := range cands {
		results[i] = cands[i].result
	}
	return results
}

// chronological returns a copy of observations in effective-time order,
// stable so equal timestamps keep input order.
func chronological(observations []model.Observation) []model.Observation {
	sorted := make([]model.Observation, len(observations))
	copy(sorted, observations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveTime().Before(sorted[j].EffectiveTime())
	})
	return sorted
}
