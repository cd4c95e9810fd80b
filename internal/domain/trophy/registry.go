package trophy

import (
	"fmt"

	"github.com/ecoquest/bioblitz/internal/domain/taxon"
)

// Qualification thresholds per trophy family.
const (
	varietyMinSpecies    = 2
	timeWindowMinCount   = 2
	steadyHoursMin       = 2
	steadyStreakMinDays  = 2
	diversityMinObs      = 6
	researchDailyMin     = 3
	researchTripMin      = 10
	taxonGroupDailyMin   = 2
	taxonGroupTripMin    = 6
	trailblazerMinFirsts = 1
)

// Registry holds trophies by slug, preserving registration order.
type Registry struct {
	order  []string
	bySlug map[string]*Trophy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bySlug: make(map[string]*Trophy)}
}

// Register adds a trophy. Duplicate slugs are rejected so divergent trophy
// definitions stay visibly distinct instead of silently replacing each
// other.
func (r *Registry) Register(t *Trophy) error {
	if _, exists := r.bySlug[t.Slug]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSlug, t.Slug)
	}
	r.bySlug[t.Slug] = t
	r.order = append(r.order, t.Slug)
	return nil
}

// Get returns the trophy registered under slug.
func (r *Registry) Get(slug string) (*Trophy, bool) {
	t, ok := r.bySlug[slug]
	return t, ok
}

// All returns every trophy in registration order.
func (r *Registry) All() []*Trophy {
	out := make([]*Trophy, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.bySlug[slug])
	}
	return out
}

// Scoped returns the trophies with the given scope, in registration order.
func (r *Registry) Scoped(scope Scope) []*Trophy {
	out := make([]*Trophy, 0, len(r.order))
	for _, slug := range r.order {
		if t := r.bySlug[slug]; t.Scope == scope {
			out = append(out, t)
		}
	}
	return out
}

// taxonGroupTitles names the per-group trophies.
var taxonGroupTitles = map[taxon.Group]string{
	taxon.Birds:      "Bird Watcher",
	taxon.Mammals:    "Mammal Tracker",
	taxon.Reptiles:   "Reptile Hunter",
	taxon.Amphibians: "Amphibian Ally",
	taxon.Spiders:    "Spider Spotter",
	taxon.Insects:    "Insect Scout",
}

// DefaultRegistry wires the full trophy set. Night Owl and Steady Eddie
// each exist in two historical variants with incompatible definitions; both
// are registered under distinct slugs until product picks one.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	register := func(t *Trophy) {
		// Slugs below are static and unique; a collision is a programming
		// error in this function.
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}

	// Trip-wide trophies.
	register(varietyHero("variety-hero", ScopeTrip))
	register(rareFindTrip())
	register(trailblazer())
	register(steadyEddieStreak())
	register(biodiversityChampion())
	register(peerReviewedPro("peer-reviewed-pro", ScopeTrip, researchTripMin))

	// Daily trophies.
	register(varietyHero("daily-variety-hero", ScopeDaily))
	register(rareFindDaily())
	register(earlyBird())
	register(nightOwlDusk())
	register(nightOwlLate())
	register(steadyEddieHours())
	register(peerReviewedPro("daily-peer-reviewed-pro", ScopeDaily, researchDailyMin))

	// Per-group count trophies, trip and daily variants.
	for _, g := range taxon.Groups() {
		register(taxonGroupTrophy(g, ScopeTrip, taxonGroupTripMin))
	}
	for _, g := range taxon.Groups() {
		register(taxonGroupTrophy(g, ScopeDaily, taxonGroupDailyMin))
	}

	return r
}
