package trophy

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/internal/domain/scoring"
	"github.com/ecoquest/bioblitz/internal/domain/taxon"
)

const sampleCap = 3

// Early Bird window: [04:00, 07:00).
const (
	earlyBirdStartHour = 4
	earlyBirdEndHour   = 7
)

// Night Owl windows. The dusk variant starts at 17:30 (historical
// fallback-sunset definition); the late variant spans 20:00-05:00. The two
// disagree on purpose and stay separate trophies.
const (
	duskStartHour   = 17
	duskStartMinute = 30
	lateStartHour   = 20
	lateEndHour     = 5
)

// countTrophy builds a trophy whose value is the number of qualifying
// observations per user. Ties rank by the earliest qualifying time.
func countTrophy(slug, title string, scope Scope, minCount int, noun string, qualify func(*model.Observation, *scoring.Context) bool) *Trophy {
	return New(slug, title, scope, func(observations []model.Observation, ctx *scoring.Context) []Result {
		type acc struct {
			count  int
			first  time.Time
			sample []model.Observation
		}
		accs := make(map[string]*acc)
		sorted := chronological(observations)
		for i := range sorted {
			obs := &sorted[i]
			if !qualify(obs, ctx) {
				continue
			}
			a := accs[obs.UserLogin]
			if a == nil {
				a = &acc{first: obs.EffectiveTime()}
				accs[obs.UserLogin] = a
			}
			a.count++
			if len(a.sample) < sampleCap {
				a.sample = append(a.sample, *obs)
			}
		}

		var cands []candidate
		for login, a := range accs {
			if a.count < minCount {
				continue
			}
			cands = append(cands, candidate{
				result: Result{
					Login:    login,
					Value:    float64(a.count),
					Evidence: fmt.Sprintf("%d %s", a.count, noun),
					Sample:   a.sample,
				},
				at: a.first,
			})
		}
		return rank(cands)
	})
}

// varietyHero ranks users by distinct species. The tiebreak is the moment
// the user recorded their last newly-added species, so whoever reached the
// shared count first wins.
func varietyHero(slug string, scope Scope) *Trophy {
	return New(slug, "Variety Hero", scope, func(observations []model.Observation, ctx *scoring.Context) []Result {
		type acc struct {
			taxa    map[int64]struct{}
			lastNew time.Time
			sample  []model.Observation
		}
		accs := make(map[string]*acc)
		sorted := chronological(observations)
		for i := range sorted {
			obs := &sorted[i]
			if !obs.HasTaxon() {
				continue
			}
			a := accs[obs.UserLogin]
			if a == nil {
				a = &acc{taxa: make(map[int64]struct{})}
				accs[obs.UserLogin] = a
			}
			if _, seen := a.taxa[obs.TaxonID]; seen {
				continue
			}
			a.taxa[obs.TaxonID] = struct{}{}
			a.lastNew = obs.EffectiveTime()
			if len(a.sample) < sampleCap {
				a.sample = append(a.sample, *obs)
			}
		}

		var cands []candidate
		for login, a := range accs {
			n := len(a.taxa)
			if n < varietyMinSpecies {
				continue
			}
			cands = append(cands, candidate{
				result: Result{
					Login:    login,
					Value:    float64(n),
					Evidence: fmt.Sprintf("%d distinct species", n),
					Sample:   a.sample,
				},
				at: a.lastNew,
			})
		}
		return rank(cands)
	})
}

// rareFindTrip sums each user's per-observation rarity across the trip.
func rareFindTrip() *Trophy {
	return New("rare-find", "Rare Find", ScopeTrip, func(observations []model.Observation, ctx *scoring.Context) []Result {
		return rareFind(observations, ctx, func(total, r int) int { return total + r })
	})
}

// rareFindDaily takes each user's single rarest observation of the day.
func rareFindDaily() *Trophy {
	return New("daily-rare-find", "Rare Find", ScopeDaily, func(observations []model.Observation, ctx *scoring.Context) []Result {
		return rareFind(observations, ctx, func(best, r int) int {
			if r > best {
				return r
			}
			return best
		})
	})
}

// rareFind folds per-observation rarity with the given combiner. The
// reported sample is the numerically rarest observation, earliest first on
// ties.
func rareFind(observations []model.Observation, ctx *scoring.Context, combine func(acc, rarity int) int) []Result {
	type acc struct {
		value      int
		bestRarity int
		best       model.Observation
		first      time.Time
	}
	accs := make(map[string]*acc)
	sorted := chronological(observations)
	for i := range sorted {
		obs := &sorted[i]
		if !obs.HasTaxon() {
			continue
		}
		r := ctx.Rarity(obs.TaxonID)
		if r == 0 {
			continue
		}
		a := accs[obs.UserLogin]
		if a == nil {
			a = &acc{first: obs.EffectiveTime()}
			accs[obs.UserLogin] = a
		}
		a.value = combine(a.value, r)
		if r > a.bestRarity {
			a.bestRarity = r
			a.best = *obs
		}
	}

	var cands []candidate
	for login, a := range accs {
		if a.value < 1 {
			continue
		}
		cands = append(cands, candidate{
			result: Result{
				Login:    login,
				Value:    float64(a.value),
				Evidence: fmt.Sprintf("rarity %d, rarest: %s", a.value, a.best.TaxonName),
				Sample:   []model.Observation{a.best},
			},
			at: a.first,
		})
	}
	return rank(cands)
}

func earlyBird() *Trophy {
	return countTrophy("early-bird", "Early Bird", ScopeDaily, timeWindowMinCount,
		"observations between 04:00 and 07:00",
		func(obs *model.Observation, _ *scoring.Context) bool {
			h := obs.EffectiveTime().Hour()
			return h >= earlyBirdStartHour && h < earlyBirdEndHour
		})
}

func nightOwlDusk() *Trophy {
	return countTrophy("night-owl-dusk", "Night Owl (Dusk)", ScopeDaily, timeWindowMinCount,
		"observations after 17:30",
		func(obs *model.Observation, _ *scoring.Context) bool {
			t := obs.EffectiveTime()
			return t.Hour() > duskStartHour ||
				(t.Hour() == duskStartHour && t.Minute() >= duskStartMinute)
		})
}

func nightOwlLate() *Trophy {
	return countTrophy("night-owl-late", "Night Owl (Late)", ScopeDaily, timeWindowMinCount,
		"observations between 20:00 and 05:00",
		func(obs *model.Observation, _ *scoring.Context) bool {
			h := obs.EffectiveTime().Hour()
			return h >= lateStartHour || h < lateEndHour
		})
}

func trailblazer() *Trophy {
	return countTrophy("trailblazer", "Trailblazer", ScopeTrip, trailblazerMinFirsts,
		"trip-first species",
		func(obs *model.Observation, ctx *scoring.Context) bool {
			return ctx.IsTripFirst(obs)
		})
}

func peerReviewedPro(slug string, scope Scope, minCount int) *Trophy {
	return countTrophy(slug, "Peer-Reviewed Pro", scope, minCount,
		"research-grade observations",
		func(obs *model.Observation, _ *scoring.Context) bool {
			return obs.Quality == model.QualityResearch
		})
}

func taxonGroupTrophy(g taxon.Group, scope Scope, minCount int) *Trophy {
	title := taxonGroupTitles[g]
	slug := strings.ToLower(strings.ReplaceAll(title, " ", "-"))
	if scope == ScopeDaily {
		slug = "daily-" + slug
	}
	return countTrophy(slug, title, scope, minCount,
		fmt.Sprintf("%s observations", g),
		func(obs *model.Observation, _ *scoring.Context) bool {
			return taxon.Matches(obs.IconicTaxon, g)
		})
}

// steadyEddieHours counts the distinct clock hours a user was active in a
// day. The streak variant below measures consecutive days instead; the two
// definitions diverged in earlier registries and both are kept.
func steadyEddieHours() *Trophy {
	return New("steady-eddie-hours", "Steady Eddie", ScopeDaily, func(observations []model.Observation, ctx *scoring.Context) []Result {
		type acc struct {
			hours map[int]struct{}
			first time.Time
		}
		accs := make(map[string]*acc)
		sorted := chronological(observations)
		for i := range sorted {
			obs := &sorted[i]
			a := accs[obs.UserLogin]
			if a == nil {
				a = &acc{hours: make(map[int]struct{}), first: obs.EffectiveTime()}
				accs[obs.UserLogin] = a
			}
			a.hours[obs.EffectiveTime().Hour()] = struct{}{}
		}

		var cands []candidate
		for login, a := range accs {
			n := len(a.hours)
			if n < steadyHoursMin {
				continue
			}
			cands = append(cands, candidate{
				result: Result{
					Login:    login,
					Value:    float64(n),
					Evidence: fmt.Sprintf("active in %d distinct hours", n),
				},
				at: a.first,
			})
		}
		return rank(cands)
	})
}

func steadyEddieStreak() *Trophy {
	return New("steady-eddie-streak", "Steady Eddie", ScopeTrip, func(observations []model.Observation, ctx *scoring.Context) []Result {
		type acc struct {
			days  map[string]struct{}
			first time.Time
		}
		accs := make(map[string]*acc)
		sorted := chronological(observations)
		for i := range sorted {
			obs := &sorted[i]
			a := accs[obs.UserLogin]
			if a == nil {
				a = &acc{days: make(map[string]struct{}), first: obs.EffectiveTime()}
				accs[obs.UserLogin] = a
			}
			a.days[obs.ObservedOn] = struct{}{}
		}

		var cands []candidate
		for login, a := range accs {
			streak := longestStreak(a.days)
			if streak < steadyStreakMinDays {
				continue
			}
			cands = append(cands, candidate{
				result: Result{
					Login:    login,
					Value:    float64(streak),
					Evidence: fmt.Sprintf("%d consecutive days", streak),
				},
				at: a.first,
			})
		}
		return rank(cands)
	})
}

// longestStreak finds the longest run of consecutive calendar days.
// Unparseable day strings break any streak they would join.
func longestStreak(days map[string]struct{}) int {
	parsed := make([]time.Time, 0, len(days))
	for day := range days {
		if t, err := time.Parse(model.DayFormat, day); err == nil {
			parsed = append(parsed, t)
		}
	}
	if len(parsed) == 0 {
		return 0
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Before(parsed[j]) })

	best, run := 1, 1
	for i := 1; i < len(parsed); i++ {
		if parsed[i].Sub(parsed[i-1]) == 24*time.Hour {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 1
		}
	}
	return best
}

// biodiversityChampion ranks users by the Shannon diversity index H' of
// their per-taxon observation distribution. Six same-taxon observations
// score 0; six distinct taxa score ln(6).
func biodiversityChampion() *Trophy {
	return New("biodiversity-champion", "Biodiversity Champion", ScopeTrip, func(observations []model.Observation, ctx *scoring.Context) []Result {
		type acc struct {
			obsCount int
			taxa     map[int64]int
			first    time.Time
		}
		accs := make(map[string]*acc)
		sorted := chronological(observations)
		for i := range sorted {
			obs := &sorted[i]
			a := accs[obs.UserLogin]
			if a == nil {
				a = &acc{taxa: make(map[int64]int), first: obs.EffectiveTime()}
				accs[obs.UserLogin] = a
			}
			a.obsCount++
			if obs.HasTaxon() {
				a.taxa[obs.TaxonID]++
			}
		}

		var cands []candidate
		for login, a := range accs {
			if a.obsCount < diversityMinObs || len(a.taxa) == 0 {
				continue
			}
			h := shannonIndex(a.taxa)
			cands = append(cands, candidate{
				result: Result{
					Login:    login,
					Value:    h,
					Evidence: fmt.Sprintf("H' = %.4f across %d species", h, len(a.taxa)),
				},
				at: a.first,
			})
		}
		return rank(cands)
	})
}

// shannonIndex computes H' = -sum(p_i * ln(p_i)) over taxon counts.
func shannonIndex(taxa map[int64]int) float64 {
	total := 0
	for _, n := range taxa {
		total += n
	}
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, n := range taxa {
		p := float64(n) / float64(total)
		h -= p * math.Log(p)
	}
	return h
}
