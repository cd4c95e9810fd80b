package scoring

import (
	"math"

	"github.com/ecoquest/bioblitz/internal/domain/model"
)

// Diminishing-returns weights for the Nth chronological observation of a
// taxon (zero-indexed). Observations past the table get overflowWeight.
var firstNWeights = []float64{1.00, 0.75, 0.55, 0.40, 0.30, 0.20}

const overflowWeight = 0.15

// Novelty bonuses. Trip novelty rewards the first-ever sighting of a taxon;
// day novelty rewards the first sighting that calendar day. "Early" means
// among the first two recorded for the taxon (firstN weight >= 0.75).
const (
	tripFirstBonus = 3.0
	tripEarlyBonus = 2.0
	tripLateBonus  = 1.0

	dayFirstBonus = 1.5
	dayEarlyBonus = 0.75
	dayLateBonus  = 0.3

	earlyWeightCutoff = 0.75
)

// Quality-grade bonuses.
const (
	researchBonus = 1.0
	needsIDBonus  = 0.5
)

// Fatigue damping by same-day volume.
const (
	fatigueFreshMax = 20
	fatigueTiredMax = 50

	fatigueFresh     = 1.0
	fatigueTired     = 0.6
	fatigueExhausted = 0.3
)

// Rubber-band catch-up multipliers by trailing-activity percentile.
const (
	rubberBandLowCutoff = 0.30
	rubberBandMidCutoff = 0.60

	rubberBandLowBoost = 1.20
	rubberBandMidBoost = 1.10
	rubberBandNoBoost  = 1.00
)

const basePoints = 1.0

// ScoreObservation computes the point value of a single observation against
// the context it was built from:
//
//	points = (base + noveltyTrip + noveltyDay + rarity + quality)
//	         * firstN * fatigue * rubberBand
//
// The result is non-negative and rounded to 2 decimals. Scoring an
// observation that was not part of the context's source set is a contract
// violation; lookups then fall back to conservative defaults and the value
// is meaningless.
func ScoreObservation(obs *model.Observation, ctx *Context) float64 {
	fn := firstNFactor(obs, ctx)

	points := basePoints +
		noveltyTrip(obs, ctx, fn) +
		noveltyDay(obs, ctx, fn) +
		rarityTerm(obs, ctx) +
		qualityBonus(obs.Quality)

	points *= fn
	points *= fatigueFactor(ctx.UserDayCount(obs.UserLogin, obs.ObservedOn))
	points *= rubberBandFactor(ctx.TrailingPercentile(obs.UserLogin))

	return Round2(points)
}

// firstNFactor maps the observation's chronological position within its
// taxon to a diminishing weight. Unidentified observations score as if
// first.
func firstNFactor(obs *model.Observation, ctx *Context) float64 {
	idx, ok := ctx.NoveltyIndex(obs)
	if !ok {
		return 1
	}
	if idx < len(firstNWeights) {
		return firstNWeights[idx]
	}
	return overflowWeight
}

func noveltyTrip(obs *model.Observation, ctx *Context, fn float64) float64 {
	switch {
	case !obs.HasTaxon():
		return tripLateBonus
	case ctx.IsTripFirst(obs):
		return tripFirstBonus
	case fn >= earlyWeightCutoff:
		return tripEarlyBonus
	default:
		return tripLateBonus
	}
}

func noveltyDay(obs *model.Observation, ctx *Context, fn float64) float64 {
	switch {
	case !obs.HasTaxon():
		return dayLateBonus
	case ctx.IsDayFirst(obs):
		return dayFirstBonus
	case fn >= earlyWeightCutoff:
		return dayEarlyBonus
	default:
		return dayLateBonus
	}
}

func rarityTerm(obs *model.Observation, ctx *Context) float64 {
	if !obs.HasTaxon() {
		return 0
	}
	return float64(ctx.Rarity(obs.TaxonID))
}

func qualityBonus(q model.QualityGrade) float64 {
	switch q {
	case model.QualityResearch:
		return researchBonus
	case model.QualityNeedsID:
		return needsIDBonus
	default:
		return 0
	}
}

func fatigueFactor(dayCount int) float64 {
	switch {
	case dayCount <= fatigueFreshMax:
		return fatigueFresh
	case dayCount <= fatigueTiredMax:
		return fatigueTired
	default:
		return fatigueExhausted
	}
}

func rubberBandFactor(pct float64) float64 {
	switch {
	case pct < rubberBandLowCutoff:
		return rubberBandLowBoost
	case pct < rubberBandMidCutoff:
		return rubberBandMidBoost
	default:
		return rubberBandNoBoost
	}
}

// Round2 rounds to 2 decimal places, halves away from zero. Per-observation
// scores are rounded before they enter any running total.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
