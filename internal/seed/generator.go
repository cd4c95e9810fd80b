// Package seed generates synthetic bioblitz observations and submits them
// to a running service for demos and load checks.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/pkg/logger"
	"github.com/google/uuid"
)

// Observation shares per 10000 without a taxon or without a timestamp.
const (
	noTaxonPerMyriad = 800
	noTimePerMyriad  = 1500
	myriad           = 10000
)

// Quality grade distribution per 10000.
const (
	researchPerMyriad = 4500
	needsIDPerMyriad  = 3500
)

type species struct {
	taxonID     int64
	name        string
	rank        string
	iconicTaxon string
	weight      int
}

// speciesPool skews toward a few common taxa so rarity tiers and novelty
// bonuses show up in generated data.
var speciesPool = []species{
	{taxonID: 13858, name: "Turdus merula", rank: "species", iconicTaxon: "Aves", weight: 40},
	{taxonID: 14886, name: "Parus major", rank: "species", iconicTaxon: "Aves", weight: 35},
	{taxonID: 46017, name: "Sciurus vulgaris", rank: "species", iconicTaxon: "Mammalia", weight: 30},
	{taxonID: 47219, name: "Apis mellifera", rank: "species", iconicTaxon: "Insecta", weight: 30},
	{taxonID: 48662, name: "Coccinella septempunctata", rank: "species", iconicTaxon: "Insecta", weight: 25},
	{taxonID: 24255, name: "Rana temporaria", rank: "species", iconicTaxon: "Amphibia", weight: 15},
	{taxonID: 26159, name: "Lacerta agilis", rank: "species", iconicTaxon: "Reptilia", weight: 10},
	{taxonID: 52775, name: "Araneus diadematus", rank: "species", iconicTaxon: "Arachnida", weight: 10},
	{taxonID: 42069, name: "Vulpes vulpes", rank: "species", iconicTaxon: "Mammalia", weight: 8},
	{taxonID: 19893, name: "Strix aluco", rank: "species", iconicTaxon: "Aves", weight: 5},
	{taxonID: 61371, name: "Lucanus cervus", rank: "species", iconicTaxon: "Insecta", weight: 3},
	{taxonID: 32143, name: "Natrix natrix", rank: "species", iconicTaxon: "Reptilia", weight: 2},
	{taxonID: 58329, name: "Salamandra salamandra", rank: "species", iconicTaxon: "Amphibia", weight: 1},
}

var loginPool = []string{
	"maria", "jonas", "li_wei", "amelie", "kofi", "sofia", "ravi",
	"elena", "tom", "yuki", "carlos", "ingrid", "noor", "pablo",
	"anja", "felix", "greta", "omar", "lucia", "sven",
}

// Generate produces cfg.Count observation events spread over the
// configured users and days. The same seed yields the same events.
func Generate(ctx context.Context, cfg Config) ([]model.Event, error) {
	cfg = cfg.normalized()
	rng := rand.New(rand.NewSource(cfg.Seed))

	startDay, err := time.Parse(model.DayFormat, cfg.StartDay)
	if err != nil {
		return nil, fmt.Errorf("invalid start day %q: %w", cfg.StartDay, err)
	}

	logins := make([]string, cfg.Users)
	for i := range logins {
		if i < len(loginPool) {
			logins[i] = loginPool[i]
		} else {
			logins[i] = fmt.Sprintf("observer_%d", i+1)
		}
	}

	logger.Get().Info(ctx, "generating observations",
		logger.Int("count", cfg.Count),
		logger.Int("users", cfg.Users),
		logger.Int("days", cfg.Days),
		logger.Int64("seed", cfg.Seed),
	)

	totalWeight := 0
	for _, sp := range speciesPool {
		totalWeight += sp.weight
	}

	events := make([]model.Event, cfg.Count)
	for i := range events {
		day := startDay.AddDate(0, 0, rng.Intn(cfg.Days))
		obs := model.Observation{
			ID:         int64(100_000 + i),
			ObservedOn: day.Format(model.DayFormat),
			UserLogin:  logins[rng.Intn(len(logins))],
			Quality:    pickQuality(rng),
			Lat:        52.3 + rng.Float64()*0.4,
			Lng:        13.1 + rng.Float64()*0.6,
		}
		if rng.Intn(myriad) >= noTaxonPerMyriad {
			sp := pickSpecies(rng, totalWeight)
			obs.TaxonID = sp.taxonID
			obs.TaxonName = sp.name
			obs.TaxonRank = sp.rank
			obs.IconicTaxon = sp.iconicTaxon
			obs.URI = fmt.Sprintf("https://observations.example/%d", obs.ID)
		}
		if rng.Intn(myriad) >= noTimePerMyriad {
			obs.TimeObservedAt = day.Add(pickTimeOfDay(rng))
		}
		events[i] = model.Event{
			EventID:    uuid.NewString(),
			Obs:        obs,
			ReceivedAt: time.Now(),
		}
	}

	return events, nil
}

func pickSpecies(rng *rand.Rand, totalWeight int) species {
	n := rng.Intn(totalWeight)
	for _, sp := range speciesPool {
		n -= sp.weight
		if n < 0 {
			return sp
		}
	}
	return speciesPool[0]
}

func pickQuality(rng *rand.Rand) model.QualityGrade {
	switch n := rng.Intn(myriad); {
	case n < researchPerMyriad:
		return model.QualityResearch
	case n < researchPerMyriad+needsIDPerMyriad:
		return model.QualityNeedsID
	default:
		return model.QualityCasual
	}
}

// pickTimeOfDay favors daylight hours but leaves enough dawn and dusk
// sightings for the time-window trophies to have contenders.
func pickTimeOfDay(rng *rand.Rand) time.Duration {
	var hour int
	switch n := rng.Intn(10); {
	case n < 1:
		hour = 4 + rng.Intn(3) // dawn
	case n < 2:
		hour = 18 + rng.Intn(6) // dusk and night
	default:
		hour = 7 + rng.Intn(11) // daylight
	}
	minute := rng.Intn(60)
	second := rng.Intn(60)
	return time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second
}
