// Package model contains domain models passed between layers.
package model

import "time"

// DayFormat is the calendar-day layout used by ObservedOn keys.
// Days are trip-local and never recomputed from timestamps.
const DayFormat = "2006-01-02"

// QualityGrade is the identification-confidence tier of an observation.
type QualityGrade string

// Quality grades, ordered from most to least confident.
const (
	QualityResearch QualityGrade = "research"
	QualityNeedsID  QualityGrade = "needs_id"
	QualityCasual   QualityGrade = "casual"
)

// Observation is one immutable record of a species sighting by a user.
// TaxonID is zero when the sighting is unidentified; TimeObservedAt is the
// zero time when only the calendar day is known.
type Observation struct {
	ID             int64        `json:"id" db:"id"`
	ObservedOn     string       `json:"observed_on" db:"observed_on"`
	TimeObservedAt time.Time    `json:"time_observed_at,omitzero" db:"time_observed_at"`
	Quality        QualityGrade `json:"quality_grade" db:"quality_grade"`
	UserLogin      string       `json:"user_login" db:"user_login"`
	Lat            float64      `json:"lat" db:"lat"`
	Lng            float64      `json:"lng" db:"lng"`
	TaxonID        int64        `json:"taxon_id,omitempty" db:"taxon_id"`
	TaxonName      string       `json:"taxon_name" db:"taxon_name"`
	TaxonRank      string       `json:"taxon_rank" db:"taxon_rank"`
	IconicTaxon    string       `json:"iconic_taxon" db:"iconic_taxon"`
	URI            string       `json:"uri" db:"uri"`
}

// HasTaxon reports whether the observation carries an identification.
func (o *Observation) HasTaxon() bool {
	return o.TaxonID != 0
}

// EffectiveTime returns the timestamp used for chronological ordering:
// TimeObservedAt when present, otherwise midnight UTC of ObservedOn.
// Observations with equal effective times keep their input order.
func (o *Observation) EffectiveTime() time.Time {
	if !o.TimeObservedAt.IsZero() {
		return o.TimeObservedAt
	}
	t, err := time.Parse(DayFormat, o.ObservedOn)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Event wraps an observation submitted for ingestion. EventID is the
// idempotency key; it is independent of the observation id so that retried
// submissions of the same record can be recognized before they are stored.
type Event struct {
	EventID    string
	Obs        Observation
	ReceivedAt time.Time
}
