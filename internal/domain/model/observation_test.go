package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ecoquest/bioblitz/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEffectiveTime(t *testing.T) {
	Convey("Given an observation with a full timestamp", t, func() {
		at := time.Date(2025, 1, 1, 8, 30, 0, 0, time.UTC)
		obs := model.Observation{ObservedOn: "2025-01-01", TimeObservedAt: at}

		Convey("Then the timestamp should win", func() {
			So(obs.EffectiveTime().Equal(at), ShouldBeTrue)
		})
	})

	Convey("Given an observation with only a calendar day", t, func() {
		obs := model.Observation{ObservedOn: "2025-01-02"}

		Convey("Then midnight UTC of the day should be used", func() {
			So(obs.EffectiveTime().Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
		})
	})

	Convey("Given a malformed day", t, func() {
		obs := model.Observation{ObservedOn: "January 2nd"}

		Convey("Then the effective time should be the zero time", func() {
			So(obs.EffectiveTime().IsZero(), ShouldBeTrue)
		})
	})
}

func TestHasTaxon(t *testing.T) {
	Convey("Given identified and unidentified observations", t, func() {
		identified := model.Observation{TaxonID: 5}
		unidentified := model.Observation{}

		Convey("Then HasTaxon should distinguish them", func() {
			So(identified.HasTaxon(), ShouldBeTrue)
			So(unidentified.HasTaxon(), ShouldBeFalse)
		})
	})
}

func TestObservationJSON(t *testing.T) {
	Convey("Given an observation without a timestamp", t, func() {
		obs := model.Observation{
			ID:         1,
			ObservedOn: "2025-01-01",
			UserLogin:  "maria",
			Quality:    model.QualityCasual,
		}

		Convey("When marshaling", func() {
			data, err := json.Marshal(obs)
			So(err, ShouldBeNil)

			Convey("Then the zero timestamp should be omitted", func() {
				So(string(data), ShouldNotContainSubstring, "time_observed_at")
			})
		})
	})
}
