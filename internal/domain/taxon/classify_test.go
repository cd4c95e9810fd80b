package taxon_test

import (
	"testing"

	"github.com/ecoquest/bioblitz/internal/domain/taxon"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given upstream iconic-taxon labels", t, func() {
		cases := map[string]taxon.Group{
			"Aves":      taxon.Birds,
			"aves":      taxon.Birds,
			"Bird":      taxon.Birds,
			"Mammalia":  taxon.Mammals,
			"mammal":    taxon.Mammals,
			"Reptilia":  taxon.Reptiles,
			"Amphibia":  taxon.Amphibians,
			"Arachnida": taxon.Spiders,
			"Insecta":   taxon.Insects,
		}

		Convey("Then each should classify into its group", func() {
			for label, want := range cases {
				got, ok := taxon.Classify(label)
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, want)
			}
		})
	})

	Convey("Given labels outside the competition groups", t, func() {
		Convey("Then classification should report no group", func() {
			for _, label := range []string{"", "Plantae", "Fungi", "Mollusca"} {
				_, ok := taxon.Classify(label)
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestMatches(t *testing.T) {
	Convey("Given a label and a group", t, func() {
		Convey("Then Matches should agree with Classify", func() {
			So(taxon.Matches("Aves", taxon.Birds), ShouldBeTrue)
			So(taxon.Matches("Aves", taxon.Mammals), ShouldBeFalse)
			So(taxon.Matches("Plantae", taxon.Birds), ShouldBeFalse)
		})
	})
}

func TestGroupsAndValid(t *testing.T) {
	Convey("Given the display-order group list", t, func() {
		groups := taxon.Groups()

		Convey("Then all six groups should be present", func() {
			So(groups, ShouldHaveLength, 6)
			So(groups[0], ShouldEqual, taxon.Mammals)
			So(groups[5], ShouldEqual, taxon.Insects)
		})

		Convey("And every group name should be valid", func() {
			for _, g := range groups {
				got, ok := taxon.Valid(string(g))
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, g)
			}
		})
	})

	Convey("Given an unknown group name", t, func() {
		Convey("Then Valid should reject it", func() {
			_, ok := taxon.Valid("fish")
			So(ok, ShouldBeFalse)
			_, ok = taxon.Valid("Birds")
			So(ok, ShouldBeFalse)
		})
	})
}
