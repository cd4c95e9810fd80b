// Package taxon classifies iconic-taxon labels into competition groups.
//
// Labels arrive as free text from upstream providers ("Aves", "Insecta",
// "Arachnida", ...), so classification is an ordered list of substring
// predicates rather than an enum. An observation matching no predicate
// belongs to no group.
package taxon

import "strings"

// Group is a coarse taxon bucket with its own leaderboard.
type Group string

// The six competition groups, in display order.
const (
	Mammals    Group = "mammals"
	Reptiles   Group = "reptiles"
	Birds      Group = "birds"
	Amphibians Group = "amphibians"
	Spiders    Group = "spiders"
	Insects    Group = "insects"
)

// rule pairs a predicate with the group it selects. Rules are evaluated in
// order; the first match wins so every label lands in at most one group.
type rule struct {
	keywords []string
	group    Group
}

var rules = []rule{
	{[]string{"mammal"}, Mammals},
	{[]string{"reptil"}, Reptiles},
	{[]string{"aves", "bird"}, Birds},
	{[]string{"amphib"}, Amphibians},
	{[]string{"arach"}, Spiders},
	{[]string{"insect"}, Insects},
}

// Classify maps an iconic-taxon label to its group. The second return is
// false when the label matches no group.
func Classify(iconic string) (Group, bool) {
	s := strings.ToLower(iconic)
	if s == "" {
		return "", false
	}
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(s, kw) {
				return r.group, true
			}
		}
	}
	return "", false
}

// Matches reports whether an iconic-taxon label belongs to g.
func Matches(iconic string, g Group) bool {
	got, ok := Classify(iconic)
	return ok && got == g
}

// Groups returns all groups in display order.
func Groups() []Group {
	return []Group{Mammals, Reptiles, Birds, Amphibians, Spiders, Insects}
}

// Valid reports whether s names a known group.
func Valid(s string) (Group, bool) {
	for _, g := range Groups() {
		if string(g) == s {
			return g, true
		}
	}
	return "", false
}
