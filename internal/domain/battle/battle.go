// Package battle provides comparative utilities over a ranked leaderboard:
// near-tie detection for announcements and rank/point deltas against a
// prior snapshot.
package battle

import "math"

// DefaultGapThreshold is the largest point gap still announced as a close
// battle.
const DefaultGapThreshold = 1.5

// Positions a battle can be reported under, in output order.
const (
	PositionTop    = "top"    // rank 1 vs rank 2
	PositionPodium = "podium" // rank 2 vs rank 3
	PositionRest   = "rest"   // smallest gap anywhere below the podium
)

// Standing is one row of a ranked leaderboard, sorted by points descending
// with ranks assigned from 1.
type Standing struct {
	Rank   int
	Login  string
	Points float64
}

// Battle is a near-tie between two adjacent ranks.
type Battle struct {
	Position string
	Leader   Standing
	Chaser   Standing
	Gap      float64
}

// FindCloseBattles selects up to three announcement-worthy battles: the
// 1-vs-2 gap, the 2-vs-3 gap, and the single smallest remaining adjacent
// gap, each only when its gap is within the threshold. A non-positive
// threshold falls back to the default.
func FindCloseBattles(ranked []Standing, gapThreshold float64) []Battle {
	if gapThreshold <= 0 {
		gapThreshold = DefaultGapThreshold
	}

	var battles []Battle
	pair := func(i int, position string) (Battle, bool) {
		gap := round2(ranked[i].Points - ranked[i+1].Points)
		if gap > gapThreshold {
			return Battle{}, false
		}
		return Battle{
			Position: position,
			Leader:   ranked[i],
			Chaser:   ranked[i+1],
			Gap:      gap,
		}, true
	}

	if len(ranked) >= 2 {
		if b, ok := pair(0, PositionTop); ok {
			battles = append(battles, b)
		}
	}
	if len(ranked) >= 3 {
		if b, ok := pair(1, PositionPodium); ok {
			battles = append(battles, b)
		}
	}

	// Smallest gap outside the podium pairs.
	bestIdx := -1
	bestGap := math.Inf(1)
	for i := 2; i+1 < len(ranked); i++ {
		gap := ranked[i].Points - ranked[i+1].Points
		if gap < bestGap {
			bestGap = gap
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		if b, ok := pair(bestIdx, PositionRest); ok {
			battles = append(battles, b)
		}
	}

	return battles
}

// Trend is the movement of one user between two snapshots. Rank is
// prior minus current, so positive means the user climbed.
type Trend struct {
	Rank   int
	Points float64
}

// ComputeTrends compares every current standing against the prior snapshot.
// Users absent from the prior snapshot report a zero trend.
func ComputeTrends(current, prior []Standing) map[string]Trend {
	priorByLogin := make(map[string]Standing, len(prior))
	for _, s := range prior {
		priorByLogin[s.Login] = s
	}

	trends := make(map[string]Trend, len(current))
	for _, s := range current {
		p, ok := priorByLogin[s.Login]
		if !ok {
			trends[s.Login] = Trend{}
			continue
		}
		trends[s.Login] = Trend{
			Rank:   p.Rank - s.Rank,
			Points: round2(s.Points - p.Points),
		}
	}
	return trends
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
