// Package types contains the read shapes returned by the HTTP API.
package types

// Entry is one leaderboard row.
type Entry struct {
	Rank         int     `json:"rank"`
	Login        string  `json:"login"`
	Points       float64 `json:"points"`
	Observations int     `json:"observations"`
	Species      int     `json:"species"`
	Research     int     `json:"research"`
	NeedsID      int     `json:"needs_id"`
	Casual       int     `json:"casual"`
}

// DaySummary is one calendar day's aggregate.
type DaySummary struct {
	Date         string  `json:"date"`
	Observations int     `json:"observations"`
	Species      int     `json:"species"`
	Participants int     `json:"participants"`
	Points       float64 `json:"points"`
}

// TrophyStanding is one user's placement for a trophy.
type TrophyStanding struct {
	Slug     string  `json:"slug"`
	Title    string  `json:"title"`
	Scope    string  `json:"scope"`
	Rank     int     `json:"rank"`
	Login    string  `json:"login"`
	Value    float64 `json:"value"`
	Evidence string  `json:"evidence"`
}

// Battle is an announced near-tie between adjacent ranks.
type Battle struct {
	Position    string  `json:"position"`
	LeaderLogin string  `json:"leader_login"`
	LeaderRank  int     `json:"leader_rank"`
	ChaserLogin string  `json:"chaser_login"`
	ChaserRank  int     `json:"chaser_rank"`
	Gap         float64 `json:"gap"`
}

// Trend is one user's movement since the previous scoreboard snapshot.
type Trend struct {
	Login       string  `json:"login"`
	RankDelta   int     `json:"rank_delta"`
	PointsDelta float64 `json:"points_delta"`
}
