package achievement

import (
	"errors"
	"math"
)

// ErrUnknownRank is returned for a rank outside Ranks.
var ErrUnknownRank = errors.New("unknown achievement rank")

// Rank is the trophy tier of an achievement.
type Rank string

// Ranks, lowest first.
const (
	RankBronze  Rank = "BRONZE"
	RankSilver  Rank = "SILVER"
	RankGold    Rank = "GOLD"
	RankDiamond Rank = "DIAMOND"
)

// Ranks lists every rank from lowest to highest.
var Ranks = []Rank{RankBronze, RankSilver, RankGold, RankDiamond}

var rankColors = map[Rank]string{
	RankBronze:  "#B08D57",
	RankSilver:  "#BBC2CC",
	RankGold:    "#FFD700",
	RankDiamond: "#B9F2FF",
}

// ParseRank returns the rank named s.
// PRE: none
// POST: returns ErrUnknownRank unless s is exactly one of Ranks
func ParseRank(s string) (Rank, error) {
	r := Rank(s)
	if _, ok := rankColors[r]; !ok {
		return "", ErrUnknownRank
	}
	return r, nil
}

// Color returns the trophy colour for the rank, or an empty string for unknown ranks.
func (r Rank) Color() string {
	return rankColors[r]
}

// Icon returns "gem" for diamond and "trophy" for every other rank.
func (r Rank) Icon() string {
	if r == RankDiamond {
		return "gem"
	}
	return "trophy"
}

// Achievement is a goal the server tracks per user.
// Rank is only meaningful once Unlocked is true.
type Achievement struct {
	Title       string
	Description string
	Unlocked    bool
	Rank        Rank
}

// UnlockedOnly returns the unlocked subset of list, preserving order.
// PRE: none
// POST: returns a new slice (nil when nothing is unlocked)
func UnlockedOnly(list []Achievement) []Achievement {
	var out []Achievement
	for _, a := range list {
		if a.Unlocked {
			out = append(out, a)
		}
	}
	return out
}

// Summary is the achievements overview for the logged in user.
type Summary struct {
	Total        int
	Unlocked     int
	Achievements []Achievement
}

// ProgressPercent returns the rounded share of unlocked achievements.
// PRE: none
// POST: returns 0 when Total is 0, otherwise round(Unlocked*100/Total)
func (s Summary) ProgressPercent() int {
	if s.Total <= 0 {
		return 0
	}
	return int(math.Round(float64(s.Unlocked) * 100 / float64(s.Total)))
}
