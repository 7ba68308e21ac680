package leaderboard

import (
	"sort"

	"adventofgah/internal/domain/achievement"
)

// Detail is one user's row on the leaderboard.
type Detail struct {
	Username string
	Points   int
	BikeDst  float64 // total bike distance
	RunDst   float64 // total run distance
	WalkDst  float64 // total walk distance
	SkiDst   float64 // total ski distance
	Bronze   int
	Silver   int
	Gold     int
	Diamond  int
}

// AchievementCount returns how many achievements of rank the user holds.
func (d Detail) AchievementCount(rank achievement.Rank) int {
	switch rank {
	case achievement.RankBronze:
		return d.Bronze
	case achievement.RankSilver:
		return d.Silver
	case achievement.RankGold:
		return d.Gold
	case achievement.RankDiamond:
		return d.Diamond
	}
	return 0
}

// Board is a (possibly partial) leaderboard page.
type Board struct {
	TotalEntries int
	StartOfRange int // offset of Details[0] for paged boards
	Details      []Detail
}

// Range selects a page of the leaderboard. End == 0 means "until the last entry".
type Range struct {
	Start int
	End   int
}

// Sort orders details by points descending, then username ascending.
// PRE: none
// POST: details is sorted in place; equal keys keep their relative order
func Sort(details []Detail) {
	sort.SliceStable(details, func(i, j int) bool {
		if details[i].Points != details[j].Points {
			return details[i].Points > details[j].Points
		}
		return details[i].Username < details[j].Username
	})
}
