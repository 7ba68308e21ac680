package leaderboard

import (
	"testing"

	"adventofgah/internal/domain/achievement"
)

// TestSort_PointsThenUsername verifies ties break on username ascending.
func TestSort_PointsThenUsername(t *testing.T) {
	rows := []Detail{
		{Username: "zeke", Points: 10},
		{Username: "bob", Points: 25},
		{Username: "alice", Points: 10},
		{Username: "carol", Points: 3},
		{Username: "mallory", Points: 10},
	}
	Sort(rows)

	want := []string{"bob", "alice", "mallory", "zeke", "carol"}
	for i, w := range want {
		if rows[i].Username != w {
			t.Fatalf("position %d = %q, want %q (got %+v)", i, rows[i].Username, w, rows)
		}
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Points < rows[i].Points {
			t.Errorf("points not descending at %d", i)
		}
	}
}

// TestSort_Empty must not panic on empty input.
func TestSort_Empty(t *testing.T) {
	Sort(nil)
	Sort([]Detail{})
}

// TestDetail_AchievementCount maps ranks to counters.
func TestDetail_AchievementCount(t *testing.T) {
	d := Detail{Bronze: 4, Silver: 3, Gold: 2, Diamond: 1}
	for rank, want := range map[achievement.Rank]int{
		achievement.RankBronze:  4,
		achievement.RankSilver:  3,
		achievement.RankGold:    2,
		achievement.RankDiamond: 1,
		"OTHER":                 0,
	} {
		if got := d.AchievementCount(rank); got != want {
			t.Errorf("AchievementCount(%s) = %d, want %d", rank, got, want)
		}
	}
}
