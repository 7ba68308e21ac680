package api

import (
	"fmt"

	"adventofgah/internal/domain/achievement"
	"adventofgah/internal/domain/activity"
	"adventofgah/internal/domain/calendar"
	"adventofgah/internal/domain/leaderboard"
)

// Wire types mirror the remote API's snake_case JSON documents.

type wireActivityInfo struct {
	Activity string `json:"activity"`
	Value    int    `json:"value"`
}

type wireLogged struct {
	Day  int              `json:"day"`
	Info wireActivityInfo `json:"info"`
}

type calendarResponse struct {
	AvailableActivities [][]wireActivityInfo `json:"available_activities"`
	LoggedActivities    []wireLogged         `json:"logged_activities"`
}

type usernamePass struct {
	Username string `json:"username"`
	Pass     string `json:"pass"`
}

type sessionKeyResponse struct {
	SessionKey string `json:"session_key"`
}

type wireAchievement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
	Rank        string `json:"rank"`
}

type logActivityResponse struct {
	Achievements []wireAchievement `json:"achievements"`
}

type achievementsResponse struct {
	Total        int               `json:"total"`
	Unlocked     int               `json:"unlocked"`
	Achievements []wireAchievement `json:"achievements"`
}

type wireDetail struct {
	Username string  `json:"username"`
	Points   int     `json:"points"`
	BikeDst  float64 `json:"bike_dst"`
	RunDst   float64 `json:"run_dst"`
	WalkDst  float64 `json:"walk_dst"`
	SkiDst   float64 `json:"ski_dst"`
	Bronze   int     `json:"bronze"`
	Silver   int     `json:"silver"`
	Gold     int     `json:"gold"`
	Diamond  int     `json:"diamond"`
}

type leaderboardResponse struct {
	TotalEntries int          `json:"total_entries"`
	StartOfRange int          `json:"start_of_range"`
	Details      []wireDetail `json:"details"`
}

func toInfo(w wireActivityInfo) (activity.Info, error) {
	kind, err := activity.ParseKind(w.Activity)
	if err != nil {
		return activity.Info{}, err
	}
	return activity.Info{Activity: kind, Value: w.Value}, nil
}

func fromInfo(i activity.Info) wireActivityInfo {
	return wireActivityInfo{Activity: string(i.Activity), Value: i.Value}
}

func (r calendarResponse) toUpdate() (calendar.Update, error) {
	var u calendar.Update
	if r.AvailableActivities != nil {
		u.HasAvailable = true
		u.Available = make([][]activity.Info, len(r.AvailableActivities))
		for day, offered := range r.AvailableActivities {
			u.Available[day] = make([]activity.Info, 0, len(offered))
			for _, w := range offered {
				info, err := toInfo(w)
				if err != nil {
					return calendar.Update{}, fmt.Errorf("available_activities[%d]: %w", day, err)
				}
				u.Available[day] = append(u.Available[day], info)
			}
		}
	}
	if r.LoggedActivities != nil {
		u.HasLogged = true
		u.Logged = make([]activity.Logged, 0, len(r.LoggedActivities))
		for i, w := range r.LoggedActivities {
			info, err := toInfo(w.Info)
			if err != nil {
				return calendar.Update{}, fmt.Errorf("logged_activities[%d]: %w", i, err)
			}
			u.Logged = append(u.Logged, activity.Logged{Day: w.Day, Info: info})
		}
	}
	return u, nil
}

// toAchievements converts wire achievements. A locked entry may omit its rank.
func toAchievements(list []wireAchievement) ([]achievement.Achievement, error) {
	out := make([]achievement.Achievement, 0, len(list))
	for i, w := range list {
		var rank achievement.Rank
		if w.Unlocked || w.Rank != "" {
			r, err := achievement.ParseRank(w.Rank)
			if err != nil {
				return nil, fmt.Errorf("achievements[%d]: %w", i, err)
			}
			rank = r
		}
		out = append(out, achievement.Achievement{
			Title:       w.Title,
			Description: w.Description,
			Unlocked:    w.Unlocked,
			Rank:        rank,
		})
	}
	return out, nil
}

func (r leaderboardResponse) toBoard() leaderboard.Board {
	b := leaderboard.Board{
		TotalEntries: r.TotalEntries,
		StartOfRange: r.StartOfRange,
		Details:      make([]leaderboard.Detail, 0, len(r.Details)),
	}
	for _, d := range r.Details {
		b.Details = append(b.Details, leaderboard.Detail{
			Username: d.Username,
			Points:   d.Points,
			BikeDst:  d.BikeDst,
			RunDst:   d.RunDst,
			WalkDst:  d.WalkDst,
			SkiDst:   d.SkiDst,
			Bronze:   d.Bronze,
			Silver:   d.Silver,
			Gold:     d.Gold,
			Diamond:  d.Diamond,
		})
	}
	return b
}
