package projections

import (
	"context"

	"adventofgah/internal/domain/achievement"
	"adventofgah/internal/domain/session"
)

// GetAchievementsQuery carries query parameters.
type GetAchievementsQuery struct {
	Session session.UserState
}

// AchievementView is an achievement with its trophy styling.
type AchievementView struct {
	achievement.Achievement
	Color string
	Icon  string
}

// GetAchievementsResult carries the query result.
type GetAchievementsResult struct {
	LoginRequired   bool
	Total           int
	Unlocked        int
	ProgressPercent int
	Achievements    []AchievementView
}

// GetAchievementsDeps holds dependencies for GetAchievements.
type GetAchievementsDeps struct {
	Fetcher AchievementsFetcher
}

// QueryGetAchievements fetches the achievements of the logged in user.
// PRE: none
// POST: a logged out session yields LoginRequired and no request
func QueryGetAchievements(ctx context.Context, query GetAchievementsQuery, deps GetAchievementsDeps) (GetAchievementsResult, error) {
	if !query.Session.LoggedIn() {
		return GetAchievementsResult{LoginRequired: true}, nil
	}
	summary, err := deps.Fetcher.Achievements(ctx, query.Session.SessionKey)
	if err != nil {
		return GetAchievementsResult{}, err
	}

	views := make([]AchievementView, 0, len(summary.Achievements))
	for _, a := range summary.Achievements {
		v := AchievementView{Achievement: a}
		if a.Unlocked {
			v.Color = a.Rank.Color()
			v.Icon = a.Rank.Icon()
		}
		views = append(views, v)
	}
	return GetAchievementsResult{
		Total:           summary.Total,
		Unlocked:        summary.Unlocked,
		ProgressPercent: summary.ProgressPercent(),
		Achievements:    views,
	}, nil
}
