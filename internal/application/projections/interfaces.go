package projections

import (
	"context"

	"adventofgah/internal/domain/achievement"
	"adventofgah/internal/domain/calendar"
	"adventofgah/internal/domain/fetch"
	"adventofgah/internal/domain/leaderboard"
)

// CalendarSource exposes the cached calendar and its refresh status.
type CalendarSource interface {
	Snapshot() fetch.State[calendar.Cache]
}

// LeaderboardFetcher fetches one leaderboard page from the server.
type LeaderboardFetcher interface {
	Leaderboard(ctx context.Context, key string, r leaderboard.Range) (leaderboard.Board, error)
}

// AchievementsFetcher fetches the achievements overview of a session's user.
type AchievementsFetcher interface {
	Achievements(ctx context.Context, key string) (achievement.Summary, error)
}
