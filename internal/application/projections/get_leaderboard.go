package projections

import (
	"context"

	"adventofgah/internal/domain/leaderboard"
	"adventofgah/internal/domain/session"
)

// GetLeaderboardQuery carries query parameters.
type GetLeaderboardQuery struct {
	Session session.UserState
	Range   leaderboard.Range
}

// LeaderboardRow is one ranked line of the table.
type LeaderboardRow struct {
	Position int
	leaderboard.Detail
	IsCurrentUser bool
}

// GetLeaderboardResult carries the query result.
type GetLeaderboardResult struct {
	TotalEntries int
	StartOfRange int
	Rows         []LeaderboardRow
}

// GetLeaderboardDeps holds dependencies for GetLeaderboard.
type GetLeaderboardDeps struct {
	Fetcher LeaderboardFetcher
}

// QueryGetLeaderboard fetches and ranks a leaderboard page.
// PRE: none; a session key is attached when present but not required
// POST: rows are ordered by points descending then username ascending, positions are 1-based
func QueryGetLeaderboard(ctx context.Context, query GetLeaderboardQuery, deps GetLeaderboardDeps) (GetLeaderboardResult, error) {
	board, err := deps.Fetcher.Leaderboard(ctx, query.Session.SessionKey, query.Range)
	if err != nil {
		return GetLeaderboardResult{}, err
	}

	details := append([]leaderboard.Detail(nil), board.Details...)
	leaderboard.Sort(details)

	rows := make([]LeaderboardRow, 0, len(details))
	for i, d := range details {
		rows = append(rows, LeaderboardRow{
			Position:      board.StartOfRange + i + 1,
			Detail:        d,
			IsCurrentUser: query.Session.LoggedIn() && d.Username == query.Session.Username,
		})
	}
	return GetLeaderboardResult{
		TotalEntries: board.TotalEntries,
		StartOfRange: board.StartOfRange,
		Rows:         rows,
	}, nil
}
