package projections

import (
	"strconv"
	"time"

	"adventofgah/internal/domain/activity"
	"adventofgah/internal/domain/calendar"
	"adventofgah/internal/domain/fetch"
)

// NoDay marks the absence of an opening or closing day.
const NoDay = -1

// GetCalendarQuery carries query parameters.
type GetCalendarQuery struct {
	Opening int // day whose dialog is open, or NoDay
	Closing int // day whose dialog was just closed, or NoDay
}

// DayTile is one cell of the calendar grid.
type DayTile struct {
	Day     int
	Label   string
	Locked  bool
	Logged  *activity.Logged
	Offered []activity.Info
	Class   string // "calendar-opening", "calendar-closing" or ""
}

// GetCalendarResult carries the query result.
type GetCalendarResult struct {
	Rows        [][]DayTile
	UnlockedDay int
	Status      fetch.Status
	Loading     bool // nothing cached yet and no refresh has settled
	Empty       bool // a refresh succeeded but the server offered no activities
	LoggedCount int
}

// GetCalendarDeps holds dependencies for GetCalendar.
type GetCalendarDeps struct {
	Calendar CalendarSource
	Season   calendar.Season
	Now      func() time.Time
}

// QueryGetCalendar lays the cached calendar out as rows of day tiles.
// PRE: none
// POST: returns DaySlots/TilesPerRow rows of TilesPerRow tiles in day order
// INVARIANT: the cache is not mutated
func QueryGetCalendar(query GetCalendarQuery, deps GetCalendarDeps) GetCalendarResult {
	snap := deps.Calendar.Snapshot()
	unlocked := deps.Season.UnlockedDay(deps.Now())

	res := GetCalendarResult{
		UnlockedDay: unlocked,
		Status:      snap.Status,
		Loading:     snap.Data.IsEmpty() && (snap.Status == fetch.Idle || snap.Status == fetch.InFlight),
		Empty:       snap.Data.IsEmpty() && snap.Status == fetch.Succeeded,
		LoggedCount: len(snap.Data.Logged),
	}

	row := make([]DayTile, 0, calendar.TilesPerRow)
	for day := 0; day < calendar.DaySlots; day++ {
		tile := DayTile{
			Day:     day,
			Label:   strconv.Itoa(day + 1),
			Locked:  calendar.IsLocked(day, unlocked),
			Offered: snap.Data.ActivitiesFor(day),
		}
		if l, ok := snap.Data.LoggedFor(day); ok {
			tile.Logged = &l
		}
		switch day {
		case query.Opening:
			tile.Class = "calendar-opening"
		case query.Closing:
			tile.Class = "calendar-closing"
		}
		row = append(row, tile)
		if len(row) == calendar.TilesPerRow {
			res.Rows = append(res.Rows, row)
			row = make([]DayTile, 0, calendar.TilesPerRow)
		}
	}
	return res
}
