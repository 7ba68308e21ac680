package projections

import (
	"time"

	"adventofgah/internal/domain/activity"
	"adventofgah/internal/domain/calendar"
)

// GetDayQuery carries query parameters.
type GetDayQuery struct {
	Day      int
	Selected string // activity picked in the dialog, "" for the default
	Distance string // raw distance input
}

// GetDayResult is the log-activity dialog for one day.
type GetDayResult struct {
	Form      calendar.LogForm
	Label     string
	CanSubmit bool
}

// GetDayDeps holds dependencies for GetDay.
type GetDayDeps struct {
	Calendar CalendarSource
	Season   calendar.Season
	Now      func() time.Time
}

// QueryGetDay opens the log-activity dialog for an unlocked day.
// PRE: none
// POST: returns activity.ErrDayOutOfRange or calendar.ErrDayLocked instead of a dialog
// INVARIANT: the cache is not mutated
func QueryGetDay(query GetDayQuery, deps GetDayDeps) (GetDayResult, error) {
	if query.Day < 0 || query.Day > activity.MaxDay {
		return GetDayResult{}, activity.ErrDayOutOfRange
	}
	if deps.Season.IsLocked(query.Day, deps.Now()) {
		return GetDayResult{}, calendar.ErrDayLocked
	}

	form := calendar.NewLogForm(deps.Calendar.Snapshot().Data, query.Day)
	if kind, err := activity.ParseKind(query.Selected); err == nil {
		for _, a := range form.Offered {
			if a.Activity == kind {
				form.Selected = kind
			}
		}
	}
	form.DistanceInput = query.Distance

	return GetDayResult{
		Form:      form,
		Label:     dayLabel(query.Day),
		CanSubmit: form.CanSubmit(),
	}, nil
}

func dayLabel(day int) string {
	return time.Date(2000, time.December, day+1, 0, 0, 0, 0, time.UTC).Format("January 2")
}
