package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"adventofgah/internal/domain/achievement"
	"adventofgah/internal/domain/activity"
	"adventofgah/internal/domain/calendar"
	"adventofgah/internal/domain/fetch"
	"adventofgah/internal/domain/session"
)

// ActivityLogger sends a logged activity to the server.
type ActivityLogger interface {
	LogActivity(ctx context.Context, key string, entry activity.Logged) ([]achievement.Achievement, error)
}

// CalendarForLogActivity is the part of CalendarSync used after logging.
type CalendarForLogActivity interface {
	Snapshot() fetch.State[calendar.Cache]
	Refresh(ctx context.Context, key string) bool
}

// ToastShower displays unlocked achievements.
type ToastShower interface {
	Show(list []achievement.Achievement) bool
}

// LogActivityInput carries input for the log activity orchestrator.
type LogActivityInput struct {
	Session  session.UserState
	Day      int
	Activity string
	Distance string
}

// LogActivityDeps holds dependencies for LogActivity.
type LogActivityDeps struct {
	Logger   ActivityLogger
	Calendar CalendarForLogActivity
	Toasts   ToastShower
	Season   calendar.Season
	Now      func() time.Time
}

// ExecuteLogActivity validates the dialog input against the cached calendar and
// records the activity on the server.
// PRE: input.Session is the caller's current session snapshot
// POST: on success the calendar is refreshed and unlocked achievements are shown;
// returns the unlocked subset of the response
// INVARIANT: nothing is sent for locked days, already logged days or invalid input
func ExecuteLogActivity(ctx context.Context, input LogActivityInput, deps LogActivityDeps) ([]achievement.Achievement, error) {
	if !input.Session.LoggedIn() {
		return nil, session.ErrNotLoggedIn
	}
	if input.Day < 0 || input.Day > activity.MaxDay {
		return nil, activity.ErrDayOutOfRange
	}
	if deps.Season.IsLocked(input.Day, deps.Now()) {
		return nil, calendar.ErrDayLocked
	}

	form := calendar.NewLogForm(deps.Calendar.Snapshot().Data, input.Day)
	if input.Activity != "" {
		kind, err := activity.ParseKind(input.Activity)
		if err != nil {
			return nil, calendar.ErrActivityUnavailable
		}
		form.Selected = kind
	}
	form.DistanceInput = input.Distance

	entry, err := form.Entry()
	if err != nil {
		return nil, err
	}

	achievements, err := deps.Logger.LogActivity(ctx, input.Session.SessionKey, entry)
	if err != nil {
		slog.Warn("log_activity_failed", "day", entry.Day, "activity", entry.Info.Activity, "error", err)
		return nil, fmt.Errorf("log activity: %w", err)
	}
	slog.Info("activity_logged", "day", entry.Day, "activity", entry.Info.Activity, "value", entry.Info.Value)

	deps.Calendar.Refresh(ctx, input.Session.SessionKey)

	unlocked := achievement.UnlockedOnly(achievements)
	if len(unlocked) > 0 {
		deps.Toasts.Show(unlocked)
	}
	return unlocked, nil
}
