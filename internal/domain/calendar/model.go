package calendar

import (
	"errors"
	"time"

	"adventofgah/internal/domain/activity"
)

// DaySlots is the number of tiles on the calendar (December 1 to 24).
const DaySlots = 24

// TilesPerRow is how many tiles the calendar grid shows per row.
const TilesPerRow = 6

// Domain errors
var (
	ErrDayLocked           = errors.New("day is still locked")
	ErrAlreadyLogged       = errors.New("an activity is already logged for this day")
	ErrActivityUnavailable = errors.New("activity is not available on this day")
)

// Season is the December window in which calendar days unlock.
type Season struct {
	Year     int
	Location *time.Location
}

// NewSeason creates a Season for the given year. A nil location means time.Local.
func NewSeason(year int, loc *time.Location) Season {
	if loc == nil {
		loc = time.Local
	}
	return Season{Year: year, Location: loc}
}

func (s Season) loc() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

// Start returns December 1 00:00 of the season year.
func (s Season) Start() time.Time {
	return time.Date(s.Year, time.December, 1, 0, 0, 0, 0, s.loc())
}

// End returns December 25 00:00 of the season year.
func (s Season) End() time.Time {
	return time.Date(s.Year, time.December, 25, 0, 0, 0, 0, s.loc())
}

// UnlockedDay returns the highest zero-indexed day that is open at now.
// PRE: none
// POST: returns -1 before Start, 23 after End, otherwise day-of-month minus one; always in [-1, 23]
func (s Season) UnlockedDay(now time.Time) int {
	if now.Before(s.Start()) {
		return -1
	}
	if now.After(s.End()) {
		return DaySlots - 1
	}
	day := now.In(s.loc()).Day() - 1
	if day < -1 {
		return -1
	}
	if day > DaySlots-1 {
		return DaySlots - 1
	}
	return day
}

// IsLocked reports whether day is locked given the currently unlocked day.
func IsLocked(day, unlockedDay int) bool {
	return day > unlockedDay
}

// IsLocked reports whether day is locked at now.
func (s Season) IsLocked(day int, now time.Time) bool {
	return IsLocked(day, s.UnlockedDay(now))
}

// Cache is the locally held copy of the calendar data fetched from the server.
// It is replaced wholesale on every successful refresh.
type Cache struct {
	Available [][]activity.Info // index = day
	Logged    []activity.Logged
}

// IsEmpty reports whether no available activities have been fetched yet.
func (c Cache) IsEmpty() bool {
	return len(c.Available) == 0
}

// Clone returns a deep copy of the cache.
func (c Cache) Clone() Cache {
	out := Cache{}
	if c.Available != nil {
		out.Available = make([][]activity.Info, len(c.Available))
		for i, day := range c.Available {
			out.Available[i] = append([]activity.Info(nil), day...)
		}
	}
	if c.Logged != nil {
		out.Logged = append([]activity.Logged(nil), c.Logged...)
	}
	return out
}

// ActivitiesFor returns a copy of the activities offered on day.
// PRE: none
// POST: returns nil when day is outside the fetched range
func (c Cache) ActivitiesFor(day int) []activity.Info {
	if day < 0 || day >= len(c.Available) {
		return nil
	}
	return append([]activity.Info{}, c.Available[day]...)
}

// LoggedFor returns the entry logged for day, if any.
func (c Cache) LoggedFor(day int) (activity.Logged, bool) {
	for _, l := range c.Logged {
		if l.Day == day {
			return l, true
		}
	}
	return activity.Logged{}, false
}
