package calendar

import (
	"adventofgah/internal/domain/activity"
)

// LogForm holds the state of the log-activity dialog for one day.
type LogForm struct {
	Day           int
	Offered       []activity.Info
	Existing      *activity.Logged // set when the day already has an entry
	Selected      activity.Kind
	DistanceInput string
}

// NewLogForm builds the dialog state for day from the cache.
// The selection defaults to RUN when offered, otherwise the first offered activity.
// PRE: none
// POST: returns a form; Existing is set iff the cache holds an entry for day
func NewLogForm(cache Cache, day int) LogForm {
	f := LogForm{Day: day, Offered: cache.ActivitiesFor(day)}
	if l, ok := cache.LoggedFor(day); ok {
		f.Existing = &l
	}
	for _, a := range f.Offered {
		if a.Activity == activity.KindRun {
			f.Selected = activity.KindRun
			break
		}
	}
	if f.Selected == "" && len(f.Offered) > 0 {
		f.Selected = f.Offered[0].Activity
	}
	return f
}

// Editable reports whether the distance field should be shown.
func (f LogForm) Editable() bool {
	return f.Existing == nil
}

// Distance parses the current distance input.
func (f LogForm) Distance() (int, bool) {
	n, err := activity.ParseDistance(f.DistanceInput)
	return n, err == nil
}

// CanSubmit reports whether the Log button is enabled.
// PRE: none
// POST: true iff the distance is valid, the day offers activities and nothing is logged yet
func (f LogForm) CanSubmit() bool {
	_, ok := f.Distance()
	return ok && len(f.Offered) > 0 && f.Existing == nil
}

// Entry turns the form into the entry to send to the server.
// PRE: none
// POST: returns ErrAlreadyLogged, activity.ErrInvalidDistance or ErrActivityUnavailable on rejection
func (f LogForm) Entry() (activity.Logged, error) {
	if f.Existing != nil {
		return activity.Logged{}, ErrAlreadyLogged
	}
	distance, err := activity.ParseDistance(f.DistanceInput)
	if err != nil {
		return activity.Logged{}, err
	}
	for _, a := range f.Offered {
		if a.Activity == f.Selected {
			return activity.Logged{
				Day:  f.Day,
				Info: activity.Info{Activity: a.Activity, Value: distance},
			}, nil
		}
	}
	return activity.Logged{}, ErrActivityUnavailable
}
