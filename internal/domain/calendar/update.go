package calendar

import "adventofgah/internal/domain/activity"

// Request selects which calendar sections the server should return.
type Request struct {
	AvailableActivities bool
	LoggedActivities    bool
}

// FullRequest asks for both sections.
var FullRequest = Request{AvailableActivities: true, LoggedActivities: true}

// Update is a decoded calendar response. The Has* flags record which
// sections were present so an absent section leaves the cache untouched.
type Update struct {
	Available    [][]activity.Info
	HasAvailable bool
	Logged       []activity.Logged
	HasLogged    bool
}

// ApplyTo returns prev with every present section replaced wholesale.
// PRE: none
// POST: prev is not modified
func (u Update) ApplyTo(prev Cache) Cache {
	next := prev.Clone()
	if u.HasAvailable {
		next.Available = Cache{Available: u.Available}.Clone().Available
		if next.Available == nil {
			next.Available = [][]activity.Info{}
		}
	}
	if u.HasLogged {
		next.Logged = append([]activity.Logged{}, u.Logged...)
	}
	return next
}
