package web

import (
	"net/http"
	"strconv"
	"time"

	"adventofgah/internal/domain/achievement"
	"adventofgah/internal/domain/activity"
)

type errorResponse struct {
	Error string `json:"error"`
}

// toastView is an unlocked achievement as the toast area shows it.
type toastView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Rank        string `json:"rank"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

type toastsResponse struct {
	Toasts []toastView `json:"toasts"`
}

func toToastViews(list []achievement.Achievement) []toastView {
	out := make([]toastView, 0, len(list))
	for _, a := range list {
		out = append(out, toastView{
			Title:       a.Title,
			Description: a.Description,
			Rank:        string(a.Rank),
			Color:       a.Rank.Color(),
			Icon:        a.Rank.Icon(),
		})
	}
	return out
}

type activityJSON struct {
	Activity string `json:"activity"`
	Value    int    `json:"value"`
}

type loggedJSON struct {
	Day      int    `json:"day"`
	Activity string `json:"activity"`
	Value    int    `json:"value"`
}

type calendarJSON struct {
	Status      string           `json:"status"`
	UnlockedDay int              `json:"unlocked_day"`
	Available   [][]activityJSON `json:"available"`
	Logged      []loggedJSON     `json:"logged"`
}

func toActivityJSON(list []activity.Info) []activityJSON {
	out := make([]activityJSON, 0, len(list))
	for _, a := range list {
		out = append(out, activityJSON{Activity: string(a.Activity), Value: a.Value})
	}
	return out
}

// handleAPICalendar returns the cached calendar without triggering a fetch.
func handleAPICalendar(w http.ResponseWriter, r *http.Request) {
	snap := services.Calendar.Snapshot()
	resp := calendarJSON{
		Status:      snap.Status.String(),
		UnlockedDay: services.Season.UnlockedDay(timeNow()),
		Available:   make([][]activityJSON, 0, len(snap.Data.Available)),
		Logged:      make([]loggedJSON, 0, len(snap.Data.Logged)),
	}
	for _, day := range snap.Data.Available {
		resp.Available = append(resp.Available, toActivityJSON(day))
	}
	for _, l := range snap.Data.Logged {
		resp.Logged = append(resp.Logged, loggedJSON{Day: l.Day, Activity: string(l.Info.Activity), Value: l.Info.Value})
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleAPIToasts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toastsResponse{Toasts: toToastViews(services.Toasts.Current())})
}

// handlePerf returns the perf snapshot for the last ?minutes= (default 60).
// Entries are stamped with the wall clock, so timeNow is not used here.
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if services.Collector == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "instrumentation disabled"})
		return
	}
	minutes := 60
	if n, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && n > 0 {
		minutes = n
	}
	since := time.Now().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, services.Collector.Snapshot(since, 10))
}
