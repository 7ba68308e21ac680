package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"adventofgah/internal/domain/calendar"
	"adventofgah/internal/domain/fetch"
)

// InitialRefreshDelay is the pause before the first calendar fetch after a page load.
const InitialRefreshDelay = 50 * time.Millisecond

var errRefreshAborted = errors.New("calendar refresh aborted")

// CalendarFetcher fetches calendar sections from the server.
type CalendarFetcher interface {
	Calendar(ctx context.Context, key string, req calendar.Request) (calendar.Update, error)
}

// CalendarSyncDeps holds dependencies for CalendarSync.
type CalendarSyncDeps struct {
	Fetcher   CalendarFetcher
	AfterFunc AfterFunc // nil uses RealAfterFunc
}

// CalendarSync owns the process-wide calendar cache and keeps at most one
// refresh outstanding at a time.
type CalendarSync struct {
	fetcher CalendarFetcher
	after   AfterFunc
	tracker fetch.Tracker[calendar.Cache]
}

// NewCalendarSync creates a sync with an empty cache.
func NewCalendarSync(deps CalendarSyncDeps) *CalendarSync {
	after := deps.AfterFunc
	if after == nil {
		after = RealAfterFunc
	}
	return &CalendarSync{fetcher: deps.Fetcher, after: after}
}

// Refresh fetches both calendar sections and merges them into the cache.
// PRE: key may be empty
// POST: returns false without any request when a refresh is already in flight;
// on failure the previous cache is kept and the error is only logged
// INVARIANT: the in-flight marker is cleared whatever the outcome
func (s *CalendarSync) Refresh(ctx context.Context, key string) bool {
	seq, ok := s.tracker.Begin()
	if !ok {
		slog.Debug("calendar_refresh_skipped", "reason", "in_flight")
		return false
	}

	settled := false
	defer func() {
		if !settled {
			s.tracker.Fail(seq, errRefreshAborted)
		}
	}()

	update, err := s.fetcher.Calendar(ctx, key, calendar.FullRequest)
	settled = true
	if err != nil {
		if s.tracker.Fail(seq, err) {
			slog.Warn("calendar_refresh_failed", "error", err)
		}
		return true
	}
	if !s.tracker.Complete(seq, update.ApplyTo) {
		slog.Debug("calendar_refresh_discarded", "seq", seq)
		return true
	}
	slog.Debug("calendar_refreshed", "days", len(update.Available), "logged", len(update.Logged))
	return true
}

// ScheduleInitialRefresh refreshes once after InitialRefreshDelay if nothing
// has been fetched by then.
func (s *CalendarSync) ScheduleInitialRefresh(key string) {
	s.after(InitialRefreshDelay, func() {
		if !s.Snapshot().Data.IsEmpty() {
			return
		}
		s.Refresh(context.Background(), key)
	})
}

// Snapshot returns a copy of the cache and the refresh status.
func (s *CalendarSync) Snapshot() fetch.State[calendar.Cache] {
	st := s.tracker.Snapshot()
	st.Data = st.Data.Clone()
	return st
}

// Reset empties the cache and discards the result of any outstanding refresh.
func (s *CalendarSync) Reset() {
	s.tracker.Reset()
}
