package orchestrators

import (
	"context"
	"log/slog"
	"os"
	"time"

	"adventofgah/internal/domain/session"
)

// SessionSource yields the session used for background refreshes.
type SessionSource interface {
	Current() session.UserState
}

// RefreshIntervalFromEnv reads ADVENT_CALENDAR_REFRESH_INTERVAL as a Go duration.
// The worker is opt-in: a missing, zero or invalid value returns 0, which disables it.
func RefreshIntervalFromEnv() time.Duration {
	v := os.Getenv("ADVENT_CALENDAR_REFRESH_INTERVAL")
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		slog.Warn("calendar_refresh_interval_invalid", "value", v)
		return 0
	}
	return d
}

// StartRefreshWorker starts a goroutine that periodically refreshes the calendar
// cache while a user is logged in.
// PRE: interval > 0; stopCh is provided to signal shutdown
// POST: returns a channel closed once the worker has stopped
// INVARIANT: ticks while logged out or while a refresh is in flight do nothing;
// an outstanding refresh is cancelled only by closing stopCh
func StartRefreshWorker(cs *CalendarSync, sessions SessionSource, interval time.Duration, stopCh <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stopCh
		cancel()
	}()
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				state := sessions.Current()
				if !state.LoggedIn() {
					continue
				}
				cs.Refresh(ctx, state.SessionKey)
			case <-stopCh:
				slog.Info("calendar_refresh_worker_stopped")
				return
			}
		}
	}()
	return done
}
