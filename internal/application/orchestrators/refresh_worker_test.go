package orchestrators

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"adventofgah/internal/domain/calendar"
	"adventofgah/internal/domain/session"
)

type fixedSession struct {
	mu    sync.Mutex
	state session.UserState
}

func (f *fixedSession) Current() session.UserState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

// TestStartRefreshWorker_RefreshesWhileLoggedIn refetches on every tick with the current key.
func TestStartRefreshWorker_RefreshesWhileLoggedIn(t *testing.T) {
	fetcher := &fakeFetcher{update: twoDayUpdate()}
	cs := NewCalendarSync(CalendarSyncDeps{Fetcher: fetcher, AfterFunc: (&manualTimers{}).AfterFunc})
	sessions := &fixedSession{state: session.UserState{SessionKey: "k1", Username: "gah"}}

	stop := make(chan struct{})
	done := StartRefreshWorker(cs, sessions, 2*time.Millisecond, stop)

	waitFor(t, func() bool { return fetcher.callCount() >= 2 })
	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	for _, k := range fetcher.keys {
		if k != "k1" {
			t.Errorf("key = %q, want k1", k)
		}
	}
}

// TestStartRefreshWorker_IdleWhenLoggedOut issues no requests without a session.
func TestStartRefreshWorker_IdleWhenLoggedOut(t *testing.T) {
	fetcher := &fakeFetcher{update: twoDayUpdate()}
	cs := NewCalendarSync(CalendarSyncDeps{Fetcher: fetcher, AfterFunc: (&manualTimers{}).AfterFunc})

	stop := make(chan struct{})
	done := StartRefreshWorker(cs, &fixedSession{}, time.Millisecond, stop)
	time.Sleep(20 * time.Millisecond)
	close(stop)
	<-done

	if n := fetcher.callCount(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

// TestStartRefreshWorker_StopCancelsOutstandingRefresh aborts a hanging fetch on shutdown.
func TestStartRefreshWorker_StopCancelsOutstandingRefresh(t *testing.T) {
	fetcher := &ctxFetcher{started: make(chan struct{}, 1)}
	cs := NewCalendarSync(CalendarSyncDeps{Fetcher: fetcher, AfterFunc: (&manualTimers{}).AfterFunc})
	sessions := &fixedSession{state: session.UserState{SessionKey: "k1"}}

	stop := make(chan struct{})
	done := StartRefreshWorker(cs, sessions, time.Millisecond, stop)
	<-fetcher.started
	close(stop)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop while a refresh was outstanding")
	}
	if !errors.Is(fetcher.err(), context.Canceled) {
		t.Errorf("fetch err = %v, want context.Canceled", fetcher.err())
	}
}

// ctxFetcher blocks until its context is done.
type ctxFetcher struct {
	mu      sync.Mutex
	started chan struct{}
	ctxErr  error
}

func (f *ctxFetcher) Calendar(ctx context.Context, key string, req calendar.Request) (calendar.Update, error) {
	select {
	case f.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	f.mu.Lock()
	f.ctxErr = ctx.Err()
	f.mu.Unlock()
	return calendar.Update{}, ctx.Err()
}

func (f *ctxFetcher) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ctxErr
}

func TestRefreshIntervalFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"0", 0},
		{"90s", 90 * time.Second},
		{"soon", 0},
		{"-1m", 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("ADVENT_CALENDAR_REFRESH_INTERVAL", tt.value)
			if got := RefreshIntervalFromEnv(); got != tt.want {
				t.Errorf("RefreshIntervalFromEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}
