package orchestrators

import (
	"context"
	"errors"
	"sync"
	"time"

	"adventofgah/internal/domain/achievement"
	"adventofgah/internal/domain/activity"
	"adventofgah/internal/domain/calendar"
	"adventofgah/internal/domain/session"
)

// manualTimers records scheduled funcs so tests decide when they fire.
type manualTimers struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays = append(m.delays, d)
	m.pending = append(m.pending, f)
}

// fire runs the i-th scheduled func.
func (m *manualTimers) fire(i int) {
	m.mu.Lock()
	f := m.pending[i]
	m.mu.Unlock()
	f()
}

func (m *manualTimers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// fakeFetcher returns canned calendar data. When gate is non-nil each call
// blocks until a value is received from it.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	keys    []string
	update  calendar.Update
	err     error
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeFetcher) Calendar(ctx context.Context, key string, req calendar.Request) (calendar.Update, error) {
	f.mu.Lock()
	f.calls++
	f.keys = append(f.keys, key)
	update, err, gate, started := f.update, f.err, f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return update, err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func twoDayUpdate() calendar.Update {
	return calendar.Update{
		HasAvailable: true,
		Available: [][]activity.Info{
			{{Activity: activity.KindRun, Value: 5}, {Activity: activity.KindBike, Value: 15}},
			{{Activity: activity.KindWalk, Value: 3}},
		},
		HasLogged: true,
		Logged:    []activity.Logged{},
	}
}

// fakeActivityLogger records the entries it was asked to log.
type fakeActivityLogger struct {
	entries []activity.Logged
	keys    []string
	reply   []achievement.Achievement
	err     error
}

func (f *fakeActivityLogger) LogActivity(_ context.Context, key string, entry activity.Logged) ([]achievement.Achievement, error) {
	f.keys = append(f.keys, key)
	f.entries = append(f.entries, entry)
	return f.reply, f.err
}

// memoryUserStateStore keeps the blob in memory.
type memoryUserStateStore struct {
	state   session.UserState
	saves   int
	saveErr error
}

func (m *memoryUserStateStore) Load(context.Context) (session.UserState, error) {
	return m.state, nil
}

func (m *memoryUserStateStore) Save(_ context.Context, s session.UserState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.state = s
	return nil
}

// fakeAuth hands out fixed session keys.
type fakeAuth struct {
	key     string
	err     error
	digests []string
	calls   []string
}

func (f *fakeAuth) Login(_ context.Context, username, digest string) (string, error) {
	f.calls = append(f.calls, "login:"+username)
	f.digests = append(f.digests, digest)
	return f.key, f.err
}

func (f *fakeAuth) Register(_ context.Context, username, digest string) (string, error) {
	f.calls = append(f.calls, "register:"+username)
	f.digests = append(f.digests, digest)
	return f.key, f.err
}

var errUpstreamDown = errors.New("connection refused")
