package orchestrators

import (
	"log/slog"
	"sync"
	"time"

	"adventofgah/internal/domain/achievement"
)

// ToastDuration is how long an unlocked-achievement toast stays visible.
const ToastDuration = 10 * time.Second

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func())

// RealAfterFunc schedules on the runtime timer.
func RealAfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// ToastBoard holds the achievements currently shown as toasts.
//
// Every non-empty Show arms its own clear timer. Timers are never cancelled,
// so the timer of an earlier Show may clear a later list.
type ToastBoard struct {
	pubMu   sync.Mutex // orders list changes with their delivery to subscribers
	mu      sync.Mutex
	list    []achievement.Achievement
	subs    map[int]func([]achievement.Achievement)
	nextSub int
	after   AfterFunc
}

// NewToastBoard creates an empty board. A nil after uses RealAfterFunc.
func NewToastBoard(after AfterFunc) *ToastBoard {
	if after == nil {
		after = RealAfterFunc
	}
	return &ToastBoard{subs: map[int]func([]achievement.Achievement){}, after: after}
}

// Show replaces the toast list with the unlocked subset of list.
// PRE: none
// POST: returns false and changes nothing when no entry is unlocked;
// otherwise the list is replaced and a ToastDuration clear is scheduled
func (b *ToastBoard) Show(list []achievement.Achievement) bool {
	unlocked := achievement.UnlockedOnly(list)
	if len(unlocked) == 0 {
		return false
	}
	b.set(unlocked)
	slog.Info("achievements_unlocked", "count", len(unlocked))
	b.after(ToastDuration, b.clear)
	return true
}

// Current returns a copy of the visible toasts.
func (b *ToastBoard) Current() []achievement.Achievement {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]achievement.Achievement{}, b.list...)
}

// Subscribe registers fn to receive every list change. The returned func removes it.
// PRE: fn is non-nil and must not call back into the board synchronously
func (b *ToastBoard) Subscribe(fn func([]achievement.Achievement)) func() {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *ToastBoard) clear() {
	b.set(nil)
}

// set replaces the list and notifies subscribers. Subscribers see changes in the
// order they were applied, so the last delivered list always equals Current.
func (b *ToastBoard) set(list []achievement.Achievement) {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.Lock()
	b.list = list
	snapshot := append([]achievement.Achievement{}, list...)
	subs := make([]func([]achievement.Achievement), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
