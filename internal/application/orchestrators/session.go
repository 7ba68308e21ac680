package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"adventofgah/internal/domain/session"
)

// UserStateStore persists the user state blob.
type UserStateStore interface {
	Load(ctx context.Context) (session.UserState, error)
	Save(ctx context.Context, state session.UserState) error
}

// SessionHolder is the process-wide user state. It lives for the whole process
// and writes through to its store on every change.
type SessionHolder struct {
	mu    sync.RWMutex
	state session.UserState
	store UserStateStore
}

// LoadSessionHolder restores the persisted state.
// PRE: store is non-nil
// POST: returns a holder with the stored state (logged out when none is stored)
func LoadSessionHolder(ctx context.Context, store UserStateStore) (*SessionHolder, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if state.LoggedIn() {
		slog.Info("session_restored", "username", state.Username)
	}
	return &SessionHolder{state: state, store: store}, nil
}

// Current returns a snapshot of the user state.
func (h *SessionHolder) Current() session.UserState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Replace persists state and then makes it current.
// PRE: none
// POST: on a store error the in-memory state is unchanged
func (h *SessionHolder) Replace(ctx context.Context, state session.UserState) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.store.Save(ctx, state); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	h.state = state
	return nil
}

// Authenticator exchanges credentials for a session key.
type Authenticator interface {
	Login(ctx context.Context, username, passDigest string) (string, error)
	Register(ctx context.Context, username, passDigest string) (string, error)
}

// CalendarResetter drops cached calendar data.
type CalendarResetter interface {
	Reset()
}

// SessionDeps holds dependencies for login, register and logout.
type SessionDeps struct {
	Auth     Authenticator
	Holder   *SessionHolder
	Calendar CalendarResetter
}

// ExecuteLogin signs in with existing credentials.
// PRE: none
// POST: on success the new session is current and persisted, and the calendar cache is reset
func ExecuteLogin(ctx context.Context, creds session.Credentials, deps SessionDeps) (session.UserState, error) {
	return exchangeCredentials(ctx, "login", creds, deps, deps.Auth.Login)
}

// ExecuteRegister creates a user and signs in.
// PRE: none
// POST: same as ExecuteLogin
func ExecuteRegister(ctx context.Context, creds session.Credentials, deps SessionDeps) (session.UserState, error) {
	return exchangeCredentials(ctx, "register", creds, deps, deps.Auth.Register)
}

func exchangeCredentials(
	ctx context.Context,
	event string,
	creds session.Credentials,
	deps SessionDeps,
	call func(ctx context.Context, username, passDigest string) (string, error),
) (session.UserState, error) {
	if err := creds.Validate(); err != nil {
		return session.UserState{}, err
	}
	username := strings.TrimSpace(creds.Username)

	key, err := call(ctx, username, session.DigestPassword(creds.Password))
	if err != nil {
		slog.Info("auth_event", "event", event+"_failed", "username", username, "error", err)
		return session.UserState{}, fmt.Errorf("%s: %w", event, err)
	}
	if key == "" {
		slog.Warn("auth_event", "event", event+"_failed", "username", username, "reason", "empty_session_key")
		return session.UserState{}, session.ErrEmptySessionKey
	}

	state := session.UserState{SessionKey: key, Username: username}
	if err := deps.Holder.Replace(ctx, state); err != nil {
		return session.UserState{}, err
	}
	deps.Calendar.Reset()
	slog.Info("auth_event", "event", event+"_success", "username", username)
	return state, nil
}

// ExecuteLogout clears the session.
// PRE: none
// POST: the logged-out state is current and persisted; the calendar cache is empty
func ExecuteLogout(ctx context.Context, deps SessionDeps) error {
	prev := deps.Holder.Current()
	if err := deps.Holder.Replace(ctx, session.UserState{}); err != nil {
		return err
	}
	deps.Calendar.Reset()
	slog.Info("auth_event", "event", "logout", "username", prev.Username)
	return nil
}
