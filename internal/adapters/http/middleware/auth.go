package middleware

import (
	"context"
	"net/http"
	"net/url"

	"adventofgah/internal/domain/session"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// SessionSource returns the current process-wide user state.
type SessionSource func() session.UserState

// Auth returns middleware that snapshots the user state into the request context.
// It does NOT block logged-out requests; use RequireLogin for that.
func Auth(current SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ContextWithSession(r.Context(), current())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogin redirects logged-out requests to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFromContext(r.Context()).LoggedIn() {
			http.Redirect(w, r, "/login?notice="+url.QueryEscape(session.ErrNotLoggedIn.Error()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromContext returns the snapshot taken by Auth, or the logged-out state.
func SessionFromContext(ctx context.Context) session.UserState {
	s, _ := ctx.Value(sessionContextKey).(session.UserState)
	return s
}

// ContextWithSession returns a context carrying s.
func ContextWithSession(ctx context.Context, s session.UserState) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}
