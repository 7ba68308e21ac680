package web

import (
	"context"
	"crypto/rand"
	"embed"
	"encoding/hex"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"adventofgah/internal/adapters/http/middleware"
	"adventofgah/internal/adapters/http/perf"
	"adventofgah/internal/application/orchestrators"
	"adventofgah/internal/application/projections"
	"adventofgah/internal/domain/calendar"
)

//go:embed templates/*.html static/*
var assets embed.FS

// Upstream is the remote API as seen by the handlers.
type Upstream interface {
	orchestrators.ActivityLogger
	orchestrators.Authenticator
	projections.LeaderboardFetcher
	projections.AchievementsFetcher
}

// Services holds everything the handlers need.
type Services struct {
	Upstream    Upstream
	Session     *orchestrators.SessionHolder
	Calendar    *orchestrators.CalendarSync
	Toasts      *orchestrators.ToastBoard
	Broadcaster *ToastBroadcaster
	Season      calendar.Season
	Collector   *perf.Collector
}

// Config holds HTTP-layer settings read from the environment by main.
type Config struct {
	Env            string
	TrustedOrigins []string
	SlowRequest    time.Duration
}

// loadCSRFKey reads the CSRF secret from ADVENT_CSRF_KEY (hex-encoded, 32 bytes).
// In production the key MUST be set. In development a random key is generated per startup.
func loadCSRFKey(env string) []byte {
	if keyHex := os.Getenv("ADVENT_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("ADVENT_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if env == "production" {
		log.Fatal("ADVENT_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (open forms won't survive restart). Set ADVENT_CSRF_KEY for production.")
	return key
}

// Global services instance (set by NewMux)
var services *Services

// timeNow is a variable for testability.
var timeNow = time.Now

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// NewMux wires HTTP handlers for the app.
// PRE: s has every field set except Collector and Broadcaster, which may be nil
// POST: returns the handler with the full middleware chain
func NewMux(ctx context.Context, cfg Config, s *Services) http.Handler {
	services = s
	if s.Broadcaster != nil {
		s.Toasts.Subscribe(s.Broadcaster.Publish)
	}

	mux := newRouter()
	csrfKey := loadCSRFKey(cfg.Env)
	limiter := middleware.NewRateLimiter(ctx, RateLimitPerSecond, time.Second)

	// Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, cfg.Env == "production", cfg.TrustedOrigins),
		middleware.Auth(s.Session.Current),
		middleware.RateLimit(limiter),
		middleware.Timing(s.Collector, cfg.SlowRequest),
	)
}

func newRouter() *http.ServeMux {
	mux := http.NewServeMux()

	static, err := fs.Sub(assets, "static")
	if err != nil {
		log.Fatalf("static assets: %v", err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	mux.HandleFunc("GET /{$}", handleCalendar)
	mux.HandleFunc("GET /days/{day}", handleDay)
	mux.Handle("POST /days/{day}/log", middleware.RequireLogin(http.HandlerFunc(handleLogActivity)))
	mux.HandleFunc("GET /leaderboard", handleLeaderboard)
	mux.HandleFunc("GET /achievements", handleAchievements)

	mux.HandleFunc("GET /login", handleLoginForm)
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("POST /register", handleRegister)
	mux.HandleFunc("POST /logout", handleLogout)

	mux.HandleFunc("GET /api/calendar", handleAPICalendar)
	mux.HandleFunc("GET /api/toasts", handleAPIToasts)
	mux.HandleFunc("GET /ws/toasts", handleToastSocket)
	mux.HandleFunc("GET /perf", handlePerf)
	return mux
}
