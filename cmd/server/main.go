package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"adventofgah/internal/adapters/api"
	web "adventofgah/internal/adapters/http"
	"adventofgah/internal/adapters/http/middleware"
	"adventofgah/internal/adapters/http/perf"
	"adventofgah/internal/adapters/logging"
	"adventofgah/internal/adapters/storage"
	"adventofgah/internal/adapters/storage/userstate"
	"adventofgah/internal/application/orchestrators"
	"adventofgah/internal/domain/calendar"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	env := envOrDefault("ADVENT_ENV", "development")
	logging.Setup(env, envOrDefault("ADVENT_LOG_LEVEL", "info"), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := envOrDefault("ADVENT_DB", "advent.db")
	db, err := storage.OpenSQLite(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.MigrateDB(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Performance instrumentation: wrap DB and upstream client with timing
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, storage.SlowQueryThresholdFromEnv())

	holder, err := orchestrators.LoadSessionHolder(ctx, userstate.NewSQLiteStore(timedDB))
	if err != nil {
		log.Fatalf("failed to load user state: %v", err)
	}

	client, err := api.NewClient(api.Config{
		BaseURL:       envOrDefault("ADVENT_API_URL", "http://localhost:8080"),
		Collector:     collector,
		SlowThreshold: api.SlowUpstreamThresholdFromEnv(),
	})
	if err != nil {
		log.Fatalf("invalid ADVENT_API_URL: %v", err)
	}

	year := time.Now().Year()
	if v := os.Getenv("ADVENT_SEASON_YEAR"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid ADVENT_SEASON_YEAR %q: %v", v, err)
		}
	}

	broadcaster := web.NewToastBroadcaster()
	go broadcaster.Run(ctx)

	calendarSync := orchestrators.NewCalendarSync(orchestrators.CalendarSyncDeps{Fetcher: client})
	if interval := orchestrators.RefreshIntervalFromEnv(); interval > 0 {
		orchestrators.StartRefreshWorker(calendarSync, holder, interval, ctx.Done())
	}

	services := &web.Services{
		Upstream:    client,
		Session:     holder,
		Calendar:    calendarSync,
		Toasts:      orchestrators.NewToastBoard(orchestrators.RealAfterFunc),
		Broadcaster: broadcaster,
		Season:      calendar.NewSeason(year, time.Local),
		Collector:   collector,
	}

	mux := web.NewMux(ctx, web.Config{
		Env:            env,
		TrustedOrigins: splitList(os.Getenv("ADVENT_TRUSTED_ORIGINS")),
		SlowRequest:    middleware.SlowRequestThresholdFromEnv(),
	}, services)

	addr := listenAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown_incomplete", "error", err)
		}
	}()

	slog.Info("server_starting",
		"version", version,
		"addr", addr,
		"env", env,
		"schema", storage.LatestSchemaVersion(),
		"season", year,
		"logged_in", holder.Current().LoggedIn(),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	slog.Info("server_stopped")
}

// defaultAddr is loopback only: every request acts as the single logged-in user.
const defaultAddr = "127.0.0.1:3000"

func listenAddr() string {
	return envOrDefault("ADVENT_ADDR", defaultAddr)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
