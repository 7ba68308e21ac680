package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"adventofgah/internal/adapters/api"
	web "adventofgah/internal/adapters/http"
	"adventofgah/internal/adapters/http/perf"
	"adventofgah/internal/adapters/storage"
	"adventofgah/internal/adapters/storage/userstate"
	"adventofgah/internal/application/orchestrators"
	"adventofgah/internal/domain/calendar"
)

// fakeServer speaks the remote API's JSON for one user.
type fakeServer struct {
	mu     sync.Mutex
	logged []map[string]any
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"session_key": "browser-key"})
	})
	mux.HandleFunc("GET /calendar", func(w http.ResponseWriter, r *http.Request) {
		days := make([][]map[string]any, calendar.DaySlots)
		for i := range days {
			days[i] = []map[string]any{{"activity": "RUN", "value": 0}, {"activity": "WALK", "value": 0}}
		}
		f.mu.Lock()
		logged := append([]map[string]any{}, f.logged...)
		f.mu.Unlock()
		writeJSON(w, map[string]any{"available_activities": days, "logged_activities": logged})
	})
	mux.HandleFunc("PUT /log-activity", func(w http.ResponseWriter, r *http.Request) {
		var entry map[string]any
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.logged = append(f.logged, entry)
		f.mu.Unlock()
		writeJSON(w, map[string]any{"achievements": []map[string]any{
			{"title": "First steps", "description": "Log your first activity", "unlocked": true, "rank": "BRONZE"},
		}})
	})
	return mux
}

type browserApp struct {
	BaseURL string
	Browser playwright.Browser
}

// newBrowserApp wires the real stack against a fake upstream and starts Chromium.
func newBrowserApp(t *testing.T) *browserApp {
	t.Helper()

	upstream := httptest.NewServer((&fakeServer{}).handler())
	t.Cleanup(upstream.Close)

	db, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	collector := perf.NewCollector(perf.DefaultRingSize)
	holder, err := orchestrators.LoadSessionHolder(ctx, userstate.NewSQLiteStore(storage.NewTimedDB(db, collector, 0)))
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	client, err := api.NewClient(api.Config{BaseURL: upstream.URL, Collector: collector})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	broadcaster := web.NewToastBroadcaster()
	go broadcaster.Run(ctx)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	// last season: every day is unlocked
	services := &web.Services{
		Upstream:    client,
		Session:     holder,
		Calendar:    orchestrators.NewCalendarSync(orchestrators.CalendarSyncDeps{Fetcher: client}),
		Toasts:      orchestrators.NewToastBoard(orchestrators.RealAfterFunc),
		Broadcaster: broadcaster,
		Season:      calendar.NewSeason(time.Now().Year()-1, time.UTC),
		Collector:   collector,
	}
	handler := web.NewMux(ctx, web.Config{
		Env:            "development",
		TrustedOrigins: []string{fmt.Sprintf("127.0.0.1:%d", port)},
	}, services)

	srv := &http.Server{Handler: handler}
	go func() {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			log.Printf("test server error: %v", err)
		}
	}()
	t.Cleanup(func() { srv.Close() })

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
	})

	return &browserApp{BaseURL: fmt.Sprintf("http://127.0.0.1:%d", port), Browser: browser}
}

func waitVisible(t *testing.T, page playwright.Page, selector string) {
	t.Helper()
	if err := page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("%s not visible: %v", selector, err)
	}
}

// TestBrowser_LogActivityFlow logs in, logs a run and sees the toast.
func TestBrowser_LogActivityFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if os.Getenv("ADVENT_BROWSER_TESTS") != "1" {
		t.Skip("set ADVENT_BROWSER_TESTS=1 to run browser tests")
	}
	app := newBrowserApp(t)

	page, err := app.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })

	if _, err := page.Goto(app.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=username]").Fill("gah"); err != nil {
		t.Fatalf("failed to fill username: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill("hunter2"); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("form.login button:not([formaction])").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	waitVisible(t, page, "text=Welcome, gah!")

	// the page reloads itself until the first calendar fetch lands
	waitVisible(t, page, `td[data-day="24"]:not(.locked)`)

	if err := page.Locator(`td[data-day="5"] a`).Click(); err != nil {
		t.Fatalf("failed to open day 5: %v", err)
	}
	waitVisible(t, page, "dialog.log-dialog")
	if err := page.Locator("dialog input[name=distance]").Fill("8"); err != nil {
		t.Fatalf("failed to fill distance: %v", err)
	}
	if err := page.Locator("dialog button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to submit: %v", err)
	}

	waitVisible(t, page, `td[data-day="5"] >> text=Run 8 km`)
	waitVisible(t, page, "#toasts >> text=First steps")
}
