package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"adventofgah/internal/adapters/api"
	"adventofgah/internal/adapters/http/middleware"
	"adventofgah/internal/application/listutil"
	"adventofgah/internal/application/orchestrators"
	"adventofgah/internal/application/projections"
	"adventofgah/internal/domain/activity"
	"adventofgah/internal/domain/calendar"
	"adventofgah/internal/domain/leaderboard"
	"adventofgah/internal/domain/session"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

const (
	noticeLogFailed      = "Could not log the activity, please try again."
	noticeLoginFailed    = "Login failed. Check your username and password."
	noticeRegisterFailed = "Registration failed. The username may already be taken."
	noticeLeaderboard    = "Could not load the leaderboard."
	noticeAchievements   = "Could not load your achievements."
	noticeUnreachable    = "The server is unreachable, please try again later."
)

// userErrors are shown to the user verbatim.
var userErrors = []error{
	session.ErrNotLoggedIn,
	session.ErrEmptyUsername,
	session.ErrUsernameTooLong,
	session.ErrEmptyPassword,
	activity.ErrDayOutOfRange,
	activity.ErrInvalidDistance,
	calendar.ErrDayLocked,
	calendar.ErrAlreadyLogged,
	calendar.ErrActivityUnavailable,
}

// userMessage returns the message for a validation error, or false for
// anything that must not leak to the page.
func userMessage(err error) (string, bool) {
	for _, e := range userErrors {
		if errors.Is(err, e) {
			return e.Error(), true
		}
	}
	return "", false
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// redirectWithNotice redirects to path with an alert banner message.
func redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string, extra url.Values) {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	if notice != "" {
		q.Set("notice", notice)
	}
	target := path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data map[string]any) {
	sess := middleware.SessionFromContext(r.Context())
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Notice"]; !ok {
		data["Notice"] = r.URL.Query().Get("notice")
	}

	funcMap := template.FuncMap{
		"isLoggedIn":  func() bool { return sess.LoggedIn() },
		"currentUser": func() string { return sess.Username },
		"csrfField":   func() template.HTML { return csrf.TemplateField(r) },
		"toasts":      func() []toastView { return toToastViews(services.Toasts.Current()) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"km":  func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
		"add": func(a, b int) int { return a + b },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(assets, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, fmt.Errorf("parse %s: %w", templateName, err))
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status, ok := data["Status"].(int); ok && status != 0 {
		w.WriteHeader(status)
	}
	buf.WriteTo(w)
}

// parseDay converts the 1-based {day} path value into a zero-based day.
func parseDay(r *http.Request) (int, error) {
	n, err := strconv.Atoi(r.PathValue("day"))
	if err != nil {
		return 0, activity.ErrDayOutOfRange
	}
	day := n - 1
	if day < 0 || day > activity.MaxDay {
		return 0, activity.ErrDayOutOfRange
	}
	return day, nil
}

func calendarDeps() projections.GetCalendarDeps {
	return projections.GetCalendarDeps{Calendar: services.Calendar, Season: services.Season, Now: timeNow}
}

// renderCalendar renders the calendar page, with the log dialog open when dialog is set.
func renderCalendar(w http.ResponseWriter, r *http.Request, opening, closing int, dialog *projections.GetDayResult) {
	sess := middleware.SessionFromContext(r.Context())
	if services.Calendar.Snapshot().Data.IsEmpty() {
		services.Calendar.ScheduleInitialRefresh(sess.SessionKey)
	}
	result := projections.QueryGetCalendar(projections.GetCalendarQuery{Opening: opening, Closing: closing}, calendarDeps())
	renderTemplate(w, r, "calendar.html", map[string]any{
		"Title":    "Calendar",
		"Calendar": result,
		"Dialog":   dialog,
		"Kinds":    activity.Kinds,
	})
}

func handleCalendar(w http.ResponseWriter, r *http.Request) {
	closing := projections.NoDay
	if n, err := strconv.Atoi(r.URL.Query().Get("closed")); err == nil {
		closing = n - 1
	}
	renderCalendar(w, r, projections.NoDay, closing, nil)
}

func handleDay(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	result, err := projections.QueryGetDay(projections.GetDayQuery{
		Day:      day,
		Selected: q.Get("activity"),
		Distance: q.Get("distance"),
	}, projections.GetDayDeps{Calendar: services.Calendar, Season: services.Season, Now: timeNow})
	if errors.Is(err, calendar.ErrDayLocked) {
		redirectWithNotice(w, r, "/", err.Error(), nil)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	renderCalendar(w, r, day, projections.NoDay, &result)
}

type logActivityRequest struct {
	Activity string `json:"activity"`
	Distance string `json:"distance"`
}

// handleLogActivity accepts the dialog form, or a JSON body for scripted clients.
func handleLogActivity(w http.ResponseWriter, r *http.Request) {
	asJSON := isJSONRequest(r)
	day, err := parseDay(r)
	if err != nil {
		if asJSON {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		http.NotFound(w, r)
		return
	}

	var req logActivityRequest
	if asJSON {
		if err := strictDecode(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
	} else {
		req.Activity = r.FormValue("activity")
		req.Distance = r.FormValue("distance")
	}

	unlocked, err := orchestrators.ExecuteLogActivity(r.Context(), orchestrators.LogActivityInput{
		Session:  middleware.SessionFromContext(r.Context()),
		Day:      day,
		Activity: req.Activity,
		Distance: req.Distance,
	}, orchestrators.LogActivityDeps{
		Logger:   services.Upstream,
		Calendar: services.Calendar,
		Toasts:   services.Toasts,
		Season:   services.Season,
		Now:      timeNow,
	})

	dayPath := "/days/" + strconv.Itoa(day+1)
	if err != nil {
		msg, known := userMessage(err)
		status := http.StatusBadRequest
		if !known {
			msg = noticeLogFailed
			status = http.StatusBadGateway
		} else if errors.Is(err, calendar.ErrAlreadyLogged) {
			status = http.StatusConflict
		}
		if asJSON {
			writeJSON(w, status, errorResponse{Error: msg})
			return
		}
		redirectWithNotice(w, r, dayPath, msg, url.Values{"activity": {req.Activity}, "distance": {req.Distance}})
		return
	}

	if asJSON {
		writeJSON(w, http.StatusOK, toastsResponse{Toasts: toToastViews(unlocked)})
		return
	}
	http.Redirect(w, r, "/?closed="+strconv.Itoa(day+1), http.StatusSeeOther)
}

func handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := listutil.ParsePage(q)
	var rng leaderboard.Range
	if page.Paged() {
		rng.Start, rng.End = page.Bounds()
	} else {
		if n, err := strconv.Atoi(q.Get("start")); err == nil && n >= 0 {
			rng.Start = n
		}
		if n, err := strconv.Atoi(q.Get("end")); err == nil && n > rng.Start {
			rng.End = n
		}
	}

	result, err := projections.QueryGetLeaderboard(r.Context(), projections.GetLeaderboardQuery{
		Session: middleware.SessionFromContext(r.Context()),
		Range:   rng,
	}, projections.GetLeaderboardDeps{Fetcher: services.Upstream})
	if err != nil {
		slog.Warn("leaderboard_unavailable", "error", err)
		renderTemplate(w, r, "leaderboard.html", map[string]any{
			"Title":  "Leaderboard",
			"Notice": noticeLeaderboard,
			"Status": http.StatusBadGateway,
		})
		return
	}
	data := map[string]any{
		"Title":       "Leaderboard",
		"Leaderboard": result,
	}
	if page.Paged() {
		data["Pages"] = listutil.NewPageInfo(page.Number, page.PerPage, result.TotalEntries)
		data["PerPage"] = page.PerPage
	}
	renderTemplate(w, r, "leaderboard.html", data)
}

func handleAchievements(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetAchievements(r.Context(), projections.GetAchievementsQuery{
		Session: middleware.SessionFromContext(r.Context()),
	}, projections.GetAchievementsDeps{Fetcher: services.Upstream})
	if err != nil {
		slog.Warn("achievements_unavailable", "error", err)
		renderTemplate(w, r, "achievements.html", map[string]any{
			"Title":  "Achievements",
			"Notice": noticeAchievements,
			"Status": http.StatusBadGateway,
		})
		return
	}
	renderTemplate(w, r, "achievements.html", map[string]any{
		"Title":        "Achievements",
		"Achievements": result,
	})
}

func sessionDeps() orchestrators.SessionDeps {
	return orchestrators.SessionDeps{
		Auth:     services.Upstream,
		Holder:   services.Session,
		Calendar: services.Calendar,
	}
}

func handleLoginForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "login.html", map[string]any{
		"Title":    "Log in",
		"Username": r.URL.Query().Get("username"),
	})
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	authenticate(w, r, orchestrators.ExecuteLogin, noticeLoginFailed)
}

func handleRegister(w http.ResponseWriter, r *http.Request) {
	authenticate(w, r, orchestrators.ExecuteRegister, noticeRegisterFailed)
}

func authenticate(
	w http.ResponseWriter,
	r *http.Request,
	exec func(context.Context, session.Credentials, orchestrators.SessionDeps) (session.UserState, error),
	failedNotice string,
) {
	creds := session.Credentials{Username: r.FormValue("username"), Password: r.FormValue("password")}
	state, err := exec(r.Context(), creds, sessionDeps())
	if err != nil {
		notice, ok := authFailureNotice(err, failedNotice)
		if !ok {
			internalError(w, err)
			return
		}
		redirectWithNotice(w, r, "/login", notice, url.Values{"username": {strings.TrimSpace(creds.Username)}})
		return
	}
	redirectWithNotice(w, r, "/", "Welcome, "+state.Username+"!", nil)
}

// authFailureNotice maps a login or register error to the banner text.
// It returns false for local failures (e.g. the state store) that deserve a 500.
func authFailureNotice(err error, failedNotice string) (string, bool) {
	if msg, ok := userMessage(err); ok {
		return msg, true
	}
	var statusErr *api.StatusError
	switch {
	case errors.Is(err, api.ErrTransport):
		return noticeUnreachable, true
	case errors.As(err, &statusErr), errors.Is(err, api.ErrDecode), errors.Is(err, session.ErrEmptySessionKey):
		return failedNotice, true
	}
	return "", false
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteLogout(r.Context(), sessionDeps()); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
