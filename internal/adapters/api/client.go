// Package api is the transport to the remote Advent of Gah server.
//
// Every call is a single attempt: no retry, no backoff and no client-side
// timeout. The caller's context is the only way to abandon a request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"adventofgah/internal/adapters/http/perf"
	"adventofgah/internal/domain/achievement"
	"adventofgah/internal/domain/activity"
	"adventofgah/internal/domain/calendar"
	"adventofgah/internal/domain/leaderboard"
)

// AuthHeader carries the session key. The spelling is what the server expects.
const AuthHeader = "Authentification"

// RequestIDHeader correlates a call with server-side diagnostics.
const RequestIDHeader = "X-Request-Id"

// DefaultSlowUpstreamMs is used when ADVENT_SLOW_UPSTREAM_MS is unset or invalid.
const DefaultSlowUpstreamMs = 500

const maxResponseBytes = 4 << 20

// Transport errors
var (
	ErrTransport = errors.New("api: request failed")
	ErrDecode    = errors.New("api: response is not valid JSON")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: %s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("api: %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// SlowUpstreamThresholdFromEnv reads ADVENT_SLOW_UPSTREAM_MS.
func SlowUpstreamThresholdFromEnv() time.Duration {
	if v := os.Getenv("ADVENT_SLOW_UPSTREAM_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return DefaultSlowUpstreamMs * time.Millisecond
}

// Config configures a Client.
type Config struct {
	BaseURL       string
	HTTPClient    *http.Client    // nil means a client with no timeout
	Collector     *perf.Collector // optional
	SlowThreshold time.Duration   // <= 0 means DefaultSlowUpstreamMs
}

// Client talks JSON to the remote API.
type Client struct {
	base      *url.URL
	http      *http.Client
	collector *perf.Collector
	slow      time.Duration
	newID     func() string
}

// NewClient validates cfg and returns a ready client.
// PRE: cfg.BaseURL is an absolute http(s) URL
// POST: returns a client whose calls resolve paths against BaseURL
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q: need http(s)://host", cfg.BaseURL)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 0}
	}
	slow := cfg.SlowThreshold
	if slow <= 0 {
		slow = DefaultSlowUpstreamMs * time.Millisecond
	}
	return &Client{
		base:      base,
		http:      hc,
		collector: cfg.Collector,
		slow:      slow,
		newID:     func() string { return uuid.New().String() },
	}, nil
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, key, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, key, path, query, nil, out)
}

// Post sends in as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, key, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, key, path, nil, in, out)
}

// Put sends in as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, key, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, key, path, nil, in, out)
}

func (c *Client) do(ctx context.Context, method, key, path string, query url.Values, in, out any) error {
	reqID := c.newID()
	start := time.Now()
	status, err := c.roundTrip(ctx, method, key, path, query, in, out, reqID)
	c.observe(method, path, reqID, status, start, err)
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, key, path string, query url.Values, in, out any, reqID string) (int, error) {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if key != "" {
		req.Header.Set(AuthHeader, key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %s %s: read body: %w", ErrTransport, method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   trimBody(raw),
		}
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %s %s: %w", ErrDecode, method, path, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) observe(method, path, reqID string, status int, start time.Time, err error) {
	elapsed := time.Since(start)
	ms := float64(elapsed.Microseconds()) / 1000.0
	label := method + " " + path

	switch {
	case err != nil:
		slog.Warn("api_call_failed", "call", label, "status", status, "request_id", reqID, "duration_ms", ms, "error", err)
	case elapsed >= c.slow:
		slog.Warn("slow_api_call", "call", label, "status", status, "request_id", reqID, "duration_ms", ms)
	default:
		slog.Debug("api_call", "call", label, "status", status, "request_id", reqID, "duration_ms", ms)
	}

	if c.collector != nil {
		c.collector.Record(perf.Entry{
			Kind:       perf.KindUpstream,
			Path:       label,
			StatusCode: status,
			Failed:     err != nil,
			DurationMs: ms,
			Timestamp:  start,
		})
	}
}

func trimBody(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	const limit = 200
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}

// Calendar fetches the sections selected by req.
// PRE: key may be empty (the server decides what an anonymous caller sees)
// POST: absent sections are reported via the Has* flags
func (c *Client) Calendar(ctx context.Context, key string, req calendar.Request) (calendar.Update, error) {
	q := url.Values{}
	q.Set("get_available_activities", strconv.FormatBool(req.AvailableActivities))
	q.Set("get_logged_activities", strconv.FormatBool(req.LoggedActivities))

	var resp calendarResponse
	if err := c.Get(ctx, key, "/calendar", q, &resp); err != nil {
		return calendar.Update{}, err
	}
	u, err := resp.toUpdate()
	if err != nil {
		return calendar.Update{}, fmt.Errorf("%w: GET /calendar: %w", ErrDecode, err)
	}
	return u, nil
}

// LogActivity records entry and returns the achievements in the response.
// PRE: entry.Validate() == nil
func (c *Client) LogActivity(ctx context.Context, key string, entry activity.Logged) ([]achievement.Achievement, error) {
	in := wireLogged{Day: entry.Day, Info: fromInfo(entry.Info)}
	var resp logActivityResponse
	if err := c.Put(ctx, key, "/log-activity", in, &resp); err != nil {
		return nil, err
	}
	list, err := toAchievements(resp.Achievements)
	if err != nil {
		return nil, fmt.Errorf("%w: PUT /log-activity: %w", ErrDecode, err)
	}
	return list, nil
}

// Login exchanges a username and password digest for a session key.
func (c *Client) Login(ctx context.Context, username, passDigest string) (string, error) {
	return c.exchange(ctx, http.MethodPost, "/login", username, passDigest)
}

// Register creates the user and returns a session key.
func (c *Client) Register(ctx context.Context, username, passDigest string) (string, error) {
	return c.exchange(ctx, http.MethodPut, "/register-user", username, passDigest)
}

func (c *Client) exchange(ctx context.Context, method, path, username, passDigest string) (string, error) {
	var resp sessionKeyResponse
	err := c.do(ctx, method, "", path, nil, usernamePass{Username: username, Pass: passDigest}, &resp)
	if err != nil {
		return "", err
	}
	return resp.SessionKey, nil
}

// Leaderboard fetches one page of the leaderboard. End == 0 omits the end bound.
func (c *Client) Leaderboard(ctx context.Context, key string, r leaderboard.Range) (leaderboard.Board, error) {
	q := url.Values{}
	q.Set("start", strconv.Itoa(r.Start))
	if r.End > 0 {
		q.Set("end", strconv.Itoa(r.End))
	}
	var resp leaderboardResponse
	if err := c.Get(ctx, key, "/leaderboard", q, &resp); err != nil {
		return leaderboard.Board{}, err
	}
	return resp.toBoard(), nil
}

// Achievements fetches the achievements overview of the session's user.
func (c *Client) Achievements(ctx context.Context, key string) (achievement.Summary, error) {
	var resp achievementsResponse
	if err := c.Get(ctx, key, "/achievements", nil, &resp); err != nil {
		return achievement.Summary{}, err
	}
	list, err := toAchievements(resp.Achievements)
	if err != nil {
		return achievement.Summary{}, fmt.Errorf("%w: GET /achievements: %w", ErrDecode, err)
	}
	return achievement.Summary{
		Total:        resp.Total,
		Unlocked:     resp.Unlocked,
		Achievements: list,
	}, nil
}
