// Package statsapi reads per-user time tracking statistics from the platform HTTP API.
package statsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// Status is the terminal outcome of a Fetch.
type Status int

const (
	StatusOK Status = iota
	StatusUnauthorized
	StatusRateLimited
	StatusNoData
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusRateLimited:
		return "rate-limited"
	default:
		return "no-data"
	}
}

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// Stats holds tracked seconds per window.
type Stats struct {
	TodayTime     int64 `json:"todayTime"`
	YesterdayTime int64 `json:"yesterdayTime"`
	WeekTime      int64 `json:"weekTime"`
	MonthTime     int64 `json:"monthTime"`
}

// Result is a sentinel status plus the stats when Status is StatusOK.
type Result struct {
	Status Status
	Stats  Stats
}

type Client struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client

	// MaxAttempts counts the first request. Zero means 3.
	MaxAttempts int
	// BaseDelay is the first exponential backoff step. Zero means one second.
	BaseDelay time.Duration
	// Limiter paces every attempt when set.
	Limiter *rate.Limiter
	// OnRetry is called before sleeping with the attempt that failed and the chosen delay.
	OnRetry func(attempt int, delay time.Duration)
}

// Enabled reports whether the client has an endpoint and a key.
func (c Client) Enabled() bool {
	return strings.TrimSpace(c.BaseURL) != "" && strings.TrimSpace(c.APIKey) != ""
}

// statusError is a retryable or terminal HTTP outcome.
type statusError struct {
	code       int
	retryAfter time.Duration
	hasHint    bool
}

func (e *statusError) Error() string {
	return fmt.Sprintf("stats api responded with status %d", e.code)
}

// Fetch returns the stats of one user for the day containing date.
// Exhausted retries and rejected credentials are reported through Result.Status, not the error.
// The error is set only for missing configuration or a cancelled context.
func (c Client) Fetch(ctx context.Context, workspaceID, userID string, date time.Time) (Result, error) {
	if !c.Enabled() {
		return Result{}, fmt.Errorf("TUTURUUU_API_URL and TUTURUUU_API_KEY are required")
	}
	requestURL := c.statsURL(workspaceID, userID, date)

	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	baseDelay := c.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	var (
		attempt int
		last    *statusError
		stats   Stats
	)
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		if attempt >= maxAttempts {
			return 0, true
		}
		delay := baseDelay << (attempt - 1)
		if last != nil && last.hasHint {
			delay = last.retryAfter
		}
		if c.OnRetry != nil {
			c.OnRetry(attempt, delay)
		}
		return delay, false
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		last = nil
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return err
			}
		}
		out, err := c.get(ctx, requestURL)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) {
				last = se
				if retryable(se.code) {
					return retry.RetryableError(err)
				}
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(err)
		}
		stats = out
		return nil
	})

	switch {
	case err == nil:
		return Result{Status: StatusOK, Stats: stats}, nil
	case ctx.Err() != nil:
		return Result{Status: StatusNoData}, ctx.Err()
	}

	var se *statusError
	if !errors.As(err, &se) {
		return Result{Status: StatusNoData}, nil
	}
	switch {
	case se.code == http.StatusUnauthorized || se.code == http.StatusForbidden:
		return Result{Status: StatusUnauthorized}, nil
	case se.code == http.StatusTooManyRequests:
		return Result{Status: StatusRateLimited}, nil
	default:
		return Result{Status: StatusNoData}, nil
	}
}

func (c Client) statsURL(workspaceID, userID string, date time.Time) string {
	query := url.Values{}
	query.Set("userId", userID)
	if !date.IsZero() {
		query.Set("date", date.Format(time.RFC3339))
	}
	return fmt.Sprintf("%s/api/v1/workspaces/%s/time-tracking/stats?%s",
		strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"), url.PathEscape(workspaceID), query.Encode())
}

func (c Client) get(ctx context.Context, requestURL string) (Stats, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.APIKey))
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return Stats{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		se := &statusError{code: resp.StatusCode}
		se.retryAfter, se.hasHint = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return Stats{}, se
	}

	var out Stats
	if err := json.Unmarshal(payload, &out); err != nil {
		return Stats{}, &statusError{code: http.StatusUnprocessableEntity}
	}
	return out, nil
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// parseRetryAfter accepts delta seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		delay := at.Sub(now)
		if delay < 0 {
			delay = 0
		}
		return delay, true
	}
	return 0, false
}
