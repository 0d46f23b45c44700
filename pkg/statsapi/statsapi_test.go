package statsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newClient(serverURL string) Client {
	return Client{BaseURL: serverURL, APIKey: "key", BaseDelay: 5 * time.Millisecond}
}

func TestFetchReturnsStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/workspaces/ws-1/time-tracking/stats" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("userId") != "u-1" {
			t.Fatalf("missing userId query: %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Fatalf("unexpected authorization %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"todayTime":3600,"yesterdayTime":60,"weekTime":7200,"monthTime":9000}`))
	}))
	defer server.Close()

	result, err := newClient(server.URL).Fetch(context.Background(), "ws-1", "u-1", time.Now())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Status != StatusOK || result.Stats.TodayTime != 3600 || result.Stats.MonthTime != 9000 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestFetchHonorsRetryAfterExactly(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"todayTime":10}`))
	}))
	defer server.Close()

	var delays []time.Duration
	client := newClient(server.URL)
	client.OnRetry = func(_ int, delay time.Duration) { delays = append(delays, delay) }

	result, err := client.Fetch(context.Background(), "ws-1", "u-1", time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Status != StatusOK || result.Stats.TodayTime != 10 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(delays) != 1 || delays[0] != time.Second {
		t.Fatalf("expected a single one second delay, got %v", delays)
	}
}

func TestFetchBacksOffExponentiallyWithoutHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	var delays []time.Duration
	client := newClient(server.URL)
	client.OnRetry = func(_ int, delay time.Duration) { delays = append(delays, delay) }

	result, err := client.Fetch(context.Background(), "ws-1", "u-1", time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Status != StatusRateLimited {
		t.Fatalf("expected rate limited sentinel, got %s", result.Status)
	}
	want := []time.Duration{5 * time.Millisecond, 10 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("expected %d retries, got %v", len(want), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay %d = %s, want %s", i, delays[i], want[i])
		}
	}
}

func TestFetchStopsOnUnauthorized(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	result, err := newClient(server.URL).Fetch(context.Background(), "ws-1", "u-1", time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Status != StatusUnauthorized {
		t.Fatalf("expected unauthorized sentinel, got %s", result.Status)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestFetchServerErrorsEndInNoData(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	result, err := newClient(server.URL).Fetch(context.Background(), "ws-1", "u-1", time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Status != StatusNoData {
		t.Fatalf("expected no-data sentinel, got %s", result.Status)
	}
	if calls.Load() != defaultMaxAttempts {
		t.Fatalf("expected %d calls, got %d", defaultMaxAttempts, calls.Load())
	}
}

func TestFetchOtherStatusStopsImmediately(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, _ := newClient(server.URL).Fetch(context.Background(), "ws-1", "u-1", time.Time{})
	if result.Status != StatusNoData || calls.Load() != 1 {
		t.Fatalf("expected one call ending in no-data, got %s after %d calls", result.Status, calls.Load())
	}
}

func TestFetchRequiresConfiguration(t *testing.T) {
	if _, err := (Client{}).Fetch(context.Background(), "ws-1", "u-1", time.Time{}); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	if d, ok := parseRetryAfter("3", now); !ok || d != 3*time.Second {
		t.Fatalf("seconds form: %s %v", d, ok)
	}
	date := now.Add(5 * time.Second).Format(http.TimeFormat)
	if d, ok := parseRetryAfter(date, now); !ok || d != 5*time.Second {
		t.Fatalf("date form: %s %v", d, ok)
	}
	if _, ok := parseRetryAfter("soon", now); ok {
		t.Fatal("expected garbage to be ignored")
	}
}
