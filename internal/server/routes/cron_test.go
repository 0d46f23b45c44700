package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/tutur3u/discordbot/internal/config"
	"github.com/tutur3u/discordbot/internal/discord"
	"github.com/tutur3u/discordbot/internal/report"
)

type fakePublisher struct {
	cfg    report.Config
	at     time.Time
	dryRun bool
	result report.Report
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, cfg report.Config, at time.Time, dryRun bool) (report.Report, error) {
	f.cfg, f.at, f.dryRun = cfg, at, dryRun
	return f.result, f.err
}

type fakeReminder struct {
	calls  int
	result report.Report
	err    error
}

func (f *fakeReminder) Send(context.Context, report.ReminderConfig, time.Time) (report.Report, error) {
	f.calls++
	return f.result, f.err
}

func newCronServer(cfg CronConfig, pub ReportPublisher, rem ReminderSender) *echo.Echo {
	e := echo.New()
	NewCronRoutes(cfg, pub, rem, discardLogger()).RegisterRoutes(e)
	return e
}

func decodeCron(t *testing.T, rec *httptest.ResponseRecorder) cronResponse {
	t.Helper()
	var out cronResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

var validReport = config.ReportConfig{Channel: "c-1", WorkspaceID: "ws-1", Timezone: "Asia/Ho_Chi_Minh"}

func TestCronSecretSources(t *testing.T) {
	rem := &fakeReminder{result: report.Report{ChannelID: "c-1", Mode: report.ModeRole, Content: "📣 hi"}}
	e := newCronServer(CronConfig{Secret: "s3cret"}, &fakePublisher{}, rem)

	requests := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/wol-reminder", nil),
		httptest.NewRequest(http.MethodGet, "/wol-reminder", nil),
		httptest.NewRequest(http.MethodGet, "/wol-reminder?secret=s3cret", nil),
	}
	requests[0].Header.Set(echo.HeaderAuthorization, "Bearer s3cret")
	requests[1].Header.Set(CronSecretHeader, "s3cret")

	for _, req := range requests {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, req.URL.String())
		out := decodeCron(t, rec)
		require.Equal(t, "sent", out.Status)
		require.Equal(t, "c-1", out.ChannelID)
		require.Equal(t, "role", out.Mode)
	}
	require.Equal(t, 3, rem.calls)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wol-reminder?secret=wrong", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, 3, rem.calls)
}

func TestCronWithoutConfiguredSecret(t *testing.T) {
	e := newCronServer(CronConfig{}, &fakePublisher{}, &fakeReminder{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/daily-report?secret=", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, decodeCron(t, rec).Error, "CRON_SECRET")
}

func TestDailyReportEndpoint(t *testing.T) {
	pub := &fakePublisher{result: report.Report{ChannelID: "c-1", Mode: report.ModeStandard, Content: "# 📊 report"}}
	e := newCronServer(CronConfig{Secret: "s", Report: validReport}, pub, &fakeReminder{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/daily-report?secret=s&dry_run=true&date=2026-10-14", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeCron(t, rec)
	require.Equal(t, "dry-run", out.Status)
	require.Equal(t, "standard", out.Mode)
	require.Equal(t, "# 📊 report", out.ContentPreview)
	require.True(t, pub.dryRun)
	require.Equal(t, "ws-1", pub.cfg.WorkspaceID)
	require.Equal(t, "2026-10-14", pub.at.In(pub.cfg.Location).Format(time.DateOnly))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/daily-report?secret=s&date=14-10-2026", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDailyReportConfigAndPlatformErrors(t *testing.T) {
	e := newCronServer(CronConfig{Secret: "s", Report: config.ReportConfig{Channel: "c-1"}}, &fakePublisher{}, &fakeReminder{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/daily-report?secret=s", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, decodeCron(t, rec).Error, "DISCORD_DAILY_REPORT_WORKSPACE_ID")

	pub := &fakePublisher{err: &discord.APIError{Method: http.MethodPost, Path: "/channels/c-1/messages", Status: http.StatusForbidden, Code: 50001}}
	e = newCronServer(CronConfig{Secret: "s", Report: validReport}, pub, &fakeReminder{})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/daily-report?secret=s", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "error", decodeCron(t, rec).Status)
}

func TestSkippedReportStatus(t *testing.T) {
	pub := &fakePublisher{result: report.Report{ChannelID: "c-1", Mode: report.ModeSkippedWeekend, Content: "skip"}}
	e := newCronServer(CronConfig{Secret: "s", Report: validReport}, pub, &fakeReminder{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/daily-report?secret=s", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "skipped", decodeCron(t, rec).Status)
}
