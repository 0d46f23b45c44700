package routes

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/config"
	"github.com/tutur3u/discordbot/internal/discord"
	"github.com/tutur3u/discordbot/internal/report"
)

const (
	// CronSecretHeader carries the cron secret when a bearer token is not used.
	CronSecretHeader = "X-Cron-Secret"
	// BearerPrefix prefixes the auth token.
	BearerPrefix = "Bearer "

	previewLength = 200
)

// ReportPublisher builds and posts the daily report.
type ReportPublisher interface {
	Publish(ctx context.Context, cfg report.Config, at time.Time, dryRun bool) (report.Report, error)
}

// ReminderSender posts the Working Out Loud reminder.
type ReminderSender interface {
	Send(ctx context.Context, cfg report.ReminderConfig, at time.Time) (report.Report, error)
}

type CronConfig struct {
	Secret   string
	Report   config.ReportConfig
	Reminder report.ReminderConfig
}

// CronRoutes registers the scheduler-triggered endpoints.
type CronRoutes struct {
	cfg      CronConfig
	reports  ReportPublisher
	reminder ReminderSender
	log      *slog.Logger
	now      func() time.Time
}

// NewCronRoutes constructs cron routes.
func NewCronRoutes(cfg CronConfig, reports ReportPublisher, reminder ReminderSender, log *slog.Logger) *CronRoutes {
	if log == nil {
		log = slog.Default()
	}
	return &CronRoutes{cfg: cfg, reports: reports, reminder: reminder, log: log, now: time.Now}
}

// RegisterRoutes registers cron endpoints.
func (r *CronRoutes) RegisterRoutes(s *echo.Echo) {
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		s.Add(method, "/wol-reminder", r.handleReminder, r.requireSecret)
		s.Add(method, "/daily-report", r.handleDailyReport, r.requireSecret)
	}
}

type cronResponse struct {
	Status         string `json:"status"`
	ChannelID      string `json:"channel_id,omitempty"`
	ContentPreview string `json:"content_preview,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (r *CronRoutes) requireSecret(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if r.cfg.Secret == "" {
			r.log.ErrorContext(c.Request().Context(), "cron endpoint called without CRON_SECRET configured")
			return c.JSON(http.StatusInternalServerError, cronResponse{Status: "error", Error: "CRON_SECRET is not set"})
		}
		provided := cronSecret(c.Request())
		if subtle.ConstantTimeCompare([]byte(provided), []byte(r.cfg.Secret)) != 1 {
			return c.JSON(http.StatusUnauthorized, cronResponse{Status: "error", Error: "unauthorized"})
		}
		return next(c)
	}
}

func cronSecret(req *http.Request) string {
	if value := strings.TrimSpace(req.Header.Get(echo.HeaderAuthorization)); strings.HasPrefix(value, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(value, BearerPrefix))
	}
	if value := strings.TrimSpace(req.Header.Get(CronSecretHeader)); value != "" {
		return value
	}
	return strings.TrimSpace(req.URL.Query().Get("secret"))
}

func (r *CronRoutes) handleReminder(c echo.Context) error {
	ctx := c.Request().Context()
	result, err := r.reminder.Send(ctx, r.cfg.Reminder, r.now())
	if err != nil {
		return r.fail(c, "wol reminder failed", err)
	}
	return c.JSON(http.StatusOK, r.success(result, false))
}

func (r *CronRoutes) handleDailyReport(c echo.Context) error {
	ctx := c.Request().Context()
	cfg, err := report.NewConfig(r.cfg.Report)
	if err != nil {
		return r.fail(c, "daily report misconfigured", err)
	}

	at := r.now()
	if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
		day, err := time.ParseInLocation(time.DateOnly, raw, cfg.Location)
		if err != nil {
			return c.JSON(http.StatusBadRequest, cronResponse{Status: "error", Error: "date must use the YYYY-MM-DD format"})
		}
		at = day.Add(12 * time.Hour)
	}
	dryRun, _ := strconv.ParseBool(c.QueryParam("dry_run"))

	result, err := r.reports.Publish(ctx, cfg, at, dryRun)
	if err != nil {
		return r.fail(c, "daily report failed", err)
	}
	return c.JSON(http.StatusOK, r.success(result, dryRun))
}

func (r *CronRoutes) success(result report.Report, dryRun bool) cronResponse {
	status := "sent"
	switch {
	case result.Mode == report.ModeSkippedWeekend:
		status = "skipped"
	case dryRun:
		status = "dry-run"
	}
	return cronResponse{
		Status:         status,
		ChannelID:      result.ChannelID,
		ContentPreview: discord.Truncate(result.Content, previewLength),
		Mode:           string(result.Mode),
	}
}

func (r *CronRoutes) fail(c echo.Context, msg string, err error) error {
	r.log.ErrorContext(c.Request().Context(), msg, "error", err)
	var apiErr *discord.APIError
	switch {
	case errors.Is(err, domain.ErrServerConfiguration):
		return c.JSON(http.StatusInternalServerError, cronResponse{Status: "error", Error: err.Error()})
	case errors.As(err, &apiErr):
		return c.JSON(http.StatusBadGateway, cronResponse{Status: "error", Error: apiErr.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, cronResponse{Status: "error", Error: "internal error"})
	}
}
