package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/tutur3u/discordbot/internal/config"
	"github.com/tutur3u/discordbot/internal/db"
	"github.com/tutur3u/discordbot/internal/discord"
	"github.com/tutur3u/discordbot/internal/observability"
	"github.com/tutur3u/discordbot/internal/report"
	"github.com/tutur3u/discordbot/pkg/statsapi"
)

const outboundTimeout = 10 * time.Second

func openDatabase(ctx context.Context, cfg config.Config) (*db.Database, error) {
	database, err := db.Open(ctx, db.Options{
		URL:         cfg.Database.URL,
		Path:        cfg.Database.Path,
		AutoMigrate: cfg.Database.AutoMigrate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

func newDiscordClient(cfg config.Config) discord.Client {
	return discord.Client{
		BaseURL:       cfg.Discord.APIBaseURL,
		ApplicationID: cfg.Discord.ClientID,
		BotToken:      cfg.Discord.BotToken,
		HTTPClient:    observability.NewHTTPClient(outboundTimeout),
	}
}

func newStatsClient(cfg config.Config, log *slog.Logger) statsapi.Client {
	var limiter *rate.Limiter
	if cfg.StatsAPI.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.StatsAPI.RatePerSec), 1)
	}
	return statsapi.Client{
		BaseURL:     cfg.StatsAPI.BaseURL,
		APIKey:      cfg.StatsAPI.APIKey,
		HTTPClient:  observability.NewHTTPClient(outboundTimeout),
		MaxAttempts: cfg.StatsAPI.MaxAttempts,
		BaseDelay:   cfg.StatsAPI.BaseDelay,
		Limiter:     limiter,
		OnRetry: func(attempt int, delay time.Duration) {
			log.Warn("stats api retry scheduled", "attempt", attempt, "delay_ms", delay.Milliseconds())
		},
	}
}

func newReportService(database *db.Database, stats statsapi.Client, poster report.Poster, log *slog.Logger) *report.Service {
	return &report.Service{
		Store:  database,
		Stats:  stats,
		Poster: poster,
		Log:    log,
	}
}

func reminderConfig(cfg config.Config) report.ReminderConfig {
	return report.ReminderConfig{
		ChannelID:    cfg.Discord.AnnouncementChannel,
		RoleID:       cfg.Reminder.RoleID,
		SkipWeekends: report.ParseSkipWeekends(cfg.Report.SkipWeekends),
		Location:     report.LoadLocation(cfg.Report.Timezone),
	}
}
