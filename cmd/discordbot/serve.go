package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tutur3u/discordbot/internal/app/authz"
	"github.com/tutur3u/discordbot/internal/app/commands"
	"github.com/tutur3u/discordbot/internal/app/dispatch"
	"github.com/tutur3u/discordbot/internal/config"
	"github.com/tutur3u/discordbot/internal/db"
	"github.com/tutur3u/discordbot/internal/discord"
	"github.com/tutur3u/discordbot/internal/interactions"
	"github.com/tutur3u/discordbot/internal/observability"
	"github.com/tutur3u/discordbot/internal/report"
	"github.com/tutur3u/discordbot/internal/server"
	"github.com/tutur3u/discordbot/internal/server/routes"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the interactions webhook and cron endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), log)
		},
	}
}

func serve(ctx context.Context, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Discord.PublicKey == "" {
		slog.Warn("DISCORD_PUBLIC_KEY not set, every interaction will be rejected")
	}

	shutdownTelemetry, err := observability.SetupOpenTelemetry(ctx, log, observability.OpenTelemetryConfig{
		Enabled:           cfg.Observability.Enabled,
		ApplicationID:     cfg.Discord.ClientID,
		OTLPEndpoint:      cfg.Observability.OTLPEndpoint,
		OTLPTraceHeaders:  cfg.Observability.OTLPTraceHeaders,
		OTLPMetricHeaders: cfg.Observability.OTLPMetricHeaders,
		ServiceName:       cfg.Observability.ServiceName,
		ServiceVer:        cfg.Observability.ServiceVer,
		SamplingRatio:     cfg.Observability.SamplingRatio,
		MetricsConsole:    cfg.Observability.MetricsConsole,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			slog.Error("Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()
	if cfg.Database.LogTiming {
		go logDBLatencyStats(ctx, log, database)
	}

	client := newDiscordClient(cfg)
	stats := newStatsClient(cfg, log)
	reports := newReportService(database, stats, client, log)
	dispatcher := dispatch.New(client, log)

	cmds := commands.New(commands.Deps{
		Store:            database,
		Reports:          reports,
		Stats:            stats,
		ReportFormat:     report.ParseFormat(cfg.Report.Format),
		Location:         report.LoadLocation(cfg.Report.Timezone),
		ShortenerBaseURL: cfg.Shortener.BaseURL,
		ShortenTimeout:   cfg.Shortener.Timeout,
		Log:              log,
	})
	router := interactions.NewRouter(authz.NewGate(database, log), dispatcher, cmds, log)

	srv := server.New(log, cfg.Observability.ServiceName)
	srv.RegisterRouter(routes.NewInteractionRoutes(discord.NewVerifier(cfg.Discord.PublicKey), router, log))
	srv.RegisterRouter(routes.NewCronRoutes(routes.CronConfig{
		Secret:   cfg.Cron.Secret,
		Report:   cfg.Report,
		Reminder: reminderConfig(cfg),
	}, reports, report.Reminder{Poster: client, Log: log}, log))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.Server.Port, "dialect", database.Dialect())
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shutdown server", "error", err)
	}
	dispatcher.Wait()
	return nil
}

func logDBLatencyStats(ctx context.Context, log *slog.Logger, database *db.Database) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		stats := database.QueryLatencyStats()
		limit := min(5, len(stats))
		for index := 0; index < limit; index++ {
			entry := stats[index]
			log.Info("db_query_latency",
				"query", entry.Name,
				"count", entry.Count,
				"p50_ms", entry.P50.Milliseconds(),
				"p95_ms", entry.P95.Milliseconds(),
				"max_ms", entry.Max.Milliseconds(),
			)
		}
	}
}
