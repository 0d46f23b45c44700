package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tutur3u/discordbot/internal/config"
	"github.com/tutur3u/discordbot/internal/report"
)

func newReportCommand(log *slog.Logger) *cobra.Command {
	var (
		date   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build and post the daily time tracking report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.LoadForTool()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			reportCfg, err := report.NewConfig(cfg.Report)
			if err != nil {
				return err
			}

			at := time.Now()
			if date = strings.TrimSpace(date); date != "" {
				day, err := time.ParseInLocation(time.DateOnly, date, reportCfg.Location)
				if err != nil {
					return fmt.Errorf("--date must use the YYYY-MM-DD format: %w", err)
				}
				at = day.Add(12 * time.Hour)
			}

			database, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			service := newReportService(database, newStatsClient(cfg, log), newDiscordClient(cfg), log)
			result, err := service.Publish(ctx, reportCfg, at, dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mode: %s\nchannel: %s\n\n%s\n", result.Mode, result.ChannelID, result.Content)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "report day as YYYY-MM-DD in the report timezone (default today)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the report without posting it")
	return cmd
}
