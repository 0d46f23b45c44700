package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tutur3u/discordbot/internal/config"
)

func newMigrateCommand(log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.LoadForTool()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.Database.AutoMigrate = false
			database, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.Migrate(ctx); err != nil {
				return err
			}
			log.Info("migrations applied", "dialect", database.Dialect())
			return nil
		},
	}
}
