package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tutur3u/discordbot/internal/observability"
)

func main() {
	baseHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	log := slog.New(observability.WrapSlogHandler(baseHandler))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	root := &cobra.Command{
		Use:           "discordbot",
		Short:         "Workspace companion bot for Discord",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(log),
		newRegisterCommand(log),
		newReportCommand(log),
		newMigrateCommand(log),
	)

	if err := root.Execute(); err != nil {
		slog.Error("discordbot exited", "error", err)
		os.Exit(1)
	}
}
