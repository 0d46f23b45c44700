package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tutur3u/discordbot/internal/app/commands"
	"github.com/tutur3u/discordbot/internal/config"
	"github.com/tutur3u/discordbot/internal/discord"
)

func newRegisterCommand(log *slog.Logger) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "register-commands",
		Short: "Create missing slash commands, or reconcile all of them with --force",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadForTool()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Discord.ClientID == "" {
				return errors.New("DISCORD_CLIENT_ID is not set")
			}

			local := commands.New(commands.Deps{Log: log}).Definitions()
			summary, err := discord.Reconcile(cmd.Context(), newDiscordClient(cfg), log, local, force)
			if errors.Is(err, discord.ErrInvalidToken) {
				return fmt.Errorf("DISCORD_BOT_TOKEN was rejected: %w", err)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created:   %s\n", joinOrDash(summary.Created))
			fmt.Fprintf(out, "updated:   %s\n", joinOrDash(summary.Updated))
			fmt.Fprintf(out, "deleted:   %s\n", joinOrDash(summary.Deleted))
			fmt.Fprintf(out, "unchanged: %s\n", joinOrDash(summary.Unchanged))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "update changed commands and delete commands that no longer exist locally")
	return cmd
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
