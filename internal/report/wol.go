package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/discord"
)

const (
	ModeRole       Mode = "role"
	ModeEveryone   Mode = "everyone"
	ModeNoMentions Mode = "no-mentions"
)

// ReminderConfig targets the Working Out Loud reminder.
type ReminderConfig struct {
	ChannelID    string
	RoleID       string
	SkipWeekends bool
	Location     *time.Location
}

// Reminder posts the Working Out Loud prompt.
type Reminder struct {
	Poster Poster
	Log    *slog.Logger
}

func reminderContent(mention string) string {
	return fmt.Sprintf("📣 %s it's time to **Work Out Loud**!\nShare what you are working on today and where you could use a hand.", mention)
}

// Send posts the reminder. When the bot may not mention, it retries once with mentions disabled.
func (r Reminder) Send(ctx context.Context, cfg ReminderConfig, at time.Time) (Report, error) {
	channel := strings.TrimSpace(cfg.ChannelID)
	if channel == "" {
		return Report{}, fmt.Errorf("%w: DISCORD_ANNOUNCEMENT_CHANNEL is not set", domain.ErrServerConfiguration)
	}
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	loc := cfg.Location
	if loc == nil {
		loc = LoadLocation("")
	}
	if cfg.SkipWeekends && isWeekend(at.In(loc)) {
		return Report{ChannelID: channel, Mode: ModeSkippedWeekend, Content: skippedWeekendMessage}, nil
	}

	msg := discord.Message{Content: reminderContent("@everyone"), AllowedMentions: &discord.AllowedMentions{Parse: []string{"everyone"}}}
	mode := ModeEveryone
	if roleID := strings.TrimSpace(cfg.RoleID); roleID != "" {
		msg = discord.Message{
			Content:         reminderContent(fmt.Sprintf("<@&%s>", roleID)),
			AllowedMentions: &discord.AllowedMentions{Parse: []string{}, Roles: []string{roleID}},
		}
		mode = ModeRole
	}

	_, err := r.Poster.SendChannelMessage(ctx, channel, msg)
	if errors.Is(err, discord.ErrMissingPermissions) {
		log.WarnContext(ctx, "reminder mention rejected, retrying without mentions", "channel_id", channel, "error", err)
		msg.AllowedMentions = discord.NoMentions()
		mode = ModeNoMentions
		_, err = r.Poster.SendChannelMessage(ctx, channel, msg)
	}
	if err != nil {
		return Report{}, fmt.Errorf("post reminder: %w", err)
	}
	log.InfoContext(ctx, "reminder posted", "channel_id", channel, "mode", string(mode))
	return Report{ChannelID: channel, Mode: mode, Content: msg.Content}, nil
}
