package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/discord"
	"github.com/tutur3u/discordbot/internal/report"
	"github.com/tutur3u/discordbot/pkg/statsapi"
)

const (
	statsUnauthorizedMessage = "🔒 The time tracking service rejected our credentials. Ask an administrator to check the stats API key."
	statsRateLimitedMessage  = "⏳ The time tracking service is busy right now. Please try again in a minute."
	statsNoDataMessage       = "📭 No time tracking data is available for %s."
)

// statsTarget resolves the optional user option to a platform user in the caller's workspace.
func (s *Set) statsTarget(ctx context.Context, req Request) (userID, label string, err error) {
	raw, ok := req.Interaction.Data.Option("user")
	if !ok || raw == "" {
		return req.Auth.PlatformUserID, req.Auth.DisplayName, nil
	}
	discordID := raw
	if ids := mentionedUserIDs(raw); len(ids) > 0 {
		discordID = ids[0]
	}
	if discordID == req.Auth.DiscordUserID {
		return req.Auth.PlatformUserID, req.Auth.DisplayName, nil
	}

	resolved, err := s.deps.Store.ResolveDiscordUsers(ctx, req.Auth.GuildID, []string{discordID})
	if err != nil {
		return "", "", fmt.Errorf("resolve user: %w", err)
	}
	platformID, ok := resolved[discordID]
	if !ok {
		return "", "", domain.Invalid("user", "that user has not linked a workspace account")
	}
	member, err := s.deps.Store.IsWorkspaceMember(ctx, req.Auth.WorkspaceID, platformID)
	if err != nil {
		return "", "", fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return "", "", domain.Invalid("user", "that user is not a member of your workspace")
	}
	name, err := s.deps.Store.GetUserDisplayName(ctx, platformID)
	if err != nil {
		s.deps.Log.WarnContext(ctx, "display name lookup failed", "user_id", platformID, "error", err)
		name = ""
	}
	if name == "" {
		name = fmt.Sprintf("<@%s>", discordID)
	}
	return platformID, name, nil
}

func (s *Set) stats(ctx context.Context, req Request) (discord.Message, error) {
	userID, label, err := s.statsTarget(ctx, req)
	if err != nil {
		return discord.Message{}, err
	}
	now := s.deps.Now().In(s.deps.Location)

	var stats report.UserStats
	if s.deps.Stats != nil && s.deps.Stats.Enabled() {
		result, err := s.deps.Stats.Fetch(ctx, req.Auth.WorkspaceID, userID, now)
		if err != nil {
			return discord.Message{}, fmt.Errorf("fetch stats: %w", err)
		}
		switch result.Status {
		case statsapi.StatusUnauthorized:
			return discord.Text(statsUnauthorizedMessage), nil
		case statsapi.StatusRateLimited:
			return discord.Text(statsRateLimitedMessage), nil
		case statsapi.StatusNoData:
			return discord.Text(fmt.Sprintf(statsNoDataMessage, label)), nil
		}
		stats = report.UserStats{
			Today:     result.Stats.TodayTime,
			Yesterday: result.Stats.YesterdayTime,
			Week:      result.Stats.WeekTime,
			Month:     result.Stats.MonthTime,
		}
	} else {
		stats, err = s.deps.Reports.UserDayStats(ctx, req.Auth.WorkspaceID, userID, now, s.deps.Location)
		if err != nil {
			return discord.Message{}, fmt.Errorf("user stats: %w", err)
		}
	}

	lines := []string{
		fmt.Sprintf("⏱️ **Time tracked by %s**", label),
		"**Today:** " + report.FormatDuration(stats.Today),
		"**Yesterday:** " + report.FormatDuration(stats.Yesterday),
		"**This week:** " + report.FormatDuration(stats.Week),
		"**This month:** " + report.FormatDuration(stats.Month),
	}
	return discord.Message{Content: strings.Join(lines, "\n"), AllowedMentions: discord.NoMentions()}, nil
}

func (s *Set) dailyReport(ctx context.Context, req Request) (discord.Message, error) {
	rep, err := s.deps.Reports.Build(ctx, report.Config{
		WorkspaceID: req.Auth.WorkspaceID,
		Format:      s.deps.ReportFormat,
		Location:    s.deps.Location,
	}, s.deps.Now())
	if err != nil {
		return discord.Message{}, fmt.Errorf("build report: %w", err)
	}
	return discord.Message{Content: rep.Content, AllowedMentions: discord.NoMentions()}, nil
}
