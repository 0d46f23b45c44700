package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/discord"
	"github.com/tutur3u/discordbot/pkg/statsapi"
)

type Mode string

const (
	ModeSkippedWeekend Mode = "skipped-weekend"
	ModeNoData         Mode = "no-data"
	ModeStandard       Mode = "standard"
	ModeWeekendSummary Mode = "weekend-summary"
)

// Store is the read side the report needs.
type Store interface {
	ListSessions(ctx context.Context, workspaceID string, since, until time.Time) ([]domain.Session, error)
	ListWorkspaceMembers(ctx context.Context, workspaceID string) ([]domain.Member, error)
}

// StatsFetcher is the per-user stats API used when sessions cannot be read.
type StatsFetcher interface {
	Enabled() bool
	Fetch(ctx context.Context, workspaceID, userID string, date time.Time) (statsapi.Result, error)
}

// Poster posts a message to a channel.
type Poster interface {
	SendChannelMessage(ctx context.Context, channelID string, msg discord.Message) (discord.MessageRef, error)
}

// Report is a rendered report and where it goes.
type Report struct {
	ChannelID   string
	WorkspaceID string
	Mode        Mode
	Content     string
}

type Service struct {
	Store  Store
	Stats  StatsFetcher
	Poster Poster
	Log    *slog.Logger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// DayStats aggregates every member's buckets for the day containing at.
func (s *Service) DayStats(ctx context.Context, workspaceID string, at time.Time, loc *time.Location) ([]UserStats, error) {
	members, err := s.Store.ListWorkspaceMembers(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	b := ComputeBoundaries(at, loc)
	sessions, err := s.Store.ListSessions(ctx, workspaceID, b.FetchStart(), b.DayEnd)
	if err != nil {
		if s.Stats == nil || !s.Stats.Enabled() {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		s.logger().WarnContext(ctx, "session read failed, using stats api", "workspace_id", workspaceID, "error", err)
		return s.fetchFromAPI(ctx, workspaceID, members, at)
	}
	return Aggregate(sessions, members, b, s.now()), nil
}

func (s *Service) fetchFromAPI(ctx context.Context, workspaceID string, members []domain.Member, at time.Time) ([]UserStats, error) {
	out := make([]UserStats, 0, len(members))
	for _, m := range members {
		result, err := s.Stats.Fetch(ctx, workspaceID, m.UserID, at)
		if err != nil {
			return nil, fmt.Errorf("fetch stats for %s: %w", m.UserID, err)
		}
		switch result.Status {
		case statsapi.StatusOK:
			out = append(out, UserStats{
				Member:    m,
				Today:     result.Stats.TodayTime,
				Yesterday: result.Stats.YesterdayTime,
				Week:      result.Stats.WeekTime,
				Month:     result.Stats.MonthTime,
			})
		case statsapi.StatusUnauthorized:
			return nil, fmt.Errorf("%w: stats api rejected credentials", domain.ErrServerConfiguration)
		default:
			s.logger().WarnContext(ctx, "stats api returned no data", "user_id", m.UserID, "status", result.Status.String())
			out = append(out, UserStats{Member: m})
		}
	}
	return out, nil
}

// UserDayStats returns one user's buckets. A user without sessions gets zeros.
func (s *Service) UserDayStats(ctx context.Context, workspaceID, userID string, at time.Time, loc *time.Location) (UserStats, error) {
	stats, err := s.DayStats(ctx, workspaceID, at, loc)
	if err != nil {
		return UserStats{}, err
	}
	for _, row := range stats {
		if row.Member.UserID == userID {
			return row, nil
		}
	}
	return UserStats{Member: domain.Member{UserID: userID}}, nil
}

// Build renders the report for the day containing at without posting it.
func (s *Service) Build(ctx context.Context, cfg Config, at time.Time) (Report, error) {
	local := at.In(cfg.Location)
	out := Report{ChannelID: cfg.ChannelID, WorkspaceID: cfg.WorkspaceID}

	if cfg.SkipWeekends && isWeekend(local) {
		out.Mode = ModeSkippedWeekend
		out.Content = skippedWeekendMessage
		return out, nil
	}

	if local.Weekday() == time.Monday {
		report, err := s.buildMonday(ctx, cfg, local)
		if err == nil {
			return report, nil
		}
		s.logger().WarnContext(ctx, "weekend summary failed, falling back to standard report", "error", err)
	}

	stats, err := s.DayStats(ctx, cfg.WorkspaceID, local, cfg.Location)
	if err != nil {
		return Report{}, err
	}
	if !HasActivityToday(stats) {
		out.Mode = ModeNoData
		out.Content = noDataTodayMessage
		return out, nil
	}
	out.Mode = ModeStandard
	out.Content = Trim(RenderStandard(stats, cfg.Format, local, s.now().In(cfg.Location)))
	return out, nil
}

func (s *Service) buildMonday(ctx context.Context, cfg Config, monday time.Time) (Report, error) {
	days := []time.Time{monday.AddDate(0, 0, -2), monday.AddDate(0, 0, -1), monday}
	results := make([][]UserStats, len(days))

	p := pool.New().WithErrors().WithContext(ctx)
	for i, day := range days {
		p.Go(func(ctx context.Context) error {
			stats, err := s.DayStats(ctx, cfg.WorkspaceID, day, cfg.Location)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", day.Format(time.DateOnly), err)
			}
			results[i] = stats
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return Report{}, err
	}

	saturday, sunday, mondayStats := results[0], results[1], results[2]
	out := Report{ChannelID: cfg.ChannelID, WorkspaceID: cfg.WorkspaceID}
	if !HasActivityToday(saturday) && !HasActivityToday(sunday) && !HasActivityToday(mondayStats) {
		out.Mode = ModeNoData
		out.Content = noDataWeekendMessage
		return out, nil
	}

	weekend := MergeWeekend(saturday, sunday)
	out.Mode = ModeWeekendSummary
	out.Content = Trim(RenderWeekendSummary(mondayStats, weekend, monday, s.now().In(cfg.Location)))
	return out, nil
}

// Publish builds the report and posts it with mentions disabled. Skipped reports are not posted.
func (s *Service) Publish(ctx context.Context, cfg Config, at time.Time, dryRun bool) (Report, error) {
	report, err := s.Build(ctx, cfg, at)
	if err != nil {
		return Report{}, err
	}
	if report.Mode == ModeSkippedWeekend || dryRun {
		return report, nil
	}
	if s.Poster == nil {
		return Report{}, errors.New("report poster is not configured")
	}
	msg := discord.Message{Content: report.Content, AllowedMentions: discord.NoMentions()}
	if _, err := s.Poster.SendChannelMessage(ctx, cfg.ChannelID, msg); err != nil {
		return Report{}, fmt.Errorf("post report: %w", err)
	}
	s.logger().InfoContext(ctx, "daily report posted", "channel_id", cfg.ChannelID, "workspace_id", cfg.WorkspaceID, "mode", string(report.Mode))
	return report, nil
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}
