package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tutur3u/discordbot/internal/discord"
)

// MaxContentLength is the ceiling for posted reports, below the platform message limit.
const MaxContentLength = 1800

const topLimit = 10

const (
	skippedWeekendMessage = "🏖️ Weekend detected - daily report skipped. See you Monday!"
	noDataTodayMessage    = "📭 No tracked time recorded today yet. Keep logging those sessions!"
	noDataWeekendMessage  = "📭 No tracked time recorded this weekend or today. Keep logging those sessions!"
)

// FormatDuration renders seconds as 45s, 12m or 3h 5m.
func FormatDuration(seconds int64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("**%d.**", rank)
	}
}

func userLabel(s UserStats) string {
	if s.Member.DiscordUserID != "" {
		return fmt.Sprintf("**%s** (<@%s>)", s.Member.Name(), s.Member.DiscordUserID)
	}
	return fmt.Sprintf("**%s**", s.Member.Name())
}

func footer(generatedAt time.Time) string {
	_, offset := generatedAt.Zone()
	zone := fmt.Sprintf("GMT%+d", offset/3600)
	if offset%3600 != 0 {
		zone = fmt.Sprintf("GMT%+d:%02d", offset/3600, abs(offset%3600)/60)
	}
	return fmt.Sprintf("\n*📅 Generated: %s (%s)*", generatedAt.Format("January 02, 2006 at 15:04"), zone)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// RenderStandard renders the single day leaderboard.
func RenderStandard(stats []UserStats, format Format, day, generatedAt time.Time) string {
	totals := Sum(stats)
	var b strings.Builder
	fmt.Fprintf(&b, "# 📊 **Daily Time Tracking Report** - %s\n\n", day.Format("January 02, 2006"))
	b.WriteString("**📈 Workspace Summary**\n")
	fmt.Fprintf(&b, "🌅 Today: **%s** | 👥 Active: **%d** of **%d**\n", FormatDuration(totals.Today), totals.ActiveToday, len(stats))
	fmt.Fprintf(&b, "🌙 Yesterday: **%s**\n", FormatDuration(totals.Yesterday))
	fmt.Fprintf(&b, "📅 Weekly: **%s** | 📆 Monthly: **%s**\n\n", FormatDuration(totals.Week), FormatDuration(totals.Month))
	b.WriteString("## 🏆 **Top Contributors Today**")

	ranked := RankToday(stats)
	lines := make([]string, 0, len(ranked)*3)
	for i, s := range ranked {
		if i == topLimit {
			break
		}
		lines = append(lines, fmt.Sprintf("%s %s", medal(i+1), userLabel(s)))
		lines = append(lines, fmt.Sprintf("    🌅 **Today:** %s", FormatDuration(s.Today)))
		if format == FormatDetailed {
			lines = append(lines, fmt.Sprintf("    🌙 **Yesterday:** %s | 📅 **Week:** %s | 📆 **Month:** %s",
				FormatDuration(s.Yesterday), FormatDuration(s.Week), FormatDuration(s.Month)))
		}
		lines = append(lines, "")
	}
	if len(ranked) > topLimit {
		lines = append(lines, fmt.Sprintf("*... and %d more contributors*", len(ranked)-topLimit))
	}

	return b.String() + "\n" + strings.Join(lines, "\n") + footer(generatedAt)
}

type combined struct {
	stats   UserStats
	weekend int64
	monday  int64
}

// RenderWeekendSummary renders the Monday report covering Saturday, Sunday and Monday.
func RenderWeekendSummary(monday []UserStats, weekend map[string]WeekendStats, day, generatedAt time.Time) string {
	var weekendTotal int64
	weekendActive := 0
	for _, w := range weekend {
		weekendTotal += w.Total
		if w.Total > 0 {
			weekendActive++
		}
	}
	totals := Sum(monday)

	var b strings.Builder
	fmt.Fprintf(&b, "# 📊 **Weekend + Monday Report** - %s\n\n", day.Format("January 02, 2006"))
	b.WriteString("**🏖️ Weekend Summary (Sat-Sun)**\n")
	fmt.Fprintf(&b, "Total: **%s** | 👥 Active: **%d** of **%d**\n\n", FormatDuration(weekendTotal), weekendActive, len(monday))
	b.WriteString("**📈 Today (Monday)**\n")
	fmt.Fprintf(&b, "🌅 Today: **%s** | 👥 Active: **%d** of **%d**\n\n", FormatDuration(totals.Today), totals.ActiveToday, len(monday))
	b.WriteString("**📊 Cumulative Totals**\n")
	fmt.Fprintf(&b, "📅 Weekly: **%s** | 📆 Monthly: **%s**\n\n", FormatDuration(totals.Week), FormatDuration(totals.Month))
	b.WriteString("## 🏆 **Top Contributors (3-day period)**")

	rows := make([]combined, 0, len(monday))
	for _, s := range monday {
		w := weekend[s.Member.UserID]
		if w.Total+s.Today == 0 {
			continue
		}
		rows = append(rows, combined{stats: s, weekend: w.Total, monday: s.Today})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := rows[i].weekend+rows[i].monday, rows[j].weekend+rows[j].monday
		if ti != tj {
			return ti > tj
		}
		return rows[i].stats.Member.Name() < rows[j].stats.Member.Name()
	})

	lines := make([]string, 0, len(rows)*5)
	for i, row := range rows {
		if i == topLimit {
			break
		}
		lines = append(lines,
			fmt.Sprintf("%s %s", medal(i+1), userLabel(row.stats)),
			fmt.Sprintf("    🏖️ **Weekend:** %s", FormatDuration(row.weekend)),
			fmt.Sprintf("    🌅 **Monday:** %s", FormatDuration(row.monday)),
			fmt.Sprintf("    📊 **3-day Total:** %s", FormatDuration(row.weekend+row.monday)),
			"",
		)
	}
	if len(rows) > topLimit {
		lines = append(lines, fmt.Sprintf("*... and %d more contributors*", len(rows)-topLimit))
	}

	return b.String() + "\n" + strings.Join(lines, "\n") + footer(generatedAt)
}

// Trim fits content into MaxContentLength by dropping whole trailing lines.
func Trim(content string) string {
	return discord.Truncate(content, MaxContentLength)
}
