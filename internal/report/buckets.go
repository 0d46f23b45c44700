package report

import (
	"sort"
	"time"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

// Boundaries are the bucket edges for one report day, all in the report zone.
// Every bucket is half open and ends at DayEnd.
type Boundaries struct {
	DayStart       time.Time
	DayEnd         time.Time
	YesterdayStart time.Time
	WeekStart      time.Time
	MonthStart     time.Time
}

// ComputeBoundaries returns the edges of the day containing at. Weeks start on Monday.
func ComputeBoundaries(at time.Time, loc *time.Location) Boundaries {
	if loc == nil {
		loc = time.UTC
	}
	local := at.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	offset := (int(dayStart.Weekday()) + 6) % 7
	return Boundaries{
		DayStart:       dayStart,
		DayEnd:         dayStart.AddDate(0, 0, 1),
		YesterdayStart: dayStart.AddDate(0, 0, -1),
		WeekStart:      dayStart.AddDate(0, 0, -offset),
		MonthStart:     time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc),
	}
}

// FetchStart is the earliest instant any bucket covers.
func (b Boundaries) FetchStart() time.Time {
	start := b.MonthStart
	for _, t := range []time.Time{b.WeekStart, b.YesterdayStart} {
		if t.Before(start) {
			start = t
		}
	}
	return start
}

// UserStats is the per-user bucket total in seconds.
type UserStats struct {
	Member    domain.Member
	Today     int64
	Yesterday int64
	Week      int64
	Month     int64
}

// SessionSeconds is the tracked length of a session. Running sessions are counted up to
// min(now, dayEnd). The result is never negative.
func SessionSeconds(s domain.Session, now, dayEnd time.Time) int64 {
	var seconds int64
	switch {
	case s.DurationSeconds != nil:
		seconds = *s.DurationSeconds
	case s.EndTime != nil:
		seconds = int64(s.EndTime.Sub(s.StartTime) / time.Second)
	case s.Running:
		until := now
		if dayEnd.Before(until) {
			until = dayEnd
		}
		seconds = int64(until.Sub(s.StartTime) / time.Second)
	}
	if seconds < 0 {
		return 0
	}
	return seconds
}

// Aggregate buckets sessions by start time. Each bucket is checked independently, so one
// session can count toward today, week and month at once. Every member gets a row; sessions
// of unknown users get a row keyed by user id.
func Aggregate(sessions []domain.Session, members []domain.Member, b Boundaries, now time.Time) []UserStats {
	rows := make(map[string]*UserStats, len(members))
	order := make([]string, 0, len(members))
	for _, m := range members {
		if _, ok := rows[m.UserID]; ok {
			continue
		}
		rows[m.UserID] = &UserStats{Member: m}
		order = append(order, m.UserID)
	}

	for _, s := range sessions {
		row, ok := rows[s.UserID]
		if !ok {
			row = &UserStats{Member: domain.Member{UserID: s.UserID}}
			rows[s.UserID] = row
			order = append(order, s.UserID)
		}
		seconds := SessionSeconds(s, now, b.DayEnd)
		start := s.StartTime
		if within(start, b.DayStart, b.DayEnd) {
			row.Today += seconds
		}
		if within(start, b.YesterdayStart, b.DayStart) {
			row.Yesterday += seconds
		}
		if within(start, b.WeekStart, b.DayEnd) {
			row.Week += seconds
		}
		if within(start, b.MonthStart, b.DayEnd) {
			row.Month += seconds
		}
	}

	out := make([]UserStats, 0, len(order))
	for _, id := range order {
		out = append(out, *rows[id])
	}
	return out
}

func within(t, from, until time.Time) bool {
	return !t.Before(from) && t.Before(until)
}

// Totals sums every bucket across users.
type Totals struct {
	Today, Yesterday, Week, Month int64
	ActiveToday                   int
}

func Sum(stats []UserStats) Totals {
	var t Totals
	for _, s := range stats {
		t.Today += s.Today
		t.Yesterday += s.Yesterday
		t.Week += s.Week
		t.Month += s.Month
		if s.Today > 0 {
			t.ActiveToday++
		}
	}
	return t
}

// HasActivityToday reports whether any user tracked time in the today bucket.
func HasActivityToday(stats []UserStats) bool {
	for _, s := range stats {
		if s.Today > 0 {
			return true
		}
	}
	return false
}

// RankToday returns users with time today, most first, ties by name.
func RankToday(stats []UserStats) []UserStats {
	ranked := make([]UserStats, 0, len(stats))
	for _, s := range stats {
		if s.Today > 0 {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Today != ranked[j].Today {
			return ranked[i].Today > ranked[j].Today
		}
		return ranked[i].Member.Name() < ranked[j].Member.Name()
	})
	return ranked
}

// WeekendStats is one user's Saturday and Sunday time.
type WeekendStats struct {
	Saturday int64
	Sunday   int64
	Total    int64
}

// MergeWeekend keys Saturday and Sunday today-buckets by platform user id.
func MergeWeekend(saturday, sunday []UserStats) map[string]WeekendStats {
	out := make(map[string]WeekendStats, len(saturday))
	for _, s := range saturday {
		if s.Member.UserID == "" {
			continue
		}
		out[s.Member.UserID] = WeekendStats{Saturday: s.Today, Total: s.Today}
	}
	for _, s := range sunday {
		if s.Member.UserID == "" {
			continue
		}
		w := out[s.Member.UserID]
		w.Sunday = s.Today
		w.Total += s.Today
		out[s.Member.UserID] = w
	}
	return out
}
