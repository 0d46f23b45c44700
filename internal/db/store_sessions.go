package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

const listSessions = `-- name: ListSessions :many
SELECT user_id, start_time, end_time, duration_seconds, is_running
FROM time_tracking_sessions
WHERE ws_id = ? AND start_time >= ? AND start_time < ?
ORDER BY start_time ASC`

// ListSessions returns sessions of a workspace that started in [since, until).
func (c *Database) ListSessions(ctx context.Context, workspaceID string, since, until time.Time) ([]domain.Session, error) {
	rows, err := c.q.QueryContext(ctx, listSessions, workspaceID, formatTime(since), formatTime(until))
	if err != nil {
		return nil, dataErr("list sessions", err)
	}
	defer rows.Close()

	out := make([]domain.Session, 0)
	for rows.Next() {
		var (
			s        domain.Session
			start    string
			end      sql.NullString
			duration sql.NullInt64
		)
		if err := rows.Scan(&s.UserID, &start, &end, &duration, &s.Running); err != nil {
			return nil, dataErr("scan session", err)
		}
		if s.StartTime, err = parseTime(start); err != nil {
			return nil, dataErr("parse session start", err)
		}
		if end.Valid && end.String != "" {
			endTime, err := parseTime(end.String)
			if err != nil {
				return nil, dataErr("parse session end", err)
			}
			s.EndTime = &endTime
		}
		if duration.Valid {
			seconds := duration.Int64
			s.DurationSeconds = &seconds
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, dataErr("list sessions", err)
	}
	return out, nil
}
