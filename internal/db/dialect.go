package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

const pgUniqueViolation = "23505"

// timeLayout sorts lexically in UTC, which SQLite range filters rely on.
const timeLayout = "2006-01-02T15:04:05.000000Z"

type dialect struct {
	name          string
	driver        string
	system        string
	goose         goose.Dialect
	migrationsDir string
}

var (
	sqliteDialect = dialect{
		name:          "sqlite",
		driver:        "sqlite",
		system:        "sqlite",
		goose:         goose.DialectSQLite3,
		migrationsDir: "migrations/sqlite",
	}
	postgresDialect = dialect{
		name:          "postgres",
		driver:        "pgx",
		system:        "postgresql",
		goose:         goose.DialectPostgres,
		migrationsDir: "migrations/postgres",
	}
)

func dialectFor(databaseURL string) dialect {
	lower := strings.ToLower(strings.TrimSpace(databaseURL))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return postgresDialect
	}
	return sqliteDialect
}

// rebind rewrites ? placeholders to $n for postgres. Quoted literals and comments are left alone.
func (d dialect) rebind(query string) string {
	if d.name != postgresDialect.name || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	inComment := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case inComment:
			if ch == '\n' {
				inComment = false
			}
		case inQuote:
			if ch == '\'' {
				inQuote = false
			}
		case ch == '\'':
			inQuote = true
		case ch == '-' && i+1 < len(query) && query[i+1] == '-':
			inComment = true
		case ch == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func dataErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrDataAccess, err)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05.999999999-07", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
