package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	// Postgres driver registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	// SQLite driver registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/tutur3u/discordbot/internal/app/ports"
)

var _ ports.Store = (*Database)(nil)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Options selects and configures the backing store.
type Options struct {
	// URL is a postgres:// DSN. When empty the SQLite file at Path is used.
	URL string
	// Path is the SQLite file path without extension.
	Path        string
	AutoMigrate bool
}

// Database is the relational store shared by every handler.
type Database struct {
	db      *sql.DB
	q       dbtx
	dialect dialect
	tracker *queryLatencyTracker
}

// Open connects to Postgres or SQLite and optionally applies embedded migrations.
func Open(ctx context.Context, opts Options) (*Database, error) {
	d := dialectFor(opts.URL)

	dsn := strings.TrimSpace(opts.URL)
	if d.name == sqliteDialect.name {
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			path = "data/discordbot"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		dsn = sqliteDSN(path)
	}

	conn, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if d.name == sqliteDialect.name {
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	tracker := newQueryLatencyTracker()
	database := &Database{
		db:      conn,
		q:       newInstrumentedDBTX(conn, tracker, d),
		dialect: d,
		tracker: tracker,
	}

	if opts.AutoMigrate {
		if err := database.Migrate(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return database, nil
}

// Migrate applies pending embedded migrations for the active dialect.
func (c *Database) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, c.dialect.migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	provider, err := goose.NewProvider(c.dialect.goose, c.db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func sqliteDSN(path string) string {
	values := url.Values{}
	values.Set("_fk", "1")

	values.Add("_pragma", "foreign_keys(ON)")
	values.Add("_pragma", "journal_mode(WAL)")
	values.Add("_pragma", "synchronous(NORMAL)")
	values.Add("_pragma", "busy_timeout(5000)")
	values.Add("_pragma", "temp_store(MEMORY)")

	return fmt.Sprintf("file:%s.sqlite?%s", path, values.Encode())
}

// Dialect returns "sqlite" or "postgres".
func (c *Database) Dialect() string {
	return c.dialect.name
}

// Close closes the underlying database connection.
func (c *Database) Close() error {
	return c.db.Close()
}
