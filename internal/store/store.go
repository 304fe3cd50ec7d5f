// Package store persists projects in a SQL database. The pure-Go SQLite
// driver serves local use; the pgx driver serves a shared PostgreSQL
// instance. Loaded projects are kept in an LRU cache.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver, registered as "pgx".
	_ "modernc.org/sqlite"             // Pure-Go SQLite driver.

	"github.com/papapumpkin/critpath/internal/project"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// DefaultCacheSize is used when Open gets a non-positive cache size.
const DefaultCacheSize = 64

var (
	// ErrProjectNotFound is returned for an unknown project ID.
	ErrProjectNotFound = errors.New("project not found")
	// ErrUnsupportedDriver is returned by Open for drivers other than
	// sqlite and pgx.
	ErrUnsupportedDriver = errors.New("unsupported store driver")
)

// schema is executed statement by statement on every open.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    exclude_weekends BOOLEAN NOT NULL DEFAULT FALSE,
    exclude_holidays BOOLEAN NOT NULL DEFAULT FALSE,
    max_horizon_days INTEGER NOT NULL DEFAULT 0,
    updated_at       TIMESTAMP NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS tasks (
    project_id TEXT NOT NULL REFERENCES projects(id),
    id         TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    start_date TEXT NOT NULL,
    end_date   TEXT NOT NULL DEFAULT '',
    duration   INTEGER NOT NULL,
    PRIMARY KEY (project_id, id)
)`,
	`CREATE TABLE IF NOT EXISTS task_dependencies (
    project_id TEXT NOT NULL REFERENCES projects(id),
    from_task  TEXT NOT NULL,
    to_task    TEXT NOT NULL,
    dep_type   TEXT NOT NULL,
    lag        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (project_id, from_task, to_task, dep_type, lag)
)`,
	`CREATE TABLE IF NOT EXISTS calendar_holidays (
    project_id TEXT NOT NULL REFERENCES projects(id),
    holiday    TEXT NOT NULL,
    PRIMARY KEY (project_id, holiday)
)`,
}

// Summary is one row of ListProjects.
type Summary struct {
	ID           string
	Name         string
	Tasks        int
	Dependencies int
	UpdatedAt    time.Time
}

// Store is a project repository. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	driver string
	cache  *lru.Cache[string, *project.Project]
}

// Open connects to the database, prepares it for the driver and creates the
// schema if needed.
func Open(ctx context.Context, driver, dsn string, cacheSize int) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	db, err := sql.Open(driver, strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite has a single writer; one connection avoids SQLITE_BUSY
		// between pooled connections.
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("store: %s: %w", pragma, err)
			}
		}
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: create schema: %w", err)
		}
	}

	cache, err := lru.New[string, *project.Project](cacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create cache: %w", err)
	}
	return &Store{db: db, driver: driver, cache: cache}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $N for PostgreSQL.
func (s *Store) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}
