// Package storage implements the persistent store for projects, branches,
// tasks, subtasks, agents, and hierarchical contexts.
//
// It runs on database/sql with two interchangeable backends: SQLite
// (modernc.org/sqlite, the default, zero external services) and
// PostgreSQL (jackc/pgx stdlib driver, selected by a postgres:// URL).
// All SQL is written once in the portable subset both engines accept;
// placeholders use ? and are rebound to $N for PostgreSQL.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// now returns the canonical timestamp format for stored rows.
func now() string {
	return timeNow().UTC().Format(time.RFC3339)
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Dialect identifies the SQL backend in use.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// Config holds storage configuration.
type Config struct {
	// URL is either a postgres:// connection string or a SQLite file path.
	URL string

	// MaxSearchResults caps search and list queries without an explicit limit.
	MaxSearchResults int
}

// DefaultConfig returns the default configuration: a SQLite database
// under the user's home directory.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		URL:              filepath.Join(home, ".agenthub", "agenthub.db"),
		MaxSearchResults: 100,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent task store backed by SQLite or PostgreSQL.
type Store struct {
	db      *sql.DB
	dialect Dialect
	cfg     Config
}

// Open connects to the database described by cfg, creates the SQLite
// data directory if needed, and runs migrations.
func Open(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		cfg = DefaultConfig()
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 100
	}

	driver := "sqlite"
	dialect := DialectSQLite
	if strings.HasPrefix(cfg.URL, "postgres://") || strings.HasPrefix(cfg.URL, "postgresql://") {
		driver = "pgx"
		dialect = DialectPostgres
	}

	if dialect == DialectSQLite && cfg.URL != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.URL), 0700); err != nil {
			return nil, fmt.Errorf("storage: create data dir: %w", err)
		}
	}

	db, err := openDB(driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	if dialect == DialectSQLite {
		// SQLite performance pragmas
		pragmas := []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA synchronous = NORMAL",
			"PRAGMA foreign_keys = ON",
		}
		for _, p := range pragmas {
			if _, err := db.Exec(p); err != nil {
				return nil, fmt.Errorf("storage: pragma %q: %w", p, err)
			}
		}
	}

	s := &Store{db: db, dialect: dialect, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("storage: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// rebind converts ? placeholders to $N for PostgreSQL. SQL in this
// package never contains a literal question mark, so a plain scan is
// sufficient.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(s.rebind(query), args...)
}

func (s *Store) query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(s.rebind(query), args...)
}

func (s *Store) queryRow(query string, args ...any) *sql.Row {
	return s.db.QueryRow(s.rebind(query), args...)
}

// placeholders returns "?, ?, ..." with n slots, for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// ─── Migrations ──────────────────────────────────────────────────────────────

// migrate creates the schema. DDL sticks to the portable subset: TEXT
// ids and timestamps, no engine-specific defaults, idempotent CREATE
// IF NOT EXISTS so existing databases upgrade without data loss.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL,
			user_id     TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS branches (
			id                TEXT PRIMARY KEY,
			project_id        TEXT NOT NULL,
			name              TEXT NOT NULL,
			description       TEXT NOT NULL,
			assigned_agent_id TEXT,
			status            TEXT NOT NULL,
			priority          TEXT NOT NULL,
			created_at        TEXT NOT NULL,
			updated_at        TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id                 TEXT PRIMARY KEY,
			git_branch_id      TEXT NOT NULL,
			title              TEXT NOT NULL,
			description        TEXT NOT NULL,
			status             TEXT NOT NULL,
			priority           TEXT NOT NULL,
			details            TEXT NOT NULL,
			estimated_effort   TEXT NOT NULL,
			assignees          TEXT NOT NULL,
			labels             TEXT NOT NULL,
			dependencies       TEXT NOT NULL,
			completion_summary TEXT NOT NULL,
			testing_notes      TEXT NOT NULL,
			due_date           TEXT,
			created_at         TEXT NOT NULL,
			updated_at         TEXT NOT NULL,
			completed_at       TEXT
		);

		CREATE TABLE IF NOT EXISTS subtasks (
			id                  TEXT PRIMARY KEY,
			task_id             TEXT NOT NULL,
			title               TEXT NOT NULL,
			description         TEXT NOT NULL,
			status              TEXT NOT NULL,
			priority            TEXT NOT NULL,
			assignees           TEXT NOT NULL,
			progress_notes      TEXT NOT NULL,
			progress_percentage INTEGER NOT NULL,
			completion_summary  TEXT NOT NULL,
			created_at          TEXT NOT NULL,
			updated_at          TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS agents (
			id          TEXT PRIMARY KEY,
			project_id  TEXT NOT NULL,
			name        TEXT NOT NULL,
			call_name   TEXT NOT NULL,
			category    TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS contexts (
			level      TEXT NOT NULL,
			context_id TEXT NOT NULL,
			data       TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (level, context_id)
		);
	`
	// Engines disagree on multi-statement Exec; run statements one by one.
	for _, stmt := range splitStatements(schema) {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	indexes := `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_branches_project_name ON branches(project_id, name);
		CREATE INDEX IF NOT EXISTS idx_branches_project  ON branches(project_id);
		CREATE INDEX IF NOT EXISTS idx_branches_agent    ON branches(assigned_agent_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_branch      ON tasks(git_branch_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_status      ON tasks(status);
		CREATE INDEX IF NOT EXISTS idx_subtasks_task     ON subtasks(task_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_project_call ON agents(project_id, call_name);
	`
	for _, stmt := range splitStatements(indexes) {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create indexes: %w", err)
		}
	}

	return nil
}

// splitStatements breaks a multi-statement DDL block into single
// statements, dropping empty fragments.
func splitStatements(block string) []string {
	parts := strings.Split(block, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ─── Counts ──────────────────────────────────────────────────────────────────

// Counts holds row totals per entity, reported by the health check.
type Counts struct {
	Projects int `json:"projects"`
	Branches int `json:"branches"`
	Tasks    int `json:"tasks"`
	Subtasks int `json:"subtasks"`
	Agents   int `json:"agents"`
}

// CountAll returns row counts for every entity table.
func (s *Store) CountAll() (Counts, error) {
	var c Counts
	tables := []struct {
		name string
		dst  *int
	}{
		{"projects", &c.Projects},
		{"branches", &c.Branches},
		{"tasks", &c.Tasks},
		{"subtasks", &c.Subtasks},
		{"agents", &c.Agents},
	}
	for _, t := range tables {
		if err := s.queryRow("SELECT COUNT(*) FROM " + t.name).Scan(t.dst); err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", t.name, err)
		}
	}
	return c, nil
}
