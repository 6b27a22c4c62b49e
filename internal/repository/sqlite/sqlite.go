// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// SQLite is an embedded database — the whole store lives in a single file (or
// in memory for tests), so there is no separate database server to run. We
// use modernc.org/sqlite, a pure-Go translation of the SQLite sources: no
// CGo, no C compiler, cross-compiles anywhere Go does.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository interfaces.
type DB struct {
	conn *sql.DB
}

// New creates a SQLite connection pool, configures it, and runs migrations.
//
// dbPath examples:
//   - "data/lms.db" → file-based database (persistent)
//   - ":memory:"    → in-memory database (tests; lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// With ":memory:" every pooled connection would get its OWN empty
	// database — migrations on one, queries on another. Pin the pool to a
	// single connection so tests see one coherent store.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// sql.Open doesn't actually connect; Ping surfaces a bad path or
	// permissions problem now instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets concurrent reads proceed while a write is in flight —
	// relevant for a web server where requests hit the DB in parallel.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Concurrent writers briefly contend for the write lock even in WAL
	// mode; waiting beats surfacing SQLITE_BUSY to a request handler.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The enrollments table
	// references users and courses, so referential integrity matters here.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	if err := db.seedCourses(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: seeding catalog: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Callers should defer this right
// after New so the WAL is flushed and the file lock released on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent,
// so it is safe to run on every startup.
//
// Schema notes:
//   - users.email is declared COLLATE NOCASE and UNIQUE: the case-insensitive
//     uniqueness contract is enforced by the store itself, not just by the
//     service normalizing input.
//   - enrollments has a composite primary key (user_id, course_id). That key
//     IS the "enrolled at most once" invariant — a duplicate enrollment is a
//     constraint violation, which Enroll turns into a no-op via
//     INSERT OR IGNORE.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'student'
			              CHECK (role IN ('student', 'instructor')),
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS courses (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			category    TEXT NOT NULL DEFAULT '',
			level       TEXT NOT NULL DEFAULT '',
			thumbnail   TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			syllabus    TEXT NOT NULL DEFAULT '[]',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating courses table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS enrollments (
			user_id     TEXT NOT NULL REFERENCES users(id),
			course_id   TEXT NOT NULL REFERENCES courses(id),
			enrolled_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, course_id)
		);
		CREATE INDEX IF NOT EXISTS idx_enrollments_user_id ON enrollments(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating enrollments table: %w", err)
	}

	return nil
}
