// Package sqlite persists EcoCoin user state in a local SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the data directory.
const FileName = "ecorewards.db"

// DB wraps the SQLite connection pool.
type DB struct {
	db   *sql.DB
	path string
}

// Open creates dataDir if needed, opens the database inside it with WAL
// journaling and a busy timeout, and applies every migration.
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dataDir, FileName)
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	sqldb.SetMaxOpenConns(1)

	db := &DB{db: sqldb, path: path}
	if err := db.migrate(); err != nil {
		sqldb.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the connection pool.
func (db *DB) Close() error { return db.db.Close() }

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// Ping checks the connection.
func (db *DB) Ping() error { return db.db.Ping() }

func (db *DB) migrate() error {
	for i, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema statements, one statement per string.
func Migrations() []string {
	return []string{
		// One row per user: balance, streak and milestone counters
		`CREATE TABLE IF NOT EXISTS user_state (
			user_id               TEXT PRIMARY KEY,
			balance               INTEGER NOT NULL DEFAULT 0,
			opening_balance       INTEGER NOT NULL DEFAULT 0,
			streak_days           INTEGER NOT NULL DEFAULT 0,
			last_analysis_date    TEXT,
			products_analyzed     INTEGER NOT NULL DEFAULT 0,
			sustainable_purchases INTEGER NOT NULL DEFAULT 0,
			total_co2_kg          REAL NOT NULL DEFAULT 0,
			quizzes_completed     INTEGER NOT NULL DEFAULT 0,
			marketplace_listed    INTEGER NOT NULL DEFAULT 0,
			marketplace_sold      INTEGER NOT NULL DEFAULT 0,
			marketplace_purchased INTEGER NOT NULL DEFAULT 0,
			packages_returned     INTEGER NOT NULL DEFAULT 0,
			feedback_submitted    INTEGER NOT NULL DEFAULT 0,
			updated_at            TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Full coin log; seq orders a user's rows oldest first
		`CREATE TABLE IF NOT EXISTS coin_transactions (
			user_id  TEXT NOT NULL REFERENCES user_state(user_id) ON DELETE CASCADE,
			seq      INTEGER NOT NULL,
			id       TEXT NOT NULL,
			type     TEXT NOT NULL CHECK (type IN ('earned', 'spent')),
			amount   INTEGER NOT NULL CHECK (amount > 0),
			reason   TEXT NOT NULL,
			date     TEXT NOT NULL,
			context  TEXT NOT NULL DEFAULT '{}',
			PRIMARY KEY (user_id, seq)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_coin_tx_id ON coin_transactions(user_id, id)`,

		// Unlocked achievement keys
		`CREATE TABLE IF NOT EXISTS achievements (
			user_id         TEXT NOT NULL REFERENCES user_state(user_id) ON DELETE CASCADE,
			achievement_key TEXT NOT NULL,
			unlocked_at     TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (user_id, achievement_key)
		)`,
	}
}
