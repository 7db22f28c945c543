// Package history keeps a small SQLite log of past runs so account usage can
// be compared over time. Failures here are never fatal to a run.
package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/szmania/mega-manager/internal/model"
)

// DB wraps the run-history database.
type DB struct {
	conn *sql.DB
}

// Run is one recorded run with its per-profile space figures.
type Run struct {
	ID         int64
	FinishedAt time.Time
	Features   []string
	Accounts   []Account
}

// Account is the space snapshot of one profile at the end of a run.
type Account struct {
	Profile string
	Total   int64
	Used    int64
	Free    int64
}

// Open connects to (and if needed creates) the history database at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		finished_at INTEGER NOT NULL,
		features TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		profile TEXT NOT NULL,
		total_bytes INTEGER NOT NULL,
		used_bytes INTEGER NOT NULL,
		free_bytes INTEGER NOT NULL,
		FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_run_accounts_run_id ON run_accounts(run_id);`

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// RecordRun appends one row per profile for the finished run.
func (db *DB) RecordRun(finishedAt time.Time, features []string, profiles []model.Profile) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO runs (finished_at, features) VALUES (?, ?)",
		finishedAt.Unix(), strings.Join(features, ","),
	)
	if err != nil {
		return err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, p := range profiles {
		_, err := tx.Exec(
			"INSERT INTO run_accounts (run_id, profile, total_bytes, used_bytes, free_bytes) VALUES (?, ?, ?, ?, ?)",
			runID, p.Name, p.TotalSpace, p.UsedSpace, p.FreeSpace,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Runs returns the most recent runs, newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	rows, err := db.conn.Query(
		"SELECT id, finished_at, features FROM runs ORDER BY finished_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var unix int64
		var features string
		if err := rows.Scan(&r.ID, &unix, &features); err != nil {
			return nil, err
		}
		r.FinishedAt = time.Unix(unix, 0)
		if features != "" {
			r.Features = strings.Split(features, ",")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		accounts, err := db.runAccounts(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Accounts = accounts
	}
	return runs, nil
}

func (db *DB) runAccounts(runID int64) ([]Account, error) {
	rows, err := db.conn.Query(
		"SELECT profile, total_bytes, used_bytes, free_bytes FROM run_accounts WHERE run_id = ? ORDER BY profile", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.Profile, &a.Total, &a.Used, &a.Free); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
