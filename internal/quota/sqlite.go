package quota

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS quota_records (
	account_id      TEXT PRIMARY KEY,
	total_plays     INTEGER NOT NULL DEFAULT 0,
	total_downloads INTEGER NOT NULL DEFAULT 0,
	daily_plays     INTEGER NOT NULL DEFAULT 0,
	daily_downloads INTEGER NOT NULL DEFAULT 0,
	last_reset      TEXT NOT NULL DEFAULT '',
	banned          INTEGER NOT NULL DEFAULT 0
);`

// SQLiteStore persists quota records in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. Path ":memory:" gives an in-memory store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open quota database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping quota database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create quota schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Read returns the record for accountID, or (nil, nil) when absent.
func (s *SQLiteStore) Read(ctx context.Context, accountID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT account_id, total_plays, total_downloads, daily_plays, daily_downloads, last_reset, banned
		 FROM quota_records WHERE account_id = ?`, accountID)

	var rec Record
	var lastReset string
	var banned int
	err := row.Scan(&rec.AccountID, &rec.TotalPlays, &rec.TotalDownloads,
		&rec.DailyPlays, &rec.DailyDownloads, &lastReset, &banned)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quota record: %w", err)
	}

	if lastReset != "" {
		t, err := time.Parse(time.RFC3339, lastReset)
		if err != nil {
			return nil, fmt.Errorf("corrupt last_reset for %s: %w", accountID, err)
		}
		rec.LastReset = t
	}
	rec.Banned = banned != 0

	return &rec, nil
}

// Apply merges the non-nil fields of m into the account's record, creating
// the record first when it does not exist.
func (s *SQLiteStore) Apply(ctx context.Context, accountID string, m Mutation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin quota transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO quota_records (account_id) VALUES (?)`, accountID); err != nil {
		return fmt.Errorf("failed to ensure quota record: %w", err)
	}

	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if m.TotalPlays != nil {
		add("total_plays", *m.TotalPlays)
	}
	if m.TotalDownloads != nil {
		add("total_downloads", *m.TotalDownloads)
	}
	if m.DailyPlays != nil {
		add("daily_plays", *m.DailyPlays)
	}
	if m.DailyDownloads != nil {
		add("daily_downloads", *m.DailyDownloads)
	}
	if m.LastReset != nil {
		add("last_reset", m.LastReset.UTC().Format(time.RFC3339))
	}
	if m.Banned != nil {
		b := 0
		if *m.Banned {
			b = 1
		}
		add("banned", b)
	}

	if len(sets) > 0 {
		args = append(args, accountID)
		query := "UPDATE quota_records SET " + strings.Join(sets, ", ") + " WHERE account_id = ?"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update quota record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit quota update: %w", err)
	}
	return nil
}
