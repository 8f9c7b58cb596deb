package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pbaille/journal/internal/domain"
	"github.com/pbaille/journal/internal/record"
)

//go:embed schema.sql
var schema string

const savedKey = "saved"

// SQLite stores snapshots in a SQLite database. Entry payloads are kept as
// JSON; their label references are mirrored in entry_labels so foreign keys
// guard referential integrity on the database side too.
type SQLite[P domain.Payload[P]] struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path
func OpenSQLite[P domain.Payload[P]](path string) (*SQLite[P], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer; also keeps pragmas on the single connection
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLite[P]{db: db}, nil
}

// Close closes the database connection
func (s *SQLite[P]) Close() error {
	return s.db.Close()
}

// Load reads every label and entry. A database that was never saved to
// yields ErrNotFound.
func (s *SQLite[P]) Load(ctx context.Context) (record.Snapshot[P], error) {
	snap := record.Snapshot[P]{
		Labels:  make(map[domain.LabelID]domain.Label),
		Entries: make(map[int64]P),
	}

	var saved string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", savedKey).Scan(&saved)
	if err == sql.ErrNoRows {
		return snap, ErrNotFound
	}
	if err != nil {
		return snap, fmt.Errorf("read meta: %w", err)
	}

	if err := s.loadLabels(ctx, snap.Labels); err != nil {
		return snap, err
	}
	if err := s.loadEntries(ctx, snap.Entries); err != nil {
		return snap, err
	}
	return snap, nil
}

func (s *SQLite[P]) loadLabels(ctx context.Context, into map[domain.LabelID]domain.Label) error {
	rows, err := s.db.QueryContext(ctx, "SELECT id, long_name, short_name FROM labels")
	if err != nil {
		return fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id domain.LabelID
			l  domain.Label
		)
		if err := rows.Scan(&id, &l.LongName, &l.ShortName); err != nil {
			return fmt.Errorf("scan label: %w", err)
		}
		into[id] = l
	}
	return rows.Err()
}

func (s *SQLite[P]) loadEntries(ctx context.Context, into map[int64]P) error {
	rows, err := s.db.QueryContext(ctx, "SELECT ts, payload FROM entries")
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ts      int64
			payload string
			entry   P
		)
		if err := rows.Scan(&ts, &payload); err != nil {
			return fmt.Errorf("scan entry: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			return fmt.Errorf("decode entry %d: %w", ts, err)
		}
		into[ts] = entry
	}
	return rows.Err()
}

// Save replaces the database contents with snap in one transaction
func (s *SQLite[P]) Save(ctx context.Context, snap record.Snapshot[P]) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM entry_labels",
		"DELETE FROM entries",
		"DELETE FROM labels",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	for id, l := range snap.Labels {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO labels (id, long_name, short_name) VALUES (?, ?, ?)",
			id, l.LongName, l.ShortName,
		)
		if err != nil {
			return fmt.Errorf("insert label %d: %w", id, err)
		}
	}

	for ts, e := range snap.Entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode entry %d: %w", ts, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO entries (ts, payload) VALUES (?, ?)",
			ts, string(payload),
		); err != nil {
			return fmt.Errorf("insert entry %d: %w", ts, err)
		}
		for _, id := range e.Labels() {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO entry_labels (ts, label_id) VALUES (?, ?)",
				ts, id,
			); err != nil {
				return fmt.Errorf("link entry %d to label %d: %w", ts, id, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		savedKey, "1",
	); err != nil {
		return fmt.Errorf("mark saved: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
