package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite appends entries to an embedded database, for single-node
// deployments that want durability without running postgres.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and if needed creates) the database file. ":memory:" is
// accepted for tests.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = "./data/voting-rooms.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The driver is single-writer; serialize access through one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	j := &SQLite{db: db}
	if err := j.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *SQLite) initSchema(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS registry_events (
            id           TEXT PRIMARY KEY,
            kind         TEXT NOT NULL,
            room_code    TEXT NOT NULL,
            caller       TEXT NOT NULL,
            candidate_id INTEGER NOT NULL DEFAULT 0,
            at           TIMESTAMP NOT NULL
        )
    `)
	return err
}

func (j *SQLite) Append(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx, `
        INSERT INTO registry_events (id, kind, room_code, caller, candidate_id, at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, e.ID.String(), e.Kind, e.RoomCode, e.Caller, e.CandidateID, e.At.UTC().Format(time.RFC3339Nano))
	return err
}

func (j *SQLite) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
        SELECT id, kind, room_code, caller, candidate_id, at
        FROM registry_events
        ORDER BY at DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var id, at string
		if err := rows.Scan(&id, &e.Kind, &e.RoomCode, &e.Caller, &e.CandidateID, &at); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if e.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLite) Ping(ctx context.Context) error { return j.db.PingContext(ctx) }

func (j *SQLite) Close() error { return j.db.Close() }
