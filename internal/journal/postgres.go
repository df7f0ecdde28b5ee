package journal

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres appends entries to a postgres table via the pgx stdlib driver.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects with bounded pool settings and waits for the database
// to become reachable before returning.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	deadline := time.Now().Add(15 * time.Second)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			_ = db.Close()
			return nil, err
		}
		time.Sleep(500 * time.Millisecond)
	}

	j := &Postgres{db: db}
	if err := j.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Postgres) initSchema(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS registry_events (
            id           UUID PRIMARY KEY,
            kind         TEXT NOT NULL,
            room_code    TEXT NOT NULL,
            caller       TEXT NOT NULL,
            candidate_id INTEGER NOT NULL DEFAULT 0,
            at           TIMESTAMPTZ NOT NULL
        )
    `)
	return err
}

func (j *Postgres) Append(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx, `
        INSERT INTO registry_events (id, kind, room_code, caller, candidate_id, at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, e.ID, e.Kind, e.RoomCode, e.Caller, e.CandidateID, e.At)
	return err
}

func (j *Postgres) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
        SELECT id, kind, room_code, caller, candidate_id, at
        FROM registry_events
        ORDER BY at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.RoomCode, &e.Caller, &e.CandidateID, &e.At); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *Postgres) Ping(ctx context.Context) error { return j.db.PingContext(ctx) }

func (j *Postgres) Close() error { return j.db.Close() }
