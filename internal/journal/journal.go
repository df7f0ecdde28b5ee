// Package journal persists the registry's committed transitions as an
// append-only log. The in-memory registry is authoritative; the journal is
// the durable record used for audit and replay, with interchangeable
// postgres and sqlite backends.
package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one committed registry transition.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	RoomCode    string    `json:"room_code"`
	Caller      string    `json:"caller"`
	CandidateID int       `json:"candidate_id"`
	At          time.Time `json:"at"`
}

// Journal is an append-only event log. Append never mutates prior entries.
type Journal interface {
	Append(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Ping(ctx context.Context) error
	Close() error
}

// ErrUnsupportedDSN is returned by Open for schemes it does not recognize.
var ErrUnsupportedDSN = errors.New("unsupported journal DSN")

// Open selects a backend by DSN scheme: postgres://... for pgx,
// sqlite:<path> for the embedded database. An empty DSN yields the no-op
// journal so the service can run without durable storage.
func Open(ctx context.Context, dsn string) (Journal, error) {
	switch {
	case dsn == "":
		return Nop{}, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgres(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite:"):
		return NewSQLite(ctx, strings.TrimPrefix(dsn, "sqlite:"))
	default:
		return nil, ErrUnsupportedDSN
	}
}

// Nop discards every entry. Used when no DSN is configured and in tests that
// do not care about durability.
type Nop struct{}

func (Nop) Append(context.Context, Entry) error { return nil }

func (Nop) Recent(context.Context, int) ([]Entry, error) { return nil, nil }

func (Nop) Ping(context.Context) error { return nil }

func (Nop) Close() error { return nil }
