package worker

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"voting-rooms/internal/domain/room"
	"voting-rooms/internal/journal"
	"voting-rooms/internal/metrics"
	"voting-rooms/internal/retry"
)

// JournalWorker drains the registry's event channel into the durable journal.
// Appends are retried with backoff; an entry that still fails is logged and
// dropped, never blocking the registry.
type JournalWorker struct {
	Ch      <-chan room.Event
	Journal journal.Journal
}

func NewJournalWorker(ch <-chan room.Event, j journal.Journal) *JournalWorker {
	return &JournalWorker{Ch: ch, Journal: j}
}

func (w *JournalWorker) Run(ctx context.Context) {
	log.Println("journal worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("journal worker stopped")
			return
		case ev := <-w.Ch:
			w.record(ctx, ev)
		}
	}
}

func (w *JournalWorker) record(ctx context.Context, ev room.Event) {
	switch ev.Kind {
	case room.EventVoteCast:
		metrics.IncVote()
	case room.EventRoomCreated:
		metrics.IncRoomCreated()
	case room.EventRoomEnded:
		metrics.IncRoomEnded()
	}

	entry := journal.Entry{
		ID:          uuid.New(),
		Kind:        string(ev.Kind),
		RoomCode:    ev.RoomCode,
		Caller:      string(ev.Caller),
		CandidateID: ev.CandidateID,
		At:          ev.At,
	}
	err := retry.DoWithRetry(ctx, 3, 200*time.Millisecond, func() error {
		return w.Journal.Append(ctx, entry)
	})
	if err != nil {
		log.Printf("journal append failed, dropping %s for room %s: %v", entry.Kind, entry.RoomCode, err)
	}
}
