package worker

import (
	"context"
	"log"
	"time"

	"voting-rooms/internal/domain/room"
	"voting-rooms/internal/fhe"
)

// Sweeper periodically runs the permissionless end-of-room transition for
// rooms whose deadline has passed, so expired rooms get flipped inactive even
// when neither the creator nor any observer is around to do it.
type Sweeper struct {
	Registry *room.Registry
	Identity fhe.Address
	Interval time.Duration
}

func NewSweeper(reg *room.Registry, identity fhe.Address, interval time.Duration) *Sweeper {
	return &Sweeper{Registry: reg, Identity: identity, Interval: interval}
}

func (s *Sweeper) Run(ctx context.Context) {
	log.Println("expiry sweeper started")
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep ends every expired-but-active room. Losing the race to another
// caller is fine: the op fails idempotently on an already-ended room.
func (s *Sweeper) Sweep(ctx context.Context) int {
	ended := 0
	for _, code := range s.Registry.ExpiredActive() {
		if err := s.Registry.CheckAndEndRoom(ctx, s.Identity, code); err == nil {
			ended++
		}
	}
	if ended > 0 {
		log.Printf("sweeper ended %d expired room(s)", ended)
	}
	return ended
}
