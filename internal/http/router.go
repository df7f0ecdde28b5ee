package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"voting-rooms/internal/domain/room"
	"voting-rooms/internal/journal"
	jwtpkg "voting-rooms/internal/platform/jwt"
)

// Handler is the transaction gateway in front of the registry: it resolves
// the caller's wallet address from the bearer token and forwards operations
// as that signer.
type Handler struct {
	reg    *room.Registry
	jwtMgr *jwtpkg.Manager
	jnl    journal.Journal
}

func NewRouter(reg *room.Registry, jwtMgr *jwtpkg.Manager, jnl journal.Journal) http.Handler {
	h := &Handler{reg: reg, jwtMgr: jwtMgr, jnl: jnl}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(RequestLogger)
	r.Use(CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", h.handleToken)

		// Read-only surface: never mutates, always sees committed state.
		r.Get("/rooms", h.handleAllRoomCodes)
		r.Get("/rooms/count", h.handleRoomCount)
		r.Get("/rooms/active", h.handleActiveRooms)
		r.Get("/rooms/paginated", h.handleRoomsPaginated)
		r.Get("/rooms/{code}", h.handleGetRoom)
		r.Get("/rooms/{code}/votes", h.handleTotalVotes)
		r.Get("/rooms/{code}/results", h.handleClearResults)
		r.Get("/rooms/{code}/results/published", h.handleResultsPublished)
		r.Get("/rooms/{code}/results/all", h.handleAllVotingResults)
		r.Get("/rooms/{code}/candidates/{id}", h.handleGetCandidate)
		r.Get("/rooms/{code}/candidates/{id}/votes", h.handleCandidateVoteCount)
		r.Get("/rooms/{code}/candidates/{id}/tally", h.handleCandidateTally)
		r.Get("/rooms/{code}/participants/{addr}", h.handleIsParticipant)
		r.Get("/rooms/{code}/voted/{addr}", h.handleHasVoted)

		// Mutating surface: each call is one transaction signed by the
		// token's wallet address.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(jwtMgr))

			r.Post("/rooms", h.handleCreateRoom)
			r.Post("/rooms/batch", h.handleCreateRoomBatch)
			r.Post("/rooms/{code}/candidates", h.handleAddCandidates)
			r.Post("/rooms/{code}/join", h.handleJoinRoom)
			r.With(RateLimitVotes(rate.Every(time.Minute/10), 3)).Post("/rooms/{code}/vote", h.handleVote)
			r.Post("/rooms/{code}/end", h.handleEndRoom)
			r.Post("/rooms/{code}/check-end", h.handleCheckAndEndRoom)
			r.Post("/rooms/{code}/results", h.handlePublishResults)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.jnl.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "journal_unavailable",
			"message": "journal not ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
