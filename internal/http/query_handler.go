package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"voting-rooms/internal/fhe"
	"voting-rooms/internal/platform/apperr"
)

func parseIntParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

func (h *Handler) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	got, err := h.reg.Get(chi.URLParam(r, "code"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

func (h *Handler) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid candidate id", err))
		return
	}
	c, err := h.reg.Candidate(chi.URLParam(r, "code"), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleCandidateTally exposes the encrypted running total as an opaque
// handle plus its current grant list. Decryption happens engine-side, only
// for granted identities.
func (h *Handler) handleCandidateTally(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid candidate id", err))
		return
	}
	ct, err := h.reg.CandidateTally(chi.URLParam(r, "code"), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"handle": ct.Handle(),
		"grants": ct.Grants(),
	})
}

func (h *Handler) handleCandidateVoteCount(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid candidate id", err))
		return
	}
	n, err := h.reg.CandidateVoteCount(chi.URLParam(r, "code"), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"votes": n})
}

func (h *Handler) handleTotalVotes(w http.ResponseWriter, r *http.Request) {
	total, err := h.reg.TotalVotes(chi.URLParam(r, "code"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"total_votes": total})
}

func (h *Handler) handleIsParticipant(w http.ResponseWriter, r *http.Request) {
	ok, err := h.reg.IsParticipant(chi.URLParam(r, "code"), fhe.Address(chi.URLParam(r, "addr")))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_participant": ok})
}

func (h *Handler) handleHasVoted(w http.ResponseWriter, r *http.Request) {
	ok, err := h.reg.HasVoted(chi.URLParam(r, "code"), fhe.Address(chi.URLParam(r, "addr")))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"has_voted": ok})
}

func (h *Handler) handleRoomCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": h.reg.Count()})
}

func (h *Handler) handleAllRoomCodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"codes": h.reg.AllRoomCodes()})
}

func (h *Handler) handleActiveRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.ActiveRooms())
}

func (h *Handler) handleRoomsPaginated(w http.ResponseWriter, r *http.Request) {
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		offset = 0
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "limit is required", err))
		return
	}

	rooms, hasMore, err := h.reg.RoomsPaginated(offset, limit)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms":    rooms,
		"has_more": hasMore,
	})
}

func (h *Handler) handleClearResults(w http.ResponseWriter, r *http.Request) {
	counts, err := h.reg.ClearResults(chi.URLParam(r, "code"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

func (h *Handler) handleResultsPublished(w http.ResponseWriter, r *http.Request) {
	ok, err := h.reg.ResultsPublished(chi.URLParam(r, "code"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"published": ok})
}

func (h *Handler) handleAllVotingResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.reg.AllVotingResults(chi.URLParam(r, "code"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
