package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"voting-rooms/internal/platform/apperr"
)

type voteRequest struct {
	CandidateID int    `json:"candidate_id"`
	Ciphertext  string `json:"ciphertext"` // base64 wire ciphertext
	Proof       string `json:"proof"`      // base64 input proof
}

// handleVote submits an encrypted ballot. The gateway never sees the
// plaintext choice magnitude; it just relays the wire ciphertext and proof to
// the registry, which relays them to the encryption engine.
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}
	if req.Ciphertext == "" || req.Proof == "" {
		errorResponse(w, apperr.BadRequest("invalid_input", "ciphertext and proof are required", nil))
		return
	}

	external, err := base64.StdEncoding.DecodeString(req.Ciphertext)
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "ciphertext is not valid base64", err))
		return
	}
	proof, err := base64.StdEncoding.DecodeString(req.Proof)
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "proof is not valid base64", err))
		return
	}

	if err := h.reg.Vote(r.Context(), addressFromCtx(r), code, req.CandidateID, external, proof); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
