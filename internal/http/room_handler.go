package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"voting-rooms/internal/domain/room"
	"voting-rooms/internal/platform/apperr"
)

type tokenRequest struct {
	Address string `json:"address"`
}

// handleToken mints a bearer token for a wallet address. Signature-based
// wallet authentication lives in the web client; the gateway only needs the
// resolved address.
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}
	if req.Address == "" {
		errorResponse(w, apperr.BadRequest("invalid_input", "address is required", nil))
		return
	}

	token, err := h.jwtMgr.Generate(req.Address, 24*time.Hour)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type createRoomRequest struct {
	Code            string `json:"code"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	MaxParticipants int    `json:"max_participants"`
	EndTime         string `json:"end_time"`
	Password        string `json:"password"`
}

func (req *createRoomRequest) params() (room.CreateRoomParams, error) {
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return room.CreateRoomParams{}, apperr.BadRequest("invalid_input", "end_time must be RFC3339", err)
	}
	p := room.CreateRoomParams{
		Code:            req.Code,
		Title:           req.Title,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
		EndTime:         endTime,
	}
	if req.Password != "" {
		p.HasPassword = true
		p.PasswordHash = room.HashPassword(req.Password)
	}
	return p, nil
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}
	p, err := req.params()
	if err != nil {
		errorResponse(w, err)
		return
	}

	if err := h.reg.CreateRoom(r.Context(), addressFromCtx(r), p); err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"code": p.Code})
}

type createRoomBatchRequest struct {
	createRoomRequest
	CandidateNames        []string `json:"candidate_names"`
	CandidateDescriptions []string `json:"candidate_descriptions"`
	CandidateImageURLs    []string `json:"candidate_image_urls"`
}

func (h *Handler) handleCreateRoomBatch(w http.ResponseWriter, r *http.Request) {
	var req createRoomBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}
	p, err := req.params()
	if err != nil {
		errorResponse(w, err)
		return
	}

	err = h.reg.CreateRoomWithCandidates(r.Context(), addressFromCtx(r), p,
		req.CandidateNames, req.CandidateDescriptions, req.CandidateImageURLs)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"code":            p.Code,
		"candidate_count": len(req.CandidateNames),
	})
}

type addCandidatesRequest struct {
	Names        []string `json:"names"`
	Descriptions []string `json:"descriptions"`
	ImageURLs    []string `json:"image_urls"`
}

// handleAddCandidates appends one or more candidates; a single-element
// request behaves like the single-candidate operation and returns its index.
func (h *Handler) handleAddCandidates(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req addCandidatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}
	if len(req.Names) == 0 {
		errorResponse(w, apperr.BadRequest("invalid_input", "at least one candidate required", nil))
		return
	}

	caller := addressFromCtx(r)
	if len(req.Names) == 1 && len(req.Descriptions) == 1 && len(req.ImageURLs) == 1 {
		id, err := h.reg.AddCandidate(r.Context(), caller, code, req.Names[0], req.Descriptions[0], req.ImageURLs[0])
		if err != nil {
			errorResponse(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int{"candidate_id": id})
		return
	}

	if err := h.reg.AddCandidatesBatch(r.Context(), caller, code, req.Names, req.Descriptions, req.ImageURLs); err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"added": len(req.Names)})
}

type joinRoomRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req joinRoomRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
			return
		}
	}

	if err := h.reg.JoinRoom(r.Context(), addressFromCtx(r), code, req.Password); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEndRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.reg.EndRoom(r.Context(), addressFromCtx(r), code); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCheckAndEndRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.reg.CheckAndEndRoom(r.Context(), addressFromCtx(r), code); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type publishResultsRequest struct {
	Counts []uint64 `json:"counts"`
}

func (h *Handler) handlePublishResults(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req publishResultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	if err := h.reg.PublishResults(r.Context(), addressFromCtx(r), code, req.Counts); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
