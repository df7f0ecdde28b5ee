package api

import (
	"errors"
	"net/http"

	"voting-rooms/internal/domain/room"
	"voting-rooms/internal/platform/apperr"
)

func errorResponse(w http.ResponseWriter, err error) {
	appErr := mapError(err)
	writeJSON(w, appErr.StatusCode(), map[string]string{
		"error":   appErr.Code,
		"message": appErr.Message,
	})
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return apperr.NotFound("room_not_found", "room does not exist", err)
	case errors.Is(err, room.ErrRoomExists):
		return apperr.Conflict("room_exists", "room code already exists", err)
	case errors.Is(err, room.ErrRoomNotActive):
		return apperr.BadRequest("room_not_active", "room is not active", err)
	case errors.Is(err, room.ErrRoomEnded):
		return apperr.BadRequest("room_ended", "room has ended", err)
	case errors.Is(err, room.ErrRoomClosed):
		return apperr.Conflict("room_closed", "room is closed", err)
	case errors.Is(err, room.ErrRoomFull):
		return apperr.Conflict("room_full", "room is full", err)
	case errors.Is(err, room.ErrAlreadyParticipant):
		return apperr.Conflict("already_participant", "already a participant", err)
	case errors.Is(err, room.ErrNotParticipant):
		return apperr.Forbidden("not_participant", "not a participant of this room", err)
	case errors.Is(err, room.ErrAlreadyVoted):
		return apperr.Conflict("already_voted", "already voted in this room", err)
	case errors.Is(err, room.ErrInvalidPassword):
		return apperr.Forbidden("invalid_password", "invalid password", err)
	case errors.Is(err, room.ErrNotCreator):
		return apperr.Forbidden("not_creator", "only the room creator may do this", err)
	case errors.Is(err, room.ErrInvalidCandidate):
		return apperr.BadRequest("invalid_candidate", "candidate does not exist", err)
	case errors.Is(err, room.ErrLengthMismatch):
		return apperr.BadRequest("length_mismatch", "array lengths do not match", err)
	case errors.Is(err, room.ErrTooFewCandidates):
		return apperr.BadRequest("too_few_candidates", "room needs at least two candidates", err)
	case errors.Is(err, room.ErrEndTimeNotFuture):
		return apperr.BadRequest("invalid_end_time", "end time must be in the future", err)
	case errors.Is(err, room.ErrInvalidCapacity):
		return apperr.BadRequest("invalid_capacity", "max participants must be positive", err)
	case errors.Is(err, room.ErrEmptyCode):
		return apperr.BadRequest("invalid_code", "room code required", err)
	case errors.Is(err, room.ErrDeadlineNotReached):
		return apperr.BadRequest("deadline_not_reached", "end time has not passed yet", err)
	case errors.Is(err, room.ErrStillActive):
		return apperr.Conflict("room_still_active", "room is still active", err)
	case errors.Is(err, room.ErrResultsNotReady):
		return apperr.NotFound("results_not_published", "results not published", err)
	case errors.Is(err, room.ErrInvalidLimit):
		return apperr.BadRequest("invalid_limit", "limit must be positive", err)
	case errors.Is(err, room.ErrInvalidProof):
		return apperr.BadRequest("invalid_proof", "encrypted vote rejected", err)
	default:
		return apperr.Internal("internal_error", http.StatusText(http.StatusInternalServerError), err)
	}
}
