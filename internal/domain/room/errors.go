package room

import "errors"

// Every operation fails fast on the first violated precondition and leaves no
// partial state behind. All of these are retryable by resubmission once the
// precondition is fixed; none corrupts other rooms.
var (
	ErrRoomExists         = errors.New("room code already exists")
	ErrRoomNotFound       = errors.New("room does not exist")
	ErrRoomNotActive      = errors.New("room is not active")
	ErrRoomEnded          = errors.New("room has ended")
	ErrRoomClosed         = errors.New("room is closed")
	ErrRoomFull           = errors.New("room is full")
	ErrAlreadyParticipant = errors.New("already a participant")
	ErrNotParticipant     = errors.New("not a participant")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrNotCreator         = errors.New("only the room creator may do this")
	ErrInvalidCandidate   = errors.New("candidate does not exist")
	ErrLengthMismatch     = errors.New("array lengths do not match")
	ErrTooFewCandidates   = errors.New("room needs at least two candidates")
	ErrEndTimeNotFuture   = errors.New("end time must be in the future")
	ErrInvalidCapacity    = errors.New("max participants must be positive")
	ErrEmptyCode          = errors.New("room code required")
	ErrDeadlineNotReached = errors.New("end time has not passed yet")
	ErrStillActive        = errors.New("room is still active")
	ErrResultsNotReady    = errors.New("results not published")
	ErrInvalidLimit       = errors.New("limit must be positive")
	ErrInvalidProof       = errors.New("invalid encrypted vote")
)
