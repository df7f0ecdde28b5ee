package room

import (
	"time"

	"voting-rooms/internal/fhe"
)

// Room is a snapshot of one voting room's public state.
//
// The code is chosen by the creator, globally unique and immutable. The
// creator auto-joins at creation, so ParticipantCount starts at 1. IsClosed
// flips true once the room fills and never reopens; IsActive flips false
// exactly once (explicit end, deadline sweep, or full turnout) and never
// reverses.
type Room struct {
	Code             string      `json:"code"`
	Title            string      `json:"title"`
	Description      string      `json:"description,omitempty"`
	Creator          fhe.Address `json:"creator"`
	MaxParticipants  int         `json:"max_participants"`
	ParticipantCount int         `json:"participant_count"`
	EndTime          time.Time   `json:"end_time"`
	HasPassword      bool        `json:"has_password"`
	PasswordHash     string      `json:"-"`
	IsActive         bool        `json:"is_active"`
	IsClosed         bool        `json:"is_closed"`
	CandidateCount   int         `json:"candidate_count"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Candidate is one choice within a room, identified by its zero-based index.
// Immutable except for vote accumulation, which lives in the encrypted tally
// and the public mirror counter, not here.
type Candidate struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Exists      bool   `json:"exists"`
}

// Participation records membership and vote status for one identity in one
// room. Both flags are set-once: there is no leave and no re-vote.
type Participation struct {
	IsParticipant bool `json:"is_participant"`
	HasVoted      bool `json:"has_voted"`
}

// VotingResult pairs a candidate with its public plaintext vote count.
type VotingResult struct {
	CandidateID int    `json:"candidate_id"`
	Name        string `json:"name"`
	Votes       uint64 `json:"votes"`
}

// CreateRoomParams carries the caller-supplied attributes of a new room.
// PasswordHash is the hex Keccak-256 digest of the plaintext password and is
// meaningful only when HasPassword is set.
type CreateRoomParams struct {
	Code            string
	Title           string
	Description     string
	MaxParticipants int
	EndTime         time.Time
	HasPassword     bool
	PasswordHash    string
}

// EventKind names a committed state transition.
type EventKind string

const (
	EventRoomCreated       EventKind = "room_created"
	EventCandidateAdded    EventKind = "candidate_added"
	EventParticipantJoined EventKind = "participant_joined"
	EventVoteCast          EventKind = "vote_cast"
	EventRoomEnded         EventKind = "room_ended"
	EventResultsPublished  EventKind = "results_published"
)

// Event is emitted after a mutating operation commits. Delivery is best
// effort: a full channel drops the event rather than blocking the operation.
type Event struct {
	Kind        EventKind   `json:"kind"`
	RoomCode    string      `json:"room_code"`
	Caller      fhe.Address `json:"caller"`
	CandidateID int         `json:"candidate_id,omitempty"`
	At          time.Time   `json:"at"`
}
