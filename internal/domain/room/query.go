package room

import "voting-rooms/internal/fhe"

// Read-only surface. Queries take the same lock as mutations so they always
// observe the latest committed state, and they return copies so callers can
// never reach into live registry state.

// Get returns a snapshot of one room.
func (r *Registry) Get(code string) (Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return Room{}, err
	}
	return rs.Room, nil
}

// Candidate returns one candidate by its zero-based index.
func (r *Registry) Candidate(code string, id int) (Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return Candidate{}, err
	}
	if id < 0 || id >= rs.CandidateCount {
		return Candidate{}, ErrInvalidCandidate
	}
	return rs.candidates[id], nil
}

// CandidateTally returns the opaque encrypted running total for a candidate.
// Decrypting it is between the caller and the engine's grant list.
func (r *Registry) CandidateTally(code string, id int) (*fhe.Ciphertext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return nil, err
	}
	if id < 0 || id >= rs.CandidateCount {
		return nil, ErrInvalidCandidate
	}
	return rs.tallies[id], nil
}

// IsParticipant reports whether addr has joined the room.
func (r *Registry) IsParticipant(code string, addr fhe.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return false, err
	}
	p := rs.participants[addr]
	return p != nil && p.IsParticipant, nil
}

// HasVoted reports whether addr has already voted in the room.
func (r *Registry) HasVoted(code string, addr fhe.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return false, err
	}
	p := rs.participants[addr]
	return p != nil && p.HasVoted, nil
}

// TotalVotes returns the plaintext count of successful votes in the room.
// It exists so liveness decisions (auto-close, dashboards) never need a
// decryption round-trip.
func (r *Registry) TotalVotes(code string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return 0, err
	}
	return rs.totalVotes, nil
}

// CandidateVoteCount returns the public mirror counter for one candidate.
func (r *Registry) CandidateVoteCount(code string, id int) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return 0, err
	}
	if id < 0 || id >= rs.CandidateCount {
		return 0, ErrInvalidCandidate
	}
	return rs.candidateVotes[id], nil
}

// Count returns the total number of rooms ever created.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}

// AllRoomCodes returns every room code in creation order.
func (r *Registry) AllRoomCodes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.codes...)
}

// ActiveRooms returns rooms that are both flagged active and still inside
// their voting window. The time filter is independent of the stored flag: a
// room past its deadline disappears from this list even before anyone calls
// CheckAndEndRoom.
func (r *Registry) ActiveRooms() []Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	out := make([]Room, 0)
	for _, rs := range r.rooms {
		if rs.IsActive && rs.EndTime.After(now) {
			out = append(out, rs.Room)
		}
	}
	return out
}

// ExpiredActive returns codes of rooms whose flag is still active but whose
// deadline has passed, the sweep set for CheckAndEndRoom.
func (r *Registry) ExpiredActive() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var out []string
	for _, rs := range r.rooms {
		if rs.IsActive && !rs.EndTime.After(now) {
			out = append(out, rs.Code)
		}
	}
	return out
}

// RoomsPaginated returns a slice of rooms in creation order plus a flag
// telling whether more follow. limit must be positive; an offset past the end
// yields an empty page.
func (r *Registry) RoomsPaginated(offset, limit int) ([]Room, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		return nil, false, ErrInvalidLimit
	}
	if offset < 0 || offset >= len(r.rooms) {
		return []Room{}, false, nil
	}
	end := offset + limit
	if end > len(r.rooms) {
		end = len(r.rooms)
	}
	out := make([]Room, 0, end-offset)
	for _, rs := range r.rooms[offset:end] {
		out = append(out, rs.Room)
	}
	return out, end < len(r.rooms), nil
}

// ClearResults returns the creator-published plaintext tally.
func (r *Registry) ClearResults(code string) ([]uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return nil, err
	}
	if !rs.resultsPublished {
		return nil, ErrResultsNotReady
	}
	return append([]uint64(nil), rs.clearResults...), nil
}

// ResultsPublished reports whether the creator has published results.
func (r *Registry) ResultsPublished(code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return false, err
	}
	return rs.resultsPublished, nil
}

// AllVotingResults dumps every candidate with its public mirror counter.
// This discloses the live distribution in plaintext regardless of the
// encrypted tallies; see the package comment.
func (r *Registry) AllVotingResults(code string) ([]VotingResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return nil, err
	}
	out := make([]VotingResult, 0, rs.CandidateCount)
	for i, c := range rs.candidates {
		out = append(out, VotingResult{CandidateID: c.ID, Name: c.Name, Votes: rs.candidateVotes[i]})
	}
	return out, nil
}
