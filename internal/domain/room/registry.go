// Package room implements the voting-room registry: a keyed collection of
// rooms with participants, candidates and an encrypted running tally per
// candidate.
//
// Every mutating operation runs under one registry-wide lock, mirroring the
// ledger's globally serialized transaction model: whichever call acquires the
// lock first observes the prior committed state, and each call either fully
// applies or returns an error with nothing mutated (all checks precede all
// effects).
//
// The registry keeps two tallies per candidate on purpose: the encrypted
// aggregate (the privacy mechanism) and a public plaintext mirror counter
// updated in lockstep. The mirror leaks the live distribution; it is kept
// because the observed system behaves this way. See DESIGN.md before
// "fixing" it.
package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voting-rooms/internal/fhe"
)

// Registry is the authoritative store for all rooms. The room list is
// arena-style: an append-only slice of room states plus a code→index map, so
// enumeration and pagination never rescan more than the flat table.
type Registry struct {
	mu     sync.Mutex
	engine fhe.Engine
	self   fhe.Address // the contract's own identity, granted on every tally
	events chan<- Event
	now    func() time.Time

	codes []string
	index map[string]int
	rooms []*roomState
}

// roomState is the mutable record behind one room. The Room snapshot is
// embedded; side tables live alongside it.
type roomState struct {
	Room
	candidates       []Candidate
	tallies          []*fhe.Ciphertext
	candidateVotes   []uint64
	totalVotes       uint64
	participants     map[fhe.Address]*Participation
	clearResults     []uint64
	resultsPublished bool
}

// New builds a registry backed by the given engine. self is the identity the
// registry grants itself on every tally so the aggregate stays decryptable by
// the contract. events may be nil; when set, committed transitions are sent
// without blocking.
func New(engine fhe.Engine, self fhe.Address, events chan<- Event) *Registry {
	return &Registry{
		engine: engine,
		self:   self,
		events: events,
		now:    time.Now,
		index:  make(map[string]int),
	}
}

func (r *Registry) emit(kind EventKind, code string, caller fhe.Address, candidateID int) {
	if r.events == nil {
		return
	}
	ev := Event{Kind: kind, RoomCode: code, Caller: caller, CandidateID: candidateID, At: r.now()}
	select {
	case r.events <- ev:
	default:
	}
}

func (r *Registry) room(code string) (*roomState, error) {
	i, ok := r.index[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r.rooms[i], nil
}

func validateCreate(p CreateRoomParams, now time.Time) error {
	if p.Code == "" {
		return ErrEmptyCode
	}
	if p.MaxParticipants <= 0 {
		return ErrInvalidCapacity
	}
	if !p.EndTime.After(now) {
		return ErrEndTimeNotFuture
	}
	return nil
}

// newRoomState materializes a room with the creator auto-joined. Pure
// construction, no registry mutation.
func newRoomState(p CreateRoomParams, creator fhe.Address, now time.Time) *roomState {
	rs := &roomState{
		Room: Room{
			Code:             p.Code,
			Title:            p.Title,
			Description:      p.Description,
			Creator:          creator,
			MaxParticipants:  p.MaxParticipants,
			ParticipantCount: 1,
			EndTime:          p.EndTime,
			HasPassword:      p.HasPassword,
			IsActive:         true,
			CreatedAt:        now,
		},
		participants: map[fhe.Address]*Participation{
			creator: {IsParticipant: true},
		},
	}
	if p.HasPassword {
		rs.PasswordHash = p.PasswordHash
	}
	// A room for one is closed the moment its creator joins.
	if rs.ParticipantCount == rs.MaxParticipants {
		rs.IsClosed = true
	}
	return rs
}

// newCandidate materializes a candidate with an explicit encrypted zero.
// The engine requires all operands to exist as real ciphertexts, so the tally
// is never a default value. The contract and the room creator get decryption
// grants on the fresh zero.
func (r *Registry) newCandidate(id int, name, description, imageURL string, creator fhe.Address) (Candidate, *fhe.Ciphertext, error) {
	zero, err := r.engine.EncryptZero()
	if err != nil {
		return Candidate{}, nil, fmt.Errorf("materialize encrypted zero: %w", err)
	}
	r.engine.Allow(zero, r.self)
	r.engine.Allow(zero, creator)
	return Candidate{
		ID:          id,
		Name:        name,
		Description: description,
		ImageURL:    imageURL,
		Exists:      true,
	}, zero, nil
}

func (r *Registry) commitRoom(rs *roomState) {
	r.index[rs.Code] = len(r.rooms)
	r.codes = append(r.codes, rs.Code)
	r.rooms = append(r.rooms, rs)
}

// CreateRoom registers a new empty room; the caller becomes its creator and
// first participant.
func (r *Registry) CreateRoom(ctx context.Context, caller fhe.Address, p CreateRoomParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[p.Code]; ok {
		return ErrRoomExists
	}
	if err := validateCreate(p, r.now()); err != nil {
		return err
	}

	r.commitRoom(newRoomState(p, caller, r.now()))
	r.emit(EventRoomCreated, p.Code, caller, 0)
	return nil
}

// CreateRoomWithCandidates registers a room together with its initial
// candidates as one atomic operation, so no other participant can ever
// observe a partially configured room. The three slices are positional and
// must have equal length; a room must launch with at least two choices.
func (r *Registry) CreateRoomWithCandidates(ctx context.Context, caller fhe.Address, p CreateRoomParams, names, descriptions, imageURLs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[p.Code]; ok {
		return ErrRoomExists
	}
	if err := validateCreate(p, r.now()); err != nil {
		return err
	}
	if len(names) != len(descriptions) || len(names) != len(imageURLs) {
		return ErrLengthMismatch
	}
	if len(names) < 2 {
		return ErrTooFewCandidates
	}

	// Materialize everything before touching registry state: an engine
	// failure on the third candidate must not leave a half-built room.
	cands := make([]Candidate, 0, len(names))
	tallies := make([]*fhe.Ciphertext, 0, len(names))
	for i := range names {
		c, zero, err := r.newCandidate(i, names[i], descriptions[i], imageURLs[i], caller)
		if err != nil {
			return err
		}
		cands = append(cands, c)
		tallies = append(tallies, zero)
	}

	rs := newRoomState(p, caller, r.now())
	rs.candidates = cands
	rs.tallies = tallies
	rs.candidateVotes = make([]uint64, len(cands))
	rs.CandidateCount = len(cands)
	r.commitRoom(rs)

	r.emit(EventRoomCreated, p.Code, caller, 0)
	for _, c := range cands {
		r.emit(EventCandidateAdded, p.Code, caller, c.ID)
	}
	return nil
}

// AddCandidate appends one candidate to an active room. Creator only. The new
// candidate's index is the room's current candidate count. Returns the index.
func (r *Registry) AddCandidate(ctx context.Context, caller fhe.Address, code, name, description, imageURL string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return 0, err
	}
	if rs.Creator != caller {
		return 0, ErrNotCreator
	}
	if !rs.IsActive {
		return 0, ErrRoomNotActive
	}

	id := rs.CandidateCount
	c, zero, err := r.newCandidate(id, name, description, imageURL, rs.Creator)
	if err != nil {
		return 0, err
	}
	rs.candidates = append(rs.candidates, c)
	rs.tallies = append(rs.tallies, zero)
	rs.candidateVotes = append(rs.candidateVotes, 0)
	rs.CandidateCount++

	r.emit(EventCandidateAdded, code, caller, id)
	return id, nil
}

// AddCandidatesBatch appends several candidates at once, all or nothing.
func (r *Registry) AddCandidatesBatch(ctx context.Context, caller fhe.Address, code string, names, descriptions, imageURLs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return err
	}
	if rs.Creator != caller {
		return ErrNotCreator
	}
	if !rs.IsActive {
		return ErrRoomNotActive
	}
	if len(names) != len(descriptions) || len(names) != len(imageURLs) {
		return ErrLengthMismatch
	}

	cands := make([]Candidate, 0, len(names))
	tallies := make([]*fhe.Ciphertext, 0, len(names))
	for i := range names {
		c, zero, err := r.newCandidate(rs.CandidateCount+i, names[i], descriptions[i], imageURLs[i], rs.Creator)
		if err != nil {
			return err
		}
		cands = append(cands, c)
		tallies = append(tallies, zero)
	}

	rs.candidates = append(rs.candidates, cands...)
	rs.tallies = append(rs.tallies, tallies...)
	rs.candidateVotes = append(rs.candidateVotes, make([]uint64, len(cands))...)
	rs.CandidateCount += len(cands)

	for _, c := range cands {
		r.emit(EventCandidateAdded, code, caller, c.ID)
	}
	return nil
}

// JoinRoom admits the caller into a room. Check order is part of the caller
// contract: existence, then active/deadline/closed, then membership, then
// capacity, and only then the password. A stranger probing a full
// password-protected room learns "room is full", not whether their password
// was right.
func (r *Registry) JoinRoom(ctx context.Context, caller fhe.Address, code, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return err
	}
	if !rs.IsActive {
		return ErrRoomNotActive
	}
	if !rs.EndTime.After(r.now()) {
		return ErrRoomEnded
	}
	if rs.IsClosed {
		return ErrRoomClosed
	}
	if p := rs.participants[caller]; p != nil && p.IsParticipant {
		return ErrAlreadyParticipant
	}
	if rs.ParticipantCount >= rs.MaxParticipants {
		return ErrRoomFull
	}
	if rs.HasPassword && HashPassword(password) != rs.PasswordHash {
		return ErrInvalidPassword
	}

	rs.participants[caller] = &Participation{IsParticipant: true}
	rs.ParticipantCount++
	if rs.ParticipantCount == rs.MaxParticipants {
		rs.IsClosed = true // permanent; there is no leave and no reopen
	}

	r.emit(EventParticipantJoined, code, caller, 0)
	return nil
}

// Vote adds an externally encrypted vote into a candidate's running tally.
//
// The wire ciphertext is converted via the engine's proof check and added
// homomorphically; the registry never decrypts it. After the addition the
// fresh aggregate gets grants for the contract, the voter and the room
// creator, so the latest sum stays readable by the same three parties no
// matter how many votes accrue.
//
// By convention the payload encrypts 1. The proof only authenticates the
// ciphertext; nothing here can verify the magnitude without decrypting, which
// would defeat the privacy goal. Accepted trust boundary, see DESIGN.md.
func (r *Registry) Vote(ctx context.Context, caller fhe.Address, code string, candidateID int, external, proof []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return err
	}
	p := rs.participants[caller]
	if p == nil || !p.IsParticipant {
		return ErrNotParticipant
	}
	if p.HasVoted {
		return ErrAlreadyVoted
	}
	if !rs.IsActive {
		return ErrRoomNotActive
	}
	if !rs.EndTime.After(r.now()) {
		return ErrRoomEnded
	}
	if candidateID < 0 || candidateID >= rs.CandidateCount || !rs.candidates[candidateID].Exists {
		return ErrInvalidCandidate
	}

	ballot, err := r.engine.VerifyInput(external, proof, caller, r.self)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	sum, err := r.engine.Add(rs.tallies[candidateID], ballot)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	r.engine.Allow(sum, r.self)
	r.engine.Allow(sum, caller)
	r.engine.Allow(sum, rs.Creator)

	rs.tallies[candidateID] = sum
	p.HasVoted = true
	rs.totalVotes++
	rs.candidateVotes[candidateID]++

	r.emit(EventVoteCast, code, caller, candidateID)

	// Full turnout ends the room inside the same transaction; no further
	// votes are acceptable and nobody has to wait for the deadline.
	if rs.totalVotes >= uint64(rs.MaxParticipants) && rs.IsActive {
		rs.IsActive = false
		r.emit(EventRoomEnded, code, caller, 0)
	}
	return nil
}

// EndRoom ends a room explicitly. Creator only; fails once ended.
func (r *Registry) EndRoom(ctx context.Context, caller fhe.Address, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return err
	}
	if rs.Creator != caller {
		return ErrNotCreator
	}
	if !rs.IsActive {
		return ErrRoomNotActive
	}
	rs.IsActive = false
	r.emit(EventRoomEnded, code, caller, 0)
	return nil
}

// CheckAndEndRoom is the permissionless maintenance transition: anyone may
// flip an active room inactive once the wall clock passes its end time, so
// the lifecycle does not depend on the creator being online.
func (r *Registry) CheckAndEndRoom(ctx context.Context, caller fhe.Address, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return err
	}
	if !rs.IsActive {
		return ErrRoomNotActive
	}
	if rs.EndTime.After(r.now()) {
		return ErrDeadlineNotReached
	}
	rs.IsActive = false
	r.emit(EventRoomEnded, code, caller, 0)
	return nil
}

// PublishResults stores the creator's plaintext tally for an ended room.
//
// This is an attestation, not a proof: the registry does not compare the
// submitted numbers against the encrypted totals or the mirror counters, and
// a repeat call silently replaces the previous values. Trust-the-creator by
// design; integrators must treat the published numbers accordingly.
func (r *Registry) PublishResults(ctx context.Context, caller fhe.Address, code string, counts []uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.room(code)
	if err != nil {
		return err
	}
	if rs.Creator != caller {
		return ErrNotCreator
	}
	if rs.IsActive {
		return ErrStillActive
	}
	if len(counts) != rs.CandidateCount {
		return ErrLengthMismatch
	}

	rs.clearResults = append([]uint64(nil), counts...)
	rs.resultsPublished = true

	r.emit(EventResultsPublished, code, caller, 0)
	return nil
}
