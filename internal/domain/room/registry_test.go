package room

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
	"time"

	"voting-rooms/internal/fhe"
)

// fakeEngine is an in-memory stand-in for the encryption collaborator. It
// keeps plaintext sums behind opaque handles and enforces the same proof and
// grant rules as the real engine.
type fakeEngine struct {
	values    map[string]uint64 // handle -> plaintext sum
	nextID    uint64
	zeroCalls int
	failZero  bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{values: make(map[string]uint64)}
}

func (e *fakeEngine) mint(sum uint64) *fhe.Ciphertext {
	e.nextID++
	raw := make([]byte, 16)
	binary.BigEndian.PutUint64(raw, e.nextID)
	binary.BigEndian.PutUint64(raw[8:], sum)
	ct := fhe.NewCiphertext(raw)
	e.values[ct.Handle()] = sum
	return ct
}

func (e *fakeEngine) EncryptZero() (*fhe.Ciphertext, error) {
	if e.failZero {
		return nil, errors.New("engine down")
	}
	e.zeroCalls++
	return e.mint(0), nil
}

func fakeProof(external []byte, sender, contract fhe.Address) []byte {
	return []byte(fmt.Sprintf("%x|%s|%s", external, sender, contract))
}

func (e *fakeEngine) VerifyInput(external, proof []byte, sender, contract fhe.Address) (*fhe.Ciphertext, error) {
	if string(proof) != string(fakeProof(external, sender, contract)) {
		return nil, fhe.ErrInvalidProof
	}
	if len(external) != 8 {
		return nil, fhe.ErrInvalidProof
	}
	return e.mint(binary.BigEndian.Uint64(external)), nil
}

func (e *fakeEngine) Add(a, b *fhe.Ciphertext) (*fhe.Ciphertext, error) {
	va, ok := e.values[a.Handle()]
	if !ok {
		return nil, errors.New("unknown operand")
	}
	vb, ok := e.values[b.Handle()]
	if !ok {
		return nil, errors.New("unknown operand")
	}
	return e.mint(va + vb), nil
}

func (e *fakeEngine) Allow(ct *fhe.Ciphertext, addr fhe.Address) {
	ct.Grant(addr)
}

func (e *fakeEngine) Decrypt(ct *fhe.Ciphertext, reader fhe.Address) (uint64, error) {
	if !ct.CanDecrypt(reader) {
		return 0, fhe.ErrNoGrant
	}
	v, ok := e.values[ct.Handle()]
	if !ok {
		return 0, errors.New("unknown handle")
	}
	return v, nil
}

// encryptVote builds the wire form of an encrypted vote for the fake engine.
func encryptVote(value uint64, sender, contract fhe.Address) (external, proof []byte) {
	external = make([]byte, 8)
	binary.BigEndian.PutUint64(external, value)
	return external, fakeProof(external, sender, contract)
}

const contractAddr = fhe.Address("0xc0de")

type fixture struct {
	reg    *Registry
	engine *fakeEngine
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{engine: newFakeEngine(), now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	f.reg = New(f.engine, contractAddr, nil)
	f.reg.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) params(code string, max int) CreateRoomParams {
	return CreateRoomParams{
		Code:            code,
		Title:           "title-" + code,
		MaxParticipants: max,
		EndTime:         f.now.Add(time.Hour),
	}
}

func (f *fixture) createWithCandidates(t *testing.T, creator fhe.Address, code string, max int, names ...string) {
	t.Helper()
	descs := make([]string, len(names))
	urls := make([]string, len(names))
	for i, n := range names {
		descs[i] = "about " + n
		urls[i] = "ipfs://" + n
	}
	if err := f.reg.CreateRoomWithCandidates(context.Background(), creator, f.params(code, max), names, descs, urls); err != nil {
		t.Fatalf("create room %s: %v", code, err)
	}
}

func (f *fixture) vote(t *testing.T, voter fhe.Address, code string, candidate int) error {
	t.Helper()
	external, proof := encryptVote(1, voter, contractAddr)
	return f.reg.Vote(context.Background(), voter, code, candidate, external, proof)
}

func TestCreateRoomValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		params CreateRoomParams
		want   error
	}{
		{"empty code", CreateRoomParams{MaxParticipants: 2, EndTime: f.now.Add(time.Hour)}, ErrEmptyCode},
		{"zero capacity", CreateRoomParams{Code: "r", EndTime: f.now.Add(time.Hour)}, ErrInvalidCapacity},
		{"negative capacity", CreateRoomParams{Code: "r", MaxParticipants: -1, EndTime: f.now.Add(time.Hour)}, ErrInvalidCapacity},
		{"end time in the past", CreateRoomParams{Code: "r", MaxParticipants: 2, EndTime: f.now.Add(-time.Minute)}, ErrEndTimeNotFuture},
		{"end time exactly now", CreateRoomParams{Code: "r", MaxParticipants: 2, EndTime: f.now}, ErrEndTimeNotFuture},
	}
	for _, tc := range cases {
		if err := f.reg.CreateRoom(ctx, "alice", tc.params); !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}

	if err := f.reg.CreateRoom(ctx, "alice", f.params("dup", 3)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.reg.CreateRoom(ctx, "bob", f.params("dup", 3)); !errors.Is(err, ErrRoomExists) {
		t.Fatalf("duplicate code: got %v, want ErrRoomExists", err)
	}
	if f.reg.Count() != 1 {
		t.Fatalf("failed creates must not register rooms, count=%d", f.reg.Count())
	}
}

func TestCreatorAutoJoins(t *testing.T) {
	f := newFixture(t)
	if err := f.reg.CreateRoom(context.Background(), "alice", f.params("r1", 3)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := f.reg.Get("r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ParticipantCount != 1 || !got.IsActive || got.IsClosed {
		t.Fatalf("fresh room state: %+v", got)
	}
	if ok, _ := f.reg.IsParticipant("r1", "alice"); !ok {
		t.Fatal("creator should be auto-joined")
	}
	if ok, _ := f.reg.IsParticipant("r1", "bob"); ok {
		t.Fatal("stranger should not be a participant")
	}
}

func TestCreateRoomWithCandidatesAtomicity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.reg.CreateRoomWithCandidates(ctx, "alice", f.params("r1", 2),
		[]string{"A", "B"}, []string{"a"}, []string{"u1", "u2"})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("mismatched arrays: got %v", err)
	}

	err = f.reg.CreateRoomWithCandidates(ctx, "alice", f.params("r1", 2),
		[]string{"A"}, []string{"a"}, []string{"u1"})
	if !errors.Is(err, ErrTooFewCandidates) {
		t.Fatalf("single candidate: got %v", err)
	}

	f.engine.failZero = true
	err = f.reg.CreateRoomWithCandidates(ctx, "alice", f.params("r1", 2),
		[]string{"A", "B"}, []string{"a", "b"}, []string{"u1", "u2"})
	if err == nil {
		t.Fatal("engine failure should abort the create")
	}
	if f.reg.Count() != 0 {
		t.Fatal("aborted create must leave no room behind")
	}
	if _, err := f.reg.Get("r1"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("aborted room should not exist: %v", err)
	}

	f.engine.failZero = false
	f.createWithCandidates(t, "alice", "r1", 2, "A", "B", "C")
	got, _ := f.reg.Get("r1")
	if got.CandidateCount != 3 {
		t.Fatalf("candidate count = %d, want 3", got.CandidateCount)
	}
}

func TestCandidateRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.createWithCandidates(t, "alice", "r1", 2, "A", "B", "C")

	for i, name := range []string{"A", "B", "C"} {
		c, err := f.reg.Candidate("r1", i)
		if err != nil {
			t.Fatalf("candidate %d: %v", i, err)
		}
		if c.ID != i || c.Name != name || c.Description != "about "+name || c.ImageURL != "ipfs://"+name || !c.Exists {
			t.Fatalf("candidate %d round trip: %+v", i, c)
		}
	}
	if _, err := f.reg.Candidate("r1", 3); !errors.Is(err, ErrInvalidCandidate) {
		t.Fatalf("out of range candidate: %v", err)
	}
}

func TestAddCandidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWithCandidates(t, "alice", "r1", 3, "A", "B")

	if _, err := f.reg.AddCandidate(ctx, "mallory", "r1", "X", "", ""); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("non-creator add: %v", err)
	}

	id, err := f.reg.AddCandidate(ctx, "alice", "r1", "C", "third", "ipfs://C")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id != 2 {
		t.Fatalf("new candidate id = %d, want 2", id)
	}
	if err := f.reg.AddCandidatesBatch(ctx, "alice", "r1", []string{"D", "E"}, []string{"", ""}, []string{"", ""}); err != nil {
		t.Fatalf("batch add: %v", err)
	}
	got, _ := f.reg.Get("r1")
	if got.CandidateCount != 5 {
		t.Fatalf("candidate count = %d, want 5", got.CandidateCount)
	}

	if err := f.reg.EndRoom(ctx, "alice", "r1"); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := f.reg.AddCandidate(ctx, "alice", "r1", "F", "", ""); !errors.Is(err, ErrRoomNotActive) {
		t.Fatalf("add after end: %v", err)
	}
}

func TestJoinRoomChecksInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.reg.JoinRoom(ctx, "bob", "nope", ""); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("missing room: %v", err)
	}

	p := f.params("locked", 2)
	p.HasPassword = true
	p.PasswordHash = HashPassword("hunter2")
	if err := f.reg.CreateRoom(ctx, "alice", p); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.reg.JoinRoom(ctx, "bob", "locked", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong password: %v", err)
	}
	got, _ := f.reg.Get("locked")
	if got.ParticipantCount != 1 {
		t.Fatalf("failed join must not change count, got %d", got.ParticipantCount)
	}

	if err := f.reg.JoinRoom(ctx, "bob", "locked", "hunter2"); err != nil {
		t.Fatalf("join: %v", err)
	}
	got, _ = f.reg.Get("locked")
	if got.ParticipantCount != 2 || !got.IsClosed {
		t.Fatalf("room should be full and closed: %+v", got)
	}

	// The room is full: a stranger with the right password hits the closed
	// gate before the password gate ever runs.
	if err := f.reg.JoinRoom(ctx, "carol", "locked", "hunter2"); !errors.Is(err, ErrRoomClosed) {
		t.Fatalf("full room: %v", err)
	}
	// Closure also wins over the membership check: even the creator is told
	// the room is closed, not that they already joined.
	if err := f.reg.JoinRoom(ctx, "alice", "locked", "hunter2"); !errors.Is(err, ErrRoomClosed) {
		t.Fatalf("rejoin full room: %v", err)
	}
}

func TestJoinTwiceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.reg.CreateRoom(ctx, "alice", f.params("r1", 5)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.reg.JoinRoom(ctx, "bob", "r1", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := f.reg.JoinRoom(ctx, "bob", "r1", ""); !errors.Is(err, ErrAlreadyParticipant) {
		t.Fatalf("second join: %v", err)
	}
	if err := f.reg.JoinRoom(ctx, "alice", "r1", ""); !errors.Is(err, ErrAlreadyParticipant) {
		t.Fatalf("creator rejoin: %v", err)
	}
}

func TestJoinAfterDeadline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.reg.CreateRoom(ctx, "alice", f.params("r1", 5)); err != nil {
		t.Fatalf("create: %v", err)
	}
	f.now = f.now.Add(2 * time.Hour)
	if err := f.reg.JoinRoom(ctx, "bob", "r1", ""); !errors.Is(err, ErrRoomEnded) {
		t.Fatalf("join past deadline: %v", err)
	}
}

func TestVoteLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWithCandidates(t, "alice", "r1", 3, "A", "B")
	if err := f.reg.JoinRoom(ctx, "bob", "r1", ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := f.vote(t, "carol", "r1", 0); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("stranger vote: %v", err)
	}
	if err := f.vote(t, "bob", "r1", 5); !errors.Is(err, ErrInvalidCandidate) {
		t.Fatalf("bad candidate: %v", err)
	}
	if err := f.vote(t, "bob", "r1", -1); !errors.Is(err, ErrInvalidCandidate) {
		t.Fatalf("negative candidate: %v", err)
	}

	// Tampered proof: the engine refuses and nothing is recorded.
	external, _ := encryptVote(1, "bob", contractAddr)
	badProof := fakeProof(external, "someone-else", contractAddr)
	if err := f.reg.Vote(ctx, "bob", "r1", 0, external, badProof); !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("tampered proof: %v", err)
	}
	if voted, _ := f.reg.HasVoted("r1", "bob"); voted {
		t.Fatal("failed vote must not set hasVoted")
	}
	if total, _ := f.reg.TotalVotes("r1"); total != 0 {
		t.Fatalf("failed vote must not count, total=%d", total)
	}

	if err := f.vote(t, "bob", "r1", 0); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := f.vote(t, "bob", "r1", 1); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("second vote: %v", err)
	}
	if total, _ := f.reg.TotalVotes("r1"); total != 1 {
		t.Fatalf("total after duplicate attempt = %d, want 1", total)
	}
	if n, _ := f.reg.CandidateVoteCount("r1", 0); n != 1 {
		t.Fatalf("candidate 0 count = %d, want 1", n)
	}
	if n, _ := f.reg.CandidateVoteCount("r1", 1); n != 0 {
		t.Fatalf("candidate 1 count = %d, want 0", n)
	}
}

func TestVoteGrantsFollowAggregate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWithCandidates(t, "alice", "r1", 3, "A", "B")

	ct, err := f.reg.CandidateTally("r1", 0)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if !ct.CanDecrypt(contractAddr) || !ct.CanDecrypt("alice") {
		t.Fatalf("fresh zero grants: %v", ct.Grants())
	}

	if err := f.reg.JoinRoom(ctx, "bob", "r1", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := f.vote(t, "bob", "r1", 0); err != nil {
		t.Fatalf("vote: %v", err)
	}

	ct, _ = f.reg.CandidateTally("r1", 0)
	for _, who := range []fhe.Address{contractAddr, "alice", "bob"} {
		if !ct.CanDecrypt(who) {
			t.Fatalf("%s lost access to the aggregate, grants: %v", who, ct.Grants())
		}
	}
	if ct.CanDecrypt("carol") {
		t.Fatal("stranger must not be able to decrypt the aggregate")
	}

	sum, err := f.engine.Decrypt(ct, "alice")
	if err != nil {
		t.Fatalf("creator decrypt: %v", err)
	}
	if sum != 1 {
		t.Fatalf("aggregate = %d, want 1", sum)
	}
	if _, err := f.engine.Decrypt(ct, "carol"); !errors.Is(err, fhe.ErrNoGrant) {
		t.Fatalf("ungranted decrypt: %v", err)
	}
}

func TestAutoCloseOnFullTurnout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWithCandidates(t, "alice", "r1", 2, "A", "B")
	if err := f.reg.JoinRoom(ctx, "bob", "r1", ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := f.vote(t, "alice", "r1", 0); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	got, _ := f.reg.Get("r1")
	if !got.IsActive {
		t.Fatal("room must stay active before full turnout")
	}

	if err := f.vote(t, "bob", "r1", 1); err != nil {
		t.Fatalf("second vote: %v", err)
	}
	got, _ = f.reg.Get("r1")
	if got.IsActive {
		t.Fatal("full turnout must end the room in the same operation")
	}
	if !got.IsClosed {
		t.Fatal("room filled earlier, must stay closed")
	}
	for i, want := range []uint64{1, 1} {
		if n, _ := f.reg.CandidateVoteCount("r1", i); n != want {
			t.Fatalf("candidate %d count = %d, want %d", i, n, want)
		}
	}

	// No further votes, not even from someone who never voted.
	if err := f.vote(t, "carol", "r1", 0); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("stranger after close: %v", err)
	}
}

func TestEndRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWithCandidates(t, "alice", "r1", 3, "A", "B")

	if err := f.reg.EndRoom(ctx, "bob", "r1"); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("non-creator end: %v", err)
	}
	if err := f.reg.EndRoom(ctx, "alice", "r1"); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := f.reg.EndRoom(ctx, "alice", "r1"); !errors.Is(err, ErrRoomNotActive) {
		t.Fatalf("double end: %v", err)
	}
	got, _ := f.reg.Get("r1")
	if got.IsActive {
		t.Fatal("room should be inactive")
	}
}

func TestCheckAndEndRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWithCandidates(t, "alice", "r1", 3, "A", "B")

	if err := f.reg.CheckAndEndRoom(ctx, "anyone", "r1"); !errors.Is(err, ErrDeadlineNotReached) {
		t.Fatalf("before deadline: %v", err)
	}
	f.now = f.now.Add(time.Hour)
	if err := f.reg.CheckAndEndRoom(ctx, "anyone", "r1"); err != nil {
		t.Fatalf("at deadline: %v", err)
	}
	if err := f.reg.CheckAndEndRoom(ctx, "anyone", "r1"); !errors.Is(err, ErrRoomNotActive) {
		t.Fatalf("repeat sweep: %v", err)
	}
}

func TestPublishResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWithCandidates(t, "alice", "r1", 3, "A", "B")

	if err := f.reg.PublishResults(ctx, "alice", "r1", []uint64{1, 2}); !errors.Is(err, ErrStillActive) {
		t.Fatalf("publish while active: %v", err)
	}
	if _, err := f.reg.ClearResults("r1"); !errors.Is(err, ErrResultsNotReady) {
		t.Fatalf("results before publish: %v", err)
	}

	if err := f.reg.EndRoom(ctx, "alice", "r1"); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := f.reg.PublishResults(ctx, "bob", "r1", []uint64{1, 2}); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("non-creator publish: %v", err)
	}
	if err := f.reg.PublishResults(ctx, "alice", "r1", []uint64{1}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("short array: %v", err)
	}

	if err := f.reg.PublishResults(ctx, "alice", "r1", []uint64{1, 2}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	got, err := f.reg.ClearResults("r1")
	if err != nil {
		t.Fatalf("clear results: %v", err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("results = %v", got)
	}
	if ok, _ := f.reg.ResultsPublished("r1"); !ok {
		t.Fatal("results should be marked published")
	}

	// Republish replaces: attestation, not verification.
	if err := f.reg.PublishResults(ctx, "alice", "r1", []uint64{9, 9}); err != nil {
		t.Fatalf("republish: %v", err)
	}
	got, _ = f.reg.ClearResults("r1")
	if got[0] != 9 || got[1] != 9 {
		t.Fatalf("republished results = %v", got)
	}
}

func TestActiveRoomsTimeFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	short := f.params("short", 3)
	short.EndTime = f.now.Add(10 * time.Minute)
	if err := f.reg.CreateRoom(ctx, "alice", short); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.reg.CreateRoom(ctx, "alice", f.params("long", 3)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := f.reg.ActiveRooms(); len(got) != 2 {
		t.Fatalf("active rooms = %d, want 2", len(got))
	}

	// Past its deadline the room disappears from the active list even
	// though nobody has flipped the flag yet.
	f.now = f.now.Add(30 * time.Minute)
	got := f.reg.ActiveRooms()
	if len(got) != 1 || got[0].Code != "long" {
		t.Fatalf("active rooms after expiry: %+v", got)
	}
	if r, _ := f.reg.Get("short"); !r.IsActive {
		t.Fatal("stored flag should be untouched by the time filter")
	}

	exp := f.reg.ExpiredActive()
	if len(exp) != 1 || exp[0] != "short" {
		t.Fatalf("expired set: %v", exp)
	}
}

func TestRoomsPaginated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := f.reg.CreateRoom(ctx, "alice", f.params(fmt.Sprintf("r%d", i), 2)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if _, _, err := f.reg.RoomsPaginated(0, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("zero limit: %v", err)
	}

	page, more, err := f.reg.RoomsPaginated(0, 2)
	if err != nil || len(page) != 2 || !more {
		t.Fatalf("page 1: %v %v %v", page, more, err)
	}
	if page[0].Code != "r0" || page[1].Code != "r1" {
		t.Fatalf("page 1 order: %s %s", page[0].Code, page[1].Code)
	}

	page, more, err = f.reg.RoomsPaginated(4, 2)
	if err != nil || len(page) != 1 || more {
		t.Fatalf("last page: %v %v %v", page, more, err)
	}
	page, more, err = f.reg.RoomsPaginated(40, 2)
	if err != nil || len(page) != 0 || more {
		t.Fatalf("past end: %v %v %v", page, more, err)
	}

	codes := f.reg.AllRoomCodes()
	if len(codes) != 5 || codes[0] != "r0" || codes[4] != "r4" {
		t.Fatalf("codes: %v", codes)
	}
	if f.reg.Count() != 5 {
		t.Fatalf("count = %d", f.reg.Count())
	}
}

func TestInvariantsHoldAcrossScenario(t *testing.T) {
	// End-to-end: R1, two seats, candidates A and B, full turnout.
	f := newFixture(t)
	ctx := context.Background()
	f.createWithCandidates(t, "alice", "R1", 2, "A", "B")

	check := func(stage string) {
		t.Helper()
		r, err := f.reg.Get("R1")
		if err != nil {
			t.Fatalf("%s: %v", stage, err)
		}
		if r.ParticipantCount > r.MaxParticipants {
			t.Fatalf("%s: participant count %d exceeds max %d", stage, r.ParticipantCount, r.MaxParticipants)
		}
		if r.IsClosed != (r.ParticipantCount == r.MaxParticipants) {
			t.Fatalf("%s: closed flag inconsistent: %+v", stage, r)
		}
	}

	check("created")
	if err := f.reg.JoinRoom(ctx, "bob", "R1", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	check("joined")

	if err := f.vote(t, "alice", "R1", 0); err != nil {
		t.Fatalf("vote A: %v", err)
	}
	check("first vote")
	if r, _ := f.reg.Get("R1"); !r.IsActive {
		t.Fatal("room must stay active after first vote")
	}

	if err := f.vote(t, "bob", "R1", 1); err != nil {
		t.Fatalf("vote B: %v", err)
	}
	check("second vote")

	r, _ := f.reg.Get("R1")
	if r.IsActive || !r.IsClosed {
		t.Fatalf("final state: %+v", r)
	}
	results, err := f.reg.AllVotingResults("R1")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 2 || results[0].Votes != 1 || results[1].Votes != 1 {
		t.Fatalf("vote distribution: %+v", results)
	}
	if total, _ := f.reg.TotalVotes("R1"); total != 2 {
		t.Fatalf("total votes = %d", total)
	}
}

func TestEventsEmitted(t *testing.T) {
	events := make(chan Event, 32)
	f := newFixture(t)
	f.reg = New(f.engine, contractAddr, events)
	f.reg.now = func() time.Time { return f.now }
	ctx := context.Background()

	f.createWithCandidates(t, "alice", "r1", 2, "A", "B")
	if err := f.reg.JoinRoom(ctx, "bob", "r1", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := f.vote(t, "alice", "r1", 0); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := f.vote(t, "bob", "r1", 1); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := f.reg.PublishResults(ctx, "alice", "r1", []uint64{1, 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	close(events)

	var kinds []EventKind
	for ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	want := []EventKind{
		EventRoomCreated, EventCandidateAdded, EventCandidateAdded,
		EventParticipantJoined, EventVoteCast, EventVoteCast, EventRoomEnded,
		EventResultsPublished,
	}
	if len(kinds) != len(want) {
		t.Fatalf("event kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestHashPasswordStable(t *testing.T) {
	a := HashPassword("hunter2")
	if a != HashPassword("hunter2") {
		t.Fatal("hash must be deterministic")
	}
	if a == HashPassword("Hunter2") {
		t.Fatal("hash must not normalize case")
	}
	if len(a) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(a))
	}
}
