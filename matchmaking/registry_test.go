package matchmaking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"card-session-server/cards"
	"card-session-server/config"
	"card-session-server/effects"
	"card-session-server/match"
	"card-session-server/matcherrors"
	"card-session-server/protocol"
	"card-session-server/storage"
)

type fakeStore struct {
	mu      sync.Mutex
	records []storage.MatchRecord
	added   chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{added: make(chan struct{}, 16)}
}

func (f *fakeStore) RecordResult(_ context.Context, rec storage.MatchRecord) error {
	f.mu.Lock()
	f.records = append(f.records, rec)
	f.mu.Unlock()
	f.added <- struct{}{}
	return nil
}

func (f *fakeStore) RecentResults(_ context.Context, limit int) ([]storage.MatchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storage.MatchRecord(nil), f.records...), nil
}

func (f *fakeStore) ResultsByUserID(_ context.Context, _ string, _ int) ([]storage.MatchRecord, error) {
	return nil, nil
}

func (f *fakeStore) Close() {}

func (f *fakeStore) waitRecord(t *testing.T) storage.MatchRecord {
	t.Helper()
	select {
	case <-f.added:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result to be recorded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[len(f.records)-1]
}

func newTestRegistry(t *testing.T) (*Registry, *fakeStore) {
	t.Helper()
	catalog, err := cards.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	cfg := config.Defaults()
	cfg.AckTimeoutMS = 50
	fx := effects.NewRegistry()
	effects.RegisterAll(fx)
	store := newFakeStore()
	r := NewRegistry(cfg, catalog, fx, store)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, c := range []protocol.ConnectionID{1, 2, 3, 4} {
			r.Leave(c)
		}
		r.Shutdown(ctx)
	})
	return r, store
}

func newPlayer(conn protocol.ConnectionID, name string) Player {
	return Player{Conn: conn, Name: name, UserID: name + "-id", Send: make(chan []byte, 256)}
}

type envelope struct {
	Tag     protocol.EventTag `json:"tag"`
	EventID uint64            `json:"eventId"`
	Payload json.RawMessage   `json:"payload"`
}

// waitForTag reads from ch until an event with tag arrives.
func waitForTag(t *testing.T, ch chan []byte, tag protocol.EventTag) envelope {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-ch:
			var env envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			if env.Tag == tag {
				return env
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", tag)
		}
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting until %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTwoPlayersArePaired(t *testing.T) {
	r, _ := newTestRegistry(t)
	a, b := newPlayer(1, "alice"), newPlayer(2, "bob")

	sa, err := r.Join(a)
	if err != nil {
		t.Fatalf("join alice: %v", err)
	}
	if r.Waiting() != 1 {
		t.Errorf("expected 1 waiting session, got %d", r.Waiting())
	}
	sb, err := r.Join(b)
	if err != nil {
		t.Fatalf("join bob: %v", err)
	}
	if sa != sb {
		t.Fatal("expected both players in the same session")
	}
	if r.Count() != 1 || r.Waiting() != 0 {
		t.Errorf("expected 1 live and 0 waiting, got %d and %d", r.Count(), r.Waiting())
	}

	for _, p := range []Player{a, b} {
		env := waitForTag(t, p.Send, protocol.EventAcceptPrompt)
		var prompt protocol.AcceptPromptPayload
		if err := json.Unmarshal(env.Payload, &prompt); err != nil {
			t.Fatalf("decode prompt: %v", err)
		}
		if prompt.MatchID != sa.ID {
			t.Errorf("expected prompt for %s, got %s", sa.ID, prompt.MatchID)
		}
	}
}

func TestThirdPlayerOpensNewSession(t *testing.T) {
	r, _ := newTestRegistry(t)
	sa, _ := r.Join(newPlayer(1, "alice"))
	r.Join(newPlayer(2, "bob"))
	sc, err := r.Join(newPlayer(3, "carol"))
	if err != nil {
		t.Fatalf("join carol: %v", err)
	}
	if sc == sa {
		t.Fatal("expected a new session for the third player")
	}
	if r.Count() != 2 || r.Waiting() != 1 {
		t.Errorf("expected 2 live and 1 waiting, got %d and %d", r.Count(), r.Waiting())
	}
}

func TestDoubleJoinRejected(t *testing.T) {
	r, _ := newTestRegistry(t)
	p := newPlayer(1, "alice")
	if _, err := r.Join(p); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := r.Join(p); !errors.Is(err, matcherrors.ErrAlreadyInMatch) {
		t.Errorf("expected ErrAlreadyInMatch, got %v", err)
	}
}

func TestPostFromUnroutedConnection(t *testing.T) {
	r, _ := newTestRegistry(t)
	err := r.Post(42, match.Action{Type: match.ActionEndTurn})
	if !errors.Is(err, matcherrors.ErrNotInMatch) {
		t.Errorf("expected ErrNotInMatch, got %v", err)
	}
}

func TestLeaveDuringReadyCheckReopensSession(t *testing.T) {
	r, _ := newTestRegistry(t)
	a, b := newPlayer(1, "alice"), newPlayer(2, "bob")
	s, _ := r.Join(a)
	r.Join(b)
	waitForTag(t, b.Send, protocol.EventAcceptPrompt)

	r.Leave(a.Conn)
	waitForTag(t, b.Send, protocol.EventMatchCanceled)
	waitUntil(t, "session reopened", func() bool { return r.Waiting() == 1 })

	c := newPlayer(3, "carol")
	sc, err := r.Join(c)
	if err != nil {
		t.Fatalf("join carol: %v", err)
	}
	if sc != s {
		t.Fatal("expected carol to fill the reopened session")
	}
	waitForTag(t, c.Send, protocol.EventAcceptPrompt)
	if r.Route(a.Conn) != nil {
		t.Error("expected alice to be unrouted")
	}
}

func TestJoinSkipsStoppedSession(t *testing.T) {
	r, _ := newTestRegistry(t)

	// A session that stopped while still queued, before its teardown ran.
	dead := match.NewSession("dead", r.cfg, r.catalog, r.effects, match.Options{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		dead.Run()
	}()
	dead.Post(match.Action{Type: match.ActionJoin, Conn: 99, Name: "ghost", Send: make(chan []byte, 16)})
	dead.Post(match.Action{Type: match.ActionLeave, Conn: 99})
	<-done
	r.mu.Lock()
	r.members[dead] = []protocol.ConnectionID{99}
	r.open = append(r.open, dead)
	r.mu.Unlock()

	a := newPlayer(1, "alice")
	s, err := r.Join(a)
	if err != nil {
		t.Fatalf("join alice: %v", err)
	}
	if s == dead {
		t.Fatal("expected alice to be routed past the stopped session")
	}
	if got := r.Route(a.Conn); got != s {
		t.Error("expected alice to be routed to the new session")
	}
	r.mu.Lock()
	_, kept := r.members[dead]
	r.mu.Unlock()
	if kept {
		t.Error("expected the stopped session to be forgotten")
	}
	if r.Waiting() != 1 {
		t.Errorf("waiting sessions = %d, want 1", r.Waiting())
	}
}

func TestDeclineRecordsCanceledResult(t *testing.T) {
	r, store := newTestRegistry(t)
	a, b := newPlayer(1, "alice"), newPlayer(2, "bob")
	s, _ := r.Join(a)
	r.Join(b)
	waitForTag(t, a.Send, protocol.EventAcceptPrompt)

	if err := r.Post(a.Conn, match.Action{Type: match.ActionAcceptReadyCheck, MatchID: s.ID, Accept: false}); err != nil {
		t.Fatalf("post decline: %v", err)
	}
	waitForTag(t, b.Send, protocol.EventMatchCanceled)

	rec := store.waitRecord(t)
	if !rec.Canceled || rec.Reason != match.ReasonDeclined {
		t.Errorf("expected canceled record with reason %q, got %+v", match.ReasonDeclined, rec)
	}
	if w, ok := rec.Winner(); ok {
		t.Errorf("expected no winner, got %+v", w)
	}

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish after ack timeout")
	}
	waitUntil(t, "session torn down", func() bool { return r.Count() == 0 })
	if r.Route(a.Conn) != nil || r.Route(b.Conn) != nil {
		t.Error("expected routes cleared on teardown")
	}
	if got := r.Recent(10); len(got) != 1 || got[0].MatchID != s.ID {
		t.Errorf("expected recent result for %s, got %+v", s.ID, got)
	}
}

func TestConcedeRecordsWinner(t *testing.T) {
	r, store := newTestRegistry(t)
	a, b := newPlayer(1, "alice"), newPlayer(2, "bob")
	s, _ := r.Join(a)
	r.Join(b)
	for _, p := range []Player{a, b} {
		waitForTag(t, p.Send, protocol.EventAcceptPrompt)
		r.Post(p.Conn, match.Action{Type: match.ActionAcceptReadyCheck, MatchID: s.ID, Accept: true})
	}
	waitForTag(t, a.Send, protocol.EventTurnChanged)

	r.Post(a.Conn, match.Action{Type: match.ActionConcede})
	env := waitForTag(t, b.Send, protocol.EventMatchEnded)
	var ended protocol.MatchEndedPayload
	json.Unmarshal(env.Payload, &ended)
	if ended.Winner != b.Conn || ended.Reason != match.ReasonConceded {
		t.Errorf("expected bob to win by concession, got %+v", ended)
	}

	rec := store.waitRecord(t)
	w, ok := rec.Winner()
	if !ok || w.UserID != "bob-id" {
		t.Errorf("expected bob recorded as winner, got %+v", rec)
	}
	if rec.Canceled {
		t.Error("expected a completed match record")
	}
}

func TestRequeueAfterMatchEnds(t *testing.T) {
	r, store := newTestRegistry(t)
	a, b := newPlayer(1, "alice"), newPlayer(2, "bob")
	s, _ := r.Join(a)
	r.Join(b)
	waitForTag(t, a.Send, protocol.EventAcceptPrompt)
	r.Post(b.Conn, match.Action{Type: match.ActionAcceptReadyCheck, MatchID: s.ID, Accept: false})
	store.waitRecord(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	next, err := r.Requeue(ctx, a)
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if next == s {
		t.Fatal("expected a fresh session after requeue")
	}
	if r.Route(a.Conn) != next {
		t.Error("expected alice routed to the new session")
	}
}

func TestRequeueGivesUpWhileMatchRuns(t *testing.T) {
	r, _ := newTestRegistry(t)
	a := newPlayer(1, "alice")
	r.Join(a)
	r.Join(newPlayer(2, "bob"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Requeue(ctx, a); !errors.Is(err, matcherrors.ErrAlreadyInMatch) {
		t.Errorf("expected ErrAlreadyInMatch, got %v", err)
	}
}

func TestToRecordWinnerIndex(t *testing.T) {
	res := match.Result{
		MatchID: "m1",
		Players: []match.PlayerResult{
			{Conn: 1, Name: "alice", UserID: "a", Health: 0},
			{Conn: 2, Name: "bob", UserID: "b", Health: 12},
		},
		Winner: 2,
		Reason: match.ReasonDefeated,
		Turns:  9,
	}
	rec := ToRecord(res)
	if rec.WinnerIndex != 1 {
		t.Errorf("expected winner index 1, got %d", rec.WinnerIndex)
	}
	if rec.Players[1].Health != 12 || rec.Turns != 9 {
		t.Errorf("unexpected record %+v", rec)
	}

	res.Canceled = true
	res.Winner = 0
	if got := ToRecord(res).WinnerIndex; got != -1 {
		t.Errorf("expected no winner for canceled match, got %d", got)
	}
}
