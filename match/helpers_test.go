package match

import (
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"card-session-server/cards"
	"card-session-server/config"
	"card-session-server/protocol"
)

const (
	connA protocol.ConnectionID = 1
	connB protocol.ConnectionID = 2
)

// testDeck is small enough that the opening hand takes all of it.
var testDeck = []string{
	"card_simple_damage_2",
	"card_heal_3",
	"card_a_big_sword",
	"card_acrobat",
	"card_auction",
	"card_backfire",
	"card_ankle_biter",
}

// mockEffects is a test double for EffectProvider.
type mockEffects map[string]Handler

func (m mockEffects) Handler(key string) (Handler, bool) {
	h, ok := m[key]
	return h, ok
}

func defaultMockEffects() mockEffects {
	return mockEffects{
		"card_simple_damage_2": func(s *Session, ctx CardContext) bool {
			t := s.Opponent(ctx.Owner)
			if len(ctx.Targets) > 0 {
				t = ctx.Targets[0]
			}
			s.DealDamage(2, ctx.CardID, ctx.Owner, t)
			return true
		},
		"card_heal_3": func(s *Session, ctx CardContext) bool {
			s.Heal(3, ctx.CardID, ctx.Owner)
			return true
		},
		"card_auction": func(s *Session, ctx CardContext) bool {
			opp := s.Opponent(ctx.Owner)
			s.AddCurrency(2, ctx.CardID, opp)
			s.ChooseDiscard(1, opp, ctx.CardID, nil)
			return true
		},
		"card_backfire": func(s *Session, ctx CardContext) bool {
			return s.Ledger(ctx.Owner).Weapon.Equipped
		},
		"card_ankle_biter": func(s *Session, ctx CardContext) bool {
			s.AddPower(-1, ctx.CardID, s.Opponent(ctx.Owner))
			return true
		},
	}
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.DeckList = append([]string(nil), testDeck...)
	cfg.AckTimeoutMS = 500
	return cfg
}

type timer struct {
	d time.Duration
	a Action
}

// harness drives a session synchronously with a fake clock and captured timers.
type harness struct {
	t       *testing.T
	s       *Session
	now     time.Time
	timers  []timer
	sendA   chan []byte
	sendB   chan []byte
	results []Result
	reopens int
}

func newHarness(t *testing.T, cfg *config.Config, fx EffectProvider, combat CombatPolicy) *harness {
	t.Helper()
	catalog, err := cards.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	h := &harness{
		t:     t,
		now:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		sendA: make(chan []byte, 512),
		sendB: make(chan []byte, 512),
	}
	h.s = NewSession("match-1", cfg, catalog, fx, Options{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return h.now },
		Schedule: func(d time.Duration, a Action) { h.timers = append(h.timers, timer{d, a}) },
		Rand:     rand.New(rand.NewSource(1)),
		Combat:   combat,
		Hooks: Hooks{
			OnEnded:  func(r Result) { h.results = append(h.results, r) },
			OnReopen: func(*Session) { h.reopens++ },
		},
	})
	return h
}

func (h *harness) joinBoth() {
	h.s.Dispatch(Action{Type: ActionJoin, Conn: connA, Name: "Alice", Send: h.sendA})
	h.s.Dispatch(Action{Type: ActionJoin, Conn: connB, Name: "Bob", Send: h.sendB})
}

func (h *harness) accept(conn protocol.ConnectionID) {
	h.s.Dispatch(Action{Type: ActionAcceptReadyCheck, Conn: conn, MatchID: h.s.ID, Accept: true})
}

// start brings the session to InGame and discards the setup events.
func (h *harness) start() {
	h.t.Helper()
	h.joinBoth()
	h.accept(connA)
	h.accept(connB)
	if h.s.State() != InGame {
		h.t.Fatalf("expected InGame after both accepted, got %s", h.s.State())
	}
	drainChannel(h.sendA)
	drainChannel(h.sendB)
}

// fire dispatches every captured timer of the given type.
func (h *harness) fire(kind ActionType) {
	pending := h.timers
	h.timers = nil
	for _, tm := range pending {
		if tm.a.Type == kind {
			h.s.Dispatch(tm.a)
		} else {
			h.timers = append(h.timers, tm)
		}
	}
}

// drainChannel reads all available messages from a channel.
func drainChannel(ch chan []byte) [][]byte {
	var msgs [][]byte
	for {
		select {
		case msg := <-ch:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

type event struct {
	Tag     protocol.EventTag `json:"tag"`
	EventID uint64            `json:"eventId"`
	Payload json.RawMessage   `json:"payload"`
}

func events(t *testing.T, ch chan []byte) []event {
	t.Helper()
	return decodeAll(t, drainChannel(ch))
}

func decodeAll(t *testing.T, msgs [][]byte) []event {
	t.Helper()
	var out []event
	for _, msg := range msgs {
		var ev event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("invalid event %s: %v", msg, err)
		}
		out = append(out, ev)
	}
	return out
}

func find(evs []event, tag protocol.EventTag) []event {
	var out []event
	for _, ev := range evs {
		if ev.Tag == tag {
			out = append(out, ev)
		}
	}
	return out
}

func payloadOf[T any](t *testing.T, ev event) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(ev.Payload, &v); err != nil {
		t.Fatalf("decode %s payload: %v", ev.Tag, err)
	}
	return v
}

func tags(evs []event) []protocol.EventTag {
	out := make([]protocol.EventTag, len(evs))
	for i, ev := range evs {
		out[i] = ev.Tag
	}
	return out
}

// waitForMessages collects messages until the timeout elapses.
func waitForMessages(ch chan []byte, timeout time.Duration) [][]byte {
	var msgs [][]byte
	timer := time.After(timeout)
	for {
		select {
		case msg := <-ch:
			msgs = append(msgs, msg)
		case <-timer:
			return append(msgs, drainChannel(ch)...)
		}
	}
}
