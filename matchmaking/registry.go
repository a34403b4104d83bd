package matchmaking

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"card-session-server/cards"
	"card-session-server/config"
	"card-session-server/match"
	"card-session-server/matcherrors"
	"card-session-server/protocol"
	"card-session-server/storage"
)

const (
	recentCap     = 50
	recordTimeout = 5 * time.Second
	joinAttempts  = 3
)

// Player is a connection asking for a match.
type Player struct {
	Conn   protocol.ConnectionID
	Name   string
	UserID string
	Send   chan []byte
}

// Registry is the connection → session routing table. It pairs incoming
// players into sessions, runs each session in its own goroutine and forgets
// it on teardown. Sessions never share state; the registry lock guards only
// the routing maps and is never held while talking to a session.
type Registry struct {
	cfg     *config.Config
	catalog *cards.Catalog
	effects match.EffectProvider
	results storage.ResultStore
	logger  *slog.Logger
	newID   func() string

	mu      sync.Mutex
	routes  map[protocol.ConnectionID]*match.Session
	members map[*match.Session][]protocol.ConnectionID
	open    []*match.Session
	recent  []storage.MatchRecord

	running sync.WaitGroup
}

// NewRegistry creates an empty registry. results may be nil.
func NewRegistry(cfg *config.Config, catalog *cards.Catalog, effects match.EffectProvider, results storage.ResultStore) *Registry {
	return &Registry{
		cfg:     cfg,
		catalog: catalog,
		effects: effects,
		results: results,
		logger:  slog.Default().With("tag", "registry"),
		newID:   uuid.NewString,
		routes:  make(map[protocol.ConnectionID]*match.Session),
		members: make(map[*match.Session][]protocol.ConnectionID),
	}
}

// Join routes p into the oldest session waiting for an opponent, creating one
// when none is waiting. A queued session that has already stopped is dropped
// and p is routed again.
func (r *Registry) Join(p Player) (*match.Session, error) {
	for attempt := 0; attempt < joinAttempts; attempt++ {
		s, err := r.route(p)
		if err != nil {
			return nil, err
		}
		if s.Post(match.Action{Type: match.ActionJoin, Conn: p.Conn, Name: p.Name, UserID: p.UserID, Send: p.Send}) {
			r.logger.Info("player routed", "conn", p.Conn, "name", p.Name, "match", s.ID)
			return s, nil
		}
		r.forget(p.Conn, s)
		r.teardown(s)
		r.logger.Warn("session stopped before join", "conn", p.Conn, "match", s.ID)
	}
	return nil, fmt.Errorf("join %d: %w", p.Conn, matcherrors.ErrMatchNotFound)
}

// route picks p's session and records the route.
func (r *Registry) route(p Player) (*match.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.routes[p.Conn]; ok {
		return nil, fmt.Errorf("join %d: %w", p.Conn, matcherrors.ErrAlreadyInMatch)
	}
	var s *match.Session
	if len(r.open) > 0 {
		s = r.open[0]
	} else {
		s = r.startSession()
	}
	r.routes[p.Conn] = s
	r.members[s] = append(r.members[s], p.Conn)
	if len(r.members[s]) >= 2 {
		r.open = slices.DeleteFunc(r.open, func(o *match.Session) bool { return o == s })
	}
	return s, nil
}

// startSession creates a session and adds it to the open queue. Callers hold mu.
func (r *Registry) startSession() *match.Session {
	s := match.NewSession(r.newID(), r.cfg, r.catalog, r.effects, match.Options{
		Hooks: match.Hooks{
			OnReopen:   r.reopen,
			OnEnded:    r.record,
			OnTeardown: r.teardown,
		},
	})
	r.members[s] = nil
	r.open = append(r.open, s)
	r.running.Add(1)
	go func() {
		defer r.running.Done()
		s.Run()
	}()
	r.logger.Info("session created", "match", s.ID)
	return s
}

// Requeue moves a player whose match is over into a new session. It waits,
// bounded by ctx, for the previous session to finish tearing down.
func (r *Registry) Requeue(ctx context.Context, p Player) (*match.Session, error) {
	if prev := r.Route(p.Conn); prev != nil {
		select {
		case <-prev.Done():
			r.teardown(prev)
		case <-ctx.Done():
			return nil, fmt.Errorf("requeue %d: %w", p.Conn, matcherrors.ErrAlreadyInMatch)
		}
	}
	return r.Join(p)
}

// Leave unroutes conn and tells its session. Unknown connections are ignored.
func (r *Registry) Leave(conn protocol.ConnectionID) {
	r.mu.Lock()
	s, ok := r.routes[conn]
	if !ok {
		r.mu.Unlock()
		return
	}
	r.removeMember(conn, s)
	r.mu.Unlock()

	s.Post(match.Action{Type: match.ActionLeave, Conn: conn})
	r.logger.Info("player left", "conn", conn, "match", s.ID)
}

// Post delivers an intent from conn to its session.
func (r *Registry) Post(conn protocol.ConnectionID, a match.Action) error {
	s := r.Route(conn)
	if s == nil {
		return fmt.Errorf("%s from %d: %w", a.Type, conn, matcherrors.ErrNotInMatch)
	}
	a.Conn = conn
	if !s.Post(a) {
		return fmt.Errorf("%s from %d: %w", a.Type, conn, matcherrors.ErrMatchNotFound)
	}
	return nil
}

// Route returns the session conn is in, or nil.
func (r *Registry) Route(conn protocol.ConnectionID) *match.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.routes[conn]
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Waiting returns the number of sessions waiting for an opponent.
func (r *Registry) Waiting() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

// Recent returns up to n of the latest results seen by this process, newest first.
func (r *Registry) Recent(n int) []storage.MatchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	n = min(storage.ClampLimit(n), len(r.recent))
	out := make([]storage.MatchRecord, 0, n)
	for i := len(r.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.recent[i])
	}
	return out
}

// Shutdown waits for every running session to return, or for ctx.
func (r *Registry) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("registry shutdown: %w", ctx.Err())
	}
}

// removeMember drops conn from s. Callers hold mu.
func (r *Registry) removeMember(conn protocol.ConnectionID, s *match.Session) {
	delete(r.routes, conn)
	r.members[s] = slices.DeleteFunc(r.members[s], func(c protocol.ConnectionID) bool { return c == conn })
	if len(r.members[s]) == 0 {
		r.open = slices.DeleteFunc(r.open, func(o *match.Session) bool { return o == s })
	}
}

func (r *Registry) forget(conn protocol.ConnectionID, s *match.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.routes[conn] == s {
		r.removeMember(conn, s)
	}
}

// reopen puts a session whose opponent left before the start back in the queue.
func (r *Registry) reopen(s *match.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members[s]) == 1 && !slices.Contains(r.open, s) {
		r.open = append(r.open, s)
		r.logger.Info("session reopened", "match", s.ID)
	}
}

// teardown forgets a finished session. It is idempotent.
func (r *Registry) teardown(s *match.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns, ok := r.members[s]
	if !ok {
		return
	}
	for _, c := range conns {
		if r.routes[c] == s {
			delete(r.routes, c)
		}
	}
	delete(r.members, s)
	r.open = slices.DeleteFunc(r.open, func(o *match.Session) bool { return o == s })
	r.logger.Info("session torn down", "match", s.ID)
}

// record keeps the result in memory and hands it to the result store without
// blocking the session.
func (r *Registry) record(res match.Result) {
	rec := ToRecord(res)
	r.mu.Lock()
	r.recent = append(r.recent, rec)
	if len(r.recent) > recentCap {
		r.recent = slices.Delete(r.recent, 0, len(r.recent)-recentCap)
	}
	r.mu.Unlock()

	if r.results == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := r.results.RecordResult(ctx, rec); err != nil {
			r.logger.Error("record result", "match", rec.MatchID, "err", err)
		}
	}()
}

// ToRecord converts a session result to its stored form.
func ToRecord(res match.Result) storage.MatchRecord {
	rec := storage.MatchRecord{
		MatchID:     res.MatchID,
		EndedAt:     res.EndedAt,
		WinnerIndex: -1,
		Reason:      res.Reason,
		Turns:       res.Turns,
		Canceled:    res.Canceled,
	}
	for i, p := range res.Players {
		if i >= len(rec.Players) {
			break
		}
		rec.Players[i] = storage.PlayerRecord{UserID: p.UserID, Name: p.Name, Health: p.Health}
		if !res.Canceled && p.Conn == res.Winner {
			rec.WinnerIndex = i
		}
	}
	return rec
}
