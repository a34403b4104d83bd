package match

import (
	"fmt"
	"time"

	"card-session-server/ledger"
	"card-session-server/matcherrors"
	"card-session-server/protocol"
)

const (
	ReasonDeclined     = "A player declined the match."
	ReasonReadyTimeout = "Ready check timed out."
	ReasonOpponentLeft = "Opponent left before the match started."
	ReasonDisconnect   = "disconnect"
	ReasonConceded     = "conceded"
	ReasonDefeated     = "defeated"
)

func (s *Session) handleJoin(a Action) error {
	if s.state != WaitingForPlayers || len(s.peers) >= 2 {
		return fmt.Errorf("join: %w", matcherrors.ErrWrongState)
	}
	if s.peer(a.Conn) != nil {
		return fmt.Errorf("join: %w", matcherrors.ErrAlreadyInMatch)
	}
	s.peers = append(s.peers, &peer{Conn: a.Conn, Name: a.Name, UserID: a.UserID, Send: a.Send})
	s.logger.Info("player joined", "conn", a.Conn, "name", a.Name, "players", len(s.peers))
	if len(s.peers) == 2 {
		s.beginReadyCheck()
	}
	return nil
}

// handleLeave drops a connection. Before the game starts this only removes
// that half of the session; afterwards it ends the match.
func (s *Session) handleLeave(conn protocol.ConnectionID) {
	if s.peer(conn) == nil {
		return
	}
	s.removePeer(conn)
	s.logger.Info("player left", "conn", conn, "state", s.state)

	switch s.state {
	case WaitingForPlayers, ReadyCheck:
		if s.state == ReadyCheck {
			s.state = WaitingForPlayers
			s.readyGen++
			s.accepted = nil
			s.broadcast(protocol.EventMatchCanceled, protocol.MatchCanceledPayload{Reason: ReasonOpponentLeft})
		}
		if len(s.peers) == 0 {
			s.finished = true
			return
		}
		if s.hooks.OnReopen != nil {
			s.hooks.OnReopen(s)
		}
	case StartingGame, InGame:
		s.endMatch(s.Opponent(conn), conn, ReasonDisconnect)
	case Ended:
		s.dropFromAckWaits(conn)
	}
}

func (s *Session) beginReadyCheck() {
	window := time.Duration(s.cfg.ReadyCheckSec) * time.Second
	s.state = ReadyCheck
	s.accepted = make(map[protocol.ConnectionID]bool)
	s.readyGen++
	s.readyDeadline = s.now().Add(window)
	s.broadcast(protocol.EventAcceptPrompt, protocol.AcceptPromptPayload{
		MatchID:           s.ID,
		AcceptWindowSecs:  s.cfg.ReadyCheckSec,
		DeadlineUnixMilli: s.readyDeadline.UnixMilli(),
	})
	s.schedule(window, Action{Type: ActionReadyCheckTimeout, gen: s.readyGen})
}

func (s *Session) handleAcceptReadyCheck(conn protocol.ConnectionID, matchID string, accept bool) error {
	if s.state != ReadyCheck {
		return fmt.Errorf("accept: %w", matcherrors.ErrWrongState)
	}
	if s.peer(conn) == nil {
		return fmt.Errorf("accept: %w", matcherrors.ErrUnknownConnection)
	}
	if matchID != s.ID {
		return fmt.Errorf("accept for match %q: %w", matchID, matcherrors.ErrWrongState)
	}
	if s.now().After(s.readyDeadline) {
		// The timer has not been processed yet but the window is closed.
		s.cancelMatch(ReasonReadyTimeout)
		return nil
	}
	if !accept {
		s.cancelMatch(ReasonDeclined)
		return nil
	}
	s.accepted[conn] = true
	if len(s.accepted) == 2 {
		s.startGame()
	}
	return nil
}

func (s *Session) handleReadyCheckTimeout(gen int) {
	if s.state != ReadyCheck || gen != s.readyGen {
		return
	}
	s.cancelMatch(ReasonReadyTimeout)
}

func (s *Session) cancelMatch(reason string) {
	s.ended = true
	s.state = Ended
	s.readyGen++
	s.logger.Info("match canceled", "reason", reason)
	id := s.broadcast(protocol.EventMatchCanceled, protocol.MatchCanceledPayload{Reason: reason})
	s.reportResult(Result{MatchID: s.ID, Reason: reason, Canceled: true})
	s.awaitFinalAcks(id)
}

func (s *Session) startGame() {
	s.state = StartingGame
	limits := ledger.Limits{MaxHealth: s.cfg.MaxHealth, Ceiling: s.cfg.ResourceCeiling}
	deck := s.catalog.Deck(s.cfg.DeckList)
	for _, p := range s.peers {
		l := ledger.New(s.cfg.StartingHealth, deck, limits)
		l.ShuffleDeck(s.rng)
		s.players[p.Conn] = l
		s.roster[p.Conn] = *p
	}
	conns := s.Connections()

	s.broadcast(protocol.EventGameStart, protocol.GameStartPayload{
		MatchID:        s.ID,
		Players:        conns,
		StartingHealth: s.cfg.StartingHealth,
		OpeningHand:    s.cfg.OpeningHandSize,
	})
	for _, c := range conns {
		s.DrawCards(s.cfg.OpeningHandSize, c)
	}

	s.turnOwner = conns[0]
	s.turnNumber = 1
	s.state = InGame
	s.logger.Info("game started", "first", s.turnOwner)
	s.broadcast(protocol.EventTurnChanged, protocol.TurnChangedPayload{TurnOwner: s.turnOwner, TurnNumber: s.turnNumber})
}

// endMatch is terminal: it clears pending work, announces the outcome and
// waits for the final acknowledgements before teardown.
func (s *Session) endMatch(winner, loser protocol.ConnectionID, reason string) {
	if s.ended {
		return
	}
	s.ended = true
	s.state = Ended
	s.stack = nil
	clear(s.choices)
	s.logger.Info("match ended", "winner", winner, "loser", loser, "reason", reason, "turns", s.turnNumber)

	id := s.broadcast(protocol.EventMatchEnded, protocol.MatchEndedPayload{
		Winner: winner, Loser: loser, Reason: reason, TurnNumber: s.turnNumber,
	})
	s.reportResult(Result{MatchID: s.ID, Winner: winner, Reason: reason, Turns: s.turnNumber})
	s.awaitFinalAcks(id)
}

func (s *Session) reportResult(r Result) {
	r.EndedAt = s.now()
	for _, c := range s.Connections() {
		p := s.roster[c]
		r.Players = append(r.Players, PlayerResult{Conn: c, Name: p.Name, UserID: p.UserID, Health: s.players[c].Health})
	}
	if r.Canceled {
		for _, p := range s.peers {
			r.Players = append(r.Players, PlayerResult{Conn: p.Conn, Name: p.Name, UserID: p.UserID})
		}
	}
	if s.hooks.OnEnded != nil {
		s.hooks.OnEnded(r)
	}
}

func (s *Session) awaitFinalAcks(eventID uint64) {
	s.waitForAcks(eventID, time.Duration(s.cfg.AckTimeoutMS)*time.Millisecond, func(responded []protocol.ConnectionID) {
		s.logger.Info("session teardown", "acked", len(responded))
		s.finished = true
	})
}

// checkDefeat ends the match when a player has no health left. The lower
// connection is checked first when both are at zero.
func (s *Session) checkDefeat() bool {
	if s.state != InGame {
		return false
	}
	for _, c := range s.Connections() {
		if s.players[c].Health == 0 {
			s.endMatch(s.Opponent(c), c, ReasonDefeated)
			return true
		}
	}
	return false
}

func (s *Session) handleConcede(conn protocol.ConnectionID) error {
	if s.state != InGame {
		return fmt.Errorf("concede: %w", matcherrors.ErrWrongState)
	}
	if _, ok := s.players[conn]; !ok {
		return fmt.Errorf("concede: %w", matcherrors.ErrUnknownConnection)
	}
	s.broadcast(protocol.EventPlayerConceded, protocol.PlayerConcededPayload{Player: conn})
	s.endMatch(s.Opponent(conn), conn, ReasonConceded)
	return nil
}

func (s *Session) handleEmote(conn protocol.ConnectionID, emoteID string) error {
	if s.peer(conn) == nil {
		return fmt.Errorf("emote: %w", matcherrors.ErrUnknownConnection)
	}
	if s.state != ReadyCheck && s.state != InGame {
		return fmt.Errorf("emote: %w", matcherrors.ErrWrongState)
	}
	id := s.allocEventID()
	for _, p := range s.peers {
		if p.Conn != conn {
			s.deliver(p, protocol.EventEmoteReceived, id, protocol.EmoteReceivedPayload{From: conn, EmoteID: emoteID})
		}
	}
	return nil
}

func (s *Session) handlePing(conn protocol.ConnectionID, clientTS int64) error {
	if s.peer(conn) == nil {
		return fmt.Errorf("ping: %w", matcherrors.ErrUnknownConnection)
	}
	s.sendTo(conn, protocol.EventPong, protocol.PongPayload{
		ClientTimestamp: clientTS,
		ServerTimestamp: s.now().UnixMilli(),
	})
	return nil
}
