package match

import (
	"fmt"

	"card-session-server/ledger"
	"card-session-server/matcherrors"
	"card-session-server/protocol"
)

// checkActor gates the intents that act on the game: the match must be
// running, conn must own the turn, and resolution must not be suspended on a
// choice.
func (s *Session) checkActor(conn protocol.ConnectionID) (*ledger.PlayerLedger, error) {
	if s.state != InGame {
		return nil, matcherrors.ErrWrongState
	}
	l, ok := s.players[conn]
	if !ok {
		return nil, matcherrors.ErrUnknownConnection
	}
	if s.hasChoiceFor(conn) {
		return nil, matcherrors.ErrChoicePending
	}
	if conn != s.turnOwner {
		return nil, matcherrors.ErrNotTurnOwner
	}
	if len(s.choices) > 0 {
		return nil, matcherrors.ErrChoicePending
	}
	return l, nil
}

func (s *Session) handleEndTurn(conn protocol.ConnectionID) error {
	if _, err := s.checkActor(conn); err != nil {
		return fmt.Errorf("end turn: %w", err)
	}
	if len(s.stack) > 0 {
		return fmt.Errorf("end turn: %w", matcherrors.ErrStackNotEmpty)
	}

	s.clearBoard(conn)
	s.broadcast(protocol.EventTurnEnded, protocol.TurnEndedPayload{PreviousOwner: conn, TurnNumber: s.turnNumber})
	s.turnOwner = s.Opponent(conn)
	s.turnNumber++
	s.broadcast(protocol.EventTurnChanged, protocol.TurnChangedPayload{TurnOwner: s.turnOwner, TurnNumber: s.turnNumber})
	s.revealMatchPlot(s.turnOwner)
	return nil
}

// clearBoard sweeps the ending player's board. Cards that are gone for good
// go to exile, the rest to discard; an equipped trinket's card stays.
func (s *Session) clearBoard(conn protocol.ConnectionID) {
	l := s.players[conn]
	for _, id := range l.Cards(ledger.Board) {
		if l.Trinket.Equipped && l.Trinket.CardID == id {
			continue
		}
		if def, ok := s.catalog.Get(id); ok && def.ExileOnClear {
			s.Exile(id, conn, true)
		} else {
			s.Discard(id, conn, true)
		}
	}
}

func (s *Session) handlePlayCard(conn protocol.ConnectionID, cardID string, targets protocol.Targets) error {
	l, err := s.checkActor(conn)
	if err != nil {
		return fmt.Errorf("play %s: %w", cardID, err)
	}
	if _, ok := s.catalog.Get(cardID); !ok {
		return fmt.Errorf("play %s: %w", cardID, matcherrors.ErrUnknownCard)
	}
	if err := l.Move(cardID, ledger.Hand, ledger.Board); err != nil {
		return fmt.Errorf("play %s: %w", cardID, matcherrors.ErrCardNotInZone)
	}
	s.enterBoard(l, cardID)

	played := protocol.CardPlayedPayload{Player: conn, CardID: cardID, Targets: targets}
	s.sendSplit(conn, protocol.EventCardPlayedSelf, played, protocol.EventCardPlayedOpponent, played)
	s.PushStack(StackEntry{
		CardID:            cardID,
		Source:            conn,
		ActionKind:        ActionKindCast,
		TargetConnections: targets.Connections,
		TargetCards:       targets.Cards,
		RevealToOpponent:  true,
	})
	s.drain()
	return nil
}

func (s *Session) handleMoveFromHand(conn protocol.ConnectionID, cardID string, reveal bool, to ledger.Zone) error {
	l, err := s.checkActor(conn)
	if err != nil {
		return fmt.Errorf("%s %s: %w", to, cardID, err)
	}
	if !l.In(cardID, ledger.Hand) {
		return fmt.Errorf("%s %s: %w", to, cardID, matcherrors.ErrCardNotInZone)
	}
	if to == ledger.Exile {
		s.Exile(cardID, conn, reveal)
	} else {
		s.Discard(cardID, conn, reveal)
	}
	return nil
}

func (s *Session) handleAddToStack(conn protocol.ConnectionID, cardID, actionID string, targets protocol.Targets, reveal bool) error {
	l, err := s.checkActor(conn)
	if err != nil {
		return fmt.Errorf("stack %s: %w", cardID, err)
	}
	if _, ok := s.catalog.Get(cardID); !ok {
		return fmt.Errorf("stack %s: %w", cardID, matcherrors.ErrUnknownCard)
	}
	if actionID == "" {
		actionID = ActionKindCast
	}
	switch {
	case l.In(cardID, ledger.Hand):
		_ = l.Move(cardID, ledger.Hand, ledger.Board)
		s.enterBoard(l, cardID)
	case l.In(cardID, ledger.Board) && actionID != ActionKindPlot:
	default:
		return fmt.Errorf("stack %s: %w", cardID, matcherrors.ErrCardNotInZone)
	}
	s.PushStack(StackEntry{
		CardID:            cardID,
		Source:            conn,
		ActionKind:        actionID,
		TargetConnections: targets.Connections,
		TargetCards:       targets.Cards,
		RevealToOpponent:  reveal,
	})
	s.drain()
	return nil
}

func (s *Session) handleUseTrinket(conn protocol.ConnectionID) error {
	l, err := s.checkActor(conn)
	if err != nil {
		return fmt.Errorf("use trinket: %w", err)
	}
	if !l.Trinket.Equipped || l.Trinket.Durability <= 0 || !l.In(l.Trinket.CardID, ledger.Board) {
		return fmt.Errorf("use trinket: %w", matcherrors.ErrNoTrinket)
	}
	def, _ := s.catalog.Get(l.Trinket.CardID)
	if s.effects == nil {
		return fmt.Errorf("use trinket: %w", matcherrors.ErrNoTrinket)
	}
	if _, ok := s.effects.Handler(UseEffectKey(def)); !ok {
		return fmt.Errorf("use trinket %s: %w", def.ID, matcherrors.ErrNoTrinket)
	}
	s.PushStack(StackEntry{CardID: l.Trinket.CardID, Source: conn, ActionKind: ActionKindCast, RevealToOpponent: true})
	s.drain()
	return nil
}

func (s *Session) handlePassPriority(conn protocol.ConnectionID) error {
	if _, err := s.checkActor(conn); err != nil {
		return fmt.Errorf("pass priority: %w", err)
	}
	s.broadcast(protocol.EventPriorityPassed, protocol.PriorityPassedPayload{Player: conn})
	return nil
}
