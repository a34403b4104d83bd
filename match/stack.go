package match

import (
	"slices"

	"card-session-server/cards"
	"card-session-server/ledger"
	"card-session-server/protocol"
)

// Stack action kinds.
const (
	ActionKindCast = "cast"
	// ActionKindPlot sets a hand card face-down in the match plot instead of resolving it.
	ActionKindPlot = "plot"
)

// StackEntry is one pending action. Entries are never mutated once pushed.
type StackEntry struct {
	ID                int
	CardID            string
	Source            protocol.ConnectionID
	ActionKind        string
	TargetConnections []protocol.ConnectionID
	TargetCards       []string
	RevealToOpponent  bool
}

func (e StackEntry) wire() protocol.StackItem {
	return protocol.StackItem{
		ID:                e.ID,
		CardID:            e.CardID,
		Source:            e.Source,
		ActionID:          e.ActionKind,
		TargetConnections: e.TargetConnections,
		TargetCards:       e.TargetCards,
		Revealed:          e.RevealToOpponent,
	}
}

// Stack returns a copy of the unresolved entries, bottom first.
func (s *Session) Stack() []StackEntry {
	return slices.Clone(s.stack)
}

// PushStack appends an entry, announces it and returns its id. The entry
// resolves when the stack next drains.
func (s *Session) PushStack(e StackEntry) int {
	s.nextStackID++
	e.ID = s.nextStackID
	if e.ActionKind == "" {
		e.ActionKind = ActionKindCast
	}
	e.TargetConnections = slices.Clone(e.TargetConnections)
	e.TargetCards = slices.Clone(e.TargetCards)
	s.stack = append(s.stack, e)

	item := e.wire()
	s.sendPerRecipient(protocol.EventStackItemAdded, func(r protocol.ConnectionID) any {
		return protocol.StackItemAddedPayload{Item: item.RedactedFor(r)}
	})
	s.emitStackUpdated()
	return e.ID
}

// drain resolves entries LIFO until the stack is empty, a choice suspends
// resolution, or the match ends.
func (s *Session) drain() {
	if s.draining {
		return
	}
	s.draining = true
	defer func() { s.draining = false }()

	for len(s.stack) > 0 && len(s.choices) == 0 && s.state == InGame {
		top := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		s.resolveEntry(top)
		if s.checkDefeat() {
			return
		}
	}
}

func (s *Session) resolveEntry(e StackEntry) {
	var ok bool
	switch e.ActionKind {
	case ActionKindPlot:
		ok = s.plotCard(e)
	default:
		ok = s.resolveCard(e)
	}
	if s.state != InGame {
		return
	}
	item := e.wire()
	// A resolved cast is public; a plotted card stays face down until its reveal.
	if e.ActionKind != ActionKindPlot {
		item.Revealed = true
	}
	s.sendPerRecipient(protocol.EventStackResolved, func(r protocol.ConnectionID) any {
		return protocol.StackResolvedPayload{Item: item.RedactedFor(r), OK: ok}
	})
	s.emitStackUpdated()
}

func (s *Session) plotCard(e StackEntry) bool {
	l := s.players[e.Source]
	if l == nil || !l.In(e.CardID, ledger.Board) {
		return false
	}
	return l.Move(e.CardID, ledger.Board, ledger.MatchPlot) == nil
}

// resolveCard runs the card's effect. The card counts as played even when
// the effect is a no-op.
func (s *Session) resolveCard(e StackEntry) bool {
	l := s.players[e.Source]
	def, known := s.catalog.Get(e.CardID)
	if l == nil || !known {
		return false
	}
	ok := false
	if l.In(e.CardID, ledger.Board) {
		switch {
		case def.Type == cards.ToadCard:
			ok = s.TryResolveCombatCard(e.CardID, e.Source, e.Source, e.Source)
		case def.Type == cards.Trinket && l.Trinket.Equipped && l.Trinket.CardID == e.CardID:
			ok = s.activateTrinket(def, e.Source)
		default:
			ok = s.runHandler(def, CardContext{
				CardID:          e.CardID,
				Owner:           e.Source,
				Targets:         e.TargetConnections,
				TargetCards:     e.TargetCards,
				RewardRecipient: e.Source,
			})
		}
	}
	l.RecordPlay(e.CardID)
	if s.state == InGame {
		s.broadcast(protocol.EventCardResolved, protocol.CardResolvedPayload{Player: e.Source, CardID: e.CardID, OK: ok})
	}
	return ok
}

func (s *Session) runHandler(def cards.Definition, ctx CardContext) bool {
	if s.effects == nil {
		return false
	}
	h, ok := s.effects.Handler(def.EffectKey())
	if !ok {
		s.logger.Warn("no handler for card", "card", def.ID, "effect", def.EffectKey())
		return false
	}
	return h(s, ctx)
}

// UseEffectKey is the registry key of a trinket's activated ability.
func UseEffectKey(def cards.Definition) string {
	return def.EffectKey() + ".use"
}

// activateTrinket spends one use of the equipped trinket and runs its
// activated ability.
func (s *Session) activateTrinket(def cards.Definition, owner protocol.ConnectionID) bool {
	if s.effects == nil {
		return false
	}
	h, ok := s.effects.Handler(UseEffectKey(def))
	if !ok {
		return false
	}
	s.UpdateTrinketUses(-1, owner)
	return h(s, CardContext{CardID: def.ID, Owner: owner, RewardRecipient: owner})
}

// enterBoard attaches a fresh stat overlay to a card that just reached the board.
func (s *Session) enterBoard(l *ledger.PlayerLedger, cardID string) {
	if def, ok := s.catalog.Get(cardID); ok {
		l.EnterPlay(cardID, ledger.NewCardStats(def.Health, def.Armor, def.Cost, def.Power))
	}
}

// revealMatchPlot flips the owner's plotted cards at the start of their turn
// and resolves them in the order they were plotted.
func (s *Session) revealMatchPlot(owner protocol.ConnectionID) {
	l := s.players[owner]
	plot := l.Cards(ledger.MatchPlot)
	if len(plot) == 0 {
		return
	}
	for _, id := range plot {
		s.RevealEventCard(id, owner)
	}
	for i := len(plot) - 1; i >= 0; i-- {
		id := plot[i]
		if l.Move(id, ledger.MatchPlot, ledger.Board) != nil {
			continue
		}
		if _, has := l.StatsOf(id); !has {
			s.enterBoard(l, id)
		}
		s.PushStack(StackEntry{CardID: id, Source: owner, ActionKind: ActionKindCast, RevealToOpponent: true})
	}
	s.drain()
}
