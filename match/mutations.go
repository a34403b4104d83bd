package match

import (
	"card-session-server/cards"
	"card-session-server/ledger"
	"card-session-server/protocol"
)

// The methods in this file are the ledger mutation API used by effect
// handlers. Each call is atomic, clamps its own invariants and emits exactly
// one event. Calls naming an unknown player do nothing.

// Ledger returns a player's ledger, or nil.
func (s *Session) Ledger(conn protocol.ConnectionID) *ledger.PlayerLedger {
	return s.players[conn]
}

// Opponent returns the other player's connection id.
func (s *Session) Opponent(conn protocol.ConnectionID) protocol.ConnectionID {
	for id := range s.players {
		if id != conn {
			return id
		}
	}
	for _, p := range s.peers {
		if p.Conn != conn {
			return p.Conn
		}
	}
	return conn
}

// Definition looks up a card template.
func (s *Session) Definition(cardID string) (cards.Definition, bool) {
	return s.catalog.Get(cardID)
}

// DealDamage applies damage to target, armor first, and returns the armor
// plus health actually removed.
func (s *Session) DealDamage(amount int, cardID string, source, target protocol.ConnectionID) int {
	l := s.players[target]
	if l == nil || amount < 0 {
		return 0
	}
	armorLost, healthLost := l.ApplyDamage(amount)
	s.broadcast(protocol.EventDamageApplied, protocol.DamageAppliedPayload{
		Target:          target,
		Amount:          amount,
		SourceCardID:    cardID,
		ResultingHealth: l.Health,
		ResultingArmor:  l.Armor,
	})
	return armorLost + healthLost
}

// Heal raises target's health up to the maximum and returns the gain.
func (s *Session) Heal(amount int, cardID string, target protocol.ConnectionID) int {
	l := s.players[target]
	if l == nil || amount < 0 {
		return 0
	}
	gained := l.Heal(amount)
	s.broadcast(protocol.EventHealApplied, protocol.HealAppliedPayload{
		Target:          target,
		Amount:          gained,
		SourceCardID:    cardID,
		ResultingHealth: l.Health,
	})
	return gained
}

// DrainHealth moves health from target to source. No more than the target's
// current health is taken; source gains what was taken, up to its maximum.
func (s *Session) DrainHealth(amount int, cardID string, source, target protocol.ConnectionID) int {
	sl, tl := s.players[source], s.players[target]
	if sl == nil || tl == nil || amount < 0 {
		return 0
	}
	taken := tl.LoseHealth(amount)
	sl.Heal(taken)
	s.broadcast(protocol.EventHealthDrained, protocol.HealthDrainedPayload{
		Source:       source,
		Target:       target,
		Amount:       taken,
		SourceCardID: cardID,
		SourceHealth: sl.Health,
		TargetHealth: tl.Health,
	})
	return taken
}

// AddCurrency changes target's currency and returns the applied delta.
func (s *Session) AddCurrency(delta int, cardID string, target protocol.ConnectionID) int {
	l := s.players[target]
	if l == nil {
		return 0
	}
	applied := l.AddCurrency(delta)
	s.broadcast(protocol.EventCurrencyChanged, protocol.ResourceChangedPayload{
		Player: target, Delta: applied, Resulting: l.Currency, SourceCardID: cardID,
	})
	return applied
}

// AddPower changes target's permanent power and returns the applied delta.
func (s *Session) AddPower(delta int, cardID string, target protocol.ConnectionID) int {
	l := s.players[target]
	if l == nil {
		return 0
	}
	applied := l.AddPower(delta)
	s.broadcast(protocol.EventPowerChanged, protocol.ResourceChangedPayload{
		Player: target, Delta: applied, Resulting: l.Power, SourceCardID: cardID,
	})
	return applied
}

// AddArmor changes target's armor and returns the applied delta. A reduction
// against a player whose trinket protects armor is absorbed instead, and that
// trinket is spent.
func (s *Session) AddArmor(delta int, cardID string, target protocol.ConnectionID) int {
	l := s.players[target]
	if l == nil {
		return 0
	}
	if delta < 0 && l.Armor > 0 && l.HasAura(ledger.AuraTrinketAcidCoatingSpray) {
		l.RemoveAura(ledger.AuraTrinketAcidCoatingSpray)
		consumed := s.discardTrinket(l)
		s.broadcast(protocol.EventArmorChanged, protocol.ResourceChangedPayload{
			Player: target, Resulting: l.Armor, SourceCardID: cardID, ConsumedTrinket: consumed,
		})
		return 0
	}
	applied := l.AddArmor(delta)
	s.broadcast(protocol.EventArmorChanged, protocol.ResourceChangedPayload{
		Player: target, Delta: applied, Resulting: l.Armor, SourceCardID: cardID,
	})
	return applied
}

// EquipWeapon replaces target's weapon.
func (s *Session) EquipWeapon(power, durability int, target protocol.ConnectionID) {
	l := s.players[target]
	if l == nil {
		return
	}
	l.EquipWeapon(power, durability)
	s.broadcast(protocol.EventEquipWeapon, protocol.EquipWeaponPayload{
		Player: target, Power: l.Weapon.Power, Durability: l.Weapon.Durability,
	})
}

// AdjustWeaponStats changes the equipped weapon. It returns false, emitting
// nothing, when target has no weapon. A weapon worn down to zero durability
// is destroyed.
func (s *Session) AdjustWeaponStats(dPower, dDurability int, target protocol.ConnectionID) bool {
	l := s.players[target]
	if l == nil {
		return false
	}
	ok, destroyed := l.AdjustWeapon(dPower, dDurability)
	switch {
	case !ok:
		return false
	case destroyed:
		s.broadcast(protocol.EventWeaponDestroyed, protocol.WeaponDestroyedPayload{Player: target})
	default:
		s.broadcast(protocol.EventWeaponStatsAdjusted, protocol.WeaponStatsAdjustedPayload{
			Player:          target,
			PowerDelta:      dPower,
			DurabilityDelta: dDurability,
			Power:           l.Weapon.Power,
			Durability:      l.Weapon.Durability,
		})
	}
	return true
}

// DestroyWeapon removes target's weapon, reporting whether one was equipped.
func (s *Session) DestroyWeapon(target protocol.ConnectionID) bool {
	l := s.players[target]
	if l == nil || !l.DestroyWeapon() {
		return false
	}
	s.broadcast(protocol.EventWeaponDestroyed, protocol.WeaponDestroyedPayload{Player: target})
	return true
}

// EquipTrinket makes cardID target's trinket with the given uses and aura.
// A previously equipped trinket is discarded silently; clients learn it from
// the new EquipTrinket event.
func (s *Session) EquipTrinket(cardID string, uses int, aura ledger.AuraKind, target protocol.ConnectionID) {
	l := s.players[target]
	if l == nil {
		return
	}
	if l.Trinket.Equipped && l.Trinket.CardID != cardID {
		s.discardTrinket(l)
	}
	l.EquipTrinket(cardID, uses, aura)
	s.broadcast(protocol.EventEquipTrinket, protocol.EquipTrinketPayload{
		Player: target, CardID: cardID, Uses: l.Trinket.Durability, Aura: string(aura),
	})
}

// discardTrinket unequips the trinket and sends its card to the discard pile.
func (s *Session) discardTrinket(l *ledger.PlayerLedger) string {
	cardID, ok := l.UnequipTrinket()
	if !ok {
		return ""
	}
	if l.In(cardID, ledger.Board) {
		_ = l.Move(cardID, ledger.Board, ledger.Discard)
	}
	return cardID
}

// DestroyTrinket removes target's trinket and its aura.
func (s *Session) DestroyTrinket(target protocol.ConnectionID) bool {
	l := s.players[target]
	if l == nil {
		return false
	}
	cardID := s.discardTrinket(l)
	if cardID == "" {
		return false
	}
	s.broadcast(protocol.EventTrinketDestroyed, protocol.TrinketDestroyedPayload{Player: target, CardID: cardID})
	return true
}

// UpdateTrinketUses changes the remaining uses of target's trinket. A trinket
// with no uses left is destroyed.
func (s *Session) UpdateTrinketUses(delta int, target protocol.ConnectionID) bool {
	l := s.players[target]
	if l == nil {
		return false
	}
	cardID := l.Trinket.CardID
	remaining, ok := l.AdjustTrinketUses(delta)
	if !ok {
		return false
	}
	if remaining == 0 {
		s.discardTrinket(l)
		s.broadcast(protocol.EventTrinketDestroyed, protocol.TrinketDestroyedPayload{Player: target, CardID: cardID})
		return true
	}
	s.broadcast(protocol.EventTrinketUsesUpdated, protocol.TrinketUsesUpdatedPayload{
		Player: target, CardID: cardID, Uses: remaining,
	})
	return true
}

// AddAura adds n applications of kind to target.
func (s *Session) AddAura(target protocol.ConnectionID, kind ledger.AuraKind, n int) {
	l := s.players[target]
	if l == nil || n <= 0 {
		return
	}
	total := l.AddAura(kind, n)
	s.broadcast(protocol.EventAuraAdded, protocol.AuraPayload{Player: target, Aura: string(kind), Remaining: total})
}

// RemoveAura drops every application of kind from target.
func (s *Session) RemoveAura(target protocol.ConnectionID, kind ledger.AuraKind) bool {
	l := s.players[target]
	if l == nil || !l.RemoveAura(kind) {
		return false
	}
	s.broadcast(protocol.EventAuraRemoved, protocol.AuraPayload{Player: target, Aura: string(kind)})
	return true
}

// RemoveAuras drops several auras in one event and returns those that were present.
func (s *Session) RemoveAuras(target protocol.ConnectionID, kinds ...ledger.AuraKind) []ledger.AuraKind {
	l := s.players[target]
	if l == nil {
		return nil
	}
	var removed []ledger.AuraKind
	var names []string
	for _, k := range kinds {
		if l.RemoveAura(k) {
			removed = append(removed, k)
			names = append(names, string(k))
		}
	}
	if len(removed) > 0 {
		s.broadcast(protocol.EventAurasRemoved, protocol.AurasRemovedPayload{Player: target, Auras: names})
	}
	return removed
}

// consumeAura spends one application of kind and announces what is left.
func (s *Session) consumeAura(target protocol.ConnectionID, kind ledger.AuraKind) bool {
	l := s.players[target]
	if l == nil {
		return false
	}
	remaining, ok := l.ConsumeAura(kind)
	if !ok {
		return false
	}
	s.broadcast(protocol.EventAuraRemoved, protocol.AuraPayload{Player: target, Aura: string(kind), Remaining: remaining})
	return true
}

// DrawCards draws up to n cards for target. Target sees the identities; the
// opponent only sees how many.
func (s *Session) DrawCards(n int, target protocol.ConnectionID) []string {
	l := s.players[target]
	if l == nil {
		return nil
	}
	drawn := l.Draw(n)
	s.sendSplit(target,
		protocol.EventDrawCardsSelf, protocol.DrawCardsSelfPayload{
			Player: target, CardIDs: drawn, HandCount: l.Count(ledger.Hand), DeckCount: l.Count(ledger.Deck),
		},
		protocol.EventDrawCardsOpponent, protocol.DrawCardsOpponentPayload{
			Player: target, Count: len(drawn), HandCount: l.Count(ledger.Hand), DeckCount: l.Count(ledger.Deck),
		},
	)
	return drawn
}

// Discard moves a card from target's hand or board to their discard pile.
func (s *Session) Discard(cardID string, target protocol.ConnectionID, reveal bool) bool {
	return s.moveCard(cardID, target, reveal, ledger.Discard,
		protocol.EventCardDiscardedSelf, protocol.EventCardDiscardedOpponent, ledger.Hand, ledger.Board)
}

// Exile moves a card from anywhere but exile to target's exile pile.
func (s *Session) Exile(cardID string, target protocol.ConnectionID, reveal bool) bool {
	return s.moveCard(cardID, target, reveal, ledger.Exile,
		protocol.EventCardExiledSelf, protocol.EventCardExiledOpponent,
		ledger.Hand, ledger.Board, ledger.Deck, ledger.Discard, ledger.MatchPlot)
}

func (s *Session) moveCard(cardID string, target protocol.ConnectionID, reveal bool, to ledger.Zone, selfTag, oppTag protocol.EventTag, from ...ledger.Zone) bool {
	l := s.players[target]
	if l == nil {
		return false
	}
	zone, ok := l.Locate(cardID)
	if !ok || !containsZone(from, zone) {
		return false
	}
	if l.Trinket.Equipped && l.Trinket.CardID == cardID {
		l.UnequipTrinket()
	}
	if err := l.Move(cardID, zone, to); err != nil {
		return false
	}
	// Cards leaving the board were visible to both players already.
	revealed := reveal || zone == ledger.Board || zone == ledger.Discard
	opp := protocol.CardMovedPayload{Player: target, Revealed: revealed}
	if revealed {
		opp.CardID = cardID
	}
	s.sendSplit(target,
		selfTag, protocol.CardMovedPayload{Player: target, CardID: cardID, Revealed: true},
		oppTag, opp,
	)
	return true
}

func containsZone(zones []ledger.Zone, z ledger.Zone) bool {
	for _, v := range zones {
		if v == z {
			return true
		}
	}
	return false
}

// ExileDiscardPile sends target's whole discard pile to exile.
func (s *Session) ExileDiscardPile(target protocol.ConnectionID) []string {
	l := s.players[target]
	if l == nil {
		return nil
	}
	moved := l.Cards(ledger.Discard)
	for _, id := range moved {
		_ = l.Move(id, ledger.Discard, ledger.Exile)
	}
	s.broadcast(protocol.EventExileEntireDiscard, protocol.ExileEntireDiscardPayload{Player: target, CardIDs: moved})
	return moved
}

// DestroyCards sends cards on target's board or match plot to the discard
// pile and returns those actually destroyed.
func (s *Session) DestroyCards(target protocol.ConnectionID, cardIDs []string) []string {
	l := s.players[target]
	if l == nil {
		return nil
	}
	var destroyed []string
	for _, id := range cardIDs {
		if s.destroyOne(l, id) {
			destroyed = append(destroyed, id)
		}
	}
	if len(destroyed) > 0 {
		s.broadcast(protocol.EventCardsDestroyed, protocol.CardsDestroyedPayload{Player: target, CardIDs: destroyed})
	}
	return destroyed
}

// DestroyCard is DestroyCards for a single card.
func (s *Session) DestroyCard(target protocol.ConnectionID, cardID string) bool {
	l := s.players[target]
	if l == nil || !s.destroyOne(l, cardID) {
		return false
	}
	s.broadcast(protocol.EventCardDestroyed, protocol.CardDestroyedPayload{Player: target, CardID: cardID})
	return true
}

func (s *Session) destroyOne(l *ledger.PlayerLedger, cardID string) bool {
	for _, z := range []ledger.Zone{ledger.Board, ledger.MatchPlot} {
		if l.In(cardID, z) {
			if l.Trinket.Equipped && l.Trinket.CardID == cardID {
				l.UnequipTrinket()
			}
			if l.Move(cardID, z, ledger.Discard) != nil {
				return false
			}
			// A plot card fought in place carries an overlay Move leaves behind.
			delete(l.Stats, cardID)
			return true
		}
	}
	return false
}

// RevealEventCard shows a plotted card's identity to both players.
func (s *Session) RevealEventCard(cardID string, owner protocol.ConnectionID) bool {
	l := s.players[owner]
	if l == nil || !l.In(cardID, ledger.MatchPlot) {
		return false
	}
	s.broadcast(protocol.EventEventCardRevealed, protocol.EventCardRevealedPayload{Player: owner, CardID: cardID})
	return true
}

// PendingPlot returns the owner's plotted cards in plot order.
func (s *Session) PendingPlot(owner protocol.ConnectionID) []string {
	if l := s.players[owner]; l != nil {
		return l.Cards(ledger.MatchPlot)
	}
	return nil
}
