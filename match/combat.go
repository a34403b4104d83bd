package match

import (
	"card-session-server/cards"
	"card-session-server/ledger"
	"card-session-server/protocol"
)

// Combatant is the player side of a fight.
type Combatant struct {
	Attack int
	Health int
	Armor  int
}

// CombatOutcome is what a CombatPolicy decided.
type CombatOutcome struct {
	Won bool
	// Hits is how many blows the card took.
	Hits int
	// DamageTaken is dealt to the fighter afterwards, armor first.
	DamageTaken int
	// CardHealth is the card's health after the fight.
	CardHealth int
}

// CombatPolicy decides a fight between a player and a Toad card.
type CombatPolicy interface {
	Fight(f Combatant, card ledger.CardStats) CombatOutcome
}

// ExchangePolicy trades blows: the fighter strikes first, and the card strikes
// back with its power while it survives. The fighter loses once the
// counter-damage would exhaust their armor and health.
type ExchangePolicy struct {
	// MaxRounds caps the fight; zero means 50.
	MaxRounds int
}

func (p ExchangePolicy) Fight(f Combatant, card ledger.CardStats) CombatOutcome {
	rounds := p.MaxRounds
	if rounds <= 0 {
		rounds = 50
	}
	attack := max(1, f.Attack)
	pool := f.Health + f.Armor
	out := CombatOutcome{CardHealth: card.Health}
	for out.Hits < rounds {
		out.Hits++
		out.CardHealth = max(0, out.CardHealth-attack)
		if out.CardHealth == 0 {
			out.Won = true
			return out
		}
		out.DamageTaken += card.Power
		if out.DamageTaken >= pool {
			return out
		}
	}
	return out
}

// RewardPolicy always lets the fighter win without taking a hit.
type RewardPolicy struct{}

func (RewardPolicy) Fight(_ Combatant, _ ledger.CardStats) CombatOutcome {
	return CombatOutcome{Won: true}
}

// PolicyByName maps a config value to a policy, defaulting to RewardPolicy.
func PolicyByName(name string) CombatPolicy {
	switch name {
	case "exchange":
		return ExchangePolicy{}
	default:
		return RewardPolicy{}
	}
}

// preCombatAuras are applied, in order, to the owner's Toad card before a fight.
var preCombatAuras = []struct {
	kind  ledger.AuraKind
	apply func(st *ledger.CardStats)
}{
	{ledger.AuraAkimbo, func(st *ledger.CardStats) { st.Adjust(-2, 0) }},
	{ledger.AuraWorthySacrificeDamage, func(st *ledger.CardStats) { st.Adjust(-4, 0) }},
	{ledger.AuraWorthySacrificeDestroy, func(st *ledger.CardStats) { st.Kill() }},
	{ledger.AuraBagOfTricks, func(st *ledger.CardStats) { st.Adjust(1, 1) }},
}

// TryResolveCombatCard has fighter fight owner's Toad card. On a win the
// card's reward goes to rewardRecipient and post-combat auras trigger. It
// returns whether the fight was won and the reward applied.
func (s *Session) TryResolveCombatCard(cardID string, owner, fighter, rewardRecipient protocol.ConnectionID) bool {
	ol, fl := s.players[owner], s.players[fighter]
	def, known := s.catalog.Get(cardID)
	if ol == nil || fl == nil || !known || def.Type != cards.ToadCard {
		return false
	}
	if !ol.In(cardID, ledger.Board) && !ol.In(cardID, ledger.MatchPlot) {
		return false
	}
	stats, ok := ol.StatsOf(cardID)
	if !ok {
		stats = ol.EnterPlay(cardID, ledger.NewCardStats(def.Health, def.Armor, def.Cost, def.Power))
	}

	for _, a := range preCombatAuras {
		if stats.Health == 0 {
			break
		}
		if _, ok := ol.ConsumeAura(a.kind); ok {
			a.apply(stats)
			s.broadcast(protocol.EventCardStatsAdjusted, protocol.CardStatsAdjustedPayload{
				Owner: owner, CardID: cardID, Aura: string(a.kind),
				Health: stats.Health, BaseHealth: stats.BaseHealth, Power: stats.Power,
			})
		}
	}

	out := CombatOutcome{Won: true}
	if stats.Health > 0 {
		attack := fl.Power
		if fl.Weapon.Equipped {
			attack += fl.Weapon.Power
		}
		if s.consumeAura(fighter, ledger.AuraAnnoyingFly) {
			attack--
		}
		out = s.combat.Fight(Combatant{Attack: attack, Health: fl.Health, Armor: fl.Armor}, *stats)
		stats.Health = out.CardHealth
		fl.ApplyDamage(out.DamageTaken)
	}

	s.broadcast(protocol.EventToadCombatResult, protocol.ToadCombatResultPayload{
		CardID:          cardID,
		Owner:           owner,
		Fighter:         fighter,
		RewardRecipient: rewardRecipient,
		Won:             out.Won,
		NumHits:         out.Hits,
		PlayerArmor:     fl.Armor,
		PlayerHealth:    fl.Health,
		CardHealth:      stats.Health,
	})
	if out.Hits > 0 && fl.Weapon.Equipped {
		s.AdjustWeaponStats(0, -1, fighter)
	}
	if !out.Won || s.checkDefeat() {
		return false
	}

	rewarded := s.runHandler(def, CardContext{
		CardID:          cardID,
		Owner:           rewardRecipient,
		RewardRecipient: rewardRecipient,
		CombatHits:      out.Hits,
	})
	s.postCombat(rewardRecipient)
	return rewarded
}

// postCombat triggers the reward recipient's on-kill trinket.
func (s *Session) postCombat(recipient protocol.ConnectionID) {
	l := s.players[recipient]
	if l == nil || s.state != InGame || !l.HasAura(ledger.AuraTrinketBarrelOfBooze) {
		return
	}
	trinket := l.Trinket.CardID
	opp := s.Opponent(recipient)
	s.UpdateTrinketUses(-1, recipient)
	s.DrainHealth(2, trinket, recipient, opp)
	s.ChooseDiscard(1, opp, trinket, nil)
}
