package effects

import (
	"card-session-server/cards"
	"card-session-server/ledger"
	"card-session-server/match"
	"card-session-server/protocol"
)

// target picks the first targeted opponent, falling back to the owner's opponent.
func target(s *match.Session, ctx match.CardContext) protocol.ConnectionID {
	for _, t := range ctx.Targets {
		if t != ctx.Owner && s.Ledger(t) != nil {
			return t
		}
	}
	return s.Opponent(ctx.Owner)
}

// SimpleDamage2 deals 2 damage to the target.
func SimpleDamage2(s *match.Session, ctx match.CardContext) bool {
	s.DealDamage(2, ctx.CardID, ctx.Owner, target(s, ctx))
	return true
}

// Heal3 heals the owner for 3.
func Heal3(s *match.Session, ctx match.CardContext) bool {
	s.Heal(3, ctx.CardID, ctx.Owner)
	return true
}

func ABigSword(s *match.Session, ctx match.CardContext) bool {
	s.EquipWeapon(5, 2, ctx.Owner)
	return true
}

// ADarkChoice keys off the faction of the last card the owner played.
func ADarkChoice(s *match.Session, ctx match.CardContext) bool {
	last := s.Ledger(ctx.Owner).LastPlayedCardID
	if last == "" {
		return false
	}
	def, ok := s.Definition(last)
	if !ok {
		return false
	}
	switch def.SubType {
	case cards.Council:
		s.AddCurrency(6, ctx.CardID, ctx.Owner)
	case cards.Nomad:
		s.EquipWeapon(2, 2, ctx.Owner)
	case cards.Dweller:
		s.DrainHealth(4, ctx.CardID, ctx.Owner, s.Opponent(ctx.Owner))
	default:
		return false
	}
	return true
}

func AFriendlyWager(s *match.Session, ctx match.CardContext) bool {
	opp := s.Opponent(ctx.Owner)
	s.AddArmor(5, ctx.CardID, opp)
	if steal := min(2, s.Ledger(opp).Currency); steal > 0 {
		taken := -s.AddCurrency(-steal, ctx.CardID, opp)
		s.AddCurrency(taken, ctx.CardID, ctx.Owner)
	}
	return true
}

// AHardSwing deals half the opponent's health, rounded up.
func AHardSwing(s *match.Session, ctx match.CardContext) bool {
	opp := s.Opponent(ctx.Owner)
	damage := (s.Ledger(opp).Health + 1) / 2
	if damage == 0 {
		return false
	}
	s.DealDamage(damage, ctx.CardID, ctx.Owner, opp)
	return true
}

func ANewUpgrade(s *match.Session, ctx match.CardContext) bool {
	s.AddPower(2, ctx.CardID, ctx.Owner)
	return true
}

// Options offered by A Worthy Sacrifice.
const (
	SacrificeDamage  = "lose_1_power_damage_next_toad"
	SacrificeDestroy = "lose_3_power_destroy_next_toad"
)

func AWorthySacrifice(s *match.Session, ctx match.CardContext) bool {
	owner := ctx.Owner
	s.MultipleChoice(owner, ctx.CardID, "Choose a sacrifice", []string{SacrificeDamage, SacrificeDestroy}, func(option string) {
		switch option {
		case SacrificeDamage:
			s.AddPower(-1, ctx.CardID, owner)
			s.AddAura(owner, ledger.AuraWorthySacrificeDamage, 1)
		case SacrificeDestroy:
			s.AddPower(-3, ctx.CardID, owner)
			s.AddAura(owner, ledger.AuraWorthySacrificeDestroy, 1)
		}
	})
	return true
}

// AcidBlast steals up to 2 armor and drains 1 health per copy played so far,
// this one included.
func AcidBlast(s *match.Session, ctx match.CardContext) bool {
	opp := s.Opponent(ctx.Owner)
	if steal := min(2, s.Ledger(opp).Armor); steal > 0 {
		if stolen := -s.AddArmor(-steal, ctx.CardID, opp); stolen > 0 {
			s.AddArmor(stolen, ctx.CardID, ctx.Owner)
		}
	}
	times := s.Ledger(ctx.Owner).TimesPlayed(ctx.CardID) + 1
	s.DrainHealth(min(times, 99), ctx.CardID, ctx.Owner, opp)
	return true
}

// Ambush reveals the opponent's next plotted card. An Activity is destroyed;
// a Toad card is fought by the owner on the opponent's behalf, then discarded.
func Ambush(s *match.Session, ctx match.CardContext) bool {
	opp := s.Opponent(ctx.Owner)
	plot := s.PendingPlot(opp)
	if len(plot) == 0 {
		return false
	}
	next := plot[0]
	def, ok := s.Definition(next)
	if !ok || (def.Type != cards.Activity && def.Type != cards.ToadCard) {
		return false
	}
	s.RevealEventCard(next, opp)
	if def.Type == cards.ToadCard {
		s.TryResolveCombatCard(next, opp, ctx.Owner, ctx.Owner)
		if s.State() != match.InGame {
			return true
		}
	}
	s.DestroyCard(opp, next)
	return true
}

// AnnoyingFly weakens the opponent's next 3 attacks by 1.
func AnnoyingFly(s *match.Session, ctx match.CardContext) bool {
	s.AddAura(s.Opponent(ctx.Owner), ledger.AuraAnnoyingFly, 3)
	return true
}

func Auction(s *match.Session, ctx match.CardContext) bool {
	opp := s.Opponent(ctx.Owner)
	s.AddCurrency(2, ctx.CardID, opp)
	s.ChooseDiscard(1, opp, ctx.CardID, nil)
	return true
}

// Backfire cashes in the weapon's power as currency and destroys the weapon.
func Backfire(s *match.Session, ctx match.CardContext) bool {
	w := s.Ledger(ctx.Owner).Weapon
	if !w.Equipped {
		return false
	}
	s.AddCurrency(w.Power, ctx.CardID, ctx.Owner)
	s.DestroyWeapon(ctx.Owner)
	return true
}

// BagOfTricks buffs the opponent's next Toad card by +1/+1.
func BagOfTricks(s *match.Session, ctx match.CardContext) bool {
	s.AddAura(s.Opponent(ctx.Owner), ledger.AuraBagOfTricks, 1)
	return true
}
