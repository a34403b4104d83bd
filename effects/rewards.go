package effects

import (
	"card-session-server/ledger"
	"card-session-server/match"
)

// Toad card rewards. They run only after the card was beaten, with
// ctx.Owner set to the reward recipient.

func AcidSpitter(s *match.Session, ctx match.CardContext) bool {
	opp := s.Opponent(ctx.Owner)
	armor := s.Ledger(opp).Armor
	if armor == 0 {
		return false
	}
	s.AddArmor(-armor, ctx.CardID, opp)
	return true
}

func Acrobat(s *match.Session, ctx match.CardContext) bool {
	s.AddPower(1, ctx.CardID, ctx.Owner)
	return true
}

func Akimbo(s *match.Session, ctx match.CardContext) bool {
	s.DealDamage(1, ctx.CardID, ctx.Owner, s.Opponent(ctx.Owner))
	s.AddAura(ctx.Owner, ledger.AuraAkimbo, 1)
	return true
}

// AlesiaTheAssassin destroys the rest of the opponent's match plot, but only
// when the owner's hand is empty.
func AlesiaTheAssassin(s *match.Session, ctx match.CardContext) bool {
	if s.Ledger(ctx.Owner).Count(ledger.Hand) > 0 {
		return false
	}
	opp := s.Opponent(ctx.Owner)
	plot := s.PendingPlot(opp)
	if len(plot) == 0 {
		return false
	}
	s.DestroyCards(opp, plot)
	return true
}

func AnkleBiter(s *match.Session, ctx match.CardContext) bool {
	s.AddPower(-1, ctx.CardID, s.Opponent(ctx.Owner))
	return true
}

func ApprenticeForger(s *match.Session, ctx match.CardContext) bool {
	if !s.AdjustWeaponStats(1, 2, ctx.Owner) {
		s.EquipWeapon(1, 1, ctx.Owner)
	}
	return true
}

// ArenaChampion pays 1 currency per stat in which the owner leads.
func ArenaChampion(s *match.Session, ctx match.CardContext) bool {
	me, them := s.Ledger(ctx.Owner), s.Ledger(s.Opponent(ctx.Owner))
	gain := 0
	for _, lead := range []bool{
		me.Armor > them.Armor,
		me.Health > them.Health,
		me.Power > them.Power,
		me.Currency > them.Currency,
	} {
		if lead {
			gain++
		}
	}
	if gain > 0 {
		s.AddCurrency(gain, ctx.CardID, ctx.Owner)
	}
	return true
}

func ArmsDealer(s *match.Session, ctx match.CardContext) bool {
	s.EquipWeapon(2, 5, ctx.Owner)
	return true
}

// ArtificialIntelligence converts all weapon power into durability.
func ArtificialIntelligence(s *match.Session, ctx match.CardContext) bool {
	w := s.Ledger(ctx.Owner).Weapon
	if !w.Equipped {
		return false
	}
	return s.AdjustWeaponStats(-w.Power, w.Power, ctx.Owner)
}

// Assistant draws 2 and asks for a discard; afterwards the owner gains 3
// currency and the discard pile is exiled.
func Assistant(s *match.Session, ctx match.CardContext) bool {
	owner := ctx.Owner
	s.DrawCards(2, owner)
	finish := func() {
		s.AddCurrency(3, ctx.CardID, owner)
		s.ExileDiscardPile(owner)
	}
	if !s.ChooseDiscard(1, owner, ctx.CardID, finish) {
		finish()
	}
	return true
}

func Backpacker(s *match.Session, ctx match.CardContext) bool {
	s.DrawCards(1, ctx.Owner)
	s.AddCurrency(3, ctx.CardID, ctx.Owner)
	s.EquipWeapon(2, 1, ctx.Owner)
	return true
}

// BargainDealer pays off only if the card took more than one hit.
func BargainDealer(s *match.Session, ctx match.CardContext) bool {
	if ctx.CombatHits <= 1 {
		return false
	}
	s.AddPower(1, ctx.CardID, ctx.Owner)
	return true
}
