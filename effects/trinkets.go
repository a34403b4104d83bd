package effects

import (
	"card-session-server/ledger"
	"card-session-server/match"
)

// AntiAcidCoatingSpray protects the owner's armor from the next reduction.
func AntiAcidCoatingSpray(s *match.Session, ctx match.CardContext) bool {
	s.EquipTrinket(ctx.CardID, 1, ledger.AuraTrinketAcidCoatingSpray, ctx.Owner)
	return true
}

// BarrelOfBooze triggers on every Toad kill, three times.
func BarrelOfBooze(s *match.Session, ctx match.CardContext) bool {
	s.EquipTrinket(ctx.CardID, 3, ledger.AuraTrinketBarrelOfBooze, ctx.Owner)
	return true
}

// BarrelOfBoozeUse is the activated form: drain 2 and the opponent discards 1.
func BarrelOfBoozeUse(s *match.Session, ctx match.CardContext) bool {
	opp := s.Opponent(ctx.Owner)
	s.DrainHealth(2, ctx.CardID, ctx.Owner, opp)
	s.ChooseDiscard(1, opp, ctx.CardID, nil)
	return true
}
