package match

import (
	"testing"

	"card-session-server/ledger"
	"card-session-server/protocol"
)

func TestExchangePolicy(t *testing.T) {
	tests := []struct {
		name     string
		fighter  Combatant
		card     ledger.CardStats
		wantWon  bool
		wantHits int
		wantDmg  int
	}{
		{"kills in two hits", Combatant{Attack: 2, Health: 10}, ledger.NewCardStats(3, 0, 0, 1), true, 2, 1},
		{"one-shot takes no damage", Combatant{Attack: 5, Health: 10}, ledger.NewCardStats(3, 0, 0, 4), true, 1, 0},
		{"fighter falls", Combatant{Attack: 1, Health: 1}, ledger.NewCardStats(5, 0, 0, 2), false, 1, 2},
		{"armor extends the fight", Combatant{Attack: 1, Health: 1, Armor: 2}, ledger.NewCardStats(3, 0, 0, 1), true, 3, 2},
		{"zero attack still hits", Combatant{Attack: 0, Health: 10}, ledger.NewCardStats(1, 0, 0, 1), true, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ExchangePolicy{}.Fight(tt.fighter, tt.card)
			if out.Won != tt.wantWon || out.Hits != tt.wantHits || out.DamageTaken != tt.wantDmg {
				t.Errorf("got %+v, want won=%v hits=%d damage=%d", out, tt.wantWon, tt.wantHits, tt.wantDmg)
			}
		})
	}
}

func TestExchangePolicyRoundCap(t *testing.T) {
	out := ExchangePolicy{MaxRounds: 3}.Fight(Combatant{Attack: 1, Health: 100}, ledger.NewCardStats(10, 0, 0, 0))
	if out.Won || out.Hits != 3 || out.CardHealth != 7 {
		t.Errorf("expected a capped draw after 3 hits, got %+v", out)
	}
}

func TestPolicyByName(t *testing.T) {
	if _, ok := PolicyByName("exchange").(ExchangePolicy); !ok {
		t.Error("expected ExchangePolicy for \"exchange\"")
	}
	if _, ok := PolicyByName("anything").(RewardPolicy); !ok {
		t.Error("expected RewardPolicy by default")
	}
}

func TestDefaultPolicyNeverLosesFight(t *testing.T) {
	h := newHarness(t, testConfig(), defaultMockEffects(), nil)
	h.start()
	h.s.Ledger(connA).Health = 1

	h.s.Dispatch(Action{Type: ActionPlayCard, Conn: connA, CardID: "card_acrobat"})

	res := combatResult(t, events(t, h.sendB))
	if !res.Won || res.NumHits != 0 || res.PlayerHealth != 1 {
		t.Errorf("expected a free win under the default policy, got %+v", res)
	}
	if h.s.State() != InGame || h.s.Ledger(connA).Health != 1 {
		t.Errorf("fighter should be untouched, state %s health %d", h.s.State(), h.s.Ledger(connA).Health)
	}
}

func combatResult(t *testing.T, evs []event) protocol.ToadCombatResultPayload {
	t.Helper()
	res := find(evs, protocol.EventToadCombatResult)
	if len(res) != 1 {
		t.Fatalf("expected one ToadCombatResult, got %v", tags(evs))
	}
	return payloadOf[protocol.ToadCombatResultPayload](t, res[0])
}

func TestToadFightDamagesFighter(t *testing.T) {
	h := newHarness(t, testConfig(), defaultMockEffects(), ExchangePolicy{})
	h.start()
	// Acrobat: 3 health, 1 power. Base attack 1 takes three hits and two counters.
	h.s.Dispatch(Action{Type: ActionPlayCard, Conn: connA, CardID: "card_acrobat"})

	res := combatResult(t, events(t, h.sendB))
	if !res.Won || res.NumHits != 3 || res.PlayerHealth != 28 || res.Fighter != connA {
		t.Errorf("unexpected combat result: %+v", res)
	}
	if h.s.Ledger(connA).Health != 28 {
		t.Errorf("expected A at 28, got %d", h.s.Ledger(connA).Health)
	}
}

func TestWeaponWearsAfterFight(t *testing.T) {
	h := newHarness(t, testConfig(), defaultMockEffects(), ExchangePolicy{})
	h.start()
	h.s.EquipWeapon(3, 1, connA)
	drainChannel(h.sendA)

	h.s.Dispatch(Action{Type: ActionPlayCard, Conn: connA, CardID: "card_acrobat"})

	evs := events(t, h.sendA)
	if res := combatResult(t, evs); res.NumHits != 1 {
		t.Errorf("weapon should add to attack, got %d hits", res.NumHits)
	}
	if len(find(evs, protocol.EventWeaponDestroyed)) != 1 || h.s.Ledger(connA).Weapon.Equipped {
		t.Error("a one-durability weapon should break after a fight")
	}
}

func TestSacrificeAuraKillsBeforeFight(t *testing.T) {
	h := newHarness(t, testConfig(), defaultMockEffects(), ExchangePolicy{})
	h.start()
	h.s.Ledger(connA).AddAura(ledger.AuraWorthySacrificeDestroy, 1)

	h.s.Dispatch(Action{Type: ActionPlayCard, Conn: connA, CardID: "card_acrobat"})

	evs := events(t, h.sendA)
	adj := find(evs, protocol.EventCardStatsAdjusted)
	if len(adj) != 1 || payloadOf[protocol.CardStatsAdjustedPayload](t, adj[0]).Health != 0 {
		t.Fatalf("expected the card to be killed by the aura, got %v", tags(evs))
	}
	if res := combatResult(t, evs); !res.Won || res.NumHits != 0 {
		t.Errorf("expected a free win, got %+v", res)
	}
	if h.s.Ledger(connA).Health != 30 || h.s.Ledger(connA).HasAura(ledger.AuraWorthySacrificeDestroy) {
		t.Error("aura should be spent and no damage taken")
	}
}

func TestAnnoyingFlyWeakensFighterOnce(t *testing.T) {
	h := newHarness(t, testConfig(), defaultMockEffects(), ExchangePolicy{})
	h.start()
	h.s.Ledger(connA).AddPower(2)
	h.s.AddAura(connA, ledger.AuraAnnoyingFly, 1)
	drainChannel(h.sendA)

	h.s.Dispatch(Action{Type: ActionPlayCard, Conn: connA, CardID: "card_acrobat"})

	evs := events(t, h.sendA)
	removed := find(evs, protocol.EventAuraRemoved)
	if len(removed) != 1 || payloadOf[protocol.AuraPayload](t, removed[0]).Remaining != 0 {
		t.Fatalf("expected the fly to be consumed, got %v", tags(evs))
	}
	// Attack 2-1 against 3 health takes three hits.
	if res := combatResult(t, evs); res.NumHits != 3 {
		t.Errorf("expected 3 hits with reduced attack, got %d", res.NumHits)
	}
	if h.s.Ledger(connA).Power != 2 {
		t.Error("the fly must not change permanent power")
	}
}

func TestLostFightSkipsReward(t *testing.T) {
	fx := defaultMockEffects()
	rewarded := false
	fx["card_acrobat"] = func(*Session, CardContext) bool { rewarded = true; return true }
	h := newHarness(t, testConfig(), fx, ExchangePolicy{})
	h.start()
	h.s.Ledger(connA).Health = 1

	h.s.Dispatch(Action{Type: ActionPlayCard, Conn: connA, CardID: "card_acrobat"})

	if rewarded {
		t.Error("reward granted for a lost fight")
	}
	if h.s.State() != Ended {
		t.Errorf("fighter at zero health should lose the match, state %s", h.s.State())
	}
}

func TestRewardGoesToRecipient(t *testing.T) {
	fx := defaultMockEffects()
	var got CardContext
	fx["card_acrobat"] = func(_ *Session, ctx CardContext) bool { got = ctx; return true }
	h := newHarness(t, testConfig(), fx, RewardPolicy{})
	h.start()
	_ = h.s.Ledger(connB).Move("card_acrobat", ledger.Hand, ledger.Board)

	if !h.s.TryResolveCombatCard("card_acrobat", connB, connA, connA) {
		t.Fatal("expected the fight to be won")
	}
	if got.Owner != connA || got.RewardRecipient != connA || got.CardID != "card_acrobat" {
		t.Errorf("unexpected reward context: %+v", got)
	}
}

func TestBarrelOfBoozeAfterKill(t *testing.T) {
	h := newHarness(t, testConfig(), defaultMockEffects(), RewardPolicy{})
	h.start()
	h.s.EquipTrinket("card_barrel_of_booze", 3, ledger.AuraTrinketBarrelOfBooze, connA)
	drainChannel(h.sendB)

	h.s.Dispatch(Action{Type: ActionPlayCard, Conn: connA, CardID: "card_acrobat"})

	if h.s.Ledger(connA).Trinket.Durability != 2 {
		t.Errorf("expected 2 trinket uses left, got %d", h.s.Ledger(connA).Trinket.Durability)
	}
	if h.s.Ledger(connB).Health != 28 {
		t.Errorf("expected B drained to 28, got %d", h.s.Ledger(connB).Health)
	}
	bevs := events(t, h.sendB)
	if len(find(bevs, protocol.EventHealthDrained)) != 1 || len(find(bevs, protocol.EventChoiceRequested)) != 1 {
		t.Errorf("expected a drain and a discard choice for B, got %v", tags(bevs))
	}
}

func TestSprayAbsorbsArmorLoss(t *testing.T) {
	h := newHarness(t, testConfig(), defaultMockEffects(), nil)
	h.start()
	h.s.AddArmor(3, "", connB)
	h.s.EquipTrinket("card_anti_acid_coating_spray", 1, ledger.AuraTrinketAcidCoatingSpray, connB)
	drainChannel(h.sendA)

	if applied := h.s.AddArmor(-2, "card_acid_blast", connB); applied != 0 {
		t.Errorf("expected the loss to be absorbed, applied %d", applied)
	}
	l := h.s.Ledger(connB)
	if l.Armor != 3 || l.Trinket.Equipped || l.HasAura(ledger.AuraTrinketAcidCoatingSpray) {
		t.Errorf("expected armor kept and trinket spent, got armor %d trinket %+v", l.Armor, l.Trinket)
	}
	evs := events(t, h.sendA)
	if len(evs) != 1 || payloadOf[protocol.ResourceChangedPayload](t, evs[0]).ConsumedTrinket != "card_anti_acid_coating_spray" {
		t.Errorf("expected one ArmorChanged naming the spent trinket, got %v", tags(evs))
	}

	if applied := h.s.AddArmor(-2, "card_acid_blast", connB); applied != -2 || l.Armor != 1 {
		t.Errorf("second loss should apply, got %d armor %d", applied, l.Armor)
	}
}

func TestDrainNeverTakesMoreThanHealth(t *testing.T) {
	h := newHarness(t, testConfig(), defaultMockEffects(), nil)
	h.start()
	h.s.Ledger(connA).Health = 25
	h.s.Ledger(connB).Health = 1

	if taken := h.s.DrainHealth(2, "", connA, connB); taken != 1 {
		t.Errorf("expected to drain 1, got %d", taken)
	}
	if h.s.Ledger(connA).Health != 26 || h.s.Ledger(connB).Health != 0 {
		t.Errorf("unexpected healths %d/%d", h.s.Ledger(connA).Health, h.s.Ledger(connB).Health)
	}
}

func TestTrinketUsesRunOut(t *testing.T) {
	h := newHarness(t, testConfig(), defaultMockEffects(), nil)
	h.start()
	h.s.EquipTrinket("card_barrel_of_booze", 1, ledger.AuraTrinketBarrelOfBooze, connA)
	drainChannel(h.sendA)

	h.s.UpdateTrinketUses(-1, connA)

	evs := events(t, h.sendA)
	if len(evs) != 1 || evs[0].Tag != protocol.EventTrinketDestroyed {
		t.Fatalf("expected TrinketDestroyed, got %v", tags(evs))
	}
	if h.s.Ledger(connA).Trinket.Equipped {
		t.Error("trinket should be gone")
	}
}

func TestUseTrinketNeedsHandler(t *testing.T) {
	fx := defaultMockEffects()
	used := 0
	fx["card_barrel_of_booze.use"] = func(*Session, CardContext) bool { used++; return true }
	cfg := testConfig()
	cfg.DeckList = append(cfg.DeckList, "card_barrel_of_booze", "card_anti_acid_coating_spray")
	cfg.OpeningHandSize = len(cfg.DeckList)
	h := newHarness(t, cfg, fx, nil)
	h.start()

	l := h.s.Ledger(connA)
	_ = l.Move("card_anti_acid_coating_spray", ledger.Hand, ledger.Board)
	h.s.EquipTrinket("card_anti_acid_coating_spray", 1, ledger.AuraTrinketAcidCoatingSpray, connA)
	h.s.Dispatch(Action{Type: ActionUseTrinket, Conn: connA})
	if h.s.StackLen() != 0 || !l.Trinket.Equipped || l.Trinket.Durability != 1 {
		t.Fatal("a trinket without an activated ability should not be usable")
	}

	_ = l.Move("card_barrel_of_booze", ledger.Hand, ledger.Board)
	h.s.EquipTrinket("card_barrel_of_booze", 3, ledger.AuraTrinketBarrelOfBooze, connA)
	h.s.Dispatch(Action{Type: ActionUseTrinket, Conn: connA})
	if used != 1 || l.Trinket.Durability != 2 {
		t.Errorf("expected one activation and 2 uses left, got %d activations %d uses", used, l.Trinket.Durability)
	}
}
