package ledger

import "slices"

// AuraKind names a limited-use modifier attached to a player.
type AuraKind string

const (
	AuraAnnoyingFly             AuraKind = "annoying_fly"
	AuraAkimbo                  AuraKind = "akimbo"
	AuraWorthySacrificeDamage   AuraKind = "a_worthy_sacrifice_damage"
	AuraWorthySacrificeDestroy  AuraKind = "a_worthy_sacrifice_destroy"
	AuraTrinketAcidCoatingSpray AuraKind = "trinket_acid_coating_spray"
	AuraTrinketBarrelOfBooze    AuraKind = "trinket_barrel_of_booze"
	AuraBagOfTricks             AuraKind = "bag_of_tricks"
)

// Weapon is the equipped weapon, if any.
type Weapon struct {
	Power      int  `json:"power"`
	Durability int  `json:"durability"`
	Equipped   bool `json:"equipped"`
}

// Trinket is the equipped trinket. Its card stays on the board while equipped.
type Trinket struct {
	CardID     string   `json:"cardId"`
	Durability int      `json:"durability"`
	Aura       AuraKind `json:"aura,omitempty"`
	Equipped   bool     `json:"equipped"`
}

// CardStats is the mutable overlay of a card instance on the board.
type CardStats struct {
	BaseHealth int `json:"baseHealth"`
	BaseArmor  int `json:"baseArmor"`
	BaseCost   int `json:"baseCost"`
	BasePower  int `json:"basePower"`
	Health     int `json:"health"`
	Armor      int `json:"armor"`
	Cost       int `json:"cost"`
	Power      int `json:"power"`
}

// NewCardStats returns an overlay with current values equal to base.
func NewCardStats(health, armor, cost, power int) CardStats {
	return CardStats{
		BaseHealth: health, BaseArmor: armor, BaseCost: cost, BasePower: power,
		Health: health, Armor: armor, Cost: cost, Power: power,
	}
}

// Limits are the clamp bounds applied on every write.
type Limits struct {
	MaxHealth int
	Ceiling   int
}

// PlayerLedger is one player's authoritative resources and zones.
// Only the owning session mutates it; effect handlers read it.
type PlayerLedger struct {
	Health   int `json:"health"`
	Armor    int `json:"armor"`
	Currency int `json:"currency"`
	Power    int `json:"power"`

	Weapon  Weapon  `json:"weapon"`
	Trinket Trinket `json:"trinket"`

	Zones Zones `json:"zones"`

	// Auras maps a modifier to its remaining applications.
	Auras map[AuraKind]int `json:"auras"`

	// Stats holds overlays for cards currently on the board.
	Stats map[string]*CardStats `json:"-"`

	LastPlayedCardID string   `json:"lastPlayedCardId"`
	PlayHistory      []string `json:"playHistory"`

	limits Limits
}

// New creates a ledger with the given starting health and deck.
func New(health int, deck []string, limits Limits) *PlayerLedger {
	l := &PlayerLedger{
		Auras:  make(map[AuraKind]int),
		Stats:  make(map[string]*CardStats),
		limits: limits,
	}
	l.Health = clamp(health, 0, limits.MaxHealth)
	l.Zones.Deck = slices.Clone(deck)
	return l
}

// Limits returns the ledger's clamp bounds.
func (l *PlayerLedger) Limits() Limits { return l.limits }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ApplyDamage absorbs d with armor first and takes the remainder from health.
// It returns the armor and health actually removed.
func (l *PlayerLedger) ApplyDamage(d int) (armorLost, healthLost int) {
	if d <= 0 {
		return 0, 0
	}
	armorLost = min(l.Armor, d)
	l.Armor -= armorLost
	healthLost = min(l.Health, d-armorLost)
	l.Health -= healthLost
	return armorLost, healthLost
}

// Heal raises health by n without exceeding the maximum and returns the gain.
func (l *PlayerLedger) Heal(n int) int {
	if n <= 0 {
		return 0
	}
	before := l.Health
	l.Health = clamp(l.Health+n, 0, l.limits.MaxHealth)
	return l.Health - before
}

// LoseHealth removes up to n health, ignoring armor, and returns the amount removed.
func (l *PlayerLedger) LoseHealth(n int) int {
	if n <= 0 {
		return 0
	}
	lost := min(l.Health, n)
	l.Health -= lost
	return lost
}

// AddCurrency applies delta clamped to [0, ceiling] and returns the applied delta.
func (l *PlayerLedger) AddCurrency(delta int) int {
	return addClamped(&l.Currency, delta, l.limits.Ceiling)
}

// AddPower applies delta clamped to [0, ceiling] and returns the applied delta.
func (l *PlayerLedger) AddPower(delta int) int {
	return addClamped(&l.Power, delta, l.limits.Ceiling)
}

// AddArmor applies delta clamped to [0, ceiling] and returns the applied delta.
func (l *PlayerLedger) AddArmor(delta int) int {
	return addClamped(&l.Armor, delta, l.limits.Ceiling)
}

func addClamped(field *int, delta, ceiling int) int {
	before := *field
	*field = clamp(before+delta, 0, ceiling)
	return *field - before
}

// EquipWeapon replaces any equipped weapon.
func (l *PlayerLedger) EquipWeapon(power, durability int) {
	l.Weapon = Weapon{
		Power:      clamp(power, 0, l.limits.Ceiling),
		Durability: clamp(durability, 0, l.limits.Ceiling),
		Equipped:   durability > 0,
	}
}

// AdjustWeapon changes the equipped weapon's stats. A weapon whose durability
// reaches zero is destroyed. ok is false when no weapon is equipped.
func (l *PlayerLedger) AdjustWeapon(dPower, dDurability int) (ok, destroyed bool) {
	if !l.Weapon.Equipped {
		return false, false
	}
	l.Weapon.Power = clamp(l.Weapon.Power+dPower, 0, l.limits.Ceiling)
	l.Weapon.Durability = clamp(l.Weapon.Durability+dDurability, 0, l.limits.Ceiling)
	if l.Weapon.Durability == 0 {
		l.Weapon = Weapon{}
		return true, true
	}
	return true, false
}

// DestroyWeapon removes the equipped weapon. It reports whether one was equipped.
func (l *PlayerLedger) DestroyWeapon() bool {
	had := l.Weapon.Equipped
	l.Weapon = Weapon{}
	return had
}

// EquipTrinket records cardID as the equipped trinket with uses charges and
// attaches its aura, if any.
func (l *PlayerLedger) EquipTrinket(cardID string, uses int, aura AuraKind) {
	l.Trinket = Trinket{CardID: cardID, Durability: clamp(uses, 0, l.limits.Ceiling), Aura: aura, Equipped: true}
	if aura != "" {
		l.Auras[aura] = l.Trinket.Durability
	}
}

// AdjustTrinketUses changes the remaining trinket uses and keeps its aura in step.
// It returns the remaining uses; ok is false when no trinket is equipped.
func (l *PlayerLedger) AdjustTrinketUses(delta int) (remaining int, ok bool) {
	if !l.Trinket.Equipped {
		return 0, false
	}
	l.Trinket.Durability = clamp(l.Trinket.Durability+delta, 0, l.limits.Ceiling)
	if l.Trinket.Aura != "" {
		if l.Trinket.Durability > 0 {
			l.Auras[l.Trinket.Aura] = l.Trinket.Durability
		} else {
			delete(l.Auras, l.Trinket.Aura)
		}
	}
	return l.Trinket.Durability, true
}

// UnequipTrinket clears the trinket and its aura and returns the trinket's card.
func (l *PlayerLedger) UnequipTrinket() (cardID string, ok bool) {
	if !l.Trinket.Equipped {
		return "", false
	}
	cardID = l.Trinket.CardID
	if l.Trinket.Aura != "" {
		delete(l.Auras, l.Trinket.Aura)
	}
	l.Trinket = Trinket{}
	return cardID, true
}

// AddAura adds n applications of kind and returns the new total.
func (l *PlayerLedger) AddAura(kind AuraKind, n int) int {
	if n <= 0 {
		return l.Auras[kind]
	}
	l.Auras[kind] += n
	return l.Auras[kind]
}

// HasAura reports whether kind has applications left.
func (l *PlayerLedger) HasAura(kind AuraKind) bool {
	return l.Auras[kind] > 0
}

// ConsumeAura spends one application of kind. ok is false if none were left.
func (l *PlayerLedger) ConsumeAura(kind AuraKind) (remaining int, ok bool) {
	n := l.Auras[kind]
	if n <= 0 {
		return 0, false
	}
	n--
	if n == 0 {
		delete(l.Auras, kind)
	} else {
		l.Auras[kind] = n
	}
	return n, true
}

// RemoveAura drops every application of kind and reports whether any existed.
func (l *PlayerLedger) RemoveAura(kind AuraKind) bool {
	_, had := l.Auras[kind]
	delete(l.Auras, kind)
	return had
}

// EnterPlay attaches a stat overlay to a card on the board, replacing any stale one.
func (l *PlayerLedger) EnterPlay(cardID string, stats CardStats) *CardStats {
	s := stats
	l.Stats[cardID] = &s
	return &s
}

// StatsOf returns the overlay of a card on the board.
func (l *PlayerLedger) StatsOf(cardID string) (*CardStats, bool) {
	s, ok := l.Stats[cardID]
	return s, ok
}

// RecordPlay appends cardID to the play history.
func (l *PlayerLedger) RecordPlay(cardID string) {
	l.LastPlayedCardID = cardID
	l.PlayHistory = append(l.PlayHistory, cardID)
}

// TimesPlayed counts how often cardID has resolved for this player.
func (l *PlayerLedger) TimesPlayed(cardID string) int {
	n := 0
	for _, id := range l.PlayHistory {
		if id == cardID {
			n++
		}
	}
	return n
}

// Adjust shifts current health and power. Health bottoms out at zero and power at one.
func (s *CardStats) Adjust(dHealth, dPower int) {
	s.Health = max(0, s.Health+dHealth)
	s.Power = max(1, s.Power+dPower)
}

// Kill drops current health to zero.
func (s *CardStats) Kill() { s.Health = 0 }
