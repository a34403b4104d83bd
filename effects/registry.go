package effects

import (
	"card-session-server/match"
)

// Registry maps an effect key (normally a card id) to its handler.
type Registry struct {
	handlers map[string]match.Handler
	order    []string // registration order for deterministic Keys()
}

var _ match.EffectProvider = (*Registry)(nil)

// NewRegistry creates a new empty effect registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]match.Handler)}
}

// Register adds or replaces the handler for key.
func (r *Registry) Register(key string, h match.Handler) {
	if _, exists := r.handlers[key]; !exists {
		r.order = append(r.order, key)
	}
	r.handlers[key] = h
}

// Handler returns the handler for key.
// It satisfies the match.EffectProvider interface.
func (r *Registry) Handler(key string) (match.Handler, bool) {
	h, ok := r.handlers[key]
	return h, ok
}

// Keys returns every registered key in registration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// RegisterAll registers every built-in card effect.
func RegisterAll(r *Registry) {
	r.Register("card_simple_damage_2", SimpleDamage2)
	r.Register("card_heal_3", Heal3)

	r.Register("card_a_big_sword", ABigSword)
	r.Register("card_a_dark_choice", ADarkChoice)
	r.Register("card_a_friendly_wager", AFriendlyWager)
	r.Register("card_a_hard_swing", AHardSwing)
	r.Register("card_a_new_upgrade", ANewUpgrade)
	r.Register("card_a_worthy_sacrifice", AWorthySacrifice)
	r.Register("card_acid_blast", AcidBlast)
	r.Register("card_ambush", Ambush)
	r.Register("card_annoying_fly", AnnoyingFly)
	r.Register("card_auction", Auction)
	r.Register("card_backfire", Backfire)
	r.Register("card_bag_of_tricks", BagOfTricks)

	r.Register("card_acid_spitter", AcidSpitter)
	r.Register("card_acrobat", Acrobat)
	r.Register("card_akimbo", Akimbo)
	r.Register("card_alesia_the_assassin", AlesiaTheAssassin)
	r.Register("card_ankle_biter", AnkleBiter)
	r.Register("card_apprentice_forger", ApprenticeForger)
	r.Register("card_arena_champion", ArenaChampion)
	r.Register("card_arms_dealer", ArmsDealer)
	r.Register("card_artificial_intelligence", ArtificialIntelligence)
	r.Register("card_assistant", Assistant)
	r.Register("card_backpacker", Backpacker)
	r.Register("card_bargain_dealer", BargainDealer)

	r.Register("card_anti_acid_coating_spray", AntiAcidCoatingSpray)
	r.Register("card_barrel_of_booze", BarrelOfBooze)
	r.Register("card_barrel_of_booze.use", BarrelOfBoozeUse)
}
