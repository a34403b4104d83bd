package protocol

// --- Lifecycle ---

type AcceptPromptPayload struct {
	MatchID           string `json:"matchId"`
	AcceptWindowSecs  int    `json:"acceptWindowSeconds"`
	DeadlineUnixMilli int64  `json:"deadlineUnixMs"`
}

type GameStartPayload struct {
	MatchID        string         `json:"matchId"`
	Players        []ConnectionID `json:"players"`
	StartingHealth int            `json:"startingHealth"`
	OpeningHand    int            `json:"openingHandSize"`
}

type MatchCanceledPayload struct {
	Reason string `json:"reason"`
}

type MatchEndedPayload struct {
	Winner     ConnectionID `json:"winner"`
	Loser      ConnectionID `json:"loser"`
	Reason     string       `json:"reason"`
	TurnNumber int          `json:"turnNumber"`
}

type PlayerConcededPayload struct {
	Player ConnectionID `json:"player"`
}

type EmoteReceivedPayload struct {
	From    ConnectionID `json:"from"`
	EmoteID string       `json:"emoteId"`
}

type PongPayload struct {
	ClientTimestamp int64 `json:"clientTimestamp"`
	ServerTimestamp int64 `json:"serverTimestamp"`
}

type PriorityPassedPayload struct {
	Player ConnectionID `json:"player"`
}

// --- Turns ---

type TurnChangedPayload struct {
	TurnOwner  ConnectionID `json:"currentTurnClientId"`
	TurnNumber int          `json:"turnNumber"`
}

type TurnEndedPayload struct {
	PreviousOwner ConnectionID `json:"previousTurnClientId"`
	TurnNumber    int          `json:"turnNumber"`
}

// --- Zones ---

type DrawCardsSelfPayload struct {
	Player    ConnectionID `json:"player"`
	CardIDs   []string     `json:"cardIds"`
	HandCount int          `json:"handCount"`
	DeckCount int          `json:"deckCount"`
}

// DrawCardsOpponentPayload tells a player how many cards the opponent drew, never which.
type DrawCardsOpponentPayload struct {
	Player    ConnectionID `json:"player"`
	Count     int          `json:"count"`
	HandCount int          `json:"handCount"`
	DeckCount int          `json:"deckCount"`
}

type CardPlayedPayload struct {
	Player  ConnectionID `json:"actorClientId"`
	CardID  string       `json:"cardId"`
	Targets Targets      `json:"targets"`
}

// CardMovedPayload backs the discarded and exiled events. CardID is empty in
// the opponent's copy unless the move was revealed.
type CardMovedPayload struct {
	Player   ConnectionID `json:"actorClientId"`
	CardID   string       `json:"cardId"`
	Revealed bool         `json:"revealed"`
}

type ExileEntireDiscardPayload struct {
	Player  ConnectionID `json:"player"`
	CardIDs []string     `json:"cardIds"`
}

type CardsDestroyedPayload struct {
	Player  ConnectionID `json:"player"`
	CardIDs []string     `json:"cardIds"`
}

type CardDestroyedPayload struct {
	Player ConnectionID `json:"player"`
	CardID string       `json:"cardId"`
}

type EventCardRevealedPayload struct {
	Player ConnectionID `json:"player"`
	CardID string       `json:"cardId"`
}

type CardResolvedPayload struct {
	Player ConnectionID `json:"player"`
	CardID string       `json:"cardId"`
	OK     bool         `json:"ok"`
}

// --- Resources ---

type DamageAppliedPayload struct {
	Target          ConnectionID `json:"targetClientId"`
	Amount          int          `json:"amount"`
	SourceCardID    string       `json:"sourceCardId"`
	ResultingHealth int          `json:"resultingHealth"`
	ResultingArmor  int          `json:"resultingArmor"`
}

type HealAppliedPayload struct {
	Target          ConnectionID `json:"targetClientId"`
	Amount          int          `json:"amount"`
	SourceCardID    string       `json:"sourceCardId"`
	ResultingHealth int          `json:"resultingHealth"`
}

type HealthDrainedPayload struct {
	Source       ConnectionID `json:"source"`
	Target       ConnectionID `json:"target"`
	Amount       int          `json:"amount"`
	SourceCardID string       `json:"sourceCardId"`
	SourceHealth int          `json:"sourceHealth"`
	TargetHealth int          `json:"targetHealth"`
}

// ResourceChangedPayload backs CurrencyChanged, PowerChanged and ArmorChanged.
type ResourceChangedPayload struct {
	Player       ConnectionID `json:"player"`
	Delta        int          `json:"delta"`
	Resulting    int          `json:"resulting"`
	SourceCardID string       `json:"sourceCardId"`
	// ConsumedTrinket is set when an armor-protecting trinket absorbed the
	// change instead; the trinket is gone afterwards.
	ConsumedTrinket string `json:"consumedTrinketCardId,omitempty"`
}

type EquipWeaponPayload struct {
	Player     ConnectionID `json:"player"`
	Power      int          `json:"power"`
	Durability int          `json:"durability"`
}

type WeaponStatsAdjustedPayload struct {
	Player          ConnectionID `json:"player"`
	PowerDelta      int          `json:"powerDelta"`
	DurabilityDelta int          `json:"durabilityDelta"`
	Power           int          `json:"power"`
	Durability      int          `json:"durability"`
}

type WeaponDestroyedPayload struct {
	Player ConnectionID `json:"player"`
}

type EquipTrinketPayload struct {
	Player ConnectionID `json:"player"`
	CardID string       `json:"cardId"`
	Uses   int          `json:"uses"`
	Aura   string       `json:"aura,omitempty"`
}

type TrinketUsesUpdatedPayload struct {
	Player ConnectionID `json:"player"`
	CardID string       `json:"cardId"`
	Uses   int          `json:"uses"`
}

type TrinketDestroyedPayload struct {
	Player ConnectionID `json:"player"`
	CardID string       `json:"cardId"`
}

type AuraPayload struct {
	Player    ConnectionID `json:"player"`
	Aura      string       `json:"aura"`
	Remaining int          `json:"remaining"`
}

type AurasRemovedPayload struct {
	Player ConnectionID `json:"player"`
	Auras  []string     `json:"auras"`
}

type CardStatsAdjustedPayload struct {
	Owner      ConnectionID `json:"owner"`
	CardID     string       `json:"cardId"`
	Aura       string       `json:"aura,omitempty"`
	Health     int          `json:"health"`
	BaseHealth int          `json:"baseHealth"`
	Power      int          `json:"power"`
}

type ToadCombatResultPayload struct {
	CardID          string       `json:"cardId"`
	Owner           ConnectionID `json:"owner"`
	Fighter         ConnectionID `json:"combated"`
	RewardRecipient ConnectionID `json:"rewardRecipient"`
	Won             bool         `json:"result"`
	NumHits         int          `json:"numHits"`
	PlayerArmor     int          `json:"playerArmor"`
	PlayerHealth    int          `json:"playerHealth"`
	CardHealth      int          `json:"cardHealth"`
}

// --- Stack and choices ---

// StackItem is the wire form of one stack entry.
type StackItem struct {
	ID                int            `json:"id"`
	CardID            string         `json:"cardId"`
	Source            ConnectionID   `json:"sourceClientId"`
	ActionID          string         `json:"actionId"`
	TargetConnections []ConnectionID `json:"targetClientIds,omitempty"`
	TargetCards       []string       `json:"targetCardIds,omitempty"`
	Revealed          bool           `json:"revealedToOpponent"`
}

// RedactedFor returns the item as recipient may see it: the card identity is
// blanked for anyone but the source unless it was revealed.
func (it StackItem) RedactedFor(recipient ConnectionID) StackItem {
	if recipient == it.Source || it.Revealed {
		return it
	}
	it.CardID = ""
	it.TargetCards = nil
	return it
}

// RedactStack applies RedactedFor to every item, leaving items untouched.
func RedactStack(items []StackItem, recipient ConnectionID) []StackItem {
	out := make([]StackItem, len(items))
	for i, it := range items {
		out[i] = it.RedactedFor(recipient)
	}
	return out
}

type StackItemAddedPayload struct {
	Item StackItem `json:"item"`
}

// StackUpdatedPayload is a full snapshot, bottom first.
type StackUpdatedPayload struct {
	Items []StackItem `json:"items"`
}

type StackResolvedPayload struct {
	Item StackItem `json:"item"`
	OK   bool      `json:"ok"`
}

type ChoiceRequestedPayload struct {
	ID         int      `json:"id"`
	Kind       string   `json:"kind"`
	Prompt     string   `json:"prompt"`
	SourceCard string   `json:"sourceCardId,omitempty"`
	Min        int      `json:"min"`
	Max        int      `json:"max"`
	Candidates []string `json:"candidates"`
	TimeoutSec int      `json:"timeoutSec"`
}

type ChoiceResolvedPayload struct {
	ID        int          `json:"id"`
	Recipient ConnectionID `json:"recipient"`
	Kind      string       `json:"kind"`
	Selection []string     `json:"selection"`
	TimedOut  bool         `json:"timedOut"`
}
