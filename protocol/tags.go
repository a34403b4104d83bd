package protocol

import "strconv"

// ConnectionID identifies one client connection. The hub assigns them in
// increasing order, so the lower value is the earlier connection.
type ConnectionID uint64

// EventTag is the stable wire tag of a server-to-client event.
// Tags are append-only: a retired tag is never reused for another payload.
type EventTag int

const (
	EventAcceptPrompt          EventTag = 0
	EventDrawCardsSelf         EventTag = 1
	EventDrawCardsOpponent     EventTag = 2
	EventTurnChanged           EventTag = 3
	EventTurnEnded             EventTag = 4
	EventCardPlayedSelf        EventTag = 5
	EventCardPlayedOpponent    EventTag = 6
	EventCardDiscardedSelf     EventTag = 7
	EventCardDiscardedOpponent EventTag = 8
	EventCardExiledSelf        EventTag = 9
	EventCardExiledOpponent    EventTag = 10
	EventDamageApplied         EventTag = 11
	EventHealApplied           EventTag = 12
	// 13 was StatusApplied; retired.
	EventMatchCanceled EventTag = 14
	// 15 was a generic error reply; rejected intents are silent.
	EventGameStart EventTag = 16

	EventStackItemAdded  EventTag = 60
	EventStackUpdated    EventTag = 61
	EventStackResolved   EventTag = 62
	EventChoiceRequested EventTag = 63
	EventChoiceResolved  EventTag = 64
	EventPlayerConceded  EventTag = 65
	EventEmoteReceived   EventTag = 66
	EventPong            EventTag = 67

	EventAuraAdded    EventTag = 70
	EventAuraRemoved  EventTag = 71
	EventAurasRemoved EventTag = 72

	EventCardStatsAdjusted EventTag = 75
	// 80 and 81 mirrored stats for a legacy client; retired.
	EventExileEntireDiscard EventTag = 82

	EventCardsDestroyed   EventTag = 85
	EventCardDestroyed    EventTag = 86
	EventTrinketDestroyed EventTag = 87
	EventWeaponDestroyed  EventTag = 88

	EventEquipWeapon         EventTag = 90
	EventWeaponStatsAdjusted EventTag = 91
	EventEquipTrinket        EventTag = 92

	EventEventCardRevealed EventTag = 95
	EventCardResolved      EventTag = 96

	EventToadCombatResult EventTag = 100

	EventPriorityPassed EventTag = 110

	EventCurrencyChanged    EventTag = 120
	EventPowerChanged       EventTag = 121
	EventArmorChanged       EventTag = 122
	EventTrinketUsesUpdated EventTag = 123
	EventHealthDrained      EventTag = 124
	EventMatchEnded         EventTag = 125
)

var eventNames = map[EventTag]string{
	EventAcceptPrompt:          "AcceptPrompt",
	EventDrawCardsSelf:         "DrawCardsSelf",
	EventDrawCardsOpponent:     "DrawCardsOpponent",
	EventTurnChanged:           "TurnChanged",
	EventTurnEnded:             "TurnEnded",
	EventCardPlayedSelf:        "CardPlayedSelf",
	EventCardPlayedOpponent:    "CardPlayedOpponent",
	EventCardDiscardedSelf:     "CardDiscardedSelf",
	EventCardDiscardedOpponent: "CardDiscardedOpponent",
	EventCardExiledSelf:        "CardExiledSelf",
	EventCardExiledOpponent:    "CardExiledOpponent",
	EventDamageApplied:         "DamageApplied",
	EventHealApplied:           "HealApplied",
	EventMatchCanceled:         "MatchCanceled",
	EventGameStart:             "GameStart",
	EventStackItemAdded:        "StackItemAdded",
	EventStackUpdated:          "StackUpdated",
	EventStackResolved:         "StackResolved",
	EventChoiceRequested:       "ChoiceRequested",
	EventChoiceResolved:        "ChoiceResolved",
	EventPlayerConceded:        "PlayerConceded",
	EventEmoteReceived:         "EmoteReceived",
	EventPong:                  "Pong",
	EventAuraAdded:             "AuraAdded",
	EventAuraRemoved:           "AuraRemoved",
	EventAurasRemoved:          "AurasRemoved",
	EventCardStatsAdjusted:     "CardStatsAdjusted",
	EventExileEntireDiscard:    "ExileEntireDiscard",
	EventCardsDestroyed:        "CardsDestroyed",
	EventCardDestroyed:         "CardDestroyed",
	EventTrinketDestroyed:      "TrinketDestroyed",
	EventWeaponDestroyed:       "WeaponDestroyed",
	EventEquipWeapon:           "EquipWeapon",
	EventWeaponStatsAdjusted:   "WeaponStatsAdjusted",
	EventEquipTrinket:          "EquipTrinket",
	EventEventCardRevealed:     "EventCardRevealed",
	EventCardResolved:          "CardResolved",
	EventToadCombatResult:      "ToadCombatResult",
	EventPriorityPassed:        "PriorityPassed",
	EventCurrencyChanged:       "CurrencyChanged",
	EventPowerChanged:          "PowerChanged",
	EventArmorChanged:          "ArmorChanged",
	EventTrinketUsesUpdated:    "TrinketUsesUpdated",
	EventHealthDrained:         "HealthDrained",
	EventMatchEnded:            "MatchEnded",
}

func (t EventTag) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "Event(" + strconv.Itoa(int(t)) + ")"
}

// IntentTag is the stable wire tag of a client-to-server intent.
type IntentTag int

const (
	IntentAcceptReadyCheck IntentTag = 0
	IntentAcknowledge      IntentTag = 1
	IntentEndTurn          IntentTag = 2
	IntentPlayCard         IntentTag = 3
	IntentDiscardCard      IntentTag = 4
	IntentExileCard        IntentTag = 5
	IntentRequeue          IntentTag = 8
	IntentAddToStack       IntentTag = 14
	IntentChoiceResponse   IntentTag = 15
	IntentConcede          IntentTag = 16
	IntentEmote            IntentTag = 17
	IntentPing             IntentTag = 18
	IntentPassPriority     IntentTag = 19
	IntentUseTrinket       IntentTag = 20
)

var intentNames = map[IntentTag]string{
	IntentAcceptReadyCheck: "AcceptReadyCheck",
	IntentAcknowledge:      "Acknowledge",
	IntentEndTurn:          "EndTurn",
	IntentPlayCard:         "PlayCard",
	IntentDiscardCard:      "DiscardCard",
	IntentExileCard:        "ExileCard",
	IntentRequeue:          "Requeue",
	IntentAddToStack:       "AddToStack",
	IntentChoiceResponse:   "ChoiceResponse",
	IntentConcede:          "Concede",
	IntentEmote:            "Emote",
	IntentPing:             "Ping",
	IntentPassPriority:     "PassPriority",
	IntentUseTrinket:       "UseTrinket",
}

func (t IntentTag) String() string {
	if name, ok := intentNames[t]; ok {
		return name
	}
	return "Intent(" + strconv.Itoa(int(t)) + ")"
}

// Known reports whether t is a tag this server understands.
func (t IntentTag) Known() bool {
	_, ok := intentNames[t]
	return ok
}
