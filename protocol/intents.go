package protocol

// Targets names the connections and cards an action is aimed at.
type Targets struct {
	Connections []ConnectionID `json:"connectionIds,omitempty"`
	Cards       []string       `json:"cardIds,omitempty"`
}

type AcceptReadyCheckIntent struct {
	MatchID string `json:"matchId"`
	Accept  bool   `json:"accept"`
}

type AcknowledgeIntent struct {
	EventID uint64 `json:"eventId"`
}

type PlayCardIntent struct {
	CardID  string  `json:"cardId"`
	Targets Targets `json:"targets"`
}

// MoveCardIntent is the body of both DiscardCard and ExileCard.
type MoveCardIntent struct {
	CardID           string `json:"cardId"`
	RevealToOpponent bool   `json:"revealToOpponent"`
}

type AddToStackIntent struct {
	CardID           string  `json:"cardId"`
	ActionID         string  `json:"actionId"`
	Targets          Targets `json:"targets"`
	RevealToOpponent bool    `json:"revealToOpponent"`
}

type ChoiceResponseIntent struct {
	RequestID int      `json:"requestId"`
	Selection []string `json:"selection"`
}

type EmoteIntent struct {
	ID string `json:"id"`
}

type PingIntent struct {
	ClientTimestamp int64 `json:"clientTimestamp"`
}
