package ws

import (
	"errors"
	"fmt"

	"card-session-server/match"
	"card-session-server/protocol"
)

// errNotSessionIntent is returned for intents the connection handles itself.
var errNotSessionIntent = errors.New("intent is not routed to a session")

// ToAction converts a decoded client envelope into a session action. The
// connection id is filled in by the router.
func ToAction(env protocol.InboundEnvelope) (match.Action, error) {
	var a match.Action
	switch env.Tag {
	case protocol.IntentAcceptReadyCheck:
		var in protocol.AcceptReadyCheckIntent
		if err := env.DecodePayload(&in); err != nil {
			return a, err
		}
		a = match.Action{Type: match.ActionAcceptReadyCheck, MatchID: in.MatchID, Accept: in.Accept}
	case protocol.IntentAcknowledge:
		var in protocol.AcknowledgeIntent
		if err := env.DecodePayload(&in); err != nil {
			return a, err
		}
		a = match.Action{Type: match.ActionAcknowledge, EventID: in.EventID}
	case protocol.IntentEndTurn:
		a = match.Action{Type: match.ActionEndTurn}
	case protocol.IntentPlayCard:
		var in protocol.PlayCardIntent
		if err := env.DecodePayload(&in); err != nil {
			return a, err
		}
		a = match.Action{Type: match.ActionPlayCard, CardID: in.CardID, Targets: in.Targets}
	case protocol.IntentDiscardCard, protocol.IntentExileCard:
		var in protocol.MoveCardIntent
		if err := env.DecodePayload(&in); err != nil {
			return a, err
		}
		a = match.Action{Type: match.ActionDiscardCard, CardID: in.CardID, RevealToOpponent: in.RevealToOpponent}
		if env.Tag == protocol.IntentExileCard {
			a.Type = match.ActionExileCard
		}
	case protocol.IntentAddToStack:
		var in protocol.AddToStackIntent
		if err := env.DecodePayload(&in); err != nil {
			return a, err
		}
		a = match.Action{
			Type:             match.ActionAddToStack,
			CardID:           in.CardID,
			ActionID:         in.ActionID,
			Targets:          in.Targets,
			RevealToOpponent: in.RevealToOpponent,
		}
	case protocol.IntentChoiceResponse:
		var in protocol.ChoiceResponseIntent
		if err := env.DecodePayload(&in); err != nil {
			return a, err
		}
		a = match.Action{Type: match.ActionChoiceResponse, ChoiceID: in.RequestID, Selection: in.Selection}
	case protocol.IntentConcede:
		a = match.Action{Type: match.ActionConcede}
	case protocol.IntentEmote:
		var in protocol.EmoteIntent
		if err := env.DecodePayload(&in); err != nil {
			return a, err
		}
		a = match.Action{Type: match.ActionEmote, EmoteID: in.ID}
	case protocol.IntentPing:
		var in protocol.PingIntent
		if err := env.DecodePayload(&in); err != nil {
			return a, err
		}
		a = match.Action{Type: match.ActionPing, ClientTimestamp: in.ClientTimestamp}
	case protocol.IntentPassPriority:
		a = match.Action{Type: match.ActionPassPriority}
	case protocol.IntentUseTrinket:
		a = match.Action{Type: match.ActionUseTrinket}
	default:
		return a, fmt.Errorf("%s: %w", env.Tag, errNotSessionIntent)
	}
	return a, nil
}
