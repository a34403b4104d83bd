package match

import (
	"fmt"
	"slices"
	"time"

	"card-session-server/ledger"
	"card-session-server/matcherrors"
	"card-session-server/protocol"
)

// Choice kinds.
const (
	ChoiceKindMultiple = "multiple_choice"
	ChoiceKindDiscard  = "discard"
)

// ChoiceFunc continues the resolution step that raised a choice.
type ChoiceFunc func(selection []string, timedOut bool)

// ChoiceRequest is a question posed to exactly one player.
type ChoiceRequest struct {
	ID         int
	Recipient  protocol.ConnectionID
	Kind       string
	Prompt     string
	SourceCard string
	Min, Max   int
	Candidates []string
	// Timeout of zero uses the configured default.
	Timeout time.Duration

	then ChoiceFunc
}

func (s *Session) hasChoiceFor(conn protocol.ConnectionID) bool {
	for _, c := range s.choices {
		if c.Recipient == conn {
			return true
		}
	}
	return false
}

// RequestChoice records req, sends it to its recipient only and returns its
// id. Stack resolution is suspended until every outstanding choice is
// answered or times out; then runs with the answer. A request with no
// candidates completes at once with an empty selection.
func (s *Session) RequestChoice(req ChoiceRequest, then ChoiceFunc) int {
	req.Candidates = slices.Clone(req.Candidates)
	req.Min = max(0, min(req.Min, len(req.Candidates)))
	req.Max = max(req.Min, min(req.Max, len(req.Candidates)))
	if len(req.Candidates) == 0 {
		if then != nil {
			then(nil, false)
		}
		return 0
	}
	if req.Timeout <= 0 {
		req.Timeout = time.Duration(s.cfg.ChoiceTimeoutSec) * time.Second
	}
	s.nextChoiceID++
	req.ID = s.nextChoiceID
	req.then = then
	s.choices[req.ID] = &req

	s.sendTo(req.Recipient, protocol.EventChoiceRequested, protocol.ChoiceRequestedPayload{
		ID:         req.ID,
		Kind:       req.Kind,
		Prompt:     req.Prompt,
		SourceCard: req.SourceCard,
		Min:        req.Min,
		Max:        req.Max,
		Candidates: req.Candidates,
		TimeoutSec: int(req.Timeout / time.Second),
	})
	if req.Timeout > 0 {
		s.schedule(req.Timeout, Action{Type: ActionChoiceTimeout, ChoiceID: req.ID})
	}
	return req.ID
}

func (s *Session) handleChoiceResponse(conn protocol.ConnectionID, id int, selection []string) error {
	req, ok := s.choices[id]
	if !ok {
		return fmt.Errorf("choice %d: %w", id, matcherrors.ErrUnknownChoice)
	}
	if conn != req.Recipient {
		return fmt.Errorf("choice %d: %w", id, matcherrors.ErrNotRecipient)
	}
	if err := validSelection(req, selection); err != nil {
		return fmt.Errorf("choice %d: %w", id, err)
	}
	s.resolveChoice(req, slices.Clone(selection), false)
	return nil
}

func validSelection(req *ChoiceRequest, selection []string) error {
	if len(selection) < req.Min || len(selection) > req.Max {
		return matcherrors.ErrInvalidSelection
	}
	seen := make(map[string]bool, len(selection))
	for _, v := range selection {
		if seen[v] || !slices.Contains(req.Candidates, v) {
			return matcherrors.ErrInvalidSelection
		}
		seen[v] = true
	}
	return nil
}

// handleChoiceTimeout answers an expired choice with its first Min candidates.
func (s *Session) handleChoiceTimeout(id int) {
	req, ok := s.choices[id]
	if !ok {
		return
	}
	s.logger.Info("choice timed out", "choice", id, "recipient", req.Recipient, "kind", req.Kind)
	s.resolveChoice(req, slices.Clone(req.Candidates[:req.Min]), true)
}

func (s *Session) resolveChoice(req *ChoiceRequest, selection []string, timedOut bool) {
	delete(s.choices, req.ID)
	s.broadcast(protocol.EventChoiceResolved, protocol.ChoiceResolvedPayload{
		ID: req.ID, Recipient: req.Recipient, Kind: req.Kind, Selection: selection, TimedOut: timedOut,
	})
	if req.then != nil {
		req.then(selection, timedOut)
	}
	if s.state == InGame && !s.checkDefeat() && len(s.choices) == 0 {
		s.drain()
	}
}

// MultipleChoice asks recipient to pick one of options.
func (s *Session) MultipleChoice(recipient protocol.ConnectionID, cardID, prompt string, options []string, then func(option string)) int {
	return s.RequestChoice(ChoiceRequest{
		Recipient:  recipient,
		Kind:       ChoiceKindMultiple,
		Prompt:     prompt,
		SourceCard: cardID,
		Min:        1,
		Max:        1,
		Candidates: options,
	}, func(sel []string, _ bool) {
		if then != nil && len(sel) == 1 {
			then(sel[0])
		}
	})
}

// ChooseDiscard makes recipient discard count cards of their choice from hand.
// It returns false when the hand is empty.
func (s *Session) ChooseDiscard(count int, recipient protocol.ConnectionID, cardID string, then func()) bool {
	l := s.players[recipient]
	if l == nil || count <= 0 || l.Count(ledger.Hand) == 0 {
		return false
	}
	n := min(count, l.Count(ledger.Hand))
	s.RequestChoice(ChoiceRequest{
		Recipient:  recipient,
		Kind:       ChoiceKindDiscard,
		Prompt:     fmt.Sprintf("Discard %d card(s)", n),
		SourceCard: cardID,
		Min:        n,
		Max:        n,
		Candidates: l.Cards(ledger.Hand),
	}, func(sel []string, _ bool) {
		for _, id := range sel {
			s.Discard(id, recipient, false)
		}
		if then != nil {
			then()
		}
	})
	return true
}
