package match

import (
	"sort"
	"time"

	"card-session-server/protocol"
)

// ackWait collects acknowledgements of one event from the players connected
// when it was sent.
type ackWait struct {
	eventID   uint64
	waiting   map[protocol.ConnectionID]bool
	responded []protocol.ConnectionID
	then      func(responded []protocol.ConnectionID)
}

// waitForAcks calls then once every connected player has acknowledged
// eventID, or after timeout with whichever subset responded. With no players
// or no timeout it completes immediately.
func (s *Session) waitForAcks(eventID uint64, timeout time.Duration, then func(responded []protocol.ConnectionID)) {
	w := &ackWait{eventID: eventID, waiting: make(map[protocol.ConnectionID]bool), then: then}
	for _, p := range s.peers {
		w.waiting[p.Conn] = true
	}
	if len(w.waiting) == 0 || timeout <= 0 {
		then(nil)
		return
	}
	s.ackWaits[eventID] = w
	s.schedule(timeout, Action{Type: ActionAckTimeout, EventID: eventID})
}

func (s *Session) handleAcknowledge(conn protocol.ConnectionID, eventID uint64) {
	w, ok := s.ackWaits[eventID]
	if !ok || !w.waiting[conn] {
		return
	}
	delete(w.waiting, conn)
	w.responded = append(w.responded, conn)
	if len(w.waiting) == 0 {
		s.completeAckWait(w)
	}
}

func (s *Session) handleAckTimeout(eventID uint64) {
	if w, ok := s.ackWaits[eventID]; ok {
		s.logger.Debug("ack wait timed out", "event", eventID, "missing", len(w.waiting))
		s.completeAckWait(w)
	}
}

func (s *Session) dropFromAckWaits(conn protocol.ConnectionID) {
	ids := make([]uint64, 0, len(s.ackWaits))
	for id := range s.ackWaits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		w := s.ackWaits[id]
		if !w.waiting[conn] {
			continue
		}
		delete(w.waiting, conn)
		if len(w.waiting) == 0 {
			s.completeAckWait(w)
		}
	}
}

func (s *Session) completeAckWait(w *ackWait) {
	delete(s.ackWaits, w.eventID)
	w.then(w.responded)
}
