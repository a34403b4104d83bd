package match

import (
	"card-session-server/protocol"
	"card-session-server/wsutil"
)

func (s *Session) allocEventID() uint64 {
	s.nextEventID++
	return s.nextEventID
}

func (s *Session) deliver(p *peer, tag protocol.EventTag, id uint64, payload any) {
	data, err := protocol.Encode(tag, id, payload)
	if err != nil {
		s.logger.Error("encode event", "event", tag, "err", err)
		return
	}
	if !wsutil.SafeSend(p.Send, data) {
		s.logger.Warn("event dropped", "event", tag, "conn", p.Conn)
	}
}

// broadcast sends the same public event to every connected player.
func (s *Session) broadcast(tag protocol.EventTag, payload any) uint64 {
	id := s.allocEventID()
	for _, p := range s.peers {
		s.deliver(p, tag, id, payload)
	}
	return id
}

// sendTo sends an event to one player only.
func (s *Session) sendTo(conn protocol.ConnectionID, tag protocol.EventTag, payload any) uint64 {
	id := s.allocEventID()
	if p := s.peer(conn); p != nil {
		s.deliver(p, tag, id, payload)
	}
	return id
}

// sendPerRecipient computes the payload separately for each player.
func (s *Session) sendPerRecipient(tag protocol.EventTag, view func(recipient protocol.ConnectionID) any) uint64 {
	id := s.allocEventID()
	for _, p := range s.peers {
		s.deliver(p, tag, id, view(p.Conn))
	}
	return id
}

// sendSplit sends one logical event as a self variant to actor and an
// opponent variant to everyone else.
func (s *Session) sendSplit(actor protocol.ConnectionID, selfTag protocol.EventTag, self any, oppTag protocol.EventTag, opp any) uint64 {
	id := s.allocEventID()
	for _, p := range s.peers {
		if p.Conn == actor {
			s.deliver(p, selfTag, id, self)
		} else {
			s.deliver(p, oppTag, id, opp)
		}
	}
	return id
}

func (s *Session) stackSnapshot(recipient protocol.ConnectionID) protocol.StackUpdatedPayload {
	items := make([]protocol.StackItem, len(s.stack))
	for i, e := range s.stack {
		items[i] = e.wire().RedactedFor(recipient)
	}
	return protocol.StackUpdatedPayload{Items: items}
}

func (s *Session) emitStackUpdated() {
	s.sendPerRecipient(protocol.EventStackUpdated, func(r protocol.ConnectionID) any {
		return s.stackSnapshot(r)
	})
}
