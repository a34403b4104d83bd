package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope wraps every server-to-client event.
type Envelope struct {
	Tag     EventTag `json:"tag"`
	EventID uint64   `json:"eventId"`
	Payload any      `json:"payload"`
}

// Encode marshals one event for the wire.
func Encode(tag EventTag, eventID uint64, payload any) ([]byte, error) {
	data, err := json.Marshal(Envelope{Tag: tag, EventID: eventID, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", tag, err)
	}
	return data, nil
}

// InboundEnvelope is the generic envelope for all client-to-server intents.
// Tag is used for routing; Payload holds the raw intent body.
type InboundEnvelope struct {
	Tag     IntentTag       `json:"tag"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeEnvelope parses the outer envelope of a client message.
func DecodeEnvelope(data []byte) (InboundEnvelope, error) {
	var env InboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if !env.Tag.Known() {
		return env, fmt.Errorf("decode envelope: unknown intent tag %d", env.Tag)
	}
	return env, nil
}

// DecodePayload unmarshals the intent body into v. A missing body leaves v zeroed.
func (e InboundEnvelope) DecodePayload(v any) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Tag, err)
	}
	return nil
}
