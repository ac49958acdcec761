package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the frame carried on the connection in both directions
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope wraps a payload; a nil payload produces an envelope with no data
func NewEnvelope(event EventType, data interface{}) (*Envelope, error) {
	env := &Envelope{Event: event}
	if data == nil {
		return env, nil
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", event, err)
	}
	env.Data = dataBytes
	return env, nil
}

// Marshal serializes an envelope into a text frame
func Marshal(env *Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Unmarshal parses a text frame into an envelope
func Unmarshal(frame []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, err
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrUnknownEvent)
	}
	return &env, nil
}

// IsNull reports whether the envelope carries no data or an explicit JSON null
func (e *Envelope) IsNull() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Decode unmarshals the envelope data into v
func (e *Envelope) Decode(v interface{}) error {
	if e.IsNull() {
		return fmt.Errorf("%s: no data", e.Event)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", e.Event, err)
	}
	return nil
}

// DecodeSnapshot decodes a game_state payload. A null payload means the
// server has no active game and yields (nil, nil).
func (e *Envelope) DecodeSnapshot() (*GameSnapshot, error) {
	if e.IsNull() {
		return nil, nil
	}
	var snap GameSnapshot
	if err := e.Decode(&snap); err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}
