package streaming

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/earthview/globe/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	// server to client
	TypeFrame  = "frame"
	TypeStatus = "status"
	TypeLocate = "locate"
	TypeAck    = "ack"

	// client to server
	TypeFix        = "fix"
	TypeNoFix      = "nofix"
	TypeDescriptor = "descriptor"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AckMessage is the server's acknowledgement of a client request.
type AckMessage struct {
	For        string `json:"for"` // the message type being acknowledged
	Descriptor string `json:"descriptor,omitempty"`
}

// StatusPayload reports a rejected client request.
type StatusPayload struct {
	Text  string `json:"text"`
	Error bool   `json:"error"`
}

// LocatePayload asks the client for a device fix.
type LocatePayload struct {
	TimeoutMs int64 `json:"timeoutMs"`
	MaxAgeMs  int64 `json:"maxAgeMs"`
}

// FixPayload is a device fix reported by the client.
type FixPayload struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

// NoFixPayload tells the server the device cannot or will not provide a fix.
type NoFixPayload struct {
	Reason string `json:"reason,omitempty"`
}

// DescriptorPayload asks the server to jump to a camera descriptor.
type DescriptorPayload struct {
	Value string `json:"value"`
}

// FramePayload is one rendered frame.
type FramePayload = core.Frame

// Marshal builds a JSON-encoded Envelope from a message type and payload.
// A nil payload is omitted.
func Marshal(msgType string, payload any) ([]byte, error) {
	env := Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
		}
		env.Payload = raw
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// Unmarshal decodes an envelope.
func Unmarshal(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// DecodePayload unmarshals the envelope payload into v.
func (e Envelope) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
