package peer

import (
	"encoding/json"
	"time"

	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// #region envelope
// MessageType tags an envelope.
type MessageType string

const (
	TypeIntroduce   MessageType = "introduce"
	TypeShareTruths MessageType = "share-truths"
	TypeRequestSync MessageType = "request-sync"
	TypeAcceptSync  MessageType = "accept-sync"
	TypePing        MessageType = "ping"
)

// Envelope is the unit of peer exchange.
type Envelope struct {
	From      string          `json:"from_agent_id"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// IntroducePayload announces an agent.
type IntroducePayload struct {
	ID            string   `json:"id"`
	IdentityLabel string   `json:"identity_label"`
	Telos         string   `json:"telos"`
	Ethics        []string `json:"ethics,omitempty"`
}

// ShareTruthsPayload carries truths and the trust the sender suggests.
type ShareTruthsPayload struct {
	Truths      []state.Truth `json:"truths"`
	TrustWeight float64       `json:"trust_weight"`
}

// RequestSyncPayload asks for truths, optionally only newer ones.
type RequestSyncPayload struct {
	Since *time.Time `json:"since,omitempty"`
}

// #endregion envelope

// #region codec
// NewEnvelope builds an envelope with payload marshaled to JSON. A nil
// payload leaves the field empty.
func NewEnvelope(from string, typ MessageType, payload any, now time.Time) (Envelope, error) {
	env := Envelope{From: from, Type: typ, Timestamp: now}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, state.Errorf(state.KindDecodeFailed, "encode", "marshal payload: %w", err)
		}
		env.Payload = data
	}
	return env, nil
}

// Encode serializes an envelope.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, state.Errorf(state.KindDecodeFailed, "encode", "marshal envelope: %w", err)
	}
	return data, nil
}

// Decode parses envelope bytes. Malformed bytes, an unknown type, or a
// missing sender yield a DecodeFailed error.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, state.Errorf(state.KindDecodeFailed, "decode", "unmarshal envelope: %w", err)
	}
	if env.From == "" {
		return Envelope{}, state.Errorf(state.KindDecodeFailed, "decode", "missing from_agent_id")
	}
	switch env.Type {
	case TypeIntroduce, TypeShareTruths, TypeRequestSync, TypeAcceptSync, TypePing:
	default:
		return Envelope{}, state.Errorf(state.KindDecodeFailed, "decode", "unknown type %q", env.Type)
	}
	return env, nil
}

// DecodePayload unmarshals the envelope payload into v.
func DecodePayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return state.Errorf(state.KindDecodeFailed, "decode payload", "%s: empty payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return state.Errorf(state.KindDecodeFailed, "decode payload", "%s: %w", env.Type, err)
	}
	return nil
}

// #endregion codec
