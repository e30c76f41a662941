package messages

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/google/uuid"
)

const (
	// SenderServer is the sender id of every authoritative event.
	SenderServer = "server"

	topicPrefix   = "rooms/"
	eventsSuffix  = "/events"
	intentsSuffix = "/intents"
	// IntentsWildcard matches the intents topic of every room.
	IntentsWildcard = topicPrefix + "+" + intentsSuffix
)

// Message types. Events are broadcast by the server, intents are sent by participants.
const (
	MessageTypeRequestStart   = string(types.CommandStart)
	MessageTypeRequestFlip    = string(types.CommandFlip)
	MessageTypeRequestRematch = string(types.CommandRematch)
	MessageTypeCancelRematch  = string(types.CommandCancelRematch)
	MessageTypeLeave          = string(types.CommandLeave)
)

// Message is the envelope carried by the transport.
type Message struct {
	SenderID string          `json:"senderId"`
	MsgID    string          `json:"msgId"`
	Type     string          `json:"type"`
	Room     string          `json:"room"`
	Round    int             `json:"round"`
	Seq      uint64          `json:"seq"`
	Payload  json.RawMessage `json:"payload"`
}

// RequestFlip is the payload of a request-flip intent.
type RequestFlip struct {
	Position int `json:"position"`
}

// EventsTopic returns the topic room events are broadcast on.
func EventsTopic(code string) string {
	return topicPrefix + code + eventsSuffix
}

// IntentsTopic returns the topic participants send intents on.
func IntentsTopic(code string) string {
	return topicPrefix + code + intentsSuffix
}

// RoomFromTopic extracts the room code from an events or intents topic.
func RoomFromTopic(topic string) (string, error) {
	if !strings.HasPrefix(topic, topicPrefix) {
		return "", fmt.Errorf("unexpected topic: %s", topic)
	}
	rest := strings.TrimPrefix(topic, topicPrefix)
	for _, suffix := range []string{eventsSuffix, intentsSuffix} {
		if strings.HasSuffix(rest, suffix) {
			code := strings.TrimSuffix(rest, suffix)
			if code == "" || strings.Contains(code, "/") {
				break
			}
			return code, nil
		}
	}
	return "", fmt.Errorf("unexpected topic: %s", topic)
}

// NewMessage builds an envelope with a fresh message id.
func NewMessage(senderID string, messageType string, room string, round int, payload interface{}) (*Message, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %v", messageType, err)
		}
		raw = b
	}
	return &Message{
		SenderID: senderID,
		MsgID:    uuid.NewString(),
		Type:     messageType,
		Room:     room,
		Round:    round,
		Payload:  raw,
	}, nil
}

// EventFromMessage decodes an event envelope into its typed payload.
func EventFromMessage(m *Message) (types.Event, error) {
	kind := types.EventKind(m.Type)
	var payload interface{}
	switch kind {
	case types.EventPlayerJoined:
		payload = &types.PlayerJoinedPayload{}
	case types.EventPlayerLeft:
		payload = &types.PlayerLeftPayload{}
	case types.EventDeckReady:
		payload = &types.DeckReadyPayload{}
	case types.EventFlipAccepted:
		payload = &types.FlipAcceptedPayload{}
	case types.EventPairResolved:
		payload = &types.PairResolvedPayload{}
	case types.EventPairExpired:
		payload = &types.PairExpiredPayload{}
	case types.EventTurnChanged:
		payload = &types.TurnChangedPayload{}
	case types.EventRoundFinished:
		payload = &types.RoundFinishedPayload{}
	case types.EventRematchOffered:
		payload = &types.RematchOfferedPayload{}
	case types.EventRematchCancelled:
		payload = &types.RematchCancelledPayload{}
	case types.EventRematchStarting:
		payload = &types.RematchStartingPayload{}
	case types.EventRoomAbandoned:
		payload = &types.RoomAbandonedPayload{}
	default:
		return types.Event{}, fmt.Errorf("unknown event type: %s", m.Type)
	}
	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, payload); err != nil {
			return types.Event{}, fmt.Errorf("failed to unmarshal %s payload: %v", m.Type, err)
		}
	}
	return types.Event{
		Kind:    kind,
		Round:   m.Round,
		Payload: deref(payload),
	}, nil
}

// deref turns the decoded pointer back into the value type the arbiter emits.
func deref(payload interface{}) interface{} {
	switch p := payload.(type) {
	case *types.PlayerJoinedPayload:
		return *p
	case *types.PlayerLeftPayload:
		return *p
	case *types.DeckReadyPayload:
		return *p
	case *types.FlipAcceptedPayload:
		return *p
	case *types.PairResolvedPayload:
		return *p
	case *types.PairExpiredPayload:
		return *p
	case *types.TurnChangedPayload:
		return *p
	case *types.RoundFinishedPayload:
		return *p
	case *types.RematchOfferedPayload:
		return *p
	case *types.RematchCancelledPayload:
		return *p
	case *types.RematchStartingPayload:
		return *p
	case *types.RoomAbandonedPayload:
		return *p
	default:
		return payload
	}
}

// CommandFromMessage decodes an intent envelope.
func CommandFromMessage(m *Message) (types.Command, error) {
	cmd := types.Command{
		Kind:          types.CommandKind(m.Type),
		RoomCode:      m.Room,
		ParticipantID: m.SenderID,
		MsgID:         m.MsgID,
	}
	switch m.Type {
	case MessageTypeRequestStart, MessageTypeRequestRematch, MessageTypeCancelRematch, MessageTypeLeave:
	case MessageTypeRequestFlip:
		flip := &RequestFlip{}
		if err := json.Unmarshal(m.Payload, flip); err != nil {
			return types.Command{}, fmt.Errorf("failed to unmarshal %s payload: %v", m.Type, err)
		}
		cmd.Position = flip.Position
	default:
		return types.Command{}, fmt.Errorf("unknown intent type: %s", m.Type)
	}
	if cmd.ParticipantID == "" {
		return types.Command{}, fmt.Errorf("intent %s has no sender", m.MsgID)
	}
	return cmd, nil
}
