package core

import (
	"encoding/json"

	"github.com/voxlink/huddle/internal/domain"
)

// Inbound event names.
const (
	EvtJoinRoom    = "join-room"
	EvtSignal      = "signal"
	EvtMediaState  = "media-state"
	EvtScreenShare = "screen-share"
	EvtChatMessage = "chat-message"
	EvtLeaveRoom   = "leave-room"
	EvtPing        = "ping"

	// Legacy duplicates kept for older clients.
	EvtScreenShareStart = "screen-share-start"
	EvtScreenShareStop  = "screen-share-stop"
	EvtScreenSignal     = "screen-signal"
)

// Outbound event names.
const (
	EvtRoomJoined   = "room-joined"
	EvtMediaStates  = "media-states"
	EvtMemberJoined = "member-joined"
	EvtMemberLeft   = "member-left"
	EvtRoomFull     = "room-full"
	EvtAuthError    = "auth-error"
	EvtRoomError    = "room-error"
	EvtPong         = "pong"
)

// Envelope is the wire frame: {"type": <event>, "data": {...}}.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// InboundEnvelope defers payload decoding until the event type is known.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type RoomJoined struct {
	RoomID        domain.RoomID        `json:"roomId"`
	ConnectionID  domain.ConnID        `json:"connectionId"`
	ExistingUsers []domain.Participant `json:"existingUsers"`
}

type MemberJoined struct {
	ConnectionID domain.ConnID `json:"connectionId"`
	UserID       domain.UserID `json:"userId"`
	DisplayName  string        `json:"displayName"`
	PhotoURL     string        `json:"photoURL,omitempty"`
}

type MemberLeft struct {
	ConnectionID domain.ConnID `json:"connectionId"`
}

// SignalForward is the enriched session-establishment payload. Identity fields
// come from the registry, never from the sender.
type SignalForward struct {
	From        domain.ConnID   `json:"from"`
	Signal      json.RawMessage `json:"signal"`
	DisplayName string          `json:"displayName,omitempty"`
	UserID      domain.UserID   `json:"userId,omitempty"`
	PhotoURL    string          `json:"photoURL,omitempty"`
	RoomID      domain.RoomID   `json:"roomId"`
}

// ScreenSignalForward is the legacy unenriched variant.
type ScreenSignalForward struct {
	From   domain.ConnID   `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

type MediaStateChanged struct {
	ConnectionID domain.ConnID `json:"connectionId"`
	AudioEnabled bool          `json:"audioEnabled"`
	VideoEnabled bool          `json:"videoEnabled"`
}

type ScreenShareChanged struct {
	ConnectionID domain.ConnID `json:"connectionId"`
	Sharing      bool          `json:"sharing"`
	DisplayName  string        `json:"displayName,omitempty"`
	PhotoURL     string        `json:"photoURL,omitempty"`
}

type ChatMessage struct {
	UserID    domain.UserID `json:"userId"`
	Message   string        `json:"message"`
	Timestamp string        `json:"timestamp"`
}

type ErrorReason struct {
	Reason string `json:"reason"`
}

// RoomInfo is a read-only room view for APIs (no transport fields).
type RoomInfo struct {
	RoomID      domain.RoomID `json:"roomId"`
	MemberCount int           `json:"memberCount"`
}
