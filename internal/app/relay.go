package app

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/voxlink/huddle/internal/core"
	"github.com/voxlink/huddle/internal/domain"
)

// Relay forwards opaque session-establishment payloads and chat text.
// Everything here is best-effort and at-most-once: malformed requests are
// dropped silently, missing sender records degrade the payload instead of
// erroring.
type Relay struct {
	registry  *Registry
	transport core.Transport
	now       func() time.Time
}

func NewRelay(registry *Registry, transport core.Transport) *Relay {
	return &Relay{registry: registry, transport: transport, now: time.Now}
}

// RelaySignal forwards a signaling payload to exactly the target connection,
// enriched with the sender's registered identity. Identity fields are taken
// from the registry, never from the sender, to prevent impersonation.
func (s *Relay) RelaySignal(room domain.RoomID, to, from domain.ConnID, signal json.RawMessage) {
	if to == "" || from == "" || room == "" || len(signal) == 0 {
		return
	}
	fwd := core.SignalForward{From: from, Signal: signal, RoomID: room}
	if p, ok := s.registry.Participant(room, from); ok {
		fwd.DisplayName = p.DisplayName
		fwd.UserID = p.UserID
		fwd.PhotoURL = p.PhotoURL
	} else {
		log.Debug().Str("module", "app.relay").Str("room", string(room)).Str("from", string(from)).Msg("sender not in room, forwarding unenriched")
	}
	s.transport.SendTo(to, core.EvtSignal, fwd)
}

// RelayScreenSignal is the legacy variant: same validation, no identity
// enrichment. Kept only for older clients.
func (s *Relay) RelayScreenSignal(room domain.RoomID, to, from domain.ConnID, signal json.RawMessage) {
	if to == "" || from == "" || room == "" || len(signal) == 0 {
		return
	}
	s.transport.SendTo(to, core.EvtScreenSignal, core.ScreenSignalForward{From: from, Signal: signal})
}

// RelayChatMessage trims the text, stamps it server-side and broadcasts to
// the whole room, sender included.
func (s *Relay) RelayChatMessage(room domain.RoomID, userID domain.UserID, message string) {
	message = strings.TrimSpace(message)
	if room == "" || userID == "" || message == "" {
		return
	}
	s.transport.Broadcast(room, core.EvtChatMessage, core.ChatMessage{
		UserID:    userID,
		Message:   message,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}, "")
}
