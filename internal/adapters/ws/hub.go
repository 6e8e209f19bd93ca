// Package ws is the WebSocket rendition of the transport primitives the
// session logic calls: channel membership, direct sends and room broadcast.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/voxlink/huddle/internal/core"
	"github.com/voxlink/huddle/internal/domain"
)

// Hub tracks live connections and their channel subscriptions. It implements
// core.Transport for a single instance; cross-instance fan-out is layered on
// top by the redis bridge.
type Hub struct {
	mu       sync.RWMutex
	conns    map[domain.ConnID]*Conn
	channels map[domain.RoomID]map[domain.ConnID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns:    make(map[domain.ConnID]*Conn),
		channels: make(map[domain.RoomID]map[domain.ConnID]struct{}),
	}
}

func (h *Hub) Add(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[c.id]; ok {
		old.Close()
	}
	h.conns[c.id] = c
}

// Remove forgets the connection and every channel subscription it held.
func (h *Hub) Remove(id domain.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
	for room, members := range h.channels {
		delete(members, id)
		if len(members) == 0 {
			delete(h.channels, room)
		}
	}
}

func (h *Hub) JoinChannel(conn domain.ConnID, room domain.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.channels[room]
	if !ok {
		members = make(map[domain.ConnID]struct{})
		h.channels[room] = members
	}
	members[conn] = struct{}{}
}

func (h *Hub) LeaveChannel(conn domain.ConnID, room domain.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.channels[room]
	if !ok {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(h.channels, room)
	}
}

func (h *Hub) SendTo(conn domain.ConnID, event string, payload any) {
	data, err := marshalEnvelope(event, payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	c, ok := h.conns[conn]
	h.mu.RUnlock()
	if !ok {
		log.Debug().Str("module", "ws.hub").Str("conn", string(conn)).Str("event", event).Msg("sendTo: unknown connection")
		return
	}
	if err := c.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "ws.hub").Str("conn", string(conn)).Str("event", event).Msg("frame dropped")
	}
}

func (h *Hub) Broadcast(room domain.RoomID, event string, payload any, exclude domain.ConnID) {
	data, err := marshalEnvelope(event, payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.channels[room]))
	for id := range h.channels[room] {
		if id == exclude {
			continue
		}
		if c, ok := h.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	dropped := 0
	for _, c := range targets {
		if err := c.TrySend(data); err != nil {
			dropped++
		}
	}
	if dropped > 0 {
		log.Warn().Str("module", "ws.hub").Str("room", string(room)).Str("event", event).Int("dropped", dropped).Msg("broadcast dropped frames")
	}
}

func marshalEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(core.Envelope{Type: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "ws.hub").Str("event", event).Msg("envelope marshal")
		return nil, err
	}
	return data, nil
}
