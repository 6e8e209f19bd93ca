package app

import (
	"sync"

	"github.com/voxlink/huddle/internal/domain"
)

type sentEvent struct {
	Conn    domain.ConnID
	Event   string
	Payload any
}

type broadcastEvent struct {
	Room    domain.RoomID
	Event   string
	Payload any
	Exclude domain.ConnID
}

type channelOp struct {
	Conn domain.ConnID
	Room domain.RoomID
}

// fakeTransport records every transport call for assertions.
type fakeTransport struct {
	mu         sync.Mutex
	Joins      []channelOp
	Leaves     []channelOp
	Sends      []sentEvent
	Broadcasts []broadcastEvent
}

func (t *fakeTransport) JoinChannel(conn domain.ConnID, room domain.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Joins = append(t.Joins, channelOp{Conn: conn, Room: room})
}

func (t *fakeTransport) LeaveChannel(conn domain.ConnID, room domain.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Leaves = append(t.Leaves, channelOp{Conn: conn, Room: room})
}

func (t *fakeTransport) SendTo(conn domain.ConnID, event string, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Sends = append(t.Sends, sentEvent{Conn: conn, Event: event, Payload: payload})
}

func (t *fakeTransport) Broadcast(room domain.RoomID, event string, payload any, exclude domain.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Broadcasts = append(t.Broadcasts, broadcastEvent{Room: room, Event: event, Payload: payload, Exclude: exclude})
}

func (t *fakeTransport) sentTo(conn domain.ConnID, event string) []sentEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []sentEvent
	for _, s := range t.Sends {
		if s.Conn == conn && s.Event == event {
			out = append(out, s)
		}
	}
	return out
}

func (t *fakeTransport) broadcastsOf(event string) []broadcastEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []broadcastEvent
	for _, b := range t.Broadcasts {
		if b.Event == event {
			out = append(out, b)
		}
	}
	return out
}
