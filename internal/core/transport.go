// Package core defines the contracts between the session logic and the
// real-time transport, plus the wire-level event vocabulary.
package core

import "github.com/voxlink/huddle/internal/domain"

// Transport is the abstract real-time layer the session logic talks to.
// Sends are fire-and-forget: a slow or vanished connection drops the frame,
// it never blocks or errors back into the caller.
// Owned by the adapter; the adapter must close its connections.
type Transport interface {
	JoinChannel(conn domain.ConnID, room domain.RoomID)
	LeaveChannel(conn domain.ConnID, room domain.RoomID)
	SendTo(conn domain.ConnID, event string, payload any)
	// Broadcast delivers to every channel member except exclude.
	// Pass an empty exclude to reach everyone, sender included.
	Broadcast(room domain.RoomID, event string, payload any, exclude domain.ConnID)
}

// Handshake carries the credential material captured at connection upgrade.
// The identity resolver reads it; nothing else does.
type Handshake struct {
	AuthToken     string // explicit auth field (query parameter)
	Authorization string // raw Authorization header, may carry a Bearer prefix
}
