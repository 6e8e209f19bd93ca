package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/voxlink/huddle/internal/core"
	"github.com/voxlink/huddle/internal/domain"
)

// Coordinator orchestrates join, explicit leave and disconnect, and the
// media/screen state changes. It is the only writer of the registry tables.
type Coordinator struct {
	Registry  *Registry
	Identity  *IdentityResolver
	Transport core.Transport
	// MultiRoom allows a connection to be a member of several rooms at once.
	// When false, joining a second room force-leaves the first.
	MultiRoom bool
}

// Join admits a connection into a room and emits the presence events.
// The capacity check runs strictly before the channel join, so a denied
// connection is never subscribed to the room's broadcast traffic.
func (c *Coordinator) Join(conn domain.ConnID, hs core.Handshake, room domain.RoomID, claimed domain.Identity) {
	if room == "" || claimed.UserID == "" || claimed.DisplayName == "" {
		c.Transport.SendTo(conn, core.EvtRoomError, core.ErrorReason{Reason: "roomId, userId and displayName are required"})
		return
	}

	identity, err := c.Identity.Resolve(hs, claimed)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").Str("conn", string(conn)).Msg("join rejected")
		c.Transport.SendTo(conn, core.EvtAuthError, core.ErrorReason{Reason: err.Error()})
		return
	}

	if !c.MultiRoom {
		for _, prior := range c.Registry.RoomsContaining(conn) {
			if prior != room {
				c.Leave(conn, prior)
			}
		}
	}

	others, err := c.Registry.Admit(room, conn, identity)
	if err != nil {
		if errors.Is(err, ErrRoomFull) {
			c.Transport.SendTo(conn, core.EvtRoomFull, nil)
		}
		return
	}

	c.Transport.JoinChannel(conn, room)
	c.Transport.SendTo(conn, core.EvtRoomJoined, core.RoomJoined{
		RoomID:        room,
		ConnectionID:  conn,
		ExistingUsers: others,
	})
	c.Transport.SendTo(conn, core.EvtMediaStates, c.Registry.MediaStates(room))
	c.Transport.Broadcast(room, core.EvtMemberJoined, core.MemberJoined{
		ConnectionID: conn,
		UserID:       identity.UserID,
		DisplayName:  identity.DisplayName,
		PhotoURL:     identity.PhotoURL,
	}, conn)
	log.Info().Str("module", "app.coordinator").Str("room", string(room)).Str("conn", string(conn)).Str("user", string(identity.UserID)).Msg("joined")
}

// Leave removes the connection from one room. Silent no-op for non-members.
func (c *Coordinator) Leave(conn domain.ConnID, room domain.RoomID) {
	if room == "" {
		return
	}
	if !c.Registry.Remove(room, conn) {
		return
	}
	c.Transport.LeaveChannel(conn, room)
	c.Transport.Broadcast(room, core.EvtMemberLeft, core.MemberLeft{ConnectionID: conn}, conn)
	log.Info().Str("module", "app.coordinator").Str("room", string(room)).Str("conn", string(conn)).Msg("left")
}

// Disconnect cleans up every room the connection was part of. Idempotent:
// a second call finds no memberships and does nothing.
func (c *Coordinator) Disconnect(conn domain.ConnID) {
	for _, room := range c.Registry.RoomsContaining(conn) {
		c.Leave(conn, room)
	}
}

// UpdateMedia merges the provided flags and tells the rest of the room.
// The broadcast excludes the sender; it already knows its own state.
func (c *Coordinator) UpdateMedia(conn domain.ConnID, room domain.RoomID, audio, video *bool) {
	if room == "" {
		return
	}
	state, ok := c.Registry.UpdateMedia(room, conn, audio, video)
	if !ok {
		return
	}
	c.Transport.Broadcast(room, core.EvtMediaState, core.MediaStateChanged{
		ConnectionID: conn,
		AudioEnabled: state.AudioEnabled,
		VideoEnabled: state.VideoEnabled,
	}, conn)
}

// SetScreenSharing flips the screen flag and tells the rest of the room,
// enriched with the sharer's public identity.
func (c *Coordinator) SetScreenSharing(conn domain.ConnID, room domain.RoomID, sharing bool) {
	if room == "" {
		return
	}
	if _, ok := c.Registry.SetScreenSharing(room, conn, sharing); !ok {
		return
	}
	changed := core.ScreenShareChanged{ConnectionID: conn, Sharing: sharing}
	if p, ok := c.Registry.Participant(room, conn); ok {
		changed.DisplayName = p.DisplayName
		changed.PhotoURL = p.PhotoURL
	}
	c.Transport.Broadcast(room, core.EvtScreenShare, changed, conn)
}
