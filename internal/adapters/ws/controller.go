package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/voxlink/huddle/internal/app"
	"github.com/voxlink/huddle/internal/core"
	"github.com/voxlink/huddle/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller upgrades HTTP requests and dispatches inbound events to the
// coordinator and relay. Malformed payloads are dropped silently; a bad
// event never terminates the connection.
type Controller struct {
	Hub         *Hub
	Coordinator *app.Coordinator
	Relay       *app.Relay
	ChatLimiter *app.ChatRateLimiter
}

func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	socket, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade failed")
		return
	}

	hs := core.Handshake{
		AuthToken:     c.Query("auth"),
		Authorization: c.GetHeader("Authorization"),
	}
	if hs.AuthToken == "" {
		hs.AuthToken = c.Query("token")
	}

	conn := NewConn(domain.ConnID(uuid.NewString()), hs, socket)
	ctl.Hub.Add(conn)
	log.Info().Str("module", "ws").Str("conn", string(conn.ID())).Msg("connection established")

	go conn.writePump(ctx)
	go ctl.readPump(ctx, conn)
}

func (ctl *Controller) readPump(ctx context.Context, conn *Conn) {
	defer func() {
		ctl.Coordinator.Disconnect(conn.ID())
		ctl.Hub.Remove(conn.ID())
		if ctl.ChatLimiter != nil {
			ctl.ChatLimiter.Forget(conn.ID())
		}
		conn.Close()
		log.Info().Str("module", "ws").Str("conn", string(conn.ID())).Msg("connection closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := conn.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.dispatch(conn, data)
		}
	}
}

func (ctl *Controller) dispatch(conn *Conn, data []byte) {
	var env core.InboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "ws").Str("conn", string(conn.ID())).Msg("bad json")
		return
	}

	switch env.Type {
	case core.EvtJoinRoom:
		ctl.handleJoin(conn, env.Data)
	case core.EvtSignal:
		ctl.handleSignal(conn, env.Data)
	case core.EvtMediaState:
		ctl.handleMediaState(conn, env.Data)
	case core.EvtScreenShare:
		ctl.handleScreenShare(conn, env.Data)
	case core.EvtScreenShareStart:
		ctl.handleScreenShareLegacy(conn, env.Data, true)
	case core.EvtScreenShareStop:
		ctl.handleScreenShareLegacy(conn, env.Data, false)
	case core.EvtScreenSignal:
		ctl.handleScreenSignal(conn, env.Data)
	case core.EvtChatMessage:
		ctl.handleChat(conn, env.Data)
	case core.EvtLeaveRoom:
		ctl.handleLeave(conn, env.Data)
	case core.EvtPing:
		ctl.Hub.SendTo(conn.ID(), core.EvtPong, nil)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) handleJoin(conn *Conn, data []byte) {
	var p struct {
		RoomID      string `json:"roomId"`
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoURL"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Err(err).Str("module", "ws").Msg("bad join payload")
		ctl.Hub.SendTo(conn.ID(), core.EvtRoomError, core.ErrorReason{Reason: "bad payload"})
		return
	}
	ctl.Coordinator.Join(conn.ID(), conn.Handshake(), domain.RoomID(p.RoomID), domain.Identity{
		UserID:      domain.UserID(p.UserID),
		DisplayName: p.DisplayName,
		PhotoURL:    p.PhotoURL,
	})
}

func (ctl *Controller) handleSignal(conn *Conn, data []byte) {
	var p struct {
		To     string          `json:"to"`
		From   string          `json:"from"`
		Signal json.RawMessage `json:"signal"`
		RoomID string          `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	ctl.Relay.RelaySignal(domain.RoomID(p.RoomID), domain.ConnID(p.To), domain.ConnID(p.From), p.Signal)
}

func (ctl *Controller) handleScreenSignal(conn *Conn, data []byte) {
	var p struct {
		To     string          `json:"to"`
		From   string          `json:"from"`
		Signal json.RawMessage `json:"signal"`
		RoomID string          `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	ctl.Relay.RelayScreenSignal(domain.RoomID(p.RoomID), domain.ConnID(p.To), domain.ConnID(p.From), p.Signal)
}

func (ctl *Controller) handleMediaState(conn *Conn, data []byte) {
	var p struct {
		RoomID       string `json:"roomId"`
		AudioEnabled *bool  `json:"audioEnabled"`
		VideoEnabled *bool  `json:"videoEnabled"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	ctl.Coordinator.UpdateMedia(conn.ID(), domain.RoomID(p.RoomID), p.AudioEnabled, p.VideoEnabled)
}

func (ctl *Controller) handleScreenShare(conn *Conn, data []byte) {
	var p struct {
		RoomID  string `json:"roomId"`
		Sharing bool   `json:"sharing"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	ctl.Coordinator.SetScreenSharing(conn.ID(), domain.RoomID(p.RoomID), p.Sharing)
}

// handleScreenShareLegacy adapts the old start/stop events onto the primary
// screen-share path so the two cannot drift.
func (ctl *Controller) handleScreenShareLegacy(conn *Conn, data []byte, sharing bool) {
	var p struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	ctl.Coordinator.SetScreenSharing(conn.ID(), domain.RoomID(p.RoomID), sharing)
}

func (ctl *Controller) handleChat(conn *Conn, data []byte) {
	var p struct {
		RoomID  string `json:"roomId"`
		UserID  string `json:"userId"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	if ctl.ChatLimiter != nil && !ctl.ChatLimiter.Allow(conn.ID()) {
		log.Warn().Str("module", "ws").Str("conn", string(conn.ID())).Msg("chat rate limit exceeded")
		return
	}
	ctl.Relay.RelayChatMessage(domain.RoomID(p.RoomID), domain.UserID(p.UserID), p.Message)
}

func (ctl *Controller) handleLeave(conn *Conn, data []byte) {
	var p struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	ctl.Coordinator.Leave(conn.ID(), domain.RoomID(p.RoomID))
}
