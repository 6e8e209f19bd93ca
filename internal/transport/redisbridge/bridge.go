// Package redisbridge fans broadcast events out across server instances via
// Redis pub/sub. Only broadcast *events* cross the wire: each instance keeps
// its own registry, so a participant's authoritative membership is known only
// to the instance it is connected to.
package redisbridge

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/voxlink/huddle/internal/core"
	"github.com/voxlink/huddle/internal/domain"
)

// Bridge decorates a local transport. Direct sends and channel membership
// stay instance-local; broadcasts are applied locally and replicated.
type Bridge struct {
	local      core.Transport
	rdb        *redis.Client
	channel    string
	instanceID string
}

type wireMessage struct {
	Origin  string          `json:"origin"`
	Room    domain.RoomID   `json:"room"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
	Exclude domain.ConnID   `json:"exclude,omitempty"`
}

func New(local core.Transport, rdb *redis.Client, channel string) *Bridge {
	return &Bridge{
		local:      local,
		rdb:        rdb,
		channel:    channel,
		instanceID: uuid.NewString(),
	}
}

func (b *Bridge) JoinChannel(conn domain.ConnID, room domain.RoomID) {
	b.local.JoinChannel(conn, room)
}

func (b *Bridge) LeaveChannel(conn domain.ConnID, room domain.RoomID) {
	b.local.LeaveChannel(conn, room)
}

func (b *Bridge) SendTo(conn domain.ConnID, event string, payload any) {
	b.local.SendTo(conn, event, payload)
}

func (b *Bridge) Broadcast(room domain.RoomID, event string, payload any, exclude domain.ConnID) {
	b.local.Broadcast(room, event, payload, exclude)

	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("module", "redisbridge").Str("event", event).Msg("payload marshal")
		return
	}
	msg, err := json.Marshal(wireMessage{
		Origin:  b.instanceID,
		Room:    room,
		Event:   event,
		Data:    data,
		Exclude: exclude,
	})
	if err != nil {
		return
	}
	if err := b.rdb.Publish(context.Background(), b.channel, msg).Err(); err != nil {
		log.Warn().Err(err).Str("module", "redisbridge").Str("event", event).Msg("publish failed")
	}
}

// Run subscribes and re-applies remote broadcasts locally until ctx ends.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer func() { _ = sub.Close() }()
	log.Info().Str("module", "redisbridge").Str("channel", b.channel).Str("instance", b.instanceID).Msg("bridge subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.apply([]byte(msg.Payload))
		}
	}
}

// apply replays a remote broadcast on the local hub. Messages published by
// this instance are ignored; it already delivered them.
func (b *Bridge) apply(raw []byte) {
	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Debug().Err(err).Str("module", "redisbridge").Msg("bad bridge message")
		return
	}
	if msg.Origin == b.instanceID {
		return
	}
	b.local.Broadcast(msg.Room, msg.Event, msg.Data, msg.Exclude)
}
