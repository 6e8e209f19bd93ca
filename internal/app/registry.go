package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/voxlink/huddle/internal/core"
	"github.com/voxlink/huddle/internal/domain"
)

const DefaultMaxRoomSize = 10

var ErrRoomFull = errors.New("room full")

// Registry owns the two co-indexed per-room tables: membership and media
// state. Participant and MediaState entries for a connection are created
// together at admit and destroyed together at remove, never independently.
// The moment a room's membership empties, both room entries are deleted.
type Registry struct {
	mu          sync.RWMutex
	maxRoomSize int
	members     map[domain.RoomID]map[domain.ConnID]domain.Participant
	media       map[domain.RoomID]map[domain.ConnID]domain.MediaState
}

func NewRegistry(maxRoomSize int) *Registry {
	if maxRoomSize <= 0 {
		maxRoomSize = DefaultMaxRoomSize
	}
	return &Registry{
		maxRoomSize: maxRoomSize,
		members:     make(map[domain.RoomID]map[domain.ConnID]domain.Participant),
		media:       make(map[domain.RoomID]map[domain.ConnID]domain.MediaState),
	}
}

// Admit inserts the participant with a default media state and returns the
// other current members. Returns ErrRoomFull when the room is at capacity.
// Re-admitting a connection already in the room just refreshes its identity.
func (r *Registry) Admit(room domain.RoomID, conn domain.ConnID, id domain.Identity) ([]domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byConn := r.members[room]
	if _, member := byConn[conn]; !member && len(byConn) >= r.maxRoomSize {
		return nil, ErrRoomFull
	}
	if byConn == nil {
		byConn = make(map[domain.ConnID]domain.Participant)
		r.members[room] = byConn
		r.media[room] = make(map[domain.ConnID]domain.MediaState)
	}

	others := make([]domain.Participant, 0, len(byConn))
	for cid, p := range byConn {
		if cid != conn {
			others = append(others, p)
		}
	}

	byConn[conn] = domain.NewParticipant(conn, id)
	if _, ok := r.media[room][conn]; !ok {
		r.media[room][conn] = domain.DefaultMediaState()
	}
	log.Info().Str("module", "app.registry").Str("room", string(room)).Str("conn", string(conn)).Str("user", string(id.UserID)).Int("members", len(byConn)).Msg("admitted")
	return others, nil
}

// Remove deletes the participant and its media state. When the room becomes
// empty both room entries are dropped entirely. No-op for non-members.
func (r *Registry) Remove(room domain.RoomID, conn domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	byConn, ok := r.members[room]
	if !ok {
		return false
	}
	if _, member := byConn[conn]; !member {
		return false
	}
	delete(byConn, conn)
	delete(r.media[room], conn)
	if len(byConn) == 0 {
		delete(r.members, room)
		delete(r.media, room)
		log.Info().Str("module", "app.registry").Str("room", string(room)).Msg("room emptied, dropped")
	}
	log.Info().Str("module", "app.registry").Str("room", string(room)).Str("conn", string(conn)).Msg("removed")
	return true
}

// UpdateMedia merges only the provided flags into the existing media state.
// Nil pointers leave the prior value intact; the screen-sharing flag is
// never touched here.
func (r *Registry) UpdateMedia(room domain.RoomID, conn domain.ConnID, audio, video *bool) (domain.MediaState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.media[room][conn]
	if !ok {
		return domain.MediaState{}, false
	}
	if audio != nil {
		state.AudioEnabled = *audio
	}
	if video != nil {
		state.VideoEnabled = *video
	}
	r.media[room][conn] = state
	return state, true
}

// SetScreenSharing flips only the screen-sharing flag. No-op when the
// connection has no media state in that room.
func (r *Registry) SetScreenSharing(room domain.RoomID, conn domain.ConnID, sharing bool) (domain.MediaState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.media[room][conn]
	if !ok {
		return domain.MediaState{}, false
	}
	state.ScreenSharing = sharing
	r.media[room][conn] = state
	return state, true
}

// Participant looks up the sender record used to enrich relayed payloads.
func (r *Registry) Participant(room domain.RoomID, conn domain.ConnID) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.members[room][conn]
	return p, ok
}

// MediaStates returns a snapshot of the room's media-state table.
func (r *Registry) MediaStates(room domain.RoomID) map[domain.ConnID]domain.MediaState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.ConnID]domain.MediaState, len(r.media[room]))
	for cid, state := range r.media[room] {
		out[cid] = state
	}
	return out
}

// RoomsContaining reports every room the connection belongs to. Disconnect
// cleanup relies on this since a disconnect carries no room argument.
func (r *Registry) RoomsContaining(conn domain.ConnID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.RoomID
	for room, byConn := range r.members {
		if _, ok := byConn[conn]; ok {
			out = append(out, room)
		}
	}
	return out
}

// MemberCount reports the current size of a room.
func (r *Registry) MemberCount(room domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[room])
}

// Rooms lists non-empty rooms for the read-only API.
func (r *Registry) Rooms() []core.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(r.members))
	for room, byConn := range r.members {
		out = append(out, core.RoomInfo{RoomID: room, MemberCount: len(byConn)})
	}
	return out
}
