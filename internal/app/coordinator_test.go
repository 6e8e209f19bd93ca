package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlink/huddle/internal/core"
	"github.com/voxlink/huddle/internal/domain"
)

func newCoordinator(maxRoomSize int, multiRoom bool) (*Coordinator, *fakeTransport) {
	transport := &fakeTransport{}
	return &Coordinator{
		Registry:  NewRegistry(maxRoomSize),
		Identity:  NewIdentityResolver(""),
		Transport: transport,
		MultiRoom: multiRoom,
	}, transport
}

func TestJoinScenarioWithCapacityTwo(t *testing.T) {
	c, transport := newCoordinator(2, true)

	c.Join("c-alice", core.Handshake{}, "r1", identity("alice", "Alice"))

	joined := transport.sentTo("c-alice", core.EvtRoomJoined)
	require.Len(t, joined, 1)
	payload := joined[0].Payload.(core.RoomJoined)
	assert.Equal(t, domain.RoomID("r1"), payload.RoomID)
	assert.Equal(t, domain.ConnID("c-alice"), payload.ConnectionID)
	assert.Empty(t, payload.ExistingUsers)

	states := transport.sentTo("c-alice", core.EvtMediaStates)
	require.Len(t, states, 1)
	table := states[0].Payload.(map[domain.ConnID]domain.MediaState)
	assert.Equal(t, domain.DefaultMediaState(), table["c-alice"])

	c.Join("c-bob", core.Handshake{}, "r1", identity("bob", "Bob"))

	joined = transport.sentTo("c-bob", core.EvtRoomJoined)
	require.Len(t, joined, 1)
	payload = joined[0].Payload.(core.RoomJoined)
	require.Len(t, payload.ExistingUsers, 1)
	assert.Equal(t, domain.UserID("alice"), payload.ExistingUsers[0].UserID)

	announcements := transport.broadcastsOf(core.EvtMemberJoined)
	require.Len(t, announcements, 2)
	bobJoin := announcements[1]
	assert.Equal(t, domain.ConnID("c-bob"), bobJoin.Exclude, "joiner must not receive its own announcement")
	assert.Equal(t, domain.UserID("bob"), bobJoin.Payload.(core.MemberJoined).UserID)

	c.Join("c-carol", core.Handshake{}, "r1", identity("carol", "Carol"))

	require.Len(t, transport.sentTo("c-carol", core.EvtRoomFull), 1)
	assert.Empty(t, transport.sentTo("c-carol", core.EvtRoomJoined))
	assert.Equal(t, 2, c.Registry.MemberCount("r1"))
}

func TestJoinChannelHappensOnlyAfterAdmission(t *testing.T) {
	c, transport := newCoordinator(1, true)

	c.Join("c-alice", core.Handshake{}, "r1", identity("alice", "Alice"))
	c.Join("c-bob", core.Handshake{}, "r1", identity("bob", "Bob"))

	// The denied connection must never be subscribed to the channel.
	require.Len(t, transport.Joins, 1)
	assert.Equal(t, domain.ConnID("c-alice"), transport.Joins[0].Conn)
}

func TestJoinValidationFailureNotifiesRoomError(t *testing.T) {
	c, transport := newCoordinator(10, true)

	c.Join("c1", core.Handshake{}, "", identity("alice", "Alice"))
	c.Join("c1", core.Handshake{}, "r1", identity("", "Alice"))
	c.Join("c1", core.Handshake{}, "r1", identity("alice", ""))

	assert.Len(t, transport.sentTo("c1", core.EvtRoomError), 3)
	assert.Empty(t, transport.Joins)
	assert.Zero(t, c.Registry.MemberCount("r1"))
}

func TestJoinAuthFailureNotifiesAuthError(t *testing.T) {
	transport := &fakeTransport{}
	c := &Coordinator{
		Registry:  NewRegistry(10),
		Identity:  NewIdentityResolver("s3cret"),
		Transport: transport,
	}

	c.Join("c1", core.Handshake{}, "r1", identity("alice", "Alice"))

	errs := transport.sentTo("c1", core.EvtAuthError)
	require.Len(t, errs, 1)
	assert.Equal(t, "missing credential", errs[0].Payload.(core.ErrorReason).Reason)
	assert.Empty(t, transport.Joins)
	assert.Zero(t, c.Registry.MemberCount("r1"))
}

func TestLeaveBroadcastsMemberLeftToRemaining(t *testing.T) {
	c, transport := newCoordinator(10, true)
	c.Join("c-alice", core.Handshake{}, "r1", identity("alice", "Alice"))
	c.Join("c-bob", core.Handshake{}, "r1", identity("bob", "Bob"))

	c.Leave("c-alice", "r1")

	lefts := transport.broadcastsOf(core.EvtMemberLeft)
	require.Len(t, lefts, 1)
	assert.Equal(t, domain.ConnID("c-alice"), lefts[0].Payload.(core.MemberLeft).ConnectionID)
	assert.Equal(t, domain.ConnID("c-alice"), lefts[0].Exclude)
	require.Len(t, transport.Leaves, 1)
	assert.Equal(t, 1, c.Registry.MemberCount("r1"))
}

func TestLeaveNonMemberIsSilent(t *testing.T) {
	c, transport := newCoordinator(10, true)

	c.Leave("c-ghost", "r1")

	assert.Empty(t, transport.Broadcasts)
	assert.Empty(t, transport.Leaves)
	assert.Empty(t, transport.Sends)
}

func TestDisconnectCleansEveryRoom(t *testing.T) {
	c, transport := newCoordinator(10, true)
	c.Join("c1", core.Handshake{}, "rA", identity("alice", "Alice"))
	c.Join("c1", core.Handshake{}, "rB", identity("alice", "Alice"))
	c.Join("c2", core.Handshake{}, "rA", identity("bob", "Bob"))
	c.Join("c3", core.Handshake{}, "rB", identity("carol", "Carol"))

	c.Disconnect("c1")

	lefts := transport.broadcastsOf(core.EvtMemberLeft)
	require.Len(t, lefts, 2, "exactly one member-left per room")
	rooms := []domain.RoomID{lefts[0].Room, lefts[1].Room}
	assert.ElementsMatch(t, []domain.RoomID{"rA", "rB"}, rooms)
	assert.Empty(t, c.Registry.RoomsContaining("c1"))

	// Idempotent: a second disconnect finds nothing.
	c.Disconnect("c1")
	assert.Len(t, transport.broadcastsOf(core.EvtMemberLeft), 2)
}

func TestSingleRoomModeForcesLeaveOfPriorRoom(t *testing.T) {
	c, transport := newCoordinator(10, false)
	c.Join("c1", core.Handshake{}, "r1", identity("alice", "Alice"))
	c.Join("c2", core.Handshake{}, "r1", identity("bob", "Bob"))

	c.Join("c1", core.Handshake{}, "r2", identity("alice", "Alice"))

	assert.Equal(t, []domain.RoomID{"r2"}, c.Registry.RoomsContaining("c1"))
	lefts := transport.broadcastsOf(core.EvtMemberLeft)
	require.Len(t, lefts, 1)
	assert.Equal(t, domain.RoomID("r1"), lefts[0].Room)
}

func TestUpdateMediaBroadcastsMergedStateExcludingSender(t *testing.T) {
	c, transport := newCoordinator(10, true)
	c.Join("c-alice", core.Handshake{}, "r1", identity("alice", "Alice"))
	c.Join("c-bob", core.Handshake{}, "r1", identity("bob", "Bob"))

	off := false
	c.UpdateMedia("c-alice", "r1", &off, nil)

	changes := transport.broadcastsOf(core.EvtMediaState)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ConnID("c-alice"), changes[0].Exclude)
	state := changes[0].Payload.(core.MediaStateChanged)
	assert.Equal(t, domain.ConnID("c-alice"), state.ConnectionID)
	assert.False(t, state.AudioEnabled)
	assert.True(t, state.VideoEnabled, "unspecified flag keeps its default")
}

func TestUpdateMediaUnknownMemberIsSilent(t *testing.T) {
	c, transport := newCoordinator(10, true)

	on := true
	c.UpdateMedia("c-ghost", "r1", &on, nil)
	c.UpdateMedia("c-ghost", "", &on, nil)

	assert.Empty(t, transport.Broadcasts)
}

func TestSetScreenSharingBroadcastsEnrichedChange(t *testing.T) {
	c, transport := newCoordinator(10, true)
	c.Join("c-alice", core.Handshake{}, "r1", domain.Identity{UserID: "alice", DisplayName: "Alice", PhotoURL: "pic"})
	c.Join("c-bob", core.Handshake{}, "r1", identity("bob", "Bob"))

	c.SetScreenSharing("c-alice", "r1", true)

	changes := transport.broadcastsOf(core.EvtScreenShare)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ConnID("c-alice"), changes[0].Exclude)
	change := changes[0].Payload.(core.ScreenShareChanged)
	assert.True(t, change.Sharing)
	assert.Equal(t, "Alice", change.DisplayName)
	assert.Equal(t, "pic", change.PhotoURL)
}

func TestSetScreenSharingUnknownRoomIsSilent(t *testing.T) {
	c, transport := newCoordinator(10, true)

	c.SetScreenSharing("c-ghost", "r1", true)

	assert.Empty(t, transport.Broadcasts)
}
