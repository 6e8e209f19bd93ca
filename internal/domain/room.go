package domain

type RoomID string

// MediaState holds the per-connection capture flags for one room.
// Mutated only by the owning connection's own events.
type MediaState struct {
	AudioEnabled  bool `json:"audioEnabled"`
	VideoEnabled  bool `json:"videoEnabled"`
	ScreenSharing bool `json:"isScreenSharing"`
}

// DefaultMediaState is the state every participant starts with at join.
func DefaultMediaState() MediaState {
	return MediaState{AudioEnabled: true, VideoEnabled: true, ScreenSharing: false}
}
