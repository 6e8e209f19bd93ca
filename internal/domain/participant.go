// Package domain contains entity types without logic, just meta-data.
package domain

type (
	// ConnID is assigned by the transport and unique per live connection.
	ConnID string
	// UserID is the durable identity; it may repeat across reconnects and devices.
	UserID string
)

// Identity is the verified public identity of a user, distinct from the
// connection it currently rides on.
type Identity struct {
	UserID      UserID `json:"userId"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// Participant binds a verified identity to one live connection in a room.
type Participant struct {
	ConnID      ConnID `json:"connectionId"`
	UserID      UserID `json:"userId"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// NewParticipant avoids raw literals in adapters and keeps construction obvious.
func NewParticipant(conn ConnID, id Identity) Participant {
	return Participant{
		ConnID:      conn,
		UserID:      id.UserID,
		DisplayName: id.DisplayName,
		PhotoURL:    id.PhotoURL,
	}
}
