package domain

// ClientID is an opaque, transport-assigned identifier for one live
// client connection.
type ClientID string

// Member is a connection's participation record in one room.
// It references the room by ID only; no transport or lifecycle logic here.
type Member struct {
	ConnID   ClientID `json:"userId"`
	Username string   `json:"userName"`
	RoomID   RoomID   `json:"roomId"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(conn ClientID, username string, room RoomID) Member {
	return Member{ConnID: conn, Username: username, RoomID: room}
}
