package core

import "github.com/dkeye/Relay/internal/domain"

// Outbound event names. Clients match on these literally, so they are
// part of the wire contract.
const (
	EventRoomCreated = "roomCreated"
	EventRooms       = "rooms"
	EventJoinedRoom  = "joinedRoom"
	EventUserJoined  = "userJoined"
	EventTotalUsers  = "totalUsers"
	EventUserLeft    = "userLeft"
	EventNewMessage  = "newMessage"
	EventRoomDeleted = "roomDeleted"
	EventGetRooms    = "getRooms"
	EventError       = "error"
)

// Notifier is the transport capability the registry emits through.
// Delivery is fire-and-forget: implementations must never block and must
// serialize the payload at call time, while the registry still holds its
// lock, so a broadcast always carries the snapshot that produced it.
// Owned by the adapter; the registry never closes connections.
type Notifier interface {
	Notify(conn domain.ClientID, event string, payload any)
	BroadcastToGroup(room domain.RoomID, event string, payload any, exclude ...domain.ClientID)
	BroadcastToAll(event string, payload any)
	JoinGroup(conn domain.ClientID, room domain.RoomID)
}

// NewMessage is the payload of a newMessage event. UserID carries the
// sender's display name, not the connection identity; clients render it
// as-is.
type NewMessage struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// RoomDeleted is the payload of a roomDeleted event.
type RoomDeleted struct {
	Message string `json:"message"`
}
