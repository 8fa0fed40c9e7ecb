package core

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/pkg/roomid"
)

const roomIDPrefix = "room"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrDuplicateUsername = errors.New("username already taken in this room")
)

// Registry owns the rooms and their membership lists. The two maps are
// only ever mutated together under mu, and notifications go out while
// the lock is still held, so every broadcast is computed from the same
// consistent snapshot as the mutation it announces.
type Registry struct {
	mu       sync.Mutex
	rooms    map[domain.RoomID]domain.Room
	members  map[domain.RoomID][]domain.Member
	ids      *roomid.Generator
	notifier Notifier
}

func NewRegistry(n Notifier) *Registry {
	return &Registry{
		rooms:    make(map[domain.RoomID]domain.Room),
		members:  make(map[domain.RoomID][]domain.Member),
		ids:      roomid.NewGenerator(roomIDPrefix),
		notifier: n,
	}
}

// CreateRoom mints a fresh room, subscribes the requester to its
// broadcast group and pushes the updated room list to every connection.
func (r *Registry) CreateRoom(name string, requester domain.ClientID) domain.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := domain.Room{ID: domain.RoomID(r.ids.Next()), Name: name}
	r.rooms[room.ID] = room

	r.notifier.JoinGroup(requester, room.ID)
	r.notifier.Notify(requester, EventRoomCreated, room)
	r.notifier.BroadcastToAll(EventRooms, r.roomListLocked())

	log.Info().Str("module", "core.registry").Str("room_id", string(room.ID)).Str("name", name).Str("cid", string(requester)).Msg("room created")
	return room
}

// JoinRoom appends the requester to the room's membership list. Display
// names are unique within one room; a connection may join several rooms.
func (r *Registry) JoinRoom(username string, roomID domain.RoomID, requester domain.ClientID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; !ok {
		r.notifier.Notify(requester, EventError, "Room not found")
		return ErrRoomNotFound
	}
	for _, m := range r.members[roomID] {
		if m.Username == username {
			r.notifier.Notify(requester, EventError, fmt.Sprintf("User %s already exists in this room", username))
			return ErrDuplicateUsername
		}
	}

	r.members[roomID] = append(r.members[roomID], domain.NewMember(requester, username, roomID))

	r.notifier.JoinGroup(requester, roomID)
	r.notifier.Notify(requester, EventJoinedRoom, string(roomID))
	r.notifier.BroadcastToGroup(roomID, EventUserJoined, fmt.Sprintf("%s has joined the room", username), requester)
	r.notifier.BroadcastToGroup(roomID, EventTotalUsers, r.members[roomID])

	log.Info().Str("module", "core.registry").Str("room_id", string(roomID)).Str("username", username).Str("cid", string(requester)).Msg("member joined")
	return nil
}

// LeaveRoom removes the first member matching the requester's connection
// identity; the supplied username only feeds the outgoing notification
// text. The connection stays in the broadcast group until it disconnects
// or the room is deleted.
func (r *Registry) LeaveRoom(username string, roomID domain.RoomID, requester domain.ClientID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; !ok {
		r.notifier.Notify(requester, EventError, "Room not found")
		return ErrRoomNotFound
	}

	list := r.members[roomID]
	for i, m := range list {
		if m.ConnID == requester {
			r.members[roomID] = append(list[:i], list[i+1:]...)
			break
		}
	}

	r.notifier.BroadcastToGroup(roomID, EventUserLeft, fmt.Sprintf("%s has left the room", username), requester)
	r.notifier.BroadcastToGroup(roomID, EventTotalUsers, r.members[roomID])

	log.Info().Str("module", "core.registry").Str("room_id", string(roomID)).Str("username", username).Str("cid", string(requester)).Msg("member left")
	return nil
}

// SendMessage fans a message out to the whole room, sender included.
// Messages are fire-and-forget; nothing is stored.
func (r *Registry) SendMessage(username string, roomID domain.RoomID, message string, requester domain.ClientID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; !ok {
		r.notifier.Notify(requester, EventError, "Room not found")
		return ErrRoomNotFound
	}

	r.notifier.BroadcastToGroup(roomID, EventNewMessage, NewMessage{UserID: username, Message: message})

	log.Debug().Str("module", "core.registry").Str("room_id", string(roomID)).Str("username", username).Msg("message relayed")
	return nil
}

// DeleteRoom notifies the room's group, then drops the room and its
// membership list together and pushes the updated room list to everyone.
func (r *Registry) DeleteRoom(roomID domain.RoomID, requester domain.ClientID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		r.notifier.Notify(requester, EventError, "Room not found")
		return ErrRoomNotFound
	}

	r.notifier.BroadcastToGroup(roomID, EventRoomDeleted, RoomDeleted{Message: fmt.Sprintf("Room %s has been deleted", room.Name)})

	delete(r.rooms, roomID)
	delete(r.members, roomID)

	r.notifier.BroadcastToAll(EventRooms, r.roomListLocked())

	log.Info().Str("module", "core.registry").Str("room_id", string(roomID)).Str("cid", string(requester)).Msg("room deleted")
	return nil
}

// DisconnectSweep purges a vanished connection from every membership
// list. Membership is not indexed by connection, so this scans all
// rooms. Rooms emptied by the sweep keep their metadata entry and stay
// listed; only an explicit delete removes a room.
func (r *Registry) DisconnectSweep(requester domain.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	swept := 0
	for roomID, list := range r.members {
		kept := make([]domain.Member, 0, len(list))
		for _, m := range list {
			if m.ConnID != requester {
				kept = append(kept, m)
			}
		}
		if len(kept) == len(list) {
			continue
		}
		swept++

		if len(kept) == 0 {
			delete(r.members, roomID)
			continue
		}
		r.members[roomID] = kept
		r.notifier.BroadcastToGroup(roomID, EventTotalUsers, kept)
	}

	log.Info().Str("module", "core.registry").Str("cid", string(requester)).Int("rooms", swept).Msg("disconnect sweep")
}

// FetchRooms pushes the current room list to every connection, not just
// the requester; clients rely on the push to refresh their listings.
func (r *Registry) FetchRooms(requester domain.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifier.BroadcastToAll(EventGetRooms, r.roomListLocked())

	log.Debug().Str("module", "core.registry").Str("cid", string(requester)).Msg("room list fetched")
}

// Rooms returns a snapshot of all rooms in creation order.
func (r *Registry) Rooms() []domain.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roomListLocked()
}

// Members returns a snapshot of one room's membership list.
func (r *Registry) Members(roomID domain.RoomID) []domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.members[roomID])
}

// roomListLocked snapshots the room list sorted by ID. IDs are
// monotonic, so the order is creation order. Callers must hold mu.
func (r *Registry) roomListLocked() []domain.Room {
	out := make([]domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	slices.SortFunc(out, func(a, b domain.Room) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
