package ws

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

// envelope is the wire format in both directions.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub tracks live connections and room broadcast groups, and implements
// core.Notifier. A group outlives the members who left it: connections
// are only detached from groups when they disconnect or the room's
// group is explicitly dropped.
type Hub struct {
	mu     sync.RWMutex
	conns  map[domain.ClientID]ChatConn
	groups map[domain.RoomID]map[domain.ClientID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns:  make(map[domain.ClientID]ChatConn),
		groups: make(map[domain.RoomID]map[domain.ClientID]struct{}),
	}
}

// Register makes a connection addressable for unicast and broadcast.
func (h *Hub) Register(cid domain.ClientID, conn ChatConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[cid] = conn
	log.Info().Str("module", "ws.hub").Str("cid", string(cid)).Int("conns", len(h.conns)).Msg("connection registered")
}

// Unregister removes a connection from the table and from every group.
func (h *Hub) Unregister(cid domain.ClientID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, cid)
	for _, group := range h.groups {
		delete(group, cid)
	}
	log.Info().Str("module", "ws.hub").Str("cid", string(cid)).Int("conns", len(h.conns)).Msg("connection unregistered")
}

func (h *Hub) JoinGroup(cid domain.ClientID, room domain.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[room]
	if !ok {
		group = make(map[domain.ClientID]struct{})
		h.groups[room] = group
	}
	group[cid] = struct{}{}
}

// DropGroup forgets a room's broadcast group entirely.
func (h *Hub) DropGroup(room domain.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, room)
}

func (h *Hub) Notify(cid domain.ClientID, event string, payload any) {
	data, ok := marshalEvent(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	conn, exists := h.conns[cid]
	h.mu.RUnlock()
	if !exists {
		return
	}
	h.deliver(cid, conn, event, data)
}

func (h *Hub) BroadcastToGroup(room domain.RoomID, event string, payload any, exclude ...domain.ClientID) {
	data, ok := marshalEvent(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for cid := range h.groups[room] {
		if slices.Contains(exclude, cid) {
			continue
		}
		if conn, exists := h.conns[cid]; exists {
			h.deliver(cid, conn, event, data)
		}
	}
}

func (h *Hub) BroadcastToAll(event string, payload any) {
	data, ok := marshalEvent(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for cid, conn := range h.conns {
		h.deliver(cid, conn, event, data)
	}
}

func (h *Hub) deliver(cid domain.ClientID, conn ChatConn, event string, data []byte) {
	if err := conn.TrySend(data); err != nil {
		log.Debug().Err(err).Str("module", "ws.hub").Str("cid", string(cid)).Str("event", event).Msg("frame dropped")
	}
}

// marshalEvent serializes the payload immediately so the caller's
// snapshot is captured before any later mutation.
func marshalEvent(event string, payload any) ([]byte, bool) {
	b, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "ws.hub").Str("event", event).Msg("marshal event")
		return nil, false
	}
	return b, true
}

var _ core.Notifier = (*Hub)(nil)
