package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

const maxRoomNameLen = 64

// Inbound payloads, one per event. The envelope's data field is decoded
// into the matching struct by handleEvent's dispatch switch.
type (
	createRoomPayload struct {
		RoomName string `json:"roomName"`
	}
	joinRoomPayload struct {
		UserName string `json:"userName"`
		RoomID   string `json:"roomId"`
	}
	leaveRoomPayload struct {
		RoomID   string `json:"roomId"`
		UserName string `json:"userName"`
	}
	sendMessagePayload struct {
		UserName string `json:"userName"`
		RoomID   string `json:"roomId"`
		Message  string `json:"message"`
	}
	deleteRoomPayload struct {
		RoomID string `json:"roomId"`
	}
)

func (ctl *ChatWSController) handleEvent(cid domain.ClientID, data []byte) {
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws.handler").Str("cid", string(cid)).Msg("bad json")
		ctl.Hub.Notify(cid, core.EventError, "bad payload")
		return
	}

	switch env.Event {
	case "createRoom":
		ctl.handleCreateRoom(cid, env.Data)
	case "joinRoom":
		ctl.handleJoinRoom(cid, env.Data)
	case "leaveRoom":
		ctl.handleLeaveRoom(cid, env.Data)
	case "sendMessage":
		ctl.handleSendMessage(cid, env.Data)
	case "deleteRoom":
		ctl.handleDeleteRoom(cid, env.Data)
	case "fetchRooms":
		ctl.Registry.FetchRooms(cid)
	default:
		log.Warn().Str("module", "ws.handler").Str("event", env.Event).Msg("unknown event")
	}
}

func (ctl *ChatWSController) handleCreateRoom(cid domain.ClientID, data []byte) {
	var p createRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws.handler").Msg("bad createRoom payload")
		ctl.Hub.Notify(cid, core.EventError, "bad payload")
		return
	}
	name := p.RoomName
	if len(name) > maxRoomNameLen {
		name = name[:maxRoomNameLen]
	}
	ctl.Registry.CreateRoom(name, cid)
}

func (ctl *ChatWSController) handleJoinRoom(cid domain.ClientID, data []byte) {
	var p joinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws.handler").Msg("bad joinRoom payload")
		ctl.Hub.Notify(cid, core.EventError, "bad payload")
		return
	}
	_ = ctl.Registry.JoinRoom(p.UserName, domain.RoomID(p.RoomID), cid)
}

func (ctl *ChatWSController) handleLeaveRoom(cid domain.ClientID, data []byte) {
	var p leaveRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws.handler").Msg("bad leaveRoom payload")
		ctl.Hub.Notify(cid, core.EventError, "bad payload")
		return
	}
	_ = ctl.Registry.LeaveRoom(p.UserName, domain.RoomID(p.RoomID), cid)
}

func (ctl *ChatWSController) handleSendMessage(cid domain.ClientID, data []byte) {
	var p sendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws.handler").Msg("bad sendMessage payload")
		ctl.Hub.Notify(cid, core.EventError, "bad payload")
		return
	}
	_ = ctl.Registry.SendMessage(p.UserName, domain.RoomID(p.RoomID), p.Message, cid)
}

func (ctl *ChatWSController) handleDeleteRoom(cid domain.ClientID, data []byte) {
	var p deleteRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws.handler").Msg("bad deleteRoom payload")
		ctl.Hub.Notify(cid, core.EventError, "bad payload")
		return
	}
	roomID := domain.RoomID(p.RoomID)
	if err := ctl.Registry.DeleteRoom(roomID, cid); err != nil {
		return
	}
	// The room is gone; its broadcast group goes with it.
	ctl.Hub.DropGroup(roomID)
}
