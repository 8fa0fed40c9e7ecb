// Package domain contains entities without logic, just meta-data.
package domain

type RoomID string

// Room is a named broadcast group. Names are arbitrary and not unique;
// the ID is unique for the lifetime of the process.
type Room struct {
	ID   RoomID `json:"roomId"`
	Name string `json:"roomName"`
}
