// Package protocol defines the realtime event names and payloads shared by
// the server router and the client session. Every event is a JSON envelope
// {type, data}; geometry values are always virtual-canvas coordinates.
package protocol

import (
	"encoding/json"

	"github.com/Elko-Lemiso/collaborative-board/models"
)

const (
	EventJoinBoard     = "join-board"
	EventLeaveBoard    = "leave-board"
	EventJoinError     = "join-error"
	EventUsersUpdate   = "users-update"
	EventDraw          = "draw"
	EventAddSticker    = "add-sticker"
	EventUpdateSticker = "update-sticker"
	EventDeleteSticker = "delete-sticker"
)

// Envelope is the outer frame of every message in either direction.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type JoinBoard struct {
	BoardId  string `json:"boardId"`
	Username string `json:"username"`
}

type LeaveBoard struct {
	BoardId  string `json:"boardId"`
	Username string `json:"username"`
}

type JoinError struct {
	Message string `json:"message"`
}

// UsersUpdate carries the full membership list, not a delta. Sending the
// whole snapshot on every change keeps rosters self-correcting when
// updates arrive out of order.
type UsersUpdate struct {
	BoardId string   `json:"boardId"`
	Users   []string `json:"users"`
}

type Draw struct {
	BoardId string  `json:"boardId"`
	From    Point   `json:"from"`
	To      Point   `json:"to"`
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
}

type AddSticker struct {
	BoardId string         `json:"boardId"`
	Sticker models.Sticker `json:"sticker"`
}

// UpdateSticker may carry a partial patch; receivers overwrite only the
// fields present (last-writer-wins per field set).
type UpdateSticker struct {
	BoardId   string              `json:"boardId"`
	StickerId string              `json:"stickerId"`
	Patch     models.StickerPatch `json:"patch"`
}

type DeleteSticker struct {
	BoardId   string `json:"boardId"`
	StickerId string `json:"stickerId"`
}

// Broadcast is the fanout frame published to the board's pub-sub channel.
// Origin is the connection id that caused the event; each hub skips that
// connection when delivering so senders never see their own events echoed.
// REST-originated events use an empty Origin and reach everyone.
type Broadcast struct {
	Origin string   `json:"origin"`
	Event  Envelope `json:"event"`
}

// Marshal wraps data in an Envelope of the given type.
func Marshal(eventType string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Data: raw})
}
