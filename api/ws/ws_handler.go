package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"encoding/json"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"

	"github.com/Elko-Lemiso/collaborative-board/protocol"
	"github.com/Elko-Lemiso/collaborative-board/service"
	"github.com/Elko-Lemiso/collaborative-board/store"
)

type Handler struct {
	Service *service.Service
	Hub     *Hub
}

func NewHandler(svc *service.Service, hub *Hub) *Handler {
	return &Handler{
		Service: svc,
		Hub:     hub,
	}
}

func (h *Handler) NewWsUpgrader(requiredOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == requiredOrigin
		},
		Subprotocols: []string{"board-v1"},
	}
}

// ServeWS handles websocket requests from the peer. The identity token
// rides in the subprotocol list because browsers cannot set headers on
// websocket requests.
func (h *Handler) ServeWS(wsUpgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request, shutdownCtx context.Context) {
	protocols := r.Header.Get("Sec-WebSocket-Protocol")
	protocolsSplit := strings.Split(protocols, ",")

	if len(protocolsSplit) != 2 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token := strings.TrimSpace(protocolsSplit[1])

	username, authErr := h.Service.AuthenticateToken(token)

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade ws connection: %v", err)
		return
	}

	// Must upgrade the connection in order to be able to send custom close message
	if authErr != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Unauthenticated"),
		)
		conn.Close()
		return
	}

	connUUID, err := uuid.NewV4()
	if err != nil {
		conn.Close()
		return
	}

	client := NewClient(h.Hub, conn, connUUID.String(), username, h.HandleWsMessage)

	h.Hub.OpenCh <- client

	// Start pumps
	go client.ReadPump()
	go client.WritePump(shutdownCtx)
}

func (h *Handler) HandleWsMessage(client *Client, messageType int, messageBytes []byte) {
	var msg protocol.Envelope
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		log.Printf("Invalid JSON: %v", err)
		return
	}

	switch msg.Type {
	case protocol.EventJoinBoard:
		var joinMsg protocol.JoinBoard
		if err := json.Unmarshal(msg.Data, &joinMsg); err != nil {
			log.Printf("Invalid join data: %v", err)
			return
		}
		h.handleJoin(client, joinMsg)

	case protocol.EventLeaveBoard:
		h.Hub.LeaveCh <- client

	case protocol.EventDraw:
		var drawMsg protocol.Draw
		if err := json.Unmarshal(msg.Data, &drawMsg); err != nil {
			log.Printf("Invalid draw data: %v", err)
			return
		}
		if !h.inJoinedRoom(client, drawMsg.BoardId) {
			return
		}
		if _, err := h.Service.DrawStroke(context.Background(), client.connId, drawMsg); err != nil {
			log.Printf("DrawStroke failed: %v", err)
		}

	case protocol.EventAddSticker:
		var addMsg protocol.AddSticker
		if err := json.Unmarshal(msg.Data, &addMsg); err != nil {
			log.Printf("Invalid add-sticker data: %v", err)
			return
		}
		if !h.inJoinedRoom(client, addMsg.BoardId) {
			return
		}
		if _, err := h.Service.AddSticker(context.Background(), client.connId, addMsg); err != nil {
			log.Printf("AddSticker failed: %v", err)
		}

	case protocol.EventUpdateSticker:
		var updateMsg protocol.UpdateSticker
		if err := json.Unmarshal(msg.Data, &updateMsg); err != nil {
			log.Printf("Invalid update-sticker data: %v", err)
			return
		}
		if !h.inJoinedRoom(client, updateMsg.BoardId) {
			return
		}
		if _, err := h.Service.UpdateSticker(context.Background(), client.connId, updateMsg); err != nil && !errors.Is(err, store.ErrItemNotFound) {
			log.Printf("UpdateSticker failed: %v", err)
		}

	case protocol.EventDeleteSticker:
		var deleteMsg protocol.DeleteSticker
		if err := json.Unmarshal(msg.Data, &deleteMsg); err != nil {
			log.Printf("Invalid delete-sticker data: %v", err)
			return
		}
		if !h.inJoinedRoom(client, deleteMsg.BoardId) {
			return
		}
		if err := h.Service.DeleteSticker(context.Background(), client.connId, deleteMsg); err != nil && !errors.Is(err, store.ErrItemNotFound) {
			log.Printf("DeleteSticker failed: %v", err)
		}

	default:
		log.Printf("Unknown message type: %v", msg.Type)
	}
}

// inJoinedRoom drops content events whose board id does not match the room
// this connection has joined. The event is discarded, never the connection.
func (h *Handler) inJoinedRoom(client *Client, boardId string) bool {
	if boardId == "" || client.Room() != boardId {
		log.Printf("Dropping event for board %q from connection %s not in that room", boardId, client.connId)
		return false
	}
	return true
}

func (h *Handler) handleJoin(client *Client, joinMsg protocol.JoinBoard) {
	sendJoinError := func(message string) {
		if msg, err := protocol.Marshal(protocol.EventJoinError, protocol.JoinError{Message: message}); err == nil {
			client.Send <- msg
		}
	}

	// The join payload names who the client wants to be on the board; it
	// must match the authenticated identity
	if joinMsg.Username != client.username {
		sendJoinError("username does not match identity token")
		return
	}

	if err := service.ValidateBoardId(joinMsg.BoardId); err != nil {
		sendJoinError("invalid board id")
		return
	}

	if _, err := h.Service.GetBoard(context.Background(), joinMsg.BoardId); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			sendJoinError("board not found")
		} else {
			log.Printf("GetBoard failed during join: %v", err)
			sendJoinError("board is temporarily unavailable")
		}
		return
	}

	h.Hub.JoinCh <- joinRequest{
		client:   client,
		boardId:  joinMsg.BoardId,
		username: joinMsg.Username,
	}
}
