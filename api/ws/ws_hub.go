package ws

import (
	"context"
	"encoding/json"
	"log"
	"sort"

	"github.com/Elko-Lemiso/collaborative-board/cache"
	"github.com/Elko-Lemiso/collaborative-board/protocol"
)

type joinRequest struct {
	client   *Client
	boardId  string
	username string
}

type delivery struct {
	boardId string
	message []byte
}

// Hub owns the room registry and the presence rosters. A single Run
// goroutine serializes every membership change and every fanout, so no
// locks are needed anywhere in this package. Redis subscription callbacks
// funnel into DeliverCh instead of touching the maps directly.
type Hub struct {
	boardCache              cache.BoardCache
	OpenCh                  chan *Client
	CloseCh                 chan *Client
	JoinCh                  chan joinRequest
	LeaveCh                 chan *Client
	DeliverCh               chan delivery
	boardToClients          map[string]map[*Client]struct{}
	boardRoster             map[string]map[string]*Client
	boardToSubscriberCancel map[string]context.CancelFunc
}

func NewHub(boardCache cache.BoardCache) *Hub {
	return &Hub{
		boardCache:              boardCache,
		OpenCh:                  make(chan *Client, 256),
		CloseCh:                 make(chan *Client, 256),
		JoinCh:                  make(chan joinRequest, 256),
		LeaveCh:                 make(chan *Client, 256),
		DeliverCh:               make(chan delivery, 1024),
		boardToClients:          make(map[string]map[*Client]struct{}),
		boardRoster:             make(map[string]map[string]*Client),
		boardToSubscriberCancel: make(map[string]context.CancelFunc),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.OpenCh:
			// Nothing to track until the client joins a board

		case client := <-h.CloseCh:
			h.removeFromBoard(client)

		case req := <-h.JoinCh:
			h.handleJoin(req)

		case client := <-h.LeaveCh:
			h.removeFromBoard(client)

		case d := <-h.DeliverCh:
			h.deliver(d)
		}
	}
}

func (h *Hub) handleJoin(req joinRequest) {
	roster := h.boardRoster[req.boardId]
	if existing, taken := roster[req.username]; taken && existing != req.client {
		// The name is the identity on a board; a second connection
		// claiming it is rejected rather than merged
		msg, err := protocol.Marshal(protocol.EventJoinError, protocol.JoinError{
			Message: "username '" + req.username + "' is already on this board",
		})
		if err == nil {
			req.client.Send <- msg
		}
		return
	}

	// Joining a new board implicitly leaves the previous one
	if req.client.boardId != "" && req.client.boardId != req.boardId {
		h.removeFromBoard(req.client)
	}

	if h.boardToClients[req.boardId] == nil {
		ctx, cancel := context.WithCancel(context.Background())
		boardId := req.boardId
		channel := "board:" + boardId

		err := h.boardCache.Subscribe(ctx, channel, func(messageBytes []byte) {
			h.DeliverCh <- delivery{boardId: boardId, message: messageBytes}
		})
		if err != nil {
			log.Printf("Failed to create redis sub for channel %s: %v", channel, err)
			cancel()
			msg, merr := protocol.Marshal(protocol.EventJoinError, protocol.JoinError{
				Message: "board is temporarily unavailable",
			})
			if merr == nil {
				req.client.Send <- msg
			}
			return
		}

		h.boardToClients[req.boardId] = make(map[*Client]struct{})
		h.boardRoster[req.boardId] = make(map[string]*Client)
		h.boardToSubscriberCancel[req.boardId] = cancel
	}

	h.boardToClients[req.boardId][req.client] = struct{}{}
	h.boardRoster[req.boardId][req.username] = req.client
	req.client.boardId = req.boardId
	req.client.boardUsername = req.username
	req.client.room.Store(req.boardId)

	h.broadcastRoster(req.boardId)
}

func (h *Hub) removeFromBoard(client *Client) {
	boardId := client.boardId
	if boardId == "" {
		return
	}

	delete(h.boardToClients[boardId], client)
	if h.boardRoster[boardId][client.boardUsername] == client {
		delete(h.boardRoster[boardId], client.boardUsername)
	}
	client.boardId = ""
	client.boardUsername = ""
	client.room.Store("")

	if len(h.boardToClients[boardId]) == 0 {
		if cancel, ok := h.boardToSubscriberCancel[boardId]; ok {
			cancel()
			delete(h.boardToSubscriberCancel, boardId)
		}
		delete(h.boardToClients, boardId)
		delete(h.boardRoster, boardId)
		return
	}

	h.broadcastRoster(boardId)
}

// broadcastRoster sends the complete membership list to everyone on the
// board, the affected client included. Full snapshots mean a dropped or
// reordered update is corrected by the next one.
func (h *Hub) broadcastRoster(boardId string) {
	roster := h.boardRoster[boardId]
	users := make([]string, 0, len(roster))
	for username := range roster {
		users = append(users, username)
	}
	sort.Strings(users)

	msg, err := protocol.Marshal(protocol.EventUsersUpdate, protocol.UsersUpdate{
		BoardId: boardId,
		Users:   users,
	})
	if err != nil {
		log.Printf("Failed to marshal roster for board %s: %v", boardId, err)
		return
	}

	for client := range h.boardToClients[boardId] {
		select {
		case client.Send <- msg:
		default:
			// Slow consumer; the write pump will close it soon enough
		}
	}
}

// deliver fans a pub-sub frame out to the local room, skipping the
// connection that originated the event.
func (h *Hub) deliver(d delivery) {
	var broadcast protocol.Broadcast
	if err := json.Unmarshal(d.message, &broadcast); err != nil {
		log.Printf("Invalid broadcast on board %s: %v", d.boardId, err)
		return
	}

	eventBytes, err := json.Marshal(broadcast.Event)
	if err != nil {
		return
	}

	for client := range h.boardToClients[d.boardId] {
		if broadcast.Origin != "" && client.connId == broadcast.Origin {
			continue
		}
		select {
		case client.Send <- eventBytes:
		default:
		}
	}
}
