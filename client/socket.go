package client

import (
	"context"
	"log"

	"github.com/gorilla/websocket"

	"github.com/Elko-Lemiso/collaborative-board/protocol"
)

// Socket is the websocket transport behind a Session. Send runs on the
// caller's loop; ReadLoop runs on its own goroutine and hands every frame
// to the session.
type Socket struct {
	conn *websocket.Conn
}

// Dial connects to the server's /ws endpoint. The identity token rides in
// the subprotocol list, mirroring what browsers do.
func Dial(ctx context.Context, wsURL string, token string) (*Socket, error) {
	dialer := websocket.Dialer{
		Subprotocols: []string{"board-v1", token},
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}
	return &Socket{conn: conn}, nil
}

func (s *Socket) Send(eventType string, data any) error {
	msg, err := protocol.Marshal(eventType, data)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, msg)
}

// ReadLoop feeds incoming frames to handle until the connection drops or
// ctx is cancelled. Typically called with session.HandleMessage.
func (s *Socket) ReadLoop(ctx context.Context, handle func(raw []byte)) {
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WS read error: %v", err)
			}
			return
		}
		handle(raw)
	}
}

func (s *Socket) Close() error {
	return s.conn.Close()
}
