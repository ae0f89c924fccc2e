package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofrs/uuid/v5"

	"github.com/Elko-Lemiso/collaborative-board/models"
	"github.com/Elko-Lemiso/collaborative-board/protocol"
)

// DrawStroke fans a stroke segment out to the board and queues it for
// persistence. The broadcast never waits on storage: by the time the batcher
// flushes, every live client already rendered the segment. originConnId is
// the websocket connection that sent the event, excluded from delivery.
func (s *Service) DrawStroke(ctx context.Context, originConnId string, ev protocol.Draw) (models.Stroke, error) {
	// 1. Validation
	if err := ValidateBoardId(ev.BoardId); err != nil {
		return models.Stroke{}, err
	}
	if err := ValidateDraw(ev); err != nil {
		return models.Stroke{}, err
	}

	// 2. ID generation. UUIDv7 embeds the creation time, so the id doubles
	// as the replay sort key.
	strokeUUID, err := uuid.NewV7()
	if err != nil {
		return models.Stroke{}, err
	}

	ts, err := uuid.TimestampFromV7(strokeUUID)
	if err != nil {
		return models.Stroke{}, err
	}
	created, err := ts.Time()
	if err != nil {
		return models.Stroke{}, err
	}

	stroke := models.Stroke{
		Id:      strokeUUID.String(),
		BoardId: ev.BoardId,
		FromX:   ev.From.X,
		FromY:   ev.From.Y,
		ToX:     ev.To.X,
		ToY:     ev.To.Y,
		Color:   ev.Color,
		Width:   ev.Width,
		Created: created.UnixMilli(),
	}

	// Async side-effects - return to caller as soon as the stroke id is
	// generated
	go func() {
		// 3. Queue for DynamoDB (batcher bumps board counters on flush)
		s.StrokeBatcher.WriteCh <- stroke

		// 4. Add to cache
		strokeBytes, err := json.Marshal(stroke)
		if err == nil {
			if err := s.Cache.AddStroke(context.Background(), ev.BoardId, stroke.Id, stroke.Created, strokeBytes); err != nil {
				log.Printf("Failed to cache stroke %s: %v", stroke.Id, err)
			}
		}

		// 5. Broadcast
		s.publish(ev.BoardId, originConnId, protocol.EventDraw, ev)
	}()

	return stroke, nil
}

// publish wraps the event in a Broadcast frame and pushes it to the board's
// pub-sub channel. Fanout errors are logged, never propagated: a dropped
// broadcast self-corrects on the next roster or reload.
func (s *Service) publish(boardId string, originConnId string, eventType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal %s broadcast: %v", eventType, err)
		return
	}

	msg := protocol.Broadcast{
		Origin: originConnId,
		Event:  protocol.Envelope{Type: eventType, Data: raw},
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal %s broadcast: %v", eventType, err)
		return
	}

	if err := s.Cache.Publish(context.Background(), "board:"+boardId, msgBytes); err != nil {
		log.Printf("Failed to publish %s to board %s: %v", eventType, boardId, err)
	}
}
