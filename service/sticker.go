package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Elko-Lemiso/collaborative-board/models"
	"github.com/Elko-Lemiso/collaborative-board/protocol"
	"github.com/Elko-Lemiso/collaborative-board/store"
	"github.com/Elko-Lemiso/collaborative-board/worker"
)

const (
	defaultStickerSize = 100
)

func (s *Service) AddSticker(ctx context.Context, originConnId string, ev protocol.AddSticker) (models.Sticker, error) {
	if err := ValidateBoardId(ev.BoardId); err != nil {
		return models.Sticker{}, err
	}

	sticker := ev.Sticker
	sticker.BoardId = ev.BoardId

	if sticker.Width == 0 {
		sticker.Width = defaultStickerSize
	}
	if sticker.Height == 0 {
		sticker.Height = defaultStickerSize
	}
	if sticker.Id == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return models.Sticker{}, err
		}
		sticker.Id = id.String()
	}
	now := time.Now().UnixMilli()
	sticker.Created = now
	sticker.Updated = now

	if err := ValidateSticker(sticker); err != nil {
		return models.Sticker{}, err
	}

	created, err := s.Store.CreateSticker(ctx, sticker)
	if err != nil {
		// Live clients still get the sticker; it just won't survive a
		// reload until a later write lands
		log.Printf("Failed to persist sticker %s on board %s: %v", sticker.Id, ev.BoardId, err)
		created = sticker
	}

	// Async side-effects - return to caller as soon as the store operation
	// is done
	go func() {
		if err == nil {
			s.BoardBatcher.UpdateCh <- worker.BoardUpdate{
				BoardId:      ev.BoardId,
				StickerDelta: 1,
				Updated:      now,
			}
		}
		s.publish(ev.BoardId, originConnId, protocol.EventAddSticker, protocol.AddSticker{
			BoardId: ev.BoardId,
			Sticker: created,
		})
	}()

	return created, nil
}

func (s *Service) UpdateSticker(ctx context.Context, originConnId string, ev protocol.UpdateSticker) (models.Sticker, error) {
	if err := ValidateBoardId(ev.BoardId); err != nil {
		return models.Sticker{}, err
	}
	if err := ValidateStickerPatch(ev.Patch); err != nil {
		return models.Sticker{}, err
	}

	now := time.Now().UnixMilli()
	updated, err := s.Store.UpdateSticker(ctx, ev.BoardId, ev.StickerId, ev.Patch)
	if err != nil && errors.Is(err, store.ErrItemNotFound) {
		// Concurrent delete won the race. Broadcast anyway; receivers drop
		// patches for stickers they no longer hold
		log.Printf("Update for missing sticker %s on board %s", ev.StickerId, ev.BoardId)
	} else if err != nil {
		log.Printf("Failed to persist sticker update %s on board %s: %v", ev.StickerId, ev.BoardId, err)
	}

	go func() {
		if err == nil {
			s.BoardBatcher.UpdateCh <- worker.BoardUpdate{
				BoardId: ev.BoardId,
				Updated: now,
			}
		}
		s.publish(ev.BoardId, originConnId, protocol.EventUpdateSticker, ev)
	}()

	return updated, err
}

func (s *Service) DeleteSticker(ctx context.Context, originConnId string, ev protocol.DeleteSticker) error {
	if err := ValidateBoardId(ev.BoardId); err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	err := s.Store.DeleteSticker(ctx, ev.BoardId, ev.StickerId)
	if err != nil && errors.Is(err, store.ErrItemNotFound) {
		// Already gone, deletes are idempotent from the client's view
		log.Printf("Delete for missing sticker %s on board %s", ev.StickerId, ev.BoardId)
	} else if err != nil {
		log.Printf("Failed to delete sticker %s on board %s: %v", ev.StickerId, ev.BoardId, err)
	}

	go func() {
		if err == nil {
			s.BoardBatcher.UpdateCh <- worker.BoardUpdate{
				BoardId:      ev.BoardId,
				StickerDelta: -1,
				Updated:      now,
			}
		}
		// Sticker images stay in blob storage: stickers may share an image
		// URL, so nothing is safely deletable here
		s.publish(ev.BoardId, originConnId, protocol.EventDeleteSticker, ev)
	}()

	return err
}
