package store

import (
	"context"
	"errors"

	"github.com/Elko-Lemiso/collaborative-board/models"
)

// BoardStore is the persistence gateway. All operations are board-scoped;
// strokes are append-only, stickers are overwritten last-writer-wins with
// no concurrency token.
type BoardStore interface {
	CreateBoard(ctx context.Context, name string) (models.Board, error)
	GetBoard(ctx context.Context, boardId string) (models.Board, error)
	ListBoards(ctx context.Context) ([]models.Board, error)

	// BumpBoard adjusts the denormalized stroke/sticker counts and the
	// updatedAt timestamp on the board row.
	BumpBoard(ctx context.Context, boardId string, strokeDelta int, stickerDelta int, updated int64) error

	WriteStrokeBatch(ctx context.Context, strokes []models.Stroke) ([]models.Stroke, error)
	ListStrokes(ctx context.Context, boardId string) ([]models.Stroke, error)

	CreateSticker(ctx context.Context, sticker models.Sticker) (models.Sticker, error)
	UpdateSticker(ctx context.Context, boardId string, stickerId string, patch models.StickerPatch) (models.Sticker, error)
	DeleteSticker(ctx context.Context, boardId string, stickerId string) error
	ListStickers(ctx context.Context, boardId string) ([]models.Sticker, error)

	// PurgeBoard removes every row under the board partition. Only the
	// purge queue consumer calls this; board deletion itself is an
	// external admin action.
	PurgeBoard(ctx context.Context, boardId string) error
}

// Custom error types for clarity
var (
	ErrItemNotFound    = errors.New("item does not exist")
	ErrConditionFailed = errors.New("condition not met")
)
