package cache

import "context"

type StrokeCacheItem struct {
	StrokeId string
	Score    int64
	Data     []byte
}

// BoardCache is the realtime fanout channel plus the stroke history cache.
// Publish/Subscribe carry board-room broadcast envelopes; the stroke
// methods hold the recent replay history so late joiners rarely hit the
// store.
type BoardCache interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channel string, handler func(message []byte)) error

	AddStroke(ctx context.Context, boardId string, strokeId string, score int64, strokeData []byte) error
	AddStrokesBatch(ctx context.Context, boardId string, strokes []StrokeCacheItem) error
	GetStrokes(ctx context.Context, boardId string) ([][]byte, error)

	SetBoardComplete(ctx context.Context, boardId string) error
	IsBoardComplete(ctx context.Context, boardId string) (bool, error)
	InvalidateBoards(ctx context.Context, boardIds []string) error
}
