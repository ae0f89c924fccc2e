package worker

import (
	"context"
	"log"
	"time"

	"github.com/Elko-Lemiso/collaborative-board/store"
)

type BoardUpdate struct {
	BoardId      string
	StrokeDelta  int
	StickerDelta int
	Updated      int64
}

// BoardBatcher coalesces counter bumps so a burst of strokes on one board
// turns into a single UpdateItem instead of one write per stroke. The
// updatedAt timestamp keeps the latest value seen, matching last-writer-wins
// everywhere else.
type BoardBatcher struct {
	UpdateCh           chan BoardUpdate
	boardStore         store.BoardStore
	tickerMilliseconds int
}

func NewBoardBatcher(boardStore store.BoardStore, tickerMilliseconds int) *BoardBatcher {
	return &BoardBatcher{
		UpdateCh:           make(chan BoardUpdate, 1024),
		boardStore:         boardStore,
		tickerMilliseconds: tickerMilliseconds,
	}
}

func (b *BoardBatcher) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(time.Duration(b.tickerMilliseconds) * time.Millisecond)
	defer ticker.Stop()

	pending := make(map[string]BoardUpdate)

	flush := func() {
		for boardId, update := range pending {
			if update.StrokeDelta == 0 && update.StickerDelta == 0 && update.Updated == 0 {
				continue
			}
			go func(boardId string, u BoardUpdate) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := b.boardStore.BumpBoard(ctx, boardId, u.StrokeDelta, u.StickerDelta, u.Updated); err != nil {
					log.Printf("Failed to bump counters for board %s: %v", boardId, err)
				}
			}(boardId, update)
		}
		pending = make(map[string]BoardUpdate)
	}

	for {
		select {
		case update := <-b.UpdateCh:
			if update.BoardId == "" {
				continue
			}
			agg := pending[update.BoardId]
			agg.BoardId = update.BoardId
			agg.StrokeDelta += update.StrokeDelta
			agg.StickerDelta += update.StickerDelta
			if update.Updated > agg.Updated {
				agg.Updated = update.Updated
			}
			pending[update.BoardId] = agg

			if len(pending) >= 100 {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-shutdownCtx.Done():
			flush()
			return
		}
	}
}
