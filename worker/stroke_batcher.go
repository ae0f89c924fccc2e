package worker

import (
	"context"
	"log"
	"time"

	"github.com/Elko-Lemiso/collaborative-board/models"
	"github.com/Elko-Lemiso/collaborative-board/store"
)

type StrokeBatcher struct {
	WriteCh            chan models.Stroke
	boardStore         store.BoardStore
	boardBatcher       *BoardBatcher
	tickerMilliseconds int
}

// Strokes are append-only, so the batcher is a simple coalescing buffer:
// collect up to a full DynamoDB batch or until the ticker fires, then write.
// Broadcast already happened by the time a stroke lands here; a failed flush
// only loses history, never live traffic.
func NewStrokeBatcher(boardStore store.BoardStore, tickerMilliseconds int, boardBatcher *BoardBatcher) *StrokeBatcher {
	return &StrokeBatcher{
		WriteCh:            make(chan models.Stroke, 1024), // buffer to absorb bursts
		boardStore:         boardStore,
		boardBatcher:       boardBatcher,
		tickerMilliseconds: tickerMilliseconds,
	}
}

func (b *StrokeBatcher) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(time.Duration(b.tickerMilliseconds) * time.Millisecond)
	defer ticker.Stop()

	batch := make([]models.Stroke, 0, 25)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		// Explicitly ignore cancel to satisfy linter
		// In this case, we don't want to defer cancel(),
		// when shutdownCtx causes this function to return
		// any pending batch writes should finish
		_ = cancel
		unprocessed, err := b.boardStore.WriteStrokeBatch(ctx, batch)

		if err != nil {
			log.Printf("Error writing stroke batch to dynamo: %v", err)
		}

		// Successes: everything in batch minus unprocessed
		failedMap := make(map[string]bool)
		for _, u := range unprocessed {
			failedMap[u.Id] = true
		}

		for _, s := range batch {
			if !failedMap[s.Id] {
				b.boardBatcher.UpdateCh <- BoardUpdate{
					BoardId:     s.BoardId,
					StrokeDelta: 1,
					Updated:     s.Created,
				}
			}
		}

		batch = batch[:0]
	}

	for {
		select {
		case stroke := <-b.WriteCh:
			batch = append(batch, stroke)
			if len(batch) == 25 {
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
