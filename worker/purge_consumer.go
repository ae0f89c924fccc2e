package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Elko-Lemiso/collaborative-board/cache"
	"github.com/Elko-Lemiso/collaborative-board/mq"
	"github.com/Elko-Lemiso/collaborative-board/store"
)

type PurgeBoardMessage struct {
	BoardId string `json:"boardId"`
}

// PurgeConsumer drains board purge jobs enqueued by the admin tooling.
// Purges run here rather than in a request handler because a large board
// takes many throttled batch deletes.
type PurgeConsumer struct {
	purgeQueue mq.MessageQueue
	boardStore store.BoardStore
	boardCache cache.BoardCache
}

func NewPurgeConsumer(purgeQueue mq.MessageQueue, boardStore store.BoardStore, boardCache cache.BoardCache) *PurgeConsumer {
	return &PurgeConsumer{
		purgeQueue: purgeQueue,
		boardStore: boardStore,
		boardCache: boardCache,
	}
}

// Allow up to 5 minutes for the throttled batch deletion of a board partition
const visibilityTimeout = 300

func (c PurgeConsumer) Run(shutdownCtx context.Context) {
	for {
		msg, err := c.purgeQueue.Receive(shutdownCtx, visibilityTimeout)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("purgeConsumer receive error: %v", err)
			continue
		}

		if msg == nil {
			continue
		}

		var purgeMsg PurgeBoardMessage
		if err := json.Unmarshal([]byte(msg.Body), &purgeMsg); err != nil {
			continue
		}
		if purgeMsg.BoardId == "" {
			continue
		}

		// timeout should be a little less than queue visibility timeout
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(visibilityTimeout-1)*time.Second)

		err = c.boardStore.PurgeBoard(ctx, purgeMsg.BoardId)
		if err == nil {
			if err := c.boardCache.InvalidateBoards(ctx, []string{purgeMsg.BoardId}); err != nil {
				log.Printf("Failed to invalidate board %s: %v", purgeMsg.BoardId, err)
			}
		}
		cancel()

		if err != nil {
			log.Printf("boardStore purge board error: %v", err)
			continue
		}

		err = c.purgeQueue.Delete(context.Background(), msg)
		if err != nil {
			log.Printf("purgeConsumer delete error: %v", err)
			continue
		}

		log.Printf("Purged board %s", purgeMsg.BoardId)
	}
}
