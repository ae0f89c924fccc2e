package redis

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Elko-Lemiso/collaborative-board/cache"
)

type RedisBoardCache struct {
	client redis.UniversalClient
}

func NewRedisBoardCache(ctx context.Context, devMode bool, redisEndpoint string) (*RedisBoardCache, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
			// AWS elasticache endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return &RedisBoardCache{client: client}, nil
}

func (redisCache *RedisBoardCache) Publish(ctx context.Context, channel string, message []byte) error {
	if err := redisCache.client.Publish(ctx, channel, message).Err(); err != nil {
		return err
	}
	return nil
}

func (redisCache *RedisBoardCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	pubsub := redisCache.client.Subscribe(ctx, channel)
	// Ensure subscription is established
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		log.Printf("Pubsub channel closed: %s", channel)
		return err
	}

	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}

// Helper functions to generate Redis keys with hash tags for cluster compatibility
func buildBoardKey(boardId string) string {
	return "board:{" + boardId + "}"
}

func buildBoardDataKey(boardId string) string {
	return "board:{" + boardId + "}:data"
}

func buildBoardCompleteKey(boardId string) string {
	return "board:{" + boardId + "}:complete"
}

const cacheTTL = 10 * time.Minute

// Stroke history uses two structures per board:
//  1. ZSet ("board:{id}"): stroke ids ordered by creation timestamp.
//  2. Hash ("board:{id}:data"): stroke id -> JSON blob.
// The ZSet keeps replay order; the Hash gives O(1) blob retrieval with one
// HMGET after reading the ids.
func (redisCache *RedisBoardCache) AddStroke(ctx context.Context, boardId string, strokeId string, score int64, strokeData []byte) error {
	key := buildBoardKey(boardId)
	dataKey := buildBoardDataKey(boardId)
	completeKey := buildBoardCompleteKey(boardId)

	pipe := redisCache.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: strokeId})
	pipe.HSet(ctx, dataKey, strokeId, strokeData)
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (redisCache *RedisBoardCache) AddStrokesBatch(ctx context.Context, boardId string, strokes []cache.StrokeCacheItem) error {
	if len(strokes) == 0 {
		return nil
	}

	key := buildBoardKey(boardId)
	dataKey := buildBoardDataKey(boardId)
	completeKey := buildBoardCompleteKey(boardId)

	zMembers := make([]redis.Z, len(strokes))
	hValues := make([]interface{}, len(strokes)*2)

	for i, s := range strokes {
		zMembers[i] = redis.Z{
			Score:  float64(s.Score),
			Member: s.StrokeId,
		}
		hValues[i*2] = s.StrokeId
		hValues[i*2+1] = s.Data
	}

	pipe := redisCache.client.Pipeline()
	pipe.ZAdd(ctx, key, zMembers...)
	pipe.HSet(ctx, dataKey, hValues...)
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (redisCache *RedisBoardCache) GetStrokes(ctx context.Context, boardId string) ([][]byte, error) {
	key := buildBoardKey(boardId)
	dataKey := buildBoardDataKey(boardId)
	completeKey := buildBoardCompleteKey(boardId)

	// Full replay history, oldest first
	ids, err := redisCache.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return [][]byte{}, nil
	}

	dataMap, err := redisCache.client.HMGet(ctx, dataKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	strokes := make([][]byte, 0, len(ids))
	for _, item := range dataMap {
		if item == nil {
			continue // Should not happen if consistency is maintained
		}
		if s, ok := item.(string); ok {
			strokes = append(strokes, []byte(s))
		}
	}

	// Refresh TTL
	pipe := redisCache.client.Pipeline()
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, _ = pipe.Exec(ctx)

	return strokes, nil
}

func (redisCache *RedisBoardCache) SetBoardComplete(ctx context.Context, boardId string) error {
	completeKey := buildBoardCompleteKey(boardId)
	return redisCache.client.Set(ctx, completeKey, "true", cacheTTL).Err()
}

func (redisCache *RedisBoardCache) IsBoardComplete(ctx context.Context, boardId string) (bool, error) {
	completeKey := buildBoardCompleteKey(boardId)
	val, err := redisCache.client.Exists(ctx, completeKey).Result()
	if err != nil {
		return false, err
	}
	return val > 0, nil
}

func (redisCache *RedisBoardCache) InvalidateBoards(ctx context.Context, boardIds []string) error {
	if len(boardIds) == 0 {
		return nil
	}

	// In Redis Cluster, keys with different hash tags hash to different
	// slots, so each board's three keys are deleted together but boards
	// are deleted separately.
	for _, boardId := range boardIds {
		key := buildBoardKey(boardId)
		dataKey := buildBoardDataKey(boardId)
		completeKey := buildBoardCompleteKey(boardId)

		if err := redisCache.client.Del(ctx, key, dataKey, completeKey).Err(); err != nil {
			return err
		}
	}

	return nil
}
