package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elko-Lemiso/collaborative-board/cache"
)

func setupCache(t *testing.T) (*RedisBoardCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	boardCache, err := NewRedisBoardCache(context.Background(), true, mr.Addr())
	require.NoError(t, err)
	return boardCache, mr
}

func TestAddStroke_RoundTrip(t *testing.T) {
	boardCache, _ := setupCache(t)
	ctx := context.Background()

	assert.NoError(t, boardCache.AddStroke(ctx, "b1", "s1", 100, []byte(`{"id":"s1"}`)))
	assert.NoError(t, boardCache.AddStroke(ctx, "b1", "s2", 200, []byte(`{"id":"s2"}`)))

	strokes, err := boardCache.GetStrokes(ctx, "b1")
	assert.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte(`{"id":"s1"}`), []byte(`{"id":"s2"}`)}, strokes)
}

func TestGetStrokes_OldestFirst(t *testing.T) {
	boardCache, _ := setupCache(t)
	ctx := context.Background()

	// Insertion order is not replay order; the zset score is
	assert.NoError(t, boardCache.AddStroke(ctx, "b1", "new", 300, []byte(`new`)))
	assert.NoError(t, boardCache.AddStroke(ctx, "b1", "old", 100, []byte(`old`)))
	assert.NoError(t, boardCache.AddStroke(ctx, "b1", "mid", 200, []byte(`mid`)))

	strokes, err := boardCache.GetStrokes(ctx, "b1")
	assert.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte(`old`), []byte(`mid`), []byte(`new`)}, strokes)
}

func TestGetStrokes_EmptyBoard(t *testing.T) {
	boardCache, _ := setupCache(t)

	strokes, err := boardCache.GetStrokes(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Empty(t, strokes)
}

func TestAddStrokesBatch(t *testing.T) {
	boardCache, _ := setupCache(t)
	ctx := context.Background()

	items := []cache.StrokeCacheItem{
		{StrokeId: "s1", Score: 100, Data: []byte(`one`)},
		{StrokeId: "s2", Score: 200, Data: []byte(`two`)},
	}
	assert.NoError(t, boardCache.AddStrokesBatch(ctx, "b1", items))
	assert.NoError(t, boardCache.AddStrokesBatch(ctx, "b1", nil))

	strokes, err := boardCache.GetStrokes(ctx, "b1")
	assert.NoError(t, err)
	assert.Len(t, strokes, 2)
}

func TestBoardComplete_Flag(t *testing.T) {
	boardCache, _ := setupCache(t)
	ctx := context.Background()

	complete, err := boardCache.IsBoardComplete(ctx, "b1")
	assert.NoError(t, err)
	assert.False(t, complete)

	assert.NoError(t, boardCache.SetBoardComplete(ctx, "b1"))

	complete, err = boardCache.IsBoardComplete(ctx, "b1")
	assert.NoError(t, err)
	assert.True(t, complete)
}

func TestStrokeKeys_CarryTTL(t *testing.T) {
	boardCache, mr := setupCache(t)
	ctx := context.Background()

	assert.NoError(t, boardCache.AddStroke(ctx, "b1", "s1", 100, []byte(`data`)))
	assert.NoError(t, boardCache.SetBoardComplete(ctx, "b1"))

	for _, key := range []string{"board:{b1}", "board:{b1}:data", "board:{b1}:complete"} {
		assert.Greater(t, mr.TTL(key), time.Duration(0), "expected TTL on %s", key)
	}
}

func TestInvalidateBoards(t *testing.T) {
	boardCache, mr := setupCache(t)
	ctx := context.Background()

	assert.NoError(t, boardCache.AddStroke(ctx, "b1", "s1", 100, []byte(`data`)))
	assert.NoError(t, boardCache.SetBoardComplete(ctx, "b1"))
	assert.NoError(t, boardCache.AddStroke(ctx, "b2", "s2", 100, []byte(`data`)))

	assert.NoError(t, boardCache.InvalidateBoards(ctx, []string{"b1"}))

	assert.False(t, mr.Exists("board:{b1}"))
	assert.False(t, mr.Exists("board:{b1}:data"))
	assert.False(t, mr.Exists("board:{b1}:complete"))
	assert.True(t, mr.Exists("board:{b2}"))

	complete, err := boardCache.IsBoardComplete(ctx, "b1")
	assert.NoError(t, err)
	assert.False(t, complete)
}

func TestPublish_ReachesSubscriber(t *testing.T) {
	boardCache, _ := setupCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan []byte, 1)
	require.NoError(t, boardCache.Subscribe(ctx, "board:b1", func(message []byte) {
		received <- message
	}))

	assert.NoError(t, boardCache.Publish(ctx, "board:b1", []byte(`hello`)))

	select {
	case msg := <-received:
		assert.Equal(t, []byte(`hello`), msg)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for pubsub message")
	}
}
