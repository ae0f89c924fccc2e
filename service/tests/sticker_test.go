package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Elko-Lemiso/collaborative-board/models"
	"github.com/Elko-Lemiso/collaborative-board/protocol"
	"github.com/Elko-Lemiso/collaborative-board/store"
)

func TestAddSticker_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("CreateSticker", ctx, mock.MatchedBy(func(s models.Sticker) bool {
		return s.BoardId == testBoardId && s.ImageUrl == "https://cdn.example/cat.png"
	})).Return(models.Sticker{Id: "s1", BoardId: testBoardId, ImageUrl: "https://cdn.example/cat.png", X: 5100, Y: 5100, Width: 100, Height: 100}, nil)

	publishDone := wrapMockWithSignal(mockCache.On("Publish", mock.Anything, "board:"+testBoardId, mock.Anything).Return(nil))

	created, err := svc.AddSticker(ctx, "conn1", protocol.AddSticker{
		BoardId: testBoardId,
		Sticker: models.Sticker{ImageUrl: "https://cdn.example/cat.png", X: 5100, Y: 5100},
	})

	assert.NoError(t, err)
	assert.Equal(t, "s1", created.Id)

	select {
	case <-publishDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for Publish")
	}
}

func TestAddSticker_DefaultsApplied(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	var stored models.Sticker
	mockStore.On("CreateSticker", ctx, mock.Anything).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(models.Sticker)
		}).
		Return(models.Sticker{Id: "s1"}, nil)
	mockCache.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.AddSticker(ctx, "", protocol.AddSticker{
		BoardId: testBoardId,
		Sticker: models.Sticker{ImageUrl: "https://cdn.example/cat.png", X: 5000, Y: 5000},
	})

	assert.NoError(t, err)
	assert.Equal(t, float64(100), stored.Width)
	assert.Equal(t, float64(100), stored.Height)
	assert.Equal(t, float64(0), stored.Rotation)
	assert.NotEmpty(t, stored.Id)
	assert.Greater(t, stored.Created, int64(0))
}

func TestAddSticker_StoreFails_StillBroadcasts(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("CreateSticker", ctx, mock.Anything).Return(models.Sticker{}, errors.New("dynamo unavailable"))
	publishDone := wrapMockWithSignal(mockCache.On("Publish", mock.Anything, "board:"+testBoardId, mock.Anything).Return(nil))

	created, err := svc.AddSticker(ctx, "conn1", protocol.AddSticker{
		BoardId: testBoardId,
		Sticker: models.Sticker{ImageUrl: "https://cdn.example/cat.png", X: 5000, Y: 5000},
	})

	// Live responsiveness wins over persistence
	assert.NoError(t, err)
	assert.NotEmpty(t, created.Id)

	select {
	case <-publishDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for Publish")
	}
}

func TestAddSticker_MissingImageUrl(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)

	_, err := svc.AddSticker(context.Background(), "conn1", protocol.AddSticker{
		BoardId: testBoardId,
		Sticker: models.Sticker{X: 5000, Y: 5000},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "image url")

	mockStore.AssertNotCalled(t, "CreateSticker", mock.Anything, mock.Anything)
}

func TestUpdateSticker_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	x, y := 5120.0, 5090.0
	patch := models.StickerPatch{X: &x, Y: &y}

	mockStore.On("UpdateSticker", ctx, testBoardId, "s1", patch).
		Return(models.Sticker{Id: "s1", BoardId: testBoardId, X: 5120, Y: 5090, Width: 100, Height: 100}, nil)

	published := make(chan []byte, 1)
	mockCache.On("Publish", mock.Anything, "board:"+testBoardId, mock.Anything).
		Run(func(args mock.Arguments) {
			published <- args.Get(2).([]byte)
		}).Return(nil)

	updated, err := svc.UpdateSticker(ctx, "conn1", protocol.UpdateSticker{
		BoardId:   testBoardId,
		StickerId: "s1",
		Patch:     patch,
	})

	assert.NoError(t, err)
	assert.Equal(t, float64(5120), updated.X)
	assert.Equal(t, float64(5090), updated.Y)

	select {
	case raw := <-published:
		var broadcast protocol.Broadcast
		assert.NoError(t, json.Unmarshal(raw, &broadcast))
		assert.Equal(t, protocol.EventUpdateSticker, broadcast.Event.Type)
		assert.Equal(t, "conn1", broadcast.Origin)
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for Publish")
	}
}

func TestUpdateSticker_NotFound_StillBroadcasts(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	x := 5120.0
	patch := models.StickerPatch{X: &x}

	mockStore.On("UpdateSticker", ctx, testBoardId, "gone", patch).
		Return(models.Sticker{}, store.ErrItemNotFound)
	publishDone := wrapMockWithSignal(mockCache.On("Publish", mock.Anything, "board:"+testBoardId, mock.Anything).Return(nil))

	_, err := svc.UpdateSticker(ctx, "conn1", protocol.UpdateSticker{
		BoardId:   testBoardId,
		StickerId: "gone",
		Patch:     patch,
	})

	assert.ErrorIs(t, err, store.ErrItemNotFound)

	// The broadcast still goes out; receivers drop patches for stickers
	// they no longer hold
	select {
	case <-publishDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for Publish")
	}
}

func TestUpdateSticker_InvalidPatch(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)

	bad := -10.0
	_, err := svc.UpdateSticker(context.Background(), "conn1", protocol.UpdateSticker{
		BoardId:   testBoardId,
		StickerId: "s1",
		Patch:     models.StickerPatch{Width: &bad},
	})

	assert.Error(t, err)
	mockStore.AssertNotCalled(t, "UpdateSticker", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteSticker_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _, boardBatcher := setupService(t)
	ctx := context.Background()

	mockStore.On("DeleteSticker", ctx, testBoardId, "s1").Return(nil)
	publishDone := wrapMockWithSignal(mockCache.On("Publish", mock.Anything, "board:"+testBoardId, mock.Anything).Return(nil))

	err := svc.DeleteSticker(ctx, "conn1", protocol.DeleteSticker{
		BoardId:   testBoardId,
		StickerId: "s1",
	})
	assert.NoError(t, err)

	select {
	case <-publishDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for Publish")
	}

	// Counter bump queued for the batcher
	select {
	case update := <-boardBatcher.UpdateCh:
		assert.Equal(t, testBoardId, update.BoardId)
		assert.Equal(t, -1, update.StickerDelta)
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for board batcher update")
	}
}

func TestDeleteSticker_NotFound_StillBroadcasts(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("DeleteSticker", ctx, testBoardId, "gone").Return(store.ErrItemNotFound)
	publishDone := wrapMockWithSignal(mockCache.On("Publish", mock.Anything, "board:"+testBoardId, mock.Anything).Return(nil))

	err := svc.DeleteSticker(ctx, "conn1", protocol.DeleteSticker{
		BoardId:   testBoardId,
		StickerId: "gone",
	})

	assert.ErrorIs(t, err, store.ErrItemNotFound)

	select {
	case <-publishDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for Publish")
	}
}
