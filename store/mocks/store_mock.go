package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Elko-Lemiso/collaborative-board/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateBoard(ctx context.Context, name string) (models.Board, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(models.Board), args.Error(1)
}

func (m *MockStore) GetBoard(ctx context.Context, boardId string) (models.Board, error) {
	args := m.Called(ctx, boardId)
	return args.Get(0).(models.Board), args.Error(1)
}

func (m *MockStore) ListBoards(ctx context.Context) ([]models.Board, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Board), args.Error(1)
}

func (m *MockStore) BumpBoard(ctx context.Context, boardId string, strokeDelta int, stickerDelta int, updated int64) error {
	args := m.Called(ctx, boardId, strokeDelta, stickerDelta, updated)
	return args.Error(0)
}

func (m *MockStore) WriteStrokeBatch(ctx context.Context, strokes []models.Stroke) ([]models.Stroke, error) {
	args := m.Called(ctx, strokes)
	return args.Get(0).([]models.Stroke), args.Error(1)
}

func (m *MockStore) ListStrokes(ctx context.Context, boardId string) ([]models.Stroke, error) {
	args := m.Called(ctx, boardId)
	return args.Get(0).([]models.Stroke), args.Error(1)
}

func (m *MockStore) CreateSticker(ctx context.Context, sticker models.Sticker) (models.Sticker, error) {
	args := m.Called(ctx, sticker)
	return args.Get(0).(models.Sticker), args.Error(1)
}

func (m *MockStore) UpdateSticker(ctx context.Context, boardId string, stickerId string, patch models.StickerPatch) (models.Sticker, error) {
	args := m.Called(ctx, boardId, stickerId, patch)
	return args.Get(0).(models.Sticker), args.Error(1)
}

func (m *MockStore) DeleteSticker(ctx context.Context, boardId string, stickerId string) error {
	args := m.Called(ctx, boardId, stickerId)
	return args.Error(0)
}

func (m *MockStore) ListStickers(ctx context.Context, boardId string) ([]models.Sticker, error) {
	args := m.Called(ctx, boardId)
	return args.Get(0).([]models.Sticker), args.Error(1)
}

func (m *MockStore) PurgeBoard(ctx context.Context, boardId string) error {
	args := m.Called(ctx, boardId)
	return args.Error(0)
}
