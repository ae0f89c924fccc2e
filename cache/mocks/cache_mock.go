package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Elko-Lemiso/collaborative-board/cache"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Publish(ctx context.Context, channel string, message []byte) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

func (m *MockCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}

func (m *MockCache) AddStroke(ctx context.Context, boardId string, strokeId string, score int64, strokeData []byte) error {
	args := m.Called(ctx, boardId, strokeId, score, strokeData)
	return args.Error(0)
}

func (m *MockCache) AddStrokesBatch(ctx context.Context, boardId string, strokes []cache.StrokeCacheItem) error {
	args := m.Called(ctx, boardId, strokes)
	return args.Error(0)
}

func (m *MockCache) GetStrokes(ctx context.Context, boardId string) ([][]byte, error) {
	args := m.Called(ctx, boardId)
	return args.Get(0).([][]byte), args.Error(1)
}

func (m *MockCache) SetBoardComplete(ctx context.Context, boardId string) error {
	args := m.Called(ctx, boardId)
	return args.Error(0)
}

func (m *MockCache) IsBoardComplete(ctx context.Context, boardId string) (bool, error) {
	args := m.Called(ctx, boardId)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) InvalidateBoards(ctx context.Context, boardIds []string) error {
	args := m.Called(ctx, boardIds)
	return args.Error(0)
}
