package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	cachemocks "github.com/Elko-Lemiso/collaborative-board/cache/mocks"
	"github.com/Elko-Lemiso/collaborative-board/mq"
	mqmocks "github.com/Elko-Lemiso/collaborative-board/mq/mocks"
	storemocks "github.com/Elko-Lemiso/collaborative-board/store/mocks"
)

func TestPurgeConsumer_PurgesAndDeletesMessage(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	mockCache := new(cachemocks.MockCache)
	mockMQ := new(mqmocks.MockMQ)

	msg := &mq.Message{Id: "receipt-1", Body: `{"boardId":"` + testBoardId + `"}`}

	// First receive returns the job, later receives block until shutdown
	mockMQ.On("Receive", mock.Anything, int32(300)).Return(msg, nil).Once()
	mockMQ.On("Receive", mock.Anything, int32(300)).Return(nil, context.Canceled)

	mockStore.On("PurgeBoard", mock.Anything, testBoardId).Return(nil)
	mockCache.On("InvalidateBoards", mock.Anything, []string{testBoardId}).Return(nil)

	deleted := make(chan *mq.Message, 1)
	mockMQ.On("Delete", mock.Anything, msg).
		Run(func(args mock.Arguments) {
			deleted <- args.Get(1).(*mq.Message)
		}).
		Return(nil)

	consumer := NewPurgeConsumer(mockMQ, mockStore, mockCache)

	done := make(chan struct{})
	go func() {
		consumer.Run(context.Background())
		close(done)
	}()

	select {
	case got := <-deleted:
		assert.Equal(t, "receipt-1", got.Id)
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for message delete")
	}

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "consumer did not exit on cancelled receive")
	}

	mockStore.AssertCalled(t, "PurgeBoard", mock.Anything, testBoardId)
	mockCache.AssertCalled(t, "InvalidateBoards", mock.Anything, []string{testBoardId})
}

func TestPurgeConsumer_PurgeFailureKeepsMessage(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	mockCache := new(cachemocks.MockCache)
	mockMQ := new(mqmocks.MockMQ)

	msg := &mq.Message{Id: "receipt-1", Body: `{"boardId":"` + testBoardId + `"}`}
	mockMQ.On("Receive", mock.Anything, int32(300)).Return(msg, nil).Once()
	mockMQ.On("Receive", mock.Anything, int32(300)).Return(nil, context.Canceled)

	purged := make(chan struct{}, 1)
	mockStore.On("PurgeBoard", mock.Anything, testBoardId).
		Run(func(args mock.Arguments) {
			purged <- struct{}{}
		}).
		Return(assert.AnError)

	consumer := NewPurgeConsumer(mockMQ, mockStore, mockCache)

	done := make(chan struct{})
	go func() {
		consumer.Run(context.Background())
		close(done)
	}()

	select {
	case <-purged:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for purge attempt")
	}

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "consumer did not exit")
	}

	// Message stays on the queue so the job retries after visibility timeout
	mockMQ.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	mockCache.AssertNotCalled(t, "InvalidateBoards", mock.Anything, mock.Anything)
}

func TestPurgeConsumer_SkipsMalformedMessages(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	mockCache := new(cachemocks.MockCache)
	mockMQ := new(mqmocks.MockMQ)

	mockMQ.On("Receive", mock.Anything, int32(300)).Return(&mq.Message{Id: "r1", Body: `not json`}, nil).Once()
	mockMQ.On("Receive", mock.Anything, int32(300)).Return(&mq.Message{Id: "r2", Body: `{"boardId":""}`}, nil).Once()
	mockMQ.On("Receive", mock.Anything, int32(300)).Return(nil, context.Canceled)

	consumer := NewPurgeConsumer(mockMQ, mockStore, mockCache)

	done := make(chan struct{})
	go func() {
		consumer.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "consumer did not exit")
	}

	mockStore.AssertNotCalled(t, "PurgeBoard", mock.Anything, mock.Anything)
}

func TestPurgeConsumer_EmptyReceiveContinues(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	mockCache := new(cachemocks.MockCache)
	mockMQ := new(mqmocks.MockMQ)

	// Long poll came back empty, then a real job arrives
	msg := &mq.Message{Id: "receipt-1", Body: `{"boardId":"` + testBoardId + `"}`}
	mockMQ.On("Receive", mock.Anything, int32(300)).Return(nil, nil).Once()
	mockMQ.On("Receive", mock.Anything, int32(300)).Return(msg, nil).Once()
	mockMQ.On("Receive", mock.Anything, int32(300)).Return(nil, context.Canceled)

	mockStore.On("PurgeBoard", mock.Anything, testBoardId).Return(nil)
	mockCache.On("InvalidateBoards", mock.Anything, []string{testBoardId}).Return(nil)
	mockMQ.On("Delete", mock.Anything, msg).Return(nil)

	consumer := NewPurgeConsumer(mockMQ, mockStore, mockCache)

	done := make(chan struct{})
	go func() {
		consumer.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "consumer did not exit")
	}

	mockStore.AssertCalled(t, "PurgeBoard", mock.Anything, testBoardId)
}
