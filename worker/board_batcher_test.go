package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Elko-Lemiso/collaborative-board/store/mocks"
)

type bumpCall struct {
	boardId      string
	strokeDelta  int
	stickerDelta int
	updated      int64
}

func runBoardBatcher(t *testing.T, tickerMilliseconds int) (*BoardBatcher, *mocks.MockStore, chan bumpCall, context.CancelFunc) {
	mockStore := new(mocks.MockStore)
	batcher := NewBoardBatcher(mockStore, tickerMilliseconds)

	bumps := make(chan bumpCall, 16)
	mockStore.On("BumpBoard", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			bumps <- bumpCall{
				boardId:      args.Get(1).(string),
				strokeDelta:  args.Get(2).(int),
				stickerDelta: args.Get(3).(int),
				updated:      args.Get(4).(int64),
			}
		}).
		Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	go batcher.Run(ctx)
	return batcher, mockStore, bumps, cancel
}

func TestBoardBatcher_CoalescesPerBoard(t *testing.T) {
	batcher, _, bumps, cancel := runBoardBatcher(t, 50)
	defer cancel()

	// Three strokes and one sticker on the same board collapse into one write
	batcher.UpdateCh <- BoardUpdate{BoardId: testBoardId, StrokeDelta: 1, Updated: 1000}
	batcher.UpdateCh <- BoardUpdate{BoardId: testBoardId, StrokeDelta: 1, Updated: 1002}
	batcher.UpdateCh <- BoardUpdate{BoardId: testBoardId, StrokeDelta: 1, Updated: 1001}
	batcher.UpdateCh <- BoardUpdate{BoardId: testBoardId, StickerDelta: 1, Updated: 999}

	select {
	case bump := <-bumps:
		assert.Equal(t, testBoardId, bump.boardId)
		assert.Equal(t, 3, bump.strokeDelta)
		assert.Equal(t, 1, bump.stickerDelta)
		// Latest timestamp wins, not the last received
		assert.Equal(t, int64(1002), bump.updated)
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for bump")
	}

	select {
	case extra := <-bumps:
		assert.Fail(t, "expected a single coalesced bump", "%+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBoardBatcher_SeparateBoardsSeparateBumps(t *testing.T) {
	batcher, _, bumps, cancel := runBoardBatcher(t, 20)
	defer cancel()

	otherBoardId := "aaaaaaaa-0000-0000-0000-000000000000"
	batcher.UpdateCh <- BoardUpdate{BoardId: testBoardId, StrokeDelta: 1, Updated: 100}
	batcher.UpdateCh <- BoardUpdate{BoardId: otherBoardId, StickerDelta: -1, Updated: 200}

	seen := make(map[string]bumpCall)
	for len(seen) < 2 {
		select {
		case bump := <-bumps:
			seen[bump.boardId] = bump
		case <-time.After(1 * time.Second):
			assert.Fail(t, "timed out waiting for bumps")
			return
		}
	}

	assert.Equal(t, 1, seen[testBoardId].strokeDelta)
	assert.Equal(t, -1, seen[otherBoardId].stickerDelta)
	assert.Equal(t, int64(200), seen[otherBoardId].updated)
}

func TestBoardBatcher_TimestampOnlyUpdateStillFlushes(t *testing.T) {
	batcher, _, bumps, cancel := runBoardBatcher(t, 20)
	defer cancel()

	// A sticker move bumps updatedAt without changing any counter
	batcher.UpdateCh <- BoardUpdate{BoardId: testBoardId, Updated: 5000}

	select {
	case bump := <-bumps:
		assert.Equal(t, 0, bump.strokeDelta)
		assert.Equal(t, 0, bump.stickerDelta)
		assert.Equal(t, int64(5000), bump.updated)
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for timestamp bump")
	}
}

func TestBoardBatcher_DropsEmptyBoardId(t *testing.T) {
	batcher, mockStore, _, cancel := runBoardBatcher(t, 20)
	defer cancel()

	batcher.UpdateCh <- BoardUpdate{BoardId: "", StrokeDelta: 5, Updated: 100}
	time.Sleep(100 * time.Millisecond)

	mockStore.AssertNotCalled(t, "BumpBoard", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
