package service

import (
	"github.com/Elko-Lemiso/collaborative-board/blob"
	"github.com/Elko-Lemiso/collaborative-board/cache"
	"github.com/Elko-Lemiso/collaborative-board/mq"
	"github.com/Elko-Lemiso/collaborative-board/store"
	"github.com/Elko-Lemiso/collaborative-board/worker"
)

type Service struct {
	Store         store.BoardStore
	Cache         cache.BoardCache
	MQ            mq.MessageQueue
	Blob          blob.BlobStore
	StrokeBatcher *worker.StrokeBatcher
	BoardBatcher  *worker.BoardBatcher
	JWTSecret     []byte
}

func NewService(
	store store.BoardStore,
	cache cache.BoardCache,
	mq mq.MessageQueue,
	blob blob.BlobStore,
	strokeBatcher *worker.StrokeBatcher,
	boardBatcher *worker.BoardBatcher,
	jwtSecret []byte,
) *Service {
	return &Service{
		Store:         store,
		Cache:         cache,
		MQ:            mq,
		Blob:          blob,
		StrokeBatcher: strokeBatcher,
		BoardBatcher:  boardBatcher,
		JWTSecret:     jwtSecret,
	}
}
