package api

import (
	"context"
	"net/http"

	"github.com/Elko-Lemiso/collaborative-board/api/rest"
	"github.com/Elko-Lemiso/collaborative-board/api/ws"
	"github.com/Elko-Lemiso/collaborative-board/blob"
	"github.com/Elko-Lemiso/collaborative-board/cache"
	"github.com/Elko-Lemiso/collaborative-board/mq"
	"github.com/Elko-Lemiso/collaborative-board/service"
	"github.com/Elko-Lemiso/collaborative-board/store"
	"github.com/Elko-Lemiso/collaborative-board/worker"
)

type BoardAPI struct {
	restHandler *rest.Handler
	wsHandler   *ws.Handler
	shutdownCtx context.Context
}

func NewBoardAPI(
	boardStore store.BoardStore,
	purgeQueue mq.MessageQueue,
	boardCache cache.BoardCache,
	blobStore blob.BlobStore,
	jwtSecret []byte,
	shutdownCtx context.Context,
) *BoardAPI {
	wsHub := ws.NewHub(boardCache)
	go wsHub.Run()

	boardBatcher := worker.NewBoardBatcher(boardStore, 60000)
	go boardBatcher.Run(shutdownCtx)

	strokeBatcher := worker.NewStrokeBatcher(boardStore, 500, boardBatcher)
	go strokeBatcher.Run(shutdownCtx)

	purgeConsumer := worker.NewPurgeConsumer(purgeQueue, boardStore, boardCache)
	go purgeConsumer.Run(shutdownCtx)

	svc := service.NewService(
		boardStore,
		boardCache,
		purgeQueue,
		blobStore,
		strokeBatcher,
		boardBatcher,
		jwtSecret,
	)

	return &BoardAPI{
		restHandler: rest.NewHandler(svc),
		wsHandler:   ws.NewHandler(svc, wsHub),
		shutdownCtx: shutdownCtx,
	}
}

func (boardAPI *BoardAPI) RegisterRoutes(mux *http.ServeMux, requiredOrigin string) {
	// Health check endpoint (no auth required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /register", boardAPI.restHandler.HandleRegister)

	mux.HandleFunc("GET /boards", boardAPI.restHandler.HandleListBoards)
	mux.HandleFunc("POST /boards", boardAPI.restHandler.HandleCreateBoard)
	mux.HandleFunc("GET /boards/{boardId}", boardAPI.restHandler.HandleGetBoard)
	mux.HandleFunc("GET /boards/{boardId}/strokes", boardAPI.restHandler.HandleListStrokes)
	mux.HandleFunc("GET /boards/{boardId}/stickers", boardAPI.restHandler.HandleListStickers)
	mux.HandleFunc("POST /boards/{boardId}/stickers", boardAPI.restHandler.HandleCreateSticker)
	mux.HandleFunc("PUT /boards/{boardId}/stickers/{stickerId}", boardAPI.restHandler.HandleUpdateSticker)
	mux.HandleFunc("DELETE /boards/{boardId}/stickers/{stickerId}", boardAPI.restHandler.HandleDeleteSticker)
	mux.HandleFunc("POST /boards/{boardId}/stickers/upload", boardAPI.restHandler.HandleUpload)

	wsUpgrader := boardAPI.wsHandler.NewWsUpgrader(requiredOrigin)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		boardAPI.wsHandler.ServeWS(wsUpgrader, w, r, boardAPI.shutdownCtx)
	})
}
