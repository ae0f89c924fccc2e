package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Elko-Lemiso/collaborative-board/api"
	"github.com/Elko-Lemiso/collaborative-board/blob"
	blobLocal "github.com/Elko-Lemiso/collaborative-board/blob/local"
	blobS3 "github.com/Elko-Lemiso/collaborative-board/blob/s3"
	"github.com/Elko-Lemiso/collaborative-board/cache/redis"
	"github.com/Elko-Lemiso/collaborative-board/mq/sqsmq"
	"github.com/Elko-Lemiso/collaborative-board/store/dynamo"
)

const (
	DynamoDBTable      = "CollaborativeBoard"
	SQSPurgeBoardQueue = "PurgeBoardQueue"
)

func main() {
	ctx := context.Background()
	devMode := os.Getenv("DEV_MODE") == "true"

	boardStore, err := dynamo.NewDynamoBoardStore(ctx, devMode, os.Getenv("DYNAMODB_ENDPOINT"), DynamoDBTable)
	if err != nil {
		log.Fatalf("Failed to create dynamodb store: %v", err)
	}

	purgeQueue, err := sqsmq.NewSQSMessageQueue(ctx, devMode, os.Getenv("SQS_ENDPOINT"), SQSPurgeBoardQueue)
	if err != nil {
		log.Fatalf("Failed to create SQS MQ: %v", err)
	}

	boardCache, err := redis.NewRedisBoardCache(ctx, devMode, os.Getenv("REDIS_ENDPOINT"))
	if err != nil {
		log.Fatalf("Failed to create redis cache: %v", err)
	}

	var blobStore blob.BlobStore
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		blobStore, err = blobS3.NewS3BlobStore(ctx, devMode, os.Getenv("S3_ENDPOINT"), bucket, os.Getenv("AWS_REGION"))
		if err != nil {
			log.Fatalf("Failed to create S3 blob store: %v", err)
		}
	} else {
		uploadDir := os.Getenv("UPLOAD_DIR")
		if uploadDir == "" {
			uploadDir = "uploads"
		}
		blobStore, err = blobLocal.NewLocalBlobStore(uploadDir, os.Getenv("UPLOAD_BASE_URL"))
		if err != nil {
			log.Fatalf("Failed to create local blob store: %v", err)
		}
	}

	jwtSecret, err := base64.StdEncoding.DecodeString(os.Getenv("JWT_SECRET"))
	if err != nil {
		log.Fatalf("Failed to decode base64 jwtSecret: %v", err)
	}

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	boardAPI := api.NewBoardAPI(boardStore, purgeQueue, boardCache, blobStore, jwtSecret, shutdownCtx)

	mux := http.NewServeMux()
	boardAPI.RegisterRoutes(mux, os.Getenv("ALLOWED_ORIGIN"))

	hostPort := "8080"
	if p := os.Getenv("HOST_PORT"); p != "" {
		hostPort = p
	}
	log.Printf("Starting server on host port: %s\n", hostPort)
	log.Fatal(http.ListenAndServe(":"+hostPort, mux))
}
