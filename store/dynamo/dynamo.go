package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gofrs/uuid/v5"

	"github.com/Elko-Lemiso/collaborative-board/models"
)

type DynamoBoardStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoBoardStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoBoardStore, error) {
	client, err := newDynamoDBClient(context.Background(), devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	tables, err := getTables(client, ctx)
	if err != nil {
		return nil, err
	}

	foundTable := false
	for _, table := range tables {
		if table == tableName {
			foundTable = true
			break
		}
	}
	if !foundTable {
		return nil, fmt.Errorf("given table name '%s' not found in dynamodb", tableName)
	}

	return &DynamoBoardStore{client: client, tableName: tableName}, nil
}

func (dynamoStore *DynamoBoardStore) CreateBoard(ctx context.Context, name string) (models.Board, error) {
	boardId, err := uuid.NewV4()
	if err != nil {
		return models.Board{}, err
	}

	now := time.Now().UnixMilli()
	board := models.Board{
		Id:      boardId.String(),
		Name:    name,
		Created: now,
		Updated: now,
	}

	if err := putItem(dynamoStore, ctx, boardToDynamo(board)); err != nil {
		return models.Board{}, err
	}

	return board, nil
}

func (dynamoStore *DynamoBoardStore) GetBoard(ctx context.Context, boardId string) (models.Board, error) {
	db, err := getItem[dynamoBoard](dynamoStore, ctx, boardPKPrefix+boardId, metaSK, false)
	if err != nil {
		return models.Board{}, err
	}
	return boardFromDynamo(db), nil
}

// ListBoards returns all boards, most recently updated first.
func (dynamoStore *DynamoBoardStore) ListBoards(ctx context.Context) ([]models.Board, error) {
	items, err := queryAllByGSI[dynamoBoard](dynamoStore, ctx, boardsIndexName, "EntityType", boardEntityType, false)
	if err != nil {
		return nil, err
	}

	boards := make([]models.Board, 0, len(items))
	for _, item := range items {
		boards = append(boards, boardFromDynamo(item))
	}
	return boards, nil
}

func (dynamoStore *DynamoBoardStore) BumpBoard(ctx context.Context, boardId string, strokeDelta int, stickerDelta int, updated int64) error {
	return bumpBoardCounters(dynamoStore, ctx, boardId, strokeDelta, stickerDelta, updated)
}

// WriteStrokeBatch appends strokes in chunks of 25 (the BatchWriteItem
// ceiling). Strokes are append-only: there is no update or delete path
// outside PurgeBoard. Returns the strokes DynamoDB did not process.
func (dynamoStore *DynamoBoardStore) WriteStrokeBatch(ctx context.Context, strokes []models.Stroke) ([]models.Stroke, error) {
	if len(strokes) == 0 {
		return nil, nil
	}

	var unprocessed []models.Stroke

	for i := 0; i < len(strokes); i += 25 {
		end := i + 25
		if end > len(strokes) {
			end = len(strokes)
		}

		requests := make([]types.WriteRequest, 0, end-i)
		for _, s := range strokes[i:end] {
			avMap, err := attributevalue.MarshalMap(strokeToDynamo(s))
			if err != nil {
				unprocessed = append(unprocessed, s)
				continue
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: avMap},
			})
		}

		failed, err := writeBatchRequests[dynamoStroke](dynamoStore, ctx, requests)
		for _, f := range failed {
			s := strokeFromDynamo(f)
			if s.Id == "" {
				s.Id = strokeIdFromSK(f.SK)
			}
			unprocessed = append(unprocessed, s)
		}
		if err != nil {
			return unprocessed, err
		}
	}

	return unprocessed, nil
}

// ListStrokes returns the full stroke history for a board ascending by
// creation time. Stroke SKs embed UUIDv7 ids, so SK order is creation order.
func (dynamoStore *DynamoBoardStore) ListStrokes(ctx context.Context, boardId string) ([]models.Stroke, error) {
	items, err := queryByPKPrefix[dynamoStroke](dynamoStore, ctx, boardPKPrefix+boardId, strokeSKPrefix, true)
	if err != nil {
		return nil, err
	}

	strokes := make([]models.Stroke, 0, len(items))
	for _, item := range items {
		strokes = append(strokes, strokeFromDynamo(item))
	}
	return strokes, nil
}

// CreateSticker writes the sticker row. The write is an unconditional put:
// a replayed or duplicated create simply overwrites, consistent with
// last-writer-wins everywhere else.
func (dynamoStore *DynamoBoardStore) CreateSticker(ctx context.Context, sticker models.Sticker) (models.Sticker, error) {
	now := time.Now().UnixMilli()
	if sticker.Created == 0 {
		sticker.Created = now
	}
	sticker.Updated = now

	if err := putItem(dynamoStore, ctx, stickerToDynamo(sticker)); err != nil {
		return models.Sticker{}, err
	}
	return sticker, nil
}

// UpdateSticker overwrites the fields the patch sets. No optimistic
// concurrency token is checked; whichever update lands last wins.
func (dynamoStore *DynamoBoardStore) UpdateSticker(ctx context.Context, boardId string, stickerId string, patch models.StickerPatch) (models.Sticker, error) {
	item := models.Sticker{Id: stickerId, BoardId: boardId}
	patch.Apply(&item)
	item.Updated = time.Now().UnixMilli()

	updated, err := updateItem(dynamoStore, ctx, stickerToDynamo(item), stickerPatchFields(patch))
	if err != nil {
		return models.Sticker{}, err
	}
	return stickerFromDynamo(updated), nil
}

func (dynamoStore *DynamoBoardStore) DeleteSticker(ctx context.Context, boardId string, stickerId string) error {
	return deleteItem(dynamoStore, ctx, boardPKPrefix+boardId, stickerSKPrefix+stickerId)
}

// ListStickers returns a board's stickers ascending by creation time.
// Sticker SKs are client-generated ids with no time ordering, so the sort
// happens here.
func (dynamoStore *DynamoBoardStore) ListStickers(ctx context.Context, boardId string) ([]models.Sticker, error) {
	items, err := queryByPKPrefix[dynamoSticker](dynamoStore, ctx, boardPKPrefix+boardId, stickerSKPrefix, true)
	if err != nil {
		return nil, err
	}

	stickers := make([]models.Sticker, 0, len(items))
	for _, item := range items {
		stickers = append(stickers, stickerFromDynamo(item))
	}
	sort.SliceStable(stickers, func(i, j int) bool {
		return stickers[i].Created < stickers[j].Created
	})
	return stickers, nil
}

// PurgeBoard removes every row in the board partition: meta, strokes and
// stickers. Deletion is throttled since stroke history can be large.
func (dynamoStore *DynamoBoardStore) PurgeBoard(ctx context.Context, boardId string) error {
	return batchDeletePKThrottled(dynamoStore, ctx, boardPKPrefix+boardId, 100*time.Millisecond)
}
