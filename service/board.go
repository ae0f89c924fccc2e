package service

import (
	"context"
	"encoding/json"

	"github.com/Elko-Lemiso/collaborative-board/cache"
	"github.com/Elko-Lemiso/collaborative-board/models"
)

func (s *Service) CreateBoard(ctx context.Context, name string) (models.Board, error) {
	if err := ValidateBoardName(name); err != nil {
		return models.Board{}, err
	}
	return s.Store.CreateBoard(ctx, name)
}

func (s *Service) GetBoard(ctx context.Context, boardId string) (models.Board, error) {
	if err := ValidateBoardId(boardId); err != nil {
		return models.Board{}, err
	}
	return s.Store.GetBoard(ctx, boardId)
}

func (s *Service) ListBoards(ctx context.Context) ([]models.Board, error) {
	return s.Store.ListBoards(ctx)
}

// LoadStrokes serves the replay history a client needs when it joins a
// board. Redis holds the hot copy; on a cold or partial cache we fall back
// to DynamoDB, merge with whatever Redis had (recent strokes may only exist
// there), and warm the cache for the next joiner.
func (s *Service) LoadStrokes(ctx context.Context, boardId string) ([]models.Stroke, error) {
	if err := ValidateBoardId(boardId); err != nil {
		return nil, err
	}

	redisStrokesRaw, err := s.Cache.GetStrokes(ctx, boardId)
	redisStrokes := []models.Stroke{}
	if err == nil {
		for _, b := range redisStrokesRaw {
			var stroke models.Stroke
			if err := json.Unmarshal(b, &stroke); err == nil {
				redisStrokes = append(redisStrokes, stroke)
			}
		}
	}

	isComplete, _ := s.Cache.IsBoardComplete(ctx, boardId)
	if isComplete && err == nil {
		return redisStrokes, nil
	}

	// Fallback to DynamoDB + merge with Redis
	dbStrokes, err := s.Store.ListStrokes(ctx, boardId)
	if err != nil {
		return nil, err
	}

	finalStrokes := mergeStrokes(dbStrokes, redisStrokes)

	batchItems := make([]cache.StrokeCacheItem, 0, len(dbStrokes))
	for _, stroke := range dbStrokes {
		sBytes, _ := json.Marshal(stroke)
		batchItems = append(batchItems, cache.StrokeCacheItem{
			StrokeId: stroke.Id,
			Score:    stroke.Created,
			Data:     sBytes,
		})
	}

	if len(batchItems) > 0 {
		s.Cache.AddStrokesBatch(ctx, boardId, batchItems)
	}
	s.Cache.SetBoardComplete(ctx, boardId)

	return finalStrokes, nil
}

// Both inputs are sorted by stroke id; UUIDv7 ids sort lexicographically in
// creation order, so a single pass merges and dedups.
func mergeStrokes(dbStrokes []models.Stroke, redisStrokes []models.Stroke) []models.Stroke {
	finalStrokes := make([]models.Stroke, 0, len(dbStrokes)+len(redisStrokes))
	i, j := 0, 0
	for i < len(dbStrokes) && j < len(redisStrokes) {
		dbId := dbStrokes[i].Id
		redisId := redisStrokes[j].Id

		if dbId == redisId {
			finalStrokes = append(finalStrokes, redisStrokes[j])
			i++
			j++
		} else if dbId < redisId {
			finalStrokes = append(finalStrokes, dbStrokes[i])
			i++
		} else {
			finalStrokes = append(finalStrokes, redisStrokes[j])
			j++
		}
	}
	if i < len(dbStrokes) {
		finalStrokes = append(finalStrokes, dbStrokes[i:]...)
	}
	if j < len(redisStrokes) {
		finalStrokes = append(finalStrokes, redisStrokes[j:]...)
	}
	return finalStrokes
}

func (s *Service) LoadStickers(ctx context.Context, boardId string) ([]models.Sticker, error) {
	if err := ValidateBoardId(boardId); err != nil {
		return nil, err
	}
	return s.Store.ListStickers(ctx, boardId)
}
