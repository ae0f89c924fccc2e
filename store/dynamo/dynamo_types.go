package dynamo

import (
	"strings"

	"github.com/Elko-Lemiso/collaborative-board/models"
)

// Single-table layout. Everything belonging to a board shares the board
// partition so history reads and purges are one-partition queries:
//
//	BOARD#<id> / META            board row (GSI EntityType+Updated for listing)
//	BOARD#<id> / STROKE#<uuidv7> immutable stroke, SK order == creation order
//	BOARD#<id> / STICKER#<id>    mutable sticker row
const (
	boardPKPrefix   = "BOARD#"
	metaSK          = "META"
	strokeSKPrefix  = "STROKE#"
	stickerSKPrefix = "STICKER#"

	boardEntityType = "BOARD"
	boardsIndexName = "BoardsIndex"
)

type dynamoBoard struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	Id           string `dynamodbav:"Id"`
	Name         string `dynamodbav:"Name"`
	Created      int64  `dynamodbav:"Created"`
	Updated      int64  `dynamodbav:"Updated"`
	StrokeCount  int    `dynamodbav:"StrokeCount"`
	StickerCount int    `dynamodbav:"StickerCount"`
	EntityType   string `dynamodbav:"EntityType"`
}

func boardToDynamo(b models.Board) dynamoBoard {
	return dynamoBoard{
		PK:           boardPKPrefix + b.Id,
		SK:           metaSK,
		Id:           b.Id,
		Name:         b.Name,
		Created:      b.Created,
		Updated:      b.Updated,
		StrokeCount:  b.StrokeCount,
		StickerCount: b.StickerCount,
		EntityType:   boardEntityType,
	}
}

func boardFromDynamo(db dynamoBoard) models.Board {
	return models.Board{
		Id:           db.Id,
		Name:         db.Name,
		Created:      db.Created,
		Updated:      db.Updated,
		StrokeCount:  db.StrokeCount,
		StickerCount: db.StickerCount,
	}
}

type dynamoStroke struct {
	PK      string  `dynamodbav:"PK"`
	SK      string  `dynamodbav:"SK"`
	Id      string  `dynamodbav:"Id"`
	BoardId string  `dynamodbav:"BoardId"`
	FromX   float64 `dynamodbav:"FromX"`
	FromY   float64 `dynamodbav:"FromY"`
	ToX     float64 `dynamodbav:"ToX"`
	ToY     float64 `dynamodbav:"ToY"`
	Color   string  `dynamodbav:"Color"`
	Width   float64 `dynamodbav:"Width"`
	Created int64   `dynamodbav:"Created"`
}

func strokeToDynamo(s models.Stroke) dynamoStroke {
	return dynamoStroke{
		PK:      boardPKPrefix + s.BoardId,
		SK:      strokeSKPrefix + s.Id,
		Id:      s.Id,
		BoardId: s.BoardId,
		FromX:   s.FromX,
		FromY:   s.FromY,
		ToX:     s.ToX,
		ToY:     s.ToY,
		Color:   s.Color,
		Width:   s.Width,
		Created: s.Created,
	}
}

func strokeFromDynamo(ds dynamoStroke) models.Stroke {
	return models.Stroke{
		Id:      ds.Id,
		BoardId: ds.BoardId,
		FromX:   ds.FromX,
		FromY:   ds.FromY,
		ToX:     ds.ToX,
		ToY:     ds.ToY,
		Color:   ds.Color,
		Width:   ds.Width,
		Created: ds.Created,
	}
}

// strokeIdFromSK recovers the stroke id from an unprocessed batch item
// whose SK survived the round trip but whose attributes may not have.
func strokeIdFromSK(sk string) string {
	return strings.TrimPrefix(sk, strokeSKPrefix)
}

type dynamoSticker struct {
	PK       string  `dynamodbav:"PK"`
	SK       string  `dynamodbav:"SK"`
	Id       string  `dynamodbav:"Id"`
	BoardId  string  `dynamodbav:"BoardId"`
	ImageUrl string  `dynamodbav:"ImageUrl"`
	X        float64 `dynamodbav:"X"`
	Y        float64 `dynamodbav:"Y"`
	W        float64 `dynamodbav:"W"`
	H        float64 `dynamodbav:"H"`
	Rotation float64 `dynamodbav:"Rotation"`
	Created  int64   `dynamodbav:"Created"`
	Updated  int64   `dynamodbav:"Updated"`
}

func stickerToDynamo(s models.Sticker) dynamoSticker {
	return dynamoSticker{
		PK:       boardPKPrefix + s.BoardId,
		SK:       stickerSKPrefix + s.Id,
		Id:       s.Id,
		BoardId:  s.BoardId,
		ImageUrl: s.ImageUrl,
		X:        s.X,
		Y:        s.Y,
		W:        s.Width,
		H:        s.Height,
		Rotation: s.Rotation,
		Created:  s.Created,
		Updated:  s.Updated,
	}
}

func stickerFromDynamo(ds dynamoSticker) models.Sticker {
	return models.Sticker{
		Id:       ds.Id,
		BoardId:  ds.BoardId,
		ImageUrl: ds.ImageUrl,
		X:        ds.X,
		Y:        ds.Y,
		Width:    ds.W,
		Height:   ds.H,
		Rotation: ds.Rotation,
		Created:  ds.Created,
		Updated:  ds.Updated,
	}
}

// stickerPatchFields maps the set fields of a patch onto the dynamo
// attribute names for updateItem, always including Updated.
func stickerPatchFields(p models.StickerPatch) []string {
	fields := []string{"Updated"}
	if p.ImageUrl != nil {
		fields = append(fields, "ImageUrl")
	}
	if p.X != nil {
		fields = append(fields, "X")
	}
	if p.Y != nil {
		fields = append(fields, "Y")
	}
	if p.Width != nil {
		fields = append(fields, "W")
	}
	if p.Height != nil {
		fields = append(fields, "H")
	}
	if p.Rotation != nil {
		fields = append(fields, "Rotation")
	}
	return fields
}
