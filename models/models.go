package models

// Board is the unit of isolation for rooms, strokes and stickers.
type Board struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	Created      int64  `json:"createdAt"`
	Updated      int64  `json:"updatedAt"`
	StrokeCount  int    `json:"strokeCount,omitempty"`
	StickerCount int    `json:"stickerCount,omitempty"`
}

// Stroke is one immutable line segment in virtual-canvas coordinates.
// Strokes are append-only: once written they are never updated or deleted
// outside a full board purge.
type Stroke struct {
	Id      string  `json:"id"`
	BoardId string  `json:"boardId"`
	FromX   float64 `json:"fromX"`
	FromY   float64 `json:"fromY"`
	ToX     float64 `json:"toX"`
	ToY     float64 `json:"toY"`
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
	Created int64   `json:"createdAt"`
}

// Sticker is a positioned, resizable, rotatable image object. x and y are
// the center point in virtual-canvas space. Authoritative state is whatever
// was persisted last; concurrent edits are last-writer-wins.
type Sticker struct {
	Id       string  `json:"id"`
	BoardId  string  `json:"boardId"`
	ImageUrl string  `json:"imageUrl"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	Created  int64   `json:"createdAt"`
	Updated  int64   `json:"updatedAt"`
}

// StickerPatch is a partial sticker update. Nil fields are left untouched;
// set fields fully overwrite the stored value (no merge of concurrent
// geometry changes is attempted).
type StickerPatch struct {
	ImageUrl *string  `json:"imageUrl,omitempty"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// Apply overwrites the set fields of the patch onto s.
func (p StickerPatch) Apply(s *Sticker) {
	if p.ImageUrl != nil {
		s.ImageUrl = *p.ImageUrl
	}
	if p.X != nil {
		s.X = *p.X
	}
	if p.Y != nil {
		s.Y = *p.Y
	}
	if p.Width != nil {
		s.Width = *p.Width
	}
	if p.Height != nil {
		s.Height = *p.Height
	}
	if p.Rotation != nil {
		s.Rotation = *p.Rotation
	}
}
