package service

import (
	"errors"
	"math"
	"regexp"

	"github.com/gofrs/uuid/v5"

	"github.com/Elko-Lemiso/collaborative-board/models"
	"github.com/Elko-Lemiso/collaborative-board/protocol"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,24}$`)

// Colors pass through to every client's renderer, so accept hex, named and
// rgb() forms but nothing that could smuggle markup.
var colorRegex = regexp.MustCompile(`^[#A-Za-z0-9(),.% ]{1,32}$`)

const (
	minStrokeWidth = 1
	maxStrokeWidth = 100
	maxBoardName   = 100
)

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return errors.New("username must be 3-24 characters of letters, digits, underscore or dash")
	}
	return nil
}

func ValidateBoardId(boardId string) error {
	if _, err := uuid.FromString(boardId); err != nil {
		return errors.New("invalid board id")
	}
	return nil
}

func ValidateBoardName(name string) error {
	if len(name) == 0 || len(name) > maxBoardName {
		return errors.New("board name must be 1-100 characters")
	}
	return nil
}

// finite rejects NaN and Inf. JSON can't encode them, but a hand-crafted
// payload can still smuggle huge exponents that survive unmarshalling.
func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func ValidateDraw(ev protocol.Draw) error {
	if !finite(ev.From.X, ev.From.Y, ev.To.X, ev.To.Y, ev.Width) {
		return errors.New("invalid stroke geometry")
	}
	if !colorRegex.MatchString(ev.Color) {
		return errors.New("invalid color")
	}
	if ev.Width < minStrokeWidth || ev.Width > maxStrokeWidth {
		return errors.New("invalid width")
	}
	return nil
}

func ValidateSticker(sticker models.Sticker) error {
	if sticker.ImageUrl == "" {
		return errors.New("sticker image url required")
	}
	if !finite(sticker.X, sticker.Y, sticker.Width, sticker.Height, sticker.Rotation) {
		return errors.New("invalid sticker geometry")
	}
	if sticker.Width <= 0 || sticker.Height <= 0 {
		return errors.New("sticker dimensions must be positive")
	}
	return nil
}

func ValidateStickerPatch(patch models.StickerPatch) error {
	if patch.ImageUrl != nil && *patch.ImageUrl == "" {
		return errors.New("sticker image url cannot be cleared")
	}
	for _, v := range []*float64{patch.X, patch.Y, patch.Rotation} {
		if v != nil && !finite(*v) {
			return errors.New("invalid sticker geometry")
		}
	}
	for _, v := range []*float64{patch.Width, patch.Height} {
		if v == nil {
			continue
		}
		if !finite(*v) || *v <= 0 {
			return errors.New("sticker dimensions must be positive")
		}
	}
	return nil
}
