package service_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Elko-Lemiso/collaborative-board/models"
	"github.com/Elko-Lemiso/collaborative-board/protocol"
	"github.com/Elko-Lemiso/collaborative-board/service"
)

func TestValidateBoardId(t *testing.T) {
	assert.NoError(t, service.ValidateBoardId(testBoardId))
	assert.Error(t, service.ValidateBoardId(""))
	assert.Error(t, service.ValidateBoardId("board-1"))
	assert.Error(t, service.ValidateBoardId("6f1b24da-9f7e-4c8b-9f2e"))
}

func TestValidateBoardName(t *testing.T) {
	assert.NoError(t, service.ValidateBoardName("retro"))
	assert.Error(t, service.ValidateBoardName(""))

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, service.ValidateBoardName(string(long)))
}

func TestValidateDraw_Colors(t *testing.T) {
	ev := protocol.Draw{
		BoardId: testBoardId,
		From:    protocol.Point{X: 1, Y: 1},
		To:      protocol.Point{X: 2, Y: 2},
		Width:   3,
	}

	for _, color := range []string{"#000000", "#FF00aa", "red", "rgb(255, 0, 0)", "rgba(0,0,0,0.5)"} {
		ev.Color = color
		assert.NoError(t, service.ValidateDraw(ev), "expected acceptance for %q", color)
	}
	for _, color := range []string{"", "<script>alert(1)</script>", "url(javascript:x)", "a-color-name-well-past-the-length-cap"} {
		ev.Color = color
		assert.Error(t, service.ValidateDraw(ev), "expected rejection for %q", color)
	}
}

func TestValidateDraw_WidthBounds(t *testing.T) {
	ev := protocol.Draw{Color: "#000000"}

	ev.Width = 1
	assert.NoError(t, service.ValidateDraw(ev))
	ev.Width = 100
	assert.NoError(t, service.ValidateDraw(ev))
	ev.Width = 0
	assert.Error(t, service.ValidateDraw(ev))
	ev.Width = 101
	assert.Error(t, service.ValidateDraw(ev))
}

func TestValidateSticker_Geometry(t *testing.T) {
	sticker := models.Sticker{ImageUrl: "https://cdn.example/cat.png", X: 5000, Y: 5000, Width: 100, Height: 100}
	assert.NoError(t, service.ValidateSticker(sticker))

	bad := sticker
	bad.Width = 0
	assert.Error(t, service.ValidateSticker(bad))

	bad = sticker
	bad.Height = -5
	assert.Error(t, service.ValidateSticker(bad))

	bad = sticker
	bad.Rotation = math.Inf(-1)
	assert.Error(t, service.ValidateSticker(bad))
}

func TestValidateStickerPatch(t *testing.T) {
	x := 5120.0
	w := 80.0
	assert.NoError(t, service.ValidateStickerPatch(models.StickerPatch{X: &x, Width: &w}))

	// Partial patches leave unset fields alone
	assert.NoError(t, service.ValidateStickerPatch(models.StickerPatch{}))

	empty := ""
	assert.Error(t, service.ValidateStickerPatch(models.StickerPatch{ImageUrl: &empty}))

	zero := 0.0
	assert.Error(t, service.ValidateStickerPatch(models.StickerPatch{Height: &zero}))

	nan := math.NaN()
	assert.Error(t, service.ValidateStickerPatch(models.StickerPatch{Rotation: &nan}))
}

func TestStickerPatch_Apply(t *testing.T) {
	sticker := models.Sticker{Id: "s1", X: 5000, Y: 5000, Width: 100, Height: 100, Rotation: 0}

	x, rot := 5120.0, 45.0
	patch := models.StickerPatch{X: &x, Rotation: &rot}
	patch.Apply(&sticker)

	assert.Equal(t, float64(5120), sticker.X)
	assert.Equal(t, float64(5000), sticker.Y)
	assert.Equal(t, float64(45), sticker.Rotation)
	assert.Equal(t, float64(100), sticker.Width)
}
