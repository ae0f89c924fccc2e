package client

import (
	"math"

	"github.com/Elko-Lemiso/collaborative-board/models"
	"github.com/Elko-Lemiso/collaborative-board/protocol"
)

// Handle names one of the eight resize grips around a selected sticker.
type Handle string

const (
	HandleNW Handle = "nw"
	HandleN  Handle = "n"
	HandleNE Handle = "ne"
	HandleE  Handle = "e"
	HandleSE Handle = "se"
	HandleS  Handle = "s"
	HandleSW Handle = "sw"
	HandleW  Handle = "w"
)

// MinStickerSize is the floor on sticker width and height in virtual
// units; dragging past it clamps rather than inverting the sticker.
const MinStickerSize = 50

// RotationSnapDegrees is the increment used when snap is requested.
const RotationSnapDegrees = 15

// Resize applies one resize gesture to the sticker captured at gesture
// start. dx/dy are the pointer deltas in virtual units since the gesture
// began. Sticker x/y is the center, so edge and corner handles shift the
// center by half of the size change to keep the opposite side anchored.
// lockAspect recomputes the non-dragged dimension from the dragged one.
func Resize(initial models.Sticker, handle Handle, dx, dy float64, lockAspect bool) models.Sticker {
	s := initial

	switch handle {
	case HandleNW:
		s.Width = math.Max(MinStickerSize, initial.Width-dx)
		s.Height = math.Max(MinStickerSize, initial.Height-dy)
		s.X = initial.X + dx/2
		s.Y = initial.Y + dy/2
	case HandleN:
		s.Height = math.Max(MinStickerSize, initial.Height-dy*2)
		s.Y = initial.Y + dy
	case HandleNE:
		s.Width = math.Max(MinStickerSize, initial.Width+dx*2)
		s.Height = math.Max(MinStickerSize, initial.Height-dy*2)
		s.X = initial.X + dx
		s.Y = initial.Y + dy
	case HandleE:
		s.Width = math.Max(MinStickerSize, initial.Width+dx*2)
		s.X = initial.X + dx
	case HandleSE:
		s.Width = math.Max(MinStickerSize, initial.Width+dx*2)
		s.Height = math.Max(MinStickerSize, initial.Height+dy*2)
		s.X = initial.X + dx
		s.Y = initial.Y + dy
	case HandleS:
		s.Height = math.Max(MinStickerSize, initial.Height+dy*2)
		s.Y = initial.Y + dy
	case HandleSW:
		s.Width = math.Max(MinStickerSize, initial.Width-dx*2)
		s.Height = math.Max(MinStickerSize, initial.Height+dy*2)
		s.X = initial.X + dx
		s.Y = initial.Y + dy
	case HandleW:
		s.Width = math.Max(MinStickerSize, initial.Width-dx*2)
		s.X = initial.X + dx
	}

	if lockAspect && initial.Width > 0 && initial.Height > 0 {
		aspect := initial.Width / initial.Height
		switch handle {
		case HandleN, HandleS:
			s.Width = math.Max(MinStickerSize, s.Height*aspect)
		default:
			s.Height = math.Max(MinStickerSize, s.Width/aspect)
		}
	}

	return s
}

// NormalizeAngle maps any angle in degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	return m
}

// SnapAngle rounds to the nearest snap increment, then normalizes.
func SnapAngle(deg float64) float64 {
	return NormalizeAngle(math.Round(deg/RotationSnapDegrees) * RotationSnapDegrees)
}

// PointerAngle is the angle in degrees of the pointer position relative
// to the sticker center.
func PointerAngle(center, pointer protocol.Point) float64 {
	return math.Atan2(pointer.Y-center.Y, pointer.X-center.X) * 180 / math.Pi
}

// Rotate computes the sticker rotation for the current pointer position of
// a rotate gesture: the rotation at gesture start plus the angle swept
// since the gesture began.
func Rotate(startRotation, startAngle, currentAngle float64, snap bool) float64 {
	rotation := startRotation + (currentAngle - startAngle)
	if snap {
		return SnapAngle(rotation)
	}
	return NormalizeAngle(rotation)
}

// hitTest reports whether a virtual-canvas point falls inside the
// sticker's unrotated bounding box.
func hitTest(s models.Sticker, p protocol.Point) bool {
	return p.X >= s.X-s.Width/2 &&
		p.X <= s.X+s.Width/2 &&
		p.Y >= s.Y-s.Height/2 &&
		p.Y <= s.Y+s.Height/2
}
