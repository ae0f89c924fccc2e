// Package client implements the board-side engine a rendering frontend
// embeds: the virtual-coordinate transform, sticker gesture math, the
// optimistic local state, and reconciliation of remote events.
package client

import "github.com/Elko-Lemiso/collaborative-board/protocol"

const (
	// VirtualSize is the side length of the shared canvas. All persisted
	// geometry lives in this space so clients with different pan/zoom
	// agree on absolute positions.
	VirtualSize  = 10000
	CenterOffset = VirtualSize / 2
)

// Transform is the client-local pan/zoom; it never leaves the process.
type Transform struct {
	PanX  float64
	PanY  float64
	Scale float64
}

// Viewport maps between screen pixels and virtual-canvas coordinates.
// Left/Top are the drawing area's offset within the window.
type Viewport struct {
	Left      float64
	Top       float64
	Transform Transform
}

func NewViewport() Viewport {
	return Viewport{Transform: Transform{Scale: 1}}
}

func (v Viewport) ScreenToVirtual(screenX, screenY float64) protocol.Point {
	return protocol.Point{
		X: (screenX-v.Left-v.Transform.PanX)/v.Transform.Scale + CenterOffset,
		Y: (screenY-v.Top-v.Transform.PanY)/v.Transform.Scale + CenterOffset,
	}
}

func (v Viewport) VirtualToScreen(p protocol.Point) (float64, float64) {
	return (p.X-CenterOffset)*v.Transform.Scale + v.Transform.PanX + v.Left,
		(p.Y-CenterOffset)*v.Transform.Scale + v.Transform.PanY + v.Top
}
