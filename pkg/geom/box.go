package geom

import (
	"image"
	"math"

	"github.com/gogpu/gg"
)

// Box is a transform resolved against a concrete canvas: center and size in
// canvas pixels, rotation in radians.
type Box struct {
	CX, CY float64
	W, H   float64
	Angle  float64
}

// Place resolves t on a canvas of canvasW×canvasH pixels. The uniform scale
// multiplies the box size only; the center stays where t puts it.
func Place(t Transform, canvasW, canvasH, scale float64) Box {
	if scale <= 0 {
		scale = 1
	}
	return Box{
		CX:    t.X * canvasW,
		CY:    t.Y * canvasH,
		W:     t.Width * canvasW * scale,
		H:     t.Height * canvasH * scale,
		Angle: Radians(t.Rotation),
	}
}

// Matrix maps local coordinates to canvas pixels: translate to the center,
// then rotate.
func (b Box) Matrix() gg.Matrix {
	return gg.Translate(b.CX, b.CY).Multiply(gg.Rotate(b.Angle))
}

// Inverse maps canvas pixels to local coordinates.
func (b Box) Inverse() gg.Matrix {
	return b.Matrix().Invert()
}

// ToLocal maps a canvas pixel position into the box's unrotated frame.
func (b Box) ToLocal(p Point) Point {
	return b.Inverse().TransformPoint(p)
}

// ToCanvas maps a local position back to canvas pixels.
func (b Box) ToCanvas(p Point) Point {
	return b.Matrix().TransformPoint(p)
}

// ContainsLocal reports whether a local point lies in the box, edges included.
func (b Box) ContainsLocal(p Point) bool {
	return math.Abs(p.X) <= b.W/2 && math.Abs(p.Y) <= b.H/2
}

// Contains reports whether a canvas pixel position lies in the rotated box.
func (b Box) Contains(p Point) bool {
	return b.ContainsLocal(b.ToLocal(p))
}

// Corners returns the rotated corners in canvas pixels, clockwise from the
// local top-left.
func (b Box) Corners() [4]Point {
	m := b.Matrix()
	hw, hh := b.W/2, b.H/2
	return [4]Point{
		m.TransformPoint(Pt(-hw, -hh)),
		m.TransformPoint(Pt(hw, -hh)),
		m.TransformPoint(Pt(hw, hh)),
		m.TransformPoint(Pt(-hw, hh)),
	}
}

// Bounds returns the smallest integer rectangle covering the rotated box.
func (b Box) Bounds() image.Rectangle {
	c := b.Corners()
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := minX, minY
	for _, p := range c[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}

// AngleTo returns the angle of p around the box center, in radians, using
// the canvas convention (y down, clockwise positive).
func (b Box) AngleTo(p Point) float64 {
	return math.Atan2(p.Y-b.CY, p.X-b.CX)
}
