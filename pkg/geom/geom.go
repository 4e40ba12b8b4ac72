// Package geom defines the normalized geometry shared by the layout designer,
// the photo editor and the compositor.
//
// Three coordinate spaces are in play:
//   - normalized canvas space, where (0,0) is the top-left corner of the
//     frame and (1,1) its bottom-right corner
//   - canvas pixel space, the backing store the compositor draws into
//   - a photo's local space, centered on the photo and unrotated
//
// Local and canvas pixel space are related by a [Box], whose forward and
// inverse matrices are the only way the rest of the module moves points
// between the two. Drawing and hit-testing share these matrices, so what is
// drawn and what is hit can never disagree.
package geom

import (
	"math"

	"github.com/gogpu/gg"
)

// Point is a position in pixel space.
type Point = gg.Point

// Pt is shorthand for a Point literal.
func Pt(x, y float64) Point { return gg.Pt(x, y) }

// Rect is a normalized rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x" toml:"x" yaml:"x"`
	Y      float64 `json:"y" toml:"y" yaml:"y"`
	Width  float64 `json:"width" toml:"width" yaml:"width"`
	Height float64 `json:"height" toml:"height" yaml:"height"`
}

// Center returns the rectangle's center point in normalized units.
func (r Rect) Center() (x, y float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether (x,y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}

// Translate returns r moved by (dx,dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Pixels converts r to canvas pixels for a canvas of size w×h.
func (r Rect) Pixels(w, h float64) (x, y, pw, ph float64) {
	return r.X * w, r.Y * h, r.Width * w, r.Height * h
}

// Transform places a photo on the canvas. X and Y are the CENTER of the photo
// in normalized units, unlike Rect. Rotation is in degrees, clockwise in
// canvas space (y grows downward), and unbounded.
type Transform struct {
	X        float64 `json:"x" toml:"x" yaml:"x"`
	Y        float64 `json:"y" toml:"y" yaml:"y"`
	Width    float64 `json:"width" toml:"width" yaml:"width"`
	Height   float64 `json:"height" toml:"height" yaml:"height"`
	Rotation float64 `json:"rotation" toml:"rotation" yaml:"rotation"`
}

// TransformFromRect centers a transform on r with the same size and no
// rotation.
func TransformFromRect(r Rect) Transform {
	cx, cy := r.Center()
	return Transform{X: cx, Y: cy, Width: r.Width, Height: r.Height}
}

// MinCropScale is the lowest zoom a crop may reach.
const MinCropScale = 0.1

// Crop pans and zooms the aspect-filled image inside its transform box.
// X and Y are offsets in canvas pixels.
type Crop struct {
	X     float64 `json:"x" toml:"x" yaml:"x"`
	Y     float64 `json:"y" toml:"y" yaml:"y"`
	Scale float64 `json:"scale" toml:"scale" yaml:"scale"`
}

// IdentityCrop is the crop a freshly bound photo starts with.
func IdentityCrop() Crop {
	return Crop{Scale: 1}
}

// Pan returns c offset by (dx,dy) pixels.
func (c Crop) Pan(dx, dy float64) Crop {
	c.X += dx
	c.Y += dy
	return c
}

// Zoom applies one wheel step. The change is proportional to the current
// scale, so repeated steps feel exponential, and the result never drops
// below floor.
func (c Crop) Zoom(deltaY, sensitivity, floor float64) Crop {
	delta := -deltaY * sensitivity
	c.Scale = math.Max(floor, c.Scale+delta*c.Scale)
	return c
}

// ClampScale returns c with its scale raised to at least floor.
func (c Crop) ClampScale(floor float64) Crop {
	if c.Scale < floor || math.IsNaN(c.Scale) {
		c.Scale = floor
	}
	return c
}

// AspectFill returns the size at which an image of imgW×imgH must be drawn
// to cover a box of boxW×boxH completely, overflowing on one axis.
// Degenerate image sizes fall back to the box size.
func AspectFill(imgW, imgH, boxW, boxH float64) (w, h float64) {
	if imgW <= 0 || imgH <= 0 || boxW <= 0 || boxH <= 0 {
		return boxW, boxH
	}
	imageAspect := imgW / imgH
	boxAspect := boxW / boxH
	if imageAspect > boxAspect {
		return boxH * imageAspect, boxH
	}
	return boxW, boxW / imageAspect
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
