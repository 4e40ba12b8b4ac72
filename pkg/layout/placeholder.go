// Package layout implements the placeholder designer: the set of named slots
// cut out of a frame, where guests' photos will later be placed.
//
// Slots are stored in normalized canvas units. Pointer input arrives in
// canvas backing-store pixels and is converted through a [Canvas], which
// also carries the device pixel ratio used to scale hit areas and the
// minimum slot size.
//
// The [Editor] is a small state machine (idle, moving, resizing) over an
// ordered slot list. [Resize] is the pure function behind the eight resize
// handles and is exported for callers that drive edits numerically.
package layout

import (
	"slices"

	"github.com/uitmedia/framefusion/pkg/geom"
)

// MinSlotPixels is the smallest slot edge, in CSS pixels.
const MinSlotPixels = 20

// Placeholder is a slot on the frame.
type Placeholder struct {
	ID          string  `json:"id" toml:"id" yaml:"id"`
	X           float64 `json:"x" toml:"x" yaml:"x"`
	Y           float64 `json:"y" toml:"y" yaml:"y"`
	Width       float64 `json:"width" toml:"width" yaml:"width"`
	Height      float64 `json:"height" toml:"height" yaml:"height"`
	AspectRatio string  `json:"aspectRatio,omitempty" toml:"aspect_ratio,omitempty" yaml:"aspect_ratio,omitempty"`
}

// Rect returns the slot's rectangle.
func (p Placeholder) Rect() geom.Rect {
	return geom.Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}

// WithRect returns p moved and sized to r.
func (p Placeholder) WithRect(r geom.Rect) Placeholder {
	p.X, p.Y, p.Width, p.Height = r.X, r.Y, r.Width, r.Height
	return p
}

// Ratio returns the slot's constraint, if it has a valid one.
func (p Placeholder) Ratio() (geom.AspectRatio, bool) {
	if p.AspectRatio == "" {
		return geom.AspectRatio{}, false
	}
	ar, err := geom.ParseAspectRatio(p.AspectRatio)
	if err != nil {
		return geom.AspectRatio{}, false
	}
	return ar, true
}

// Rects returns the rectangles of ps in order.
func Rects(ps []Placeholder) []geom.Rect {
	out := make([]geom.Rect, len(ps))
	for i, p := range ps {
		out[i] = p.Rect()
	}
	return out
}

// Canvas is the pixel surface slots are edited on.
type Canvas struct {
	Width  float64 `json:"width"`  // backing-store width in device pixels
	Height float64 `json:"height"` // backing-store height in device pixels
	DPR    float64 `json:"dpr"`    // device pixel ratio
}

// Aspect returns Width/Height, or 1 for an empty canvas.
func (c Canvas) Aspect() float64 {
	if c.Width <= 0 || c.Height <= 0 {
		return 1
	}
	return c.Width / c.Height
}

func (c Canvas) dpr() float64 {
	if c.DPR <= 0 {
		return 1
	}
	return c.DPR
}

// MinSize returns the minimum slot width and height in normalized units.
// An unsized canvas falls back to 1% of each axis.
func (c Canvas) MinSize() (w, h float64) {
	if c.Width <= 0 || c.Height <= 0 {
		return 0.01, 0.01
	}
	px := MinSlotPixels * c.dpr()
	return px / c.Width, px / c.Height
}

// Normalize converts a pixel position or delta to normalized units.
func (c Canvas) Normalize(x, y float64) (float64, float64) {
	if c.Width <= 0 || c.Height <= 0 {
		return 0, 0
	}
	return x / c.Width, y / c.Height
}

// Preset is a named aspect constraint offered by the designer.
type Preset struct {
	Label string
	Ratio string // empty for free-form
}

// AspectPresets are the constraints offered in the designer toolbar.
var AspectPresets = []Preset{
	{Label: "Free", Ratio: ""},
	{Label: "1:1", Ratio: "1:1"},
	{Label: "4:3", Ratio: "4:3"},
	{Label: "3:2", Ratio: "3:2"},
	{Label: "3:4", Ratio: "3:4"},
	{Label: "16:9", Ratio: "16:9"},
	{Label: "9:16", Ratio: "9:16"},
}

// Clone returns an independent copy of ps.
func Clone(ps []Placeholder) []Placeholder {
	return slices.Clone(ps)
}
