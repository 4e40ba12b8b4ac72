package editor

import (
	"github.com/uitmedia/framefusion/pkg/geom"
	"github.com/uitmedia/framefusion/pkg/photo"
)

// Viewport is the canvas the editor is shown on.
type Viewport struct {
	Width       float64 // backing-store width in device pixels
	Height      float64 // backing-store height in device pixels
	DPR         float64 // device pixel ratio
	GlobalScale float64 // uniform size multiplier for every photo
}

// Box resolves t on the viewport.
func (v Viewport) Box(t geom.Transform) geom.Box {
	return geom.Place(t, v.Width, v.Height, v.GlobalScale)
}

func (v Viewport) dpr() float64 {
	if v.DPR <= 0 {
		return 1
	}
	return v.DPR
}

// Region is the part of a photo a pointer is over.
type Region int

const (
	RegionNone Region = iota
	RegionBody
	RegionRotate
	RegionBackward
	RegionForward
)

// String returns the region name.
func (r Region) String() string {
	switch r {
	case RegionBody:
		return "body"
	case RegionRotate:
		return "rotate"
	case RegionBackward:
		return "backward"
	case RegionForward:
		return "forward"
	}
	return "none"
}

// Hit is the result of a hit test.
type Hit struct {
	Index  int
	Region Region
}

// Miss is the hit for empty space.
var Miss = Hit{Index: -1, Region: RegionNone}

// HitTest finds what lies under p, in canvas pixels. Photos are tested from
// the top of the stack down. The selected photo also exposes its layer
// buttons, when the move is possible, and its rotate knob; these are tested
// before its body. The pointer is mapped into each photo's local frame with
// the same matrix the renderer draws with.
func HitTest(photos []photo.Photo, selected int, v Viewport, chrome geom.Chrome, p geom.Point) Hit {
	c := chrome.Scaled(v.dpr())
	for i := len(photos) - 1; i >= 0; i-- {
		box := v.Box(photos[i].Transform)
		local := box.ToLocal(p)

		if i == selected {
			if photo.CanMove(len(photos), i, photo.Backward) &&
				geom.Within(local, c.BackwardButton(box), c.ButtonHitRadius()) {
				return Hit{Index: i, Region: RegionBackward}
			}
			if photo.CanMove(len(photos), i, photo.Forward) &&
				geom.Within(local, c.ForwardButton(box), c.ButtonHitRadius()) {
				return Hit{Index: i, Region: RegionForward}
			}
			if geom.Within(local, c.RotateKnob(box), c.RotateHitRadius()) {
				return Hit{Index: i, Region: RegionRotate}
			}
		}

		if box.ContainsLocal(local) {
			return Hit{Index: i, Region: RegionBody}
		}
	}
	return Miss
}

// Cursor returns the CSS cursor shown over a region.
func (r Region) Cursor() string {
	switch r {
	case RegionBody:
		return "move"
	case RegionRotate:
		return "crosshair"
	case RegionBackward, RegionForward:
		return "pointer"
	}
	return "default"
}
