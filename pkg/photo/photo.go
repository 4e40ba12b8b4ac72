// Package photo defines a placed photo and the value-semantics operations
// the editor and session apply to the ordered photo list.
//
// The list order is the stacking order: later photos are drawn on top. Every
// operation here returns a new slice and leaves its input untouched, so a
// list handed to the history journal or to a secondary display stays valid
// after further edits.
package photo

import (
	"slices"

	"github.com/uitmedia/framefusion/pkg/geom"
)

// Photo is a source image placed on the canvas.
type Photo struct {
	Src            string         `json:"src"`
	OriginalWidth  int            `json:"originalWidth"`
	OriginalHeight int            `json:"originalHeight"`
	Transform      geom.Transform `json:"transform"`
	Crop           geom.Crop      `json:"crop"`
}

// New places an image of the given natural size into slot. The photo
// starts centered on the slot, with the same size, unrotated and uncropped.
func New(src string, width, height int, slot geom.Rect) Photo {
	return Photo{
		Src:            src,
		OriginalWidth:  width,
		OriginalHeight: height,
		Transform:      geom.TransformFromRect(slot),
		Crop:           geom.IdentityCrop(),
	}
}

// Aspect returns the natural width/height ratio of the source, or 0 when the
// dimensions are unknown.
func (p Photo) Aspect() float64 {
	if p.OriginalWidth <= 0 || p.OriginalHeight <= 0 {
		return 0
	}
	return float64(p.OriginalWidth) / float64(p.OriginalHeight)
}

// ResetAdjustments clears rotation and crop while keeping position and size.
func (p Photo) ResetAdjustments() Photo {
	p.Transform.Rotation = 0
	p.Crop = geom.IdentityCrop()
	return p
}

// Equal reports whether two lists hold the same photos in the same order.
func Equal(a, b []Photo) bool {
	return slices.Equal(a, b)
}

// Clone returns an independent copy of ps.
func Clone(ps []Photo) []Photo {
	return slices.Clone(ps)
}

// Replace returns a copy of ps with the photo at i set to p. An index out of
// range returns the copy unchanged.
func Replace(ps []Photo, i int, p Photo) []Photo {
	out := slices.Clone(ps)
	if i >= 0 && i < len(out) {
		out[i] = p
	}
	return out
}

// Update returns a copy of ps with fn applied to the photo at i.
func Update(ps []Photo, i int, fn func(Photo) Photo) []Photo {
	if i < 0 || i >= len(ps) {
		return slices.Clone(ps)
	}
	return Replace(ps, i, fn(ps[i]))
}

// Direction is a one-step move in stacking order.
type Direction int

const (
	// Backward moves a photo one step toward the bottom of the stack.
	Backward Direction = iota
	// Forward moves a photo one step toward the top of the stack.
	Forward
)

// String returns "backward" or "forward".
func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// ParseDirection parses "backward"/"forward".
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "backward", "back":
		return Backward, true
	case "forward", "front":
		return Forward, true
	}
	return Backward, false
}

// CanMove reports whether the photo at i in a list of n can move one step
// in dir.
func CanMove(n, i int, dir Direction) bool {
	if i < 0 || i >= n {
		return false
	}
	if dir == Forward {
		return i < n-1
	}
	return i > 0
}

// Reorder moves the photo at i one step in dir and returns the new list and
// the photo's new index. A move past either end leaves the order unchanged.
func Reorder(ps []Photo, i int, dir Direction) ([]Photo, int) {
	if i < 0 || i >= len(ps) {
		return slices.Clone(ps), i
	}
	target := i - 1
	if dir == Forward {
		target = i + 1
	}
	target = max(0, min(target, len(ps)-1))

	out := slices.Clone(ps)
	moved := out[i]
	out = slices.Delete(out, i, i+1)
	out = slices.Insert(out, target, moved)
	return out, target
}
