package layout

import "github.com/uitmedia/framefusion/pkg/geom"

// Handle identifies one of the eight resize handles of a slot.
type Handle int

const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTopRight
	HandleBottomRight
	HandleBottomLeft
	HandleTop
	HandleRight
	HandleBottom
	HandleLeft
)

// Handles lists every handle in hit-test order.
var Handles = []Handle{
	HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft,
	HandleTop, HandleRight, HandleBottom, HandleLeft,
}

var handleNames = map[Handle]string{
	HandleTopLeft:     "tl",
	HandleTopRight:    "tr",
	HandleBottomRight: "br",
	HandleBottomLeft:  "bl",
	HandleTop:         "t",
	HandleRight:       "r",
	HandleBottom:      "b",
	HandleLeft:        "l",
}

// String returns the short handle name ("tl", "t", ...).
func (h Handle) String() string {
	if s, ok := handleNames[h]; ok {
		return s
	}
	return "none"
}

// Cursor returns the CSS cursor shown while hovering h.
func (h Handle) Cursor() string {
	switch h {
	case HandleTopLeft, HandleBottomRight:
		return "nwse-resize"
	case HandleTopRight, HandleBottomLeft:
		return "nesw-resize"
	case HandleTop, HandleBottom:
		return "ns-resize"
	case HandleLeft, HandleRight:
		return "ew-resize"
	}
	return "default"
}

func (h Handle) isCorner() bool {
	return h >= HandleTopLeft && h <= HandleBottomLeft
}

// Position returns the handle's location on r in normalized units.
func (h Handle) Position(r geom.Rect) (x, y float64) {
	cx, cy := r.Center()
	switch h {
	case HandleTopLeft:
		return r.X, r.Y
	case HandleTopRight:
		return r.Right(), r.Y
	case HandleBottomRight:
		return r.Right(), r.Bottom()
	case HandleBottomLeft:
		return r.X, r.Bottom()
	case HandleTop:
		return cx, r.Y
	case HandleRight:
		return r.Right(), cy
	case HandleBottom:
		return cx, r.Bottom()
	case HandleLeft:
		return r.X, cy
	}
	return cx, cy
}

// Resize applies a handle drag of (dx,dy) normalized units to start.
//
// The edge or corner opposite the handle stays fixed. Without a constraint,
// edge handles change one dimension and corner handles two. With a
// constraint, corners and left/right edges drive the width and derive the
// height, top/bottom edges drive the height and derive the width, and edge
// handles re-center the derived dimension on the start rectangle. The
// minimum size is enforced last, scaling both dimensions together when a
// constraint is active so the ratio survives.
func Resize(start Placeholder, h Handle, dx, dy float64, c Canvas) Placeholder {
	w, ht := start.Width, start.Height
	switch h {
	case HandleTopLeft:
		w, ht = w-dx, ht-dy
	case HandleTopRight:
		w, ht = w+dx, ht-dy
	case HandleBottomRight:
		w, ht = w+dx, ht+dy
	case HandleBottomLeft:
		w, ht = w-dx, ht+dy
	case HandleTop:
		ht -= dy
	case HandleRight:
		w += dx
	case HandleBottom:
		ht += dy
	case HandleLeft:
		w -= dx
	default:
		return start
	}

	minW, minH := c.MinSize()
	if ar, ok := start.Ratio(); ok {
		k := ar.Normalized(c.Aspect())
		if h == HandleTop || h == HandleBottom {
			ht = max(ht, minH)
			w = ht * k
			if w < minW {
				w = minW
				ht = w / k
			}
		} else {
			w = max(w, minW)
			ht = w / k
			if ht < minH {
				ht = minH
				w = ht * k
			}
		}
	} else {
		w = max(w, minW)
		ht = max(ht, minH)
	}

	return start.WithRect(anchor(start.Rect(), h, w, ht))
}

// anchor positions a w×h rectangle so the part of r opposite h stays put.
func anchor(r geom.Rect, h Handle, w, ht float64) geom.Rect {
	cx, cy := r.Center()
	out := geom.Rect{Width: w, Height: ht}
	switch h {
	case HandleTopLeft:
		out.X, out.Y = r.Right()-w, r.Bottom()-ht
	case HandleTopRight:
		out.X, out.Y = r.X, r.Bottom()-ht
	case HandleBottomRight:
		out.X, out.Y = r.X, r.Y
	case HandleBottomLeft:
		out.X, out.Y = r.Right()-w, r.Y
	case HandleTop:
		out.X, out.Y = cx-w/2, r.Bottom()-ht
	case HandleBottom:
		out.X, out.Y = cx-w/2, r.Y
	case HandleLeft:
		out.X, out.Y = r.Right()-w, cy-ht/2
	case HandleRight:
		out.X, out.Y = r.X, cy-ht/2
	}
	if !h.isCorner() {
		// Keep the untouched axis exact for free-form edge drags.
		if h == HandleTop || h == HandleBottom {
			if w == r.Width {
				out.X = r.X
			}
		} else if ht == r.Height {
			out.Y = r.Y
		}
	}
	return out
}

// ApplyRatio sizes p to its constraint by deriving the height from the
// width, keeping the top-left corner. Slots without a constraint are
// returned unchanged.
func ApplyRatio(p Placeholder, c Canvas) Placeholder {
	ar, ok := p.Ratio()
	if !ok {
		return p
	}
	k := ar.Normalized(c.Aspect())
	minW, minH := c.MinSize()
	w := max(p.Width, minW)
	ht := w / k
	if ht < minH {
		ht = minH
		w = ht * k
	}
	p.Width, p.Height = w, ht
	return p
}
