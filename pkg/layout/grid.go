package layout

import (
	"fmt"

	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/geom"
)

// Grid returns rows*cols slots, row by row, with margin between them and
// around the edge in normalized units. With a ratio, every slot carries it
// as its constraint and is shrunk to fit its cell, centered. Slot ids are
// "slot-1", "slot-2", ...
func Grid(rows, cols int, margin float64, ratio string, c Canvas) ([]Placeholder, error) {
	if rows < 1 || cols < 1 {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "grid needs at least one row and column, got %dx%d", rows, cols)
	}
	if margin < 0 {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "grid margin must not be negative")
	}
	cw := (1 - margin*float64(cols+1)) / float64(cols)
	ch := (1 - margin*float64(rows+1)) / float64(rows)
	if cw <= 0 || ch <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "grid margin %g leaves no room for %dx%d slots", margin, rows, cols)
	}

	var k float64
	if ratio != "" {
		ar, err := geom.ParseAspectRatio(ratio)
		if err != nil {
			return nil, err
		}
		k = ar.Normalized(c.Aspect())
	}

	out := make([]Placeholder, 0, rows*cols)
	for r := range rows {
		for col := range cols {
			cell := geom.Rect{
				X:      margin + float64(col)*(cw+margin),
				Y:      margin + float64(r)*(ch+margin),
				Width:  cw,
				Height: ch,
			}
			if k > 0 {
				cell = fit(cell, k)
			}
			out = append(out, Placeholder{ID: fmt.Sprintf("slot-%d", len(out)+1), AspectRatio: ratio}.WithRect(cell))
		}
	}
	return out, nil
}

// fit returns the largest rectangle with width/height k centered in r.
func fit(r geom.Rect, k float64) geom.Rect {
	w, h := r.Width, r.Width/k
	if h > r.Height {
		w, h = r.Height*k, r.Height
	}
	return geom.Rect{X: r.X + (r.Width-w)/2, Y: r.Y + (r.Height-h)/2, Width: w, Height: h}
}
