package photo

import (
	"context"

	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/geom"
)

// Binding pairs a source reference with the index of the placeholder it
// fills.
type Binding struct {
	Src         string `json:"src"`
	Placeholder int    `json:"placeholder"`
}

// Sizer reports the natural pixel dimensions of a source.
type Sizer interface {
	Dimensions(ctx context.Context, src string) (width, height int, err error)
}

// Bind builds the initial photo list for bindings, in binding order. Each
// photo takes its transform from the placeholder it is bound to; several
// sources may share a placeholder.
func Bind(ctx context.Context, slots []geom.Rect, bindings []Binding, sizer Sizer) ([]Photo, error) {
	photos := make([]Photo, 0, len(bindings))
	for _, b := range bindings {
		if b.Placeholder < 0 || b.Placeholder >= len(slots) {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"source %q bound to placeholder %d, layout has %d", b.Src, b.Placeholder, len(slots))
		}
		w, h, err := sizer.Dimensions(ctx, b.Src)
		if err != nil {
			return nil, err
		}
		photos = append(photos, New(b.Src, w, h, slots[b.Placeholder]))
	}
	return photos, nil
}

// InOrder pairs sources with placeholders one to one, in order. Extra
// sources are dropped.
func InOrder(sources []string, slots int) []Binding {
	n := min(len(sources), slots)
	out := make([]Binding, n)
	for i := range n {
		out[i] = Binding{Src: sources[i], Placeholder: i}
	}
	return out
}
