package geom

import (
	"strconv"
	"strings"

	"github.com/uitmedia/framefusion/pkg/errors"
)

// AspectRatio is a width:height constraint such as 4:3.
type AspectRatio struct {
	W, H float64
}

// ParseAspectRatio parses a "w:h" string. Both terms must be positive
// numbers.
func ParseAspectRatio(s string) (AspectRatio, error) {
	ws, hs, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return AspectRatio{}, errors.New(errors.ErrCodeInvalidAspectRatio, "aspect ratio %q is not of the form w:h", s)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(ws), 64)
	if err != nil {
		return AspectRatio{}, errors.Wrap(errors.ErrCodeInvalidAspectRatio, err, "aspect ratio %q", s)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if err != nil {
		return AspectRatio{}, errors.Wrap(errors.ErrCodeInvalidAspectRatio, err, "aspect ratio %q", s)
	}
	if !(w > 0) || !(h > 0) {
		return AspectRatio{}, errors.New(errors.ErrCodeInvalidAspectRatio, "aspect ratio %q must have positive terms", s)
	}
	return AspectRatio{W: w, H: h}, nil
}

// String formats the ratio as "w:h".
func (a AspectRatio) String() string {
	return strconv.FormatFloat(a.W, 'f', -1, 64) + ":" + strconv.FormatFloat(a.H, 'f', -1, 64)
}

// Value returns W/H.
func (a AspectRatio) Value() float64 {
	return a.W / a.H
}

// Normalized returns the width/height ratio a rectangle must have in
// normalized units to look like a on a canvas whose pixel aspect
// (width/height) is canvasAspect.
func (a AspectRatio) Normalized(canvasAspect float64) float64 {
	if canvasAspect <= 0 {
		canvasAspect = 1
	}
	return a.Value() / canvasAspect
}
