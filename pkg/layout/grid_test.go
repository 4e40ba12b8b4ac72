package layout

import (
	"math"
	"testing"

	"github.com/uitmedia/framefusion/pkg/errors"
)

func TestGrid(t *testing.T) {
	slots, err := Grid(2, 2, 0.02, "", portrait)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 4 {
		t.Fatalf("got %d slots, want 4", len(slots))
	}
	if slots[0].ID != "slot-1" || slots[3].ID != "slot-4" {
		t.Errorf("ids = %s..%s", slots[0].ID, slots[3].ID)
	}
	cell := (1 - 0.02*3) / 2
	if math.Abs(slots[1].X-(0.02+cell+0.02)) > tol || math.Abs(slots[2].Y-(0.02+cell+0.02)) > tol {
		t.Errorf("slot 2 at x=%g, slot 3 at y=%g", slots[1].X, slots[2].Y)
	}
	last := slots[3]
	if math.Abs(last.X+last.Width-0.98) > tol || math.Abs(last.Y+last.Height-0.98) > tol {
		t.Errorf("last slot ends at %g,%g, want 0.98", last.X+last.Width, last.Y+last.Height)
	}
	doc := Document{Slots: slots}
	if err := doc.Validate(); err != nil {
		t.Errorf("grid does not validate: %v", err)
	}
}

func TestGridRatio(t *testing.T) {
	slots, err := Grid(3, 1, 0.05, "4:3", portrait)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range slots {
		if got := pixelRatio(s, portrait); math.Abs(got-4.0/3) > 1e-6 {
			t.Errorf("%s pixel ratio = %g, want 4/3", s.ID, got)
		}
		if s.AspectRatio != "4:3" {
			t.Errorf("%s constraint = %q", s.ID, s.AspectRatio)
		}
		if s.X < 0.05-tol || s.X+s.Width > 0.95+tol {
			t.Errorf("%s leaves its cell: x=%g w=%g", s.ID, s.X, s.Width)
		}
	}
}

func TestGridErrors(t *testing.T) {
	tests := []struct {
		name   string
		rows   int
		cols   int
		margin float64
		ratio  string
		code   errors.Code
	}{
		{"no rows", 0, 2, 0, "", errors.ErrCodeInvalidLayout},
		{"negative margin", 1, 1, -0.1, "", errors.ErrCodeInvalidLayout},
		{"margin too wide", 1, 4, 0.2, "", errors.ErrCodeInvalidLayout},
		{"bad ratio", 1, 1, 0, "wide", errors.ErrCodeInvalidAspectRatio},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Grid(tt.rows, tt.cols, tt.margin, tt.ratio, portrait)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}
