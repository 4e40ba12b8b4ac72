package render

import (
	"image"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"github.com/uitmedia/framefusion/pkg/geom"
	"github.com/uitmedia/framefusion/pkg/photo"
)

// drawSelection paints the selected photo's outline, rotate knob and layer
// buttons. The affordances are rasterized onto a transparent overlay in the
// photo's local frame and composited over dst. If rasterizing fails the
// overlay is dropped for this frame.
func (r *Renderer) drawSelection(dst *image.RGBA, s Scene) {
	b := dst.Bounds()
	dpr := s.dpr()
	c := r.chrome.Scaled(dpr)

	p := s.Photos[s.Selected]
	box := geom.Place(p.Transform, float64(b.Dx()), float64(b.Dy()), s.scale())
	if box.W <= 0 || box.H <= 0 {
		return
	}

	dc := gg.NewContext(b.Dx(), b.Dy())
	defer dc.Close()
	dc.SetTransform(box.Matrix())

	if err := r.paintSelection(dc, box, c, len(s.Photos), s.Selected, dpr); err != nil {
		return
	}
	draw.Draw(dst, b, dc.Image(), image.Point{}, draw.Over)
}

func (r *Renderer) paintSelection(dc *gg.Context, box geom.Box, c geom.Chrome, n, selected int, dpr float64) error {
	// Outline.
	dc.SetColor(r.style.Primary)
	dc.SetLineWidth(2 * dpr)
	dc.DrawRectangle(-box.W/2, -box.H/2, box.W, box.H)
	if err := dc.Stroke(); err != nil {
		return err
	}

	// Stalk and knob.
	knob := c.RotateKnob(box)
	dc.SetColor(r.style.Stalk)
	dc.SetLineWidth(1.5 * dpr)
	dc.DrawLine(0, -box.H/2, knob.X, knob.Y+c.RotateRadius)
	if err := dc.Stroke(); err != nil {
		return err
	}

	dc.DrawCircle(knob.X, knob.Y, c.RotateRadius)
	dc.SetColor(r.style.Primary)
	if err := dc.FillPreserve(); err != nil {
		return err
	}
	dc.SetColor(r.style.Glyph)
	dc.SetLineWidth(1.5 * dpr)
	if err := dc.Stroke(); err != nil {
		return err
	}

	if photo.CanMove(n, selected, photo.Backward) {
		if err := r.paintButton(dc, c.BackwardButton(box), c.ButtonSize, photo.Backward, dpr); err != nil {
			return err
		}
	}
	if photo.CanMove(n, selected, photo.Forward) {
		if err := r.paintButton(dc, c.ForwardButton(box), c.ButtonSize, photo.Forward, dpr); err != nil {
			return err
		}
	}
	return nil
}

// paintButton draws a round layer button with a chevron pointing down for
// send-backward and up for bring-forward.
func (r *Renderer) paintButton(dc *gg.Context, at geom.Point, size float64, dir photo.Direction, dpr float64) error {
	dc.DrawCircle(at.X, at.Y, size/2)
	dc.SetColor(withAlpha(r.style.Primary, 0.9))
	if err := dc.Fill(); err != nil {
		return err
	}

	arm := size * 0.25
	v := 1.0 // +y is down
	if dir == photo.Forward {
		v = -1
	}
	dc.MoveTo(at.X-arm, at.Y-v*arm/2)
	dc.LineTo(at.X, at.Y+v*arm/2)
	dc.LineTo(at.X+arm, at.Y-v*arm/2)
	dc.SetColor(r.style.Glyph)
	dc.SetLineWidth(2 * dpr)
	dc.SetLineCap(gg.LineCapRound)
	return dc.Stroke()
}
