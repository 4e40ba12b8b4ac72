package render

import (
	"image"
	"strconv"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/uitmedia/framefusion/pkg/geom"
	"github.com/uitmedia/framefusion/pkg/layout"
)

// =============================================================================
// Layout designer
// =============================================================================

// LayoutScene is one frame of the placeholder designer.
type LayoutScene struct {
	Width, Height int
	Frame         image.Image
	Slots         []layout.Placeholder
	Selected      string  // id of the selected slot, empty for none
	DPR           float64 // scales outlines and handles
	HandleSize    float64 // CSS pixels, layout.DefaultHandleSize when zero
}

// DrawLayout paints the frame under translucent placeholders. The selected
// placeholder gets a heavier outline and its eight resize handles.
func (r *Renderer) DrawLayout(dst *image.RGBA, s LayoutScene) {
	fill(dst, r.style.Background)
	drawFrame(dst, s.Frame, 1, r.interp)

	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	dpr := s.DPR
	if dpr <= 0 {
		dpr = 1
	}
	hs := s.HandleSize
	if hs <= 0 {
		hs = layout.DefaultHandleSize
	}

	dc := gg.NewContext(b.Dx(), b.Dy())
	defer dc.Close()
	if err := r.paintLayout(dc, s, w, h, dpr, hs); err == nil {
		draw.Draw(dst, b, dc.Image(), image.Point{}, draw.Over)
	}

	for i, p := range s.Slots {
		x, y, pw, ph := p.Rect().Pixels(w, h)
		r.label(dst, slotLabel(i, p), geom.Pt(x+pw/2, y+ph/2))
	}
}

// paintLayout rasterizes the placeholder outlines and the selected one's
// handles.
func (r *Renderer) paintLayout(dc *gg.Context, s LayoutScene, w, h, dpr, hs float64) error {
	var selected *layout.Placeholder
	for i := range s.Slots {
		p := s.Slots[i]
		x, y, pw, ph := p.Rect().Pixels(w, h)

		dc.DrawRectangle(x, y, pw, ph)
		dc.SetColor(r.style.SlotFill)
		if err := dc.FillPreserve(); err != nil {
			return err
		}
		dc.SetColor(r.style.SlotStroke)
		dc.SetLineWidth(dpr)
		if err := dc.Stroke(); err != nil {
			return err
		}

		if p.ID == s.Selected {
			selected = &s.Slots[i]
		}
	}
	if selected == nil {
		return nil
	}

	x, y, pw, ph := selected.Rect().Pixels(w, h)
	dc.DrawRectangle(x, y, pw, ph)
	dc.SetColor(r.style.Primary)
	dc.SetLineWidth(2 * dpr)
	if err := dc.Stroke(); err != nil {
		return err
	}

	half := hs * dpr / 2
	for _, hd := range layout.Handles {
		nx, ny := hd.Position(selected.Rect())
		hx, hy := nx*w, ny*h
		dc.DrawRectangle(hx-half, hy-half, 2*half, 2*half)
		dc.SetColor(r.style.Handle)
		if err := dc.FillPreserve(); err != nil {
			return err
		}
		dc.SetColor(r.style.Primary)
		dc.SetLineWidth(dpr)
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	return nil
}

func slotLabel(i int, p layout.Placeholder) string {
	s := "Slot " + strconv.Itoa(i+1)
	if p.AspectRatio != "" {
		s += " (" + p.AspectRatio + ")"
	}
	return s
}

// =============================================================================
// Slot preview
// =============================================================================

// SlotScene is one frame of the slot-filling preview. Slots are drawn
// unrotated; each filled slot shows its photo aspect-filled.
type SlotScene struct {
	Width, Height int
	Frame         image.Image
	FrameOpacity  float64
	Slots         []geom.Rect
	Sources       []string // one per slot, empty when unfilled
	DragOver      int      // slot under a drag in progress, -1 for none
	DPR           float64
}

// DrawSlots paints filled slots with their photos and empty slots tinted
// and labelled. The drag target is outlined and the frame goes on top.
func (r *Renderer) DrawSlots(dst *image.RGBA, s SlotScene) {
	fill(dst, r.style.Background)

	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	dpr := s.DPR
	if dpr <= 0 {
		dpr = 1
	}

	var empty []int
	for i, rect := range s.Slots {
		src := ""
		if i < len(s.Sources) {
			src = s.Sources[i]
		}
		if src == "" || !r.drawSlotPhoto(dst, src, rect) {
			empty = append(empty, i)
		}
	}

	dc := gg.NewContext(b.Dx(), b.Dy())
	defer dc.Close()
	if err := r.paintSlots(dc, s, empty, w, h, dpr); err == nil {
		draw.Draw(dst, b, dc.Image(), image.Point{}, draw.Over)
	}

	for _, i := range empty {
		x, y, pw, ph := s.Slots[i].Pixels(w, h)
		r.label(dst, "Slot "+strconv.Itoa(i+1), geom.Pt(x+pw/2, y+ph/2))
	}

	drawFrame(dst, s.Frame, s.FrameOpacity, r.interp)
}

// drawSlotPhoto aspect-fills src into rect. It reports false when the
// bitmap is not available.
func (r *Renderer) drawSlotPhoto(dst *image.RGBA, src string, rect geom.Rect) bool {
	if r.bitmaps == nil {
		return false
	}
	img, ok := r.bitmaps.Bitmap(src)
	if !ok || img == nil || img.Bounds().Empty() {
		return false
	}
	b := dst.Bounds()
	x, y, w, h := rect.Pixels(float64(b.Dx()), float64(b.Dy()))
	cell := image.Rect(int(x), int(y), int(x+w), int(y+h)).Intersect(b)
	if cell.Empty() {
		return false
	}

	sr := img.Bounds()
	dw, dh := geom.AspectFill(float64(sr.Dx()), float64(sr.Dy()), w, h)
	sx, sy := dw/float64(sr.Dx()), dh/float64(sr.Dy())
	cx, cy := x+w/2, y+h/2
	m := gg.Matrix{
		A: sx, C: cx - dw/2 - sx*float64(sr.Min.X),
		E: sy, F: cy - dh/2 - sy*float64(sr.Min.Y),
	}
	sub := dst.SubImage(cell).(*image.RGBA)
	r.interp.Transform(sub, aff3(m), img, sr, draw.Over, nil)
	return true
}

// label draws text centered on at.
func (r *Renderer) label(dst *image.RGBA, text string, at geom.Point) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(r.style.Label),
		Face: face,
	}
	width := d.MeasureString(text)
	m := face.Metrics()
	d.Dot = fixed.P(int(at.X), int(at.Y)).
		Sub(fixed.Point26_6{X: width / 2}).
		Add(fixed.Point26_6{Y: (m.Ascent - m.Descent) / 2})
	d.DrawString(text)
}

// paintSlots rasterizes the empty slot tints and the drag target outline.
func (r *Renderer) paintSlots(dc *gg.Context, s SlotScene, empty []int, w, h, dpr float64) error {
	for _, i := range empty {
		x, y, pw, ph := s.Slots[i].Pixels(w, h)
		dc.DrawRectangle(x, y, pw, ph)
		dc.SetColor(r.style.SlotEmpty)
		if err := dc.FillPreserve(); err != nil {
			return err
		}
		dc.SetColor(r.style.SlotStroke)
		dc.SetLineWidth(dpr)
		dc.SetDash(4*dpr, 4*dpr)
		err := dc.Stroke()
		dc.ClearDash()
		if err != nil {
			return err
		}
	}
	if s.DragOver >= 0 && s.DragOver < len(s.Slots) {
		x, y, pw, ph := s.Slots[s.DragOver].Pixels(w, h)
		dc.DrawRectangle(x, y, pw, ph)
		dc.SetColor(r.style.Primary)
		dc.SetLineWidth(3 * dpr)
		return dc.Stroke()
	}
	return nil
}
