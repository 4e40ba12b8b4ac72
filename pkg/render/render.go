// Package render composites placed photos and a frame overlay into a raster.
//
// Each photo is drawn in its own rotated frame: translate to the box center,
// rotate, clip to the unrotated box, then draw the source aspect-filled to
// cover the box, zoomed by the crop scale and offset by the crop pan. The
// affine resampling is done with golang.org/x/image/draw; the rotated clip is
// a coverage mask rasterized with gg. Selection affordances are stroked with
// gg on an overlay layer. The frame is always drawn last, on top of
// everything including the selection.
//
// Bitmaps are looked up on every draw. A photo whose bitmap has not arrived
// yet is skipped for that frame; the next frame picks it up.
package render

import (
	"image"
	"image/color"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/uitmedia/framefusion/pkg/geom"
	"github.com/uitmedia/framefusion/pkg/photo"
)

// Bitmaps resolves a photo source to a decoded image. It reports false
// while the image is not available yet.
type Bitmaps interface {
	Bitmap(src string) (image.Image, bool)
}

// BitmapFunc adapts a function to Bitmaps.
type BitmapFunc func(src string) (image.Image, bool)

// Bitmap calls f.
func (f BitmapFunc) Bitmap(src string) (image.Image, bool) { return f(src) }

// Scene is everything one frame draws.
type Scene struct {
	Width, Height int // backing-store size in device pixels

	Frame        image.Image // optional overlay, stretched to the canvas
	FrameOpacity float64     // 0..1

	Photos      []photo.Photo
	Selected    int     // -1 for none
	GlobalScale float64 // uniform size multiplier, 1 when unset
	DPR         float64 // device pixel ratio for affordance sizes

	// PanScale multiplies crop pan offsets. Pan is stored in the pixels of
	// the surface it was made on; export sets this to the ratio between
	// the export and preview widths.
	PanScale float64
}

func (s Scene) scale() float64 {
	if s.GlobalScale <= 0 {
		return 1
	}
	return s.GlobalScale
}

func (s Scene) panScale() float64 {
	if s.PanScale <= 0 {
		return 1
	}
	return s.PanScale
}

func (s Scene) dpr() float64 {
	if s.DPR <= 0 {
		return 1
	}
	return s.DPR
}

// Renderer draws scenes. It holds no per-frame state and may be shared.
type Renderer struct {
	bitmaps Bitmaps
	style   Style
	chrome  geom.Chrome
	interp  draw.Interpolator
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithChrome overrides the selection affordance sizes.
func WithChrome(c geom.Chrome) Option {
	return func(r *Renderer) { r.chrome = c }
}

// WithInterpolator sets the resampling kernel. The default is bilinear.
func WithInterpolator(i draw.Interpolator) Option {
	return func(r *Renderer) {
		if i != nil {
			r.interp = i
		}
	}
}

// Resampling names accepted by ParseResampling.
var resampling = map[string]draw.Interpolator{
	"nearest":         draw.NearestNeighbor,
	"approx-bilinear": draw.ApproxBiLinear,
	"bilinear":        draw.BiLinear,
	"catmull-rom":     draw.CatmullRom,
}

// DefaultResampling is the kernel New uses.
const DefaultResampling = "bilinear"

// ParseResampling returns the kernel called name.
func ParseResampling(name string) (draw.Interpolator, bool) {
	i, ok := resampling[strings.ToLower(name)]
	return i, ok
}

// New creates a renderer.
func New(bitmaps Bitmaps, style Style, opts ...Option) *Renderer {
	r := &Renderer{
		bitmaps: bitmaps,
		style:   style,
		chrome:  geom.DefaultChrome(),
		interp:  draw.BiLinear,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Style returns the renderer's colors.
func (r *Renderer) Style() Style { return r.style }

// Render allocates a canvas of the scene's size and draws into it.
func (r *Renderer) Render(s Scene) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(s.Width, 1), max(s.Height, 1)))
	r.Draw(dst, s)
	return dst
}

// Draw paints s onto dst, which must have its origin at (0,0).
func (r *Renderer) Draw(dst *image.RGBA, s Scene) {
	fill(dst, r.style.Background)

	for _, p := range s.Photos {
		r.drawPhoto(dst, p, s.scale(), s.panScale())
	}

	if s.Selected >= 0 && s.Selected < len(s.Photos) {
		r.drawSelection(dst, s)
	}

	drawFrame(dst, s.Frame, s.FrameOpacity, r.interp)
}

func fill(dst *image.RGBA, c color.Color) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// drawPhoto draws p clipped to its rotated box.
func (r *Renderer) drawPhoto(dst *image.RGBA, p photo.Photo, scale, panScale float64) {
	if r.bitmaps == nil {
		return
	}
	img, ok := r.bitmaps.Bitmap(p.Src)
	if !ok || img == nil {
		return
	}
	sr := img.Bounds()
	if sr.Empty() {
		return
	}

	b := dst.Bounds()
	box := geom.Place(p.Transform, float64(b.Dx()), float64(b.Dy()), scale)
	if box.W <= 0 || box.H <= 0 {
		return
	}

	aw, ah := float64(p.OriginalWidth), float64(p.OriginalHeight)
	if aw <= 0 || ah <= 0 {
		aw, ah = float64(sr.Dx()), float64(sr.Dy())
	}
	crop := p.Crop.ClampScale(geom.MinCropScale)
	dw, dh := geom.AspectFill(aw, ah, box.W, box.H)
	dw *= crop.Scale
	dh *= crop.Scale

	mask := clipMask(box, b)
	if mask == nil {
		return
	}

	// Source pixels to local coordinates: scale to the display size, then
	// center on the origin and apply the pan.
	sx, sy := dw/float64(sr.Dx()), dh/float64(sr.Dy())
	local := gg.Matrix{
		A: sx, C: -dw/2 + crop.X*panScale - sx*float64(sr.Min.X),
		E: sy, F: -dh/2 + crop.Y*panScale - sy*float64(sr.Min.Y),
	}
	m := box.Matrix().Multiply(local)

	r.interp.Transform(dst, aff3(m), img, sr, draw.Over, &draw.Options{DstMask: mask})
}

func aff3(m gg.Matrix) f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
}

// clipMask rasterizes the rotated box as a coverage mask. The mask's
// rectangle is set to the area it covers in dst, so it can be passed as a
// DstMask with a zero DstMaskP.
func clipMask(box geom.Box, bounds image.Rectangle) *image.RGBA {
	area := box.Bounds().Inset(-1).Intersect(bounds)
	if area.Empty() {
		return nil
	}

	dc := gg.NewContext(area.Dx(), area.Dy())
	defer dc.Close()
	dc.SetTransform(gg.Translate(-float64(area.Min.X), -float64(area.Min.Y)).Multiply(box.Matrix()))
	dc.DrawRectangle(-box.W/2, -box.H/2, box.W, box.H)
	dc.SetRGBA(1, 1, 1, 1)
	if err := dc.Fill(); err != nil {
		return nil
	}

	mask := toRGBA(dc.Image())
	mask.Rect = area
	return mask
}

// toRGBA returns img as *image.RGBA, converting when needed.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// drawFrame stretches frame over dst at the given opacity.
func drawFrame(dst *image.RGBA, frame image.Image, opacity float64, interp draw.Interpolator) {
	if frame == nil || opacity <= 0 {
		return
	}
	var mask image.Image
	if opacity < 1 {
		mask = image.NewUniform(color.Alpha16{A: uint16(opacity * 0xffff)})
	}

	fb, db := frame.Bounds(), dst.Bounds()
	if fb.Size() == db.Size() {
		draw.DrawMask(dst, db, frame, fb.Min, mask, image.Point{}, draw.Over)
		return
	}
	interp.Scale(dst, db, frame, fb, draw.Over, &draw.Options{DstMask: mask})
}
