// Package editor interprets pointer and wheel input over placed photos.
//
// The editor keeps two photo lists. The committed list is the authoritative
// one, owned by the session and mirrored here through [Editor.Sync]. The
// draft list exists only while a drag is in progress: every pointer move
// replaces it with a new copy, and pointer-up either publishes it as the new
// committed list or drops it. Renderers read [Editor.Photos], which returns
// the draft during a drag and the committed list otherwise, so intermediate
// motion is visible without ever reaching history.
//
// Events return an [Outcome]. An outcome carrying photos is a commit that
// the caller must push to its history; the editor never talks to history
// itself.
package editor

import (
	"github.com/uitmedia/framefusion/pkg/geom"
	"github.com/uitmedia/framefusion/pkg/photo"
)

// Default tuning.
const (
	DefaultWheelSensitivity = 0.001
)

// Mode is the gesture state.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanningCrop
	ModeRotating
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModePanningCrop:
		return "panning-crop"
	case ModeRotating:
		return "rotating"
	}
	return "idle"
}

// Outcome is what an input event did.
type Outcome struct {
	// Photos is the new committed list, or nil when nothing was committed.
	Photos []photo.Photo
	// Selected is the selection after the event, -1 for none.
	Selected int
	// Reordered is set when the commit was a stacking-order change.
	Reordered bool
}

// Committed reports whether the event produced a new committed list.
func (o Outcome) Committed() bool { return o.Photos != nil }

// Editor is the photo gesture state machine. It is not safe for concurrent
// use.
type Editor struct {
	viewport    Viewport
	chrome      geom.Chrome
	sensitivity float64
	minScale    float64

	photos   []photo.Photo
	draft    []photo.Photo
	selected int

	mode        Mode
	target      int
	start       geom.Point
	startPhoto  photo.Photo
	startOffset float64
}

// Option configures an Editor.
type Option func(*Editor)

// WithChrome overrides the selection affordance sizes.
func WithChrome(c geom.Chrome) Option {
	return func(e *Editor) { e.chrome = c }
}

// WithWheelSensitivity sets the zoom change per wheel delta unit.
func WithWheelSensitivity(s float64) Option {
	return func(e *Editor) {
		if s > 0 {
			e.sensitivity = s
		}
	}
}

// WithMinScale sets the crop scale floor.
func WithMinScale(s float64) Option {
	return func(e *Editor) {
		if s > 0 {
			e.minScale = s
		}
	}
}

// New creates an editor over a committed photo list with nothing selected.
func New(photos []photo.Photo, v Viewport, opts ...Option) *Editor {
	e := &Editor{
		viewport:    v,
		chrome:      geom.DefaultChrome(),
		sensitivity: DefaultWheelSensitivity,
		minScale:    geom.MinCropScale,
		photos:      photos,
		selected:    -1,
		target:      -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Viewport returns the current viewport.
func (e *Editor) Viewport() Viewport { return e.viewport }

// SetViewport updates the viewport, e.g. after a resize or a change of the
// global scale.
func (e *Editor) SetViewport(v Viewport) { e.viewport = v }

// Chrome returns the affordance sizes in CSS pixels.
func (e *Editor) Chrome() geom.Chrome { return e.chrome }

// Photos returns the list to render: the draft during a drag, the committed
// list otherwise. The returned slice must not be modified.
func (e *Editor) Photos() []photo.Photo {
	if e.draft != nil {
		return e.draft
	}
	return e.photos
}

// Committed returns the committed list.
func (e *Editor) Committed() []photo.Photo { return e.photos }

// Selected returns the selected index, -1 for none.
func (e *Editor) Selected() int { return e.selected }

// Mode returns the gesture state.
func (e *Editor) Mode() Mode { return e.mode }

// Dragging reports whether a drag is in progress.
func (e *Editor) Dragging() bool { return e.mode != ModeIdle }

// Select sets the selection. Out-of-range indexes clear it.
func (e *Editor) Select(i int) {
	if i < 0 || i >= len(e.photos) {
		i = -1
	}
	e.selected = i
}

// Sync replaces the committed list, for example after undo. Any drag in
// progress is dropped.
func (e *Editor) Sync(photos []photo.Photo, selected int) {
	e.Cancel()
	e.photos = photos
	e.Select(selected)
}

// Cancel drops the draft of a drag in progress.
func (e *Editor) Cancel() {
	e.draft = nil
	e.mode = ModeIdle
	e.target = -1
}

// Hit returns what lies under p.
func (e *Editor) Hit(p geom.Point) Hit {
	return HitTest(e.Photos(), e.selected, e.viewport, e.chrome, p)
}

// Cursor returns the CSS cursor for a pointer hovering at p.
func (e *Editor) Cursor(p geom.Point) string {
	switch e.mode {
	case ModeRotating:
		return "crosshair"
	case ModePanningCrop:
		return "move"
	}
	return e.Hit(p).Region.Cursor()
}

// =============================================================================
// Pointer events
// =============================================================================

// PointerDown starts a gesture at p, in canvas pixels. A layer button
// commits a reorder at once. The rotate knob and the body start a drag on a
// draft copy. Empty space clears selection.
func (e *Editor) PointerDown(p geom.Point) Outcome {
	e.Cancel()
	hit := HitTest(e.photos, e.selected, e.viewport, e.chrome, p)

	switch hit.Region {
	case RegionBackward, RegionForward:
		dir := photo.Backward
		if hit.Region == RegionForward {
			dir = photo.Forward
		}
		out, idx := photo.Reorder(e.photos, hit.Index, dir)
		e.photos = out
		e.selected = idx
		return Outcome{Photos: out, Selected: idx, Reordered: true}

	case RegionRotate:
		e.begin(ModeRotating, hit.Index, p)
		box := e.viewport.Box(e.startPhoto.Transform)
		e.startOffset = box.AngleTo(p) - geom.Radians(e.startPhoto.Transform.Rotation)

	case RegionBody:
		e.begin(ModePanningCrop, hit.Index, p)

	default:
		e.selected = -1
	}
	return Outcome{Selected: e.selected}
}

func (e *Editor) begin(mode Mode, i int, p geom.Point) {
	e.selected = i
	e.mode = mode
	e.target = i
	e.start = p
	e.startPhoto = e.photos[i]
	e.draft = photo.Clone(e.photos)
}

// PointerMove updates the draft and reports whether it changed.
func (e *Editor) PointerMove(p geom.Point) bool {
	if e.mode == ModeIdle {
		return false
	}
	if e.target < 0 || e.target >= len(e.draft) {
		e.Cancel()
		return false
	}

	cur := e.startPhoto
	switch e.mode {
	case ModePanningCrop:
		cur.Crop = e.startPhoto.Crop.Pan(p.X-e.start.X, p.Y-e.start.Y)
	case ModeRotating:
		box := e.viewport.Box(e.startPhoto.Transform)
		cur.Transform.Rotation = geom.Degrees(box.AngleTo(p) - e.startOffset)
	}
	e.draft = photo.Replace(e.draft, e.target, cur)
	return true
}

// PointerUp ends the gesture. A drag that changed its photo commits exactly
// once. The target is checked against the committed list so a draft is
// never written into a slot that now holds a different photo.
func (e *Editor) PointerUp() Outcome {
	if e.mode == ModeIdle {
		return Outcome{Selected: e.selected}
	}
	i, draft, start := e.target, e.draft, e.startPhoto
	e.Cancel()

	if i < 0 || i >= len(draft) || i >= len(e.photos) || e.photos[i] != start {
		return Outcome{Selected: e.selected}
	}
	updated := draft[i]
	if updated == e.photos[i] {
		return Outcome{Selected: e.selected}
	}
	e.photos = photo.Replace(e.photos, i, updated)
	return Outcome{Photos: e.photos, Selected: e.selected}
}

// PointerLeave is treated like a release.
func (e *Editor) PointerLeave() Outcome {
	return e.PointerUp()
}

// Wheel zooms the selected photo's crop when the pointer is over it or over
// nothing at all. Wheel input during a drag is ignored.
func (e *Editor) Wheel(p geom.Point, deltaY float64) Outcome {
	if e.mode != ModeIdle || e.selected < 0 || e.selected >= len(e.photos) {
		return Outcome{Selected: e.selected}
	}
	hit := HitTest(e.photos, e.selected, e.viewport, e.chrome, p)
	if hit.Index != -1 && hit.Index != e.selected {
		return Outcome{Selected: e.selected}
	}
	e.photos = photo.Update(e.photos, e.selected, func(ph photo.Photo) photo.Photo {
		ph.Crop = ph.Crop.Zoom(deltaY, e.sensitivity, e.minScale)
		return ph
	})
	return Outcome{Photos: e.photos, Selected: e.selected}
}
