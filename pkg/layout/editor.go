package layout

import (
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/geom"
)

// DefaultHandleSize is the half-extent of a handle's pick square, in CSS
// pixels.
const DefaultHandleSize = 10

// Mode is the designer's pointer state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeMoving
	ModeResizing
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeMoving:
		return "moving"
	case ModeResizing:
		return "resizing"
	}
	return "idle"
}

// Editor edits an ordered list of slots. It is not safe for concurrent use.
type Editor struct {
	canvas     Canvas
	slots      []Placeholder
	selected   string
	handleSize float64
	newID      func() string

	mode      Mode
	handle    Handle
	start     geom.Point
	startSlot Placeholder
}

// Option configures an Editor.
type Option func(*Editor)

// WithHandleSize sets the handle pick size in CSS pixels.
func WithHandleSize(px float64) Option {
	return func(e *Editor) {
		if px > 0 {
			e.handleSize = px
		}
	}
}

// WithIDFunc replaces the slot id generator.
func WithIDFunc(fn func() string) Option {
	return func(e *Editor) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEditor creates a designer over an initial slot list.
func NewEditor(c Canvas, slots []Placeholder, opts ...Option) *Editor {
	e := &Editor{
		canvas:     c,
		slots:      slices.Clone(slots),
		handleSize: DefaultHandleSize,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Canvas returns the current canvas.
func (e *Editor) Canvas() Canvas { return e.canvas }

// SetCanvas updates the canvas after a resize. Slots keep their normalized
// geometry.
func (e *Editor) SetCanvas(c Canvas) { e.canvas = c }

// Slots returns a copy of the slot list.
func (e *Editor) Slots() []Placeholder { return slices.Clone(e.slots) }

// Len returns the number of slots.
func (e *Editor) Len() int { return len(e.slots) }

// Mode returns the pointer state.
func (e *Editor) Mode() Mode { return e.mode }

// Load replaces every slot and clears selection.
func (e *Editor) Load(slots []Placeholder) {
	e.slots = slices.Clone(slots)
	e.selected = ""
	e.mode = ModeIdle
}

func (e *Editor) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(e.slots, func(p Placeholder) bool { return p.ID == id })
}

// Selected returns the selected slot.
func (e *Editor) Selected() (Placeholder, bool) {
	i := e.indexOf(e.selected)
	if i < 0 {
		return Placeholder{}, false
	}
	return e.slots[i], true
}

// Select selects the slot with id, or clears selection when id is unknown.
func (e *Editor) Select(id string) bool {
	if e.indexOf(id) < 0 {
		e.selected = ""
		return false
	}
	e.selected = id
	return true
}

// AddSlot appends a slot at the default position and selects it. Its height
// approximates a 2:3 portrait on the current canvas.
func (e *Editor) AddSlot() Placeholder {
	p := Placeholder{
		ID:     e.newID(),
		X:      0.1,
		Y:      0.1,
		Width:  0.25,
		Height: 0.25 * e.canvas.Aspect() * 1.5,
	}
	e.slots = append(e.slots, p)
	e.selected = p.ID
	return p
}

// RemoveSelected deletes the selected slot and reports whether one was
// removed.
func (e *Editor) RemoveSelected() bool {
	i := e.indexOf(e.selected)
	if i < 0 {
		return false
	}
	e.slots = slices.Delete(e.slots, i, i+1)
	e.selected = ""
	e.mode = ModeIdle
	return true
}

// SetAspectRatio sets or, with an empty ratio, clears the constraint on the
// selected slot. Setting a constraint resizes the slot at once.
func (e *Editor) SetAspectRatio(ratio string) error {
	i := e.indexOf(e.selected)
	if i < 0 {
		return nil
	}
	if ratio == "" {
		e.slots[i].AspectRatio = ""
		return nil
	}
	ar, err := geom.ParseAspectRatio(ratio)
	if err != nil {
		return err
	}
	p := e.slots[i]
	p.AspectRatio = ar.String()
	e.slots[i] = ApplyRatio(p, e.canvas)
	return nil
}

// Resize applies a handle drag of (dx,dy) normalized units to the selected
// slot.
func (e *Editor) Resize(h Handle, dx, dy float64) {
	if i := e.indexOf(e.selected); i >= 0 {
		e.slots[i] = Resize(e.slots[i], h, dx, dy, e.canvas)
	}
}

// Move translates the selected slot by (dx,dy) normalized units. Slots may
// overlap and may leave the canvas.
func (e *Editor) Move(dx, dy float64) {
	if i := e.indexOf(e.selected); i >= 0 {
		e.slots[i] = e.slots[i].WithRect(e.slots[i].Rect().Translate(dx, dy))
	}
}

// Confirm returns the final slot order. An empty layout is refused.
func (e *Editor) Confirm() ([]Placeholder, error) {
	if len(e.slots) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "add at least one photo slot")
	}
	return slices.Clone(e.slots), nil
}

// =============================================================================
// Pointer state machine
// =============================================================================

func (e *Editor) pixels(r geom.Rect) (x, y, w, h float64) {
	return r.Pixels(e.canvas.Width, e.canvas.Height)
}

// handleAt returns the handle of the selected slot under p.
func (e *Editor) handleAt(p geom.Point) Handle {
	sel, ok := e.Selected()
	if !ok {
		return HandleNone
	}
	size := e.handleSize * e.canvas.dpr()
	r := sel.Rect()
	for _, h := range Handles {
		nx, ny := h.Position(r)
		hx, hy := nx*e.canvas.Width, ny*e.canvas.Height
		if math.Abs(p.X-hx) <= size && math.Abs(p.Y-hy) <= size {
			return h
		}
	}
	return HandleNone
}

// slotAt returns the index of the topmost slot containing p, or -1.
func (e *Editor) slotAt(p geom.Point) int {
	for i := len(e.slots) - 1; i >= 0; i-- {
		x, y, w, h := e.pixels(e.slots[i].Rect())
		if p.X >= x && p.X <= x+w && p.Y >= y && p.Y <= y+h {
			return i
		}
	}
	return -1
}

// PointerDown starts a gesture at p, in canvas pixels. Handles of the
// selected slot win over bodies; bodies are tested topmost first; empty
// space clears selection.
func (e *Editor) PointerDown(p geom.Point) {
	if h := e.handleAt(p); h != HandleNone {
		sel, _ := e.Selected()
		e.mode = ModeResizing
		e.handle = h
		e.start = p
		e.startSlot = sel
		return
	}
	if i := e.slotAt(p); i >= 0 {
		e.selected = e.slots[i].ID
		e.mode = ModeMoving
		e.start = p
		e.startSlot = e.slots[i]
		return
	}
	e.selected = ""
	e.mode = ModeIdle
}

// PointerMove continues the active gesture and reports whether a slot
// changed.
func (e *Editor) PointerMove(p geom.Point) bool {
	if e.mode == ModeIdle {
		return false
	}
	i := e.indexOf(e.startSlot.ID)
	if i < 0 {
		e.mode = ModeIdle
		return false
	}
	dx, dy := e.canvas.Normalize(p.X-e.start.X, p.Y-e.start.Y)
	switch e.mode {
	case ModeMoving:
		e.slots[i] = e.startSlot.WithRect(e.startSlot.Rect().Translate(dx, dy))
	case ModeResizing:
		e.slots[i] = Resize(e.startSlot, e.handle, dx, dy, e.canvas)
	}
	return true
}

// PointerUp ends the active gesture.
func (e *Editor) PointerUp() {
	e.mode = ModeIdle
	e.handle = HandleNone
}

// Cursor returns the CSS cursor for a pointer hovering at p.
func (e *Editor) Cursor(p geom.Point) string {
	if h := e.handleAt(p); h != HandleNone {
		return h.Cursor()
	}
	if e.slotAt(p) >= 0 {
		return "move"
	}
	return "default"
}

// KeyDown handles designer shortcuts and reports whether the key was
// consumed. Delete and Backspace remove the selected slot.
func (e *Editor) KeyDown(key string) bool {
	switch key {
	case "Delete", "Backspace":
		return e.RemoveSelected()
	}
	return false
}
