package booth

import (
	"github.com/uitmedia/framefusion/pkg/editor"
	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/geom"
	"github.com/uitmedia/framefusion/pkg/photo"
)

func (s *Session) inEdit(op string) error {
	if s.step != StepEditAndExport {
		return wrongStep(op, StepEditAndExport, s.step)
	}
	return nil
}

// apply pushes an editor outcome to history. The caller holds the lock.
func (s *Session) apply(out editor.Outcome) editor.Outcome {
	if out.Committed() {
		s.photos.Set(out.Photos)
		s.logger.Debug("committed edit", "session", s.id, "photo", out.Selected,
			"reordered", out.Reordered, "entries", s.photos.Len())
	}
	s.touch()
	return out
}

// commit records photos as a new history entry and hands them to the
// editor, dropping any drag in progress.
func (s *Session) commit(photos []photo.Photo, selected int) {
	s.photos.Set(photos)
	s.editor.Sync(s.photos.Current(), selected)
	s.touch()
}

// PointerDown starts a photo gesture at p, in canvas pixels.
func (s *Session) PointerDown(p geom.Point) (editor.Outcome, error) {
	s.lock()
	defer s.unlock()
	if err := s.inEdit("pointer down"); err != nil {
		return editor.Outcome{Selected: -1}, err
	}
	return s.apply(s.editor.PointerDown(p)), nil
}

// PointerMove updates the drag in progress and reports whether the preview
// changed. Nothing is committed.
func (s *Session) PointerMove(p geom.Point) (bool, error) {
	s.lock()
	defer s.unlock()
	if err := s.inEdit("pointer move"); err != nil {
		return false, err
	}
	return s.editor.PointerMove(p), nil
}

// PointerUp ends the gesture, committing it as one history entry.
func (s *Session) PointerUp() (editor.Outcome, error) {
	s.lock()
	defer s.unlock()
	if err := s.inEdit("pointer up"); err != nil {
		return editor.Outcome{Selected: -1}, err
	}
	return s.apply(s.editor.PointerUp()), nil
}

// PointerLeave ends the gesture like a release.
func (s *Session) PointerLeave() (editor.Outcome, error) {
	s.lock()
	defer s.unlock()
	if err := s.inEdit("pointer leave"); err != nil {
		return editor.Outcome{Selected: -1}, err
	}
	return s.apply(s.editor.PointerLeave()), nil
}

// Wheel zooms the selected photo's crop.
func (s *Session) Wheel(p geom.Point, deltaY float64) (editor.Outcome, error) {
	s.lock()
	defer s.unlock()
	if err := s.inEdit("wheel"); err != nil {
		return editor.Outcome{Selected: -1}, err
	}
	return s.apply(s.editor.Wheel(p, deltaY)), nil
}

// Cursor returns the CSS cursor for a pointer hovering at p.
func (s *Session) Cursor(p geom.Point) string {
	s.lock()
	defer s.unlock()
	switch s.step {
	case StepTemplateDesign:
		return s.designer.Cursor(p)
	case StepEditAndExport:
		return s.editor.Cursor(p)
	}
	return "default"
}

// Dragging reports whether a photo gesture is in progress.
func (s *Session) Dragging() bool {
	s.lock()
	defer s.unlock()
	return s.editor.Dragging()
}

// Photos returns the list to render: the drag draft while a gesture is in
// progress, the committed list otherwise.
func (s *Session) Photos() []photo.Photo {
	s.lock()
	defer s.unlock()
	return photo.Clone(s.editor.Photos())
}

// Committed returns the photo list at the history cursor.
func (s *Session) Committed() []photo.Photo {
	s.lock()
	defer s.unlock()
	return photo.Clone(s.photos.Current())
}

// Selected returns the selected photo index, -1 for none.
func (s *Session) Selected() int {
	s.lock()
	defer s.unlock()
	return s.editor.Selected()
}

// Select sets the selected photo. Out-of-range indexes clear it.
func (s *Session) Select(i int) {
	s.lock()
	defer s.unlock()
	s.editor.Select(i)
	s.touch()
}

// =============================================================================
// History
// =============================================================================

// Undo steps back on the current step's history: slot assignments while
// filling slots, photo edits while editing. A drag in progress is dropped.
// At the start of history it does nothing.
func (s *Session) Undo() bool {
	s.lock()
	defer s.unlock()
	return s.undo()
}

// Redo steps forward on the current step's history.
func (s *Session) Redo() bool {
	s.lock()
	defer s.unlock()
	return s.redo()
}

func (s *Session) undo() bool {
	return s.travel(s.fill.Undo, s.photos.Undo)
}

func (s *Session) redo() bool {
	return s.travel(s.fill.Redo, s.photos.Redo)
}

// travel runs the slot or photo variant of a history move for the current
// step and reconciles the dependent state.
func (s *Session) travel(slots, photos func() bool) bool {
	switch s.step {
	case StepPhotoUpload:
		before := s.fill.Current()
		if !slots() {
			return false
		}
		s.reconcileTray(before, s.fill.Current())
		return true
	case StepEditAndExport:
		s.editor.Cancel()
		moved := photos()
		if moved {
			s.editor.Sync(s.photos.Current(), s.editor.Selected())
		}
		s.touch()
		return moved
	}
	return false
}

// CanUndo reports whether Undo would do anything.
func (s *Session) CanUndo() bool {
	s.lock()
	defer s.unlock()
	switch s.step {
	case StepPhotoUpload:
		return s.fill.CanUndo()
	case StepEditAndExport:
		return s.photos.CanUndo()
	}
	return false
}

// CanRedo reports whether Redo would do anything.
func (s *Session) CanRedo() bool {
	s.lock()
	defer s.unlock()
	switch s.step {
	case StepPhotoUpload:
		return s.fill.CanRedo()
	case StepEditAndExport:
		return s.photos.CanRedo()
	}
	return false
}

// =============================================================================
// Direct adjustments
// =============================================================================

func (s *Session) checkPhoto(i int) error {
	if n := len(s.photos.Current()); i < 0 || i >= n {
		return errors.New(errors.ErrCodeInvalidInput, "photo %d out of range (%d photos)", i, n)
	}
	return nil
}

// Reorder moves photo i one step in the stack and selects it at its new
// index.
func (s *Session) Reorder(i int, dir photo.Direction) (int, error) {
	s.lock()
	defer s.unlock()
	if err := s.inEdit("reorder"); err != nil {
		return -1, err
	}
	if err := s.checkPhoto(i); err != nil {
		return -1, err
	}
	out, idx := photo.Reorder(s.photos.Current(), i, dir)
	s.commit(out, idx)
	return idx, nil
}

// SetRotation sets photo i's rotation in degrees.
func (s *Session) SetRotation(i int, degrees float64) error {
	return s.adjust("set rotation", i, func(p photo.Photo) photo.Photo {
		p.Transform.Rotation = degrees
		return p
	})
}

// SetCrop sets photo i's pan and zoom. The scale is clamped to the floor.
func (s *Session) SetCrop(i int, c geom.Crop) error {
	return s.adjust("set crop", i, func(p photo.Photo) photo.Photo {
		p.Crop = c.ClampScale(geom.MinCropScale)
		return p
	})
}

// ResetAdjustments clears photo i's rotation and crop.
func (s *Session) ResetAdjustments(i int) error {
	return s.adjust("reset adjustments", i, photo.Photo.ResetAdjustments)
}

func (s *Session) adjust(op string, i int, fn func(photo.Photo) photo.Photo) error {
	s.lock()
	defer s.unlock()
	if err := s.inEdit(op); err != nil {
		return err
	}
	if err := s.checkPhoto(i); err != nil {
		return err
	}
	s.commit(photo.Update(s.photos.Current(), i, fn), i)
	return nil
}

// FrameOpacity returns the frame overlay opacity.
func (s *Session) FrameOpacity() float64 {
	s.lock()
	defer s.unlock()
	return s.opacity
}

// SetFrameOpacity sets the frame overlay opacity, 0 to 1.
func (s *Session) SetFrameOpacity(v float64) error {
	if v < 0 || v > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "frame opacity must be between 0 and 1, got %g", v)
	}
	s.lock()
	defer s.unlock()
	s.opacity = v
	s.touch()
	return nil
}

// GlobalScale returns the uniform scale applied to every photo's box.
func (s *Session) GlobalScale() float64 {
	s.lock()
	defer s.unlock()
	return s.globalScale
}

// SetGlobalScale sets the uniform photo scale. Hit-testing follows it.
func (s *Session) SetGlobalScale(v float64) error {
	if v <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "global scale must be positive, got %g", v)
	}
	s.lock()
	defer s.unlock()
	s.globalScale = v
	s.editor.SetViewport(s.viewport())
	s.touch()
	return nil
}
