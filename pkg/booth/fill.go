package booth

import (
	"context"
	"slices"

	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/geom"
	"github.com/uitmedia/framefusion/pkg/layout"
	"github.com/uitmedia/framefusion/pkg/photo"
)

// Slot filling works on two lists: the tray of imported sources and one
// assignment per confirmed slot ("" when empty). Assignments are kept in
// their own history. A source is always in exactly one place, so undo and
// redo move sources back into or out of the tray as needed.

func equalSlots(a, b []string) bool { return slices.Equal(a, b) }

func (s *Session) inFill(op string) error {
	if s.step != StepPhotoUpload {
		return wrongStep(op, StepPhotoUpload, s.step)
	}
	return nil
}

// AddSources appends imported photos to the tray and starts decoding them.
func (s *Session) AddSources(refs ...string) error {
	for _, ref := range refs {
		if err := errors.ValidateSourceRef(ref); err != nil {
			return err
		}
	}
	s.lock()
	defer s.unlock()
	if err := s.inFill("add photos"); err != nil {
		return err
	}
	for _, ref := range refs {
		s.tray = append(s.tray, ref)
		if s.images != nil {
			s.images.Load(ref)
		}
	}
	s.logger.Debug("photos imported", "session", s.id, "added", len(refs), "tray", len(s.tray))
	return nil
}

// Tray returns the unplaced sources.
func (s *Session) Tray() []string {
	s.lock()
	defer s.unlock()
	return slices.Clone(s.tray)
}

// Assignments returns the source in each slot, "" for empty ones.
func (s *Session) Assignments() []string {
	s.lock()
	defer s.unlock()
	return slices.Clone(s.fill.Current())
}

// RemoveFromTray drops an imported photo.
func (s *Session) RemoveFromTray(i int) error {
	s.lock()
	defer s.unlock()
	if err := s.inFill("remove photo"); err != nil {
		return err
	}
	if i < 0 || i >= len(s.tray) {
		return errors.New(errors.ErrCodeInvalidInput, "tray index %d out of range (%d photos)", i, len(s.tray))
	}
	s.tray = slices.Delete(slices.Clone(s.tray), i, i+1)
	return nil
}

func (s *Session) checkSlot(slot int) error {
	if n := len(s.fill.Current()); slot < 0 || slot >= n {
		return errors.New(errors.ErrCodeInvalidInput, "slot %d out of range (%d slots)", slot, n)
	}
	return nil
}

func (s *Session) checkTray(i int) error {
	if i < 0 || i >= len(s.tray) {
		return errors.New(errors.ErrCodeInvalidInput, "tray index %d out of range (%d photos)", i, len(s.tray))
	}
	return nil
}

// Place moves tray photo i into an empty slot.
func (s *Session) Place(i, slot int) error {
	s.lock()
	defer s.unlock()
	if err := s.inFill("place photo"); err != nil {
		return err
	}
	if err := s.checkTray(i); err != nil {
		return err
	}
	if err := s.checkSlot(slot); err != nil {
		return err
	}
	cur := s.fill.Current()
	if cur[slot] != "" {
		return errors.New(errors.ErrCodeInvalidInput, "slot %d is already filled", slot+1)
	}
	next := slices.Clone(cur)
	next[slot] = s.tray[i]
	s.tray = slices.Delete(slices.Clone(s.tray), i, i+1)
	s.fill.Set(next)
	return nil
}

// Drop moves tray photo i into slot. A photo already in the slot takes the
// dropped photo's place in the tray.
func (s *Session) Drop(i, slot int) error {
	s.lock()
	defer s.unlock()
	if err := s.inFill("drop photo"); err != nil {
		return err
	}
	if err := s.checkTray(i); err != nil {
		return err
	}
	if err := s.checkSlot(slot); err != nil {
		return err
	}
	cur := s.fill.Current()
	next := slices.Clone(cur)
	next[slot] = s.tray[i]

	tray := slices.Clone(s.tray)
	if occupant := cur[slot]; occupant != "" {
		tray[i] = occupant
	} else {
		tray = slices.Delete(tray, i, i+1)
	}
	s.tray = tray
	s.dragOver = -1
	s.fill.Set(next)
	return nil
}

// ReturnToTray empties a filled slot, putting its photo at the front of the
// tray.
func (s *Session) ReturnToTray(slot int) error {
	s.lock()
	defer s.unlock()
	if err := s.inFill("return photo"); err != nil {
		return err
	}
	return s.returnToTray(slot)
}

func (s *Session) returnToTray(slot int) error {
	if err := s.checkSlot(slot); err != nil {
		return err
	}
	cur := s.fill.Current()
	src := cur[slot]
	if src == "" {
		return nil
	}
	next := slices.Clone(cur)
	next[slot] = ""
	s.tray = append([]string{src}, s.tray...)
	s.fill.Set(next)
	return nil
}

// SlotAt returns the confirmed slot under p, in canvas pixels, or -1.
func (s *Session) SlotAt(p geom.Point) int {
	s.lock()
	defer s.unlock()
	return s.slotAt(p)
}

func (s *Session) slotAt(p geom.Point) int {
	for i, slot := range s.slots {
		x, y, w, h := slot.Rect().Pixels(s.canvas.Width, s.canvas.Height)
		if p.X >= x && p.X <= x+w && p.Y >= y && p.Y <= y+h {
			return i
		}
	}
	return -1
}

// ClickSlot handles a click on the slot preview. With a tray photo picked
// (tray >= 0) and an empty slot under p, the photo is placed there;
// clicking a filled slot returns its photo to the tray. It returns the slot
// clicked, or -1.
func (s *Session) ClickSlot(p geom.Point, tray int) (int, error) {
	s.lock()
	defer s.unlock()
	if err := s.inFill("click slot"); err != nil {
		return -1, err
	}
	slot := s.slotAt(p)
	if slot < 0 {
		return -1, nil
	}
	cur := s.fill.Current()
	if tray >= 0 && cur[slot] == "" {
		if err := s.checkTray(tray); err != nil {
			return slot, err
		}
		next := slices.Clone(cur)
		next[slot] = s.tray[tray]
		s.tray = slices.Delete(slices.Clone(s.tray), tray, tray+1)
		s.fill.Set(next)
		return slot, nil
	}
	return slot, s.returnToTray(slot)
}

// SetDragOver marks the slot under a drag in progress for the preview; -1
// clears it.
func (s *Session) SetDragOver(slot int) {
	s.lock()
	defer s.unlock()
	if slot < 0 || slot >= len(s.slots) {
		slot = -1
	}
	s.dragOver = slot
}

// reconcileTray keeps every source in exactly one place after the slot
// history moved from before to after. Sources are counted, not just
// matched, since the same reference can be imported more than once.
func (s *Session) reconcileTray(before, after []string) {
	delta := make(map[string]int)
	for _, src := range before {
		delta[src]++
	}
	for _, src := range after {
		delta[src]--
	}
	delete(delta, "")

	tray := slices.Clone(s.tray)
	for _, src := range after {
		if delta[src] < 0 {
			if i := slices.Index(tray, src); i >= 0 {
				tray = slices.Delete(tray, i, i+1)
			}
			delta[src]++
		}
	}
	var back []string
	for _, src := range before {
		if delta[src] > 0 {
			back = append(back, src)
			delta[src]--
		}
	}
	s.tray = append(back, tray...)
}

// FinalizePhotos binds the slot assignments to the layout and moves to the
// edit step with the first photo selected. It refuses with an
// UnfilledSlotsError, staying on this step, while any slot is empty.
//
// Binding waits for every photo's dimensions without holding the session
// lock. If the slots change meanwhile, the bind is discarded with
// ErrCodeInvalidStep.
func (s *Session) FinalizePhotos(ctx context.Context) ([]photo.Photo, error) {
	s.lock()
	if err := s.inFill("finalize photos"); err != nil {
		s.unlock()
		return nil, err
	}
	fill, rev := s.fill, s.fill.Revision()
	assigned := slices.Clone(fill.Current())
	slots := slices.Clone(s.slots)
	images := s.images
	s.unlock()

	empty := 0
	for _, src := range assigned {
		if src == "" {
			empty++
		}
	}
	if empty > 0 || len(assigned) == 0 {
		return nil, &errors.UnfilledSlotsError{Remaining: max(empty, 1), Total: len(slots)}
	}
	if images == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "no image resolver configured")
	}

	photos, err := photo.Bind(ctx, layout.Rects(slots), photo.InOrder(assigned, len(slots)), images)
	if err != nil {
		return nil, err
	}

	s.lock()
	defer s.unlock()
	if s.step != StepPhotoUpload || s.fill != fill || fill.Revision() != rev {
		return nil, errors.New(errors.ErrCodeInvalidStep, "photo slots changed while finalizing")
	}
	s.startEditing(photos)
	return photo.Clone(photos), nil
}

// startEditing resets the photo history to photos. The caller holds the
// lock.
func (s *Session) startEditing(photos []photo.Photo) {
	sel := -1
	if len(photos) > 0 {
		sel = 0
	}
	s.photos.Reset(photos)
	s.editor.Sync(photos, sel)
	s.dragOver = -1
	s.step = StepEditAndExport
	s.touch()
	s.logger.Info("photos finalized", "session", s.id, "photos", len(photos))
}
