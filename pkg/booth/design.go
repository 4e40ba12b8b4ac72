package booth

import (
	"github.com/uitmedia/framefusion/pkg/geom"
	"github.com/uitmedia/framefusion/pkg/layout"
)

// The designer calls below are only meaningful on the template design step
// and fail with INVALID_STEP elsewhere.

func (s *Session) inDesign(op string) error {
	if s.step != StepTemplateDesign {
		return wrongStep(op, StepTemplateDesign, s.step)
	}
	return nil
}

// DesignSlots returns the slots being designed.
func (s *Session) DesignSlots() []layout.Placeholder {
	s.lock()
	defer s.unlock()
	return s.designer.Slots()
}

// SelectedSlot returns the designer's selected slot.
func (s *Session) SelectedSlot() (layout.Placeholder, bool) {
	s.lock()
	defer s.unlock()
	return s.designer.Selected()
}

// LoadSlots replaces the designed slots, e.g. from a saved layout.
func (s *Session) LoadSlots(slots []layout.Placeholder) error {
	s.lock()
	defer s.unlock()
	if err := s.inDesign("load slots"); err != nil {
		return err
	}
	s.designer.Load(slots)
	return nil
}

// AddSlot adds a slot at the default position and selects it.
func (s *Session) AddSlot() (layout.Placeholder, error) {
	s.lock()
	defer s.unlock()
	if err := s.inDesign("add slot"); err != nil {
		return layout.Placeholder{}, err
	}
	p := s.designer.AddSlot()
	s.logger.Debug("slot added", "session", s.id, "slot", p.ID, "slots", s.designer.Len())
	return p, nil
}

// SelectSlot selects a slot by id and reports whether it exists.
func (s *Session) SelectSlot(id string) (bool, error) {
	s.lock()
	defer s.unlock()
	if err := s.inDesign("select slot"); err != nil {
		return false, err
	}
	return s.designer.Select(id), nil
}

// RemoveSelectedSlot deletes the selected slot.
func (s *Session) RemoveSelectedSlot() (bool, error) {
	s.lock()
	defer s.unlock()
	if err := s.inDesign("remove slot"); err != nil {
		return false, err
	}
	return s.designer.RemoveSelected(), nil
}

// SetSlotAspectRatio constrains the selected slot; "" frees it.
func (s *Session) SetSlotAspectRatio(ratio string) error {
	s.lock()
	defer s.unlock()
	if err := s.inDesign("set aspect ratio"); err != nil {
		return err
	}
	return s.designer.SetAspectRatio(ratio)
}

// LayoutPointerDown starts a designer gesture.
func (s *Session) LayoutPointerDown(p geom.Point) error {
	s.lock()
	defer s.unlock()
	if err := s.inDesign("layout pointer"); err != nil {
		return err
	}
	s.designer.PointerDown(p)
	return nil
}

// LayoutPointerMove continues a designer gesture and reports whether a slot
// changed.
func (s *Session) LayoutPointerMove(p geom.Point) (bool, error) {
	s.lock()
	defer s.unlock()
	if err := s.inDesign("layout pointer"); err != nil {
		return false, err
	}
	return s.designer.PointerMove(p), nil
}

// LayoutPointerUp ends a designer gesture.
func (s *Session) LayoutPointerUp() error {
	s.lock()
	defer s.unlock()
	if err := s.inDesign("layout pointer"); err != nil {
		return err
	}
	s.designer.PointerUp()
	return nil
}

// LayoutCursor returns the cursor for a pointer hovering over the designer.
func (s *Session) LayoutCursor(p geom.Point) string {
	s.lock()
	defer s.unlock()
	if s.step != StepTemplateDesign {
		return "default"
	}
	return s.designer.Cursor(p)
}

// ConfirmLayout fixes the slot list and moves to photo upload with every
// slot empty.
func (s *Session) ConfirmLayout() ([]layout.Placeholder, error) {
	s.lock()
	defer s.unlock()
	if err := s.inDesign("confirm layout"); err != nil {
		return nil, err
	}
	slots, err := s.designer.Confirm()
	if err != nil {
		return nil, err
	}
	s.slots = slots
	s.fill.Reset(make([]string, len(slots)))
	s.dragOver = -1
	s.step = StepPhotoUpload
	s.logger.Info("layout confirmed", "session", s.id, "slots", len(slots))
	return layout.Clone(slots), nil
}

// Slots returns the confirmed layout.
func (s *Session) Slots() []layout.Placeholder {
	s.lock()
	defer s.unlock()
	return layout.Clone(s.slots)
}
