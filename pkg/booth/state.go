package booth

import (
	"slices"

	"github.com/uitmedia/framefusion/pkg/layout"
	"github.com/uitmedia/framefusion/pkg/photo"
)

// State is a consistent copy of everything a view needs to draw the
// session at one instant.
type State struct {
	ID           string        `json:"id"`
	Step         Step          `json:"step"`
	Canvas       layout.Canvas `json:"canvas"`
	FrameSrc     string        `json:"frameSrc,omitempty"`
	FrameWidth   int           `json:"frameWidth,omitempty"`
	FrameHeight  int           `json:"frameHeight,omitempty"`
	FrameOpacity float64       `json:"frameOpacity"`
	GlobalScale  float64       `json:"globalScale"`

	// Template design.
	Design         []layout.Placeholder `json:"design,omitempty"`
	SelectedSlotID string               `json:"selectedSlotId,omitempty"`

	// Photo upload.
	Slots       []layout.Placeholder `json:"slots,omitempty"`
	Assignments []string             `json:"assignments,omitempty"`
	Tray        []string             `json:"tray,omitempty"`
	DragOver    int                  `json:"dragOver"`

	// Edit and export. Photos is the drag draft while Dragging; Committed
	// is the last committed entry, which exports use.
	Photos    []photo.Photo `json:"photos,omitempty"`
	Committed []photo.Photo `json:"-"`
	Selected  int           `json:"selected"`
	Dragging  bool          `json:"dragging"`

	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// Snapshot returns the session state.
func (s *Session) Snapshot() State {
	s.lock()
	defer s.unlock()

	st := State{
		ID:           s.id,
		Step:         s.step,
		Canvas:       s.canvas,
		FrameSrc:     s.frameSrc,
		FrameWidth:   s.frameW,
		FrameHeight:  s.frameH,
		FrameOpacity: s.opacity,
		GlobalScale:  s.globalScale,
		Design:       s.designer.Slots(),
		Slots:        layout.Clone(s.slots),
		Assignments:  slices.Clone(s.fill.Current()),
		Tray:         slices.Clone(s.tray),
		DragOver:     s.dragOver,
		Photos:       photo.Clone(s.editor.Photos()),
		Committed:    photo.Clone(s.photos.Current()),
		Selected:     s.editor.Selected(),
		Dragging:     s.editor.Dragging(),
	}
	if sel, ok := s.designer.Selected(); ok {
		st.SelectedSlotID = sel.ID
	}
	switch s.step {
	case StepPhotoUpload:
		st.CanUndo, st.CanRedo = s.fill.CanUndo(), s.fill.CanRedo()
	case StepEditAndExport:
		st.CanUndo, st.CanRedo = s.photos.CanUndo(), s.photos.CanRedo()
	}
	return st
}
