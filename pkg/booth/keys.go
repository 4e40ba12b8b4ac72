package booth

import "strings"

// Key is a key press with its modifiers. Name follows the DOM key names
// ("z", "Delete", "Backspace").
type Key struct {
	Name  string `json:"key"`
	Ctrl  bool   `json:"ctrlKey,omitempty"`
	Meta  bool   `json:"metaKey,omitempty"`
	Shift bool   `json:"shiftKey,omitempty"`
}

// KeyDown handles booth shortcuts and reports whether the key was consumed.
// Ctrl or Cmd with Z undoes, with Y or Shift+Z redoes, from photo upload
// onwards. Delete and Backspace remove the selected slot in the designer.
func (s *Session) KeyDown(k Key) bool {
	s.lock()
	defer s.unlock()

	if s.step == StepTemplateDesign && !k.Ctrl && !k.Meta {
		return s.designer.KeyDown(k.Name)
	}
	if !k.Ctrl && !k.Meta || s.step < StepPhotoUpload {
		return false
	}
	switch strings.ToLower(k.Name) {
	case "z":
		if k.Shift {
			s.redo()
		} else {
			s.undo()
		}
		return true
	case "y":
		s.redo()
		return true
	}
	return false
}
