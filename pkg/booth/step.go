package booth

import "github.com/uitmedia/framefusion/pkg/errors"

// Step is where the operator is in the booth workflow.
type Step int

const (
	StepFrameUpload Step = iota
	StepTemplateDesign
	StepPhotoUpload
	StepEditAndExport
)

var stepNames = [...]string{
	StepFrameUpload:    "frame-upload",
	StepTemplateDesign: "template-design",
	StepPhotoUpload:    "photo-upload",
	StepEditAndExport:  "edit-and-export",
}

// String returns the step name.
func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStep parses a step name.
func ParseStep(name string) (Step, bool) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), true
		}
	}
	return 0, false
}

func wrongStep(op string, want, got Step) error {
	return errors.New(errors.ErrCodeInvalidStep, "%s needs step %s, session is at %s", op, want, got)
}
