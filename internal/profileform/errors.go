package profileform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/garnizeh/campusfeed/internal/validation"
)

var (
	ErrNotLoaded         = errors.New("profile not loaded")
	ErrNotDirty          = errors.New("no changes to submit")
	ErrSubmitting        = errors.New("submission already in progress")
	ErrDuplicateSkill    = errors.New("skill already added")
	ErrAlumniOnly        = errors.New("field is only available to alumni")
	ErrUnknownExperience = errors.New("unknown experience entry")
	ErrOutOfRange        = errors.New("index out of range")
)

// ValidationError blocks a submission. No request was sent.
type ValidationError struct {
	Violations []validation.Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return fmt.Sprintf("profile has %d invalid field(s): %s", len(e.Violations), strings.Join(parts, "; "))
}

// Field returns the first message for field, or "".
func (e *ValidationError) Field(field string) string {
	for _, v := range e.Violations {
		if v.Field == field || strings.HasPrefix(v.Field, field+"/") {
			return v.Message
		}
	}
	return ""
}
