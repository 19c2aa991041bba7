package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest is returned for lesson requests that cannot be generated.
var ErrInvalidRequest = errors.New("invalid lesson request")

// LessonRequest asks for one lesson to be generated.
type LessonRequest struct {
	LessonContext
	// Depth defaults to standard when empty.
	Depth DepthLevel `json:"depth,omitempty"`
	// Strategy defaults to the configured strategy when empty.
	Strategy Strategy `json:"strategy,omitempty"`
	// Parallel overrides the configured execution mode when set.
	Parallel *bool `json:"parallel,omitempty"`
}

// Validate checks required fields and normalises Depth.
func (r *LessonRequest) Validate() error {
	if strings.TrimSpace(r.CourseTitle) == "" {
		return fmt.Errorf("%w: course title is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.LessonTitle) == "" {
		return fmt.Errorf("%w: lesson title is required", ErrInvalidRequest)
	}
	if r.DurationMinutes < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidRequest)
	}
	depth, err := ParseDepthLevel(string(r.Depth))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	r.Depth = depth
	if r.Strategy != "" && !r.Strategy.Valid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidRequest, r.Strategy)
	}
	return nil
}
