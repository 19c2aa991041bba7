package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDepth is returned when a depth level string is not recognised.
var ErrInvalidDepth = errors.New("invalid depth level")

// DepthLevel controls how many tasks, and how much content, a lesson gets.
type DepthLevel string

const (
	// DepthBasic generates a short lesson with the essential sections.
	DepthBasic DepthLevel = "basic"
	// DepthStandard adds planning and practical sections.
	DepthStandard DepthLevel = "standard"
	// DepthComprehensive adds deep dives, case studies and assessments.
	DepthComprehensive DepthLevel = "comprehensive"
	// DepthExpert runs every task including the validation passes.
	DepthExpert DepthLevel = "expert"
)

// DepthLevels lists the levels from shallowest to deepest.
var DepthLevels = []DepthLevel{DepthBasic, DepthStandard, DepthComprehensive, DepthExpert}

// Valid returns true if the depth is a known value.
func (d DepthLevel) Valid() bool {
	return d.Rank() >= 0
}

// Rank returns 0..3 for known levels and -1 otherwise.
func (d DepthLevel) Rank() int {
	switch d {
	case DepthBasic:
		return 0
	case DepthStandard:
		return 1
	case DepthComprehensive:
		return 2
	case DepthExpert:
		return 3
	default:
		return -1
	}
}

// Includes reports whether a task introduced at min is part of this depth.
func (d DepthLevel) Includes(min DepthLevel) bool {
	return d.Rank() >= min.Rank() && min.Rank() >= 0
}

// ParseDepthLevel parses a depth name. Empty input yields DepthStandard.
func ParseDepthLevel(s string) (DepthLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DepthStandard, nil
	}
	d := DepthLevel(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDepth, s)
	}
	return d, nil
}
