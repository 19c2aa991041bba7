package models

import (
	"errors"
	"testing"
)

func TestLessonRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     LessonRequest
		wantErr bool
		depth   DepthLevel
	}{
		{"minimal", LessonRequest{LessonContext: LessonContext{CourseTitle: "Go", LessonTitle: "Maps"}}, false, DepthStandard},
		{"explicit depth", LessonRequest{LessonContext: LessonContext{CourseTitle: "Go", LessonTitle: "Maps"}, Depth: "Expert"}, false, DepthExpert},
		{"missing course", LessonRequest{LessonContext: LessonContext{LessonTitle: "Maps"}}, true, ""},
		{"blank lesson", LessonRequest{LessonContext: LessonContext{CourseTitle: "Go", LessonTitle: "  "}}, true, ""},
		{"bad depth", LessonRequest{LessonContext: LessonContext{CourseTitle: "Go", LessonTitle: "Maps"}, Depth: "deep"}, true, ""},
		{"bad strategy", LessonRequest{LessonContext: LessonContext{CourseTitle: "Go", LessonTitle: "Maps"}, Strategy: "magic"}, true, ""},
		{"negative duration", LessonRequest{LessonContext: LessonContext{CourseTitle: "Go", LessonTitle: "Maps", DurationMinutes: -5}}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Errorf("err = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.req.Depth != tt.depth {
				t.Errorf("depth = %q, want %q", tt.req.Depth, tt.depth)
			}
		})
	}
}
