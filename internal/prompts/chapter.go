package prompts

import (
	"fmt"
	"strings"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// ChapterOutlinePrompt asks for a lesson split into n chapters.
func ChapterOutlinePrompt(ctx models.LessonContext, depth models.DepthLevel, n int) string {
	var sb strings.Builder
	writeContext(&sb, Input{Context: ctx, Depth: depth})
	sb.WriteString("\n## Task\n")
	fmt.Fprintf(&sb, "Split this lesson into %d chapters that build on each other. ", n)
	sb.WriteString(`Use the shape {"chapters": [{"title": "...", "summary": "...", "key_points": ["..."]}]}.`)
	sb.WriteString("\n")
	sb.WriteString(depthGuidance(depth))
	sb.WriteString("\n")
	sb.WriteString(JSONInstruction)
	sb.WriteString("\n")
	return sb.String()
}

// ChapterPrompt asks for the content of one outlined chapter.
func ChapterPrompt(ctx models.LessonContext, depth models.DepthLevel, ch models.ChapterOutline, all []models.ChapterOutline) string {
	var sb strings.Builder
	writeContext(&sb, Input{Context: ctx, Depth: depth})

	sb.WriteString("\n## Chapters\n")
	for _, o := range all {
		marker := ""
		if o.Index == ch.Index {
			marker = " (this chapter)"
		}
		fmt.Fprintf(&sb, "%d. %s%s\n", o.Index+1, o.Title, marker)
	}

	sb.WriteString("\n## Task\n")
	fmt.Fprintf(&sb, "Write chapter %d, %q.", ch.Index+1, ch.Title)
	if ch.Summary != "" {
		sb.WriteString(" ")
		sb.WriteString(ch.Summary)
	}
	sb.WriteString("\n")
	if len(ch.KeyPoints) > 0 {
		sb.WriteString("Cover these points:\n")
		for _, p := range ch.KeyPoints {
			fmt.Fprintf(&sb, "- %s\n", p)
		}
	}
	sb.WriteString("Start with a markdown heading for the chapter, use subheadings, lists and at least one example. ")
	sb.WriteString("Do not repeat material that belongs to other chapters.\n")
	sb.WriteString(depthGuidance(depth))
	sb.WriteString("\n")
	return sb.String()
}
