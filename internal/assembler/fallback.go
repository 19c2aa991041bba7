package assembler

import (
	"fmt"
	"strings"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// Fallback returns a template lesson built only from the request metadata.
// It is used when no task produced content, so callers always get a document.
func Fallback(ctx models.LessonContext, depth models.DepthLevel) Lesson {
	title := strings.TrimSpace(ctx.LessonTitle)
	desc := strings.TrimSpace(ctx.LessonDescription)
	if desc == "" {
		desc = fmt.Sprintf("An introduction to %s as part of %s.", title, ctx.CourseTitle)
	}

	intro := fmt.Sprintf("This lesson covers **%s**.", title)
	if ctx.ModuleTitle != "" {
		intro += fmt.Sprintf(" It belongs to the module *%s* of %s.", ctx.ModuleTitle, ctx.CourseTitle)
	}
	if len(ctx.LearningObjectives) > 0 {
		intro += "\n\n" + renderObjectives(ctx.LearningObjectives)
	}

	sections := []models.LessonSection{
		{Key: models.SectionIntroduction, Title: models.SectionIntroduction.Title(), Content: intro},
		{Key: models.SectionTheory, Title: models.SectionTheory.Title(),
			Content: fmt.Sprintf("Key concepts of %s will be explained here by your instructor.", title)},
		{Key: models.SectionPractical, Title: models.SectionPractical.Title(),
			Content: "- Work through the examples provided in class\n- Apply each concept to a small problem of your own"},
		{Key: models.SectionExercises, Title: models.SectionExercises.Title(),
			Content: fmt.Sprintf("1. What is %s?\n2. Where is it used?\n3. What questions do you still have?", title)},
		{Key: models.SectionSummary, Title: models.SectionSummary.Title(),
			Content: fmt.Sprintf("Review the main ideas of %s before moving on.", title)},
	}

	var doc strings.Builder
	fmt.Fprintf(&doc, "# %s\n", title)
	for _, s := range sections {
		fmt.Fprintf(&doc, "\n## %s\n\n%s\n", s.Title, s.Content)
	}

	meta := map[string]any{MetaDepth: string(depth)}
	if len(ctx.LearningObjectives) > 0 {
		meta[MetaObjectives] = ctx.LearningObjectives
	}
	meta[MetaWordCount] = len(strings.Fields(doc.String()))

	return Lesson{
		Title:       title,
		Description: desc,
		ContentText: doc.String(),
		Sections:    sections,
		Metadata:    meta,
	}
}
