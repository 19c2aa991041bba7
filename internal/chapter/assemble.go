package chapter

import (
	"fmt"
	"strings"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/assembler"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// MetaChapters is the metadata key holding the chapter outline.
const MetaChapters = "chapters"

// SectionKey returns the section key for the chapter at index.
func SectionKey(index int) models.Section {
	return models.Section(fmt.Sprintf("chapter_%d", index+1))
}

// Assemble builds a lesson from the completed chapters of res in index order.
func Assemble(lc models.LessonContext, depth models.DepthLevel, res *Result) assembler.Lesson {
	l := assembler.Lesson{
		Title:    strings.TrimSpace(lc.LessonTitle),
		Metadata: map[string]any{assembler.MetaDepth: string(depth)},
	}
	if len(lc.LearningObjectives) > 0 {
		l.Metadata[assembler.MetaObjectives] = lc.LearningObjectives
	}

	outline := make([]models.ChapterOutline, 0, len(res.Chapters))
	var doc strings.Builder
	fmt.Fprintf(&doc, "# %s\n", l.Title)
	for _, ch := range res.Chapters {
		outline = append(outline, ch.Outline)
		if ch.Status != models.ChapterStatusCompleted {
			continue
		}
		content := stripLeadingHeading(ch.Content)
		l.Sections = append(l.Sections, models.LessonSection{
			Key:     SectionKey(ch.Outline.Index),
			Title:   ch.Outline.Title,
			Content: content,
		})
		fmt.Fprintf(&doc, "\n## %s\n\n%s\n", ch.Outline.Title, content)
	}
	l.Metadata[MetaChapters] = outline
	l.ContentText = doc.String()
	l.Metadata[assembler.MetaWordCount] = len(strings.Fields(l.ContentText))

	l.Description = strings.TrimSpace(lc.LessonDescription)
	if l.Description == "" && len(res.Chapters) > 0 {
		l.Description = res.Chapters[0].Outline.Summary
	}
	return l
}

// stripLeadingHeading drops a first-line heading, since Assemble writes its own.
func stripLeadingHeading(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "#") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		return strings.TrimSpace(s[nl+1:])
	}
	return ""
}
