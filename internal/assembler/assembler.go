// Package assembler stitches completed task results into a lesson document.
package assembler

import (
	"fmt"
	"strings"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/graph"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/logging"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/parser"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// Metadata keys set by Assemble.
const (
	MetaDepth      = "depth"
	MetaObjectives = "objectives"
	MetaKeyTerms   = "key_terms"
	MetaQuiz       = "quiz"
	MetaOutline    = "outline"
	MetaWordCount  = "word_count"
)

// Lesson is an assembled lesson document.
type Lesson struct {
	Title       string
	Description string
	// ContentText is the full markdown document.
	ContentText string
	Sections    []models.LessonSection
	Metadata    map[string]any
}

// Term is one glossary entry.
type Term struct {
	Term       string `json:"term" yaml:"term"`
	Definition string `json:"definition" yaml:"definition"`
}

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	Question    string   `json:"question" yaml:"question"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
	Answer      string   `json:"answer" yaml:"answer"`
	Explanation string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// OutlineSection is one entry of the lesson outline.
type OutlineSection struct {
	Title   string `json:"title" yaml:"title"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

type objectivesDoc struct {
	Objectives []string `json:"objectives"`
}

type termsDoc struct {
	Terms []Term `json:"terms"`
}

type quizDoc struct {
	Questions []QuizQuestion `json:"questions"`
}

type outlineDoc struct {
	Sections []OutlineSection `json:"sections"`
}

// Assemble builds a lesson from the completed tasks of sess.
// Incomplete tasks are ignored; an empty bucket produces no section.
func Assemble(sess *models.Session) Lesson {
	l := Lesson{
		Title:    strings.TrimSpace(sess.Context.LessonTitle),
		Metadata: map[string]any{MetaDepth: string(sess.Depth)},
	}

	objectives := sess.Context.LearningObjectives
	if doc, ok := structured[objectivesDoc](sess, models.KindLearningObjectives); ok && len(doc.Objectives) > 0 {
		objectives = doc.Objectives
	}
	if len(objectives) > 0 {
		l.Metadata[MetaObjectives] = objectives
	}
	var terms []Term
	if doc, ok := structured[termsDoc](sess, models.KindKeyTerms); ok && len(doc.Terms) > 0 {
		terms = doc.Terms
		l.Metadata[MetaKeyTerms] = terms
	}
	var quiz []QuizQuestion
	if doc, ok := structured[quizDoc](sess, models.KindAssessmentQuiz); ok && len(doc.Questions) > 0 {
		quiz = doc.Questions
		l.Metadata[MetaQuiz] = quiz
	}
	if doc, ok := structured[outlineDoc](sess, models.KindLessonOutline); ok && len(doc.Sections) > 0 {
		l.Metadata[MetaOutline] = doc.Sections
	}

	buckets := make(map[models.Section][]string, len(models.SectionOrder))
	if len(objectives) > 0 {
		buckets[models.SectionIntroduction] = append(buckets[models.SectionIntroduction], renderObjectives(objectives))
	}
	for _, e := range graph.Catalog() {
		sec := e.Kind.Section()
		if sec == models.SectionNone || e.Kind.ProducesJSON() {
			continue
		}
		if text, ok := completed(sess, e.Kind); ok {
			buckets[sec] = append(buckets[sec], text)
		}
	}
	if len(quiz) > 0 {
		buckets[models.SectionExercises] = append(buckets[models.SectionExercises], renderQuiz(quiz))
	}
	if len(terms) > 0 {
		buckets[models.SectionSummary] = append(buckets[models.SectionSummary], renderGlossary(terms))
	}

	var doc strings.Builder
	fmt.Fprintf(&doc, "# %s\n", l.Title)
	for _, sec := range models.SectionOrder {
		parts := buckets[sec]
		if len(parts) == 0 {
			continue
		}
		content := strings.Join(parts, "\n\n")
		l.Sections = append(l.Sections, models.LessonSection{Key: sec, Title: sec.Title(), Content: content})
		fmt.Fprintf(&doc, "\n## %s\n\n%s\n", sec.Title(), content)
	}
	l.ContentText = doc.String()

	l.Description = strings.TrimSpace(sess.Context.LessonDescription)
	if l.Description == "" {
		if text, ok := completed(sess, models.KindIntroductionOverview); ok {
			l.Description = firstParagraph(text, 300)
		}
	}
	l.Metadata[MetaWordCount] = len(strings.Fields(l.ContentText))

	logging.Debugf("[assembler] session %s: %d sections, %d words", sess.ID, len(l.Sections), l.Metadata[MetaWordCount])
	return l
}

// completed returns the trimmed result of the task for kind when it completed.
func completed(sess *models.Session, kind models.TaskKind) (string, bool) {
	t := sess.Task(string(kind))
	if t == nil || t.Status != models.TaskStatusCompleted {
		return "", false
	}
	text := strings.TrimSpace(t.Result)
	return text, text != ""
}

func structured[T any](sess *models.Session, kind models.TaskKind) (T, bool) {
	var zero T
	text, ok := completed(sess, kind)
	if !ok {
		return zero, false
	}
	v, err := parser.ParseInto[T](text)
	if err != nil {
		logging.Debugf("[assembler] %s result is not usable JSON: %v", kind, err)
		return zero, false
	}
	return v, true
}

func renderObjectives(objs []string) string {
	var sb strings.Builder
	sb.WriteString("### Learning Objectives\n\nBy the end of this lesson you will be able to:\n\n")
	for _, o := range objs {
		fmt.Fprintf(&sb, "- %s\n", strings.TrimSpace(o))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderQuiz(qs []QuizQuestion) string {
	var sb strings.Builder
	sb.WriteString("### Assessment Quiz\n")
	for i, q := range qs {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, strings.TrimSpace(q.Question))
		for j, opt := range q.Options {
			fmt.Fprintf(&sb, "   - %c) %s\n", 'a'+rune(j%26), opt)
		}
		if q.Answer != "" {
			fmt.Fprintf(&sb, "\n   **Answer:** %s", q.Answer)
			if q.Explanation != "" {
				fmt.Fprintf(&sb, ". %s", q.Explanation)
			}
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderGlossary(terms []Term) string {
	var sb strings.Builder
	sb.WriteString("### Key Terms\n\n")
	for _, t := range terms {
		fmt.Fprintf(&sb, "- **%s**: %s\n", t.Term, t.Definition)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// firstParagraph returns the first non-heading paragraph of markdown, cut to max runes.
func firstParagraph(md string, max int) string {
	for _, para := range strings.Split(md, "\n\n") {
		p := strings.TrimSpace(para)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		p = strings.Join(strings.Fields(p), " ")
		if r := []rune(p); len(r) > max {
			p = strings.TrimSpace(string(r[:max])) + "..."
		}
		return p
	}
	return ""
}
