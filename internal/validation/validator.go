package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// PassingScore is the minimum score a valid result needs.
const PassingScore = 60

// Penalties deducted for each failed check.
const (
	PenaltyTooShort        = 30
	PenaltyNoHeaders       = 15
	PenaltyNoFormatting    = 15
	PenaltyTheoryKeywords  = 20
	PenaltyTooFewQuestions = 20
	PenaltyNoExamples      = 10
)

// MinExerciseQuestions is the number of question marks exercise text must contain.
const MinExerciseQuestions = 3

// Placeholders are substrings that mark unfinished model output.
var Placeholders = []string{
	"todo",
	"coming soon",
	"lorem ipsum",
	"[insert",
	"tbd",
}

var (
	headerRe   = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+\S`)
	emphasisRe = regexp.MustCompile(`\*\*[^*\n]+\*\*|__[^_\n]+__|\*[^*\s][^*\n]*\*`)
	listRe     = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+\S`)
	wordTBDRe  = regexp.MustCompile(`\bTBD\b`)
	wordTODORe = regexp.MustCompile(`\bTODO\b`)

	theoryKeywords  = []string{"defin", "principle", "concept", "theory", "means", "refers to"}
	exampleKeywords = []string{"example", "for instance", "e.g.", "such as", "scenario"}
)

// bracketedPlaceholderRe matches a marker like [placeholder] or <Placeholder text>.
// The bare word is ordinary prose in lessons about HTML forms or SQL.
var bracketedPlaceholderRe = regexp.MustCompile(`(?i)[\[<{]\s*placeholder\b[^\]>}\n]*[\]>}]`)

// Result is the outcome of validating one piece of generated text.
type Result struct {
	// Valid is true when the score reaches PassingScore and no placeholder was found.
	Valid bool `json:"valid"`
	// QualityScore is 0-100.
	QualityScore int `json:"quality_score"`
	// Issues describes every failed check.
	Issues []string `json:"issues,omitempty"`
	// Placeholder is the placeholder text that was found, if any.
	Placeholder string `json:"placeholder,omitempty"`
}

// Validate scores text produced for kind. minLength <= 0 disables the length check.
func Validate(text string, kind models.TaskKind, minLength int) Result {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{Valid: false, QualityScore: 0, Issues: []string{"content is empty"}}
	}

	score := 100
	var issues []string
	deduct := func(points int, format string, args ...interface{}) {
		score -= points
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	if minLength > 0 && len(trimmed) < minLength {
		deduct(PenaltyTooShort, "content too short: %d < %d characters", len(trimmed), minLength)
	}
	if !headerRe.MatchString(trimmed) {
		deduct(PenaltyNoHeaders, "no markdown headers")
	}
	if !emphasisRe.MatchString(trimmed) && !listRe.MatchString(trimmed) {
		deduct(PenaltyNoFormatting, "no emphasis or lists")
	}

	lower := strings.ToLower(trimmed)
	switch {
	case isTheory(kind):
		if !containsAny(lower, theoryKeywords) {
			deduct(PenaltyTheoryKeywords, "theory content lacks definitions or principles")
		}
	case isExercise(kind):
		if n := strings.Count(trimmed, "?"); n < MinExerciseQuestions {
			deduct(PenaltyTooFewQuestions, "only %d questions, want at least %d", n, MinExerciseQuestions)
		}
	case isPractical(kind):
		if !containsAny(lower, exampleKeywords) {
			deduct(PenaltyNoExamples, "no examples found")
		}
	}

	if score < 0 {
		score = 0
	}

	res := Result{QualityScore: score, Issues: issues}
	if p := FindPlaceholder(trimmed); p != "" {
		res.Placeholder = p
		res.Issues = append(res.Issues, fmt.Sprintf("placeholder text %q", p))
	}
	res.Valid = score >= PassingScore && res.Placeholder == ""
	return res
}

// FindPlaceholder returns the first placeholder marker in text, or "".
// TODO and TBD only count as whole upper-case words so that prose like "today" passes,
// and "placeholder" only counts inside brackets.
func FindPlaceholder(text string) string {
	if m := wordTODORe.FindString(text); m != "" {
		return m
	}
	if m := wordTBDRe.FindString(text); m != "" {
		return m
	}
	lower := strings.ToLower(text)
	for _, p := range Placeholders {
		if p == "todo" || p == "tbd" {
			continue
		}
		if strings.Contains(lower, p) {
			return p
		}
	}
	return bracketedPlaceholderRe.FindString(text)
}

func isTheory(kind models.TaskKind) bool {
	switch kind {
	case models.KindCoreConcepts, models.KindTheoryDefinitions, models.KindTheoryPrinciples, models.KindTheoryDeepDive:
		return true
	}
	return false
}

func isExercise(kind models.TaskKind) bool {
	switch kind {
	case models.KindExercisesBasic, models.KindExercisesAdvanced, models.KindDiscussionQuestions:
		return true
	}
	return false
}

func isPractical(kind models.TaskKind) bool {
	switch kind {
	case models.KindWorkedExamples, models.KindRealWorldApplications, models.KindCaseStudy, models.KindPracticalActivity:
		return true
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
