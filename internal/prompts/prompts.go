// Package prompts maps each task kind to the prompt that generates it.
//
// Builders are pure: they read the lesson context and the results of completed
// dependencies and return prompt text. Nothing here talks to a provider.
package prompts

import (
	"fmt"
	"strings"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// SystemPrompt is sent with every lesson task.
const SystemPrompt = "You are an experienced instructional designer writing lesson content for an online " +
	"learning platform. Write clear, accurate, well-structured markdown aimed at the stated audience."

// JSONInstruction is appended to prompts whose result must be a JSON object.
const JSONInstruction = "Respond with a single JSON object and nothing else. Do not wrap it in prose."

// Default generation parameters for text kinds.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4096
	DefaultMinLength   = 300
)

// Input is what a prompt builder may read.
type Input struct {
	Context models.LessonContext
	Depth   models.DepthLevel
	// Deps holds the results of completed dependencies by kind.
	Deps map[models.TaskKind]string
}

// Dep returns a dependency result, or "".
func (in Input) Dep(kind models.TaskKind) string {
	return in.Deps[kind]
}

// Spec describes how one task kind is prompted and checked.
type Spec struct {
	Build       func(Input) string
	ExpectsJSON bool
	// MinLength is the character count below which the validator penalises text.
	MinLength   int
	Temperature float64
	MaxTokens   int
}

// For returns the prompt Spec registered for kind.
func For(kind models.TaskKind) (Spec, bool) {
	s, ok := table[kind]
	return s, ok
}

// Build renders the prompt for kind. It errors only for unknown kinds.
func Build(kind models.TaskKind, in Input) (string, error) {
	s, ok := table[kind]
	if !ok {
		return "", fmt.Errorf("no prompt for task kind %q", kind)
	}
	return s.Build(in), nil
}

// Kinds returns the kinds that have prompts, in pipeline order.
func Kinds() []models.TaskKind {
	var out []models.TaskKind
	for _, k := range models.AllTaskKinds() {
		if _, ok := table[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// text returns a spec for a markdown kind.
func text(minLength int, instructions string, deps ...models.TaskKind) Spec {
	return Spec{
		Build:       builder(instructions, false, deps),
		MinLength:   minLength,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// structured returns a spec for a JSON kind.
func structured(instructions string, deps ...models.TaskKind) Spec {
	return Spec{
		Build:       builder(instructions, true, deps),
		ExpectsJSON: true,
		Temperature: 0.4,
		MaxTokens:   2048,
	}
}

func builder(instructions string, wantJSON bool, deps []models.TaskKind) func(Input) string {
	return func(in Input) string {
		var sb strings.Builder
		writeContext(&sb, in)

		for _, k := range deps {
			if r := strings.TrimSpace(in.Dep(k)); r != "" {
				sb.WriteString("\n## ")
				sb.WriteString(headingFor(k))
				sb.WriteString("\n")
				sb.WriteString(truncate(r, maxDepChars))
				sb.WriteString("\n")
			}
		}

		sb.WriteString("\n## Task\n")
		sb.WriteString(instructions)
		sb.WriteString("\n")
		sb.WriteString(depthGuidance(in.Depth))
		if wantJSON {
			sb.WriteString("\n")
			sb.WriteString(JSONInstruction)
			sb.WriteString("\n")
		}
		return sb.String()
	}
}

const maxDepChars = 3000

func writeContext(sb *strings.Builder, in Input) {
	c := in.Context
	sb.WriteString("## Lesson\n")
	fmt.Fprintf(sb, "- Course: %s\n", c.CourseTitle)
	if c.ModuleTitle != "" {
		fmt.Fprintf(sb, "- Module: %s\n", c.ModuleTitle)
	}
	fmt.Fprintf(sb, "- Lesson: %s\n", c.LessonTitle)
	if c.LessonDescription != "" {
		fmt.Fprintf(sb, "- Description: %s\n", c.LessonDescription)
	}
	if c.Difficulty != "" {
		fmt.Fprintf(sb, "- Difficulty: %s\n", c.Difficulty)
	}
	if c.TargetAudience != "" {
		fmt.Fprintf(sb, "- Audience: %s\n", c.TargetAudience)
	}
	if c.DurationMinutes > 0 {
		fmt.Fprintf(sb, "- Duration: %d minutes\n", c.DurationMinutes)
	}
	if len(c.LearningObjectives) > 0 {
		sb.WriteString("- Required objectives:\n")
		for _, o := range c.LearningObjectives {
			fmt.Fprintf(sb, "  - %s\n", o)
		}
	}
	if len(c.ExistingLessons) > 0 {
		fmt.Fprintf(sb, "- Other lessons in this module (avoid repeating them): %s\n",
			strings.Join(c.ExistingLessons, "; "))
	}
}

func depthGuidance(d models.DepthLevel) string {
	switch d {
	case models.DepthBasic:
		return "Keep it concise and focus on the essentials."
	case models.DepthComprehensive:
		return "Be thorough and cover edge cases and nuances."
	case models.DepthExpert:
		return "Write at an expert level with full rigour and detail."
	default:
		return "Aim for a balanced, moderately detailed treatment."
	}
}

func headingFor(k models.TaskKind) string {
	words := strings.Split(string(k), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// truncate cuts s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "\n[...]"
}
