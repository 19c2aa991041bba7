package prompts

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/graph"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

func sampleInput() Input {
	return Input{
		Context: models.LessonContext{
			CourseTitle:        "Intro to Programming",
			ModuleTitle:        "Control Flow",
			LessonTitle:        "Loops",
			TargetAudience:     "beginners",
			LearningObjectives: []string{"Write a for loop"},
			ExistingLessons:    []string{"Variables", "Conditionals"},
		},
		Depth: models.DepthStandard,
		Deps:  map[models.TaskKind]string{},
	}
}

func TestEveryKindHasPrompt(t *testing.T) {
	for _, k := range models.AllTaskKinds() {
		spec, ok := For(k)
		if !ok {
			t.Errorf("no prompt for %s", k)
			continue
		}
		if spec.Build == nil {
			t.Errorf("%s: nil builder", k)
		}
		if spec.ExpectsJSON != k.ProducesJSON() {
			t.Errorf("%s: ExpectsJSON = %v, kind says %v", k, spec.ExpectsJSON, k.ProducesJSON())
		}
		if !spec.ExpectsJSON && spec.MinLength <= 0 {
			t.Errorf("%s: text kinds need a minimum length", k)
		}
	}
	if len(Kinds()) != len(models.AllTaskKinds()) {
		t.Errorf("Kinds() = %d entries, want %d", len(Kinds()), len(models.AllTaskKinds()))
	}
}

func TestPromptDependenciesAreGraphDependencies(t *testing.T) {
	// A prompt only sees results of tasks guaranteed to be complete, so every kind a
	// prompt embeds must be among the catalog's declared dependencies.
	in := sampleInput()
	for _, k := range models.AllTaskKinds() {
		in.Deps[k] = "RESULT-OF-" + string(k)
	}
	for _, e := range graph.Catalog() {
		declared := map[models.TaskKind]bool{}
		for _, d := range e.DependsOn {
			declared[d] = true
		}
		prompt, err := Build(e.Kind, in)
		if err != nil {
			t.Fatalf("Build(%s): %v", e.Kind, err)
		}
		for _, k := range models.AllTaskKinds() {
			if strings.Contains(prompt, "RESULT-OF-"+string(k)+"\n") && !declared[k] {
				t.Errorf("%s embeds %s which it does not depend on", e.Kind, k)
			}
		}
	}
}

func TestBuild_IncludesContextAndDeps(t *testing.T) {
	in := sampleInput()
	in.Deps[models.KindTopicResearch] = "Loops repeat work."

	got, err := Build(models.KindLearningObjectives, in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, want := range []string{
		"Course: Intro to Programming",
		"Lesson: Loops",
		"Write a for loop",
		"Variables; Conditionals",
		"## Topic Research",
		"Loops repeat work.",
		JSONInstruction,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuild_TextKindHasNoJSONInstruction(t *testing.T) {
	got, _ := Build(models.KindCoreConcepts, sampleInput())
	if strings.Contains(got, JSONInstruction) {
		t.Error("text prompt should not ask for JSON")
	}
}

func TestBuild_SkipsEmptyDeps(t *testing.T) {
	got, _ := Build(models.KindCoreConcepts, sampleInput())
	if strings.Contains(got, "## Topic Research") {
		t.Error("empty dependency should not produce a heading")
	}
}

func TestBuild_UnknownKind(t *testing.T) {
	if _, err := Build("nope", sampleInput()); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestBuild_DepthGuidance(t *testing.T) {
	in := sampleInput()
	in.Depth = models.DepthBasic
	basic, _ := Build(models.KindCoreConcepts, in)
	in.Depth = models.DepthExpert
	expert, _ := Build(models.KindCoreConcepts, in)
	if basic == expert {
		t.Error("depth should change the prompt")
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", maxDepChars+100)
	got := truncate(long, maxDepChars)
	if !strings.HasSuffix(got, "[...]") || len(got) > maxDepChars+10 {
		t.Errorf("truncate produced %d chars", len(got))
	}
	if truncate("short", 10) != "short" {
		t.Error("short strings should pass through")
	}
	if got := truncate("ñandú ñandú", 4); got != "ñand\n[...]" || !utf8.ValidString(got) {
		t.Errorf("truncate split a rune: %q", got)
	}
}

func TestChapterPrompts(t *testing.T) {
	in := sampleInput()
	outline := ChapterOutlinePrompt(in.Context, in.Depth, 4)
	if !strings.Contains(outline, "4 chapters") || !strings.Contains(outline, JSONInstruction) {
		t.Errorf("outline prompt = %q", outline)
	}

	chapters := []models.ChapterOutline{
		{Index: 0, Title: "What is a loop"},
		{Index: 1, Title: "For loops", KeyPoints: []string{"range"}},
	}
	got := ChapterPrompt(in.Context, in.Depth, chapters[1], chapters)
	for _, want := range []string{`chapter 2, "For loops"`, "2. For loops (this chapter)", "- range"} {
		if !strings.Contains(got, want) {
			t.Errorf("chapter prompt missing %q", want)
		}
	}
}
