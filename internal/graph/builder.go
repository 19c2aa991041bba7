package graph

import (
	"fmt"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// Entry describes one task kind in the lesson catalog.
type Entry struct {
	Kind        models.TaskKind
	Title       string
	Description string
	// MinDepth is the shallowest depth that includes the task.
	MinDepth models.DepthLevel
	// DependsOn lists predecessor kinds. Each must have MinDepth <= this entry's MinDepth.
	DependsOn []models.TaskKind
}

// catalog is in pipeline order.
var catalog = []Entry{
	// Research.
	{models.KindTopicResearch, "Research topic", "Collect the facts, scope and current thinking on the lesson topic",
		models.DepthBasic, nil},
	{models.KindAudienceAnalysis, "Analyse audience", "Describe the learners' background, needs and likely difficulties",
		models.DepthStandard, []models.TaskKind{models.KindTopicResearch}},
	{models.KindPrerequisiteMapping, "Map prerequisites", "List the knowledge learners need before starting",
		models.DepthComprehensive, []models.TaskKind{models.KindTopicResearch, models.KindAudienceAnalysis}},

	// Planning.
	{models.KindLearningObjectives, "Define learning objectives", "Measurable objectives for the lesson",
		models.DepthBasic, []models.TaskKind{models.KindTopicResearch}},
	{models.KindLessonOutline, "Outline lesson", "Section-by-section outline",
		models.DepthStandard, []models.TaskKind{models.KindTopicResearch, models.KindLearningObjectives}},
	{models.KindKeyTerms, "Collect key terms", "Glossary of terms introduced by the lesson",
		models.DepthStandard, []models.TaskKind{models.KindTopicResearch}},

	// Introduction.
	{models.KindIntroductionHook, "Write introduction hook", "Opening that motivates the topic",
		models.DepthBasic, []models.TaskKind{models.KindLearningObjectives}},
	{models.KindIntroductionOverview, "Write lesson overview", "What the lesson covers and why it matters",
		models.DepthBasic, []models.TaskKind{models.KindLearningObjectives}},

	// Theory.
	{models.KindCoreConcepts, "Explain core concepts", "Main explanation of the topic",
		models.DepthBasic, []models.TaskKind{models.KindTopicResearch, models.KindLearningObjectives}},
	{models.KindTheoryDefinitions, "Write definitions", "Formal definitions of the key terms",
		models.DepthStandard, []models.TaskKind{models.KindKeyTerms, models.KindCoreConcepts}},
	{models.KindTheoryPrinciples, "Explain principles", "Underlying principles and rules",
		models.DepthStandard, []models.TaskKind{models.KindCoreConcepts}},
	{models.KindTheoryDeepDive, "Write deep dive", "Advanced treatment of the theory",
		models.DepthComprehensive, []models.TaskKind{models.KindTheoryPrinciples}},
	{models.KindCommonMisconceptions, "Address misconceptions", "Frequent mistakes and how to avoid them",
		models.DepthComprehensive, []models.TaskKind{models.KindCoreConcepts}},

	// Practical.
	{models.KindWorkedExamples, "Write worked examples", "Step-through examples applying the concepts",
		models.DepthBasic, []models.TaskKind{models.KindCoreConcepts}},
	{models.KindRealWorldApplications, "Describe real-world applications", "Where the topic is used in practice",
		models.DepthStandard, []models.TaskKind{models.KindCoreConcepts}},
	{models.KindCaseStudy, "Write case study", "An extended scenario with analysis",
		models.DepthComprehensive, []models.TaskKind{models.KindRealWorldApplications}},
	{models.KindStepByStepGuide, "Write step-by-step guide", "Procedure learners can follow",
		models.DepthComprehensive, []models.TaskKind{models.KindWorkedExamples}},
	{models.KindPracticalActivity, "Design practical activity", "Hands-on activity for learners",
		models.DepthStandard, []models.TaskKind{models.KindWorkedExamples}},
	{models.KindBestPractices, "List best practices", "Recommended practices and pitfalls",
		models.DepthStandard, []models.TaskKind{models.KindCoreConcepts}},
	{models.KindVisualDescriptions, "Describe visuals", "Diagrams and visual aids to accompany the text",
		models.DepthExpert, []models.TaskKind{models.KindCoreConcepts}},

	// Exercises.
	{models.KindExercisesBasic, "Write basic exercises", "Practice questions on the fundamentals",
		models.DepthBasic, []models.TaskKind{models.KindCoreConcepts}},
	{models.KindExercisesAdvanced, "Write advanced exercises", "Challenging problems",
		models.DepthComprehensive, []models.TaskKind{models.KindExercisesBasic}},
	{models.KindDiscussionQuestions, "Write discussion questions", "Open questions for reflection or forums",
		models.DepthStandard, []models.TaskKind{models.KindCoreConcepts}},
	{models.KindAssessmentQuiz, "Build assessment quiz", "Multiple-choice quiz with answers",
		models.DepthComprehensive, []models.TaskKind{models.KindLearningObjectives, models.KindCoreConcepts}},

	// Enhancement.
	{models.KindAnalogies, "Write analogies", "Analogies that make the concepts relatable",
		models.DepthComprehensive, []models.TaskKind{models.KindCoreConcepts, models.KindAudienceAnalysis}},
	{models.KindFurtherReading, "Suggest further reading", "Resources for continued study",
		models.DepthComprehensive, []models.TaskKind{models.KindTopicResearch}},
	{models.KindSummaryKeyPoints, "Summarise key points", "Bullet summary of the lesson",
		models.DepthBasic, []models.TaskKind{models.KindCoreConcepts}},
	{models.KindSummaryRecap, "Write recap", "Closing recap tying back to the objectives",
		models.DepthStandard, []models.TaskKind{models.KindSummaryKeyPoints, models.KindLearningObjectives}},

	// Validation.
	{models.KindQualityReview, "Review quality", "Editorial review of the core content",
		models.DepthExpert, []models.TaskKind{models.KindCoreConcepts, models.KindWorkedExamples, models.KindExercisesBasic}},
	{models.KindConsistencyCheck, "Check consistency", "Check the content against the outline and summary",
		models.DepthExpert, []models.TaskKind{models.KindLessonOutline, models.KindSummaryKeyPoints}},
	{models.KindAccessibilityReview, "Review accessibility", "Reading level and accessibility suggestions",
		models.DepthExpert, []models.TaskKind{models.KindIntroductionHook, models.KindCoreConcepts}},
}

// Catalog returns a copy of every catalog entry in pipeline order.
func Catalog() []Entry {
	out := make([]Entry, len(catalog))
	for i, e := range catalog {
		e.DependsOn = append([]models.TaskKind(nil), e.DependsOn...)
		out[i] = e
	}
	return out
}

// Lookup returns the catalog entry for a kind.
func Lookup(kind models.TaskKind) (Entry, bool) {
	for _, e := range catalog {
		if e.Kind == kind {
			return e, true
		}
	}
	return Entry{}, false
}

// Build returns the pending tasks for a depth level in pipeline order.
// The result is deterministic and every dependency refers to a task in the result.
func Build(depth models.DepthLevel) ([]*models.Task, error) {
	if !depth.Valid() {
		return nil, fmt.Errorf("build task graph: %w: %q", models.ErrInvalidDepth, depth)
	}

	var tasks []*models.Task
	for _, e := range catalog {
		if !depth.Includes(e.MinDepth) {
			continue
		}
		deps := make([]string, 0, len(e.DependsOn))
		for _, k := range e.DependsOn {
			deps = append(deps, string(k))
		}
		tasks = append(tasks, &models.Task{
			ID:          string(e.Kind),
			Kind:        e.Kind,
			Title:       e.Title,
			Description: e.Description,
			DependsOn:   deps,
			Status:      models.TaskStatusPending,
		})
	}
	return tasks, nil
}

// Validate loads tasks into a fresh DependencyGraph, rejecting dangling references and cycles.
func Validate(tasks []*models.Task) (*DependencyGraph, error) {
	g := New()
	if err := g.Build(tasks); err != nil {
		return nil, err
	}
	return g, nil
}
