package models

// TaskKind identifies the content fragment a task generates.
type TaskKind string

// Research phase.
const (
	KindTopicResearch       TaskKind = "topic_research"
	KindAudienceAnalysis    TaskKind = "audience_analysis"
	KindPrerequisiteMapping TaskKind = "prerequisite_mapping"
)

// Planning phase. These kinds produce JSON.
const (
	KindLearningObjectives TaskKind = "learning_objectives"
	KindLessonOutline      TaskKind = "lesson_outline"
	KindKeyTerms           TaskKind = "key_terms"
)

// Content phase.
const (
	KindIntroductionHook      TaskKind = "introduction_hook"
	KindIntroductionOverview  TaskKind = "introduction_overview"
	KindCoreConcepts          TaskKind = "core_concepts"
	KindTheoryDefinitions     TaskKind = "theory_definitions"
	KindTheoryPrinciples      TaskKind = "theory_principles"
	KindTheoryDeepDive        TaskKind = "theory_deep_dive"
	KindCommonMisconceptions  TaskKind = "common_misconceptions"
	KindWorkedExamples        TaskKind = "worked_examples"
	KindRealWorldApplications TaskKind = "real_world_applications"
	KindCaseStudy             TaskKind = "case_study"
	KindStepByStepGuide       TaskKind = "step_by_step_guide"
	KindPracticalActivity     TaskKind = "practical_activity"
	KindBestPractices         TaskKind = "best_practices"
	KindVisualDescriptions    TaskKind = "visual_descriptions"
	KindExercisesBasic        TaskKind = "exercises_basic"
	KindExercisesAdvanced     TaskKind = "exercises_advanced"
	KindDiscussionQuestions   TaskKind = "discussion_questions"
	KindAssessmentQuiz        TaskKind = "assessment_quiz"
)

// Enhancement phase.
const (
	KindAnalogies        TaskKind = "analogies"
	KindFurtherReading   TaskKind = "further_reading"
	KindSummaryKeyPoints TaskKind = "summary_key_points"
	KindSummaryRecap     TaskKind = "summary_recap"
)

// Validation phase.
const (
	KindQualityReview       TaskKind = "quality_review"
	KindConsistencyCheck    TaskKind = "consistency_check"
	KindAccessibilityReview TaskKind = "accessibility_review"
)

// Phase groups task kinds by where they sit in the generation pipeline.
type Phase string

const (
	PhaseResearch    Phase = "research"
	PhasePlanning    Phase = "planning"
	PhaseContent     Phase = "content"
	PhaseEnhancement Phase = "enhancement"
	PhaseValidation  Phase = "validation"
)

// Section is the lesson bucket a content kind is assembled into.
type Section string

const (
	SectionNone         Section = ""
	SectionIntroduction Section = "introduction"
	SectionTheory       Section = "theory"
	SectionPractical    Section = "practical"
	SectionExercises    Section = "exercises"
	SectionSummary      Section = "summary"
)

// SectionOrder is the order buckets appear in an assembled lesson.
var SectionOrder = []Section{
	SectionIntroduction,
	SectionTheory,
	SectionPractical,
	SectionExercises,
	SectionSummary,
}

// Title returns the heading used for the section in assembled content.
func (s Section) Title() string {
	switch s {
	case SectionIntroduction:
		return "Introduction"
	case SectionTheory:
		return "Theory"
	case SectionPractical:
		return "Practical Application"
	case SectionExercises:
		return "Exercises"
	case SectionSummary:
		return "Summary"
	default:
		return ""
	}
}

// allKinds is in pipeline order; graph building and assembly rely on it.
var allKinds = []TaskKind{
	KindTopicResearch,
	KindAudienceAnalysis,
	KindPrerequisiteMapping,
	KindLearningObjectives,
	KindLessonOutline,
	KindKeyTerms,
	KindIntroductionHook,
	KindIntroductionOverview,
	KindCoreConcepts,
	KindTheoryDefinitions,
	KindTheoryPrinciples,
	KindTheoryDeepDive,
	KindCommonMisconceptions,
	KindWorkedExamples,
	KindRealWorldApplications,
	KindCaseStudy,
	KindStepByStepGuide,
	KindPracticalActivity,
	KindBestPractices,
	KindVisualDescriptions,
	KindExercisesBasic,
	KindExercisesAdvanced,
	KindDiscussionQuestions,
	KindAssessmentQuiz,
	KindAnalogies,
	KindFurtherReading,
	KindSummaryKeyPoints,
	KindSummaryRecap,
	KindQualityReview,
	KindConsistencyCheck,
	KindAccessibilityReview,
}

// AllTaskKinds returns every task kind in pipeline order.
func AllTaskKinds() []TaskKind {
	return append([]TaskKind(nil), allKinds...)
}

// Valid returns true if the kind is a known value.
func (k TaskKind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Phase returns the pipeline phase of the kind.
func (k TaskKind) Phase() Phase {
	switch k {
	case KindTopicResearch, KindAudienceAnalysis, KindPrerequisiteMapping:
		return PhaseResearch
	case KindLearningObjectives, KindLessonOutline, KindKeyTerms:
		return PhasePlanning
	case KindAnalogies, KindFurtherReading, KindSummaryKeyPoints, KindSummaryRecap:
		return PhaseEnhancement
	case KindQualityReview, KindConsistencyCheck, KindAccessibilityReview:
		return PhaseValidation
	default:
		return PhaseContent
	}
}

// Section returns the bucket the kind's output is assembled into.
// Research, planning and validation kinds are not assembled directly.
func (k TaskKind) Section() Section {
	switch k {
	case KindIntroductionHook, KindIntroductionOverview:
		return SectionIntroduction
	case KindCoreConcepts, KindTheoryDefinitions, KindTheoryPrinciples,
		KindTheoryDeepDive, KindCommonMisconceptions, KindAnalogies:
		return SectionTheory
	case KindWorkedExamples, KindRealWorldApplications, KindCaseStudy,
		KindStepByStepGuide, KindPracticalActivity, KindBestPractices, KindVisualDescriptions:
		return SectionPractical
	case KindExercisesBasic, KindExercisesAdvanced, KindDiscussionQuestions, KindAssessmentQuiz:
		return SectionExercises
	case KindSummaryKeyPoints, KindSummaryRecap, KindFurtherReading:
		return SectionSummary
	default:
		return SectionNone
	}
}

// ProducesJSON reports whether the kind's result is a JSON document.
func (k TaskKind) ProducesJSON() bool {
	switch k {
	case KindLearningObjectives, KindLessonOutline, KindKeyTerms, KindAssessmentQuiz:
		return true
	default:
		return false
	}
}
