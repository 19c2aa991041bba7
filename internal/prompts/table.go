package prompts

import "github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"

// Shorthands for dependency lists.
const (
	research   = models.KindTopicResearch
	audience   = models.KindAudienceAnalysis
	objectives = models.KindLearningObjectives
	outline    = models.KindLessonOutline
	terms      = models.KindKeyTerms
	concepts   = models.KindCoreConcepts
	examples   = models.KindWorkedExamples
	keyPoints  = models.KindSummaryKeyPoints
)

var table = map[models.TaskKind]Spec{
	// Research.
	models.KindTopicResearch: text(400,
		"Research the lesson topic. Summarise the key facts, scope, current practice and common "+
			"applications under markdown headings, using bullet lists for facts."),
	models.KindAudienceAnalysis: text(300,
		"Describe the target learners: prior knowledge, motivations, likely difficulties and how the "+
			"lesson should adapt to them. Use markdown headings and bullet lists.",
		research),
	models.KindPrerequisiteMapping: text(250,
		"List the knowledge and skills learners need before this lesson, grouped under markdown "+
			"headings, with a one-line note on why each matters.",
		research, audience),

	// Planning.
	models.KindLearningObjectives: structured(
		`Write 3 to 6 measurable learning objectives using action verbs (define, apply, analyse...). `+
			`Use the shape {"objectives": ["..."]}. Include every required objective.`,
		research),
	models.KindLessonOutline: structured(
		`Outline the lesson section by section. `+
			`Use the shape {"sections": [{"title": "...", "summary": "..."}]}.`,
		research, objectives),
	models.KindKeyTerms: structured(
		`List the key terms the lesson introduces with short definitions. `+
			`Use the shape {"terms": [{"term": "...", "definition": "..."}]}.`,
		research),

	// Introduction.
	models.KindIntroductionHook: text(200,
		"Write an engaging opening for the lesson: a question, scenario or surprising fact that "+
			"motivates the topic. Start with a markdown heading and keep it to a few short paragraphs.",
		objectives),
	models.KindIntroductionOverview: text(250,
		"Write an overview of what the lesson covers and why it matters, with a bulleted list of the "+
			"main topics. Start with a markdown heading.",
		objectives),

	// Theory.
	models.KindCoreConcepts: text(800,
		"Explain the core concepts of the lesson. Give a clear definition of each concept, the "+
			"principle behind it and a short example. Use markdown headings, **bold** key terms and lists.",
		research, objectives),
	models.KindTheoryDefinitions: text(400,
		"Give precise definitions of the key terms, each under its own markdown heading, followed by "+
			"the principle it relates to.",
		terms, concepts),
	models.KindTheoryPrinciples: text(400,
		"Explain the underlying principles and rules of the topic. Define each principle, state when "+
			"it applies and use markdown headings and lists.",
		concepts),
	models.KindTheoryDeepDive: text(800,
		"Write an advanced deep dive into the theory: derivations, trade-offs and limits. Define new "+
			"terms as they appear. Use markdown headings.",
		models.KindTheoryPrinciples),
	models.KindCommonMisconceptions: text(300,
		"List common misconceptions about the topic. For each, state the misconception in **bold**, "+
			"explain why it is wrong and give the correct principle.",
		concepts),

	// Practical.
	models.KindWorkedExamples: text(600,
		"Write 2 or 3 worked examples that apply the core concepts step by step. Label each one "+
			"\"Example 1\", \"Example 2\" and so on under markdown headings, with numbered steps.",
		concepts),
	models.KindRealWorldApplications: text(400,
		"Describe real-world applications of the topic. For each, give a concrete example from "+
			"industry or daily life under a markdown heading.",
		concepts),
	models.KindCaseStudy: text(600,
		"Write a case study: an extended realistic scenario, the decisions involved and an analysis "+
			"of the outcome. Use markdown headings and call out the example scenario clearly.",
		models.KindRealWorldApplications),
	models.KindStepByStepGuide: text(400,
		"Write a step-by-step guide learners can follow to apply the topic, as a numbered list under "+
			"a markdown heading, ending with a short example of the finished result.",
		examples),
	models.KindPracticalActivity: text(400,
		"Design a hands-on activity with a goal, materials, numbered instructions and an example of "+
			"expected output. Use markdown headings.",
		examples),
	models.KindBestPractices: text(300,
		"List best practices and pitfalls for the topic as bullet points under markdown headings, "+
			"each with a one-line example.",
		concepts),
	models.KindVisualDescriptions: text(300,
		"Describe 2 to 4 diagrams or visual aids that would support the lesson: what each shows, "+
			"its labels and where it belongs. Use markdown headings and lists.",
		concepts),

	// Exercises.
	models.KindExercisesBasic: text(300,
		"Write at least 5 practice questions on the fundamentals as a numbered markdown list. Every "+
			"question must end with a question mark. Add brief answers under a separate heading.",
		concepts),
	models.KindExercisesAdvanced: text(400,
		"Write at least 4 challenging problems that combine several concepts, as a numbered markdown "+
			"list of questions ending with question marks, followed by solution hints.",
		models.KindExercisesBasic),
	models.KindDiscussionQuestions: text(200,
		"Write at least 4 open-ended discussion questions for reflection or a forum, as a markdown "+
			"list. Every question must end with a question mark.",
		concepts),
	models.KindAssessmentQuiz: structured(
		`Write a multiple-choice quiz of 5 questions covering the objectives. `+
			`Use the shape {"questions": [{"question": "...", "options": ["..."], "answer": "...", "explanation": "..."}]}.`,
		objectives, concepts),

	// Enhancement.
	models.KindAnalogies: text(250,
		"Write 2 or 3 analogies that make the core concepts relatable to the audience, each under a "+
			"markdown heading with an example of where the analogy breaks down.",
		concepts, audience),
	models.KindFurtherReading: text(200,
		"Suggest further reading and resources as a markdown list grouped by level, with a one-line "+
			"description of each. Do not invent URLs.",
		research),
	models.KindSummaryKeyPoints: text(200,
		"Summarise the key points of the lesson as a bulleted markdown list under a heading.",
		concepts),
	models.KindSummaryRecap: text(200,
		"Write a closing recap that ties the key points back to the learning objectives. Start with "+
			"a markdown heading and use **bold** for each objective.",
		keyPoints, objectives),

	// Validation.
	models.KindQualityReview: text(200,
		"Review the lesson content below for accuracy, clarity and completeness. Report findings as "+
			"a markdown list under headings, with suggested fixes.",
		concepts, examples, models.KindExercisesBasic),
	models.KindConsistencyCheck: text(200,
		"Check that the content below is consistent with the outline and summary. List "+
			"inconsistencies as markdown bullet points under a heading, or state that none were found.",
		outline, keyPoints),
	models.KindAccessibilityReview: text(200,
		"Review the content below for reading level and accessibility. List suggestions as markdown "+
			"bullet points under headings.",
		models.KindIntroductionHook, concepts),
}
