package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/graph"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/orchestrator"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/tui"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

var (
	genCourse      string
	genModule      string
	genLesson      string
	genDescription string
	genDifficulty  string
	genAudience    string
	genDuration    int
	genObjectives  []string
	genExisting    []string
	genDepth       string
	genStrategy    string
	genParallel    bool
	genRetryFailed int
	genTUI         bool
	genOutput      string
	genFormat      string
	genTimeout     time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one lesson",
	Long: `Generate a lesson and write it as markdown, JSON or YAML.

Depth controls how many generation tasks run:
` + depthHelp() + `

Failed tasks do not fail the lesson; their sections are left out and listed
in the generation report. --retry-failed reruns them in the same process.

Examples:
  lessonforge generate --course "Intro to Programming" --lesson "Loops"
  lessonforge generate --course Go --lesson Channels --depth expert -o channels.md
  lessonforge generate --course Go --lesson Maps --strategy chapters --format json
  lessonforge generate --course Go --lesson Errors --retry-failed 2 --tui`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

// depthHelp lists, per depth, the task count and the tasks that depth adds.
func depthHelp() string {
	catalog := graph.Catalog()
	var sb strings.Builder
	for i, d := range models.DepthLevels {
		var added []string
		total := 0
		for _, e := range catalog {
			if d.Includes(e.MinDepth) {
				total++
			}
			if e.MinDepth == d {
				added = append(added, strings.ToLower(e.Title))
			}
		}
		verb := "runs"
		if i > 0 {
			verb = "adds"
		}
		line := fmt.Sprintf("%s %d tasks: %s", verb, total, strings.Join(added, ", "))
		fmt.Fprintf(&sb, "  %-14s %s\n", d, wrap(line, 62, strings.Repeat(" ", 17)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func depthNames() string {
	names := make([]string, len(models.DepthLevels))
	for i, d := range models.DepthLevels {
		names[i] = string(d)
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}

// wrap breaks s into lines of at most width runes, indenting continuation lines.
func wrap(s string, width int, indent string) string {
	var sb strings.Builder
	n := 0
	for i, w := range strings.Fields(s) {
		l := len([]rune(w))
		if i > 0 {
			if n+1+l > width {
				sb.WriteString("\n" + indent)
				n = 0
			} else {
				sb.WriteByte(' ')
				n++
			}
		}
		sb.WriteString(w)
		n += l
	}
	return sb.String()
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genCourse, "course", "", "Course title (required)")
	f.StringVar(&genModule, "module", "", "Module title")
	f.StringVar(&genLesson, "lesson", "", "Lesson title (required)")
	f.StringVar(&genDescription, "description", "", "Lesson description")
	f.StringVar(&genDifficulty, "difficulty", "", "Difficulty, e.g. beginner or advanced")
	f.StringVar(&genAudience, "audience", "", "Target audience")
	f.IntVar(&genDuration, "duration", 0, "Expected lesson duration in minutes")
	f.StringArrayVar(&genObjectives, "objective", nil, "Learning objective (repeatable)")
	f.StringArrayVar(&genExisting, "existing", nil, "Title of an existing lesson in the module (repeatable)")
	f.StringVar(&genDepth, "depth", "", "Depth: "+depthNames()+" (default from config)")
	f.StringVar(&genStrategy, "strategy", "", "Strategy: tasks or chapters (default from config)")
	f.BoolVar(&genParallel, "parallel", true, "Run independent tasks concurrently")
	f.IntVar(&genRetryFailed, "retry-failed", 0, "Rerun failed and skipped tasks up to N times")
	f.BoolVar(&genTUI, "tui", false, "Show a live progress view")
	f.StringVarP(&genOutput, "output", "o", "", "Output file (default stdout)")
	f.StringVar(&genFormat, "format", "", "Output format: md, json or yaml (default from --output extension)")
	f.DurationVar(&genTimeout, "timeout", 0, "Abort generation after this long (0 means no limit)")
}

// buildRequest assembles a LessonRequest from the generate flags.
func buildRequest(cmd *cobra.Command) models.LessonRequest {
	req := models.LessonRequest{
		LessonContext: models.LessonContext{
			CourseTitle:        genCourse,
			ModuleTitle:        genModule,
			LessonTitle:        genLesson,
			LessonDescription:  genDescription,
			Difficulty:         genDifficulty,
			TargetAudience:     genAudience,
			DurationMinutes:    genDuration,
			LearningObjectives: genObjectives,
			ExistingLessons:    genExisting,
		},
		Depth:    models.DepthLevel(genDepth),
		Strategy: models.Strategy(genStrategy),
	}
	if cmd.Flags().Changed("parallel") {
		parallel := genParallel
		req.Parallel = &parallel
	}
	return req
}

func runGenerate(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(genFormat, genOutput)
	if err != nil {
		return err
	}
	req := buildRequest(cmd)
	// Validate a copy: an empty depth must stay empty so the config default applies.
	check := req
	if err := check.Validate(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closeLog := setupDebugLog(cfg)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if genTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, genTimeout)
		defer cancel()
	}

	var events *orchestrator.EventEmitter
	if genTUI {
		events = orchestrator.NewEventEmitter(orchestrator.DefaultEventBuffer)
	}
	a, err := newApp(cfg, nil, events)
	if err != nil {
		return err
	}
	defer a.Close()

	parallel := cfg.Generation.Parallel
	if req.Parallel != nil {
		parallel = *req.Parallel
	}

	var res *models.LessonResult
	if genTUI {
		res, err = generateWithTUI(ctx, a, req, parallel, events)
	} else {
		res, err = generateLesson(ctx, a, req, parallel, printProgress)
	}
	if err != nil {
		return err
	}

	printSummary(res)
	data, err := encode(res, res.ContentData, format)
	if err != nil {
		return err
	}
	return writeOutput(genOutput, data)
}

// generateLesson generates the lesson and reruns failed tasks up to --retry-failed times.
func generateLesson(ctx context.Context, a *app, req models.LessonRequest, parallel bool, progress orchestrator.ProgressFunc) (*models.LessonResult, error) {
	res, err := a.svc.GenerateLesson(ctx, req, progress)
	if err != nil {
		return nil, err
	}
	for i := 0; i < genRetryFailed && needsRetry(res); i++ {
		log.Printf("[main] retrying %d failed and %d skipped tasks (round %d/%d)",
			res.Report.FailedTasks, res.Report.SkippedTasks, i+1, genRetryFailed)
		next, err := a.svc.ResumeSessionWith(ctx, res.SessionID, parallel, progress)
		if err != nil {
			return nil, err
		}
		res = next
	}
	return res, nil
}

// needsRetry reports whether a task session has anything left to rerun.
func needsRetry(res *models.LessonResult) bool {
	r := res.Report
	return r.Strategy == models.StrategyTasks && r.FailedTasks+r.SkippedTasks > 0
}

// generateWithTUI runs generation behind the progress view.
func generateWithTUI(ctx context.Context, a *app, req models.LessonRequest, parallel bool, events *orchestrator.EventEmitter) (*models.LessonResult, error) {
	// Log output corrupts the alt screen.
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program, view := tui.NewProgressProgram(events.Events(), req.LessonTitle)
	view.SetQuitHandler(cancel)

	go func() {
		res, err := generateLesson(ctx, a, req, parallel, nil)
		events.Close()
		program.Send(tui.DoneMsg{Result: res, Err: err})
	}()

	if _, err := program.Run(); err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}
	res, err := view.Result()
	if res == nil && err == nil {
		return nil, context.Canceled
	}
	return res, err
}

func printProgress(completed, total int, status models.TaskStatus, msg string) {
	mark, attr := "•", color.FgCyan
	switch status {
	case models.TaskStatusCompleted:
		mark, attr = "✓", color.FgGreen
	case models.TaskStatusFailed:
		mark, attr = "✗", color.FgRed
	case models.TaskStatusSkipped:
		mark, attr = "-", color.FgYellow
	}
	c := color.New(attr)
	fmt.Fprintf(os.Stderr, "  %s [%d/%d] %s\n", c.Sprint(mark), completed, total, msg)
}

func printSummary(res *models.LessonResult) {
	r := res.Report
	fmt.Fprintln(os.Stderr)
	switch {
	case r.Fallback:
		printStatus("⚠", "No task produced content; wrote the template lesson", color.FgYellow)
	case r.FailedTasks+r.SkippedTasks > 0:
		printStatus("⚠", fmt.Sprintf("Lesson generated with gaps: %d failed, %d skipped", r.FailedTasks, r.SkippedTasks), color.FgYellow)
	default:
		printStatus("✓", "Lesson generated", color.FgGreen)
	}
	fmt.Fprintf(os.Stderr, "  Title:     %s\n", res.Title)
	fmt.Fprintf(os.Stderr, "  Tasks:     %d/%d completed (%.0f%%), quality %.0f\n",
		r.CompletedTasks, r.TotalTasks, r.SuccessRate, r.AverageQuality)
	fmt.Fprintf(os.Stderr, "  Strategy:  %s, depth %s, %d attempt(s), %s\n",
		r.Strategy, r.Depth, r.Attempts, r.Duration.Round(time.Millisecond))
	for name, n := range r.ProvidersUsed {
		fmt.Fprintf(os.Stderr, "  Provider:  %s served %d task(s)\n", name, n)
	}
	if len(r.FailedTaskIDs) > 0 {
		fmt.Fprintf(os.Stderr, "  Failed:    %v\n", r.FailedTaskIDs)
	}
	fmt.Fprintf(os.Stderr, "  Session:   %s\n\n", res.SessionID)
}

// printStatus prints a colored status line to stderr.
func printStatus(symbol, message string, attr color.Attribute) {
	c := color.New(attr)
	fmt.Fprintf(os.Stderr, "%s %s\n", c.Sprint(symbol), message)
}
