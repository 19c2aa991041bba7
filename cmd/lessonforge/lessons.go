package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/config"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/state"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

var (
	lessonsLimit  int
	exportFormat  string
	exportOutput  string
	exportReport  bool
	showTaskLimit int
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Browse the lesson archive",
	Long: `List, inspect, export and delete archived lessons.

Every generated lesson is stored in a local SQLite archive
(archive.path in the config) together with the outcome of each task.`,
}

var lessonsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived lessons, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(db *state.DB) error {
			lessons, err := db.ListLessons(cmd.Context(), lessonsLimit)
			if err != nil {
				return err
			}
			if len(lessons) == 0 {
				fmt.Println("No archived lessons.")
				return nil
			}
			for _, l := range lessons {
				fmt.Println(formatSummary(l))
			}
			return nil
		})
	},
}

var lessonsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an archived lesson's report and task results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(db *state.DB) error {
			rec, err := db.GetLesson(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tasks, err := db.ListTaskResults(cmd.Context(), rec.ID)
			if err != nil {
				return err
			}
			printLesson(rec, tasks)
			return nil
		})
	},
}

var lessonsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export an archived lesson as markdown, JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := parseFormat(exportFormat, exportOutput)
		if err != nil {
			return err
		}
		return withArchive(func(db *state.DB) error {
			rec, err := db.GetLesson(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var v any = rec.Result()
			if exportReport {
				tasks, err := db.ListTaskResults(cmd.Context(), rec.ID)
				if err != nil {
					return err
				}
				v = struct {
					Lesson *state.LessonRecord `json:"lesson"`
					Tasks  []state.TaskResult  `json:"tasks"`
				}{rec, tasks}
			}
			data, err := encode(v, rec.Content, format)
			if err != nil {
				return err
			}
			return writeOutput(exportOutput, data)
		})
	},
}

var lessonsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(db *state.DB) error {
			if err := db.DeleteLesson(cmd.Context(), args[0]); err != nil {
				return err
			}
			printStatus("✓", fmt.Sprintf("Deleted lesson %s", args[0]), color.FgGreen)
			return nil
		})
	},
}

func init() {
	lessonsListCmd.Flags().IntVarP(&lessonsLimit, "limit", "n", state.DefaultListLimit, "Maximum lessons to list")
	lessonsShowCmd.Flags().IntVar(&showTaskLimit, "preview", 80, "Characters of each task result to show (0 hides results)")
	lessonsExportCmd.Flags().StringVar(&exportFormat, "format", "", "Output format: md, json or yaml (default from --output extension)")
	lessonsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	lessonsExportCmd.Flags().BoolVar(&exportReport, "with-tasks", false, "Include the archived task results (json and yaml only)")

	lessonsCmd.AddCommand(lessonsListCmd)
	lessonsCmd.AddCommand(lessonsShowCmd)
	lessonsCmd.AddCommand(lessonsExportCmd)
	lessonsCmd.AddCommand(lessonsDeleteCmd)
}

// withArchive opens the archive named by the config and runs fn against it.
func withArchive(fn func(db *state.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Archive.Enabled {
		return errors.New("lesson archive is disabled (archive.enabled: false)")
	}
	db, err := state.OpenArchive(archivePath(cfg))
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func archivePath(cfg *config.Config) string {
	if cfg.Archive.Path != "" {
		return cfg.Archive.Path
	}
	return state.DefaultPath()
}

func formatSummary(l state.LessonSummary) string {
	title := l.Title
	if l.Fallback {
		title += color.YellowString(" (template)")
	}
	return fmt.Sprintf("%s  %s  %-8s %-8s %s / %s",
		l.ID,
		l.CreatedAt.Local().Format("2006-01-02 15:04"),
		l.Depth,
		l.Strategy,
		l.CourseTitle,
		title)
}

func printLesson(rec *state.LessonRecord, tasks []state.TaskResult) {
	r := rec.Report
	bold := color.New(color.Bold)
	bold.Println(rec.Title)
	fmt.Printf("  ID:        %s\n", rec.ID)
	fmt.Printf("  Course:    %s\n", rec.CourseTitle)
	if rec.ModuleTitle != "" {
		fmt.Printf("  Module:    %s\n", rec.ModuleTitle)
	}
	fmt.Printf("  Created:   %s\n", rec.CreatedAt.Local().Format(time.RFC1123))
	fmt.Printf("  Strategy:  %s, depth %s, %d attempt(s)\n", rec.Strategy, rec.Depth, r.Attempts)
	fmt.Printf("  Tasks:     %d/%d completed, %d failed, %d skipped\n",
		r.CompletedTasks, r.TotalTasks, r.FailedTasks, r.SkippedTasks)
	fmt.Printf("  Quality:   %.0f average, %.0f%% success\n", r.AverageQuality, r.SuccessRate)
	if rec.Fallback {
		fmt.Printf("  %s\n", color.YellowString("Template lesson: no task produced content"))
	}
	for name, u := range r.ProviderStats {
		fmt.Printf("  Provider:  %s %d requests, %d failures, %d cache hits, %d/%d tokens\n",
			name, u.Requests, u.Failures, u.CacheHits, u.InputTokens, u.OutputTokens)
	}

	if len(tasks) == 0 {
		return
	}
	fmt.Println()
	bold.Println("Tasks")
	for _, t := range tasks {
		fmt.Println(formatTask(t))
		if showTaskLimit > 0 && t.Result != "" {
			fmt.Printf("      %s\n", color.HiBlackString("%s", preview(t.Result, showTaskLimit)))
		}
	}
}

func formatTask(t state.TaskResult) string {
	var status string
	switch t.Status {
	case models.TaskStatusCompleted:
		status = color.GreenString("%-11s", t.Status)
	case models.TaskStatusFailed:
		status = color.RedString("%-11s", t.Status)
	case models.TaskStatusSkipped:
		status = color.YellowString("%-11s", t.Status)
	default:
		status = fmt.Sprintf("%-11s", t.Status)
	}
	line := fmt.Sprintf("  %s %-22s q=%-3d retries=%d", status, t.TaskID, t.QualityScore, t.RetryCount)
	if t.Provider != "" {
		line += fmt.Sprintf(" %s %s", t.Provider, t.Duration.Round(time.Millisecond))
	}
	if t.Error != "" {
		line += " " + color.RedString("%s", preview(t.Error, 60))
	}
	return line
}

// preview flattens s onto one line and cuts it to n runes.
func preview(s string, n int) string {
	r := []rune(s)
	out := make([]rune, 0, min(len(r), n))
	for _, c := range r {
		if len(out) >= n {
			return string(out) + "..."
		}
		if c == '\n' || c == '\r' || c == '\t' {
			c = ' '
		}
		out = append(out, c)
	}
	return string(out)
}
