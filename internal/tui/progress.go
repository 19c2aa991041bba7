package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/orchestrator"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// maxLogEntries is how many activity lines the view keeps.
const maxLogEntries = 8

// TaskRow is one task or chapter in the progress list.
type TaskRow struct {
	ID       string
	Title    string
	Status   models.TaskStatus
	Attempt  int
	Provider string
	Duration time.Duration
	Error    string
}

// ProgressState is everything the view renders.
type ProgressState struct {
	SessionID string
	Lesson    string
	Completed int
	Failed    int
	Skipped   int
	Total     int
	Retries   int
	// Rows are kept in first-seen order.
	Rows []TaskRow
}

// Percent returns overall completion, counting failed and skipped rows as done.
func (s ProgressState) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	done := s.Completed + s.Failed + s.Skipped
	if done > s.Total {
		done = s.Total
	}
	return float64(done) / float64(s.Total)
}

func (s *ProgressState) row(id, title string) *TaskRow {
	for i := range s.Rows {
		if s.Rows[i].ID == id {
			if title != "" {
				s.Rows[i].Title = title
			}
			return &s.Rows[i]
		}
	}
	s.Rows = append(s.Rows, TaskRow{ID: id, Title: title, Status: models.TaskStatusPending})
	return &s.Rows[len(s.Rows)-1]
}

// Apply folds one executor event into the state.
func (s *ProgressState) Apply(ev orchestrator.Event) {
	if s.SessionID == "" {
		s.SessionID = ev.SessionID
	}
	if ev.Type != orchestrator.EventSessionDone && ev.TaskID != "" {
		r := s.row(ev.TaskID, ev.TaskTitle)
		if ev.Attempt > 0 {
			r.Attempt = ev.Attempt
		}
		switch ev.Type {
		case orchestrator.EventTaskStarted:
			r.Status = models.TaskStatusInProgress
		case orchestrator.EventTaskRetry:
			s.Retries++
			r.Status = models.TaskStatusInProgress
			if ev.Error != nil {
				r.Error = ev.Error.Error()
			}
		case orchestrator.EventTaskCompleted:
			r.Status = models.TaskStatusCompleted
			r.Provider = ev.Provider
			r.Duration = ev.Duration
			r.Error = ""
		case orchestrator.EventTaskFailed:
			r.Status = models.TaskStatusFailed
			r.Duration = ev.Duration
			if ev.Error != nil {
				r.Error = ev.Error.Error()
			}
		case orchestrator.EventTaskSkipped:
			r.Status = models.TaskStatusSkipped
		}
	}
	s.recount()
	if ev.Total > 0 {
		s.Total = ev.Total
	}
	if ev.Total > 0 && ev.Completed > s.Completed {
		s.Completed = ev.Completed
	}
}

func (s *ProgressState) recount() {
	s.Completed, s.Failed, s.Skipped = 0, 0, 0
	for _, r := range s.Rows {
		switch r.Status {
		case models.TaskStatusCompleted:
			s.Completed++
		case models.TaskStatusFailed:
			s.Failed++
		case models.TaskStatusSkipped:
			s.Skipped++
		}
	}
	if len(s.Rows) > s.Total {
		s.Total = len(s.Rows)
	}
}

// EventMsg carries one executor event into the program.
type EventMsg struct {
	Event orchestrator.Event
}

// DoneMsg is sent when generation returns.
type DoneMsg struct {
	Result *models.LessonResult
	Err    error
}

// eventsClosedMsg signals that the event channel was closed.
type eventsClosedMsg struct{}

// WaitForEvent returns a command that blocks for the next event on ch.
func WaitForEvent(ch <-chan orchestrator.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// LogEntry is one line of the activity log.
type LogEntry struct {
	Timestamp time.Time
	Kind      string
	Message   string
}

// ProgressApp is the bubbletea model for lesson generation progress.
type ProgressApp struct {
	state    ProgressState
	events   <-chan orchestrator.Event
	logs     []LogEntry
	spinner  spinner.Model
	bar      progress.Model
	onQuit   func()
	width    int
	done     bool
	quitting bool
	result   *models.LessonResult
	err      error

	titleStyle lipgloss.Style
	labelStyle lipgloss.Style
	valueStyle lipgloss.Style
	mutedStyle lipgloss.Style
	okStyle    lipgloss.Style
	failStyle  lipgloss.Style
	skipStyle  lipgloss.Style
	runStyle   lipgloss.Style
}

// NewProgressApp creates a ProgressApp reading from events. events may be nil
// when the caller sends EventMsg values itself.
func NewProgressApp(events <-chan orchestrator.Event, lesson string) *ProgressApp {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &ProgressApp{
		state:   ProgressState{Lesson: lesson},
		events:  events,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		width:   80,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12),
		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),
		mutedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		okStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")),
		failStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		skipStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		runStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")),
	}
}

// SetQuitHandler sets a callback run when the user quits before generation ends.
func (a *ProgressApp) SetQuitHandler(fn func()) {
	a.onQuit = fn
}

// State returns the current progress state.
func (a *ProgressApp) State() ProgressState {
	return a.state
}

// Result returns the generation result once DoneMsg has arrived.
func (a *ProgressApp) Result() (*models.LessonResult, error) {
	return a.result, a.err
}

// Init implements tea.Model.
func (a *ProgressApp) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, WaitForEvent(a.events))
}

// Update implements tea.Model.
func (a *ProgressApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !a.done {
				a.quitting = true
				if a.onQuit != nil {
					a.onQuit()
				}
			}
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		if w := msg.Width - 20; w > 10 {
			a.bar.Width = min(w, 60)
		}

	case spinner.TickMsg:
		if a.done {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case EventMsg:
		a.state.Apply(msg.Event)
		a.log(msg.Event)
		return a, WaitForEvent(a.events)

	case eventsClosedMsg:
		a.events = nil

	case DoneMsg:
		a.done = true
		a.result = msg.Result
		a.err = msg.Err
		if msg.Result != nil {
			r := msg.Result.Report
			a.state.Total = r.TotalTasks
			a.state.Completed = r.CompletedTasks
			a.state.Failed = r.FailedTasks
			a.state.Skipped = r.SkippedTasks
		}
	}
	return a, nil
}

func (a *ProgressApp) log(ev orchestrator.Event) {
	msg := ev.Message
	if msg == "" {
		switch ev.Type {
		case orchestrator.EventTaskStarted:
			msg = fmt.Sprintf("%s started (attempt %d)", ev.TaskTitle, ev.Attempt)
		case orchestrator.EventTaskRetry:
			msg = fmt.Sprintf("%s retrying: %v", ev.TaskTitle, ev.Error)
		case orchestrator.EventTaskFailed:
			msg = fmt.Sprintf("%s failed: %v", ev.TaskTitle, ev.Error)
		case orchestrator.EventTaskSkipped:
			msg = fmt.Sprintf("%s skipped", ev.TaskTitle)
		default:
			msg = ev.TaskTitle
		}
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	a.logs = append(a.logs, LogEntry{Timestamp: ts, Kind: string(ev.Type), Message: msg})
	if len(a.logs) > maxLogEntries {
		a.logs = a.logs[len(a.logs)-maxLogEntries:]
	}
}

// View implements tea.Model.
func (a *ProgressApp) View() string {
	if a.quitting {
		return "Generation cancelled.\n"
	}

	var b strings.Builder
	b.WriteString(a.titleStyle.Render("=== lessonforge ==="))
	b.WriteString("\n\n")

	b.WriteString(a.labelStyle.Render("Lesson:"))
	b.WriteString(a.valueStyle.Render(a.state.Lesson))
	b.WriteString("\n")
	if a.state.SessionID != "" {
		b.WriteString(a.labelStyle.Render("Session:"))
		b.WriteString(a.mutedStyle.Render(a.state.SessionID))
		b.WriteString("\n")
	}
	counts := fmt.Sprintf("%d/%d completed", a.state.Completed, a.state.Total)
	if a.state.Failed > 0 {
		counts += ", " + a.failStyle.Render(fmt.Sprintf("%d failed", a.state.Failed))
	}
	if a.state.Skipped > 0 {
		counts += ", " + a.skipStyle.Render(fmt.Sprintf("%d skipped", a.state.Skipped))
	}
	if a.state.Retries > 0 {
		counts += a.mutedStyle.Render(fmt.Sprintf(" (%d retries)", a.state.Retries))
	}
	b.WriteString(a.labelStyle.Render("Tasks:"))
	b.WriteString(counts)
	b.WriteString("\n")

	b.WriteString("  ")
	b.WriteString(a.bar.ViewAs(a.state.Percent()))
	b.WriteString("\n\n")

	for _, r := range a.state.Rows {
		b.WriteString(a.renderRow(r))
		b.WriteString("\n")
	}

	if len(a.logs) > 0 {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render("Activity"))
		b.WriteString("\n")
		for _, e := range a.logs {
			b.WriteString(fmt.Sprintf("  %s %s\n",
				a.mutedStyle.Render(e.Timestamp.Format("15:04:05")),
				truncate(e.Message, a.width-14)))
		}
	}

	b.WriteString("\n")
	switch {
	case a.done && a.err != nil:
		b.WriteString(a.failStyle.Bold(true).Render(fmt.Sprintf("Error: %v", a.err)))
	case a.done && a.result != nil && a.result.Report.Fallback:
		b.WriteString(a.skipStyle.Bold(true).Render("No task produced content; template lesson used. Press q to exit."))
	case a.done:
		b.WriteString(a.okStyle.Bold(true).Render("Lesson generated! Press q to exit."))
	default:
		b.WriteString(a.mutedStyle.Render("Press q to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

func (a *ProgressApp) renderRow(r TaskRow) string {
	var icon string
	switch r.Status {
	case models.TaskStatusCompleted:
		icon = a.okStyle.Render("✓")
	case models.TaskStatusFailed:
		icon = a.failStyle.Render("✗")
	case models.TaskStatusSkipped:
		icon = a.skipStyle.Render("-")
	case models.TaskStatusInProgress:
		icon = a.runStyle.Render(a.spinner.View())
	default:
		icon = a.mutedStyle.Render("·")
	}

	title := r.Title
	if title == "" {
		title = r.ID
	}
	line := fmt.Sprintf("  %s %s", icon, truncate(title, 40))

	var detail string
	switch r.Status {
	case models.TaskStatusCompleted:
		detail = fmt.Sprintf("%s %s", r.Provider, r.Duration.Round(time.Millisecond))
	case models.TaskStatusFailed:
		detail = truncate(r.Error, 50)
	case models.TaskStatusInProgress:
		if r.Attempt > 1 {
			detail = fmt.Sprintf("attempt %d", r.Attempt)
		}
	}
	if detail != "" {
		line += "  " + a.mutedStyle.Render(strings.TrimSpace(detail))
	}
	return line
}

func truncate(s string, n int) string {
	if n <= 3 {
		n = 40
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// NewProgressProgram creates a bubbletea program for the progress view.
func NewProgressProgram(events <-chan orchestrator.Event, lesson string) (*tea.Program, *ProgressApp) {
	app := NewProgressApp(events, lesson)
	p := tea.NewProgram(app, tea.WithAltScreen())
	return p, app
}
