package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Task is one unit of work shown by the spinner.
type Task struct {
	ID    string
	Label string
}

// CompletionInfo describes a finished task.
type CompletionInfo struct {
	TaskID  string
	Success bool
	Error   string
}

// SpinnerShouldShow returns true if the spinner should be displayed.
// The spinner is hidden for quiet mode, JSON output, or non-TTY (piped) output.
func SpinnerShouldShow(quiet, json, nonTTY bool) bool {
	return !quiet && !json && !nonTTY
}

// SpinnerRun shows a spinner per task while workFn runs. workFn reports each
// finished task through onComplete; SpinnerRun blocks until every task is
// reported and workFn has returned.
func SpinnerRun(tasks []Task, workFn func(onComplete func(CompletionInfo))) error {
	if len(tasks) == 0 {
		workFn(func(CompletionInfo) {})
		return nil
	}

	m := newSpinnerModel(tasks)
	p := tea.NewProgram(m)

	done := make(chan struct{})
	go func() {
		workFn(func(info CompletionInfo) {
			p.Send(spinnerCompletionMsg(info))
		})
		close(done)
	}()

	_, err := p.Run()
	<-done
	if err != nil {
		return fmt.Errorf("running spinner: %w", err)
	}
	return nil
}

// SpinnerDo runs fn behind a single-task spinner and returns its error.
func SpinnerDo(label string, fn func() error) error {
	var fnErr error
	err := SpinnerRun([]Task{{ID: label, Label: label}}, func(onComplete func(CompletionInfo)) {
		fnErr = fn()
		info := CompletionInfo{TaskID: label, Success: fnErr == nil}
		if fnErr != nil {
			info.Error = fnErr.Error()
		}
		onComplete(info)
	})
	if fnErr != nil {
		return fnErr
	}
	return err
}

// spinnerCompletionMsg is sent to the model when a task completes.
type spinnerCompletionMsg CompletionInfo

type spinnerModel struct {
	spinner     spinner.Model
	tasks       []Task
	inflight    []string
	completions map[string]CompletionInfo
	quitting    bool
}

var (
	spinnerCheckStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	spinnerErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func newSpinnerModel(tasks []Task) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	all := make([]Task, len(tasks))
	copy(all, tasks)

	inflight := make([]string, len(tasks))
	for i, task := range tasks {
		inflight[i] = task.ID
	}

	return spinnerModel{
		spinner:     s,
		tasks:       all,
		inflight:    inflight,
		completions: make(map[string]CompletionInfo),
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerCompletionMsg:
		info := CompletionInfo(msg)

		// Ignore duplicates
		if !m.isInflight(info.TaskID) {
			return m, nil
		}

		m.completions[info.TaskID] = info
		m.inflight = removeStringFromSlice(m.inflight, info.TaskID)

		if len(m.inflight) == 0 {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m spinnerModel) View() string {
	// Transient progress UI; nothing remains once done.
	if m.quitting {
		return ""
	}

	var b strings.Builder
	for i, task := range m.tasks {
		if i > 0 {
			b.WriteString("\n")
		}

		if c, done := m.completions[task.ID]; done {
			if c.Success {
				b.WriteString(spinnerCheckStyle.Render("✓"))
			} else {
				b.WriteString(spinnerErrStyle.Render("✗"))
			}
		} else {
			b.WriteString(m.spinner.View())
		}
		b.WriteString(" ")
		b.WriteString(task.Label)
	}

	return b.String()
}

func (m spinnerModel) isInflight(id string) bool {
	for _, inflight := range m.inflight {
		if inflight == id {
			return true
		}
	}
	return false
}

func removeStringFromSlice(slice []string, s string) []string {
	result := make([]string, 0, len(slice))
	for _, item := range slice {
		if item != s {
			result = append(result, item)
		}
	}
	return result
}
