// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package tui implements the live update progress screen.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/tui/styles"
	"github.com/janderssonse/sysup/internal/updaters"
)

// UI layout constants.
const (
	maxLogLines        = 8
	defaultBarWidth    = 40
	progressBarPadding = 30
)

// EventMsg carries one backend progress event into the model.
type EventMsg struct {
	Backend string
	Event   domain.ProgressEvent
}

// DoneMsg carries the joined results when every backend has finished.
type DoneMsg struct {
	Results []updaters.BackendResult
}

// backendTask is the screen state for one backend row.
type backendTask struct {
	name        string
	bar         progress.Model
	phase       domain.Phase
	fraction    float64
	currentItem string
	message     string
	failed      bool
}

// Model is the bubbletea model for the update run.
type Model struct {
	styles  *styles.Styles
	spinner spinner.Model
	tasks   []backendTask
	index   map[string]int
	logs    []string
	msgs    <-chan tea.Msg
	cancel  context.CancelFunc
	results []updaters.BackendResult
	width   int
	done    bool
	aborted bool
}

// NewModel creates the progress screen for the given backends. Events
// and the final DoneMsg arrive over msgs; cancel is invoked when the
// user quits mid-run.
func NewModel(backends []string, msgs <-chan tea.Msg, cancel context.CancelFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	tasks := make([]backendTask, len(backends))
	index := make(map[string]int, len(backends))

	for i, name := range backends {
		tasks[i] = backendTask{
			name: name,
			bar:  progress.New(progress.WithDefaultGradient()),
		}
		index[name] = i
	}

	return &Model{
		styles:  styles.New(),
		spinner: s,
		tasks:   tasks,
		index:   index,
		msgs:    msgs,
		cancel:  cancel,
		width:   defaultBarWidth + progressBarPadding,
	}
}

// Results returns the joined backend results after the run finished.
func (m *Model) Results() []updaters.BackendResult {
	return m.results
}

// Aborted reports whether the user cancelled the run.
func (m *Model) Aborted() bool {
	return m.aborted
}

// Init starts the spinner and the event pump.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForMsg())
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		return m.handleEvent(msg)
	case DoneMsg:
		m.done = true
		m.results = msg.Results

		return m, tea.Quit
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width

		for i := range m.tasks {
			m.tasks[i].bar.Width = max(10, min(msg.Width-progressBarPadding, 2*defaultBarWidth))
		}

		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	default:
		return m, nil
	}
}

func (m *Model) handleEvent(msg EventMsg) (tea.Model, tea.Cmd) {
	if i, ok := m.index[msg.Backend]; ok {
		task := &m.tasks[i]
		task.phase = msg.Event.Phase
		task.message = msg.Event.Message
		task.currentItem = msg.Event.CurrentItem

		if msg.Event.Progress > task.fraction {
			task.fraction = msg.Event.Progress
		}

		if msg.Event.Phase == domain.PhaseError {
			task.failed = true
		}

		m.appendLog(msg)
	}

	return m, m.waitForMsg()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.aborted = true

		if m.cancel != nil {
			m.cancel()
		}

		// The run keeps draining until the backends report in; quitting
		// immediately would leave their goroutines writing to a dead
		// channel.
		return m, m.waitForMsg()
	default:
		return m, nil
	}
}

func (m *Model) appendLog(msg EventMsg) {
	entry := msg.Backend + ": "

	switch {
	case msg.Event.Message != "":
		entry += msg.Event.Message
	case msg.Event.CurrentItem != "":
		entry += msg.Event.Phase.String() + " " + msg.Event.CurrentItem
	default:
		entry += msg.Event.Phase.String()
	}

	m.logs = append(m.logs, entry)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
}

// waitForMsg pumps the next event from the channel into Update.
func (m *Model) waitForMsg() tea.Cmd {
	return func() tea.Msg {
		return <-m.msgs
	}
}

// View renders the screen.
func (m *Model) View() string {
	var out strings.Builder

	out.WriteString(m.styles.Title.Render("System update"))
	out.WriteString("\n\n")

	for i := range m.tasks {
		out.WriteString(m.renderTask(&m.tasks[i]))
		out.WriteString("\n")
	}

	if len(m.logs) > 0 {
		out.WriteString("\n")
		out.WriteString(m.styles.LogPane.Render(strings.Join(m.logs, "\n")))
		out.WriteString("\n")
	}

	out.WriteString("\n")

	if m.aborted {
		out.WriteString(m.styles.WarningText.Render("cancelling..."))
	} else {
		out.WriteString(m.styles.Footer.Render("q to cancel"))
	}

	out.WriteString("\n")

	return out.String()
}

func (m *Model) renderTask(task *backendTask) string {
	var marker string

	switch {
	case task.failed:
		marker = m.styles.ErrorText.Render("✗")
	case task.phase == domain.PhaseComplete:
		marker = m.styles.SuccessText.Render("✓")
	case task.phase == domain.PhaseIdle:
		marker = m.styles.MutedText.Render("·")
	default:
		marker = m.spinner.View()
	}

	detail := task.message
	if detail == "" && task.currentItem != "" {
		detail = task.currentItem
	}

	status := task.phase.String()
	if detail != "" {
		status = fmt.Sprintf("%s  %s", status, detail)
	}

	return fmt.Sprintf("%s %-8s %s  %s",
		marker,
		task.name,
		task.bar.ViewAs(task.fraction),
		m.styles.Subtitle.Render(status),
	)
}
