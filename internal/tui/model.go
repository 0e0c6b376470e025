// Package tui is the terminal frontend: it lists tasks grouped by state and
// creates new ones through the HTTP API.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard/internal/client"
	"taskboard/internal/domain"
	"taskboard/internal/http/dto"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const requestTimeout = 10 * time.Second

type TaskClient interface {
	ListTasks(ctx context.Context) ([]dto.TaskResponse, error)
	CreateTask(ctx context.Context, req client.CreateTaskRequest) (dto.TaskResponse, error)
}

type tasksLoadedMsg struct {
	tasks []dto.TaskResponse
	err   error
}

type taskCreatedMsg struct {
	task dto.TaskResponse
	err  error
}

type keyMap struct {
	New     key.Binding
	Refresh key.Binding
	Quit    key.Binding

	Next     key.Binding
	Prev     key.Binding
	Left     key.Binding
	Right    key.Binding
	Submit   key.Binding
	Cancel   key.Binding
	formMode bool
}

func newKeyMap() keyMap {
	return keyMap{
		New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Left:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "lower priority")),
		Right:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "raise priority")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	if k.formMode {
		return []key.Binding{k.Next, k.Prev, k.Left, k.Right, k.Submit, k.Cancel}
	}
	return []key.Binding{k.New, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type Model struct {
	client   TaskClient
	calendar domain.Calendar

	tasks   []dto.TaskResponse
	loading bool
	err     error
	notice  string

	adding bool
	form   form

	keys    keyMap
	help    help.Model
	spinner spinner.Model
}

func New(taskClient TaskClient, calendar domain.Calendar) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		client:   taskClient,
		calendar: calendar,
		loading:  true,
		keys:     newKeyMap(),
		help:     help.New(),
		spinner:  s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchTasks())
}

func (m Model) fetchTasks() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		tasks, err := c.ListTasks(ctx)
		return tasksLoadedMsg{tasks: tasks, err: err}
	}
}

func (m Model) createTask(req client.CreateTaskRequest) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		task, err := c.CreateTask(ctx, req)
		return taskCreatedMsg{task: task, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.tasks = msg.tasks
		}
		return m, nil

	case taskCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.form.err = apiErrorMessage(msg.err)
			return m, nil
		}
		m.adding = false
		m.keys.formMode = false
		m.notice = fmt.Sprintf("Created %q", msg.task.Title)
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetchTasks())

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateForm(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			m.notice = ""
			return m, tea.Batch(m.spinner.Tick, m.fetchTasks())
		case key.Matches(msg, m.keys.New):
			m.adding = true
			m.keys.formMode = true
			m.notice = ""
			m.form = newForm(m.calendar.Today())
			return m, nil
		}
	}

	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.adding = false
		m.keys.formMode = false
		return m, nil
	case key.Matches(msg, m.keys.Next):
		m.form = m.form.next()
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.form = m.form.prev()
		return m, nil
	case m.form.focus == fieldPriority && key.Matches(msg, m.keys.Left):
		m.form = m.form.shiftPriority(-1)
		return m, nil
	case m.form.focus == fieldPriority && key.Matches(msg, m.keys.Right):
		m.form = m.form.shiftPriority(1)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		if m.loading {
			return m, nil
		}
		req, problem := m.form.request(m.calendar.Location(), m.calendar.Today())
		if problem != "" {
			m.form.err = problem
			return m, nil
		}
		m.form.err = ""
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.createTask(req))
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

// apiErrorMessage prefers the readable rule text for business rule errors.
func apiErrorMessage(err error) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return "Could not reach the server: " + err.Error()
	}
	if apiErr.Code == dto.CodeBusinessRule {
		return ruleMessage(apiErr.Message)
	}
	return apiErr.Message
}

// Sections splits tasks for display. A pending task whose due date is
// before today counts as overdue even if the server has not flipped it yet.
func Sections(tasks []dto.TaskResponse, today domain.Date) (pending, overdue, completed []dto.TaskResponse) {
	for _, t := range tasks {
		switch domain.TaskStatus(t.Status) {
		case domain.StatusCompleted:
			completed = append(completed, t)
		case domain.StatusOverdue:
			overdue = append(overdue, t)
		default:
			var due domain.Date
			if err := due.UnmarshalText([]byte(t.DueDate)); err == nil && due.Before(today) {
				overdue = append(overdue, t)
			} else {
				pending = append(pending, t)
			}
		}
	}
	return pending, overdue, completed
}

func (m Model) View() string {
	var b strings.Builder

	header := titleStyle.Render("Tasks")
	if m.loading {
		header += " " + m.spinner.View()
	}
	b.WriteString(header + "\n\n")

	if m.adding {
		b.WriteString(panel(m.form.view()))
		b.WriteString("\n" + m.help.View(m.keys))
		return b.String()
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(apiErrorMessage(m.err)) + "\n\n")
	}
	if m.notice != "" {
		b.WriteString(successStyle.Render(m.notice) + "\n\n")
	}

	pending, overdue, completed := Sections(m.tasks, m.calendar.Today())
	b.WriteString(renderSection("Pending", pending, pendingStyle))
	b.WriteString(renderSection("Overdue", overdue, overdueStyle))
	if len(completed) > 0 {
		b.WriteString(renderSection("Completed", completed, doneStyle))
	}

	b.WriteString(m.help.View(m.keys))
	return panel(b.String())
}

func renderSection(name string, tasks []dto.TaskResponse, style lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf("%s (%d)", name, len(tasks))) + "\n")

	if len(tasks) == 0 {
		b.WriteString(mutedStyle.Render("  nothing here") + "\n\n")
		return b.String()
	}

	for _, t := range tasks {
		priority := domain.Priority(t.Priority)
		line := fmt.Sprintf("  %s %s %s",
			style.Render("•"),
			t.Title,
			mutedStyle.Render("due "+t.DueDate),
		)
		if ps, ok := priorityStyles[t.Priority]; ok {
			line += " " + ps.Render(priority.String())
		}
		b.WriteString(line + "\n")
		if t.Description != "" {
			b.WriteString("    " + mutedStyle.Render(t.Description) + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}
