package tui

import (
	"errors"
	"strings"
	"time"

	"taskboard/internal/client"
	"taskboard/internal/domain"
	"taskboard/internal/service"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldDueDate
	fieldPriority
	fieldCount
)

var ruleMessages = map[string]string{
	service.ErrTitleRequired.Rule:      "Title is required",
	service.ErrTitleOnlySpaces.Rule:    "Title cannot be only spaces",
	service.ErrTitleTooShort.Rule:      "Title must have at least 3 characters",
	service.ErrTitleTooLong.Rule:       "Title must have at most 100 characters",
	service.ErrDescriptionTooLong.Rule: "Description must have at most 500 characters",
	service.ErrDueDateInPast.Rule:      "Due date cannot be in the past",
	service.ErrInvalidPriority.Rule:    "Priority must be low, medium or high",
	service.ErrDuplicateTitle.Rule:     "A task with this title already exists",
}

// ruleMessage turns a rule code into something a person can read.
func ruleMessage(rule string) string {
	if msg, ok := ruleMessages[rule]; ok {
		return msg
	}
	return rule
}

type form struct {
	inputs   []textinput.Model
	priority domain.Priority
	focus    int
	err      string
}

func newForm(today domain.Date) form {
	inputs := make([]textinput.Model, fieldPriority)

	inputs[fieldTitle] = textinput.New()
	inputs[fieldTitle].Placeholder = "What needs doing?"
	inputs[fieldTitle].CharLimit = service.MaxTitleLength

	inputs[fieldDescription] = textinput.New()
	inputs[fieldDescription].Placeholder = "Optional details"
	inputs[fieldDescription].CharLimit = service.MaxDescriptionLength

	inputs[fieldDueDate] = textinput.New()
	inputs[fieldDueDate].Placeholder = "YYYY-MM-DD"
	inputs[fieldDueDate].CharLimit = len("2006-01-02")
	inputs[fieldDueDate].SetValue(today.String())

	for i := range inputs {
		inputs[i].Prompt = "> "
	}
	inputs[fieldTitle].Focus()

	return form{inputs: inputs, priority: domain.PriorityMedium}
}

func (f form) value(field int) string {
	return f.inputs[field].Value()
}

func (f form) next() form {
	return f.setFocus((f.focus + 1) % fieldCount)
}

func (f form) prev() form {
	return f.setFocus((f.focus + fieldCount - 1) % fieldCount)
}

func (f form) setFocus(field int) form {
	f.focus = field
	for i := range f.inputs {
		if i == field {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return f
}

func (f form) shiftPriority(delta int) form {
	p := int(f.priority) + delta
	if p < int(domain.PriorityLow) {
		p = int(domain.PriorityLow)
	}
	if p > int(domain.PriorityHigh) {
		p = int(domain.PriorityHigh)
	}
	f.priority = domain.Priority(p)
	return f
}

// update forwards msg to the focused text input.
func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	if f.focus >= fieldPriority {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// request checks the same rules as the server, except uniqueness, so
// obvious mistakes never leave the terminal. problem is empty when the
// form is valid.
func (f form) request(loc *time.Location, today domain.Date) (req client.CreateTaskRequest, problem string) {
	due, err := domain.ParseDate(strings.TrimSpace(f.value(fieldDueDate)), loc)
	if err != nil {
		return req, "Due date must look like YYYY-MM-DD"
	}

	in := service.CreateTaskInput{
		Title:       f.value(fieldTitle),
		Description: f.value(fieldDescription),
		DueDate:     due,
		Priority:    f.priority,
	}
	if err := service.ValidateCreate(in, today); err != nil {
		var ruleErr *service.RuleError
		if errors.As(err, &ruleErr) {
			return req, ruleMessage(ruleErr.Rule)
		}
		return req, err.Error()
	}

	return client.CreateTaskRequest{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DueDate:     due.String(),
		Priority:    int(in.Priority),
	}, ""
}

func (f form) view() string {
	labels := []string{"Title", "Description", "Due date"}

	var b strings.Builder
	b.WriteString(titleStyle.Render("New task"))
	b.WriteString("\n\n")

	for i, input := range f.inputs {
		label := labels[i]
		if i == f.focus {
			label = focusStyle.Render(label)
		}
		b.WriteString(label + "\n" + input.View() + "\n\n")
	}

	label := "Priority"
	if f.focus == fieldPriority {
		label = focusStyle.Render(label)
	}
	b.WriteString(label + "\n")
	for p := domain.PriorityLow; p <= domain.PriorityHigh; p++ {
		name := p.String()
		if p == f.priority {
			name = priorityStyles[int(p)].Render("[" + name + "]")
		} else {
			name = mutedStyle.Render(" " + name + " ")
		}
		b.WriteString(name + " ")
	}
	b.WriteString("\n")

	if f.err != "" {
		b.WriteString("\n" + errorStyle.Render(f.err) + "\n")
	}
	return b.String()
}
