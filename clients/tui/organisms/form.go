package organisms

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FormKind selects how the form behaves.
type FormKind string

const (
	FormConfirm FormKind = "confirm"
	FormMulti   FormKind = "multi"
)

// Option is one choice of a multi-select form.
type Option struct {
	Label       string
	Value       string
	Description string
}

// FormResponseMsg is sent when the user submits or cancels a form.
type FormResponseMsg struct {
	ID        string
	Cancelled bool
	Values    []string // selected values in option order, multi only
}

// FormActivateOpts holds all parameters for activating a form.
type FormActivateOpts struct {
	ID        string // echoed back in FormResponseMsg
	Kind      FormKind
	Label     string
	HelpText  string
	Options   []Option
	MinSelect int
	MaxSelect int
}

// Form handles confirmations and multi-select pickers.
type Form struct {
	active    bool
	opts      FormActivateOpts
	cursor    int
	selected  map[int]bool
	style     lipgloss.Style
	helpStyle lipgloss.Style
}

// NewForm creates an inactive form.
func NewForm(style lipgloss.Style) Form {
	return Form{
		style:     style,
		helpStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		selected:  make(map[int]bool),
	}
}

// Active returns whether the form is shown.
func (f *Form) Active() bool {
	return f.active
}

// ID returns the id of the active form.
func (f *Form) ID() string {
	return f.opts.ID
}

// Activate shows the form.
func (f *Form) Activate(opts FormActivateOpts) {
	f.active = true
	f.opts = opts
	f.cursor = 0
	f.selected = make(map[int]bool)
}

// Deactivate hides the form.
func (f *Form) Deactivate() {
	f.active = false
}

// Update handles form input.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	if !f.active {
		return f, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil
	}

	if keyMsg.Type == tea.KeyEsc {
		f.active = false
		return f, f.respond(true, nil)
	}

	switch f.opts.Kind {
	case FormConfirm:
		return f.updateConfirm(keyMsg)
	case FormMulti:
		return f.updateMulti(keyMsg)
	default:
		return f, nil
	}
}

func (f Form) respond(cancelled bool, values []string) tea.Cmd {
	id := f.opts.ID
	return func() tea.Msg {
		return FormResponseMsg{ID: id, Cancelled: cancelled, Values: values}
	}
}

func (f Form) updateConfirm(msg tea.KeyMsg) (Form, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		f.active = false
		return f, f.respond(false, nil)
	case "n":
		f.active = false
		return f, f.respond(true, nil)
	}
	return f, nil
}

func (f Form) updateMulti(msg tea.KeyMsg) (Form, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if f.cursor > 0 {
			f.cursor--
		}
	case tea.KeyDown:
		if f.cursor < len(f.opts.Options)-1 {
			f.cursor++
		}
	case tea.KeySpace:
		f.toggle(f.cursor)
	case tea.KeyEnter:
		if len(f.selected) < f.opts.MinSelect {
			return f, nil
		}
		f.active = false
		return f, f.respond(false, f.Selected())
	default:
		if msg.String() == "a" {
			f.toggleAll()
		}
	}
	return f, nil
}

func (f *Form) toggle(i int) {
	if i < 0 || i >= len(f.opts.Options) {
		return
	}
	if f.selected[i] {
		delete(f.selected, i)
		return
	}
	if f.opts.MaxSelect <= 0 || len(f.selected) < f.opts.MaxSelect {
		f.selected[i] = true
	}
}

func (f *Form) toggleAll() {
	if len(f.selected) == len(f.opts.Options) {
		f.selected = make(map[int]bool)
		return
	}
	for i := range f.opts.Options {
		if f.opts.MaxSelect > 0 && len(f.selected) >= f.opts.MaxSelect {
			break
		}
		f.selected[i] = true
	}
}

// Selected returns the selected values in option order.
func (f Form) Selected() []string {
	var values []string
	for i, opt := range f.opts.Options {
		if f.selected[i] {
			values = append(values, opt.Value)
		}
	}
	return values
}

// View renders the form.
func (f Form) View() string {
	if !f.active {
		return ""
	}

	var sb strings.Builder
	switch f.opts.Kind {
	case FormConfirm:
		sb.WriteString(fmt.Sprintf("%s [y/N] ", f.opts.Label))
		if f.opts.HelpText != "" {
			sb.WriteString("\n" + f.helpStyle.Render(f.opts.HelpText))
		}

	case FormMulti:
		sb.WriteString(f.opts.Label + "\n")
		if f.opts.HelpText != "" {
			sb.WriteString(f.helpStyle.Render(f.opts.HelpText) + "\n")
		}
		sb.WriteString(f.helpStyle.Render("  (Space: toggle, a: all, Enter: submit, Esc: type instead)") + "\n")

		for i, opt := range f.opts.Options {
			cursor := "  "
			if i == f.cursor {
				cursor = "> "
			}
			check := "[ ]"
			if f.selected[i] {
				check = "[x]"
			}
			line := cursor + check + " " + opt.Label
			if opt.Description != "" {
				line += "  " + f.helpStyle.Render(opt.Description)
			}
			sb.WriteString(line + "\n")
		}

		if missing := f.opts.MinSelect - len(f.selected); missing > 0 {
			sb.WriteString(f.helpStyle.Render(fmt.Sprintf("  Select at least %d more", missing)))
		}
	}

	return f.style.Render(strings.TrimRight(sb.String(), "\n"))
}
