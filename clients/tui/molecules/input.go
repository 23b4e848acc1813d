// Package molecules provides mid-level TUI components.
package molecules

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SubmitMsg is sent when the user presses Enter on a non-empty composer.
type SubmitMsg struct {
	Content string
}

// Composer is the single-line message box of the wizard. Enter submits,
// Up/Down walk the sent history and Tab completes slash commands or, when
// completions are set, the diagram kind being typed.
type Composer struct {
	textarea    textarea.Model
	locked      bool
	history     []string
	histIdx     int
	draft       string
	commands    []string
	completions []string
}

// NewComposer creates a composer that completes the given slash commands.
func NewComposer(commands []string) Composer {
	ta := textarea.New()
	ta.Placeholder = "Describe your project..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetHeight(1)
	ta.CharLimit = 0
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.Focus()

	return Composer{
		textarea: ta,
		histIdx:  -1,
		commands: commands,
	}
}

func (c *Composer) SetWidth(w int) {
	c.textarea.SetWidth(w)
}

func (c *Composer) SetPlaceholder(s string) {
	c.textarea.Placeholder = s
}

// SetCompletions sets the words Tab offers for comma-separated input, such
// as the diagram kinds of the current stage. nil disables them.
func (c *Composer) SetCompletions(words []string) {
	c.completions = words
}

// Lock blocks input while a request is in flight.
func (c *Composer) Lock(locked bool) {
	c.locked = locked
	if locked {
		c.textarea.Blur()
	} else {
		c.textarea.Focus()
	}
}

func (c Composer) Locked() bool {
	return c.locked
}

func (c Composer) Value() string {
	return c.textarea.Value()
}

func (c *Composer) SetValue(s string) {
	c.textarea.SetValue(s)
}

func (c Composer) Update(msg tea.Msg) (Composer, tea.Cmd) {
	if c.locked {
		return c, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			content := strings.TrimSpace(c.textarea.Value())
			if content == "" {
				return c, nil
			}
			c.history = append(c.history, content)
			c.histIdx = -1
			c.draft = ""
			c.textarea.Reset()
			return c, func() tea.Msg { return SubmitMsg{Content: content} }

		case tea.KeyTab:
			if done, ok := c.complete(c.textarea.Value()); ok {
				c.textarea.SetValue(done)
			}
			return c, nil

		case tea.KeyUp:
			if len(c.history) == 0 {
				break
			}
			if c.histIdx == -1 {
				c.draft = c.textarea.Value()
				c.histIdx = len(c.history) - 1
			} else if c.histIdx > 0 {
				c.histIdx--
			}
			c.textarea.SetValue(c.history[c.histIdx])
			return c, nil

		case tea.KeyDown:
			if c.histIdx == -1 {
				break
			}
			if c.histIdx < len(c.history)-1 {
				c.histIdx++
				c.textarea.SetValue(c.history[c.histIdx])
			} else {
				c.histIdx = -1
				c.textarea.SetValue(c.draft)
			}
			return c, nil
		}
	}

	var cmd tea.Cmd
	c.textarea, cmd = c.textarea.Update(msg)
	return c, cmd
}

// complete expands the word under the cursor. A leading "/" completes a
// command; otherwise the last comma-separated item is matched
// case-insensitively against the completions.
func (c Composer) complete(value string) (string, bool) {
	if strings.HasPrefix(value, "/") && !strings.ContainsAny(value, " ,") {
		if m, ok := uniquePrefix(c.commands, value); ok {
			return m, true
		}
		return "", false
	}
	if len(c.completions) == 0 {
		return "", false
	}

	head, last := "", value
	if i := strings.LastIndex(value, ","); i >= 0 {
		head, last = value[:i+1]+" ", value[i+1:]
	}
	last = strings.TrimSpace(last)
	if last == "" {
		return "", false
	}
	m, ok := uniquePrefix(c.completions, last)
	if !ok {
		return "", false
	}
	return head + m, true
}

func uniquePrefix(words []string, prefix string) (string, bool) {
	found := ""
	for _, w := range words {
		if strings.HasPrefix(strings.ToLower(w), strings.ToLower(prefix)) {
			if found != "" {
				return "", false
			}
			found = w
		}
	}
	return found, found != ""
}

func (c Composer) View() string {
	return c.textarea.View()
}
