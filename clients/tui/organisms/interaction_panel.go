package organisms

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/stagewise/clients/tui/molecules"
)

// InteractionPanel switches between the composer and a form.
type InteractionPanel struct {
	input molecules.Composer
	form  Form
}

// NewInteractionPanel creates a new interaction panel.
func NewInteractionPanel(formStyle lipgloss.Style, commands []string) InteractionPanel {
	return InteractionPanel{
		input: molecules.NewComposer(commands),
		form:  NewForm(formStyle),
	}
}

// SetWidth sets the input width.
func (p *InteractionPanel) SetWidth(w int) {
	p.input.SetWidth(w)
}

// SetInputEnabled locks or unlocks the composer.
func (p *InteractionPanel) SetInputEnabled(enabled bool) {
	p.input.Lock(!enabled)
}

// SetCompletions sets the words Tab completes in the composer.
func (p *InteractionPanel) SetCompletions(words []string) {
	p.input.SetCompletions(words)
}

// SetPlaceholder changes the composer hint.
func (p *InteractionPanel) SetPlaceholder(s string) {
	p.input.SetPlaceholder(s)
}

// FormActive returns whether the form is active.
func (p *InteractionPanel) FormActive() bool {
	return p.form.Active()
}

// ActivateForm shows a form.
func (p *InteractionPanel) ActivateForm(opts FormActivateOpts) {
	p.form.Activate(opts)
}

// DeactivateForm hides the form.
func (p *InteractionPanel) DeactivateForm() {
	p.form.Deactivate()
}

// UpdateForm routes a message to the form.
func (p InteractionPanel) UpdateForm(msg tea.Msg) (InteractionPanel, tea.Cmd) {
	var cmd tea.Cmd
	p.form, cmd = p.form.Update(msg)
	return p, cmd
}

// UpdateInput routes a message to the composer.
func (p InteractionPanel) UpdateInput(msg tea.Msg) (InteractionPanel, tea.Cmd) {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// Update routes a message to the active sub-component.
func (p InteractionPanel) Update(msg tea.Msg) (InteractionPanel, tea.Cmd) {
	if p.form.Active() {
		return p.UpdateForm(msg)
	}
	return p.UpdateInput(msg)
}

// View renders the form if active, otherwise the composer.
func (p InteractionPanel) View() string {
	if p.form.Active() {
		return p.form.View()
	}
	return p.input.View()
}
