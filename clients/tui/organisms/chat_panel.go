package organisms

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/stagewise/clients/tui/atoms"
)

// ChatPanelStyles contains the styles injected into the ChatPanel.
type ChatPanelStyles struct {
	Assistant lipgloss.Style
	User      lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Diagram   lipgloss.Style
}

// ChatPanel manages the conversation viewport and the in-flight placeholder.
type ChatPanel struct {
	viewport OutputViewport
	spinner  atoms.Spinner
	pending  *PendingBlock
	width    int
	styles   ChatPanelStyles
}

// NewChatPanel creates a new chat panel.
func NewChatPanel(width, height int, styles ChatPanelStyles) ChatPanel {
	return ChatPanel{
		viewport: NewOutputViewport(width, height),
		spinner:  atoms.NewSpinner(styles.Assistant.GetForeground()),
		width:    width,
		styles:   styles,
	}
}

// Init starts the spinner.
func (p ChatPanel) Init() tea.Cmd {
	return p.spinner.Tick
}

// AppendUserMessage adds a user message block.
func (p *ChatPanel) AppendUserMessage(content string) {
	p.viewport.AppendBlock(NewTextBlock("You", p.styles.User, p.width, content, false))
}

// AppendAssistantMessage adds a finished assistant reply.
func (p *ChatPanel) AppendAssistantMessage(content string) {
	p.viewport.AppendBlock(p.assistantBlock(content))
}

// AppendImages adds a diagram block.
func (p *ChatPanel) AppendImages(files []string) {
	p.viewport.AppendBlock(NewImageBlock(files, p.styles.Diagram, p.styles.Muted))
}

// AppendErrorMessage adds an error message block.
func (p *ChatPanel) AppendErrorMessage(content string) {
	p.viewport.AppendBlock(NewTextBlock("Error", p.styles.Error, p.width, content, false))
}

// AppendSystemMessage adds a system message block.
func (p *ChatPanel) AppendSystemMessage(content string) {
	p.viewport.AppendBlock(NewTextBlock("System", p.styles.Muted, p.width, content, false))
}

// BeginTurn shows a placeholder until the reply arrives.
func (p *ChatPanel) BeginTurn() {
	p.pending = NewPendingBlock("Assistant", p.styles.Assistant)
	p.pending.SetFrame(p.spinner.View())
	p.viewport.AppendBlock(p.pending)
}

// Waiting reports whether a placeholder is shown.
func (p *ChatPanel) Waiting() bool { return p.pending != nil }

// CompleteText replaces the placeholder with the reply text.
func (p *ChatPanel) CompleteText(content string) {
	p.resolve(p.assistantBlock(content))
}

// CompleteImages replaces the placeholder with a diagram block.
func (p *ChatPanel) CompleteImages(files []string) {
	p.resolve(NewImageBlock(files, p.styles.Diagram, p.styles.Muted))
}

// Fail replaces the placeholder with an error block.
func (p *ChatPanel) Fail(content string) {
	p.resolve(NewTextBlock("Error", p.styles.Error, p.width, content, false))
}

// Cancelled replaces the placeholder with a muted notice.
func (p *ChatPanel) Cancelled() {
	p.resolve(NewTextBlock("System", p.styles.Muted, p.width, "Request cancelled.", false))
}

func (p *ChatPanel) resolve(block ContentBlock) {
	if p.pending == nil || !p.viewport.Replace(p.pending, block) {
		p.viewport.AppendBlock(block)
	}
	p.pending = nil
}

func (p *ChatPanel) assistantBlock(content string) *TextBlock {
	return NewTextBlock("Assistant", p.styles.Assistant, p.width, content, true)
}

// PageUp scrolls up by one page.
func (p *ChatPanel) PageUp() { p.viewport.PageUp() }

// PageDown scrolls down by one page.
func (p *ChatPanel) PageDown() { p.viewport.PageDown() }

// BlockCount returns the number of rendered blocks.
func (p *ChatPanel) BlockCount() int { return p.viewport.BlockCount() }

// Block returns block i.
func (p *ChatPanel) Block(i int) ContentBlock { return p.viewport.Block(i) }

// ClearBlocks resets the viewport with new dimensions.
func (p *ChatPanel) ClearBlocks(w, h int) {
	p.viewport = NewOutputViewport(w, h)
	p.pending = nil
	p.width = w
}

// SetSize updates the viewport dimensions.
func (p *ChatPanel) SetSize(w, h int) {
	p.width = w
	p.viewport.SetSize(w, h)
}

// Update handles spinner ticks and viewport passthrough.
func (p ChatPanel) Update(msg tea.Msg) (ChatPanel, tea.Cmd) {
	var cmds []tea.Cmd

	if _, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if p.pending != nil {
			p.pending.SetFrame(p.spinner.View())
			p.viewport.Refresh()
		}
	}

	var vpCmd tea.Cmd
	p.viewport, vpCmd = p.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return p, tea.Batch(cmds...)
}

// View renders the chat viewport.
func (p ChatPanel) View() string {
	return p.viewport.View()
}
