// Package organisms provides high-level TUI components.
package organisms

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/stagewise/clients/tui/atoms"
)

// TextBlock renders one finished message with a role label.
type TextBlock struct {
	role     string
	style    lipgloss.Style
	content  string
	markdown bool
	width    int

	cached      string
	cachedWidth int
}

// NewTextBlock creates a text block. Markdown blocks are rendered with glamour.
func NewTextBlock(role string, style lipgloss.Style, width int, content string, markdown bool) *TextBlock {
	return &TextBlock{
		role:     role,
		style:    style,
		content:  content,
		markdown: markdown,
		width:    width,
	}
}

// IsComplete always reports true; text blocks are appended finished.
func (tb *TextBlock) IsComplete() bool { return true }

// Content returns the raw text.
func (tb *TextBlock) Content() string { return tb.content }

// Role returns the block's role label.
func (tb *TextBlock) Role() string { return tb.role }

// SetWidth updates the rendering width.
func (tb *TextBlock) SetWidth(w int) { tb.width = w }

// View renders the label followed by the content.
func (tb *TextBlock) View() string {
	if tb.cached != "" && tb.cachedWidth == tb.width {
		return tb.cached
	}

	body := tb.content
	if tb.markdown {
		body = atoms.RenderMarkdown(tb.content, tb.width-2)
	} else if tb.width > 4 {
		body = lipgloss.NewStyle().Width(tb.width - 2).Render(tb.content)
	}

	tb.cached = tb.style.Render(tb.role) + "\n" + body
	tb.cachedWidth = tb.width
	return tb.cached
}

// PendingBlock stands in for the assistant reply while a request runs.
type PendingBlock struct {
	label string
	style lipgloss.Style
	frame string
}

// NewPendingBlock creates a placeholder block.
func NewPendingBlock(label string, style lipgloss.Style) *PendingBlock {
	return &PendingBlock{label: label, style: style}
}

// SetFrame updates the spinner frame shown next to the label.
func (pb *PendingBlock) SetFrame(frame string) { pb.frame = frame }

// IsComplete reports false until the block is replaced.
func (pb *PendingBlock) IsComplete() bool { return false }

// View renders the label and spinner.
func (pb *PendingBlock) View() string {
	return pb.style.Render(pb.label) + " " + pb.frame
}
