package atoms

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// Palette shared by the markdown style and the TUI theme.
const (
	ColorPrimary = "#7C3AED"
	ColorAccent  = "#10B981"
	ColorMutedFg = "#6B7280"
)

var (
	rendererMu sync.Mutex
	renderers  = map[int]*glamour.TermRenderer{}
)

// markdownStyle starts from glamour's light or dark style and recolours
// headings and links to the palette.
func markdownStyle() ansi.StyleConfig {
	cfg := styles.LightStyleConfig
	if lipgloss.HasDarkBackground() {
		cfg = styles.DarkStyleConfig
	}

	zero := uint(0)
	primary, accent := ColorPrimary, ColorAccent
	bold := true

	cfg.Document.Margin = &zero
	cfg.Document.BlockPrefix = ""
	cfg.Document.BlockSuffix = ""
	cfg.Heading.Color = &primary
	cfg.Heading.Bold = &bold
	cfg.H1.Color = &primary
	cfg.H1.BackgroundColor = nil
	cfg.Link.Color = &accent
	cfg.LinkText.Color = &accent
	return cfg
}

// MarkdownRenderer returns a cached renderer wrapping at width.
func MarkdownRenderer(width int) (*glamour.TermRenderer, error) {
	rendererMu.Lock()
	defer rendererMu.Unlock()

	if r, ok := renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyle()),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil, err
	}
	renderers[width] = r
	return r, nil
}

// RenderMarkdown renders content for the terminal. On failure the raw
// content is returned.
func RenderMarkdown(content string, width int) string {
	if content == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	r, err := MarkdownRenderer(width)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
