package organisms

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ImageBlock lists the diagrams of one reply and where they were saved.
type ImageBlock struct {
	files []string
	style lipgloss.Style
	muted lipgloss.Style
}

// NewImageBlock creates a block for saved diagram files.
func NewImageBlock(files []string, style, muted lipgloss.Style) *ImageBlock {
	return &ImageBlock{files: files, style: style, muted: muted}
}

// Files returns the saved paths.
func (ib *ImageBlock) Files() []string { return ib.files }

// IsComplete always reports true.
func (ib *ImageBlock) IsComplete() bool { return true }

// View renders one line per diagram.
func (ib *ImageBlock) View() string {
	var sb strings.Builder
	sb.WriteString(ib.style.Render(fmt.Sprintf("Diagrams (%d)", len(ib.files))))
	if len(ib.files) == 0 {
		sb.WriteString("\n" + ib.muted.Render("  the backend returned no images"))
		return sb.String()
	}
	for _, f := range ib.files {
		sb.WriteString(fmt.Sprintf("\n  ▣ %s  %s", filepath.Base(f), ib.muted.Render(f)))
	}
	return sb.String()
}
