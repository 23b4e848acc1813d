package organisms

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/stagewise/internal/stages"
)

// InformationPanel is the status bar: stage, mode, session and request state.
type InformationPanel struct {
	stage    stages.Context
	title    string
	total    int
	backend  string
	mode     Mode
	lastTurn time.Duration
	width    int
	style    lipgloss.Style
}

// NewInformationPanel creates a new status bar panel.
func NewInformationPanel(style lipgloss.Style) InformationPanel {
	return InformationPanel{style: style}
}

// SetStage updates the displayed stage.
func (p *InformationPanel) SetStage(sc stages.Context, title string, total int) {
	p.stage = sc
	p.title = title
	p.total = total
}

// SetBackend updates the backend URL.
func (p *InformationPanel) SetBackend(url string) { p.backend = url }

// SetMode updates the displayed interaction mode.
func (p *InformationPanel) SetMode(mode Mode) { p.mode = mode }

// SetLastTurn records how long the last request took.
func (p *InformationPanel) SetLastTurn(d time.Duration) { p.lastTurn = d }

// SetWidth updates the rendering width.
func (p *InformationPanel) SetWidth(w int) { p.width = w }

// Stage returns the displayed stage snapshot.
func (p *InformationPanel) Stage() stages.Context { return p.stage }

// SessionID returns the session token.
func (p *InformationPanel) SessionID() string { return p.stage.Token }

// Backend returns the backend URL.
func (p *InformationPanel) Backend() string { return p.backend }

// View renders the status bar.
func (p InformationPanel) View() string {
	sid := p.stage.Token
	if len(sid) > 8 {
		sid = sid[:8]
	}

	state := ""
	switch p.mode {
	case ModeWaiting:
		state = " | waiting (esc to cancel)"
	case ModePrompting:
		state = " | choosing"
	default:
		if p.lastTurn > 0 {
			state = fmt.Sprintf(" | last %s", p.lastTurn.Round(10*time.Millisecond))
		}
	}

	bar := fmt.Sprintf(" %d/%d %s | %s | sess:%s%s | %s ",
		p.stage.Index+1, p.total, p.title, p.stage.Mode, sid, state, p.backend)
	return p.style.Width(p.width).Render(bar)
}
