package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/stagewise/clients/api"
	"github.com/dohr-michael/stagewise/clients/tui/molecules"
	"github.com/dohr-michael/stagewise/clients/tui/organisms"
	"github.com/dohr-michael/stagewise/internal/events"
	"github.com/dohr-michael/stagewise/internal/sessions"
	"github.com/dohr-michael/stagewise/internal/stages"
	"github.com/dohr-michael/stagewise/internal/wizard"
)

const (
	formDiagrams = "diagrams"
	formReset    = "reset"
)

var slashCommands = []string{"/next", "/reset", "/pick", "/status", "/stages", "/events", "/reload", "/clear", "/help", "/quit"}

const helpText = `Commands:
  /next     move to the next stage
  /reset    start a new session at the first stage
  /pick     choose diagram kinds (diagram stage)
  /status   show session and backend
  /stages   list all stages
  /events   show recent events
  /reload   reload the config file
  /clear    clear the screen
  /quit     exit
Tab completes commands and diagram kinds.
Esc cancels a running request, PgUp/PgDn scroll.`

// Options configures the TUI.
type Options struct {
	Runner     *wizard.Runner
	BackendURL string
	// Reload re-reads the config and returns the new backend URL. Optional.
	Reload func() (string, error)
	// History returns the most recent bus events. Optional.
	History func(limit int) []events.Event
}

// MainModel is the root bubbletea model for the wizard TUI.
type MainModel struct {
	ctx     context.Context
	runner  *wizard.Runner
	reload  func() (string, error)
	history func(limit int) []events.Event
	mode    organisms.Mode
	cancel  context.CancelFunc
	width   int
	height  int
	current stages.Context

	chat        organisms.ChatPanel
	interaction organisms.InteractionPanel
	info        organisms.InformationPanel
}

// NewMainModel creates the root model.
func NewMainModel(ctx context.Context, opts Options) MainModel {
	styles := organisms.ChatPanelStyles{
		Assistant: AssistantStyle,
		User:      UserStyle,
		Error:     ErrorStyle,
		Muted:     MutedStyle,
		Diagram:   DiagramStyle,
	}

	info := organisms.NewInformationPanel(StatusBarStyle)
	info.SetBackend(opts.BackendURL)

	return MainModel{
		ctx:         ctx,
		runner:      opts.Runner,
		reload:      opts.Reload,
		history:     opts.History,
		mode:        organisms.ModeNormal,
		chat:        organisms.NewChatPanel(80, 20, styles),
		interaction: organisms.NewInteractionPanel(FormBorderStyle, slashCommands),
		info:        info,
	}
}

// Init starts the spinner and replays the current session.
func (m MainModel) Init() tea.Cmd {
	return tea.Batch(m.chat.Init(), m.loadTranscript())
}

func (m MainModel) loadTranscript() tea.Cmd {
	runner := m.runner
	return func() tea.Msg {
		sc, err := runner.Context()
		if err != nil {
			return TranscriptMsg{Err: err}
		}
		msgs, err := runner.Transcript()
		return TranscriptMsg{Context: sc, Messages: msgs, Err: err}
	}
}

// Update processes all incoming messages.
func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		viewportHeight := m.height - 2 // input(1) + statusbar(1)
		if viewportHeight < 1 {
			viewportHeight = 1
		}
		m.chat.SetSize(m.width, viewportHeight)
		m.interaction.SetWidth(m.width)
		m.info.SetWidth(m.width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TranscriptMsg:
		if msg.Err != nil {
			m.chat.AppendErrorMessage(fmt.Sprintf("load session: %v", msg.Err))
			return m, nil
		}
		m.replay(msg.Messages)
		m.enterStage(msg.Context)
		return m, nil

	case TurnResultMsg:
		return m.handleTurnResult(msg), nil

	case StageMsg:
		return m.handleStage(msg), nil

	case ReloadMsg:
		if msg.Err != nil {
			m.chat.AppendErrorMessage(fmt.Sprintf("reload: %v", msg.Err))
			return m, nil
		}
		m.info.SetBackend(msg.BackendURL)
		m.chat.AppendSystemMessage("Config reloaded. Backend: " + msg.BackendURL)
		return m, nil

	case organisms.FormResponseMsg:
		m.interaction.DeactivateForm()
		m.setMode(organisms.ModeNormal)
		return m.handleFormResponse(msg)

	case molecules.SubmitMsg:
		return m.handleSubmit(msg)
	}

	// Pass through to chat panel (spinner ticks, viewport).
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

func (m MainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case tea.KeyPgUp:
		m.chat.PageUp()
		return m, nil

	case tea.KeyPgDown:
		m.chat.PageDown()
		return m, nil

	case tea.KeyEsc:
		if m.interaction.FormActive() {
			break
		}
		if m.mode == organisms.ModeWaiting && m.cancel != nil {
			m.cancel()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.interaction, cmd = m.interaction.Update(msg)
	return m, cmd
}

func (m MainModel) handleSubmit(msg molecules.SubmitMsg) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(msg.Content, "/") {
		return m.handleSlashCommand(msg.Content)
	}
	return m.send(msg.Content)
}

// send starts one backend request. The composer stays locked until the
// result arrives, so at most one request is in flight.
func (m MainModel) send(text string) (tea.Model, tea.Cmd) {
	if m.mode == organisms.ModeWaiting {
		return m, nil
	}

	m.chat.AppendUserMessage(text)
	m.chat.BeginTurn()

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.setMode(organisms.ModeWaiting)
	m.interaction.SetInputEnabled(false)

	runner := m.runner
	return m, func() tea.Msg {
		turn, err := runner.Send(ctx, text)
		return TurnResultMsg{Turn: turn, Err: err}
	}
}

func (m MainModel) handleTurnResult(msg TurnResultMsg) MainModel {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.setMode(organisms.ModeNormal)
	m.interaction.SetInputEnabled(true)

	if msg.Err != nil {
		if errors.Is(msg.Err, api.ErrCancelled) {
			m.chat.Cancelled()
		} else {
			m.chat.Fail(msg.Err.Error())
		}
		return m
	}

	switch rep := msg.Turn.Reply.(type) {
	case api.TextReply:
		m.chat.CompleteText(rep.Text)
	case api.ImageSetReply:
		m.chat.CompleteImages(msg.Turn.Files)
		if msg.Turn.SaveErr != nil {
			m.chat.AppendErrorMessage(msg.Turn.SaveErr.Error())
		}
	}
	m.info.SetLastTurn(msg.Turn.Duration)
	return m
}

func (m MainModel) handleStage(msg StageMsg) MainModel {
	if msg.Err != nil {
		if errors.Is(msg.Err, stages.ErrLastStage) {
			m.chat.AppendSystemMessage("Already at the last stage. Use /reset to start over.")
		} else {
			m.chat.AppendErrorMessage(msg.Err.Error())
		}
		return m
	}
	if msg.Reset {
		m.chat.ClearBlocks(m.width, max(m.height-2, 1))
	}
	m.enterStage(msg.Context)
	return m
}

func (m MainModel) handleFormResponse(msg organisms.FormResponseMsg) (tea.Model, tea.Cmd) {
	switch msg.ID {
	case formReset:
		if msg.Cancelled {
			return m, nil
		}
		runner := m.runner
		return m, func() tea.Msg {
			sc, err := runner.Reset()
			return StageMsg{Context: sc, Err: err, Reset: true}
		}

	case formDiagrams:
		if msg.Cancelled || len(msg.Values) == 0 {
			return m, nil
		}
		return m.send(strings.Join(msg.Values, ", "))
	}
	return m, nil
}

func (m MainModel) handleSlashCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	command := parts[0]

	switch command {
	case "/quit":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case "/help":
		m.chat.AppendSystemMessage(helpText)
		return m, nil

	case "/clear":
		m.chat.ClearBlocks(m.width, max(m.height-2, 1))
		return m, nil

	case "/next":
		if m.mode == organisms.ModeWaiting {
			m.chat.AppendSystemMessage("Wait for the current request to finish.")
			return m, nil
		}
		runner := m.runner
		return m, func() tea.Msg {
			sc, err := runner.Next()
			return StageMsg{Context: sc, Err: err}
		}

	case "/reset":
		if m.mode == organisms.ModeWaiting {
			m.chat.AppendSystemMessage("Wait for the current request to finish.")
			return m, nil
		}
		m.interaction.ActivateForm(organisms.FormActivateOpts{
			ID:       formReset,
			Kind:     organisms.FormConfirm,
			Label:    "Start a new session?",
			HelpText: "The current session is closed and the wizard returns to the first stage.",
		})
		m.setMode(organisms.ModePrompting)
		return m, nil

	case "/pick":
		if m.current.Mode != stages.ModeDiagram {
			m.chat.AppendSystemMessage("The current stage does not generate diagrams.")
			return m, nil
		}
		m.openPicker()
		return m, nil

	case "/status":
		sc := m.info.Stage()
		m.chat.AppendSystemMessage(fmt.Sprintf("Session: %s\nStage: %d/%d %s\nMode: %s\nBackend: %s",
			sc.Token, sc.Index+1, len(m.table()), m.stageTitle(sc.Index), sc.Mode, m.info.Backend()))
		return m, nil

	case "/stages":
		m.chat.AppendSystemMessage(FormatStages(m.table(), m.current.Index))
		return m, nil

	case "/events":
		if m.history == nil {
			m.chat.AppendSystemMessage("Event history is not available.")
			return m, nil
		}
		m.chat.AppendSystemMessage(FormatEvents(m.history(10)))
		return m, nil

	case "/reload":
		if m.reload == nil {
			m.chat.AppendSystemMessage("Reload is not available.")
			return m, nil
		}
		reload := m.reload
		return m, func() tea.Msg {
			url, err := reload()
			return ReloadMsg{BackendURL: url, Err: err}
		}

	default:
		m.chat.AppendSystemMessage(fmt.Sprintf("Unknown command: %s (try /help)", command))
		return m, nil
	}
}

// replay renders a resumed transcript.
func (m *MainModel) replay(msgs []sessions.Message) {
	for _, msg := range msgs {
		switch msg.Role {
		case sessions.RoleUser:
			m.chat.AppendUserMessage(msg.Content)
		case sessions.RoleAssistant:
			if len(msg.Images) > 0 {
				m.chat.AppendImages(msg.Images)
			} else {
				m.chat.AppendAssistantMessage(msg.Content)
			}
		case sessions.RoleError:
			m.chat.AppendErrorMessage(msg.Content)
		}
	}
}

// enterStage updates the status bar and composer for sc, and opens the
// diagram picker on diagram stages.
func (m *MainModel) enterStage(sc stages.Context) {
	m.current = sc
	m.info.SetStage(sc, m.stageTitle(sc.Index), len(m.table()))
	m.chat.AppendSystemMessage(fmt.Sprintf("Stage %d/%d: %s", sc.Index+1, len(m.table()), m.stageTitle(sc.Index)))

	if sc.Mode == stages.ModeDiagram {
		m.interaction.SetPlaceholder("Diagram kinds, comma separated (e.g. ER Diagram, DFD)")
		m.interaction.SetCompletions(m.diagramKinds())
		m.openPicker()
		return
	}
	m.interaction.SetPlaceholder("Describe your project... (/help for commands)")
	m.interaction.SetCompletions(nil)
}

func (m *MainModel) openPicker() {
	kinds := m.diagramKinds()
	opts := make([]organisms.Option, len(kinds))
	for i, k := range kinds {
		opts[i] = organisms.Option{Label: k, Value: k}
	}
	m.interaction.ActivateForm(organisms.FormActivateOpts{
		ID:        formDiagrams,
		Kind:      organisms.FormMulti,
		Label:     "Which diagrams should be generated?",
		Options:   opts,
		MinSelect: 1,
	})
	m.setMode(organisms.ModePrompting)
}

func (m *MainModel) setMode(mode organisms.Mode) {
	m.mode = mode
	m.info.SetMode(mode)
}

func (m MainModel) table() stages.Table {
	return m.runner.Controller().Table()
}

func (m MainModel) stageTitle(i int) string {
	st, _ := m.table().At(i)
	return st.Title
}

// FormatStages lists the table, marking the current stage.
func FormatStages(table stages.Table, current int) string {
	var sb strings.Builder
	for i, st := range table {
		mark := "  "
		if i == current {
			mark = "> "
		}
		fmt.Fprintf(&sb, "%s%d. %s (%s)", mark, i+1, st.Title, st.Mode)
		if i < len(table)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// FormatEvents renders events one per line, oldest first.
func FormatEvents(evts []events.Event) string {
	if len(evts) == 0 {
		return "No events yet."
	}
	lines := make([]string, len(evts))
	for i, e := range evts {
		lines[i] = fmt.Sprintf("%s %-15s %s", e.Timestamp.Local().Format("15:04:05"), e.Type, e.Source)
		if p, ok := events.GetTurnFailedPayload(e); ok {
			lines[i] += " " + p.Kind
		}
	}
	return strings.Join(lines, "\n")
}

// View renders the full TUI layout.
func (m MainModel) View() string {
	return fmt.Sprintf("%s\n%s\n%s", m.chat.View(), m.interaction.View(), m.info.View())
}

// Run starts the TUI and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewMainModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m MainModel) diagramKinds() []string {
	st, _ := m.table().At(m.current.Index)
	if len(st.Options) == 0 {
		return stages.DiagramOptions
	}
	return st.Options
}
