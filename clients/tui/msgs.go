package tui

import (
	"github.com/dohr-michael/stagewise/internal/sessions"
	"github.com/dohr-michael/stagewise/internal/stages"
	"github.com/dohr-michael/stagewise/internal/wizard"
)

// TurnResultMsg carries the outcome of an async Send.
type TurnResultMsg struct {
	Turn *wizard.Turn
	Err  error
}

// StageMsg carries a new stage snapshot after /next or /reset.
type StageMsg struct {
	Context stages.Context
	Err     error
	Reset   bool
}

// TranscriptMsg replays a resumed session.
type TranscriptMsg struct {
	Context  stages.Context
	Messages []sessions.Message
	Err      error
}

// ReloadMsg carries the result of /reload.
type ReloadMsg struct {
	BackendURL string
	Err        error
}
