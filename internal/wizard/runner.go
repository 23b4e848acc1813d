// Package wizard runs chat turns against the backend for the current stage
// and records them in the session transcript.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dohr-michael/stagewise/clients/api"
	"github.com/dohr-michael/stagewise/internal/events"
	"github.com/dohr-michael/stagewise/internal/sessions"
	"github.com/dohr-michael/stagewise/internal/stages"
)

// Backend performs one request for a stage snapshot.
type Backend interface {
	Run(ctx context.Context, text string, sc stages.Context) (api.Reply, error)
}

// Turn is the outcome of one successful submission.
type Turn struct {
	Context  stages.Context
	Text     string
	Reply    api.Reply
	Files    []string // saved diagram paths, diagram mode only
	SaveErr  error    // images the backend returned but that could not be saved
	Duration time.Duration
}

// Config wires a Runner.
type Config struct {
	Controller *stages.Controller
	Backend    Backend
	Store      sessions.Store
	Bus        *events.Bus // optional
	OutputDir  string      // diagrams are written under OutputDir/<token>
}

// Runner executes turns. Callers keep at most one Send in flight.
type Runner struct {
	ctrl      *stages.Controller
	mu        sync.RWMutex
	backend   Backend
	store     sessions.Store
	bus       *events.Bus
	outputDir string
}

// NewRunner creates a Runner from cfg.
func NewRunner(cfg Config) *Runner {
	return &Runner{
		ctrl:      cfg.Controller,
		backend:   cfg.Backend,
		store:     cfg.Store,
		bus:       cfg.Bus,
		outputDir: cfg.OutputDir,
	}
}

// Controller returns the stage controller driving this runner.
func (r *Runner) Controller() *stages.Controller {
	return r.ctrl
}

// SetBackend swaps the backend used by later turns.
func (r *Runner) SetBackend(b Backend) {
	r.mu.Lock()
	r.backend = b
	r.mu.Unlock()
}

// Context returns the current stage snapshot, resuming or creating a session
// when none is loaded yet.
func (r *Runner) Context() (stages.Context, error) {
	if sc, ok := r.ctrl.Context(); ok {
		return sc, nil
	}
	return r.ctrl.ResumeActive()
}

// Send submits text for the current stage.
func (r *Runner) Send(ctx context.Context, text string) (*Turn, error) {
	sc, err := r.Context()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	r.publish(sc.Token, events.TurnStartedPayload{StageIndex: sc.Index, Mode: string(sc.Mode), Text: text})
	userMsg := sessions.Message{Role: sessions.RoleUser, Content: text, Ts: time.Now()}

	r.mu.RLock()
	backend := r.backend
	r.mu.RUnlock()

	start := time.Now()
	reply, err := backend.Run(ctx, text, sc)
	elapsed := time.Since(start)
	// Rejected input never reached the backend and stays out of the transcript.
	if errors.Is(err, api.ErrValidation) {
		return nil, r.fail(sc, err, elapsed, false)
	}
	r.record(sc, userMsg)
	if err != nil {
		return nil, r.fail(sc, err, elapsed, true)
	}

	turn := &Turn{Context: sc, Text: text, Reply: reply, Duration: elapsed}
	completed := events.TurnCompletedPayload{StageIndex: sc.Index, Mode: string(sc.Mode), Duration: elapsed}

	switch rep := reply.(type) {
	case api.TextReply:
		completed.TextLength = len(rep.Text)
		r.record(sc, sessions.Message{Role: sessions.RoleAssistant, Content: rep.Text})
	case api.ImageSetReply:
		files, err := SaveImages(r.outputDir, sc.Token, api.SplitDiagramRequests(text), rep)
		turn.Files = files
		completed.Images = len(rep.Images)
		r.record(sc, sessions.Message{Role: sessions.RoleAssistant, Images: files})
		if err != nil {
			turn.SaveErr = fmt.Errorf("save diagrams: %w", err)
			completed.SaveError = turn.SaveErr.Error()
			slog.Warn("save diagrams", "token", sc.Token, "saved", len(files), "images", len(rep.Images), "error", err)
			r.record(sc, sessions.Message{Role: sessions.RoleError, Content: turn.SaveErr.Error()})
		}
	}

	slog.Debug("turn completed", "token", sc.Token, "stage", sc.Index, "mode", sc.Mode, "duration", elapsed)
	r.publish(sc.Token, completed)
	return turn, nil
}

// Next advances to the following stage.
func (r *Runner) Next() (stages.Context, error) {
	if _, err := r.Context(); err != nil {
		return stages.Context{}, err
	}
	return r.ctrl.Advance()
}

// Reset starts a new session at the first stage.
func (r *Runner) Reset() (stages.Context, error) {
	return r.ctrl.Reset()
}

// Transcript returns the messages of the current session.
func (r *Runner) Transcript() ([]sessions.Message, error) {
	sc, err := r.Context()
	if err != nil {
		return nil, err
	}
	return r.store.LoadMessages(sc.Token)
}

func (r *Runner) fail(sc stages.Context, err error, elapsed time.Duration, transcript bool) error {
	kind := api.Kind(err)
	slog.Debug("turn failed", "token", sc.Token, "stage", sc.Index, "kind", kind, "error", err)
	if transcript {
		r.record(sc, sessions.Message{Role: sessions.RoleError, Content: err.Error()})
	}
	r.publish(sc.Token, events.TurnFailedPayload{
		StageIndex: sc.Index,
		Mode:       string(sc.Mode),
		Kind:       kind,
		Error:      err.Error(),
		Duration:   elapsed,
	})
	return err
}

// record appends to the transcript. Transcript failures do not fail the turn.
func (r *Runner) record(sc stages.Context, msg sessions.Message) {
	msg.Stage = sc.Index
	if msg.Ts.IsZero() {
		msg.Ts = time.Now()
	}
	if err := r.store.AppendMessage(sc.Token, msg); err != nil {
		slog.Warn("append transcript", "token", sc.Token, "role", msg.Role, "error", err)
	}
}

func (r *Runner) publish(token string, p events.EventPayload) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.NewTypedEventWithSession(events.SourceWizard, p, token))
}
