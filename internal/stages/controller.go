package stages

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dohr-michael/stagewise/internal/events"
	"github.com/dohr-michael/stagewise/internal/sessions"
)

var (
	ErrLastStage = errors.New("already at the last stage")
	ErrNoSession = errors.New("no active session")
)

// Controller tracks which stage a session is in. It is the only writer of
// the stage cursor; everything else reads Context snapshots.
type Controller struct {
	mu       sync.Mutex
	table    Table
	store    sessions.Store
	bus      *events.Bus
	session  *sessions.Session
	newToken func() string
}

// NewController creates a controller over table, persisting to store.
// bus may be nil.
func NewController(table Table, store sessions.Store, bus *events.Bus) *Controller {
	return &Controller{
		table:    table,
		store:    store,
		bus:      bus,
		newToken: func() string { return uuid.New().String() },
	}
}

// Table returns the stage table.
func (c *Controller) Table() Table {
	return c.table
}

// Reset starts a fresh session: new token, stage 0. The previous session,
// if any, is closed.
func (c *Controller) Reset() (Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		if err := c.store.End(c.session.Token); err != nil {
			slog.Warn("close previous session", "token", c.session.Token, "error", err)
		}
	}

	token := c.newToken()
	s, err := c.store.Create(token)
	if err != nil {
		return Context{}, fmt.Errorf("create session: %w", err)
	}
	s.StageIndex = 0
	s.Mode = string(c.table.ModeAt(0))
	if err := c.store.Update(s); err != nil {
		return Context{}, fmt.Errorf("persist session: %w", err)
	}
	if err := c.store.SetActive(token); err != nil {
		return Context{}, fmt.Errorf("activate session: %w", err)
	}

	c.session = s
	slog.Debug("session reset", "token", token)
	c.publish(events.SessionResetPayload{StageIndex: 0, Mode: s.Mode})
	return c.snapshot(), nil
}

// Resume loads a persisted session and makes it active. A stage index that
// no longer fits the table is clamped to it.
func (c *Controller) Resume(token string) (Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.store.Get(token)
	if err != nil {
		return Context{}, fmt.Errorf("load session: %w", err)
	}

	idx := min(max(s.StageIndex, 0), c.table.Last())
	mode := string(c.table.ModeAt(idx))
	if idx != s.StageIndex || mode != s.Mode {
		s.StageIndex = idx
		s.Mode = mode
		if err := c.store.Update(s); err != nil {
			return Context{}, fmt.Errorf("persist session: %w", err)
		}
	}
	if err := c.store.SetActive(token); err != nil {
		return Context{}, fmt.Errorf("activate session: %w", err)
	}

	c.session = s
	return c.snapshot(), nil
}

// ResumeActive resumes the store's active session, or resets when there is
// none (or it has vanished).
func (c *Controller) ResumeActive() (Context, error) {
	token, err := c.store.Active()
	if err != nil {
		return Context{}, err
	}
	if token == "" {
		return c.Reset()
	}
	ctx, err := c.Resume(token)
	if errors.Is(err, sessions.ErrNotFound) {
		slog.Warn("active session missing, starting a new one", "token", token)
		return c.Reset()
	}
	return ctx, err
}

// Advance moves to the next stage and persists the new cursor.
func (c *Controller) Advance() (Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Context{}, ErrNoSession
	}
	from := c.session.StageIndex
	if from >= c.table.Last() {
		return c.snapshot(), ErrLastStage
	}

	next := *c.session
	next.StageIndex = from + 1
	next.Mode = string(c.table.ModeAt(next.StageIndex))
	if err := c.store.Update(&next); err != nil {
		return c.snapshot(), fmt.Errorf("persist stage: %w", err)
	}
	c.session = &next

	st, _ := c.table.At(next.StageIndex)
	slog.Debug("stage advanced", "token", next.Token, "from", from, "to", next.StageIndex)
	c.publish(events.StageAdvancedPayload{From: from, To: next.StageIndex, Stage: st.ID, Mode: next.Mode})
	return c.snapshot(), nil
}

// Context returns the current snapshot; ok is false before Reset/Resume.
func (c *Controller) Context() (Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Context{}, false
	}
	return c.snapshot(), true
}

// Stage returns the current stage entry.
func (c *Controller) Stage() (Stage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Stage{}, false
	}
	return c.table.At(c.session.StageIndex)
}

func (c *Controller) snapshot() Context {
	return c.table.ContextAt(c.session.StageIndex, c.session.Token)
}

func (c *Controller) publish(p events.EventPayload) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.NewTypedEventWithSession(events.SourceController, p, c.session.Token))
}
