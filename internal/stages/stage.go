// Package stages defines the ordered wizard stages and the controller that
// moves a session through them.
package stages

import (
	"errors"
	"fmt"

	"github.com/dohr-michael/stagewise/internal/config"
)

// Mode tells whether a stage expects free-text chat or diagram-set generation.
type Mode string

const (
	ModeText    Mode = "text"
	ModeDiagram Mode = "diagram"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeText || m == ModeDiagram
}

// Stage is one entry of the stage table.
type Stage struct {
	ID      string
	Title   string
	AgentID int  // chat endpoint id; unused in diagram mode
	Mode    Mode
	Options []string // suggested diagram kinds
}

// DiagramOptions are the diagram kinds offered on the diagram stage.
var DiagramOptions = []string{"Use Case", "Activity", "C4 Context", "ER Diagram", "DFD"}

// Table is the ordered list of stages. Index i is stage i.
type Table []Stage

// DefaultTable returns the built-in five-stage wizard.
func DefaultTable() Table {
	return Table{
		{ID: "overview", Title: "Project overview", AgentID: 1, Mode: ModeText},
		{ID: "goals", Title: "Goals and objectives", AgentID: 2, Mode: ModeText},
		{ID: "user-groups", Title: "User groups", AgentID: 3, Mode: ModeText},
		{ID: "requirements", Title: "Requirements and features", AgentID: 4, Mode: ModeText},
		{ID: "diagrams", Title: "Diagrams", Mode: ModeDiagram, Options: append([]string(nil), DiagramOptions...)},
	}
}

// FromConfig builds a table from config entries, falling back to the
// default table when none are configured.
func FromConfig(entries []config.StageConfig) (Table, error) {
	if len(entries) == 0 {
		return DefaultTable(), nil
	}

	t := make(Table, 0, len(entries))
	for i, e := range entries {
		mode := Mode(e.Mode)
		if mode == "" {
			mode = ModeText
		}
		st := Stage{ID: e.ID, Title: e.Title, AgentID: e.AgentID, Mode: mode, Options: e.Options}
		if st.ID == "" {
			st.ID = fmt.Sprintf("stage-%d", i+1)
		}
		if st.Title == "" {
			st.Title = st.ID
		}
		t = append(t, st)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that every stage has a usable mode and endpoint.
func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.New("stage table is empty")
	}
	for i, st := range t {
		if !st.Mode.Valid() {
			return fmt.Errorf("stage %d (%s): unknown mode %q", i, st.ID, st.Mode)
		}
		if st.Mode == ModeText && st.AgentID <= 0 {
			return fmt.Errorf("stage %d (%s): text stage needs agent_id > 0", i, st.ID)
		}
	}
	return nil
}

// Last returns the index of the final stage.
func (t Table) Last() int {
	return len(t) - 1
}

// ModeAt derives the mode of stage i. Out-of-range indices yield ModeText.
func (t Table) ModeAt(i int) Mode {
	if i < 0 || i >= len(t) {
		return ModeText
	}
	return t[i].Mode
}

// At returns stage i and whether it exists.
func (t Table) At(i int) (Stage, bool) {
	if i < 0 || i >= len(t) {
		return Stage{}, false
	}
	return t[i], true
}

// Context is the immutable snapshot of a session's position, read at the
// start of every turn.
type Context struct {
	Index   int
	Mode    Mode
	Token   string
	AgentID int
}

// ContextAt builds the snapshot for stage i of the session token.
func (t Table) ContextAt(i int, token string) Context {
	st, _ := t.At(i)
	return Context{
		Index:   i,
		Mode:    t.ModeAt(i),
		Token:   token,
		AgentID: st.AgentID,
	}
}
