package stages

import (
	"testing"

	"github.com/dohr-michael/stagewise/internal/config"
)

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()
	if err := table.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(table) != 5 {
		t.Fatalf("len = %d, want 5", len(table))
	}
	if table.Last() != 4 {
		t.Errorf("Last = %d, want 4", table.Last())
	}
	for i := 0; i < 4; i++ {
		if table.ModeAt(i) != ModeText {
			t.Errorf("ModeAt(%d) = %q, want text", i, table.ModeAt(i))
		}
		if table[i].AgentID != i+1 {
			t.Errorf("stage %d AgentID = %d, want %d", i, table[i].AgentID, i+1)
		}
	}
	if table.ModeAt(4) != ModeDiagram {
		t.Errorf("ModeAt(4) = %q, want diagram", table.ModeAt(4))
	}
	if len(table[4].Options) != len(DiagramOptions) {
		t.Errorf("diagram stage has %d options, want %d", len(table[4].Options), len(DiagramOptions))
	}
}

func TestModeAtOutOfRange(t *testing.T) {
	table := DefaultTable()
	for _, i := range []int{-1, 5, 100} {
		if got := table.ModeAt(i); got != ModeText {
			t.Errorf("ModeAt(%d) = %q, want text", i, got)
		}
		if _, ok := table.At(i); ok {
			t.Errorf("At(%d) ok = true, want false", i)
		}
	}
}

func TestContextAt(t *testing.T) {
	table := DefaultTable()

	ctx := table.ContextAt(2, "tok")
	if ctx.Index != 2 || ctx.Mode != ModeText || ctx.AgentID != 3 || ctx.Token != "tok" {
		t.Errorf("ContextAt(2) = %+v", ctx)
	}

	ctx = table.ContextAt(4, "tok")
	if ctx.Mode != ModeDiagram {
		t.Errorf("ContextAt(4).Mode = %q, want diagram", ctx.Mode)
	}
}

func TestFromConfigEmpty(t *testing.T) {
	table, err := FromConfig(nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if len(table) != len(DefaultTable()) {
		t.Errorf("len = %d, want default table", len(table))
	}
}

func TestFromConfig(t *testing.T) {
	table, err := FromConfig([]config.StageConfig{
		{AgentID: 7},
		{ID: "pics", Mode: "diagram", Options: []string{"DFD"}},
	})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if table[0].ID != "stage-1" || table[0].Title != "stage-1" {
		t.Errorf("stage 0 = %+v, want generated id and title", table[0])
	}
	if table[0].Mode != ModeText {
		t.Errorf("stage 0 mode = %q, want text", table[0].Mode)
	}
	if table.ModeAt(1) != ModeDiagram {
		t.Errorf("stage 1 mode = %q, want diagram", table.ModeAt(1))
	}
}

func TestFromConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		entries []config.StageConfig
	}{
		{"unknown mode", []config.StageConfig{{AgentID: 1, Mode: "video"}}},
		{"text without agent", []config.StageConfig{{ID: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromConfig(tt.entries); err == nil {
				t.Error("expected error")
			}
		})
	}
}
