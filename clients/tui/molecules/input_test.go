package molecules

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

var kinds = []string{"Use Case", "Activity", "C4 Context", "ER Diagram", "DFD"}

func press(c Composer, k tea.KeyType) (Composer, tea.Cmd) {
	return c.Update(tea.KeyMsg{Type: k})
}

func TestComposerTabCompletesCommand(t *testing.T) {
	c := NewComposer([]string{"/next", "/reset", "/reload"})

	c.SetValue("/ne")
	c, _ = press(c, tea.KeyTab)
	if c.Value() != "/next" {
		t.Errorf("value = %q, want /next", c.Value())
	}

	// Ambiguous prefix stays as typed.
	c.SetValue("/re")
	c, _ = press(c, tea.KeyTab)
	if c.Value() != "/re" {
		t.Errorf("value = %q, want /re", c.Value())
	}
}

func TestComposerTabCompletesDiagramKinds(t *testing.T) {
	c := NewComposer(nil)

	c.SetValue("er")
	c, _ = press(c, tea.KeyTab)
	if c.Value() != "er" {
		t.Errorf("without completions value = %q, want er", c.Value())
	}

	c.SetCompletions(kinds)
	tests := map[string]string{
		"er":          "ER Diagram",
		"DFD, c4":     "DFD, C4 Context",
		"DFD,use":     "DFD, Use Case",
		"DFD, ":       "DFD, ",
		"DFD, xyz":    "DFD, xyz",
		"Activity, d": "Activity, DFD",
	}
	for in, want := range tests {
		c.SetValue(in)
		c, _ = press(c, tea.KeyTab)
		if c.Value() != want {
			t.Errorf("Tab on %q = %q, want %q", in, c.Value(), want)
		}
	}
}

func TestComposerSubmitAndHistory(t *testing.T) {
	c := NewComposer(nil)

	c.SetValue("   ")
	c, cmd := press(c, tea.KeyEnter)
	if cmd != nil {
		t.Fatal("blank input submitted")
	}

	c.SetValue("  an online shop ")
	c, cmd = press(c, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	if msg, ok := cmd().(SubmitMsg); !ok || msg.Content != "an online shop" {
		t.Errorf("msg = %#v, want trimmed SubmitMsg", cmd())
	}
	if c.Value() != "" {
		t.Errorf("value after submit = %q, want empty", c.Value())
	}

	c.SetValue("draft")
	c, _ = press(c, tea.KeyUp)
	if c.Value() != "an online shop" {
		t.Errorf("Up = %q, want last sent message", c.Value())
	}
	c, _ = press(c, tea.KeyDown)
	if c.Value() != "draft" {
		t.Errorf("Down = %q, want restored draft", c.Value())
	}
}

func TestComposerLocked(t *testing.T) {
	c := NewComposer(nil)
	c.SetValue("hello")
	c.Lock(true)

	c, cmd := press(c, tea.KeyEnter)
	if cmd != nil || !c.Locked() {
		t.Error("locked composer submitted")
	}
	c.Lock(false)
	if _, cmd := press(c, tea.KeyEnter); cmd == nil {
		t.Error("unlocked composer did not submit")
	}
}
