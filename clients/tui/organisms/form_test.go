package organisms

import (
	"slices"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func diagramForm() Form {
	f := NewForm(lipgloss.NewStyle())
	f.Activate(FormActivateOpts{
		ID:   "diagrams",
		Kind: FormMulti,
		Options: []Option{
			{Label: "Use Case", Value: "Use Case"},
			{Label: "ER Diagram", Value: "ER Diagram"},
			{Label: "DFD", Value: "DFD"},
		},
		MinSelect: 1,
	})
	return f
}

func press(f Form, keys ...tea.KeyMsg) (Form, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		f, cmd = f.Update(k)
	}
	return f, cmd
}

func responseOf(t *testing.T, cmd tea.Cmd) FormResponseMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	resp, ok := cmd().(FormResponseMsg)
	if !ok {
		t.Fatalf("cmd returned %T, want FormResponseMsg", cmd())
	}
	return resp
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestFormMultiSelect(t *testing.T) {
	f, cmd := press(diagramForm(), keyDown, keySpace, keyDown, keySpace, keyEnter)
	if f.Active() {
		t.Error("form still active after submit")
	}

	resp := responseOf(t, cmd)
	if resp.ID != "diagrams" || resp.Cancelled {
		t.Errorf("resp = %+v", resp)
	}
	if want := []string{"ER Diagram", "DFD"}; !slices.Equal(resp.Values, want) {
		t.Errorf("Values = %v, want %v", resp.Values, want)
	}
}

func TestFormMultiRequiresMinimum(t *testing.T) {
	f, cmd := press(diagramForm(), keyEnter)
	if cmd != nil {
		t.Error("submit with nothing selected should be ignored")
	}
	if !f.Active() {
		t.Error("form closed without a selection")
	}
}

func TestFormMultiToggleAll(t *testing.T) {
	a := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}
	f, _ := press(diagramForm(), a)
	if got := len(f.Selected()); got != 3 {
		t.Errorf("selected %d, want 3", got)
	}
	f, _ = press(f, a)
	if got := len(f.Selected()); got != 0 {
		t.Errorf("selected %d after second toggle, want 0", got)
	}
}

func TestFormMaxSelect(t *testing.T) {
	f := diagramForm()
	f.opts.MaxSelect = 1
	f, _ = press(f, keySpace, keyDown, keySpace)
	if want := []string{"Use Case"}; !slices.Equal(f.Selected(), want) {
		t.Errorf("Selected = %v, want %v", f.Selected(), want)
	}
}

func TestFormEscCancels(t *testing.T) {
	f, cmd := press(diagramForm(), keySpace, keyEsc)
	if f.Active() {
		t.Error("form still active after esc")
	}
	if resp := responseOf(t, cmd); !resp.Cancelled {
		t.Error("expected cancelled response")
	}
}

func TestFormConfirm(t *testing.T) {
	tests := []struct {
		key       tea.KeyMsg
		cancelled bool
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, false},
		{keyEnter, false},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, true},
	}

	for _, tt := range tests {
		f := NewForm(lipgloss.NewStyle())
		f.Activate(FormActivateOpts{ID: "reset", Kind: FormConfirm, Label: "Start a new session?"})

		_, cmd := f.Update(tt.key)
		resp := responseOf(t, cmd)
		if resp.ID != "reset" || resp.Cancelled != tt.cancelled {
			t.Errorf("key %q: resp = %+v, want cancelled=%v", tt.key.String(), resp, tt.cancelled)
		}
	}
}

func TestFormInactiveIgnoresInput(t *testing.T) {
	f := NewForm(lipgloss.NewStyle())
	if _, cmd := f.Update(keyEnter); cmd != nil {
		t.Error("inactive form produced a command")
	}
	if f.View() != "" {
		t.Error("inactive form rendered output")
	}
}
