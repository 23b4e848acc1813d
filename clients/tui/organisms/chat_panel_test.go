package organisms

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func testPanel() ChatPanel {
	s := lipgloss.NewStyle()
	return NewChatPanel(80, 20, ChatPanelStyles{Assistant: s, User: s, Error: s, Muted: s, Diagram: s})
}

func TestChatPanelTextTurn(t *testing.T) {
	p := testPanel()
	p.AppendUserMessage("an online shop")
	p.BeginTurn()

	if !p.Waiting() {
		t.Fatal("expected pending placeholder")
	}
	if p.BlockCount() != 2 {
		t.Fatalf("BlockCount = %d, want 2", p.BlockCount())
	}

	p.CompleteText("Which payment methods?")
	if p.Waiting() {
		t.Error("placeholder not resolved")
	}
	if p.BlockCount() != 2 {
		t.Fatalf("BlockCount = %d, want 2 (placeholder replaced in place)", p.BlockCount())
	}
	tb, ok := p.Block(1).(*TextBlock)
	if !ok {
		t.Fatalf("block 1 = %T, want *TextBlock", p.Block(1))
	}
	if tb.Role() != "Assistant" || tb.Content() != "Which payment methods?" {
		t.Errorf("block 1 = %s %q", tb.Role(), tb.Content())
	}
}

func TestChatPanelImageTurn(t *testing.T) {
	p := testPanel()
	p.BeginTurn()
	p.CompleteImages([]string{"/tmp/01-dfd.png", "/tmp/02-er-diagram.png"})

	ib, ok := p.Block(0).(*ImageBlock)
	if !ok {
		t.Fatalf("block 0 = %T, want *ImageBlock", p.Block(0))
	}
	if len(ib.Files()) != 2 {
		t.Errorf("Files = %v", ib.Files())
	}
	if !strings.Contains(ib.View(), "02-er-diagram.png") {
		t.Errorf("view missing file name:\n%s", ib.View())
	}
}

func TestChatPanelFailAndCancel(t *testing.T) {
	p := testPanel()
	p.BeginTurn()
	p.Fail("Invalid token")
	if tb := p.Block(0).(*TextBlock); tb.Role() != "Error" {
		t.Errorf("role = %q, want Error", tb.Role())
	}

	p.BeginTurn()
	p.Cancelled()
	if p.BlockCount() != 2 {
		t.Fatalf("BlockCount = %d, want 2", p.BlockCount())
	}
	if tb := p.Block(1).(*TextBlock); tb.Role() != "System" {
		t.Errorf("role = %q, want System", tb.Role())
	}
}

func TestChatPanelResolveWithoutPending(t *testing.T) {
	p := testPanel()
	p.CompleteText("late reply")
	if p.BlockCount() != 1 {
		t.Errorf("BlockCount = %d, want 1", p.BlockCount())
	}
}

func TestChatPanelClear(t *testing.T) {
	p := testPanel()
	p.AppendSystemMessage("hello")
	p.BeginTurn()
	p.ClearBlocks(100, 30)
	if p.BlockCount() != 0 || p.Waiting() {
		t.Errorf("after clear: blocks=%d waiting=%v", p.BlockCount(), p.Waiting())
	}
}
