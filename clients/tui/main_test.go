package tui

import (
	"strings"
	"testing"

	"github.com/dohr-michael/stagewise/internal/events"
	"github.com/dohr-michael/stagewise/internal/stages"
)

func TestFormatStages(t *testing.T) {
	out := FormatStages(stages.DefaultTable(), 4)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[4], "> 5. Diagrams (diagram)") {
		t.Errorf("last line = %q", lines[4])
	}
	if !strings.HasPrefix(lines[0], "  1. Project overview (text)") {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestFormatEvents(t *testing.T) {
	if got := FormatEvents(nil); got != "No events yet." {
		t.Errorf("empty = %q", got)
	}

	evts := []events.Event{
		events.NewTypedEvent(events.SourceWizard, events.TurnStartedPayload{Mode: "text"}),
		events.NewTypedEvent(events.SourceWizard, events.TurnFailedPayload{Kind: "auth"}),
	}
	lines := strings.Split(FormatEvents(evts), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "turn.started") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "wizard auth") {
		t.Errorf("line 1 = %q", lines[1])
	}
}
