// Package storage persists bus events for later inspection.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dohr-michael/stagewise/internal/events"
)

// EventLogger persists bus events to JSONL files organized by session.
type EventLogger struct {
	mu          sync.Mutex
	dir         string
	unsubscribe func()
}

// NewEventLogger creates an EventLogger that subscribes to all bus events
// and writes them as JSONL to dir, one file per session.
func NewEventLogger(dir string, bus *events.Bus) *EventLogger {
	el := &EventLogger{dir: dir}
	el.unsubscribe = bus.Subscribe(el.handleEvent)
	return el
}

// Close unsubscribes the logger from the event bus.
func (el *EventLogger) Close() {
	if el.unsubscribe != nil {
		el.unsubscribe()
	}
}

func (el *EventLogger) handleEvent(e events.Event) {
	if err := el.writeEvent(e); err != nil {
		slog.Warn("event log write failed", "type", e.Type, "error", err)
	}
}

func (el *EventLogger) writeEvent(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	path := LogPath(el.dir, e.SessionID)

	// Subscribers run concurrently; serialize appends.
	el.mu.Lock()
	defer el.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// LogPath returns the JSONL file holding events of sessionID.
func LogPath(dir, sessionID string) string {
	if sessionID == "" {
		return filepath.Join(dir, "_global.jsonl")
	}
	return filepath.Join(dir, sessionID+".jsonl")
}

// ReadEvents loads the logged events of sessionID. A missing log is empty.
func ReadEvents(dir, sessionID string) ([]events.Event, error) {
	f, err := os.Open(LogPath(dir, sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	var out []events.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e events.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue // skip corrupted lines
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan event log: %w", err)
	}
	return out, nil
}
