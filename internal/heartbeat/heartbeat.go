// Package heartbeat lets a running mock backend advertise itself to other
// stagewise processes through a small JSON file.
package heartbeat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Status is the liveness of the process behind a heartbeat file.
type Status string

const (
	StatusAlive Status = "alive"
	StatusStale Status = "stale"
	StatusDead  Status = "dead"
)

// Heartbeat is the content of the heartbeat file.
type Heartbeat struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// Uptime returns how long the process had been running at the last beat.
func (hb Heartbeat) Uptime() time.Duration {
	return hb.Timestamp.Sub(hb.StartedAt).Truncate(time.Second)
}

// Writer refreshes a heartbeat file until stopped.
type Writer struct {
	path     string
	addr     string
	interval time.Duration
	started  time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWriter creates a writer advertising addr at path every interval.
func NewWriter(path, addr string, interval time.Duration) *Writer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Writer{path: path, addr: addr, interval: interval}
}

// Start writes the first beat synchronously, then refreshes in the background.
func (w *Writer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create heartbeat dir: %w", err)
	}
	w.started = time.Now()
	if err := w.write(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := w.write(); err != nil {
					slog.Warn("heartbeat write failed", "path", w.path, "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop halts the refresh loop and removes the file.
func (w *Writer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil

	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		slog.Warn("remove heartbeat", "path", w.path, "error", err)
	}
}

func (w *Writer) write() error {
	data, err := json.MarshalIndent(Heartbeat{
		PID:       os.Getpid(),
		Addr:      w.addr,
		StartedAt: w.started,
		Timestamp: time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal heartbeat: %w", err)
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}
	return os.Rename(tmp, w.path)
}

// Check reads the heartbeat at path. A beat older than maxAge is stale; a
// missing file is dead.
func Check(path string, maxAge time.Duration) (Status, *Heartbeat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return StatusDead, nil, nil
		}
		return StatusDead, nil, fmt.Errorf("read heartbeat: %w", err)
	}

	var hb Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		return StatusDead, nil, fmt.Errorf("unmarshal heartbeat: %w", err)
	}

	if time.Since(hb.Timestamp) > maxAge {
		return StatusStale, &hb, nil
	}
	return StatusAlive, &hb, nil
}
