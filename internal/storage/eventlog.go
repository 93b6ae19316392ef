// Package storage persists bus events to disk.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dohr-michael/pairvox/internal/events"
	"github.com/dohr-michael/pairvox/internal/storage/dirstore"
)

const globalLog = "_global"

// EventLogger persists bus events to JSONL files organized by session.
type EventLogger struct {
	dir         string
	mu          sync.Mutex
	files       map[string]*os.File
	unsubscribe func()
}

// NewEventLogger creates an EventLogger that subscribes to all bus events
// and writes them as JSONL to dir, one file per session.
func NewEventLogger(dir string, bus *events.Bus) *EventLogger {
	el := &EventLogger{
		dir:   dir,
		files: make(map[string]*os.File),
	}
	el.unsubscribe = bus.Subscribe(el.handleEvent)
	return el
}

// Close unsubscribes the logger from the event bus and closes its files.
// Close the bus first so queued events are written.
func (el *EventLogger) Close() {
	if el.unsubscribe != nil {
		el.unsubscribe()
	}
	el.mu.Lock()
	defer el.mu.Unlock()
	for name, f := range el.files {
		f.Close()
		delete(el.files, name)
	}
}

func (el *EventLogger) handleEvent(e events.Event) {
	// Deltas are redundant with assistant.message; start and end are kept.
	if e.Type == events.EventAssistantStream && e.Payload["phase"] == string(events.StreamPhaseDelta) {
		return
	}
	if err := el.writeEvent(e); err != nil {
		slog.Warn("eventlog: write failed", "type", e.Type, "error", err)
	}
}

func (el *EventLogger) writeEvent(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	f, err := el.file(logName(e.SessionID))
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

func (el *EventLogger) file(name string) (*os.File, error) {
	if f, ok := el.files[name]; ok {
		return f, nil
	}
	if err := os.MkdirAll(el.dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(el.dir, name+".jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	el.files[name] = f
	return f, nil
}

func logName(sessionID string) string {
	if sessionID == "" {
		return globalLog
	}
	return sessionID
}

// ReadEvents loads the logged events of a session ("" for the global log).
func ReadEvents(dir, sessionID string) ([]events.Event, error) {
	name := logName(sessionID)
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid session id %q", sessionID)
	}
	return dirstore.ReadJSONLFile[events.Event](filepath.Join(dir, name+".jsonl"))
}
