// Package observability records what happened during a generation run:
// a JSONL event log of pipeline phases and a notifier that announces
// completed runs.
package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// RunEvent is one observable step of a generation run.
type RunEvent struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN, ERROR
	Phase   string         `json:"phase"` // e.g. "fetch", "summarize", "render", "write"
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// Phase names written by the pipeline.
const (
	PhaseFetch     = "fetch"
	PhaseHierarchy = "hierarchy"
	PhaseSummarize = "summarize"
	PhaseRender    = "render"
	PhaseWrite     = "write"
	PhaseNotify    = "notify"
)

// RunLog records run events for later inspection.
type RunLog interface {
	Write(event RunEvent) error
	Read() ([]RunEvent, error)
	Close() error
}

// jsonlRunLog implements RunLog using an append-only JSONL file.
type jsonlRunLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLRunLog creates a RunLog backed by a JSONL file at path.
func NewJSONLRunLog(path string) (RunLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	return &jsonlRunLog{path: path, file: f}, nil
}

// Write appends a JSON-encoded event followed by a newline.
func (l *jsonlRunLog) Write(event RunEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling run event: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing run event: %w", err)
	}
	return nil
}

// Read scans the log file and returns all decodable events.
func (l *jsonlRunLog) Read() ([]RunEvent, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []RunEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event RunEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue // skip malformed lines
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning run log: %w", err)
	}
	return events, nil
}

// Close closes the underlying log file.
func (l *jsonlRunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing run log: %w", err)
	}
	return nil
}

// LogPhase is a convenience wrapper writing an INFO event; a nil log is
// a no-op so callers never guard.
func LogPhase(log RunLog, phase, message string, data map[string]any) {
	if log == nil {
		return
	}
	_ = log.Write(RunEvent{
		Time:    time.Now().UTC(),
		Level:   "INFO",
		Phase:   phase,
		Message: message,
		Data:    data,
	})
}
