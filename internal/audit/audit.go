// Package audit records every pipeline transition as an append-only trail.
// Appends are fire-and-forget: a failing sink is reported to the operational
// logger and otherwise ignored, so auditing can never fail a query.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one audit record.
type Entry struct {
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
	Event     string         `json:"event" bson:"event"`
	Payload   map[string]any `json:"payload" bson:"payload"`
}

// Sink persists audit entries.
type Sink interface {
	Write(e Entry) error
	Close() error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Entry) error

func (f SinkFunc) Write(e Entry) error { return f(e) }
func (f SinkFunc) Close() error        { return nil }

// Logger fans audit entries out to its sinks.
type Logger struct {
	sinks  []Sink
	logger *slog.Logger
}

// New creates an audit logger writing to the given sinks.
func New(logger *slog.Logger, sinks ...Sink) *Logger {
	return &Logger{sinks: sinks, logger: logger}
}

// Append records one event. Sink failures are swallowed.
func (l *Logger) Append(event string, payload map[string]any) {
	e := Entry{
		Timestamp: time.Now(),
		Event:     event,
		Payload:   payload,
	}
	for _, s := range l.sinks {
		if err := s.Write(e); err != nil {
			l.logger.Warn("audit sink write failed", "event", event, "error", err)
		}
	}
}

// Close releases all sinks.
func (l *Logger) Close() {
	for _, s := range l.sinks {
		if err := s.Close(); err != nil {
			l.logger.Warn("audit sink close failed", "error", err)
		}
	}
}

// FileSink appends one JSON line per entry to a daily file in dir.
// Each entry is a single write, so concurrent appends never interleave
// within a line.
type FileSink struct {
	dir string
	mu  sync.Mutex
}

// NewFileSink creates the audit directory if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

func (s *FileSink) Write(e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling audit entry: %w", err)
	}
	line = append(line, '\n')

	path := filepath.Join(s.dir, e.Timestamp.Format("2006-01-02")+".log")

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error { return nil }
