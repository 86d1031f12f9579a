// Package journal records one entry per heartbeat for later analysis.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event captures what one heartbeat did.
type Event struct {
	Timestamp       time.Time     `json:"timestamp"`
	RepliesAnswered int           `json:"replies_answered"`
	PostCreated     string        `json:"post_created,omitempty"`
	CommentedOn     string        `json:"commented_on,omitempty"`
	CommentID       string        `json:"comment_id,omitempty"`
	VotesCast       int           `json:"votes_cast"`
	RateLimited     bool          `json:"rate_limited,omitempty"`
	Errors          []string      `json:"errors,omitempty"`
	Duration        time.Duration `json:"duration_ns"`
}

// Logger records heartbeat events.
type Logger interface {
	LogEvent(Event) error
	Close() error
}

// JSONLLogger writes each event as a JSON line.
type JSONLLogger struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// NewJSONLLogger creates a JSONL logger at the given path.
func NewJSONLLogger(path string) (*JSONLLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &JSONLLogger{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// LogEvent writes a single event as JSONL. Safe to call on a nil logger.
func (l *JSONLLogger) LogEvent(ev Event) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return l.writer.Flush()
}

// Close flushes and closes the underlying file.
func (l *JSONLLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer != nil {
		_ = l.writer.Flush()
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
