// Package log provides testing utilities for structured logging.
//
// TestLogger is the real zerolog-backed logger writing JSON lines into an
// in-memory buffer, so tests can assert on exactly what a run would log.

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures all log messages in memory for later inspection.
type TestLogger struct {
	Logger
	out *lockedBuffer
}

// lockedBuffer serialises writes from parallel resampling workers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewTestLogger creates a new TestLogger with the specified minimum level.
//
// Example:
//
//	logger, buffer := log.NewTestLogger(log.LevelDebug)
//	logger.Info("test message", "key", "value")
//	output := buffer.String()
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	out := &lockedBuffer{buf: buffer}
	zl := zerolog.New(out).Level(toZerolog(level))
	return &TestLogger{Logger: NewLogger(zl), out: out}, buffer
}

// With keeps the capture buffer on derived loggers.
func (t *TestLogger) With(fields ...any) Logger {
	return &TestLogger{Logger: t.Logger.With(fields...), out: t.out}
}

// GetLogEntries parses the captured output into one map per line.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(t.out.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage checks if any captured entry contains the message text.
func (t *TestLogger) ContainsMessage(message string) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if msg, ok := entry[zerolog.MessageFieldName].(string); ok && strings.Contains(msg, message) {
			return true
		}
	}
	return false
}

// ContainsField checks if any entry has key == value. JSON numbers decode
// as float64, so compare numeric fields with float64 values.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if fieldValue, exists := entry[key]; exists && fieldValue == value {
			return true
		}
	}
	return false
}

// CountMessages returns how many entries carry exactly this message.
func (t *TestLogger) CountMessages(message string) int {
	entries, err := t.GetLogEntries()
	if err != nil {
		return 0
	}
	n := 0
	for _, entry := range entries {
		if entry[zerolog.MessageFieldName] == message {
			n++
		}
	}
	return n
}
