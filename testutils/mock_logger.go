package testutils

import (
	"math"
	"sync"

	"github.com/evdnx/gosafe/logger"
	"go.uber.org/zap/zapcore"
)

// logEntry captures a single log invocation for inspection in tests.
type logEntry struct {
	level  string
	msg    string
	fields []logger.Field
}

type logSink struct {
	mu      sync.Mutex
	entries []logEntry
}

// MockLogger implements the Logger interface but stores entries in-memory.
// Children created with With share the parent's entries.
type MockLogger struct {
	sink   *logSink
	fields []logger.Field
}

// NewMockLogger returns a logger that records everything.
func NewMockLogger() *MockLogger { return &MockLogger{sink: &logSink{}} }

func (l *MockLogger) record(level, msg string, fields ...logger.Field) {
	copiedFields := append(append([]logger.Field(nil), l.fields...), fields...)
	l.sink.mu.Lock()
	l.sink.entries = append(l.sink.entries, logEntry{level: level, msg: msg, fields: copiedFields})
	l.sink.mu.Unlock()
}

func (l *MockLogger) Info(msg string, fields ...logger.Field) {
	l.record("info", msg, fields...)
}
func (l *MockLogger) Warn(msg string, fields ...logger.Field) {
	l.record("warn", msg, fields...)
}
func (l *MockLogger) Error(msg string, fields ...logger.Field) {
	l.record("error", msg, fields...)
}

func (l *MockLogger) With(fields ...logger.Field) logger.Logger {
	return &MockLogger{
		sink:   l.sink,
		fields: append(append([]logger.Field(nil), l.fields...), fields...),
	}
}

// LastMessage returns the message associated with the most recent log entry.
func (l *MockLogger) LastMessage() string {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if len(l.sink.entries) == 0 {
		return ""
	}
	return l.sink.entries[len(l.sink.entries)-1].msg
}

// Count returns how many entries were logged with msg.
func (l *MockLogger) Count(msg string) int {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	n := 0
	for _, e := range l.sink.entries {
		if e.msg == msg {
			n++
		}
	}
	return n
}

// lookup finds key on the most recent entry logged with msg.
func (l *MockLogger) lookup(msg, key string) (logger.Field, bool) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	for i := len(l.sink.entries) - 1; i >= 0; i-- {
		e := l.sink.entries[i]
		if e.msg != msg {
			continue
		}
		for _, f := range e.fields {
			if f.Key == key {
				return f, true
			}
		}
		return logger.Field{}, false
	}
	return logger.Field{}, false
}

// StringField returns a string field of the latest msg entry.
func (l *MockLogger) StringField(msg, key string) (string, bool) {
	f, ok := l.lookup(msg, key)
	if !ok || f.Type != zapcore.StringType {
		return "", false
	}
	return f.String, true
}

// FloatField returns a float64 field of the latest msg entry.
func (l *MockLogger) FloatField(msg, key string) (float64, bool) {
	f, ok := l.lookup(msg, key)
	if !ok || f.Type != zapcore.Float64Type {
		return 0, false
	}
	return math.Float64frombits(uint64(f.Integer)), true
}
