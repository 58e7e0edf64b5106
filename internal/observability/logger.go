// Package observability defines shared logging primitives.
package observability

import (
	"fmt"
	"log"
	"strings"
)

// Logger captures structured logging behaviours shared across layers.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a key/value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

var defaultLogger Logger = noopLogger{}

// SetLogger overrides the global logger used by the system.
func SetLogger(logger Logger) {
	if logger == nil {
		defaultLogger = noopLogger{}
		return
	}
	defaultLogger = logger
}

// Log returns the current global logger instance.
func Log() Logger {
	return defaultLogger
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Error(string, ...Field) {}

// NewStdLogger wraps a *log.Logger into the Logger interface.
func NewStdLogger(out *log.Logger) Logger {
	if out == nil {
		out = log.Default()
	}
	return &stdLogger{out: out}
}

type stdLogger struct {
	out *log.Logger
}

func (l *stdLogger) Debug(msg string, fields ...Field) { l.emit("DEBUG", msg, fields) }
func (l *stdLogger) Info(msg string, fields ...Field)  { l.emit("INFO", msg, fields) }
func (l *stdLogger) Error(msg string, fields ...Field) { l.emit("ERROR", msg, fields) }

func (l *stdLogger) emit(level, msg string, fields []Field) {
	if len(fields) == 0 {
		l.out.Printf("%s %s", level, msg)
		return
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		key := strings.TrimSpace(f.Key)
		if key == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", key, f.Value))
	}
	l.out.Printf("%s %s %s", level, msg, strings.Join(parts, " "))
}
