package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger writes key=value lines suitable for journald and container logs.
// It is safe for concurrent use by request handlers.
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
	debug  bool
}

// New creates a logger writing to stdout.
func New() *Logger {
	return &Logger{writer: os.Stdout}
}

// NewWithWriter creates a logger with a custom writer
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{writer: w}
}

// SetDebug toggles DEBUG output.
func (l *Logger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.log("INFO", msg, fields...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.log("ERROR", msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.log("WARNING", msg, fields...)
}

// Debug logs only when debug output is enabled.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.mu.Lock()
	enabled := l.debug
	l.mu.Unlock()
	if enabled {
		l.log("DEBUG", msg, fields...)
	}
}

func (l *Logger) log(level, msg string, fields ...Field) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "LEVEL=%s MESSAGE=%s", level, msg)
	for _, field := range fields {
		fmt.Fprintf(&sb, " %s=%v", field.Key, field.Value)
	}
	sb.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, sb.String())
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new field (shorthand)
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Common field constructors
func Action(value string) Field          { return F("ACTION", value) }
func Status(value string) Field          { return F("STATUS", value) }
func Method(value string) Field          { return F("METHOD", value) }
func Path(value string) Field            { return F("PATH", value) }
func Remote(value string) Field          { return F("REMOTE", value) }
func StatusCode(value int) Field         { return F("STATUS_CODE", value) }
func Duration(value time.Duration) Field { return F("DURATION", value) }
func RequestID(value string) Field       { return F("REQUEST_ID", value) }
func User(value string) Field            { return F("USER", value) }
func URL(value string) Field             { return F("URL", value) }
func Count(value int) Field              { return F("COUNT", value) }
func Error(value error) Field            { return F("ERROR", value) }
func Reason(value string) Field          { return F("REASON", value) }
