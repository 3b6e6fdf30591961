package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Field is a typed key/value pair attached to a log entry.
type Field = zap.Field

// Level selects the minimum severity a Logger emits.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// Logger is the logging surface the rest of the codebase depends on. Fatal
// terminates the process after logging.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
	SetLevel(level Level)
}

var (
	global   Logger
	initOnce sync.Once
)

// Initialize sets the process-wide logger. Only the first call wins.
func Initialize(writers ...io.Writer) {
	initOnce.Do(func() {
		global = New(writers...)
	})
}

// Global returns the process-wide logger, defaulting to stdout when
// Initialize was never called.
func Global() Logger {
	if global == nil {
		Initialize(os.Stdout)
	}
	return global
}

func String(key, value string) Field { return zap.String(key, value) }

func Int(key string, value int) Field { return zap.Int(key, value) }

func Int64(key string, value int64) Field { return zap.Int64(key, value) }

// Duration renders the value in Go duration syntax ("1m30s").
func Duration(key string, value time.Duration) Field { return zap.Stringer(key, value) }

// Error records err under the "error" key.
func Error(err error) Field { return zap.Error(err) }

func Any(key string, value interface{}) Field { return zap.Any(key, value) }
