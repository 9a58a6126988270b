package requestfactory

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// LogLevel is the minimum severity a logger view lets through.
type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

// String returns the lowercase name of the level.
func (l LogLevel) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelNone:
		return "none"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLogLevel converts a level name to a LogLevel. Unknown names map to
// LevelInfo.
func ParseLogLevel(name string) LogLevel {
	switch strings.ToLower(name) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "none", "off":
		return LevelNone
	default:
		return LevelInfo
	}
}

// Logger is the leveled structured logging capability the factory and
// requests write to. Implementations receive alternating key/value pairs
// after the message.
type Logger interface {
	Trace(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Fatal(msg string, keysAndValues ...interface{})
}

// SimpleLogger writes formatted log lines to a console-like sink.
type SimpleLogger struct {
	logger *log.Logger
}

// NewSimpleLogger creates a console logger writing to stderr.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{
		logger: log.New(os.Stderr, "[requestfactory] ", log.LstdFlags),
	}
}

func (s *SimpleLogger) log(level, msg string, keysAndValues ...interface{}) {
	if len(keysAndValues) == 0 {
		s.logger.Printf("%s %s", level, msg)
		return
	}

	var b strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		b.WriteByte(' ')
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, "%v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, "%v", keysAndValues[i])
		}
	}
	s.logger.Printf("%s %s%s", level, msg, b.String())
}

func (s *SimpleLogger) Trace(msg string, keysAndValues ...interface{}) {
	s.log("TRACE", msg, keysAndValues...)
}

func (s *SimpleLogger) Debug(msg string, keysAndValues ...interface{}) {
	s.log("DEBUG", msg, keysAndValues...)
}

func (s *SimpleLogger) Info(msg string, keysAndValues ...interface{}) {
	s.log("INFO", msg, keysAndValues...)
}

func (s *SimpleLogger) Warn(msg string, keysAndValues ...interface{}) {
	s.log("WARN", msg, keysAndValues...)
}

func (s *SimpleLogger) Error(msg string, keysAndValues ...interface{}) {
	s.log("ERROR", msg, keysAndValues...)
}

func (s *SimpleLogger) Fatal(msg string, keysAndValues ...interface{}) {
	s.log("FATAL", msg, keysAndValues...)
}

// leveledLogger is a filtering view over another Logger. Filtering happens
// per call so views over the same underlying logger never interfere.
type leveledLogger struct {
	inner Logger
	level LogLevel
}

// WithLevel returns a view of logger that discards calls below level.
// The underlying logger is never mutated. A nil logger yields a view that
// discards everything.
func WithLevel(logger Logger, level LogLevel) Logger {
	if inner, ok := logger.(*leveledLogger); ok {
		logger = inner.inner
	}
	return &leveledLogger{inner: logger, level: level}
}

func (l *leveledLogger) enabled(level LogLevel) bool {
	return l.inner != nil && l.level != LevelNone && level >= l.level
}

func (l *leveledLogger) Trace(msg string, keysAndValues ...interface{}) {
	if l.enabled(LevelTrace) {
		l.inner.Trace(msg, keysAndValues...)
	}
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	if l.enabled(LevelDebug) {
		l.inner.Debug(msg, keysAndValues...)
	}
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.enabled(LevelInfo) {
		l.inner.Info(msg, keysAndValues...)
	}
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	if l.enabled(LevelWarn) {
		l.inner.Warn(msg, keysAndValues...)
	}
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	if l.enabled(LevelError) {
		l.inner.Error(msg, keysAndValues...)
	}
}

// Fatal is never filtered; it indicates an unrecoverable condition.
func (l *leveledLogger) Fatal(msg string, keysAndValues ...interface{}) {
	if l.inner != nil {
		l.inner.Fatal(msg, keysAndValues...)
	}
}
