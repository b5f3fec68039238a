package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log line.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelColors = map[Level]string{
	DEBUG: "\033[36m",
	INFO:  "\033[32m",
	WARN:  "\033[33m",
	ERROR: "\033[31m",
	FATAL: "\033[35m",
}

var levelPrefixes = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO ",
	WARN:  "WARN ",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// Logger writes leveled lines with a timestamp and caller location.
// It is safe for use from the audio goroutine and the render loop.
type Logger struct {
	mu        sync.Mutex
	level     Level
	out       *log.Logger
	file      *os.File
	useColors bool
	tag       string
}

// ParseLevel maps a config string to a Level. Unknown names map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	}
	return INFO
}

// New creates a stdout logger at the given level.
func New(level string) *Logger {
	l := &Logger{
		level:     ParseLevel(level),
		out:       log.New(os.Stdout, "", 0),
		useColors: true,
	}
	if fi, err := os.Stdout.Stat(); err != nil || fi.Mode()&os.ModeCharDevice == 0 {
		l.useColors = false
	}
	return l
}

// NewWriter creates a colorless logger writing to w. Used by tests and tools.
func NewWriter(level string, w io.Writer) *Logger {
	return &Logger{
		level: ParseLevel(level),
		out:   log.New(w, "", 0),
	}
}

// NewMulti writes to stdout and appends to the file at path.
func NewMulti(level, path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := New(level)
	l.out.SetOutput(io.MultiWriter(os.Stdout, f))
	l.file = f
	return l, nil
}

// With returns a logger sharing output and level that prefixes every
// message with [tag].
func (l *Logger) With(tag string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		level:     l.level,
		out:       l.out,
		useColors: l.useColors,
		tag:       tag,
	}
}

func (l *Logger) logf(level Level, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
	}
	file = filepath.Base(file)

	now := time.Now().Format("2006/01/02 15:04:05.000")
	prefix := fmt.Sprintf("%s [%s] %s:%d:", now, levelPrefixes[level], file, line)
	if l.useColors {
		prefix = levelColors[level] + prefix + "\033[0m"
	}
	msg := fmt.Sprintf(format, v...)
	if l.tag != "" {
		msg = "[" + l.tag + "] " + msg
	}
	l.out.Println(prefix, msg)

	if level == FATAL {
		if l.file != nil {
			l.file.Close()
		}
		os.Exit(1)
	}
}

func (l *Logger) Debugf(format string, v ...any) { l.logf(DEBUG, format, v...) }
func (l *Logger) Infof(format string, v ...any)  { l.logf(INFO, format, v...) }
func (l *Logger) Warnf(format string, v ...any)  { l.logf(WARN, format, v...) }
func (l *Logger) Errorf(format string, v ...any) { l.logf(ERROR, format, v...) }

// Fatalf logs and exits the process.
func (l *Logger) Fatalf(format string, v ...any) { l.logf(FATAL, format, v...) }

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level string) {
	l.mu.Lock()
	l.level = ParseLevel(level)
	l.mu.Unlock()
}

// Close releases the log file, if any.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

// Nop discards everything. Components default to it when no logger is given.
type Nop struct{}

func (Nop) Debugf(string, ...any) {}
func (Nop) Infof(string, ...any)  {}
func (Nop) Warnf(string, ...any)  {}
func (Nop) Errorf(string, ...any) {}
