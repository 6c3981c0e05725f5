// Package logger is a small leveled logging facade. It stands in for the
// "log-pool facade" that the rest of the registry treats as an external
// collaborator: callers wire their own handlers (to a file, to syslog, to
// a test recorder) without the core depending on any particular backend.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelOK
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelOK:
		return "OK"
	default:
		return "UNKNOWN"
	}
}

// Handler receives every message logged at the level it was registered
// for (not a "this level or above" filter, in keeping with the callers in
// this codebase that want exact-level routing, e.g. Warn-only alerting).
type Handler func(l LogLevel, message string)

// Logger is a category-scoped log sink with pluggable per-level handlers
// plus a standard-library fallback writer.
type Logger struct {
	mut      sync.Mutex
	std      *log.Logger
	handlers map[LogLevel][]Handler
}

// New creates a Logger writing to stderr by default.
func New() *Logger {
	return &Logger{
		std:      log.New(os.Stderr, "", log.LstdFlags),
		handlers: make(map[LogLevel][]Handler),
	}
}

// Default is the process-wide logger for category "sensors", matching the
// spec's required log category string.
func init() {
	Default.SetPrefix("sensors: ")
}

var Default = New()

func (l *Logger) SetFlags(flag int) {
	l.mut.Lock()
	defer l.mut.Unlock()
	l.std.SetFlags(flag)
}

func (l *Logger) SetPrefix(prefix string) {
	l.mut.Lock()
	defer l.mut.Unlock()
	l.std.SetPrefix(prefix)
}

// AddHandler registers fn to be called for every message logged at
// exactly level lvl.
func (l *Logger) AddHandler(lvl LogLevel, fn Handler) {
	l.mut.Lock()
	defer l.mut.Unlock()
	l.handlers[lvl] = append(l.handlers[lvl], fn)
}

func (l *Logger) log(lvl LogLevel, msg string) {
	msg = strings.TrimRight(msg, "\n")
	l.mut.Lock()
	handlers := append([]Handler(nil), l.handlers[lvl]...)
	std := l.std
	l.mut.Unlock()

	for _, h := range handlers {
		h(lvl, msg)
	}
	std.Printf("%s: %s", lvl, msg)
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, fmt.Sprintf(format, args...)) }
func (l *Logger) Debugln(args ...interface{})                { l.log(LevelDebug, fmt.Sprintln(args...)) }
func (l *Logger) Infof(format string, args ...interface{})   { l.log(LevelInfo, fmt.Sprintf(format, args...)) }
func (l *Logger) Infoln(args ...interface{})                 { l.log(LevelInfo, fmt.Sprintln(args...)) }
func (l *Logger) Warnf(format string, args ...interface{})   { l.log(LevelWarn, fmt.Sprintf(format, args...)) }
func (l *Logger) Warnln(args ...interface{})                 { l.log(LevelWarn, fmt.Sprintln(args...)) }
func (l *Logger) Okf(format string, args ...interface{})     { l.log(LevelOK, fmt.Sprintf(format, args...)) }
func (l *Logger) Okln(args ...interface{})                   { l.log(LevelOK, fmt.Sprintln(args...)) }
