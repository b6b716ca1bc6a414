package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Logger interface defines the logging methods
type Logger interface {
	Info(format string, args ...any)
	Debug(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	SetOutput(out, errOut io.Writer)
	SetVerbose(enabled bool)
	SetQuiet(enabled bool)
	IsVerbose() bool
	IsQuiet() bool
}

// ConsoleLogger writes one line per message. Errors go to errOut, everything
// else to output. Icons and colours are used only on a terminal.
type ConsoleLogger struct {
	mu          sync.Mutex
	output      io.Writer
	errOut      io.Writer
	tty         bool
	verboseMode bool
	quietMode   bool
}

var (
	instance Logger
	once     sync.Once
)

// New returns a logger writing plain lines to out and errOut.
func New(out, errOut io.Writer) *ConsoleLogger {
	return &ConsoleLogger{output: out, errOut: errOut}
}

// GetLogger returns the singleton instance
func GetLogger() Logger {
	once.Do(func() {
		l := New(os.Stdout, os.Stderr)
		l.tty = term.IsTerminal(int(os.Stdout.Fd()))
		instance = l
	})
	return instance
}

// SetVerbose enables or disables verbose mode globally
func SetVerbose(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

func IsVerbose() bool {
	return GetLogger().IsVerbose()
}

func SetQuiet(quiet bool) {
	GetLogger().SetQuiet(quiet)
}

func IsQuiet() bool {
	return GetLogger().IsQuiet()
}

// Global helper functions for convenience
func Info(format string, args ...any)    { GetLogger().Info(format, args...) }
func Debug(format string, args ...any)   { GetLogger().Debug(format, args...) }
func Success(format string, args ...any) { GetLogger().Success(format, args...) }
func Warn(format string, args ...any)    { GetLogger().Warn(format, args...) }
func Error(format string, args ...any)   { GetLogger().Error(format, args...) }

// -------------------- Implementation --------------------

func (l *ConsoleLogger) SetOutput(out, errOut io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = out
	l.errOut = errOut
	l.tty = false
}

func (l *ConsoleLogger) SetVerbose(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verboseMode = enabled
}

func (l *ConsoleLogger) IsVerbose() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verboseMode
}

func (l *ConsoleLogger) SetQuiet(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quietMode = enabled
}

func (l *ConsoleLogger) IsQuiet() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.quietMode
}

const (
	blueColor   = "\033[34m"
	greenColor  = "\033[32m"
	yellowColor = "\033[33m"
	redColor    = "\033[31m"
	grayColor   = "\033[90m"
	resetColor  = "\033[0m"
)

// level describes how one kind of message is rendered.
type level struct {
	icon, label, color string
	toErr, timestamp   bool
	// shown reports whether the message passes the current mode.
	shown func(l *ConsoleLogger) bool
}

var (
	notQuiet = func(l *ConsoleLogger) bool { return !l.quietMode }

	infoLevel    = level{icon: "ℹ️", label: "INFO", color: blueColor, shown: notQuiet}
	debugLevel   = level{icon: "🔍", label: "DEBUG", color: grayColor, timestamp: true, shown: func(l *ConsoleLogger) bool { return l.verboseMode }}
	successLevel = level{icon: "✓", label: "SUCCESS", color: greenColor, shown: notQuiet}
	warnLevel    = level{icon: "⚠", label: "WARN", color: yellowColor, shown: notQuiet}
	errorLevel   = level{icon: "✗", label: "ERROR", color: redColor, toErr: true, shown: func(*ConsoleLogger) bool { return true }}
)

func (l *ConsoleLogger) log(lv level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !lv.shown(l) {
		return
	}

	out := l.output
	if lv.toErr {
		out = l.errOut
	}

	prefix := lv.label
	if l.tty {
		prefix = lv.icon
	}
	if lv.timestamp {
		prefix = fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04:05.000"), prefix)
	}

	msg := fmt.Sprintf(format, args...)
	if l.tty {
		fmt.Fprintf(out, "%s%s %s%s\n", lv.color, prefix, msg, resetColor)
	} else {
		fmt.Fprintf(out, "%s %s\n", prefix, msg)
	}
}

func (l *ConsoleLogger) Info(format string, args ...any)    { l.log(infoLevel, format, args...) }
func (l *ConsoleLogger) Debug(format string, args ...any)   { l.log(debugLevel, format, args...) }
func (l *ConsoleLogger) Success(format string, args ...any) { l.log(successLevel, format, args...) }
func (l *ConsoleLogger) Warn(format string, args ...any)    { l.log(warnLevel, format, args...) }
func (l *ConsoleLogger) Error(format string, args ...any)   { l.log(errorLevel, format, args...) }
