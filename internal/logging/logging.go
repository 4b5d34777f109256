// Package logging provides the small leveled wrapper over the standard
// library's log package that backs --verbosity: stdlib log gated by a level
// check, the same pattern bdd uses behind its debug/nodebug build tags,
// promoted from a compile-time tag to a runtime flag.
package logging

import (
	"fmt"
	"log"
	"os"
)

// Level orders the --verbosity flag's five settings from quietest to
// noisiest.
type Level int

const (
	Quiet Level = iota
	ErrorLevel
	Warning
	Info
	Debug
)

// ParseLevel maps the --verbosity flag's argument to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "QUIET":
		return Quiet, nil
	case "ERROR":
		return ErrorLevel, nil
	case "WARNING":
		return Warning, nil
	case "INFO":
		return Info, nil
	case "DEBUG":
		return Debug, nil
	}
	return Quiet, fmt.Errorf("unknown verbosity %q", s)
}

// Logger is a minimal level-gated wrapper around log.Logger.
type Logger struct {
	level Level
	*log.Logger
}

// New returns a Logger writing to stderr at the given level.
func New(level Level) *Logger {
	return &Logger{level: level, Logger: log.New(os.Stderr, "", log.LstdFlags)}
}

func (l *Logger) Errorf(format string, a ...interface{}) {
	if l.level >= ErrorLevel {
		l.Printf("ERROR "+format, a...)
	}
}

func (l *Logger) Warningf(format string, a ...interface{}) {
	if l.level >= Warning {
		l.Printf("WARN  "+format, a...)
	}
}

func (l *Logger) Infof(format string, a ...interface{}) {
	if l.level >= Info {
		l.Printf("INFO  "+format, a...)
	}
}

func (l *Logger) Debugf(format string, a ...interface{}) {
	if l.level >= Debug {
		l.Printf("DEBUG "+format, a...)
	}
}
