// Package logger writes console output for the commands.
package logger

import (
	"fmt"
	"io"
)

// Logger sends regular output to out and problems to err. Quiet mode hides
// regular output unless it is forced; debug output appears only in debug mode
// and overrides quiet.
type Logger struct {
	out   io.Writer
	err   io.Writer
	quiet bool
	debug bool
}

func New(out io.Writer, err io.Writer, quiet bool, debug bool) *Logger {
	return &Logger{
		out:   out,
		err:   err,
		quiet: quiet,
		debug: debug,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, io.Discard, true, false)
}

func (logger *Logger) Log(message string, forceShow bool) {
	if logger.quiet && !forceShow && !logger.debug {
		return
	}
	writeLine(logger.out, message)
}

func (logger *Logger) Logf(format string, args ...any) {
	logger.Log(fmt.Sprintf(format, args...), false)
}

func (logger *Logger) Debug(message string) {
	if !logger.debug {
		return
	}
	writeLine(logger.out, message)
}

func (logger *Logger) Debugf(format string, args ...any) {
	if !logger.debug {
		return
	}
	writeLine(logger.out, fmt.Sprintf(format, args...))
}

func (logger *Logger) Error(message string) {
	writeLine(logger.err, message)
}

func (logger *Logger) Errorf(format string, args ...any) {
	writeLine(logger.err, fmt.Sprintf(format, args...))
}

func (logger *Logger) IsDebug() bool {
	return logger.debug
}

func writeLine(writer io.Writer, message string) {
	if _, err := fmt.Fprintln(writer, message); err != nil {
		return
	}
}
