// Package logging provides the process-wide logger used by both the file
// I/O and watcher services: a Logger that is a no-op when nil, dotted
// sublogger names, and level-gated debug output, extended with a Sink so
// that warnings raised deep inside the watcher pipeline (throttler
// overflow, suspend-supervisor transitions) can also be delivered to the
// parent process as onDidLogMessage notifications.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"sync"

	"github.com/fatih/color"
)

// Sink receives log messages that should be forwarded to the parent process
// as onDidLogMessage notifications, in addition to local logging.
type Sink interface {
	LogMessage(level Level, message string)
}

// writer is an io.Writer that splits its input stream into lines and writes
// those lines to an underlying logger.
type writer struct {
	// callback is the logging callback.
	callback func(string)
	// buffer is any incomplete line fragment left over from a previous write.
	buffer []byte
}

// trimCarriageReturn trims any single trailing carriage return from the end
// of a byte slice.
func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	w.buffer = append(w.buffer, buffer...)

	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(string(trimCarriageReturn(remaining[:index])))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(buffer), nil
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. It wraps the standard
// logger provided by the log package, so it respects any flags set for that
// logger, and it is safe for concurrent usage.
type Logger struct {
	// prefix is any prefix specified for the logger.
	prefix string
	// level is the minimum level at which this logger emits output.
	level Level
	// sinkLock guards sink.
	sinkLock sync.RWMutex
	// sink is an optional destination for onDidLogMessage-style forwarding.
	sink Sink
}

// RootLogger is the root logger from which all other loggers derive.
var RootLogger = &Logger{level: LevelInfo}

// NewRoot creates a new root logger at the specified level.
func NewRoot(level Level) *Logger {
	return &Logger{level: level}
}

// SetSink attaches (or clears, with nil) the logger's notification sink.
func (l *Logger) SetSink(sink Sink) {
	if l == nil {
		return
	}
	l.sinkLock.Lock()
	l.sink = sink
	l.sinkLock.Unlock()
}

// Sublogger creates a new sublogger with the specified name.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}

	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	l.sinkLock.RLock()
	sink := l.sink
	l.sinkLock.RUnlock()

	return &Logger{
		prefix: prefix,
		level:  l.level,
		sink:   sink,
	}
}

// Level reports the logger's minimum emission level.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelDisabled
	}
	return l.level
}

// enabled reports whether messages at the given level should be emitted.
func (l *Logger) enabled(level Level) bool {
	return l != nil && level <= l.level
}

// output is the internal logging method.
func (l *Logger) output(calldepth int, line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(calldepth, line)
}

// notify forwards a message to the attached sink, if any.
func (l *Logger) notify(level Level, message string) {
	l.sinkLock.RLock()
	sink := l.sink
	l.sinkLock.RUnlock()
	if sink != nil {
		sink.LogMessage(level, message)
	}
}

// Print logs information with semantics equivalent to fmt.Print.
func (l *Logger) Print(v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Printf logs information with semantics equivalent to fmt.Printf.
func (l *Logger) Printf(format string, v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Println logs information with semantics equivalent to fmt.Println.
func (l *Logger) Println(v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprintln(v...))
	}
}

// Info logs basic execution information.
func (l *Logger) Info(v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Infof logs basic execution information with Printf semantics.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Writer returns an io.Writer that writes lines using Println.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return ioutil.Discard
	}
	return &writer{callback: func(s string) { l.Println(s) }}
}

// Debug logs information with semantics equivalent to fmt.Print, but only if
// the logger's level permits debug output.
func (l *Logger) Debug(v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Debugf logs information with semantics equivalent to fmt.Printf, but only
// if the logger's level permits debug output.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Debugln logs information with semantics equivalent to fmt.Println, but
// only if the logger's level permits debug output.
func (l *Logger) Debugln(v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(3, fmt.Sprintln(v...))
	}
}

// DebugWriter returns an io.Writer that writes lines using Debugln.
func (l *Logger) DebugWriter() io.Writer {
	if l == nil {
		return ioutil.Discard
	}
	return &writer{callback: func(s string) { l.Debugln(s) }}
}

// Warn logs a warning message with a yellow "Warning:" prefix and forwards
// it to the attached sink (if any) as an onDidLogMessage notification.
func (l *Logger) Warn(message string) {
	if l == nil {
		return
	}
	if l.enabled(LevelWarn) {
		l.output(3, color.YellowString("Warning: %s", message))
	}
	l.notify(LevelWarn, message)
}

// Warnf is Warn with Printf semantics.
func (l *Logger) Warnf(format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.Warn(fmt.Sprintf(format, v...))
}

// Error logs error information with a red "Error:" prefix and forwards it
// to the attached sink (if any).
func (l *Logger) Error(err error) {
	if l == nil {
		return
	}
	if l.enabled(LevelError) {
		l.output(3, color.RedString("Error: %v", err))
	}
	l.notify(LevelError, err.Error())
}

// Errorf is Error with Printf semantics.
func (l *Logger) Errorf(format string, v ...interface{}) {
	if l == nil {
		return
	}
	message := fmt.Sprintf(format, v...)
	if l.enabled(LevelError) {
		l.output(3, color.RedString("Error: %s", message))
	}
	l.notify(LevelError, message)
}
