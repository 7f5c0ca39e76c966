package logging

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"log"

	"github.com/fatih/color"
)

// writer is an io.Writer that splits its input stream into lines and writes
// those lines to an underlying logger.
type writer struct {
	// callback is the logging callback.
	callback func(string)
	// buffer is any incomplete line fragment left over from a previous write.
	buffer []byte
}

// trimCarriageReturn trims any single trailing carriage return from the end of
// a byte slice.
func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	// Append the data to our internal buffer.
	w.buffer = append(w.buffer, buffer...)

	// Process all lines in the buffer, tracking the number of bytes that we
	// process.
	var processed int
	remaining := w.buffer
	for {
		// Find the index of the next newline character.
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}

		// Process the line.
		w.callback(string(trimCarriageReturn(remaining[:index])))

		// Update the number of bytes that we've processed.
		processed += index + 1

		// Update the remaining slice.
		remaining = remaining[index+1:]
	}

	// If we managed to process bytes, then truncate our internal buffer.
	if processed > 0 {
		// Compute the number of leftover bytes.
		leftover := len(w.buffer) - processed

		// If there are leftover bytes, then shift them to the front of the
		// buffer.
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}

		// Truncate the buffer.
		w.buffer = w.buffer[:leftover]
	}

	// Done.
	return len(buffer), nil
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. Each Logger carries its own
// level and output destination (rather than relying on global state), so
// per-connection loggers (see the "log"/"log-level" commands in §6) can be
// independently muted or redirected. It is safe for concurrent usage.
type Logger struct {
	// prefix is any prefix specified for the logger.
	prefix string
	// level is the minimum severity this logger will emit.
	level Level
	// output is the underlying standard library logger used for formatting
	// and writing.
	output *log.Logger
}

// RootLogger is the root logger from which all other loggers derive. It
// defaults to logging errors and warnings.
var RootLogger = NewLogger(LevelWarn, nil)

// NewLogger creates a new logger that emits lines at or above the specified
// level to writer. If writer is nil, the standard library's default
// log.Logger is used, which this package's init points at os.Stdout.
func NewLogger(level Level, writer io.Writer) *Logger {
	var destination *log.Logger
	if writer == nil {
		destination = log.Default()
	} else {
		destination = log.New(writer, "", log.LstdFlags)
	}
	return &Logger{
		level:  level,
		output: destination,
	}
}

// Sublogger creates a new sublogger with the specified name, inheriting the
// parent's level and output destination.
func (l *Logger) Sublogger(name string) *Logger {
	// If the logger is nil, then the sublogger will be as well.
	if l == nil {
		return nil
	}

	// Compute the new prefix.
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	// Create the new logger.
	return &Logger{
		prefix: prefix,
		level:  l.level,
		output: l.output,
	}
}

// Level reports the logger's current minimum emission level.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelDisabled
	}
	return l.level
}

// SetLevel adjusts the logger's minimum emission level, for the "log-level"
// command.
func (l *Logger) SetLevel(level Level) {
	if l != nil {
		l.level = level
	}
}

// line formats a log line, adding the logger's prefix if set.
func (l *Logger) line(format string) string {
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s", l.prefix, format)
	}
	return format
}

// emit writes a pre-formatted line if level meets the logger's threshold.
func (l *Logger) emit(level Level, formatted string) {
	if l == nil || l.level < level {
		return
	}
	destination := l.output
	if destination == nil {
		destination = log.Default()
	}
	destination.Output(4, l.line(formatted))
}

// Print logs information at LevelInfo with semantics equivalent to fmt.Print.
func (l *Logger) Print(v ...interface{}) {
	l.emit(LevelInfo, fmt.Sprint(v...))
}

// Printf logs information at LevelInfo with semantics equivalent to fmt.Printf.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.emit(LevelInfo, fmt.Sprintf(format, v...))
}

// Println logs information at LevelInfo with semantics equivalent to
// fmt.Println.
func (l *Logger) Println(v ...interface{}) {
	l.emit(LevelInfo, fmt.Sprintln(v...))
}

// Info is an alias for Print, named to match the other level-named methods.
func (l *Logger) Info(v ...interface{}) {
	l.emit(LevelInfo, fmt.Sprint(v...))
}

// Writer returns an io.Writer that writes lines using Println.
func (l *Logger) Writer() io.Writer {
	// If the logger is nil, then we can just discard input since it won't be
	// logged anyway. This saves us the overhead of scanning lines.
	if l == nil {
		return ioutil.Discard
	}

	// Create the writer.
	return &writer{
		callback: func(s string) {
			l.Println(s)
		},
	}
}

// Debug logs information at LevelDebug with semantics equivalent to
// fmt.Print.
func (l *Logger) Debug(v ...interface{}) {
	l.emit(LevelDebug, fmt.Sprint(v...))
}

// Debugf logs information at LevelDebug with semantics equivalent to
// fmt.Printf.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.emit(LevelDebug, fmt.Sprintf(format, v...))
}

// Debugln logs information at LevelDebug with semantics equivalent to
// fmt.Println.
func (l *Logger) Debugln(v ...interface{}) {
	l.emit(LevelDebug, fmt.Sprintln(v...))
}

// DebugWriter returns an io.Writer that writes lines using Debugln.
func (l *Logger) DebugWriter() io.Writer {
	// If the logger is nil, then we can just discard input since it won't be
	// logged anyway. This saves us the overhead of scanning lines.
	if l == nil {
		return ioutil.Discard
	}

	// Create the writer.
	return &writer{
		callback: func(s string) {
			l.Debugln(s)
		},
	}
}

// Warn logs error information at LevelWarn with a warning prefix and yellow
// color.
func (l *Logger) Warn(err error) {
	l.emit(LevelWarn, color.YellowString("Warning: %v", err))
}

// Warnf logs information at LevelWarn with semantics equivalent to
// fmt.Printf, with a warning prefix and yellow color.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.emit(LevelWarn, color.YellowString("Warning: "+format, v...))
}

// Error logs error information at LevelError with an error prefix and red
// color.
func (l *Logger) Error(err error) {
	l.emit(LevelError, color.RedString("Error: %v", err))
}

// Errorf logs information at LevelError with semantics equivalent to
// fmt.Printf, with an error prefix and red color.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.emit(LevelError, color.RedString("Error: "+format, v...))
}
