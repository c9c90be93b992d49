package types

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

type LogType string

const (
	LogType_Info  LogType = "info"
	LogType_Error LogType = "error"
)

type Logger interface {
	Log(ctx context.Context, logType LogType, format string, args ...interface{})
}

type LoggerFunc func(ctx context.Context, logType LogType, format string, args ...interface{})

func (l LoggerFunc) Log(ctx context.Context, logType LogType, format string, args ...interface{}) {
	l(ctx, logType, format, args...)
}

// NewWriterLogger writes "<type>: <msg>" lines to w
func NewWriterLogger(w io.Writer) Logger {
	return writerLogger{w: w}
}

type writerLogger struct {
	w io.Writer
}

func (l writerLogger) Log(ctx context.Context, logType LogType, format string, args ...interface{}) {
	fmt.Fprintf(l.w, string(logType)+": "+format, args...)
	if !strings.HasSuffix(format, "\n") {
		fmt.Fprintln(l.w)
	}
}

type nopLogger struct{}

func (nopLogger) Log(ctx context.Context, logType LogType, format string, args ...interface{}) {}

// NopLogger discards everything
var NopLogger Logger = nopLogger{}

// GetLogger returns logger if set, otherwise a stderr logger
// when verbose and a discarding one when not
func GetLogger(logger Logger, verbose bool) Logger {
	if logger != nil {
		return logger
	}
	if verbose {
		return NewWriterLogger(os.Stderr)
	}
	return NopLogger
}
