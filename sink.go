package ringlog

import (
	"bytes"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Sink receives formatted records from the worker thread. Console and file
// sinks are interchangeable; any io.Writer qualifies.
type Sink interface {
	Write(p []byte) (n int, err error)
}

// Flusher is optionally implemented by sinks that buffer internally. The
// worker flushes during shutdown.
type Flusher interface {
	Flush() error
}

// ANSI sequences for level tag colorization.
var levelColors = map[LogLevel]string{
	DEBUG: "\x1b[90m", // bright black
	INFO:  "\x1b[32m", // green
	WARN:  "\x1b[33m", // yellow
	ERROR: "\x1b[31m", // red
}

const colorReset = "\x1b[0m"

// ConsoleSink writes records to a terminal, colorizing the level tag when
// the output is an interactive TTY. When output is piped the records pass
// through unmodified.
type ConsoleSink struct {
	out   io.Writer
	color bool
}

// NewConsoleSink returns a console sink over stdout.
func NewConsoleSink() *ConsoleSink {
	return newConsoleSink(os.Stdout)
}

func newConsoleSink(f *os.File) *ConsoleSink {
	return &ConsoleSink{
		out:   colorable.NewColorable(f),
		color: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()),
	}
}

// Write implements Sink.
func (c *ConsoleSink) Write(p []byte) (int, error) {
	if !c.color {
		return c.out.Write(p)
	}
	for level, color := range levelColors {
		tag := []byte("[" + level.String() + "]")
		i := bytes.Index(p, tag)
		if i < 0 {
			continue
		}
		line := make([]byte, 0, len(p)+len(color)+len(colorReset))
		line = append(line, p[:i]...)
		line = append(line, color...)
		line = append(line, tag...)
		line = append(line, colorReset...)
		line = append(line, p[i+len(tag):]...)
		if _, err := c.out.Write(line); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	return c.out.Write(p)
}
