package ringlog

import (
	"fmt"
	"sync"
	"time"
)

// formatBuffer is a fixed-capacity render target. Writes past capacity are
// discarded and flagged so the formatter can append the truncation marker.
type formatBuffer struct {
	data      []byte
	n         int
	truncated bool
	ts        [64]byte // scratch for timestamp rendering
}

// Write implements io.Writer over the fixed buffer. It never fails; excess
// bytes are dropped and the buffer is marked truncated.
func (b *formatBuffer) Write(p []byte) (int, error) {
	c := copy(b.data[b.n:], p)
	b.n += c
	if c < len(p) {
		b.truncated = true
	}
	return len(p), nil
}

func (b *formatBuffer) writeString(s string) {
	c := copy(b.data[b.n:], s)
	b.n += c
	if c < len(s) {
		b.truncated = true
	}
}

func (b *formatBuffer) writeByte(c byte) {
	if b.n < len(b.data) {
		b.data[b.n] = c
		b.n++
	} else {
		b.truncated = true
	}
}

func (b *formatBuffer) reset() {
	b.n = 0
	b.truncated = false
}

// formatter renders records into fixed-capacity buffers drawn from a pool.
// Buffers are allocated lazily up to the number of concurrently formatting
// goroutines and then reused, so steady-state formatting performs no heap
// allocation under either strategy. AllocDynamic differs from AllocZero
// only in default buffer size and in permitting caller capture upstream.
type formatter struct {
	bufSize  int
	tsFormat string
	pool     sync.Pool
}

func newFormatter(bufSize int, tsFormat string) *formatter {
	f := &formatter{
		bufSize:  bufSize,
		tsFormat: tsFormat,
	}
	f.pool.New = func() interface{} {
		return &formatBuffer{data: make([]byte, bufSize)}
	}
	return f
}

func (f *formatter) get() *formatBuffer {
	b := f.pool.Get().(*formatBuffer)
	b.reset()
	return b
}

func (f *formatter) put(b *formatBuffer) {
	f.pool.Put(b)
}

// format renders one record into b:
//
//	timestamp [LEVEL] caller: message\n
//
// When len(args) == 0 the template is written verbatim; with an empty
// template the args are rendered fmt.Sprint style; otherwise the template
// is expanded fmt.Sprintf style. Output that does not fit is cut back to
// leave room for the truncation marker and a trailing newline, and the
// buffer is flagged truncated. Formatting never fails.
func (f *formatter) format(b *formatBuffer, level LogLevel, timestamp int64, caller, template string, args []interface{}) {
	b.reset()

	t := time.Unix(0, timestamp)
	stamp := t.AppendFormat(b.ts[:0], f.tsFormat)
	b.Write(stamp)

	b.writeString(" [")
	b.writeString(level.String())
	b.writeString("] ")

	if caller != "" {
		b.writeString(caller)
		b.writeString(": ")
	}

	switch {
	case len(args) == 0:
		b.writeString(template)
	case template == "":
		fmt.Fprint(b, args...)
	default:
		fmt.Fprintf(b, template, args...)
	}

	if b.truncated {
		// Cut back so the marker and newline fit within capacity.
		b.n = len(b.data) - len(truncationMarker) - 1
		b.n += copy(b.data[b.n:], truncationMarker)
	}
	b.writeByte('\n')
}
