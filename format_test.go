package ringlog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBasic(t *testing.T) {
	t.Parallel()

	f := newFormatter(256, defaultTimestampFormat)
	b := f.get()
	defer f.put(b)

	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC).UnixNano()
	f.format(b, INFO, ts, "", "hello %s", []interface{}{"world"})

	out := string(b.data[:b.n])
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "hello world")
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.False(t, b.truncated)
}

func TestFormatCallerPrefix(t *testing.T) {
	t.Parallel()

	f := newFormatter(256, defaultTimestampFormat)
	b := f.get()
	defer f.put(b)

	f.format(b, WARN, time.Now().UnixNano(), "main.go:42:main", "boom", nil)
	assert.Contains(t, string(b.data[:b.n]), "main.go:42:main: boom")
}

func TestFormatSprintStyle(t *testing.T) {
	t.Parallel()

	f := newFormatter(256, defaultTimestampFormat)
	b := f.get()
	defer f.put(b)

	// Empty template renders args fmt.Sprint style.
	f.format(b, DEBUG, time.Now().UnixNano(), "", "", []interface{}{"a", 1, "b"})
	assert.Contains(t, string(b.data[:b.n]), "a 1 b")
}

func TestFormatVerbatimTemplate(t *testing.T) {
	t.Parallel()

	f := newFormatter(256, defaultTimestampFormat)
	b := f.get()
	defer f.put(b)

	// No args: the template must not be interpreted for verbs.
	f.format(b, DEBUG, time.Now().UnixNano(), "", "100% done", nil)
	assert.Contains(t, string(b.data[:b.n]), "100% done")
}

func TestFormatTruncation(t *testing.T) {
	t.Parallel()

	f := newFormatter(minFormatBufferSize, defaultTimestampFormat)
	b := f.get()
	defer f.put(b)

	long := strings.Repeat("x", 4*minFormatBufferSize)
	f.format(b, ERROR, time.Now().UnixNano(), "", long, nil)

	require.True(t, b.truncated)
	out := string(b.data[:b.n])
	assert.Equal(t, minFormatBufferSize, len(out))
	assert.True(t, strings.HasSuffix(out, truncationMarker+"\n"),
		"truncated output must end with the marker, got %q", out)
}

func TestFormatExactFitNotTruncated(t *testing.T) {
	t.Parallel()

	f := newFormatter(4096, defaultTimestampFormat)
	b := f.get()

	// Determine the header overhead, then build a message that fits exactly.
	f.format(b, INFO, 0, "", "", nil)
	overhead := b.n // header plus newline

	msg := strings.Repeat("y", 4096-overhead)
	f.format(b, INFO, 0, "", msg, nil)
	assert.False(t, b.truncated)
	assert.Equal(t, 4096, b.n)
	f.put(b)
}

func TestFormatBufferReuse(t *testing.T) {
	t.Parallel()

	f := newFormatter(256, defaultTimestampFormat)

	b := f.get()
	f.format(b, INFO, time.Now().UnixNano(), "", strings.Repeat("z", 500), nil)
	require.True(t, b.truncated)
	f.put(b)

	// A reused buffer must not carry the truncated flag or stale bytes.
	b = f.get()
	f.format(b, INFO, time.Now().UnixNano(), "", "short", nil)
	assert.False(t, b.truncated)
	assert.Contains(t, string(b.data[:b.n]), "short")
	f.put(b)
}
