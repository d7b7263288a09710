package ringlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Logger lifecycle states. Transitions are one-way:
// uninitialized -> running -> draining -> stopped.
const (
	stateUninitialized int32 = iota
	stateRunning
	stateDraining
	stateStopped
)

// Logger is an asynchronous, non-blocking logging pipeline. Any number of
// goroutines may log concurrently; records are handed to a single worker
// goroutine through a bounded lock-free ring and written to the active file
// (plus optional console and extra outputs) in the background.
//
// The producer path never blocks and never fails: when the ring is full,
// the logger is paused, the rate limit is exceeded or the logger has been
// closed, the record is dropped and counted instead. Total memory is fixed
// at construction.
type Logger struct {
	state     atomic.Int32
	level     atomic.Int32
	paused    atomic.Bool
	inHandler atomic.Bool

	processed   atomic.Uint64
	dropped     atomic.Uint64
	writeErrors atomic.Uint64

	queue *ringQueue
	fmtr  *formatter
	rot   *rotationManager

	console *ConsoleSink

	outputsMu sync.RWMutex
	outputs   []io.Writer

	errorHandler func(error)
	fallback     io.Writer
	rateLimiter  *rate.Limiter

	enableCaller bool
	dropCounter  bool
	idleSleep    time.Duration
	batchSize    int
	payloadSize  int

	stopChan   chan struct{}
	workerDone chan struct{}

	config LoggerConfig
}

// Stats is an atomic snapshot of the logger's counters. Processed and
// Dropped are monotonically non-decreasing; QueueDepth fluctuates.
type Stats struct {
	Processed   uint64
	Dropped     uint64
	WriteErrors uint64
	QueueDepth  uint64
}

// New creates a running Logger from config.
//
// It validates the configuration (correcting what it can: a
// non-power-of-two QueueCapacity is rounded up, zero values take defaults),
// allocates the fixed ring and format buffers, opens the log file and
// spawns the worker goroutine. It fails only on invalid configuration or
// inability to create the log file.
//
// Example:
//
//	config := ringlog.DefaultConfig()
//	config.Filename = "myapp"
//	config.Rotation.MaxSizeBytes = 10 * 1024 * 1024
//	logger, err := ringlog.New(config)
//	if err != nil {
//	    panic(err)
//	}
//	defer logger.Close()
//
//	logger.Infof("server started on :%d", 8080)
func New(config LoggerConfig) (*Logger, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.applyDefaults()

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logPath := filepath.Join(config.LogsDir, config.Filename+".log")

	l := &Logger{
		fmtr:         newFormatter(config.FormatBufferSize, config.TimestampFormat),
		errorHandler: config.ErrorHandler,
		enableCaller: config.EnableCaller && config.AllocationStrategy == AllocDynamic,
		dropCounter:  config.EnableDropCounter,
		idleSleep:    time.Duration(config.IdleSleepMicros) * time.Microsecond,
		batchSize:    config.BatchSize,
		payloadSize:  config.FormatBufferSize,
		stopChan:     make(chan struct{}),
		workerDone:   make(chan struct{}),
		config:       config,
	}
	l.queue = newRingQueue(config.QueueCapacity, config.FormatBufferSize, config.GuardedProducers)

	if config.EnableFallback {
		l.fallback = os.Stderr
	}
	if config.MaxLogRate > 0 {
		l.rateLimiter = rate.NewLimiter(rate.Limit(config.MaxLogRate), config.MaxLogRate)
	}
	if config.EnableConsole {
		l.console = NewConsoleSink()
	}
	for _, w := range config.Outputs {
		if w != nil {
			l.outputs = append(l.outputs, w)
		}
	}

	rot, err := newRotationManager(logPath, config.Rotation, l.handleError)
	if err != nil {
		return nil, err
	}
	l.rot = rot

	l.level.Store(int32(config.LogLevel))
	l.state.Store(stateRunning)
	go l.workerLoop()

	return l, nil
}

// NewDefault creates a running Logger with DefaultConfig.
func NewDefault() (*Logger, error) {
	return New(DefaultConfig())
}

// log is the producer path shared by all leveled methods. It filters by
// level, captures the timestamp, formats into a pooled buffer and attempts
// a non-blocking push into the ring. It never blocks and never panics; any
// record that cannot be accepted is counted as dropped.
func (l *Logger) log(level LogLevel, template string, args []interface{}) {
	if l.state.Load() != stateRunning || l.paused.Load() {
		l.dropped.Add(1)
		return
	}
	if l.inHandler.Load() {
		// Re-entrant call from inside the error handler path.
		l.dropped.Add(1)
		return
	}
	if level < LogLevel(l.level.Load()) {
		return
	}
	if l.rateLimiter != nil && !l.rateLimiter.Allow() {
		l.dropped.Add(1)
		return
	}

	timestamp := time.Now().UnixNano()

	var caller string
	if l.enableCaller {
		caller = l.getCallerInfo()
	}

	buf := l.fmtr.get()
	l.fmtr.format(buf, level, timestamp, caller, template, args)
	ok := l.queue.tryPush(level, timestamp, buf.data[:buf.n], buf.truncated)
	l.fmtr.put(buf)

	if !ok {
		l.dropped.Add(1)
	}
}

func (l *Logger) getCallerInfo() string {
	pc, file, line, ok := runtime.Caller(3)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	name := fn.Name()
	if lastSlash := strings.LastIndexByte(name, '/'); lastSlash >= 0 {
		name = name[lastSlash+1:]
	}
	return fmt.Sprintf("%s:%d:%s", filepath.Base(file), line, name)
}

// handleError reports an internal error through the configured handler or
// the fallback writer. While a handler runs, log calls from any goroutine
// are dropped and counted rather than re-entering the pipeline.
func (l *Logger) handleError(err error) {
	if !l.inHandler.CompareAndSwap(false, true) {
		return
	}
	defer l.inHandler.Store(false)

	if l.errorHandler != nil {
		l.errorHandler(err)
		return
	}
	if l.fallback != nil {
		fmt.Fprintf(l.fallback, "RINGLOG ERROR: %v\n", err)
	}
}

// SetLogLevel updates the minimum log level. The store is atomic and takes
// effect for subsequent calls; ordering relative to in-flight log calls is
// unspecified.
func (l *Logger) SetLogLevel(level LogLevel) {
	l.level.Store(int32(level))
}

// GetLogLevel returns the current minimum log level.
func (l *Logger) GetLogLevel() LogLevel {
	return LogLevel(l.level.Load())
}

// ProcessedCount returns the number of records written to the sinks.
func (l *Logger) ProcessedCount() uint64 {
	return l.processed.Load()
}

// DroppedCount returns the number of records rejected on the producer path
// (full ring, rate limit, paused or closed logger, re-entrant calls).
func (l *Logger) DroppedCount() uint64 {
	return l.dropped.Load()
}

// QueueDepth returns a snapshot of the number of records awaiting drain.
func (l *Logger) QueueDepth() uint64 {
	return l.queue.depth()
}

// GetStats returns an atomic snapshot of all counters.
func (l *Logger) GetStats() Stats {
	return Stats{
		Processed:   l.processed.Load(),
		Dropped:     l.dropped.Load(),
		WriteErrors: l.writeErrors.Load(),
		QueueDepth:  l.queue.depth(),
	}
}

// Pause suspends intake; log calls made while paused are dropped and
// counted. The worker keeps draining already-queued records.
func (l *Logger) Pause() {
	l.paused.Store(true)
}

// Resume re-enables intake after Pause.
func (l *Logger) Resume() {
	l.paused.Store(false)
}

// IsPaused reports whether intake is suspended.
func (l *Logger) IsPaused() bool {
	return l.paused.Load()
}

// AddOutput registers an additional writer. Outputs are written by the
// worker goroutine only, after the primary file sink.
func (l *Logger) AddOutput(output io.Writer) {
	if output == nil {
		return
	}
	l.outputsMu.Lock()
	defer l.outputsMu.Unlock()
	l.outputs = append(l.outputs, output)
}

// RemoveOutput unregisters a previously added writer.
func (l *Logger) RemoveOutput(output io.Writer) {
	l.outputsMu.Lock()
	defer l.outputsMu.Unlock()
	for i, w := range l.outputs {
		if w == output {
			l.outputs = append(l.outputs[:i], l.outputs[i+1:]...)
			return
		}
	}
}

// Flush waits until the ring is empty or a bounded deadline passes. It
// does not guarantee the records have reached stable storage, only that
// the worker has drained them.
func (l *Logger) Flush() {
	deadline := time.Now().Add(5 * time.Second)
	for l.queue.depth() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}

// Close stops the logger: it transitions to draining, lets the worker
// perform a bounded number of final drain passes, joins it, stops the
// compression helper and closes the active file.
//
// Close is idempotent; a second call returns nil immediately. Log calls
// after Close are dropped and counted, never fatal.
func (l *Logger) Close() error {
	if !l.state.CompareAndSwap(stateRunning, stateDraining) {
		return nil
	}

	close(l.stopChan)
	select {
	case <-l.workerDone:
	case <-time.After(5 * time.Second):
		// Grace period exceeded; proceed with teardown anyway.
	}

	err := l.rot.close()
	l.state.Store(stateStopped)
	return err
}

// IsClosed reports whether Close has completed or is in progress.
func (l *Logger) IsClosed() bool {
	return l.state.Load() >= stateDraining
}

// Debug logs a message at DEBUG level, rendering values fmt.Sprint style.
func (l *Logger) Debug(v ...interface{}) {
	l.log(DEBUG, "", v)
}

// Info logs a message at INFO level, rendering values fmt.Sprint style.
func (l *Logger) Info(v ...interface{}) {
	l.log(INFO, "", v)
}

// Warn logs a message at WARN level, rendering values fmt.Sprint style.
func (l *Logger) Warn(v ...interface{}) {
	l.log(WARN, "", v)
}

// Error logs a message at ERROR level, rendering values fmt.Sprint style.
func (l *Logger) Error(v ...interface{}) {
	l.log(ERROR, "", v)
}

// Debugf logs a formatted message at DEBUG level.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.log(DEBUG, format, v)
}

// Infof logs a formatted message at INFO level.
//
// Example:
//
//	logger.Infof("processed %d records in %s", count, time.Since(start))
func (l *Logger) Infof(format string, v ...interface{}) {
	l.log(INFO, format, v)
}

// Warnf logs a formatted message at WARN level.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.log(WARN, format, v)
}

// Errorf logs a formatted message at ERROR level.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.log(ERROR, format, v)
}
