package ringlog

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// AllocationStrategy controls how producer-side format buffers are obtained.
type AllocationStrategy int

const (
	// AllocDynamic uses a pooled set of heap-backed scratch buffers. Suited
	// to hosts with ample memory; enables caller information capture.
	AllocDynamic AllocationStrategy = iota
	// AllocZero formats into fixed-capacity buffers allocated once at init
	// and reused for the logger's lifetime. No heap allocation occurs on the
	// logging path after initialization.
	AllocZero
	// AllocAuto selects AllocZero on resource-constrained (32-bit) targets
	// and AllocDynamic everywhere else.
	AllocAuto
)

// ParseAllocationStrategy converts a string to its AllocationStrategy.
func ParseAllocationStrategy(s string) (AllocationStrategy, error) {
	switch strings.ToLower(s) {
	case "dynamic":
		return AllocDynamic, nil
	case "zero_alloc":
		return AllocZero, nil
	case "auto":
		return AllocAuto, nil
	default:
		return AllocDynamic, fmt.Errorf("invalid allocation strategy: %s", s)
	}
}

// RotationStrategy selects which trigger causes a log file rotation.
type RotationStrategy int

const (
	// RotateBySize rotates once the active file exceeds MaxSizeBytes.
	RotateBySize RotationStrategy = iota
	// RotateByTime rotates once the active file is older than MaxAgeSeconds.
	RotateByTime
	// RotateBoth rotates on whichever trigger fires first.
	RotateBoth
)

// ParseRotationStrategy converts a string to its RotationStrategy.
func ParseRotationStrategy(s string) (RotationStrategy, error) {
	switch strings.ToLower(s) {
	case "size":
		return RotateBySize, nil
	case "time":
		return RotateByTime, nil
	case "both":
		return RotateBoth, nil
	default:
		return RotateBySize, fmt.Errorf("invalid rotation strategy: %s", s)
	}
}

// RotationConfig controls file rotation, compression and retention.
type RotationConfig struct {
	Strategy      RotationStrategy `json:"strategy"`
	MaxSizeBytes  int64            `json:"max_size_bytes"`
	MaxAgeSeconds int64            `json:"max_age_seconds"`
	MaxFiles      int              `json:"max_files"`
	Compress      bool             `json:"compress"`
}

// LoggerConfig defines the configuration parameters for the ringlog logger.
//
// All values are fixed at construction; the ring, slot storage and format
// buffers are allocated once and never resized.
//
// Fields:
//   - Filename: base name of the log file (".log" suffix is implied)
//   - LogsDir: directory holding the active and rotated files
//   - QueueCapacity: ring size, rounded up to a power of two (default 8192)
//   - LogLevel: minimum level to record
//   - IdleSleepMicros: worker sleep when the ring is empty (default 100)
//   - BatchSize: maximum records drained per worker pass (default 100)
//   - AllocationStrategy: format buffer strategy (default AllocAuto)
//   - FormatBufferSize: capacity of format buffers and ring slots; rendered
//     output beyond it is truncated with a marker (default 1024 for
//     AllocZero, 4096 for AllocDynamic)
//   - Rotation: rotation triggers, compression and retention
//   - EnableDropCounter: emit a periodic record summarizing dropped logs
//   - EnableCaller: record file:line:function (AllocDynamic only)
//   - EnableConsole: mirror records to a TTY-aware console sink
//   - EnableFallback: report internal errors to stderr
//   - MaxLogRate: maximum records accepted per second, 0 = unlimited;
//     over-limit calls are dropped, never blocked
//   - GuardedProducers: serialize the producer reserve step with a mutex,
//     for targets lacking wide atomic operations; consumer path unchanged
//   - TimestampFormat: record timestamp layout
//   - Outputs: additional writers, written by the worker thread
//   - ErrorHandler: callback for internal errors; must not log back into
//     this logger (re-entrant calls are dropped and counted)
type LoggerConfig struct {
	Filename           string             `json:"filename"`
	LogsDir            string             `json:"logs_dir"`
	QueueCapacity      int                `json:"queue_capacity"`
	LogLevel           LogLevel           `json:"global_level"`
	IdleSleepMicros    int64              `json:"idle_sleep_micros"`
	BatchSize          int                `json:"batch_size"`
	AllocationStrategy AllocationStrategy `json:"allocation_strategy"`
	FormatBufferSize   int                `json:"format_buffer_size"`
	Rotation           RotationConfig     `json:"rotation"`
	EnableDropCounter  bool               `json:"enable_drop_counter"`
	EnableCaller       bool               `json:"enable_caller"`
	EnableConsole      bool               `json:"enable_console"`
	EnableFallback     bool               `json:"enable_fallback"`
	MaxLogRate         int                `json:"max_log_rate"`
	GuardedProducers   bool               `json:"guarded_producers"`
	TimestampFormat    string             `json:"timestamp_format"`
	Outputs            []io.Writer        `json:"-"`
	ErrorHandler       func(error)        `json:"-"`
}

var (
	defaultQueueCapacity         = 8192
	defaultIdleSleepMicros int64 = 100
	defaultBatchSize             = 100
	defaultZeroBufferSize        = 1024
	defaultDynBufferSize         = 4096
	defaultMaxFiles              = 5
	defaultMaxBytes        int64 = 10 * 1024 * 1024
	defaultLogsDir               = "logs"
	defaultFileName              = "ringlog"
	defaultTimestampFormat       = "2006-01-02 15:04:05.000000"

	// Format buffers must hold at least a timestamp, a level tag and the
	// truncation marker with room left for a message fragment.
	minFormatBufferSize = 128
)

// DefaultConfig returns a LoggerConfig with production defaults applied.
func DefaultConfig() LoggerConfig {
	return LoggerConfig{
		Filename:           defaultFileName,
		LogsDir:            defaultLogsDir,
		QueueCapacity:      defaultQueueCapacity,
		LogLevel:           DEBUG,
		IdleSleepMicros:    defaultIdleSleepMicros,
		BatchSize:          defaultBatchSize,
		AllocationStrategy: AllocAuto,
		Rotation: RotationConfig{
			Strategy:     RotateBySize,
			MaxSizeBytes: defaultMaxBytes,
			MaxFiles:     defaultMaxFiles,
		},
		EnableDropCounter: true,
		EnableFallback:    true,
		TimestampFormat:   defaultTimestampFormat,
	}
}

// Validate reports configuration errors that cannot be auto-corrected.
// Correctable values (a non-power-of-two QueueCapacity, zero defaults) are
// fixed up during New instead.
func (lc *LoggerConfig) Validate() error {
	if lc.QueueCapacity < 0 {
		return fmt.Errorf("QueueCapacity cannot be negative")
	}
	if lc.BatchSize < 0 {
		return fmt.Errorf("BatchSize cannot be negative")
	}
	if lc.IdleSleepMicros < 0 {
		return fmt.Errorf("IdleSleepMicros cannot be negative")
	}
	if lc.FormatBufferSize < 0 {
		return fmt.Errorf("FormatBufferSize cannot be negative")
	}
	if lc.MaxLogRate < 0 {
		return fmt.Errorf("MaxLogRate cannot be negative")
	}
	if lc.Rotation.MaxSizeBytes < 0 {
		return fmt.Errorf("Rotation.MaxSizeBytes cannot be negative")
	}
	if lc.Rotation.MaxAgeSeconds < 0 {
		return fmt.Errorf("Rotation.MaxAgeSeconds cannot be negative")
	}
	if lc.Rotation.MaxFiles < 0 {
		return fmt.Errorf("Rotation.MaxFiles cannot be negative")
	}
	if lc.LogLevel < DEBUG || lc.LogLevel > ERROR {
		return fmt.Errorf("invalid log level: %d", lc.LogLevel)
	}
	return nil
}

// applyDefaults fills zero values and resolves the Auto strategy. Called by
// New after Validate; the result is the immutable effective configuration.
func (lc *LoggerConfig) applyDefaults() {
	if lc.Filename == "" {
		lc.Filename = defaultFileName
	}
	lc.Filename = strings.TrimSpace(strings.TrimSuffix(lc.Filename, ".log"))
	if lc.LogsDir == "" {
		lc.LogsDir = defaultLogsDir
	}
	if lc.QueueCapacity == 0 {
		lc.QueueCapacity = defaultQueueCapacity
	}
	lc.QueueCapacity = nextPowerOfTwo(lc.QueueCapacity)
	if lc.IdleSleepMicros == 0 {
		lc.IdleSleepMicros = defaultIdleSleepMicros
	}
	if lc.BatchSize == 0 {
		lc.BatchSize = defaultBatchSize
	}
	if lc.AllocationStrategy == AllocAuto {
		lc.AllocationStrategy = resolveAutoStrategy()
	}
	if lc.FormatBufferSize == 0 {
		if lc.AllocationStrategy == AllocZero {
			lc.FormatBufferSize = defaultZeroBufferSize
		} else {
			lc.FormatBufferSize = defaultDynBufferSize
		}
	}
	if lc.FormatBufferSize < minFormatBufferSize {
		lc.FormatBufferSize = minFormatBufferSize
	}
	if lc.Rotation.MaxSizeBytes == 0 {
		lc.Rotation.MaxSizeBytes = defaultMaxBytes
	}
	if lc.Rotation.MaxFiles == 0 {
		lc.Rotation.MaxFiles = defaultMaxFiles
	}
	if lc.TimestampFormat == "" {
		lc.TimestampFormat = defaultTimestampFormat
	}
}

// resolveAutoStrategy picks the allocation strategy for AllocAuto based on
// the target architecture class.
func resolveAutoStrategy() AllocationStrategy {
	switch runtime.GOARCH {
	case "386", "arm", "mips", "mipsle":
		return AllocZero
	default:
		return AllocDynamic
	}
}

// nextPowerOfTwo rounds n up to the nearest power of two, minimum 1.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
