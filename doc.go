// Package ringlog is an asynchronous, non-blocking logging pipeline.
//
// Producer goroutines enqueue fixed-layout records into a bounded lock-free
// ring buffer; a single worker goroutine drains them in batches, writes to
// the active log file (and optional console/extra outputs), rotates files
// by size and/or age, compresses rotated files in the background and
// enforces a retention limit.
//
// # Design
//
// The hand-off is a Vyukov-style multi-producer/single-consumer ring: an
// atomic enqueue position plus a per-slot sequence counter replace locks on
// both ends. Producers never block. When the ring is saturated the newest
// record is dropped and counted — back-pressure is drop-newest, never
// block-on-full, favoring producer latency over completeness.
//
// Memory is fixed at construction: the ring, its payload arena and the
// format buffers are allocated once and reused. With AllocZero the logging
// path performs no heap allocation after initialization, which suits
// constrained targets; AllocAuto selects it automatically on 32-bit
// architectures.
//
// Records from one goroutine reach the sinks in the order that goroutine
// logged them. Records from different goroutines are written in the order
// their ring reservations linearize, which under contention need not match
// wall-clock call order.
//
// # Usage
//
//	config := ringlog.DefaultConfig()
//	config.Filename = "myapp"
//	config.LogLevel = ringlog.INFO
//	config.Rotation = ringlog.RotationConfig{
//	    Strategy:     ringlog.RotateBoth,
//	    MaxSizeBytes: 50 * 1024 * 1024,
//	    MaxAgeSeconds: 86400,
//	    MaxFiles:     7,
//	    Compress:     true,
//	}
//
//	logger, err := ringlog.New(config)
//	if err != nil {
//	    panic(err)
//	}
//	defer logger.Close()
//
//	logger.Infof("listening on %s", addr)
//	logger.Warn("disk space low")
//
// Close drains what it can within a bounded grace period and is idempotent;
// logging after Close is safe and counted as dropped.
//
// # Error handling
//
// Nothing on the producer path ever returns or raises an error: queue-full,
// rate-limit and post-close conditions surface only through DroppedCount.
// Worker-side failures (sink writes, rotation swaps, compression) are
// reported to the ErrorHandler callback or the stderr fallback and the
// worker continues. Only New can fail visibly.
package ringlog
