package ringlog

import (
	"time"
)

// finalDrainPasses bounds the extra drain work performed after a stop
// request, shrinking the loss window while guaranteeing termination within
// a fixed budget regardless of producer activity.
const finalDrainPasses = 8

// workerLoop is the single consumer. It polls the ring cooperatively:
// drain a batch, write it to the sinks, check rotation, and sleep briefly
// when idle. No blocking wait primitives touch the queue, so producers are
// never exposed to consumer-side locking.
func (l *Logger) workerLoop() {
	defer close(l.workerDone)

	batch := newBatch(l.batchSize, l.payloadSize)
	var lastReportedDrops uint64

	for {
		select {
		case <-l.stopChan:
			for i := 0; i < finalDrainPasses; i++ {
				n := l.queue.tryPopBatch(batch)
				if n == 0 {
					break
				}
				l.writeBatch(batch[:n])
			}
			l.flushOutputs()
			l.rot.sync()
			return
		default:
		}

		n := l.queue.tryPopBatch(batch)
		if n > 0 {
			l.writeBatch(batch[:n])
		}

		if err := l.rot.maybeRotate(); err != nil {
			l.handleError(err)
		}

		if n == 0 {
			lastReportedDrops = l.reportDrops(lastReportedDrops)
			time.Sleep(l.idleSleep)
		}
	}
}

// writeBatch writes drained records to the active file, the console sink
// and any extra outputs, in that order. Sink errors are counted and
// reported to the fallback channel; the worker always continues.
func (l *Logger) writeBatch(batch []logMessage) {
	for i := range batch {
		line := batch[i].bytes()

		if err := l.rot.write(line); err != nil {
			l.writeErrors.Add(1)
			l.handleError(err)
		}

		if l.console != nil {
			if _, err := l.console.Write(line); err != nil {
				l.writeErrors.Add(1)
				l.handleError(err)
			}
		}

		l.outputsMu.RLock()
		for _, w := range l.outputs {
			if _, err := w.Write(line); err != nil {
				l.writeErrors.Add(1)
				l.handleError(err)
			}
		}
		l.outputsMu.RUnlock()

		l.processed.Add(1)
	}
}

// reportDrops emits a summary record when records were dropped since the
// last report. It runs on the worker thread during idle passes and writes
// directly to the sinks, bypassing the ring. Returns the new high-water
// mark.
func (l *Logger) reportDrops(lastReported uint64) uint64 {
	if !l.dropCounter {
		return lastReported
	}
	current := l.dropped.Load()
	if current <= lastReported {
		return lastReported
	}

	buf := l.fmtr.get()
	l.fmtr.format(buf, WARN, time.Now().UnixNano(), "",
		"logs were dropped: %d since last report, %d total",
		[]interface{}{current - lastReported, current})
	if err := l.rot.write(buf.data[:buf.n]); err != nil {
		l.writeErrors.Add(1)
		l.handleError(err)
	}
	l.fmtr.put(buf)

	return current
}

// flushOutputs gives buffered sinks a final chance to empty during
// shutdown.
func (l *Logger) flushOutputs() {
	l.outputsMu.RLock()
	defer l.outputsMu.RUnlock()
	for _, w := range l.outputs {
		if f, ok := w.(Flusher); ok {
			f.Flush()
		}
	}
}
