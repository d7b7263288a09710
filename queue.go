package ringlog

import (
	"sync"
	"sync/atomic"
)

// cacheLineSize pads the hot atomic positions onto separate cache lines so
// producers and the consumer do not false-share.
const cacheLineSize = 64

// slot pairs a record with its sequence counter. The sequence encodes which
// lap around the ring the slot currently represents:
//
//	sequence == pos        slot free, a producer may claim position pos
//	sequence == pos+1      record published for position pos, consumer may read
//	sequence == pos+cap    slot recycled, free for position pos+cap
type slot struct {
	sequence atomic.Uint64
	msg      logMessage
}

// ringQueue is a bounded lock-free multi-producer/single-consumer ring.
//
// Producers claim positions by CAS on enqueuePos and publish by storing the
// slot sequence; the single consumer reads in position order and recycles
// slots by bumping their sequence a full lap ahead. Memory is one contiguous
// slot array plus one contiguous payload arena, fixed for the queue's life.
//
// With guarded set, the producer claim/publish step is serialized by a
// mutex instead; the external contract and the consumer path are identical.
// This is the documented fallback for targets without wide atomics.
type ringQueue struct {
	mask  uint64
	slots []slot
	arena []byte

	_          [cacheLineSize]byte
	enqueuePos atomic.Uint64
	_          [cacheLineSize - 8]byte
	dequeuePos atomic.Uint64
	_          [cacheLineSize - 8]byte

	guarded bool
	mu      sync.Mutex
}

// newRingQueue creates a ring of the given capacity (must already be a
// power of two) with payloadSize bytes of storage per slot.
func newRingQueue(capacity, payloadSize int, guarded bool) *ringQueue {
	q := &ringQueue{
		mask:    uint64(capacity - 1),
		slots:   make([]slot, capacity),
		arena:   make([]byte, capacity*payloadSize),
		guarded: guarded,
	}
	for i := range q.slots {
		q.slots[i].sequence.Store(uint64(i))
		q.slots[i].msg.payload = q.arena[i*payloadSize : (i+1)*payloadSize : (i+1)*payloadSize]
	}
	return q
}

// capacity returns the fixed number of slots.
func (q *ringQueue) capacity() int {
	return int(q.mask + 1)
}

// depth returns a snapshot of the number of occupied slots. The value is
// advisory: it races with concurrent pushes and pops by design.
func (q *ringQueue) depth() uint64 {
	enq := q.enqueuePos.Load()
	deq := q.dequeuePos.Load()
	if enq < deq {
		return 0
	}
	return enq - deq
}

// tryPush copies body into the next free slot and publishes it. It never
// blocks: when the ring is saturated it returns false without mutating
// state, and the caller accounts the drop. If body exceeds the slot
// capacity the stored record is marked truncated.
//
// Records from one goroutine are published in call order; records from
// different goroutines are published in the order their claims linearize.
func (q *ringQueue) tryPush(level LogLevel, timestamp int64, body []byte, truncated bool) bool {
	if q.guarded {
		q.mu.Lock()
		defer q.mu.Unlock()
	}
	for {
		pos := q.enqueuePos.Load()
		s := &q.slots[pos&q.mask]
		seq := s.sequence.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if q.enqueuePos.CompareAndSwap(pos, pos+1) {
				s.msg.level = level
				s.msg.timestamp = timestamp
				n := copy(s.msg.payload, body)
				s.msg.length = n
				s.msg.truncated = truncated || n < len(body)
				s.sequence.Store(pos + 1)
				return true
			}
		case diff < 0:
			// Target slot still holds an unread record: ring is full.
			return false
		default:
			// Another producer claimed pos between our loads; reload.
		}
	}
}

// tryPopBatch drains at most len(dst) published records in FIFO order,
// copying each payload into the caller-owned dst entry before recycling the
// slot. Consumer-only; never blocks. Returns the number of records drained,
// zero when no slot has been published yet.
func (q *ringQueue) tryPopBatch(dst []logMessage) int {
	n := 0
	for n < len(dst) {
		pos := q.dequeuePos.Load()
		s := &q.slots[pos&q.mask]
		if s.sequence.Load() != pos+1 {
			// Next slot not yet published: empty for this position.
			break
		}
		m := &dst[n]
		m.level = s.msg.level
		m.timestamp = s.msg.timestamp
		m.truncated = s.msg.truncated
		m.length = copy(m.payload, s.msg.bytes())
		// Recycle the slot a full lap ahead.
		s.sequence.Store(pos + q.mask + 1)
		q.dequeuePos.Store(pos + 1)
		n++
	}
	return n
}
