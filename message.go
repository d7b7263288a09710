package ringlog

// truncationMarker is appended to records whose rendered form exceeded the
// format buffer capacity. Truncation is never an error.
const truncationMarker = "[TRUNCATED]"

// logMessage is the fixed-layout record held by a ring slot. It is owned by
// the slot from publish until the consumer copies it out, after which the
// slot is reusable. payload is a fixed-capacity view into the ring's
// contiguous arena; length bytes of it are valid.
type logMessage struct {
	level     LogLevel
	timestamp int64 // nanoseconds since epoch, captured at enqueue time
	length    int
	truncated bool
	payload   []byte
}

// bytes returns the valid portion of the payload.
func (m *logMessage) bytes() []byte {
	return m.payload[:m.length]
}

// newBatch allocates a consumer-owned batch of n messages whose payloads
// are sized to the ring's slot capacity. The worker allocates one batch at
// startup and reuses it for every drain pass.
func newBatch(n, payloadSize int) []logMessage {
	batch := make([]logMessage, n)
	arena := make([]byte, n*payloadSize)
	for i := range batch {
		batch[i].payload = arena[i*payloadSize : (i+1)*payloadSize : (i+1)*payloadSize]
	}
	return batch
}
