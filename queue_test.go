package ringlog

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPowerOfTwo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{8, 8},
		{100, 128},
		{8192, 8192},
		{8193, 16384},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextPowerOfTwo(tt.in), "nextPowerOfTwo(%d)", tt.in)
	}
}

func TestQueuePushPopOrder(t *testing.T) {
	t.Parallel()

	q := newRingQueue(8, 64, false)
	for i := 0; i < 5; i++ {
		ok := q.tryPush(INFO, int64(i), []byte(fmt.Sprintf("msg-%d", i)), false)
		require.True(t, ok)
	}

	batch := newBatch(8, 64)
	n := q.tryPopBatch(batch)
	require.Equal(t, 5, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), string(batch[i].bytes()))
		assert.Equal(t, int64(i), batch[i].timestamp)
		assert.Equal(t, INFO, batch[i].level)
	}
}

// Capacity 4, push A..E: A..D succeed, E fails; one drain batch of size 4
// delivers A,B,C,D in order.
func TestQueueFullDrop(t *testing.T) {
	t.Parallel()

	q := newRingQueue(4, 64, false)
	payloads := []string{"A", "B", "C", "D", "E"}
	results := make([]bool, 0, len(payloads))
	for _, p := range payloads {
		results = append(results, q.tryPush(INFO, 0, []byte(p), false))
	}

	assert.Equal(t, []bool{true, true, true, true, false}, results)
	assert.Equal(t, uint64(4), q.depth())

	batch := newBatch(4, 64)
	n := q.tryPopBatch(batch)
	require.Equal(t, 4, n)
	for i, want := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, want, string(batch[i].bytes()))
	}
	assert.Equal(t, uint64(0), q.depth())
}

func TestQueueWrapAround(t *testing.T) {
	t.Parallel()

	q := newRingQueue(4, 32, false)
	batch := newBatch(4, 32)

	// Several laps around the ring through repeated fill/drain cycles.
	seq := 0
	for lap := 0; lap < 10; lap++ {
		for i := 0; i < 4; i++ {
			require.True(t, q.tryPush(DEBUG, 0, []byte(fmt.Sprintf("%d", seq)), false))
			seq++
		}
		n := q.tryPopBatch(batch)
		require.Equal(t, 4, n)
		for i := 0; i < 4; i++ {
			assert.Equal(t, fmt.Sprintf("%d", seq-4+i), string(batch[i].bytes()))
		}
	}
}

func TestQueuePayloadTruncatedToSlotCapacity(t *testing.T) {
	t.Parallel()

	q := newRingQueue(2, 8, false)
	require.True(t, q.tryPush(INFO, 0, []byte("0123456789abcdef"), false))

	batch := newBatch(1, 8)
	n := q.tryPopBatch(batch)
	require.Equal(t, 1, n)
	assert.Equal(t, "01234567", string(batch[0].bytes()))
	assert.True(t, batch[0].truncated)
}

func TestQueueBatchLimit(t *testing.T) {
	t.Parallel()

	q := newRingQueue(16, 32, false)
	for i := 0; i < 10; i++ {
		require.True(t, q.tryPush(INFO, 0, []byte("x"), false))
	}

	batch := newBatch(4, 32)
	assert.Equal(t, 4, q.tryPopBatch(batch))
	assert.Equal(t, 4, q.tryPopBatch(batch))
	assert.Equal(t, 2, q.tryPopBatch(batch))
	assert.Equal(t, 0, q.tryPopBatch(batch))
}

// Delivered payloads must equal pushed payloads minus exactly the rejected
// ones: nothing duplicated, nothing corrupted.
func TestQueueConcurrentProducers(t *testing.T) {
	testConcurrentProducers(t, false)
}

// The mutex-guarded producer fallback preserves the same contract.
func TestQueueGuardedProducers(t *testing.T) {
	testConcurrentProducers(t, true)
}

func testConcurrentProducers(t *testing.T, guarded bool) {
	t.Parallel()

	const producers = 16
	const perProducer = 500

	q := newRingQueue(1024, 64, guarded)

	var wg sync.WaitGroup
	var droppedMu sync.Mutex
	dropped := make(map[string]bool)
	producersDone := make(chan struct{})

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				payload := fmt.Sprintf("p%02d-i%04d", p, i)
				if !q.tryPush(INFO, 0, []byte(payload), false) {
					droppedMu.Lock()
					dropped[payload] = true
					droppedMu.Unlock()
				}
			}
		}(p)
	}
	go func() {
		wg.Wait()
		close(producersDone)
	}()

	received := make(map[string]int)
	perProducerLast := make([]int, producers)
	for i := range perProducerLast {
		perProducerLast[i] = -1
	}

	batch := newBatch(64, 64)
	idle := false
	for {
		n := q.tryPopBatch(batch)
		if n == 0 {
			if idle {
				break // producers finished and a full pass found nothing
			}
			select {
			case <-producersDone:
				idle = true
			default:
				time.Sleep(time.Millisecond)
			}
			continue
		}
		idle = false
		for i := 0; i < n; i++ {
			s := string(batch[i].bytes())
			received[s]++

			// Per-producer FIFO: indices from one producer arrive in order.
			var p, idx int
			if _, err := fmt.Sscanf(s, "p%02d-i%04d", &p, &idx); err == nil {
				if idx <= perProducerLast[p] {
					t.Errorf("out of order delivery for producer %d: %d after %d", p, idx, perProducerLast[p])
				}
				perProducerLast[p] = idx
			}
		}
	}

	total := 0
	for s, count := range received {
		require.Equal(t, 1, count, "payload %q delivered more than once", s)
		require.False(t, dropped[s], "payload %q both dropped and delivered", s)
		total++
	}
	assert.Equal(t, producers*perProducer, total+len(dropped))
}

func TestQueueDepthSnapshot(t *testing.T) {
	t.Parallel()

	q := newRingQueue(8, 32, false)
	assert.Equal(t, uint64(0), q.depth())
	assert.Equal(t, 8, q.capacity())

	for i := 0; i < 3; i++ {
		require.True(t, q.tryPush(INFO, 0, []byte("x"), false))
	}
	assert.Equal(t, uint64(3), q.depth())

	batch := newBatch(2, 32)
	q.tryPopBatch(batch)
	assert.Equal(t, uint64(1), q.depth())
}
