// SPDX-License-Identifier: MIT
/*
Package audio implements the capture side of the visualizer:
- PortAudio device discovery and input streaming
- A fixed-depth ring of recent sample chunks bridging the callback thread
  and the render thread
- WAV recording of the raw capture stream with atomic state management

Thread Safety:
- The ring is guarded by one short-held mutex; neither side computes while
  holding it
- Recording state uses atomic flags so the callback never takes a lock
- Buffers are pre-allocated to avoid GC in the callback hot path
*/
package audio

import (
	"sync"
)

// minRingDepth guarantees the consumer can always request more samples than
// one producer chunk delivers.
const minRingDepth = 4

// Ring is a fixed-depth buffer of the most recent capture chunks. The audio
// callback appends interleaved float32 chunks; the render thread copies out
// the newest samples as a mono float64 frame. Push never blocks Latest for
// longer than one copy, and vice versa.
//
// One producer, one consumer. The consumer-side scratch buffer is reused
// across Latest calls and is not safe for concurrent readers.
type Ring struct {
	mu     sync.Mutex
	chunks [][]float32
	sizes  []int
	head   int // next write slot
	filled int

	channels int
	scratch  []float32 // consumer-owned staging, copied under the lock
}

// NewRing creates a ring holding depth chunks of up to chunkSize interleaved
// samples each. Depth is raised to the minimum of 4 when smaller. channels
// is the interleave factor of pushed chunks; Latest downmixes to mono.
func NewRing(depth, chunkSize, channels int) *Ring {
	if depth < minRingDepth {
		depth = minRingDepth
	}
	if channels < 1 {
		channels = 1
	}

	r := &Ring{
		chunks:   make([][]float32, depth),
		sizes:    make([]int, depth),
		channels: channels,
		scratch:  make([]float32, 0, depth*chunkSize),
	}
	for i := range r.chunks {
		r.chunks[i] = make([]float32, chunkSize)
	}
	return r
}

// Push copies one capture chunk into the ring. Called from the audio
// callback; the only work under the lock is the copy. Chunks larger than
// the pre-sized slot force a one-time slot growth.
func (r *Ring) Push(in []float32) {
	r.mu.Lock()
	slot := r.chunks[r.head]
	if len(in) > len(slot) {
		slot = make([]float32, len(in))
		r.chunks[r.head] = slot
	}
	n := copy(slot, in)
	r.sizes[r.head] = n
	r.head = (r.head + 1) % len(r.chunks)
	if r.filled < len(r.chunks) {
		r.filled++
	}
	r.mu.Unlock()
}

// Latest fills dst with the most recent len(dst) mono samples, zero-padding
// on the left when less history exists. Interleaved channels are averaged
// into one. Returns the number of real (non-padded) samples written.
//
// Before the first Push — or after a device failure with no pushes — the
// ring yields silence rather than blocking.
func (r *Ring) Latest(dst []float64) int {
	r.mu.Lock()
	r.scratch = r.scratch[:0]
	start := (r.head - r.filled + len(r.chunks)) % len(r.chunks)
	for k := range r.filled {
		idx := (start + k) % len(r.chunks)
		r.scratch = append(r.scratch, r.chunks[idx][:r.sizes[idx]]...)
	}
	r.mu.Unlock()

	// Downmix outside the lock.
	avail := len(r.scratch) / r.channels
	need := len(dst)
	pad := 0
	if avail < need {
		pad = need - avail
	}
	for i := range dst {
		if i < pad {
			dst[i] = 0
			continue
		}
		base := (avail - need + i) * r.channels
		sum := 0.0
		for c := range r.channels {
			sum += float64(r.scratch[base+c])
		}
		dst[i] = sum / float64(r.channels)
	}
	return need - pad
}

// Channels returns the interleave factor of pushed chunks.
func (r *Ring) Channels() int {
	return r.channels
}

// Reset discards all buffered history; subsequent Latest calls yield
// silence until the next Push.
func (r *Ring) Reset() {
	r.mu.Lock()
	r.head = 0
	r.filled = 0
	r.mu.Unlock()
}
