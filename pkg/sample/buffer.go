package sample

import "sync"

// Buffer is a fixed-capacity ring of calibrated samples. When full, Push
// overwrites the oldest sample. Snapshot and Tail return ordered copies
// (oldest first), so readers never see a live view.
//
// One goroutine pushes; any number may read. The lock is held for O(1) on
// Push and for a single copy on reads.
type Buffer struct {
	mu    sync.RWMutex
	data  []float64
	start int // index of the oldest sample
	n     int // current length
}

// NewBuffer creates an empty buffer. Capacity is fixed for the buffer's lifetime.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{data: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample if the buffer is full.
func (b *Buffer) Push(v float64) {
	b.mu.Lock()
	b.push(v)
	b.mu.Unlock()
}

// PushMany appends vs in order under a single lock acquisition.
func (b *Buffer) PushMany(vs []float64) {
	if len(vs) == 0 {
		return
	}
	b.mu.Lock()
	// Only the newest cap(data) values can survive.
	if extra := len(vs) - len(b.data); extra > 0 {
		vs = vs[extra:]
	}
	for _, v := range vs {
		b.push(v)
	}
	b.mu.Unlock()
}

func (b *Buffer) push(v float64) {
	c := len(b.data)
	if b.n < c {
		b.data[(b.start+b.n)%c] = v
		b.n++
		return
	}
	b.data[b.start] = v
	b.start = (b.start + 1) % c
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.n
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Snapshot returns a point-in-time copy of all buffered samples, oldest first.
// An empty buffer yields an empty, non-nil slice.
func (b *Buffer) Snapshot() []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.copyLast(b.n)
}

// Tail returns a copy of the newest n samples (fewer if not available).
func (b *Buffer) Tail(n int) []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n > b.n {
		n = b.n
	}
	if n < 0 {
		n = 0
	}
	return b.copyLast(n)
}

// copyLast copies the newest n samples. Caller holds the lock.
func (b *Buffer) copyLast(n int) []float64 {
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	c := len(b.data)
	from := (b.start + b.n - n) % c
	k := copy(out, b.data[from:min(from+n, c)])
	copy(out[k:], b.data[:n-k])
	return out
}
