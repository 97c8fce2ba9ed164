// Package history keeps a short per-vehicle window of recent speed samples.
// It is deliberately process-local: the window only feeds the rear-end
// predictor and does not need to survive a restart or be shared.
package history

import "sync"

const defaultCapacity = 5

// Entry is one recorded speed observation, stamped with server receive time.
type Entry struct {
	SpeedMS      float64
	ReceivedAtMs int64
}

type Buffer struct {
	mu       sync.Mutex
	capacity int
	byID     map[string][]Entry
}

func NewBuffer() *Buffer {
	return &Buffer{
		capacity: defaultCapacity,
		byID:     make(map[string][]Entry),
	}
}

// Append records a speed sample, evicting the oldest entry past capacity.
func (b *Buffer) Append(id string, speedMS float64, nowMs int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	window := append(b.byID[id], Entry{SpeedMS: speedMS, ReceivedAtMs: nowMs})
	if len(window) > b.capacity {
		window = window[len(window)-b.capacity:]
	}
	b.byID[id] = window
}

// LatestN returns a copy of the window, oldest first.
func (b *Buffer) LatestN(id string) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	window := b.byID[id]
	out := make([]Entry, len(window))
	copy(out, window)
	return out
}
