package sim

import "sync"

const (
	actionBufferOccupancyMetricKey = "sim_action_buffer_occupancy"
	actionBufferOverflowMetricKey  = "sim_action_buffer_overflow_total"
)

// ActionBuffer stages dispatched actions in a fixed-size ring until the next
// tick drains them. Safe for concurrent producers and a single consumer.
type ActionBuffer struct {
	mu      sync.Mutex
	data    []StagedAction
	head    int
	tail    int
	count   int
	metrics bufferMetrics
}

// StagedAction is an action plus its dispatch provenance.
type StagedAction struct {
	SessionID string `json:"sessionId,omitempty"`
	Action    Action `json:"action"`
}

type bufferMetrics interface {
	Add(string, uint64)
	Store(string, uint64)
}

// NewActionBuffer constructs a ring buffer with the provided capacity.
func NewActionBuffer(capacity int, metrics bufferMetrics) *ActionBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ActionBuffer{
		data:    make([]StagedAction, capacity),
		metrics: metrics,
	}
}

// Capacity reports the maximum number of actions the buffer can hold.
func (b *ActionBuffer) Capacity() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Push stages an action, returning false if the buffer is full.
func (b *ActionBuffer) Push(staged StagedAction) bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == len(b.data) {
		if b.metrics != nil {
			b.metrics.Add(actionBufferOverflowMetricKey, 1)
		}
		return false
	}
	b.data[b.tail] = staged
	b.tail = (b.tail + 1) % len(b.data)
	b.count++
	b.storeOccupancyLocked()
	return true
}

// Drain returns all staged actions in FIFO order and clears the buffer.
func (b *ActionBuffer) Drain() []StagedAction {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return nil
	}
	staged := make([]StagedAction, b.count)
	for i := 0; i < b.count; i++ {
		idx := (b.head + i) % len(b.data)
		staged[i] = b.data[idx]
	}
	b.head = 0
	b.tail = 0
	b.count = 0
	b.storeOccupancyLocked()
	return staged
}

// Len reports the number of staged actions.
func (b *ActionBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *ActionBuffer) storeOccupancyLocked() {
	if b.metrics == nil {
		return
	}
	b.metrics.Store(actionBufferOccupancyMetricKey, uint64(b.count))
}
